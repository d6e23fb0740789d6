// Raw record lifecycle:
//
//	PENDING ──► PROCESSING ──► DONE
//	                 │
//	                 └────────► FAILED
//
// FAILED and DONE are only left through an explicit re-selection by ID,
// which moves the record back to PROCESSING.
package entity

import (
	"errors"
	"fmt"
)

// Status values mirror the scraped_vacancy_status enum in PostgreSQL.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
)

var (
	// ErrClaimLost is returned when a record left PROCESSING while a worker
	// still held it, usually because another run re-selected it.
	ErrClaimLost = errors.New("record is no longer processing")
	// ErrRejected is returned when the store refuses the values written for
	// a record.
	ErrRejected = errors.New("record rejected by store")
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{StatusPending, StatusProcessing, StatusDone, StatusFailed}

var validTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusDone, StatusFailed},
}

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusPending, StatusProcessing, StatusDone, StatusFailed:
		return st, nil
	}
	return "", fmt.Errorf("unknown record status %q", s)
}

// IsTransitionAllowed reports whether the batch processor may move a record
// from one status to another on its own.
func IsTransitionAllowed(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a processing run leaves a record in s.
func IsTerminal(s Status) bool { return s == StatusDone || s == StatusFailed }

// StartableStatuses returns the statuses a record may be claimed from.
// An "all pending" run only claims PENDING records; an explicit re-selection
// claims a record whatever its status is.
func StartableStatuses(explicit bool) []Status {
	if explicit {
		return AllStatuses
	}
	return []Status{StatusPending}
}
