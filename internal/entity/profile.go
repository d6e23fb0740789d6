package entity

import "github.com/google/uuid"

// CandidateProfile is the part of a user's primary resume the matcher reads.
type CandidateProfile struct {
	UserID    uuid.UUID
	Title     string
	Skills    []string
	MinSalary *int
}

// MatchCandidate is the slice of a vacancy used for scoring matches.
type MatchCandidate struct {
	ID        uuid.UUID
	Title     string
	Skills    []string
	MaxSalary *int
}
