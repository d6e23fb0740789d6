package entity

import (
	"time"

	"github.com/google/uuid"
)

// RawRecord is a scraped posting as it arrived from a source, before any
// extraction happened.
type RawRecord struct {
	ID         uuid.UUID  `json:"id"`
	URL        string     `json:"url"`
	HTML       string     `json:"html"`
	Status     Status     `json:"status"`
	ErrorKind  *string    `json:"error_kind,omitempty"`
	Error      *string    `json:"error,omitempty"`
	VacancyID  *uuid.UUID `json:"vacancy_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	ModifiedAt time.Time  `json:"modified_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

// StatusCounts maps every raw record status to the number of active records in it.
type StatusCounts map[Status]int

func (c StatusCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}
