package entity

import (
	"time"

	"github.com/google/uuid"
)

// ScrapingTask tracks an outstanding external scrape request. It shares the
// status enum with RawRecord.
type ScrapingTask struct {
	ID         uuid.UUID `json:"id"`
	Query      string    `json:"query"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}
