package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinRating = -1
	MaxRating = 1
)

type VacancyRating struct {
	UserID     uuid.UUID `json:"user_id"`
	VacancyID  uuid.UUID `json:"vacancy_id"`
	Rating     int       `json:"rating"`
	ModifiedAt time.Time `json:"modified_at"`
}
