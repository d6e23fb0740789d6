package entity

import (
	"time"

	"github.com/google/uuid"
)

type Skill struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type Company struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Vacancy is a validated, published posting derived from a RawRecord.
type Vacancy struct {
	ID          uuid.UUID  `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	MinSalary   *int       `json:"min_salary,omitempty"`
	MaxSalary   *int       `json:"max_salary,omitempty"`
	PublishedAt time.Time  `json:"published_at"`
	IsApproved  bool       `json:"is_approved"`
	Skills      []Skill    `json:"skills"`
	SourceID    *uuid.UUID `json:"source_id,omitempty"`
	Company     *Company   `json:"company,omitempty"`
	UserRating  *int       `json:"user_rating,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ModifiedAt  time.Time  `json:"modified_at"`
}

// VacancyCandidate is what the extractor produces for one raw record. It is
// persisted as a Vacancy once it passed validation.
type VacancyCandidate struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	MinSalary   *int       `json:"min_salary,omitempty"`
	MaxSalary   *int       `json:"max_salary,omitempty"`
	Company     string     `json:"company,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	// Skills are normalised names. NoSkills is set when the model explicitly
	// found none, which is distinct from a missing field.
	Skills   []string `json:"skills"`
	NoSkills bool     `json:"no_skills,omitempty"`
	// SearchText feeds the search_vector column.
	SearchText   string `json:"search_text"`
	ModelVersion string `json:"model_version"`
}

// ApprovedExample pairs an approved vacancy with the raw HTML it came from.
// It is the unit of training data.
type ApprovedExample struct {
	VacancyID uuid.UUID
	HTML      string
	Expected  VacancyCandidate
}
