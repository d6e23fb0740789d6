package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type JobKind string

const (
	KindProcessVacancies JobKind = "process_vacancies"
	KindTrainModel       JobKind = "train_model"
)

type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobDone       JobStatus = "done"
	JobError      JobStatus = "error"
)

// Job is a queued pipeline run. Its ID is the handle returned to whoever
// triggered the run.
type Job struct {
	ID        uuid.UUID       `json:"id"`
	Kind      JobKind         `json:"kind"`
	Status    JobStatus       `json:"status"`
	Input     json.RawMessage `json:"input"`
	Output    json.RawMessage `json:"output,omitempty"`
	Error     *string         `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Priority  int             `json:"priority" db:"priority"`
}

// ProcessInput is the payload of a process_vacancies job.
type ProcessInput struct {
	IDs         []uuid.UUID `json:"ids,omitempty"`
	BatchSize   int         `json:"batch_size"`
	Concurrency int         `json:"concurrency"`
}

// ProcessOutput is stored on a finished process_vacancies job.
type ProcessOutput struct {
	Processed int `json:"processed"`
	Done      int `json:"done"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// TrainOutput is stored on a finished train_model job.
type TrainOutput struct {
	Version      string `json:"version"`
	VersionPath  string `json:"version_path"`
	LatestPath   string `json:"latest_path"`
	ExampleCount int    `json:"example_count"`
}
