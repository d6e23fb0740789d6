// Package model persists the extraction model artifact: the instructions and
// demonstrations the extractor prompts with.
package model

import (
	"time"

	"vacancy-pipeline/internal/entity"
)

const versionLayout = "2006_01_02_15_04"

// Demo is one solved example shown to the model.
type Demo struct {
	Input  string                  `json:"input"`
	Output entity.VacancyCandidate `json:"output"`
}

// Artifact is a versioned parameter set for the extractor.
type Artifact struct {
	Version      string    `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	Instructions string    `json:"instructions"`
	Demos        []Demo    `json:"demos"`
	ExampleCount int       `json:"example_count"`
}

// VersionFor formats the version name of an artifact created at t.
func VersionFor(t time.Time) string {
	return t.UTC().Format(versionLayout)
}
