package ai

import (
	"context"
	"errors"
)

var (
	// ErrContextLength is returned when a prompt does not fit the model's
	// context window. A larger model may still accept it.
	ErrContextLength = errors.New("prompt exceeds model context")
	// ErrTransient marks failures worth retrying on the same model.
	ErrTransient = errors.New("transient model failure")
)

// Generator sends a prompt to a named model and returns its text answer.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}
