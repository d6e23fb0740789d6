package extractor

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies why a record could not be turned into a vacancy.
type Kind string

const (
	KindMalformedInput   Kind = "MalformedInput"
	KindModelUnavailable Kind = "ModelUnavailable"
	KindValidationFailed Kind = "ValidationFailed"
	KindTimeout          Kind = "Timeout"
)

// Error is a classified extraction failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the classification carried by err. Deadline errors count as
// Timeout even when they were not wrapped by the extractor.
func KindOf(err error) (Kind, bool) {
	if err == nil {
		return "", false
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout, true
	}
	return "", false
}
