package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"vacancy-pipeline/internal/entity"
)

type fakeTrigger struct {
	processed int
	trained   int
	err       error
}

func (f *fakeTrigger) EnqueueProcessing(context.Context, entity.ProcessInput) (uuid.UUID, error) {
	f.processed++
	return uuid.New(), f.err
}

func (f *fakeTrigger) EnqueueTraining(context.Context) (uuid.UUID, error) {
	f.trained++
	return uuid.New(), f.err
}

func TestStart_RegistersConfiguredSpecs(t *testing.T) {
	s := New(&fakeTrigger{}, Specs{Process: "@every 1h"}, nil)
	n, err := s.Start(context.Background())
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer s.Stop()
	if n != 1 {
		t.Errorf("expected 1 trigger, got %d", n)
	}
}

func TestStart_RejectsBadSpec(t *testing.T) {
	s := New(&fakeTrigger{}, Specs{Train: "not a spec"}, nil)
	if _, err := s.Start(context.Background()); err == nil {
		t.Fatal("expected an error for an invalid cron spec")
	}
}

func TestTicksEnqueue(t *testing.T) {
	tr := &fakeTrigger{}
	s := New(tr, Specs{}, nil)

	s.enqueueProcessing(context.Background())
	s.enqueueTraining(context.Background())
	if tr.processed != 1 || tr.trained != 1 {
		t.Errorf("expected one of each, got processed=%d trained=%d", tr.processed, tr.trained)
	}

	tr.err = errors.New("redis down")
	s.enqueueProcessing(context.Background())
	if tr.processed != 2 {
		t.Errorf("expected failing enqueue to be attempted")
	}
}
