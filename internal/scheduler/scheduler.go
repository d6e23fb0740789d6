// Package scheduler triggers pipeline runs on cron specs.
package scheduler

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"vacancy-pipeline/internal/entity"
)

type Trigger interface {
	EnqueueProcessing(ctx context.Context, in entity.ProcessInput) (uuid.UUID, error)
	EnqueueTraining(ctx context.Context) (uuid.UUID, error)
}

// Specs holds the cron expressions. An empty spec disables that trigger.
type Specs struct {
	Process string
	Train   string
}

// Scheduler wraps robfig/cron. Each tick only enqueues a job; the work runs
// on the worker pool.
type Scheduler struct {
	cron    *cron.Cron
	trigger Trigger
	specs   Specs
	logger  *zap.Logger
}

func New(trigger Trigger, specs Specs, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		trigger: trigger,
		specs:   specs,
		logger:  logger,
	}
}

// Start registers the configured triggers and starts the cron loop. It
// returns the number of registered triggers.
func (s *Scheduler) Start(ctx context.Context) (int, error) {
	n := 0
	if s.specs.Process != "" {
		if _, err := s.cron.AddFunc(s.specs.Process, func() { s.enqueueProcessing(ctx) }); err != nil {
			return 0, fmt.Errorf("schedule processing %q: %w", s.specs.Process, err)
		}
		n++
	}
	if s.specs.Train != "" {
		if _, err := s.cron.AddFunc(s.specs.Train, func() { s.enqueueTraining(ctx) }); err != nil {
			return 0, fmt.Errorf("schedule training %q: %w", s.specs.Train, err)
		}
		n++
	}

	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.String("process", s.specs.Process),
		zap.String("train", s.specs.Train),
	)
	return n, nil
}

// Stop halts the cron loop and waits for a running trigger to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) enqueueProcessing(ctx context.Context) {
	id, err := s.trigger.EnqueueProcessing(ctx, entity.ProcessInput{})
	if err != nil {
		s.logger.Error("scheduled processing failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduled processing queued", zap.String("job_id", id.String()))
}

func (s *Scheduler) enqueueTraining(ctx context.Context) {
	id, err := s.trigger.EnqueueTraining(ctx)
	if err != nil {
		s.logger.Error("scheduled training failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduled training queued", zap.String("job_id", id.String()))
}
