package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vacancy-pipeline/internal/service"
)

type JobProcessor interface {
	Process(ctx context.Context, id uuid.UUID) error
}

// DefaultStaleAfter is how long a claim or a running job may go without
// progress before it is considered abandoned.
const DefaultStaleAfter = 2 * time.Hour

// PoolOptions tune the claim loop and the stale-claim reaper.
type PoolOptions struct {
	Workers    int
	ClaimDelay time.Duration
	ReapEvery  time.Duration
	StaleAfter time.Duration
	ReapBatch  int64
}

func (o PoolOptions) withDefaults() PoolOptions {
	if o.Workers <= 0 {
		o.Workers = 2
	}
	if o.ClaimDelay <= 0 {
		o.ClaimDelay = 5 * time.Second
	}
	if o.ReapEvery <= 0 {
		o.ReapEvery = time.Minute
	}
	if o.StaleAfter <= 0 {
		o.StaleAfter = DefaultStaleAfter
	}
	if o.ReapBatch <= 0 {
		o.ReapBatch = 100
	}
	return o
}

type Pool struct {
	queue     service.Queue
	processor JobProcessor
	opts      PoolOptions
	logger    *zap.Logger
}

func NewPool(queue service.Queue, processor JobProcessor, opts PoolOptions, logger *zap.Logger) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		queue:     queue,
		processor: processor,
		opts:      opts.withDefaults(),
		logger:    logger,
	}
}

// Run claims jobs until ctx is done, then waits for running jobs to finish.
func (p *Pool) Run(ctx context.Context) {
	p.logger.Info("worker pool started", zap.Int("workers", p.opts.Workers))

	jobCh := make(chan uuid.UUID)
	var wg sync.WaitGroup

	for i := 0; i < p.opts.Workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			log := p.logger.With(zap.Int("worker", n))
			for id := range jobCh {
				err := p.processor.Process(ctx, id)
				if errors.Is(err, ErrJobRunning) {
					// Acking would drop the claim the live run depends on.
					continue
				}
				if err != nil {
					log.Warn("process job failed", zap.String("job_id", id.String()), zap.Error(err))
				}

				// The job row already holds the outcome. A crash before this
				// point leaves the claim to the reaper.
				if err := p.queue.Ack(context.WithoutCancel(ctx), id); err != nil {
					log.Error("ack job failed", zap.String("job_id", id.String()), zap.Error(err))
				}
			}
		}(i + 1)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		p.reap(ctx)
	}()

	p.listen(ctx, jobCh)
	close(jobCh)
	wg.Wait()
	p.logger.Info("worker pool stopped")
}

func (p *Pool) listen(ctx context.Context, jobCh chan<- uuid.UUID) {
	for {
		id, err := p.queue.Claim(ctx, p.opts.ClaimDelay)
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, service.ErrQueueEmpty) {
			continue
		}
		if err != nil {
			p.logger.Warn("claim failed", zap.Error(err))
			if !sleepCtx(ctx, p.opts.ClaimDelay) {
				return
			}
			continue
		}
		select {
		case jobCh <- id:
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pool) reap(ctx context.Context) {
	t := time.NewTicker(p.opts.ReapEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := p.ReapOnce(ctx); err != nil {
				p.logger.Warn("requeue stale claims failed", zap.Error(err))
			}
		}
	}
}

// ReapOnce returns claims older than the stale threshold to their lanes.
func (p *Pool) ReapOnce(ctx context.Context) (int64, error) {
	n, err := p.queue.RequeueStale(ctx, p.opts.StaleAfter, p.opts.ReapBatch)
	if err != nil {
		return 0, fmt.Errorf("requeue stale: %w", err)
	}
	if n > 0 {
		p.logger.Info("requeued stale claims", zap.Int64("count", n))
	}
	return n, nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
