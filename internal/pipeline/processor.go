// Package pipeline drives raw records through extraction:
//
//	claim (PENDING, or any status when re-selected by id) -> PROCESSING
//	extract with a per-record timeout
//	publish the vacancy and mark DONE, or mark FAILED with the error kind
//
// Records are read in fixed-size chunks and each chunk is fanned out over a
// bounded worker pool.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"vacancy-pipeline/internal/entity"
	"vacancy-pipeline/internal/extractor"
)

const (
	DefaultBatchSize      = 5000
	DefaultConcurrency    = 100
	DefaultExtractTimeout = 60 * time.Second
)

// ErrStoreUnavailable wraps store failures. They abort the run.
var ErrStoreUnavailable = errors.New("store unavailable")

type RecordStore interface {
	ListPendingIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
	Claim(ctx context.Context, id uuid.UUID, from []entity.Status) (*entity.RawRecord, error)
	MarkFailed(ctx context.Context, id uuid.UUID, kind, msg string) error
}

type VacancyStore interface {
	Publish(ctx context.Context, rawID uuid.UUID, c entity.VacancyCandidate) (uuid.UUID, error)
}

type Extractor interface {
	Extract(ctx context.Context, html string) (entity.VacancyCandidate, error)
}

type EventPublisher interface {
	VacancyPublished(ctx context.Context, vacancyID, rawID uuid.UUID) error
}

type Options struct {
	BatchSize      int
	Concurrency    int
	ExtractTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.ExtractTimeout <= 0 {
		o.ExtractTimeout = DefaultExtractTimeout
	}
	return o
}

type BatchProcessor struct {
	records   RecordStore
	vacancies VacancyStore
	extractor Extractor
	events    EventPublisher
	defaults  Options
	logger    *zap.Logger
}

func NewBatchProcessor(records RecordStore, vacancies VacancyStore, ex Extractor, events EventPublisher, defaults Options, logger *zap.Logger) *BatchProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchProcessor{
		records:   records,
		vacancies: vacancies,
		extractor: ex,
		events:    events,
		defaults:  defaults.withDefaults(),
		logger:    logger,
	}
}

type counters struct {
	processed, done, failed, skipped atomic.Int64
}

func (c *counters) output() entity.ProcessOutput {
	return entity.ProcessOutput{
		Processed: int(c.processed.Load()),
		Done:      int(c.done.Load()),
		Failed:    int(c.failed.Load()),
		Skipped:   int(c.skipped.Load()),
	}
}

// Run processes the records named by ids, or every PENDING record when ids
// is empty. Zero fields of opts fall back to the processor defaults. The
// returned output is valid even when an error aborted the run.
//
// Cancelling ctx stops the run before the next chunk; the current chunk is
// finished first.
func (p *BatchProcessor) Run(ctx context.Context, ids []uuid.UUID, opts Options) (entity.ProcessOutput, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = p.defaults.BatchSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = p.defaults.Concurrency
	}
	if opts.ExtractTimeout <= 0 {
		opts.ExtractTimeout = p.defaults.ExtractTimeout
	}

	start := time.Now()
	explicit := len(ids) > 0
	from := entity.StartableStatuses(explicit)

	var (
		c      counters
		chunks int
		err    error
	)
	next := p.pendingChunks(opts.BatchSize)
	if explicit {
		next = explicitChunks(dedupe(ids), opts.BatchSize)
	}

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("stopped after %d chunks: %w", chunks, ctxErr)
			break
		}
		chunk, nerr := next(ctx)
		if nerr != nil {
			err = fmt.Errorf("%w: %w", ErrStoreUnavailable, nerr)
			break
		}
		if len(chunk) == 0 {
			break
		}
		chunks++
		p.logger.Debug("processing chunk", zap.Int("chunk", chunks), zap.Int("size", len(chunk)))
		if err = p.runChunk(ctx, chunk, from, opts, &c); err != nil {
			break
		}
	}

	out := c.output()
	fields := []zap.Field{
		zap.Bool("explicit", explicit),
		zap.Int("chunks", chunks),
		zap.Int("processed", out.Processed),
		zap.Int("done", out.Done),
		zap.Int("failed", out.Failed),
		zap.Int("skipped", out.Skipped),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	}
	if err != nil {
		p.logger.Error("batch aborted", append(fields, zap.Error(err))...)
		return out, err
	}
	p.logger.Info("batch processed", fields...)
	return out, nil
}

type chunkSource func(ctx context.Context) ([]uuid.UUID, error)

// pendingChunks pages PENDING ids by keyset so memory stays bounded by the
// batch size. Claimed records leave PENDING, so the cursor only moves forward.
func (p *BatchProcessor) pendingChunks(size int) chunkSource {
	after := uuid.Nil
	return func(ctx context.Context) ([]uuid.UUID, error) {
		ids, err := p.records.ListPendingIDs(ctx, after, size)
		if err != nil {
			return nil, fmt.Errorf("list pending records: %w", err)
		}
		if len(ids) > 0 {
			after = ids[len(ids)-1]
		}
		return ids, nil
	}
}

func explicitChunks(ids []uuid.UUID, size int) chunkSource {
	return func(context.Context) ([]uuid.UUID, error) {
		n := min(size, len(ids))
		chunk := ids[:n]
		ids = ids[n:]
		return chunk, nil
	}
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// runChunk fans a chunk out over at most opts.Concurrency workers. The
// chunk is not interrupted by ctx; only a store error stops records that
// were not started yet. Started records always run to a terminal status.
func (p *BatchProcessor) runChunk(ctx context.Context, ids []uuid.UUID, from []entity.Status, opts Options, c *counters) error {
	workCtx := context.WithoutCancel(ctx)
	g, gctx := errgroup.WithContext(workCtx)
	g.SetLimit(opts.Concurrency)

	for _, id := range ids {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			return p.processOne(workCtx, id, from, opts.ExtractTimeout, c)
		})
	}
	return g.Wait()
}

func (p *BatchProcessor) processOne(ctx context.Context, id uuid.UUID, from []entity.Status, timeout time.Duration, c *counters) error {
	start := time.Now()
	log := p.logger.With(zap.String("raw_record_id", id.String()))

	rec, err := p.records.Claim(ctx, id, from)
	if err != nil {
		return fmt.Errorf("%w: claim %s: %w", ErrStoreUnavailable, id, err)
	}
	if rec == nil {
		c.skipped.Add(1)
		log.Debug("record not claimable, skipped")
		return nil
	}
	c.processed.Add(1)

	xctx, cancel := context.WithTimeout(ctx, timeout)
	cand, err := p.extractor.Extract(xctx, rec.HTML)
	deadline := errors.Is(xctx.Err(), context.DeadlineExceeded)
	cancel()

	if err != nil {
		kind, ok := extractor.KindOf(err)
		if deadline {
			kind = extractor.KindTimeout
		} else if !ok {
			kind = extractor.KindModelUnavailable
		}
		return p.fail(ctx, log, id, kind, err, start, c)
	}

	vacancyID, err := p.vacancies.Publish(ctx, id, cand)
	switch {
	case errors.Is(err, entity.ErrClaimLost):
		p.lost(log, c)
		return nil
	case errors.Is(err, entity.ErrRejected):
		return p.fail(ctx, log, id, extractor.KindValidationFailed, err, start, c)
	case err != nil:
		return fmt.Errorf("%w: publish %s: %w", ErrStoreUnavailable, id, err)
	}
	c.done.Add(1)
	log.Debug("record done",
		zap.String("status", string(entity.StatusDone)),
		zap.String("vacancy_id", vacancyID.String()),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	if p.events != nil {
		if err := p.events.VacancyPublished(ctx, vacancyID, id); err != nil {
			log.Warn("publish vacancy event failed", zap.Error(err))
		}
	}
	return nil
}

func (p *BatchProcessor) fail(ctx context.Context, log *zap.Logger, id uuid.UUID, kind extractor.Kind, cause error, start time.Time, c *counters) error {
	if err := p.records.MarkFailed(ctx, id, string(kind), cause.Error()); err != nil {
		if errors.Is(err, entity.ErrClaimLost) {
			p.lost(log, c)
			return nil
		}
		return fmt.Errorf("%w: mark %s failed: %w", ErrStoreUnavailable, id, err)
	}
	c.failed.Add(1)
	log.Warn("record failed",
		zap.String("status", string(entity.StatusFailed)),
		zap.String("error_kind", string(kind)),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		zap.Error(cause),
	)
	return nil
}

// lost accounts for a record another run took over while this worker held it.
// That run owns the outcome.
func (p *BatchProcessor) lost(log *zap.Logger, c *counters) {
	c.processed.Add(-1)
	c.skipped.Add(1)
	log.Warn("record claim lost, skipped")
}
