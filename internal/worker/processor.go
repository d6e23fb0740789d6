package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vacancy-pipeline/internal/entity"
	"vacancy-pipeline/internal/pipeline"
)

type JobRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Job, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.JobStatus) error
	SetResultDone(ctx context.Context, id uuid.UUID, output json.RawMessage) error
	SetResultError(ctx context.Context, id uuid.UUID, errText string, output json.RawMessage) error
	Touch(ctx context.Context, id uuid.UUID) error
}

// ErrJobRunning is returned for a redelivered job whose first run is still
// alive. The delivery is left unacknowledged so the reaper offers it again.
var ErrJobRunning = errors.New("job is still running")

type BatchRunner interface {
	Run(ctx context.Context, ids []uuid.UUID, opts pipeline.Options) (entity.ProcessOutput, error)
}

type ModelTrainer interface {
	Train(ctx context.Context) (entity.TrainOutput, error)
}

// Processor executes one pipeline job and records its outcome on the job row.
type Processor struct {
	repo       JobRepo
	batch      BatchRunner
	trainer    ModelTrainer
	staleAfter time.Duration
	logger     *zap.Logger
}

// NewProcessor builds a Processor. A running job refreshes its row at a
// quarter of staleAfter; a processing row older than staleAfter belongs to a
// dead worker and may be run again.
func NewProcessor(repo JobRepo, batch BatchRunner, trainer ModelTrainer, staleAfter time.Duration, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Processor{repo: repo, batch: batch, trainer: trainer, staleAfter: staleAfter, logger: logger}
}

// Process runs the job. The queue may deliver an id more than once: a job
// that already finished is skipped, and a job another worker is still running
// returns ErrJobRunning.
func (p *Processor) Process(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	log := p.logger.With(zap.String("job_id", id.String()))

	job, err := p.repo.GetByID(ctx, id)
	if err != nil {
		log.Error("get job failed", zap.Error(err))
		return err
	}
	if job.Status == entity.JobDone || job.Status == entity.JobError {
		log.Info("job already finished", zap.String("status", string(job.Status)))
		return nil
	}
	if job.Status == entity.JobProcessing && time.Since(job.UpdatedAt) < p.staleAfter {
		log.Info("job still running elsewhere", zap.Time("updated_at", job.UpdatedAt))
		return ErrJobRunning
	}

	if err := p.repo.UpdateStatus(ctx, id, entity.JobProcessing); err != nil {
		log.Error("update status failed", zap.String("status", string(entity.JobProcessing)), zap.Error(err))
		return err
	}
	log = log.With(zap.String("kind", string(job.Kind)))
	log.Info("job started")

	stop := p.heartbeat(ctx, id, log)
	out, procErr := p.run(ctx, job)
	stop()

	// The outcome is written even when ctx was cancelled mid-run.
	wctx := context.WithoutCancel(ctx)
	if procErr != nil {
		msg := procErr.Error()
		if err := p.repo.SetResultError(wctx, id, msg, out); err != nil {
			log.Error("set error result failed", zap.Error(err))
		}
		log.Error("job failed",
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.String("error", msg),
		)
		return procErr
	}

	if err := p.repo.SetResultDone(wctx, id, out); err != nil {
		log.Error("set done result failed", zap.Error(err))
		return err
	}
	log.Info("job done", zap.Int64("duration_ms", time.Since(start).Milliseconds()))
	return nil
}

// heartbeat keeps the job row fresh until the returned func is called.
func (p *Processor) heartbeat(ctx context.Context, id uuid.UUID, log *zap.Logger) func() {
	hctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		t := time.NewTicker(p.staleAfter / 4)
		defer t.Stop()
		for {
			select {
			case <-hctx.Done():
				return
			case <-t.C:
				if err := p.repo.Touch(hctx, id); err != nil && hctx.Err() == nil {
					log.Warn("job heartbeat failed", zap.Error(err))
				}
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

func (p *Processor) run(ctx context.Context, job *entity.Job) (json.RawMessage, error) {
	switch job.Kind {
	case entity.KindProcessVacancies:
		var in entity.ProcessInput
		if len(job.Input) > 0 {
			if err := json.Unmarshal(job.Input, &in); err != nil {
				return nil, fmt.Errorf("decode job input: %w", err)
			}
		}
		out, err := p.batch.Run(ctx, in.IDs, pipeline.Options{
			BatchSize:   in.BatchSize,
			Concurrency: in.Concurrency,
		})
		return encode(out, err)

	case entity.KindTrainModel:
		out, err := p.trainer.Train(ctx)
		if err != nil {
			return nil, err
		}
		return encode(out, nil)

	default:
		return nil, errors.New("unknown job kind: " + string(job.Kind))
	}
}

func encode(v any, runErr error) (json.RawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(runErr, fmt.Errorf("encode job output: %w", err))
	}
	return raw, runErr
}
