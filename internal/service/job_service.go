package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"vacancy-pipeline/internal/entity"
	"vacancy-pipeline/internal/search"
)

const (
	maxBatchSize   = 100000
	maxConcurrency = 1000
	maxExplicitIDs = 10000
)

// JobRepository is implemented by postgresql.JobRepository.
type JobRepository interface {
	Create(ctx context.Context, kind entity.JobKind, priority int, input json.RawMessage) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Job, error)
}

// JobQueue is the enqueue half of Queue.
type JobQueue interface {
	Enqueue(ctx context.Context, jobID uuid.UUID, priority Priority) error
}

// JobService is the trigger interface of the pipeline. Every trigger stores
// a job row and queues it; the job id is the handle given back.
type JobService struct {
	repo  JobRepository
	queue JobQueue
}

func NewJobService(repo JobRepository, queue JobQueue) *JobService {
	return &JobService{repo: repo, queue: queue}
}

// EnqueueProcessing queues a batch run. Explicit re-selections go to the
// high lane so operator retries are not stuck behind a full backlog.
func (s *JobService) EnqueueProcessing(ctx context.Context, in entity.ProcessInput) (uuid.UUID, error) {
	if err := validateProcessInput(in); err != nil {
		return uuid.Nil, err
	}

	priority := PriorityNormal
	if len(in.IDs) > 0 {
		priority = PriorityHigh
	}
	return s.create(ctx, entity.KindProcessVacancies, priority, in)
}

// EnqueueTraining queues a model training run on the low lane.
func (s *JobService) EnqueueTraining(ctx context.Context) (uuid.UUID, error) {
	return s.create(ctx, entity.KindTrainModel, PriorityLow, struct{}{})
}

func (s *JobService) GetJob(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *JobService) create(ctx context.Context, kind entity.JobKind, priority Priority, input any) (uuid.UUID, error) {
	raw, err := json.Marshal(input)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encode job input: %w", err)
	}

	id, err := s.repo.Create(ctx, kind, int(priority), raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("create job: %w", err)
	}
	if err := s.queue.Enqueue(ctx, id, priority); err != nil {
		return uuid.Nil, fmt.Errorf("enqueue job %s: %w", id, err)
	}
	return id, nil
}

func validateProcessInput(in entity.ProcessInput) error {
	fields := map[string]string{}
	if in.BatchSize < 0 || in.BatchSize > maxBatchSize {
		fields["batch_size"] = fmt.Sprintf("must be between 1 and %d", maxBatchSize)
	}
	if in.Concurrency < 0 || in.Concurrency > maxConcurrency {
		fields["concurrency"] = fmt.Sprintf("must be between 1 and %d", maxConcurrency)
	}
	if len(in.IDs) > maxExplicitIDs {
		fields["ids"] = fmt.Sprintf("at most %d ids per run", maxExplicitIDs)
	}
	if len(fields) > 0 {
		return &search.ValidationError{Fields: fields}
	}
	return nil
}
