package postgresql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"vacancy-pipeline/internal/entity"
)

// JobRepository persists pipeline jobs, the handles returned by the
// processing and training triggers.
type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func (r *JobRepository) Create(ctx context.Context, kind entity.JobKind, priority int, input json.RawMessage) (uuid.UUID, error) {
	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}

	const q = `
INSERT INTO pipeline_jobs (kind, status, priority, input)
VALUES ($1, 'pending', $2, $3)
RETURNING id;`

	var id uuid.UUID
	if err := r.pool.QueryRow(ctx, q, string(kind), priority, input).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("insert job: %w", err)
	}
	return id, nil
}

func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	const q = `
SELECT id, kind, status, priority, input, output, error, created_at, updated_at
FROM pipeline_jobs
WHERE id = $1;`

	var (
		job         entity.Job
		kind        string
		status      string
		inputBytes  []byte
		outputBytes []byte
	)
	if err := r.pool.QueryRow(ctx, q, id).Scan(
		&job.ID,
		&kind,
		&status,
		&job.Priority,
		&inputBytes,
		&outputBytes,
		&job.Error,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return nil, notFound(err)
	}

	job.Kind = entity.JobKind(kind)
	job.Status = entity.JobStatus(status)
	job.Input = json.RawMessage(inputBytes)
	if outputBytes != nil {
		job.Output = json.RawMessage(outputBytes)
	}
	return &job, nil
}

func (r *JobRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.JobStatus) error {
	const q = `UPDATE pipeline_jobs SET status = $2, updated_at = now() WHERE id = $1;`

	tag, err := r.pool.Exec(ctx, q, id, string(status))
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *JobRepository) SetResultDone(ctx context.Context, id uuid.UUID, output json.RawMessage) error {
	if len(output) == 0 {
		output = json.RawMessage(`{}`)
	}
	const q = `UPDATE pipeline_jobs SET status = 'done', output = $2, error = NULL, updated_at = now() WHERE id = $1;`

	tag, err := r.pool.Exec(ctx, q, id, output)
	if err != nil {
		return fmt.Errorf("set job done: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetResultError stores the failure and whatever partial output exists.
func (r *JobRepository) SetResultError(ctx context.Context, id uuid.UUID, errText string, output json.RawMessage) error {
	const q = `UPDATE pipeline_jobs SET status = 'error', error = $2, output = $3, updated_at = now() WHERE id = $1;`

	var out any
	if len(output) > 0 {
		out = output
	}
	tag, err := r.pool.Exec(ctx, q, id, errText, out)
	if err != nil {
		return fmt.Errorf("set job error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Touch marks a running job as alive. Finished jobs are left untouched.
func (r *JobRepository) Touch(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE pipeline_jobs SET updated_at = now() WHERE id = $1 AND status = 'processing';`

	if _, err := r.pool.Exec(ctx, q, id); err != nil {
		return fmt.Errorf("touch job: %w", err)
	}
	return nil
}
