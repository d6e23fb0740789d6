package postgresql

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vacancy-pipeline/internal/entity"
)

type ScrapingTaskRepository struct {
	pool *pgxpool.Pool
}

func NewScrapingTaskRepository(pool *pgxpool.Pool) *ScrapingTaskRepository {
	return &ScrapingTaskRepository{pool: pool}
}

const scrapingTaskColumns = `id, query, status::text, created_at, modified_at`

func scanScrapingTask(row pgx.Row) (entity.ScrapingTask, error) {
	var (
		t      entity.ScrapingTask
		status string
	)
	err := row.Scan(&t.ID, &t.Query, &status, &t.CreatedAt, &t.ModifiedAt)
	t.Status = entity.Status(status)
	return t, err
}

func (r *ScrapingTaskRepository) Create(ctx context.Context, query string) (*entity.ScrapingTask, error) {
	q := `INSERT INTO scraping_tasks (query) VALUES ($1) RETURNING ` + scrapingTaskColumns + `;`
	t, err := scanScrapingTask(r.pool.QueryRow(ctx, q, query))
	if err != nil {
		return nil, fmt.Errorf("insert scraping task: %w", err)
	}
	return &t, nil
}

// ListPending returns the oldest PENDING tasks first.
func (r *ScrapingTaskRepository) ListPending(ctx context.Context, limit int) ([]entity.ScrapingTask, error) {
	q := `SELECT ` + scrapingTaskColumns + ` FROM scraping_tasks WHERE status = 'pending' ORDER BY created_at, id LIMIT $1;`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list scraping tasks: %w", err)
	}
	tasks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.ScrapingTask, error) {
		return scanScrapingTask(row)
	})
	if err != nil {
		return nil, fmt.Errorf("collect scraping tasks: %w", err)
	}
	return tasks, nil
}

func (r *ScrapingTaskRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.Status) (*entity.ScrapingTask, error) {
	q := `
UPDATE scraping_tasks SET status = $2::text::scraped_vacancy_status, modified_at = now()
WHERE id = $1
RETURNING ` + scrapingTaskColumns + `;`
	t, err := scanScrapingTask(r.pool.QueryRow(ctx, q, id, string(status)))
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}
