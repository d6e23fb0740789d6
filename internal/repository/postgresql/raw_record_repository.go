package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vacancy-pipeline/internal/entity"
)

// RawRecordRepository stores scraped postings. Active() (the default) hides
// soft-deleted rows, All() includes them.
type RawRecordRepository struct {
	pool           *pgxpool.Pool
	includeDeleted bool
}

func NewRawRecordRepository(pool *pgxpool.Pool) *RawRecordRepository {
	return &RawRecordRepository{pool: pool}
}

func (r *RawRecordRepository) Active() *RawRecordRepository {
	return &RawRecordRepository{pool: r.pool}
}

func (r *RawRecordRepository) All() *RawRecordRepository {
	return &RawRecordRepository{pool: r.pool, includeDeleted: true}
}

// scope returns the soft-delete predicate for this view.
func (r *RawRecordRepository) scope() string {
	if r.includeDeleted {
		return "TRUE"
	}
	return "deleted_at IS NULL"
}

const rawRecordColumns = `id, url, html, status::text, error_kind, error, created_at, modified_at, deleted_at`

func scanRawRecord(row pgx.Row) (*entity.RawRecord, error) {
	var (
		rec    entity.RawRecord
		status string
	)
	if err := row.Scan(
		&rec.ID,
		&rec.URL,
		&rec.HTML,
		&status,
		&rec.ErrorKind,
		&rec.Error,
		&rec.CreatedAt,
		&rec.ModifiedAt,
		&rec.DeletedAt,
	); err != nil {
		return nil, err
	}
	rec.Status = entity.Status(status)
	return &rec, nil
}

// Create inserts a PENDING record. A URL that already exists, deleted or
// not, yields ErrDuplicateRecord.
func (r *RawRecordRepository) Create(ctx context.Context, url, html string) (*entity.RawRecord, error) {
	q := `
INSERT INTO scraped_vacancies (url, html)
VALUES ($1, $2)
RETURNING ` + rawRecordColumns + `;`

	rec, err := scanRawRecord(r.pool.QueryRow(ctx, q, url, html))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateRecord
		}
		return nil, fmt.Errorf("insert raw record: %w", err)
	}
	return rec, nil
}

func (r *RawRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.RawRecord, error) {
	q := `SELECT ` + rawRecordColumns + ` FROM scraped_vacancies WHERE id = $1 AND ` + r.scope() + `;`
	rec, err := scanRawRecord(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, notFound(err)
	}
	return rec, nil
}

// ExistsURLs reports for every url whether a record with exactly that URL
// exists. The result is parallel to urls.
func (r *RawRecordRepository) ExistsURLs(ctx context.Context, urls []string) ([]bool, error) {
	out := make([]bool, len(urls))
	if len(urls) == 0 {
		return out, nil
	}

	q := `SELECT url FROM scraped_vacancies WHERE url = ANY($1::text[]) AND ` + r.scope() + `;`
	rows, err := r.pool.Query(ctx, q, urls)
	if err != nil {
		return nil, fmt.Errorf("query urls: %w", err)
	}
	found, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect urls: %w", err)
	}

	set := make(map[string]struct{}, len(found))
	for _, u := range found {
		set[u] = struct{}{}
	}
	for i, u := range urls {
		_, out[i] = set[u]
	}
	return out, nil
}

// ListPendingIDs pages through PENDING records by id, starting after the
// given id (uuid.Nil for the first page).
func (r *RawRecordRepository) ListPendingIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	q := `
SELECT id FROM scraped_vacancies
WHERE status = 'pending' AND id > $1 AND ` + r.scope() + `
ORDER BY id
LIMIT $2;`

	rows, err := r.pool.Query(ctx, q, after, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("collect pending: %w", err)
	}
	return ids, nil
}

// Claim moves a record to PROCESSING if its current status is one of from.
// It returns (nil, nil) when the record is missing or in another status,
// which makes concurrent claims of the same record safe.
func (r *RawRecordRepository) Claim(ctx context.Context, id uuid.UUID, from []entity.Status) (*entity.RawRecord, error) {
	statuses := make([]string, len(from))
	for i, s := range from {
		statuses[i] = string(s)
	}

	q := `
UPDATE scraped_vacancies
SET status = 'processing', error_kind = NULL, error = NULL, modified_at = now()
WHERE id = $1 AND status::text = ANY($2::text[]) AND ` + r.scope() + `
RETURNING ` + rawRecordColumns + `;`

	rec, err := scanRawRecord(r.pool.QueryRow(ctx, q, id, statuses))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("claim raw record: %w", err)
	}
	return rec, nil
}

// MarkFailed moves a PROCESSING record to FAILED and keeps the error detail.
func (r *RawRecordRepository) MarkFailed(ctx context.Context, id uuid.UUID, kind, msg string) error {
	const q = `
UPDATE scraped_vacancies
SET status = 'failed', error_kind = $2, error = $3, modified_at = now()
WHERE id = $1 AND status = 'processing';`

	tag, err := r.pool.Exec(ctx, q, id, kind, msg)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("raw record %s: %w", id, entity.ErrClaimLost)
	}
	return nil
}

// SoftDelete hides a record from the active view.
func (r *RawRecordRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE scraped_vacancies SET deleted_at = now(), modified_at = now() WHERE id = $1 AND deleted_at IS NULL;`

	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("soft delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats counts records per status. Every status is present in the result.
func (r *RawRecordRepository) Stats(ctx context.Context) (entity.StatusCounts, error) {
	q := `SELECT status::text, count(*) FROM scraped_vacancies WHERE ` + r.scope() + ` GROUP BY status;`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	defer rows.Close()

	counts := make(entity.StatusCounts, len(entity.AllStatuses))
	for _, s := range entity.AllStatuses {
		counts[s] = 0
	}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		counts[entity.Status(strings.ToLower(status))] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stats rows: %w", err)
	}
	return counts, nil
}
