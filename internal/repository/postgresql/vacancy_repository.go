package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vacancy-pipeline/internal/entity"
	"vacancy-pipeline/internal/search"
)

const maxSlugBase = 80

type VacancyRepository struct {
	pool *pgxpool.Pool
}

func NewVacancyRepository(pool *pgxpool.Pool) *VacancyRepository {
	return &VacancyRepository{pool: pool}
}

// vacancySlug derives a URL-safe, unique slug from the title, company and id.
func vacancySlug(title, company string, id uuid.UUID) string {
	base := slug.Make(strings.TrimSpace(title + " " + company))
	if utf8.RuneCountInString(base) > maxSlugBase {
		base = strings.TrimRight(string([]rune(base)[:maxSlugBase]), "-")
	}
	suffix := strings.ReplaceAll(id.String(), "-", "")[:8]
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}

func (r *VacancyRepository) queryIDs(ctx context.Context, sql string, args []any) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

// ListIDs returns the ids matching the structured predicates of f, newest
// first. limit <= 0 returns every match.
func (r *VacancyRepository) ListIDs(ctx context.Context, f search.Filter, limit, offset int) ([]uuid.UUID, error) {
	q := newVacancyQuery(f)
	ids, err := r.queryIDs(ctx, q.listSQL(limit, offset), q.args)
	if err != nil {
		return nil, fmt.Errorf("list vacancies: %w", err)
	}
	return ids, nil
}

// SubstringMatches is the exact set: titles containing f.Search.
func (r *VacancyRepository) SubstringMatches(ctx context.Context, f search.Filter) ([]uuid.UUID, error) {
	q := newVacancyQuery(f)
	ids, err := r.queryIDs(ctx, q.substringSQL(f.Search), q.args)
	if err != nil {
		return nil, fmt.Errorf("substring search: %w", err)
	}
	return ids, nil
}

// SimilarMatches is the fuzzy set: titles trigram-similar to f.Search.
func (r *VacancyRepository) SimilarMatches(ctx context.Context, f search.Filter) ([]search.Scored, error) {
	q := newVacancyQuery(f)
	rows, err := r.pool.Query(ctx, q.similarSQL(f.Search, search.SimilarityThreshold), q.args...)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	scored, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (search.Scored, error) {
		var s search.Scored
		err := row.Scan(&s.ID, &s.Similarity, &s.Rank)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect similarity search: %w", err)
	}
	return scored, nil
}

const vacancySelect = `
SELECT v.id, v.slug, v.title, v.description, v.min_salary, v.max_salary, v.published_at,
       v.is_approved, v.source_id, v.created_at, v.modified_at, c.id, c.name, r.rating
FROM vacancies v
LEFT JOIN companies c ON c.id = v.company_id
LEFT JOIN vacancy_ratings r ON r.vacancy_id = v.id AND r.user_id = $1`

func scanVacancy(row pgx.Row) (*entity.Vacancy, error) {
	var (
		v           entity.Vacancy
		companyID   *uuid.UUID
		companyName *string
	)
	if err := row.Scan(
		&v.ID,
		&v.Slug,
		&v.Title,
		&v.Description,
		&v.MinSalary,
		&v.MaxSalary,
		&v.PublishedAt,
		&v.IsApproved,
		&v.SourceID,
		&v.CreatedAt,
		&v.ModifiedAt,
		&companyID,
		&companyName,
		&v.UserRating,
	); err != nil {
		return nil, err
	}
	if companyID != nil && companyName != nil {
		v.Company = &entity.Company{ID: *companyID, Name: *companyName}
	}
	v.Skills = []entity.Skill{}
	return &v, nil
}

// GetByIDs loads vacancies in the order of ids, skipping ids that do not
// exist. viewer selects whose rating is attached; uuid.Nil attaches none.
func (r *VacancyRepository) GetByIDs(ctx context.Context, ids []uuid.UUID, viewer uuid.UUID) ([]entity.Vacancy, error) {
	if len(ids) == 0 {
		return []entity.Vacancy{}, nil
	}

	rows, err := r.pool.Query(ctx, vacancySelect+"\nWHERE v.id = ANY($2);", viewer, ids)
	if err != nil {
		return nil, fmt.Errorf("get vacancies: %w", err)
	}
	loaded, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.Vacancy, error) {
		return scanVacancy(row)
	})
	if err != nil {
		return nil, fmt.Errorf("collect vacancies: %w", err)
	}

	if err := r.attachSkills(ctx, loaded); err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*entity.Vacancy, len(loaded))
	for _, v := range loaded {
		byID[v.ID] = v
	}
	out := make([]entity.Vacancy, 0, len(loaded))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (r *VacancyRepository) GetBySlug(ctx context.Context, s string, viewer uuid.UUID) (*entity.Vacancy, error) {
	v, err := scanVacancy(r.pool.QueryRow(ctx, vacancySelect+"\nWHERE v.slug = $2;", viewer, s))
	if err != nil {
		return nil, notFound(err)
	}
	if err := r.attachSkills(ctx, []*entity.Vacancy{v}); err != nil {
		return nil, err
	}
	return v, nil
}

func (r *VacancyRepository) attachSkills(ctx context.Context, vs []*entity.Vacancy) error {
	if len(vs) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(vs))
	byID := make(map[uuid.UUID]*entity.Vacancy, len(vs))
	for i, v := range vs {
		ids[i] = v.ID
		byID[v.ID] = v
	}

	const q = `
SELECT vs.vacancy_id, s.id, s.name
FROM vacancy_skills vs JOIN skills s ON s.id = vs.skill_id
WHERE vs.vacancy_id = ANY($1)
ORDER BY s.name;`

	rows, err := r.pool.Query(ctx, q, ids)
	if err != nil {
		return fmt.Errorf("load skills: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			vacancyID uuid.UUID
			skill     entity.Skill
		)
		if err := rows.Scan(&vacancyID, &skill.ID, &skill.Name); err != nil {
			return fmt.Errorf("scan skill: %w", err)
		}
		if v, ok := byID[vacancyID]; ok {
			v.Skills = append(v.Skills, skill)
		}
	}
	return rows.Err()
}

func (r *VacancyRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM vacancies WHERE id = $1)`, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("vacancy exists: %w", err)
	}
	return ok, nil
}

func (r *VacancyRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM vacancies`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count vacancies: %w", err)
	}
	return n, nil
}

// SetApproved marks a vacancy as a reviewed training example, or unmarks it.
func (r *VacancyRepository) SetApproved(ctx context.Context, id uuid.UUID, approved bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE vacancies SET is_approved = $2, modified_at = now() WHERE id = $1`, id, approved)
	if err != nil {
		return fmt.Errorf("set approved: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// reindexVacancySQL rebuilds the search vector of a published vacancy from its
// stored fields and a fresh skill list ($2). Nothing else is written.
const reindexVacancySQL = `
UPDATE vacancies v
SET search_vector = to_tsvector('simple', concat_ws(' ', v.title,
        (SELECT name FROM companies WHERE id = v.company_id), $2::text, v.description)),
    modified_at = now()
WHERE v.id = $1;`

// Publish persists the candidate extracted from a PROCESSING raw record and
// marks the record DONE, all in one transaction. A vacancy already published
// from the same record keeps its fields: only its skills and the search vector
// derived from them are refreshed, and an approved vacancy is not touched.
func (r *VacancyRepository) Publish(ctx context.Context, rawID uuid.UUID, c entity.VacancyCandidate) (uuid.UUID, error) {
	var vacancyID uuid.UUID

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var (
			existingID uuid.UUID
			approved   bool
		)
		err := tx.QueryRow(ctx,
			`SELECT id, is_approved FROM vacancies WHERE source_id = $1 FOR UPDATE`, rawID,
		).Scan(&existingID, &approved)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			existingID = uuid.Nil
		case err != nil:
			return fmt.Errorf("find existing vacancy: %w", err)
		}

		if existingID != uuid.Nil && approved {
			vacancyID = existingID
			return markDone(ctx, tx, rawID)
		}

		if existingID == uuid.Nil {
			companyID, err := upsertCompany(ctx, tx, c.Company)
			if err != nil {
				return err
			}
			vacancyID = uuid.New()
			const ins = `
INSERT INTO vacancies (id, slug, title, description, min_salary, max_salary, company_id,
                       published_at, source_id, model_version, search_vector)
VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, now()), $9, $10, to_tsvector('simple', $11));`
			if _, err := tx.Exec(ctx, ins,
				vacancyID, vacancySlug(c.Title, c.Company, vacancyID), c.Title, c.Description,
				c.MinSalary, c.MaxSalary, companyID, c.PublishedAt, rawID, c.ModelVersion, c.SearchText,
			); err != nil {
				return fmt.Errorf("insert vacancy: %w", err)
			}
			if err := linkSkills(ctx, tx, vacancyID, c.Skills); err != nil {
				return err
			}
			return markDone(ctx, tx, rawID)
		}

		vacancyID = existingID
		if _, err := tx.Exec(ctx, `DELETE FROM vacancy_skills WHERE vacancy_id = $1`, vacancyID); err != nil {
			return fmt.Errorf("clear vacancy skills: %w", err)
		}
		if err := linkSkills(ctx, tx, vacancyID, c.Skills); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, reindexVacancySQL, vacancyID, strings.Join(c.Skills, " ")); err != nil {
			return fmt.Errorf("reindex vacancy: %w", err)
		}
		return markDone(ctx, tx, rawID)
	})
	if err != nil {
		if isDataError(err) {
			return uuid.Nil, fmt.Errorf("%w: %w", entity.ErrRejected, err)
		}
		return uuid.Nil, err
	}
	return vacancyID, nil
}

func upsertCompany(ctx context.Context, tx pgx.Tx, name string) (*uuid.UUID, error) {
	if name == "" {
		return nil, nil
	}
	const q = `
INSERT INTO companies (name) VALUES ($1)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id;`
	var id uuid.UUID
	if err := tx.QueryRow(ctx, q, name).Scan(&id); err != nil {
		return nil, fmt.Errorf("upsert company: %w", err)
	}
	return &id, nil
}

// getOrCreateSkill is a single statement so that concurrent workers
// discovering the same skill both end up with the same row.
func getOrCreateSkill(ctx context.Context, tx pgx.Tx, name string) (uuid.UUID, error) {
	const q = `
INSERT INTO skills (name) VALUES ($1)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id;`
	var id uuid.UUID
	if err := tx.QueryRow(ctx, q, name).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("get or create skill %q: %w", name, err)
	}
	return id, nil
}

// linkSkills expects names sorted so row locks are always taken in the same
// order across transactions.
func linkSkills(ctx context.Context, tx pgx.Tx, vacancyID uuid.UUID, names []string) error {
	for _, name := range names {
		skillID, err := getOrCreateSkill(ctx, tx, name)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO vacancy_skills (vacancy_id, skill_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			vacancyID, skillID,
		); err != nil {
			return fmt.Errorf("link skill: %w", err)
		}
	}
	return nil
}

func markDone(ctx context.Context, tx pgx.Tx, rawID uuid.UUID) error {
	const q = `
UPDATE scraped_vacancies
SET status = 'done', error_kind = NULL, error = NULL, modified_at = now()
WHERE id = $1 AND status = 'processing';`
	tag, err := tx.Exec(ctx, q, rawID)
	if err != nil {
		return fmt.Errorf("mark done: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("raw record %s: %w", rawID, entity.ErrClaimLost)
	}
	return nil
}

// ApprovedExamples returns approved vacancies with the HTML they were
// extracted from, most recently reviewed first.
func (r *VacancyRepository) ApprovedExamples(ctx context.Context, limit int) ([]entity.ApprovedExample, error) {
	const q = `
SELECT v.id, sv.html, v.title, v.description, v.min_salary, v.max_salary,
       COALESCE(c.name, ''), v.published_at,
       COALESCE(array_agg(s.name ORDER BY s.name) FILTER (WHERE s.name IS NOT NULL), '{}')
FROM vacancies v
JOIN scraped_vacancies sv ON sv.id = v.source_id AND sv.deleted_at IS NULL
LEFT JOIN companies c ON c.id = v.company_id
LEFT JOIN vacancy_skills vs ON vs.vacancy_id = v.id
LEFT JOIN skills s ON s.id = vs.skill_id
WHERE v.is_approved
GROUP BY v.id, sv.html, c.name
ORDER BY v.modified_at DESC, v.id
LIMIT $1;`

	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("approved examples: %w", err)
	}
	examples, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.ApprovedExample, error) {
		var (
			ex        entity.ApprovedExample
			published time.Time
		)
		err := row.Scan(
			&ex.VacancyID,
			&ex.HTML,
			&ex.Expected.Title,
			&ex.Expected.Description,
			&ex.Expected.MinSalary,
			&ex.Expected.MaxSalary,
			&ex.Expected.Company,
			&published,
			&ex.Expected.Skills,
		)
		ex.Expected.PublishedAt = &published
		ex.Expected.NoSkills = len(ex.Expected.Skills) == 0
		return ex, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect approved examples: %w", err)
	}
	return examples, nil
}

// MatchCandidates returns the newest vacancies in the shape the matcher
// scores.
func (r *VacancyRepository) MatchCandidates(ctx context.Context, limit int) ([]entity.MatchCandidate, error) {
	const q = `
SELECT v.id, v.title, v.max_salary,
       COALESCE(array_agg(s.name ORDER BY s.name) FILTER (WHERE s.name IS NOT NULL), '{}')
FROM vacancies v
LEFT JOIN vacancy_skills vs ON vs.vacancy_id = v.id
LEFT JOIN skills s ON s.id = vs.skill_id
GROUP BY v.id
ORDER BY v.published_at DESC, v.id
LIMIT $1;`

	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("match candidates: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.MatchCandidate, error) {
		var m entity.MatchCandidate
		err := row.Scan(&m.ID, &m.Title, &m.MaxSalary, &m.Skills)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect match candidates: %w", err)
	}
	return out, nil
}
