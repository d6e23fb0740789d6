package postgresql

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vacancy-pipeline/internal/entity"
)

// ProfileRepository reads and writes a user's primary resume.
type ProfileRepository struct {
	pool *pgxpool.Pool
}

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

func (r *ProfileRepository) GetPrimary(ctx context.Context, userID uuid.UUID) (*entity.CandidateProfile, error) {
	const q = `
SELECT r.title, r.min_salary,
       COALESCE(array_agg(s.name ORDER BY s.name) FILTER (WHERE s.name IS NOT NULL), '{}')
FROM resumes r
LEFT JOIN resume_skills rs ON rs.resume_id = r.id
LEFT JOIN skills s ON s.id = rs.skill_id
WHERE r.user_id = $1 AND r.is_primary
GROUP BY r.id;`

	p := entity.CandidateProfile{UserID: userID}
	if err := r.pool.QueryRow(ctx, q, userID).Scan(&p.Title, &p.MinSalary, &p.Skills); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// SavePrimary replaces the user's primary resume. Skill names are expected
// to be normalized and sorted.
func (r *ProfileRepository) SavePrimary(ctx context.Context, p entity.CandidateProfile) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const upsert = `
INSERT INTO resumes (user_id, title, min_salary, is_primary)
VALUES ($1, $2, $3, true)
ON CONFLICT (user_id) WHERE is_primary
DO UPDATE SET title = EXCLUDED.title, min_salary = EXCLUDED.min_salary, modified_at = now()
RETURNING id;`

		var resumeID uuid.UUID
		if err := tx.QueryRow(ctx, upsert, p.UserID, p.Title, p.MinSalary).Scan(&resumeID); err != nil {
			return fmt.Errorf("upsert resume: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM resume_skills WHERE resume_id = $1`, resumeID); err != nil {
			return fmt.Errorf("clear resume skills: %w", err)
		}
		for _, name := range p.Skills {
			skillID, err := getOrCreateSkill(ctx, tx, name)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO resume_skills (resume_id, skill_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				resumeID, skillID,
			); err != nil {
				return fmt.Errorf("link resume skill: %w", err)
			}
		}
		return nil
	})
}
