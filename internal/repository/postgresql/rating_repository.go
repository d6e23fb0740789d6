package postgresql

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"vacancy-pipeline/internal/entity"
)

type RatingRepository struct {
	pool *pgxpool.Pool
}

func NewRatingRepository(pool *pgxpool.Pool) *RatingRepository {
	return &RatingRepository{pool: pool}
}

// Upsert stores the latest rating of a (user, vacancy) pair.
func (r *RatingRepository) Upsert(ctx context.Context, userID, vacancyID uuid.UUID, rating int) (*entity.VacancyRating, error) {
	const q = `
INSERT INTO vacancy_ratings (user_id, vacancy_id, rating)
VALUES ($1, $2, $3)
ON CONFLICT (user_id, vacancy_id)
DO UPDATE SET rating = EXCLUDED.rating, modified_at = now()
RETURNING user_id, vacancy_id, rating, modified_at;`

	var out entity.VacancyRating
	if err := r.pool.QueryRow(ctx, q, userID, vacancyID, rating).Scan(
		&out.UserID, &out.VacancyID, &out.Rating, &out.ModifiedAt,
	); err != nil {
		return nil, fmt.Errorf("upsert rating: %w", err)
	}
	return &out, nil
}

// ByUser returns every rating a user gave, keyed by vacancy.
func (r *RatingRepository) ByUser(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT vacancy_id, rating FROM vacancy_ratings WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("ratings by user: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]int)
	for rows.Next() {
		var (
			id     uuid.UUID
			rating int
		)
		if err := rows.Scan(&id, &rating); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		out[id] = rating
	}
	return out, rows.Err()
}
