package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"autodiag-backend/internal/models"
)

type SearchRepo struct {
	pool *pgxpool.Pool
}

func NewSearchRepo(pool *pgxpool.Pool) *SearchRepo {
	return &SearchRepo{pool: pool}
}

func (r *SearchRepo) Save(ctx context.Context, entry *models.SearchEntry) error {
	entry.ID = uuid.New()

	query := `INSERT INTO search_history (id, user_id, brand, model, year, mileage_km)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		entry.ID, entry.UserID, entry.Query.Brand, entry.Query.Model, entry.Query.Year, entry.Query.MileageKm,
	).Scan(&entry.CreatedAt)
}

func (r *SearchRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.SearchEntry, error) {
	query := `SELECT id, user_id, brand, model, year, mileage_km, created_at
		FROM search_history WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.SearchEntry
	for rows.Next() {
		e := &models.SearchEntry{}
		err := rows.Scan(&e.ID, &e.UserID, &e.Query.Brand, &e.Query.Model, &e.Query.Year, &e.Query.MileageKm, &e.CreatedAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
