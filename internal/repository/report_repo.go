package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"autodiag-backend/internal/models"
)

type ReportRepo struct {
	pool *pgxpool.Pool
}

func NewReportRepo(pool *pgxpool.Pool) *ReportRepo {
	return &ReportRepo{pool: pool}
}

func (r *ReportRepo) Save(ctx context.Context, saved *models.SavedReport) error {
	saved.ID = uuid.New()

	reportJSON, err := json.Marshal(saved.Report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	query := `INSERT INTO reports (id, user_id, brand, model, year, mileage_km, report_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		saved.ID, saved.UserID, saved.Query.Brand, saved.Query.Model, saved.Query.Year,
		saved.Query.MileageKm, reportJSON,
	).Scan(&saved.CreatedAt)
}

func (r *ReportRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.SavedReport, error) {
	query := `SELECT id, user_id, brand, model, year, mileage_km, report_json, created_at
		FROM reports WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.SavedReport
	for rows.Next() {
		s := &models.SavedReport{}
		var reportJSON []byte
		err := rows.Scan(
			&s.ID, &s.UserID, &s.Query.Brand, &s.Query.Model, &s.Query.Year,
			&s.Query.MileageKm, &reportJSON, &s.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(reportJSON, &s.Report); err != nil {
			return nil, fmt.Errorf("failed to decode report %s: %w", s.ID, err)
		}
		items = append(items, s)
	}

	return items, rows.Err()
}
