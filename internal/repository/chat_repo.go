package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"autodiag-backend/internal/models"
)

type ChatRepo struct {
	pool *pgxpool.Pool
}

func NewChatRepo(pool *pgxpool.Pool) *ChatRepo {
	return &ChatRepo{pool: pool}
}

func (r *ChatRepo) Save(ctx context.Context, saved *models.SavedChat) error {
	saved.ID = uuid.New()

	messagesJSON, err := json.Marshal(saved.Messages)
	if err != nil {
		return fmt.Errorf("failed to encode messages: %w", err)
	}

	query := `INSERT INTO chat_history (id, user_id, title, messages_json)
		VALUES ($1, $2, $3, $4) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		saved.ID, saved.UserID, saved.Title, messagesJSON,
	).Scan(&saved.CreatedAt)
}

func (r *ChatRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.SavedChat, error) {
	query := `SELECT id, user_id, title, messages_json, created_at
		FROM chat_history WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.SavedChat
	for rows.Next() {
		s := &models.SavedChat{}
		var messagesJSON []byte
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &messagesJSON, &s.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(messagesJSON, &s.Messages); err != nil {
			return nil, fmt.Errorf("failed to decode transcript %s: %w", s.ID, err)
		}
		items = append(items, s)
	}

	return items, rows.Err()
}
