package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"autodiag-backend/internal/models"
)

type PostRepo struct {
	pool *pgxpool.Pool
}

func NewPostRepo(pool *pgxpool.Pool) *PostRepo {
	return &PostRepo{pool: pool}
}

func (r *PostRepo) Create(ctx context.Context, post *models.Post) error {
	post.ID = uuid.New()

	query := `INSERT INTO posts (id, user_id, title, body)
		VALUES ($1, $2, $3, $4) RETURNING created_at`

	return r.pool.QueryRow(ctx, query, post.ID, post.UserID, post.Title, post.Body).Scan(&post.CreatedAt)
}

func (r *PostRepo) ListRecent(ctx context.Context, limit int) ([]*models.Post, error) {
	query := `SELECT p.id, p.user_id, u.full_name, p.title, p.body, p.created_at
		FROM posts p JOIN users u ON u.id = p.user_id
		ORDER BY p.created_at DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		p := &models.Post{}
		if err := rows.Scan(&p.ID, &p.UserID, &p.AuthorName, &p.Title, &p.Body, &p.CreatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}

	return posts, rows.Err()
}
