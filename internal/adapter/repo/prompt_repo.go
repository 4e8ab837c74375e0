package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"scribe/internal/domain"
)

// PromptRepositoryPG implements domain.PromptRepository.
type PromptRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewPromptRepository creates a new prompt repository backed by PostgreSQL.
func NewPromptRepository(pool *pgxpool.Pool) *PromptRepositoryPG {
	return &PromptRepositoryPG{pool: pool}
}

// Create inserts a style-guidance template.
func (r *PromptRepositoryPG) Create(ctx context.Context, p *domain.Prompt) error {
	query := `
INSERT INTO prompts (id, user_id, name, content)
VALUES ($1, $2, $3, $4)
RETURNING created_at, updated_at;
`
	row := r.pool.QueryRow(ctx, query, p.ID, p.UserID, p.Name, p.Content)
	return row.Scan(&p.CreatedAt, &p.UpdatedAt)
}

// GetByID fetches a prompt by its identifier.
func (r *PromptRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Prompt, error) {
	query := `SELECT id, user_id, name, content, created_at, updated_at FROM prompts WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	var p domain.Prompt
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Content, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListForUser returns system defaults plus the user's own templates.
func (r *PromptRepositoryPG) ListForUser(ctx context.Context, userID string) ([]domain.Prompt, error) {
	query := `
SELECT id, user_id, name, content, created_at, updated_at
FROM prompts
WHERE user_id IS NULL OR user_id = $1
ORDER BY user_id NULLS FIRST, name;
`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.Prompt
	for rows.Next() {
		var p domain.Prompt
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Content, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

var _ domain.PromptRepository = (*PromptRepositoryPG)(nil)
