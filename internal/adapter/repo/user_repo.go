package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"scribe/internal/domain"
)

// UserRepositoryPG implements domain.UserRepository backed by PostgreSQL.
type UserRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepositoryPG.
func NewUserRepository(pool *pgxpool.Pool) *UserRepositoryPG {
	return &UserRepositoryPG{pool: pool}
}

// Create inserts a user record. The auth subject is unique; a duplicate
// insert surfaces as a database error to the caller.
func (r *UserRepositoryPG) Create(ctx context.Context, user *domain.User) error {
	query := `
INSERT INTO users (id, auth_sub, email, tier)
VALUES ($1, $2, $3, $4)
RETURNING created_at, updated_at;
`
	row := r.pool.QueryRow(ctx, query, user.ID, user.AuthSub, user.Email, user.Tier)
	return row.Scan(&user.CreatedAt, &user.UpdatedAt)
}

// GetByID fetches a user by UUID.
func (r *UserRepositoryPG) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, auth_sub, email, tier, created_at, updated_at FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByAuthSub fetches a user by external auth subject identifier.
func (r *UserRepositoryPG) GetByAuthSub(ctx context.Context, sub string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, auth_sub, email, tier, created_at, updated_at FROM users WHERE auth_sub = $1`, sub)
	return scanUser(row)
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.AuthSub, &u.Email, &u.Tier, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

var _ domain.UserRepository = (*UserRepositoryPG)(nil)
