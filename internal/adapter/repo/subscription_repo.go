package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"scribe/internal/domain"
)

// SubscriptionRepositoryPG implements domain.SubscriptionRepository.
//
// Every balance mutation is a single UPDATE expressed against the stored
// value (balance_minutes = balance_minutes + delta), so concurrent requests
// for the same user serialize at the row without losing updates.
type SubscriptionRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepository creates a new subscription repository backed by PostgreSQL.
func NewSubscriptionRepository(pool *pgxpool.Pool) *SubscriptionRepositoryPG {
	return &SubscriptionRepositoryPG{pool: pool}
}

// Create inserts the ledger row provisioned alongside a new user.
func (r *SubscriptionRepositoryPG) Create(ctx context.Context, sub *domain.Subscription) error {
	query := `
INSERT INTO subscriptions (id, user_id, tier, balance_minutes, expires_at, subscribed_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING updated_at;
`
	row := r.pool.QueryRow(ctx, query, sub.ID, sub.UserID, sub.Tier, sub.BalanceMinutes, sub.ExpiresAt, sub.SubscribedAt)
	return row.Scan(&sub.UpdatedAt)
}

// GetByUserID fetches the ledger entry for a user.
func (r *SubscriptionRepositoryPG) GetByUserID(ctx context.Context, userID string) (*domain.Subscription, error) {
	query := `
SELECT id, user_id, tier, balance_minutes, expires_at, subscribed_at, updated_at
FROM subscriptions
WHERE user_id = $1;
`
	row := r.pool.QueryRow(ctx, query, userID)
	var s domain.Subscription
	if err := row.Scan(&s.ID, &s.UserID, &s.Tier, &s.BalanceMinutes, &s.ExpiresAt, &s.SubscribedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLedgerNotFound
		}
		return nil, err
	}
	return &s, nil
}

// AddBalance atomically applies delta to the stored balance and returns the
// new value. No floor is enforced here; overdraft policy lives in the ledger
// service.
func (r *SubscriptionRepositoryPG) AddBalance(ctx context.Context, userID string, delta int) (int, error) {
	query := `
UPDATE subscriptions
SET balance_minutes = balance_minutes + $2,
    updated_at = NOW()
WHERE user_id = $1
RETURNING balance_minutes;
`
	row := r.pool.QueryRow(ctx, query, userID, delta)
	var balance int
	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrLedgerNotFound
		}
		return 0, err
	}
	return balance, nil
}

// ReplenishExpired adds the allowance and advances expiry in one guarded
// statement. The WHERE clause on expires_at makes the operation idempotent
// under retries and concurrent sweeps.
func (r *SubscriptionRepositoryPG) ReplenishExpired(ctx context.Context, userID string, allowance int, nextExpiry time.Time) (bool, error) {
	query := `
UPDATE subscriptions
SET balance_minutes = balance_minutes + $2,
    expires_at = $3,
    updated_at = NOW()
WHERE user_id = $1
  AND expires_at <= NOW();
`
	tag, err := r.pool.Exec(ctx, query, userID, allowance, nextExpiry)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// SetTier updates the tier, optionally granting minutes and a new expiry in
// the same statement.
func (r *SubscriptionRepositoryPG) SetTier(ctx context.Context, userID string, tier domain.Tier, grantMinutes int, nextExpiry *time.Time) error {
	query := `
UPDATE subscriptions
SET tier = $2,
    balance_minutes = balance_minutes + $3,
    expires_at = COALESCE($4, expires_at),
    updated_at = NOW()
WHERE user_id = $1;
`
	tag, err := r.pool.Exec(ctx, query, userID, tier, grantMinutes, nextExpiry)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLedgerNotFound
	}
	return nil
}

// ListExpiredUserIDs returns users whose ledgers are due for replenishment.
// Used by the background sweep; limit caps one batch.
func (r *SubscriptionRepositoryPG) ListExpiredUserIDs(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id FROM subscriptions WHERE expires_at <= NOW() LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

var _ domain.SubscriptionRepository = (*SubscriptionRepositoryPG)(nil)
