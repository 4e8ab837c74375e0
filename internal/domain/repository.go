package domain

import (
	"context"
	"time"
)

// UserRepository defines access methods for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByAuthSub(ctx context.Context, sub string) (*User, error)
}

// SubscriptionRepository persists ledger entries. All balance mutations must
// be single-statement updates at the storage layer; a read-modify-write
// cycle loses concurrent debits and is not an acceptable implementation.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *Subscription) error
	GetByUserID(ctx context.Context, userID string) (*Subscription, error)
	// AddBalance atomically adds delta (negative for debits) to the balance
	// and returns the resulting value.
	AddBalance(ctx context.Context, userID string, delta int) (int, error)
	// ReplenishExpired adds the given allowance and moves expiry forward in
	// one statement, guarded on the stored expiry being due. It reports
	// whether a row was actually replenished.
	ReplenishExpired(ctx context.Context, userID string, allowance int, nextExpiry time.Time) (bool, error)
	// SetTier updates the tier, optionally granting extra minutes and a new
	// expiry in the same statement.
	SetTier(ctx context.Context, userID string, tier Tier, grantMinutes int, nextExpiry *time.Time) error
}

// TranscriptRepository persists pipeline output.
type TranscriptRepository interface {
	Create(ctx context.Context, t *Transcript) error
	GetByID(ctx context.Context, id string) (*Transcript, error)
	ListByUserID(ctx context.Context, userID string, limit int) ([]Transcript, error)
}

// PromptRepository stores style-guidance templates.
type PromptRepository interface {
	Create(ctx context.Context, p *Prompt) error
	GetByID(ctx context.Context, id string) (*Prompt, error)
	ListForUser(ctx context.Context, userID string) ([]Prompt, error)
}
