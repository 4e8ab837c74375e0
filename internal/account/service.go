// Package account provisions users together with their balance ledgers.
// Every other component assumes the ledger row exists whenever the user
// does, so the two rows are only ever created through this service.
package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"scribe/internal/domain"
)

// Service creates accounts.
type Service struct {
	users  domain.UserRepository
	subs   domain.SubscriptionRepository
	logger zerolog.Logger
	now    func() time.Time
}

// Options configures an account Service.
type Options struct {
	Users         domain.UserRepository
	Subscriptions domain.SubscriptionRepository
	Logger        zerolog.Logger
	Now           func() time.Time
}

// NewService builds an account service.
func NewService(opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{users: opts.Users, subs: opts.Subscriptions, logger: opts.Logger, now: now}
}

// Provision creates a user and seeds the ledger with the tier's monthly
// allowance, expiring on the first of the next month. An empty tier defaults
// to free.
func (s *Service) Provision(ctx context.Context, authSub, email string, tier domain.Tier) (*domain.User, error) {
	authSub = strings.TrimSpace(authSub)
	if authSub == "" {
		return nil, fmt.Errorf("%w: auth subject is required", domain.ErrInvalidInput)
	}
	if tier == "" {
		tier = domain.TierFree
	}
	if !tier.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedTier, tier)
	}

	now := s.now()
	user := &domain.User{
		ID:      uuid.NewString(),
		AuthSub: authSub,
		Email:   strings.TrimSpace(email),
		Tier:    tier,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	sub := &domain.Subscription{
		ID:             uuid.NewString(),
		UserID:         user.ID,
		Tier:           tier,
		BalanceMinutes: tier.MonthlyAllowance(),
		ExpiresAt:      domain.FirstOfNextMonth(now),
		SubscribedAt:   now,
	}
	if err := s.subs.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create ledger: %w", err)
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("tier", string(tier)).
		Int("balance", sub.BalanceMinutes).
		Msg("account provisioned")
	return user, nil
}
