// Package ledger tracks each user's balance of transcription minutes and
// subscription tier. All mutations delegate to single-statement repository
// updates, so concurrent operations against the same user never lose writes.
package ledger

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"scribe/internal/domain"
)

// Service exposes the balance ledger operations.
type Service struct {
	subs   domain.SubscriptionRepository
	logger zerolog.Logger
	now    func() time.Time
}

// Options configures a ledger Service.
type Options struct {
	Subscriptions domain.SubscriptionRepository
	Logger        zerolog.Logger
	// Now overrides the clock; nil means time.Now. Used by tests and the
	// replenishment sweep.
	Now func() time.Time
}

// NewService builds a ledger service.
func NewService(opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{subs: opts.Subscriptions, logger: opts.Logger, now: now}
}

// Balance is a point-in-time ledger snapshot.
type Balance struct {
	Tier           domain.Tier
	BalanceMinutes int
	ExpiresAt      time.Time
	SubscribedAt   time.Time
}

// Snapshot returns the user's current ledger state.
func (s *Service) Snapshot(ctx context.Context, userID string) (*Balance, error) {
	sub, err := s.subs.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Balance{
		Tier:           sub.Tier,
		BalanceMinutes: sub.BalanceMinutes,
		ExpiresAt:      sub.ExpiresAt,
		SubscribedAt:   sub.SubscribedAt,
	}, nil
}

// CheckBalance reports whether the user holds at least requiredMinutes. A
// missing ledger row is a data-integrity fault, not a normal user state:
// rows are provisioned at account creation.
func (s *Service) CheckBalance(ctx context.Context, userID string, requiredMinutes int) (bool, int, error) {
	sub, err := s.subs.GetByUserID(ctx, userID)
	if err != nil {
		return false, 0, err
	}
	return sub.BalanceMinutes >= requiredMinutes, sub.BalanceMinutes, nil
}

// Debit subtracts minutes from the balance in one unconditional statement
// and returns the new balance. There is no floor: a debit may drive the
// balance negative, which we keep as a soft-limit signal — CheckBalance
// gates the next request instead of this write rejecting overdraft.
func (s *Service) Debit(ctx context.Context, userID string, minutes int) (int, error) {
	if minutes < 0 {
		return 0, fmt.Errorf("%w: negative debit", domain.ErrInvalidInput)
	}
	balance, err := s.subs.AddBalance(ctx, userID, -minutes)
	if err != nil {
		return 0, err
	}
	if balance < 0 {
		s.logger.Warn().Str("user_id", userID).Int("balance", balance).Msg("ledger balance went negative")
	}
	return balance, nil
}

// Credit adds purchased minutes to the balance and returns the new value.
func (s *Service) Credit(ctx context.Context, userID string, minutes int) (int, error) {
	if minutes < 0 {
		return 0, fmt.Errorf("%w: negative credit", domain.ErrInvalidInput)
	}
	return s.subs.AddBalance(ctx, userID, minutes)
}

// ReplenishIfExpired tops up the monthly allowance when the ledger's expiry
// date has passed, advancing expiry to the first day of the next calendar
// month. Replenishment is additive, never a reset. The guarded repository
// update makes a second call on an unexpired ledger a no-op.
func (s *Service) ReplenishIfExpired(ctx context.Context, userID string) (bool, error) {
	sub, err := s.subs.GetByUserID(ctx, userID)
	if err != nil {
		return false, err
	}
	now := s.now()
	if !sub.Expired(now) {
		return false, nil
	}
	applied, err := s.subs.ReplenishExpired(ctx, userID, sub.Tier.MonthlyAllowance(), domain.FirstOfNextMonth(now))
	if err != nil {
		return false, err
	}
	if applied {
		s.logger.Info().
			Str("user_id", userID).
			Str("tier", string(sub.Tier)).
			Int("allowance", sub.Tier.MonthlyAllowance()).
			Msg("ledger replenished")
	}
	return applied, nil
}

// ChangeTier switches the user's tier. Upgrading to premium additively
// grants the premium allowance right away and advances expiry; downgrading
// touches only tier and expiry, leaving the balance as it stands.
func (s *Service) ChangeTier(ctx context.Context, userID string, newTier domain.Tier) error {
	if !newTier.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedTier, newTier)
	}
	grant := 0
	if newTier == domain.TierPremium {
		grant = domain.PremiumMonthlyMinutes
	}
	nextExpiry := domain.FirstOfNextMonth(s.now())
	if err := s.subs.SetTier(ctx, userID, newTier, grant, &nextExpiry); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", userID).Str("tier", string(newTier)).Int("granted", grant).Msg("tier changed")
	return nil
}

// MinutesForDuration rounds a duration in seconds up to whole billable
// minutes. Any positive duration costs at least one minute.
func MinutesForDuration(seconds float64) int {
	if seconds <= 0 {
		return 0
	}
	minutes := int(math.Ceil(seconds / 60))
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
