package domain

import "time"

// Subscription is the per-user balance ledger entry. Exactly one row exists
// per user; it is created together with the user and mutated only through
// the ledger operations.
type Subscription struct {
	ID             string
	UserID         string
	Tier           Tier
	BalanceMinutes int
	ExpiresAt      time.Time
	SubscribedAt   time.Time
	UpdatedAt      time.Time
}

// Expired reports whether the monthly allowance is due at the given time.
func (s Subscription) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// FirstOfNextMonth returns midnight UTC on the first day of the month
// following t. Replenishment and tier upgrades advance expiry to this date.
func FirstOfNextMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}
