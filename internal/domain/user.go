package domain

import "time"

// Tier enumerates subscription tiers.
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// MonthlyAllowance returns the minutes granted on each replenishment.
func (t Tier) MonthlyAllowance() int {
	if t == TierPremium {
		return PremiumMonthlyMinutes
	}
	return FreeMonthlyMinutes
}

// Valid reports whether the tier is a known value.
func (t Tier) Valid() bool {
	return t == TierFree || t == TierPremium
}

const (
	FreeMonthlyMinutes    = 10
	PremiumMonthlyMinutes = 1000
)

// User represents an account within the platform. AuthSub is the external
// auth subject identifier; it is unique and never changes after creation.
type User struct {
	ID        string
	AuthSub   string
	Email     string
	Tier      Tier
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsFree reports whether the user is on the free tier.
func (u User) IsFree() bool {
	return u.Tier == TierFree
}
