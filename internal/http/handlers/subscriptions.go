package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"scribe/internal/domain"
	"scribe/internal/ledger"
)

type ledgerSnapshot struct {
	Status        string    `json:"status"`
	Balance       int       `json:"balance"`
	ExpiryDate    time.Time `json:"expiry_date"`
	SubscribeDate time.Time `json:"subscribe_date"`
}

func snapshotFrom(b *ledger.Balance) ledgerSnapshot {
	return ledgerSnapshot{
		Status:        string(b.Tier),
		Balance:       b.BalanceMinutes,
		ExpiryDate:    b.ExpiresAt,
		SubscribeDate: b.SubscribedAt,
	}
}

// SubscriptionMe returns the caller's ledger snapshot.
func (a *App) SubscriptionMe(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.fail(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	a.renderSnapshot(w, r, userID)
}

type creditsRequest struct {
	Minutes int `json:"minutes"`
}

// SubscriptionCredits adds purchased minutes to the caller's balance.
func (a *App) SubscriptionCredits(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.fail(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req creditsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.fail(w, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}
	if req.Minutes <= 0 {
		a.fail(w, http.StatusBadRequest, "minutes must be positive", "")
		return
	}
	if _, err := a.Ledger.Credit(r.Context(), userID, req.Minutes); err != nil {
		a.renderLedgerError(w, err)
		return
	}
	a.renderSnapshot(w, r, userID)
}

// SubscriptionUpgrade moves the caller to the premium tier.
func (a *App) SubscriptionUpgrade(w http.ResponseWriter, r *http.Request) {
	a.changeTier(w, r, domain.TierPremium)
}

// SubscriptionDowngrade moves the caller back to the free tier.
func (a *App) SubscriptionDowngrade(w http.ResponseWriter, r *http.Request) {
	a.changeTier(w, r, domain.TierFree)
}

func (a *App) changeTier(w http.ResponseWriter, r *http.Request, tier domain.Tier) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.fail(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	if err := a.Ledger.ChangeTier(r.Context(), userID, tier); err != nil {
		a.renderLedgerError(w, err)
		return
	}
	a.renderSnapshot(w, r, userID)
}

// SubscriptionReplenish applies the monthly allowance if the ledger has
// expired; a second call on an unexpired ledger changes nothing.
func (a *App) SubscriptionReplenish(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.fail(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	if _, err := a.Ledger.ReplenishIfExpired(r.Context(), userID); err != nil {
		a.renderLedgerError(w, err)
		return
	}
	a.renderSnapshot(w, r, userID)
}

func (a *App) renderSnapshot(w http.ResponseWriter, r *http.Request, userID string) {
	balance, err := a.Ledger.Snapshot(r.Context(), userID)
	if err != nil {
		a.renderLedgerError(w, err)
		return
	}
	a.json(w, http.StatusOK, snapshotFrom(balance))
}

func (a *App) renderLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrLedgerNotFound):
		// Ledger rows are created with the user; a missing row means the
		// data is broken, not that the user asked for something invalid.
		a.Logger.Error().Err(err).Msg("ledger row missing for authenticated user")
		a.fail(w, http.StatusInternalServerError, "internal error", "")
	case errors.Is(err, domain.ErrUnsupportedTier), errors.Is(err, domain.ErrInvalidInput):
		a.fail(w, http.StatusBadRequest, "invalid request", err.Error())
	default:
		a.Logger.Error().Err(err).Msg("ledger operation failed")
		a.fail(w, http.StatusInternalServerError, "internal error", "")
	}
}
