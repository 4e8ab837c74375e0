package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidInput        = errors.New("invalid input")
	ErrLedgerNotFound      = errors.New("ledger not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrProviderFailure     = errors.New("provider failure")
	ErrUnsupportedTier     = errors.New("unsupported tier")
)
