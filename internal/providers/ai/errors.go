package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"scribe/internal/domain"
)

// ErrorKind is the closed, backend-agnostic failure taxonomy. Classification
// is total: anything a backend reports that does not match a known shape
// lands on KindUnknown with the original text preserved.
type ErrorKind string

const (
	KindQuotaExceeded      ErrorKind = "quota_exceeded"
	KindRateLimited        ErrorKind = "rate_limited"
	KindInvalidCredentials ErrorKind = "invalid_credentials"
	KindTimeout            ErrorKind = "timeout"
	KindUnknown            ErrorKind = "unknown"
)

// ProviderError is a classified backend failure.
type ProviderError struct {
	Kind     ErrorKind
	Provider string
	Message  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Message)
}

// Unwrap ties every classified failure to the domain sentinel so callers can
// match with errors.Is(err, domain.ErrProviderFailure).
func (e *ProviderError) Unwrap() error {
	return domain.ErrProviderFailure
}

// UserMessage renders the fixed human-readable text for each kind.
func (e *ProviderError) UserMessage() string {
	switch e.Kind {
	case KindQuotaExceeded:
		return "AI provider quota exceeded, please try again later"
	case KindRateLimited:
		return "AI provider is rate limiting requests, please retry shortly"
	case KindInvalidCredentials:
		return "AI provider rejected the configured credentials"
	case KindTimeout:
		return "AI provider request timed out"
	default:
		return "AI provider error: " + e.Message
	}
}

// classify maps an OpenAI-style structured error into the taxonomy. The
// match is on error code first, then type, then HTTP status; transport-level
// errors are inspected for timeouts. Everything else is unknown.
func classify(provider string, status int, code, errType, message string, transportErr error) *ProviderError {
	if transportErr != nil {
		if errors.Is(transportErr, context.DeadlineExceeded) {
			return &ProviderError{Kind: KindTimeout, Provider: provider, Message: transportErr.Error()}
		}
		var netErr net.Error
		if errors.As(transportErr, &netErr) && netErr.Timeout() {
			return &ProviderError{Kind: KindTimeout, Provider: provider, Message: transportErr.Error()}
		}
		return &ProviderError{Kind: KindUnknown, Provider: provider, Message: transportErr.Error()}
	}

	switch code {
	case "insufficient_quota", "quota_exceeded":
		return &ProviderError{Kind: KindQuotaExceeded, Provider: provider, Message: message}
	case "rate_limit_exceeded":
		return &ProviderError{Kind: KindRateLimited, Provider: provider, Message: message}
	case "invalid_api_key", "account_deactivated":
		return &ProviderError{Kind: KindInvalidCredentials, Provider: provider, Message: message}
	}

	switch errType {
	case "insufficient_quota":
		return &ProviderError{Kind: KindQuotaExceeded, Provider: provider, Message: message}
	case "authentication_error":
		return &ProviderError{Kind: KindInvalidCredentials, Provider: provider, Message: message}
	}

	switch status {
	case 401, 403:
		return &ProviderError{Kind: KindInvalidCredentials, Provider: provider, Message: message}
	case 429:
		// 429 without a quota code is plain rate limiting.
		return &ProviderError{Kind: KindRateLimited, Provider: provider, Message: message}
	case 408, 504:
		return &ProviderError{Kind: KindTimeout, Provider: provider, Message: message}
	}

	if message == "" {
		message = fmt.Sprintf("unexpected status %d", status)
	}
	return &ProviderError{Kind: KindUnknown, Provider: provider, Message: message}
}

// AsProviderError unwraps a classified failure if present.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// trimMessage keeps provider messages log-friendly.
func trimMessage(msg string) string {
	msg = strings.TrimSpace(msg)
	const max = 500
	if len(msg) > max {
		return msg[:max]
	}
	return msg
}
