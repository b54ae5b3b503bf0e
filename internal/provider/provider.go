package provider

import (
	"context"
	"fmt"
)

// LatestRates is a raw provider snapshot
type LatestRates struct {
	Timestamp int64              // Provider-reported Unix seconds
	Base      string             // Base currency the rates are relative to
	Rates     map[string]float64 // 1 Base = Rates[code] units of code
	Provider  string             // Provider name
}

// RateProvider defines the interface for FX-rate providers.
// Implementations return one of the typed errors below on failure.
type RateProvider interface {
	// FetchLatest returns the provider's latest rates for base
	FetchLatest(ctx context.Context, credential, base string) (*LatestRates, error)

	// Name returns the provider name (e.g., "openexchangerates")
	Name() string
}

// ErrCredentialMissing is returned when no provider credential is configured
type ErrCredentialMissing struct {
	Provider string
}

func (e ErrCredentialMissing) Error() string {
	return "provider " + e.Provider + ": credential not configured"
}

// ErrUnauthorized is returned when the provider rejects the credential
type ErrUnauthorized struct {
	Provider string
}

func (e ErrUnauthorized) Error() string {
	return "provider " + e.Provider + ": unauthorized"
}

// ErrHTTPStatus is returned for any other non-2xx provider response
type ErrHTTPStatus struct {
	Provider   string
	StatusCode int
}

func (e ErrHTTPStatus) Error() string {
	return fmt.Sprintf("provider %s: unexpected status %d", e.Provider, e.StatusCode)
}

// ErrNetwork wraps transport failures, including timeouts
type ErrNetwork struct {
	Provider string
	Err      error
}

func (e ErrNetwork) Error() string {
	return "provider " + e.Provider + ": network error: " + e.Err.Error()
}

func (e ErrNetwork) Unwrap() error {
	return e.Err
}

// ErrMalformedResponse is returned when the provider body cannot be used
type ErrMalformedResponse struct {
	Provider string
	Reason   string
}

func (e ErrMalformedResponse) Error() string {
	return "provider " + e.Provider + ": malformed response: " + e.Reason
}

// ErrorType classifies a provider error for metrics labels
func ErrorType(err error) string {
	switch err.(type) {
	case ErrCredentialMissing:
		return "credential_missing"
	case ErrUnauthorized:
		return "unauthorized"
	case ErrHTTPStatus:
		return "http_status"
	case ErrNetwork:
		return "network"
	case ErrMalformedResponse:
		return "malformed"
	default:
		return "other"
	}
}
