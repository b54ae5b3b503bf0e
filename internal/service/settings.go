package service

import "github.com/patteeraL/movra/services/currency-service/internal/config"

// Settings provides the runtime values the currency core reads from its host
type Settings interface {
	// ProviderCredential returns the FX provider credential; empty disables fetching
	ProviderCredential() string

	// BaseCurrency returns the base used when a caller does not name one
	BaseCurrency() string

	// DefaultCurrency returns the configured customer-facing currency
	DefaultCurrency() string
}

// StaticSettings is a fixed Settings value
type StaticSettings struct {
	Credential string
	Base       string
	Currency   string
}

// SettingsFromConfig builds StaticSettings from loaded configuration
func SettingsFromConfig(cfg *config.Config) StaticSettings {
	return StaticSettings{
		Credential: cfg.OXRAppID,
		Base:       cfg.BaseCurrency,
		Currency:   cfg.DefaultCurrency,
	}
}

func (s StaticSettings) ProviderCredential() string { return s.Credential }

func (s StaticSettings) BaseCurrency() string {
	if s.Base == "" {
		return "USD"
	}
	return s.Base
}

func (s StaticSettings) DefaultCurrency() string {
	if s.Currency == "" {
		return "USD"
	}
	return s.Currency
}
