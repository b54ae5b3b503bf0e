package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// DateLayout is the calendar-day format used for snapshot dates
	DateLayout = "2006-01-02"

	// DefaultProvider names the rate source when none is recorded
	DefaultProvider = "openexchangerates"

	// SyntheticProvider marks snapshots that were never fetched or stored
	SyntheticProvider = "synthetic"
)

// Snapshot is one day's rates relative to a base currency.
// It is either a *RateSnapshot (a persisted row) or a *SyntheticSnapshot.
type Snapshot interface {
	BaseCurrency() string
	Day() string
	Source() string
	RateTable() map[string]float64
	isSnapshot()
}

// RateSnapshot is a persisted daily rate snapshot, unique per (Base, Date)
type RateSnapshot struct {
	ID                uuid.UUID          `json:"id"`
	Date              string             `json:"date"`
	Base              string             `json:"base"`
	ProviderTimestamp *int64             `json:"providerTimestamp,omitempty"`
	Provider          string             `json:"provider"`
	Rates             map[string]float64 `json:"rates"`
	CreatedAt         time.Time          `json:"createdAt"`
}

func (s *RateSnapshot) BaseCurrency() string          { return s.Base }
func (s *RateSnapshot) Day() string                   { return s.Date }
func (s *RateSnapshot) RateTable() map[string]float64 { return s.Rates }
func (*RateSnapshot) isSnapshot()                     {}

// Source returns the provider name, defaulting to openexchangerates
func (s *RateSnapshot) Source() string {
	if s.Provider == "" {
		return DefaultProvider
	}
	return s.Provider
}

// SyntheticSnapshot is a transient fallback used when no real data exists.
// It is never persisted.
type SyntheticSnapshot struct {
	Date  string
	Base  string
	Rates map[string]float64
}

func (s *SyntheticSnapshot) BaseCurrency() string          { return s.Base }
func (s *SyntheticSnapshot) Day() string                   { return s.Date }
func (s *SyntheticSnapshot) Source() string                { return SyntheticProvider }
func (s *SyntheticSnapshot) RateTable() map[string]float64 { return s.Rates }
func (*SyntheticSnapshot) isSnapshot()                     {}

// NewSyntheticSnapshot returns the floor snapshot: USD base, PKR at 277
func NewSyntheticSnapshot(date string) *SyntheticSnapshot {
	return &SyntheticSnapshot{
		Date:  date,
		Base:  "USD",
		Rates: map[string]float64{"PKR": 277},
	}
}

// IsSynthetic reports whether s was synthesized rather than stored
func IsSynthetic(s Snapshot) bool {
	_, ok := s.(*SyntheticSnapshot)
	return ok
}

// SnapshotView is the wire representation of any snapshot
type SnapshotView struct {
	ID                string             `json:"id,omitempty"`
	Date              string             `json:"date"`
	Base              string             `json:"base"`
	Provider          string             `json:"provider"`
	ProviderTimestamp *int64             `json:"providerTimestamp,omitempty"`
	Rates             map[string]float64 `json:"rates"`
	Synthetic         bool               `json:"synthetic"`
}

// ViewOf flattens a snapshot for HTTP/gRPC responses
func ViewOf(s Snapshot) SnapshotView {
	view := SnapshotView{
		Date:     s.Day(),
		Base:     s.BaseCurrency(),
		Provider: s.Source(),
		Rates:    s.RateTable(),
	}
	switch v := s.(type) {
	case *RateSnapshot:
		view.ID = v.ID.String()
		view.ProviderTimestamp = v.ProviderTimestamp
	case *SyntheticSnapshot:
		view.Synthetic = true
	}
	return view
}

// IPCurrencyEntry is a process-local detection result for one client IP
type IPCurrencyEntry struct {
	IP       string    `json:"ip"`
	Currency string    `json:"currency"`
	CachedAt time.Time `json:"cachedAt"`
}

// ConversionRequest is the parameter tuple for a conversion.
// A zero AsOf means today.
type ConversionRequest struct {
	Amount decimal.Decimal `json:"amount"`
	From   string          `json:"from"`
	To     string          `json:"to"`
	AsOf   time.Time       `json:"asOf,omitempty"`
}

// DateOf formats t as a UTC calendar day
func DateOf(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
