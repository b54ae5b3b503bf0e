package service

import (
	"context"
	"time"

	"github.com/patteeraL/movra/services/currency-service/internal/metrics"
	"github.com/patteeraL/movra/services/currency-service/internal/model"
	"github.com/patteeraL/movra/services/currency-service/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CurrencyService is the surface pricing collaborators call
type CurrencyService struct {
	resolver  *RateResolver
	converter *CurrencyConverter
	ipCache   *IPCurrencyCache
	store     repository.SnapshotStore
	settings  Settings
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewCurrencyService composes the resolver, converter and IP cache
func NewCurrencyService(
	resolver *RateResolver,
	converter *CurrencyConverter,
	ipCache *IPCurrencyCache,
	store repository.SnapshotStore,
	settings Settings,
	m *metrics.Metrics,
	logger *zap.Logger,
) *CurrencyService {
	return &CurrencyService{
		resolver:  resolver,
		converter: converter,
		ipCache:   ipCache,
		store:     store,
		settings:  settings,
		metrics:   m,
		logger:    logger,
	}
}

// Convert converts amount using today's snapshot
func (s *CurrencyService) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	return s.converter.Convert(ctx, model.ConversionRequest{Amount: amount, From: from, To: to})
}

// ConvertOn converts amount using the snapshot for asOf
func (s *CurrencyService) ConvertOn(ctx context.Context, amount decimal.Decimal, from, to string, asOf time.Time) (decimal.Decimal, error) {
	return s.converter.Convert(ctx, model.ConversionRequest{Amount: amount, From: from, To: to, AsOf: asOf})
}

// DetectCurrency returns the currency for a client IP; always USD or PKR
func (s *CurrencyService) DetectCurrency(ctx context.Context, ip string) string {
	currency := s.ipCache.DetectCurrency(ctx, ip)
	s.metrics.RecordDetection(currency)
	return currency
}

// CurrencyForCountry maps a country name to PKR or USD
func (s *CurrencyService) CurrencyForCountry(name string) string {
	return CurrencyForCountry(name)
}

// Snapshot returns the snapshot for date and base along with its serving tier
func (s *CurrencyService) Snapshot(ctx context.Context, date, base string) (model.Snapshot, Tier) {
	return s.resolver.ResolveSnapshot(ctx, date, base)
}

// DefaultCurrency returns the configured customer-facing currency
func (s *CurrencyService) DefaultCurrency() string {
	return s.settings.DefaultCurrency()
}

// IPCacheLen returns the number of cached IP detections
func (s *CurrencyService) IPCacheLen() int {
	return s.ipCache.Len()
}

// Health checks the snapshot store
func (s *CurrencyService) Health(ctx context.Context) error {
	return s.store.Health(ctx)
}
