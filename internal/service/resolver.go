package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/patteeraL/movra/services/currency-service/internal/metrics"
	"github.com/patteeraL/movra/services/currency-service/internal/model"
	"github.com/patteeraL/movra/services/currency-service/internal/provider"
	"github.com/patteeraL/movra/services/currency-service/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Tier names the fallback level that produced a snapshot
type Tier string

const (
	TierStored    Tier = "stored"
	TierFetched   Tier = "fetched"
	TierLatest    Tier = "latest"
	TierSynthetic Tier = "synthetic"
)

// SnapshotPublisher announces newly persisted snapshots
type SnapshotPublisher interface {
	PublishSnapshotCreated(ctx context.Context, snapshot *model.RateSnapshot) error
}

// RateResolver returns a usable rate snapshot for any day, degrading
// stored -> fetched -> latest -> synthetic. It never returns an error.
type RateResolver struct {
	store     repository.SnapshotStore
	provider  provider.RateProvider
	settings  Settings
	publisher SnapshotPublisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
	tracer    trace.Tracer
	group     singleflight.Group
}

type resolution struct {
	snapshot model.Snapshot
	tier     Tier
}

// NewRateResolver creates a RateResolver. publisher and m may be nil.
func NewRateResolver(
	store repository.SnapshotStore,
	rateProvider provider.RateProvider,
	settings Settings,
	publisher SnapshotPublisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) *RateResolver {
	return &RateResolver{
		store:     store,
		provider:  rateProvider,
		settings:  settings,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		tracer:    otel.Tracer("currency-service/resolver"),
	}
}

// ResolveSnapshot returns the snapshot for (base, date) and the tier that served it.
// An empty base means the configured base currency.
func (r *RateResolver) ResolveSnapshot(ctx context.Context, date, base string) (model.Snapshot, Tier) {
	base = strings.ToUpper(strings.TrimSpace(base))
	if base == "" {
		base = r.settings.BaseCurrency()
	}

	ctx, span := r.tracer.Start(ctx, "RateResolver.ResolveSnapshot",
		trace.WithAttributes(attribute.String("fx.base", base), attribute.String("fx.date", date)))
	defer span.End()

	// Concurrent callers for the same missing day share one provider round trip.
	// The shared work must not inherit one caller's cancellation.
	shared := context.WithoutCancel(ctx)
	v, _, _ := r.group.Do(base+":"+date, func() (interface{}, error) {
		snap, tier := r.resolve(shared, date, base)
		return resolution{snapshot: snap, tier: tier}, nil
	})
	res := v.(resolution)

	span.SetAttributes(attribute.String("fx.tier", string(res.tier)))
	r.metrics.RecordResolution(string(res.tier))
	return res.snapshot, res.tier
}

func (r *RateResolver) resolve(ctx context.Context, date, base string) (model.Snapshot, Tier) {
	stored, err := r.store.FindByBaseAndDate(ctx, base, date)
	if err != nil {
		r.logger.Warn("Snapshot lookup failed", zap.String("base", base), zap.String("date", date), zap.Error(err))
	}
	if stored != nil {
		r.metrics.RecordCacheHit("snapshot")
		r.logger.Debug("Snapshot cache hit", zap.String("base", base), zap.String("date", date))
		return stored, TierStored
	}
	r.metrics.RecordCacheMiss("snapshot")

	if fetched := r.fetchAndStore(ctx, date, base); fetched != nil {
		return fetched, TierFetched
	}

	latest, err := r.store.FindLatest(ctx)
	if err != nil {
		r.logger.Warn("Latest snapshot lookup failed", zap.Error(err))
	}
	if latest != nil {
		r.logger.Info("Serving latest known snapshot",
			zap.String("requestedDate", date),
			zap.String("snapshotDate", latest.Date),
			zap.String("snapshotBase", latest.Base),
		)
		return latest, TierLatest
	}

	r.logger.Warn("No rate data available, serving synthetic snapshot", zap.String("date", date))
	return model.NewSyntheticSnapshot(date), TierSynthetic
}

// fetchAndStore returns nil whenever the caller should fall through to the latest tier
func (r *RateResolver) fetchAndStore(ctx context.Context, date, base string) *model.RateSnapshot {
	credential := r.settings.ProviderCredential()
	if credential == "" {
		r.logger.Debug("No provider credential configured, skipping fetch")
		return nil
	}

	ctx, span := r.tracer.Start(ctx, "RateResolver.fetch")
	defer span.End()

	providerName := r.provider.Name()
	start := time.Now()
	latest, err := r.provider.FetchLatest(ctx, credential, base)
	if err == nil && latest.Base != "" && !strings.EqualFold(latest.Base, base) {
		err = provider.ErrMalformedResponse{Provider: providerName, Reason: "base " + latest.Base + " does not match " + base}
	}
	if err != nil {
		r.metrics.RecordProviderRequest(providerName, "error", time.Since(start).Seconds())
		r.metrics.RecordProviderError(providerName, provider.ErrorType(err))
		span.RecordError(err)
		r.logger.Warn("Provider fetch failed",
			zap.String("provider", providerName),
			zap.String("base", base),
			zap.Error(err),
		)
		return nil
	}
	r.metrics.RecordProviderRequest(providerName, "success", time.Since(start).Seconds())

	// The stored day follows the provider clock, which may differ from the requested day
	providerDay := date
	var providerTS *int64
	if latest.Timestamp > 0 {
		ts := latest.Timestamp
		providerTS = &ts
		providerDay = model.DateOf(time.Unix(ts, 0))
	}
	if providerDay != date {
		r.logger.Info("Provider day differs from requested day",
			zap.String("requestedDate", date),
			zap.String("providerDate", providerDay),
		)
	}

	snapshot := &model.RateSnapshot{
		Date:              providerDay,
		Base:              base,
		ProviderTimestamp: providerTS,
		Provider:          latest.Provider,
		Rates:             latest.Rates,
	}

	created, err := r.store.Insert(ctx, snapshot)
	if err != nil {
		var dup repository.ErrDuplicateSnapshot
		if errors.As(err, &dup) {
			winner, readErr := r.store.FindByBaseAndDate(ctx, base, providerDay)
			if readErr != nil {
				r.logger.Warn("Re-read after duplicate insert failed", zap.Error(readErr))
				return nil
			}
			if winner != nil {
				r.logger.Debug("Snapshot already written by another caller",
					zap.String("base", base), zap.String("date", providerDay))
			}
			return winner
		}
		r.logger.Error("Failed to persist snapshot",
			zap.String("base", base),
			zap.String("date", providerDay),
			zap.Error(err),
		)
		return nil
	}

	r.logger.Info("Stored new rate snapshot",
		zap.String("id", created.ID.String()),
		zap.String("base", created.Base),
		zap.String("date", created.Date),
		zap.Int("rates", len(created.Rates)),
	)

	if r.publisher != nil {
		if err := r.publisher.PublishSnapshotCreated(ctx, created); err != nil {
			r.logger.Warn("Failed to publish snapshot event", zap.Error(err))
		}
	}

	return created
}
