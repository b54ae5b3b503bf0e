package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the currency service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Resolver metrics
	SnapshotResolutionsTotal *prometheus.CounterVec

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
	IPCacheEntries   prometheus.Gauge

	// Provider metrics
	ProviderRequestsTotal   *prometheus.CounterVec
	ProviderErrorsTotal     *prometheus.CounterVec
	ProviderRequestDuration *prometheus.HistogramVec

	// Geo-IP metrics
	GeoLookupsTotal *prometheus.CounterVec

	// Business metrics
	ConversionsTotal *prometheus.CounterVec
	DetectionsTotal  *prometheus.CounterVec
}

// NewMetrics creates all metrics and registers them with reg.
// A nil reg registers with the default registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "currency_service"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		SnapshotResolutionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snapshot_resolutions_total",
				Help:      "Total number of rate snapshot resolutions by serving tier",
			},
			[]string{"tier"}, // stored, fetched, latest, synthetic
		),

		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits",
			},
			[]string{"cache_type"}, // "snapshot" or "ip_currency"
		),

		CacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses",
			},
			[]string{"cache_type"},
		),

		IPCacheEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ip_cache_entries",
				Help:      "Number of entries held by the IP currency cache",
			},
		),

		ProviderRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_requests_total",
				Help:      "Total number of requests to rate providers",
			},
			[]string{"provider", "status"},
		),

		ProviderErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_errors_total",
				Help:      "Total number of errors from rate providers",
			},
			[]string{"provider", "error_type"},
		),

		ProviderRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_request_duration_seconds",
				Help:      "Duration of provider requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"provider"},
		),

		GeoLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "geo_lookups_total",
				Help:      "Total number of geo-IP lookups",
			},
			[]string{"status"}, // success or failure
		),

		ConversionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "conversions_total",
				Help:      "Total number of currency conversions",
			},
			[]string{"source_currency", "target_currency", "status"},
		),

		DetectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "currency_detections_total",
				Help:      "Total number of client currency detections by result",
			},
			[]string{"currency"},
		),
	}
}

// RecordResolution records which tier served a snapshot
func (m *Metrics) RecordResolution(tier string) {
	if m == nil {
		return
	}
	m.SnapshotResolutionsTotal.WithLabelValues(tier).Inc()
}

// RecordCacheHit records a cache hit
func (m *Metrics) RecordCacheHit(cacheType string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss
func (m *Metrics) RecordCacheMiss(cacheType string) {
	if m == nil {
		return
	}
	m.CacheMissesTotal.WithLabelValues(cacheType).Inc()
}

// SetIPCacheEntries records the current IP cache size
func (m *Metrics) SetIPCacheEntries(n int) {
	if m == nil {
		return
	}
	m.IPCacheEntries.Set(float64(n))
}

// RecordProviderRequest records a provider request
func (m *Metrics) RecordProviderRequest(provider, status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.ProviderRequestsTotal.WithLabelValues(provider, status).Inc()
	m.ProviderRequestDuration.WithLabelValues(provider).Observe(durationSeconds)
}

// RecordProviderError records a provider error
func (m *Metrics) RecordProviderError(provider, errorType string) {
	if m == nil {
		return
	}
	m.ProviderErrorsTotal.WithLabelValues(provider, errorType).Inc()
}

// RecordGeoLookup records a geo-IP lookup outcome
func (m *Metrics) RecordGeoLookup(success bool) {
	if m == nil {
		return
	}
	status := "failure"
	if success {
		status = "success"
	}
	m.GeoLookupsTotal.WithLabelValues(status).Inc()
}

// RecordConversion records a conversion
func (m *Metrics) RecordConversion(source, target, status string) {
	if m == nil {
		return
	}
	m.ConversionsTotal.WithLabelValues(source, target, status).Inc()
}

// RecordDetection records a detected client currency
func (m *Metrics) RecordDetection(currency string) {
	if m == nil {
		return
	}
	m.DetectionsTotal.WithLabelValues(currency).Inc()
}
