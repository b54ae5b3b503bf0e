package service

import (
	"context"
	"net"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/patteeraL/movra/services/currency-service/internal/geoip"
	"github.com/patteeraL/movra/services/currency-service/internal/metrics"
	"github.com/patteeraL/movra/services/currency-service/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultIPCacheSize   = 1000
	DefaultIPCacheTTL    = 24 * time.Hour
	DefaultLookupTimeout = 3 * time.Second

	fallbackCurrency = "USD"
)

// IPCurrencyCache maps client IPs to a detected currency.
// Entries expire after ttl; the cache keeps only the capacity most recently written entries.
// Concurrent writers to one IP resolve last-writer-wins.
type IPCurrencyCache struct {
	client   geoip.Client
	capacity int
	ttl      time.Duration
	timeout  time.Duration
	metrics  *metrics.Metrics
	logger   *zap.Logger
	tracer   trace.Tracer
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]model.IPCurrencyEntry
	group   singleflight.Group
}

// NewIPCurrencyCache creates a cache. Non-positive values fall back to the defaults.
func NewIPCurrencyCache(
	client geoip.Client,
	capacity int,
	ttl time.Duration,
	timeout time.Duration,
	m *metrics.Metrics,
	logger *zap.Logger,
) *IPCurrencyCache {
	if capacity <= 0 {
		capacity = DefaultIPCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultIPCacheTTL
	}
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	return &IPCurrencyCache{
		client:   client,
		capacity: capacity,
		ttl:      ttl,
		timeout:  timeout,
		metrics:  m,
		logger:   logger,
		tracer:   otel.Tracer("currency-service/ipcache"),
		now:      time.Now,
		entries:  make(map[string]model.IPCurrencyEntry),
	}
}

// DetectCurrency returns USD or PKR for ip. It never fails.
func (c *IPCurrencyCache) DetectCurrency(ctx context.Context, ip string) string {
	ip = NormalizeIP(ip)
	if isLocal(ip) {
		return fallbackCurrency
	}

	if currency, ok := c.lookupFresh(ip); ok {
		c.metrics.RecordCacheHit("ip_currency")
		return currency
	}
	c.metrics.RecordCacheMiss("ip_currency")

	v, _, _ := c.group.Do(ip, func() (interface{}, error) {
		currency := c.detect(ctx, ip)
		c.store(ip, currency)
		return currency, nil
	})
	return v.(string)
}

// Len returns the number of cached entries, expired ones included
func (c *IPCurrencyCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *IPCurrencyCache) lookupFresh(ip string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[ip]
	if !ok || c.now().Sub(entry.CachedAt) >= c.ttl {
		return "", false
	}
	return entry.Currency, true
}

func (c *IPCurrencyCache) detect(ctx context.Context, ip string) string {
	ctx, span := c.tracer.Start(ctx, "IPCurrencyCache.detect", trace.WithAttributes(attribute.String("client.ip", ip)))
	defer span.End()

	// Waiters share this lookup, so only the lookup timeout bounds it
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	country, err := c.client.Lookup(ctx, ip)
	if err != nil {
		c.metrics.RecordGeoLookup(false)
		span.RecordError(err)
		c.logger.Debug("Geo-IP lookup failed, defaulting currency",
			zap.String("ip", ip),
			zap.Error(err),
		)
		return fallbackCurrency
	}
	c.metrics.RecordGeoLookup(true)
	return currencyForCountryCode(country)
}

func (c *IPCurrencyCache) store(ip, currency string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[ip] = model.IPCurrencyEntry{
		IP:       ip,
		Currency: currency,
		CachedAt: c.now(),
	}
	c.evictLocked()
	c.metrics.SetIPCacheEntries(len(c.entries))
}

// evictLocked keeps the capacity newest entries by CachedAt
func (c *IPCurrencyCache) evictLocked() {
	if len(c.entries) <= c.capacity {
		return
	}

	all := make([]model.IPCurrencyEntry, 0, len(c.entries))
	for _, e := range c.entries {
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CachedAt.After(all[j].CachedAt)
	})
	for _, e := range all[c.capacity:] {
		delete(c.entries, e.IP)
	}
}

// NormalizeIP takes the first forwarded hop, strips any port and unmaps v4-in-v6 addresses
func NormalizeIP(raw string) string {
	ip := strings.TrimSpace(strings.Split(raw, ",")[0])
	if ip == "" {
		return ""
	}

	if parsed := net.ParseIP(ip); parsed == nil {
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
	}
	ip = strings.Trim(ip, "[]")

	if parsed := net.ParseIP(ip); parsed != nil {
		if v4 := parsed.To4(); v4 != nil {
			return v4.String()
		}
		return parsed.String()
	}
	return ip
}

func isLocal(ip string) bool {
	return ip == "" || ip == "::1" || ip == "127.0.0.1"
}
