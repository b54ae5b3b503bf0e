package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 8084, cfg.HTTPPort)
	assert.Equal(t, "redis", cfg.StoreDriver)
	assert.Equal(t, "USD", cfg.BaseCurrency)
	assert.Equal(t, 3*time.Second, cfg.GeoIPTimeout)
	assert.Equal(t, 45, cfg.GeoIPRatePerMinute)
	assert.Equal(t, 1000, cfg.IPCacheSize)
	assert.Equal(t, 24*time.Hour, cfg.IPCacheTTL)
	assert.Equal(t, 10*time.Second, cfg.ProviderTimeout)
	assert.False(t, cfg.HasProviderCredential())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("OXR_APP_ID", "secret")
	t.Setenv("IP_CACHE_SIZE", "50")
	t.Setenv("GEOIP_TIMEOUT", "1500ms")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("ENVIRONMENT", "prod")

	cfg := Load()

	assert.True(t, cfg.HasProviderCredential())
	assert.Equal(t, 50, cfg.IPCacheSize)
	assert.Equal(t, 1500*time.Millisecond, cfg.GeoIPTimeout)
	assert.False(t, cfg.MetricsEnabled)
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_IgnoresMalformedValues(t *testing.T) {
	t.Setenv("HTTP_PORT", "not-a-port")
	t.Setenv("IP_CACHE_TTL", "forever")

	cfg := Load()

	assert.Equal(t, 8084, cfg.HTTPPort)
	assert.Equal(t, 24*time.Hour, cfg.IPCacheTTL)
}
