package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the currency service
type Config struct {
	// Server ports
	HTTPPort int
	GRPCPort int

	// Environment
	Environment string
	LogLevel    string

	// Snapshot store: "redis" or "postgres"
	StoreDriver string

	// Redis connection
	RedisAddr string
	RedisPass string
	RedisDB   int

	// Postgres connection
	DatabaseURL string

	// OpenExchangeRates API. An empty app id disables live fetching.
	OXRAppID        string
	OXRAPIUrl       string
	ProviderTimeout time.Duration

	// Currencies
	BaseCurrency    string
	DefaultCurrency string

	// Geo-IP detection
	GeoIPURL           string
	GeoIPTimeout       time.Duration
	GeoIPRatePerMinute int
	IPCacheSize        int
	IPCacheTTL         time.Duration

	// Daily refresh hour (UTC, 0-23)
	RefreshHour int

	// Kafka. Empty brokers disables snapshot events.
	KafkaBrokers       string
	KafkaTopicSnapshot string

	// Observability
	MetricsEnabled  bool
	MetricsEndpoint string
	TracingEnabled  bool
	JaegerURL       string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		HTTPPort: getEnvInt("HTTP_PORT", 8084),
		GRPCPort: getEnvInt("GRPC_PORT", 9094),

		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		StoreDriver: getEnv("STORE_DRIVER", "redis"),

		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass: getEnv("REDIS_PASSWORD", ""),
		RedisDB:   getEnvInt("REDIS_DB", 0),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		OXRAppID:        getEnv("OXR_APP_ID", ""),
		OXRAPIUrl:       getEnv("OXR_API_URL", "https://openexchangerates.org/api"),
		ProviderTimeout: getEnvDuration("PROVIDER_TIMEOUT", 10*time.Second),

		BaseCurrency:    getEnv("BASE_CURRENCY", "USD"),
		DefaultCurrency: getEnv("DEFAULT_CURRENCY", "USD"),

		GeoIPURL:           getEnv("GEOIP_URL", "http://ip-api.com/json"),
		GeoIPTimeout:       getEnvDuration("GEOIP_TIMEOUT", 3*time.Second),
		GeoIPRatePerMinute: getEnvInt("GEOIP_RATE_PER_MINUTE", 45),
		IPCacheSize:        getEnvInt("IP_CACHE_SIZE", 1000),
		IPCacheTTL:         getEnvDuration("IP_CACHE_TTL", 24*time.Hour),

		RefreshHour: getEnvInt("REFRESH_HOUR", 1),

		KafkaBrokers:       getEnv("KAFKA_BROKERS", ""),
		KafkaTopicSnapshot: getEnv("KAFKA_TOPIC_SNAPSHOT", "fx.snapshot.created"),

		MetricsEnabled:  getEnvBool("METRICS_ENABLED", true),
		MetricsEndpoint: getEnv("METRICS_ENDPOINT", "/metrics"),
		TracingEnabled:  getEnvBool("TRACING_ENABLED", false),
		JaegerURL:       getEnv("JAEGER_URL", "http://localhost:14268/api/traces"),
	}
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// HasProviderCredential reports whether live rate fetching is configured
func (c *Config) HasProviderCredential() bool {
	return c.OXRAppID != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
