package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/patteeraL/movra/services/currency-service/internal/config"
	"github.com/patteeraL/movra/services/currency-service/internal/geoip"
	"github.com/patteeraL/movra/services/currency-service/internal/handler"
	"github.com/patteeraL/movra/services/currency-service/internal/kafka"
	"github.com/patteeraL/movra/services/currency-service/internal/metrics"
	"github.com/patteeraL/movra/services/currency-service/internal/provider"
	"github.com/patteeraL/movra/services/currency-service/internal/repository"
	"github.com/patteeraL/movra/services/currency-service/internal/service"
	"github.com/patteeraL/movra/services/currency-service/internal/tracing"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpcserver "github.com/patteeraL/movra/services/currency-service/internal/grpc"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup logger
	logger := setupLogger(cfg)
	defer logger.Sync()

	logger.Info("Starting Currency Service",
		zap.String("environment", cfg.Environment),
		zap.Int("httpPort", cfg.HTTPPort),
		zap.Int("grpcPort", cfg.GRPCPort),
		zap.String("store", cfg.StoreDriver),
		zap.Bool("providerConfigured", cfg.HasProviderCredential()),
	)

	// Setup tracing
	shutdownTracing, err := tracing.Setup(cfg.TracingEnabled, cfg.JaegerURL, "currency-service", cfg.Environment)
	if err != nil {
		logger.Warn("Tracing disabled", zap.Error(err))
		shutdownTracing = func(context.Context) error { return nil }
	}

	// Setup snapshot store
	store, closeStore := setupStore(cfg, logger)

	// Setup metrics
	appMetrics := metrics.NewMetrics("currency_service", nil)

	// Setup snapshot event publisher
	var publisher service.SnapshotPublisher
	var kafkaPublisher *kafka.Publisher
	if cfg.KafkaBrokers != "" {
		kafkaPublisher = kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopicSnapshot, logger)
		publisher = kafkaPublisher
		logger.Info("Snapshot events enabled", zap.String("topic", cfg.KafkaTopicSnapshot))
	}

	// Wire the currency core
	settings := service.SettingsFromConfig(cfg)
	rateProvider := provider.NewOpenExchangeRatesClient(cfg.OXRAPIUrl, cfg.ProviderTimeout)
	resolver := service.NewRateResolver(store, rateProvider, settings, publisher, appMetrics, logger)
	converter := service.NewCurrencyConverter(resolver, appMetrics, logger)
	geoClient := geoip.NewIPAPIClient(cfg.GeoIPURL, cfg.GeoIPTimeout, geoip.WithRateLimit(cfg.GeoIPRatePerMinute))
	ipCache := service.NewIPCurrencyCache(geoClient, cfg.IPCacheSize, cfg.IPCacheTTL, cfg.GeoIPTimeout, appMetrics, logger)
	currencyService := service.NewCurrencyService(resolver, converter, ipCache, store, settings, appMetrics, logger)

	// Warm today's snapshot and refresh daily
	scheduler := service.NewRefreshScheduler(resolver, cfg.RefreshHour, logger)
	if err := scheduler.Start(context.Background()); err != nil {
		logger.Error("Failed to start refresh scheduler", zap.Error(err))
	}

	// Setup Gin router
	router := setupRouter(cfg, logger, currencyService)

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	// Create gRPC server
	grpcServer := setupGRPCServer(currencyService, logger)

	// Start servers
	startServers(cfg, httpServer, grpcServer, logger)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down servers...")

	scheduler.Stop()
	shutdownServers(httpServer, grpcServer, logger)

	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("Kafka publisher close error", zap.Error(err))
		}
	}
	if err := closeStore(); err != nil {
		logger.Error("Store close error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(ctx); err != nil {
		logger.Error("Tracing shutdown error", zap.Error(err))
	}

	logger.Info("Servers stopped")
}

func setupLogger(cfg *config.Config) *zap.Logger {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	if level, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = level
	}

	logger, err := zapCfg.Build()
	if err != nil {
		panic(err)
	}

	return logger
}

func setupStore(cfg *config.Config, logger *zap.Logger) (repository.SnapshotStore, func() error) {
	switch cfg.StoreDriver {
	case "postgres":
		db, err := repository.NewPostgresDB(cfg.DatabaseURL, cfg.IsDevelopment())
		if err != nil {
			logger.Fatal("Failed to connect to Postgres", zap.Error(err))
		}
		store := repository.NewPostgresStore(db)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := store.Migrate(ctx); err != nil {
			logger.Fatal("Failed to migrate snapshot table", zap.Error(err))
		}

		logger.Info("Connected to Postgres")
		return store, store.Close

	default:
		if cfg.StoreDriver != "redis" {
			logger.Info("Unknown store driver, defaulting to redis",
				zap.String("configured", cfg.StoreDriver),
			)
		}
		redisClient := setupRedis(cfg, logger)
		return repository.NewRedisStore(redisClient), redisClient.Close
	}
}

func setupRedis(cfg *config.Config, logger *zap.Logger) *redis.Client {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		logger.Warn("Redis connection failed, snapshots will fall back to synthetic rates", zap.Error(err))
	} else {
		logger.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr))
	}

	return redisClient
}

func setupRouter(cfg *config.Config, logger *zap.Logger, currencyService *service.CurrencyService) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	// Setup HTTP handler
	httpHandler := handler.NewHTTPHandler(currencyService, logger)
	httpHandler.SetupRoutes(router)

	// Metrics endpoint
	if cfg.MetricsEnabled {
		router.GET(cfg.MetricsEndpoint, gin.WrapH(promhttp.Handler()))
	}

	return router
}

func setupGRPCServer(currencyService *service.CurrencyService, logger *zap.Logger) *grpc.Server {
	grpcServer := grpc.NewServer()

	// Register currency service
	currencyServer := grpcserver.NewCurrencyServer(currencyService, logger)
	grpcserver.RegisterCurrencyServiceServer(grpcServer, currencyServer)

	// Register health check service
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(grpcserver.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	// Enable reflection for debugging (disable in production if needed)
	reflection.Register(grpcServer)

	return grpcServer
}

func startServers(cfg *config.Config, httpServer *http.Server, grpcServer *grpc.Server, logger *zap.Logger) {
	// Start HTTP server
	go func() {
		logger.Info("Starting HTTP server", zap.Int("port", cfg.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Start gRPC server
	go func() {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
		if err != nil {
			logger.Fatal("Failed to listen for gRPC", zap.Error(err))
		}

		logger.Info("Starting gRPC server", zap.Int("port", cfg.GRPCPort))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Fatal("gRPC server failed", zap.Error(err))
		}
	}()
}

func shutdownServers(httpServer *http.Server, grpcServer *grpc.Server, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// Gracefully stop gRPC server
	grpcServer.GracefulStop()
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("clientIP", c.GetString(handler.ClientIPKey)),
			zap.String("currency", c.GetString(handler.CurrencyKey)),
		)
	}
}
