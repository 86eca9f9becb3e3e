package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"bizmatch-workers/internal/api"
	"bizmatch-workers/internal/catalog"
	"bizmatch-workers/internal/common/camunda"
	"bizmatch-workers/internal/common/config"
	"bizmatch-workers/internal/common/database"
	"bizmatch-workers/internal/common/logger"
	"bizmatch-workers/internal/common/observability"
	"bizmatch-workers/internal/recommendation"
	"bizmatch-workers/pkg/registry"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
		zap.String("envFile", cfg.EnvFile),
	)

	obs, err := observability.New(cfg.Observability.ServiceName,
		observability.WithTracing(cfg.Observability.TracingEnabled, cfg.Observability.TraceSampleRatio),
		observability.AsGlobal(),
	)
	if err != nil {
		zapLog.Warn("observability partially initialised", zap.Error(err))
	}
	defer func() {
		if err := obs.Shutdown(context.Background()); err != nil {
			zapLog.Warn("observability shutdown failed", zap.Error(err))
		}
	}()

	ctx := context.Background()
	checks := make(map[string]api.ReadinessCheck)

	// --- Catalog ---
	cat, pg, err := loadCatalog(ctx, cfg, zapLog)
	if err != nil {
		zapLog.Fatal("catalog load failed", zap.Error(err))
	}
	if pg != nil {
		defer pg.Close()
		checks["postgres"] = pg.Ping
	}
	zapLog.Info("Catalog loaded",
		zap.String("source", cfg.Catalog.Source),
		zap.String("version", cat.Version()),
		zap.Int("businesses", cat.Len()),
	)

	reg, err := loadRegistry(cfg)
	if err != nil {
		zapLog.Fatal("activity registry load failed", zap.Error(err))
	}

	engine := recommendation.NewEngine(cat)

	// --- Recommendation cache ---
	var cache *recommendation.Cache
	if cfg.Recommendations.CacheEnabled {
		var rc *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			rc, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rc.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rc.Close()

		cache = recommendation.NewCache(rc.Client, cfg.Recommendations.CachePrefix, config.GetDuration(cfg.Recommendations.CacheTTL))
		checks["redis"] = rc.Ping
		zapLog.Info("Redis connected successfully")
	}

	// --- Zeebe job workers ---
	var (
		zeebeClient *camunda.Client
		workers     []*camunda.CamundaWorker
	)
	if cfg.Camunda.BrokerAddress != "" {
		err = retryWithBackoff(func() error {
			var err error
			zeebeClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: cfg.Camunda.UsePlaintext,
				RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
			})
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		checks["zeebe"] = zeebeClient.HealthCheck
		zapLog.Info("Zeebe client connected successfully")

		workers = registerWorkers(cfg, zeebeClient, workerDeps{
			engine:   engine,
			registry: reg,
			cache:    cache,
			obs:      obs,
			log:      log,
		}, zapLog)
		zapLog.Info("workers registered", zap.Int("count", len(workers)))
	} else {
		zapLog.Info("no broker address configured, job workers disabled")
	}

	// --- HTTP API ---
	server := api.NewServer(api.Dependencies{
		Engine:        engine,
		Cache:         cache,
		Observability: obs,
		Logger:        log,
		Checks:        checks,
	}, api.MiddlewareConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      cfg.Server.RateLimit,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
	}, cfg.Recommendations.DefaultLimit)

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      server.Routes(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP API listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP API failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping HTTP API", zap.Error(err))
	}

	for _, w := range workers {
		w.Stop()
	}
	if zeebeClient != nil {
		if err := zeebeClient.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// loadCatalog returns the catalog from the configured source. The Postgres
// client is returned so main can close it and probe it on /ready.
func loadCatalog(ctx context.Context, cfg *config.Config, log *zap.Logger) (*catalog.Catalog, *database.PostgresClient, error) {
	switch cfg.Catalog.Source {
	case config.CatalogSourceFile:
		c, err := catalog.LoadFile(cfg.Catalog.Path)
		return c, nil, err

	case config.CatalogSourcePostgres:
		var pg *database.PostgresClient
		err := retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, log, "PostgreSQL connection")
		if err != nil {
			return nil, nil, err
		}
		log.Info("PostgreSQL connected successfully")

		c, err := catalog.LoadFromDB(ctx, pg.DB)
		if err != nil {
			pg.Close()
			return nil, nil, err
		}
		return c, pg, nil

	default:
		return catalog.Default(), nil, nil
	}
}

func loadRegistry(cfg *config.Config) (*registry.ActivityRegistry, error) {
	if cfg.Registry.Path != "" {
		return registry.LoadRegistry(cfg.Registry.Path)
	}
	return registry.Default()
}
