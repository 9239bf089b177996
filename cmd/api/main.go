package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/employee-onboarding/internal/api/http"
	"github.com/spec-kit/employee-onboarding/internal/api/http/handlers"
	"github.com/spec-kit/employee-onboarding/internal/auth"
	"github.com/spec-kit/employee-onboarding/internal/config"
	"github.com/spec-kit/employee-onboarding/internal/observability"
	"github.com/spec-kit/employee-onboarding/internal/persistence"
	"github.com/spec-kit/employee-onboarding/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Name, cfg.App.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := observability.InitSentry(cfg.Sentry.DSN, cfg.App.Env, cfg.App.Version); err != nil {
		logger.Warn("sentry disabled", zap.Error(err))
	}
	defer observability.FlushSentry()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		store  repository.RecordStore
		checks []handlers.DependencyCheck
	)
	switch cfg.Store.Backend {
	case config.StoreBackendMemory:
		logger.Warn("using in-memory record store; data is lost on restart")
		store = repository.NewMemoryStore()
	default:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()
		if !pg.Configured() {
			logger.Fatal("STORE_BACKEND=postgres requires POSTGRES_DSN")
		}

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		store = repository.NewPostgresStore(pg.Pool)
		checks = append(checks, handlers.DependencyCheck{Name: "postgres", Ping: pg.Ping})
	}

	var rateStore auth.RateLimitStore
	switch cfg.Services.RateLimitBackend {
	case config.RateLimitBackendRedis:
		redis, err := persistence.NewRedis(ctx, cfg.Redis, true, logger)
		if err != nil {
			logger.Fatal("failed to connect redis", zap.Error(err))
		}
		defer redis.Close()
		rateStore = auth.NewRedisRateLimitStore(redis.Client, cfg.App.Name)
		checks = append(checks, handlers.DependencyCheck{Name: "redis", Ping: redis.Ping})
	default:
		memory := auth.NewMemoryRateLimitStore(nil)
		defer memory.Close()
		rateStore = memory
	}

	if len(cfg.Services.APIKeys) == 0 {
		logger.Warn("no service API keys configured; /services/token will reject every key")
	}

	app := httptransport.NewApp(*cfg, httptransport.Dependencies{
		Logger:         logger,
		Metrics:        observability.NewMetrics(),
		Employees:      repository.NewEmployeeRepository(store),
		RateLimitStore: rateStore,
		Checks:         checks,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
