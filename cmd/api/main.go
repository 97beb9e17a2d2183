// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/habitmoney/habit-ledger/internal/admin"
	"github.com/habitmoney/habit-ledger/internal/auth"
	"github.com/habitmoney/habit-ledger/internal/config"
	"github.com/habitmoney/habit-ledger/internal/core"
	"github.com/habitmoney/habit-ledger/internal/habit"
	"github.com/habitmoney/habit-ledger/internal/health"
	"github.com/habitmoney/habit-ledger/internal/history"
	"github.com/habitmoney/habit-ledger/internal/jobs"
	"github.com/habitmoney/habit-ledger/internal/ledger"
	"github.com/habitmoney/habit-ledger/internal/memstore"
	"github.com/habitmoney/habit-ledger/internal/middleware"
	"github.com/habitmoney/habit-ledger/internal/server"
	"github.com/habitmoney/habit-ledger/internal/user"
)

const (
	drainDelay          = 5 * time.Second
	idempotencyKeyspace = "idem:completion:"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

type stores struct {
	habits habit.Repository
	ledger ledger.Repository
	users  user.Repository
	check  health.Checker
	db     *core.Database
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, closeLog := setupLogger(cfg.Log)
	defer closeLog()
	slog.SetDefault(logger)

	decimal.MarshalJSONWithoutQuotes = true

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"driver", cfg.Database.Driver,
	)

	telemetry := core.NoopTelemetry()
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	st, err := openStores(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}

	var redis *core.Redis
	if cfg.Redis.URL != "" {
		redis, err = core.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		logger.Info("redis connected", "pool_size", cfg.Redis.PoolSize)
	}

	ledgerCfg := ledger.ServiceConfig{
		Retry: core.RetryPolicy{
			MaxAttempts:     cfg.Ledger.ResetMaxAttempts,
			InitialInterval: cfg.Ledger.RetryInitialInterval,
			MaxInterval:     cfg.Ledger.RetryMaxInterval,
		},
		IdempotencyTTL: cfg.Ledger.IdempotencyTTL,
		Tracer:         telemetry.Tracer("habit-ledger/ledger"),
		Logger:         logger,
	}
	if redis != nil {
		ledgerCfg.Deduper = core.NewKeyClaimer(redis.Client, idempotencyKeyspace)
	}

	habitSvc := habit.NewService(st.habits)
	ledgerSvc := ledger.NewService(st.ledger, ledgerCfg)
	historyReader := history.NewReader(ledgerSvc, habitSvc)
	userSvc := user.NewService(st.users)

	var runner *jobs.Runner
	if cfg.Jobs.Enabled {
		if err := jobs.Migrate(ctx, st.db.Pool); err != nil {
			return err
		}
		runner, err = jobs.NewRunner(st.db.Pool, cfg.Jobs, ledgerSvc, logger)
		if err != nil {
			return err
		}
		logger.Info("reset jobs configured",
			"interval", cfg.Jobs.ResetInterval,
			"max_workers", cfg.Jobs.MaxWorkers,
		)
	}

	checks := []health.Check{{Name: "database", Checker: st.check}}
	if redis != nil {
		checks = append(checks, health.Check{
			Name:     "redis",
			Checker:  redis,
			Optional: true,
		})
	}
	healthHandler := health.NewHandler(cfg.App.Version, checks...)

	adminCfg := admin.HandlerConfig{
		DBPing: st.check.Ping,
		Driver: cfg.Database.Driver,
	}
	if st.db != nil {
		adminCfg.DBStats = st.db.Stats
	}
	if redis != nil {
		adminCfg.RedisStats = redis.PoolStats
		adminCfg.RedisPing = redis.Ping
	}
	if runner != nil {
		adminCfg.Sweeper = runner.Scheduler
	}
	adminHandler := admin.NewHandler(adminCfg)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	authenticator := middleware.OpenAccess
	if cfg.JWT.Enabled {
		verifier, verr := auth.NewVerifier(cfg.JWT)
		if verr != nil {
			return verr
		}
		authenticator = middleware.Authenticator(verifier)
		router.Get("/.well-known/jwks.json", verifier.JWKSHandler())
		logger.Info("JWT verifier initialized",
			"algorithm", "ES256",
			"key_id", verifier.KeyID(),
		)
	} else {
		logger.Warn("jwt disabled, every caller may act for any user")
	}

	limiter := newRateLimiter(cfg.RateLimit, redis)

	router.Route("/v1", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(limiter.Handler)

		habit.NewHandler(habitSvc).RegisterRoutes(r)
		ledger.NewHandler(ledgerSvc).RegisterRoutes(r)
		history.NewHandler(historyReader).RegisterRoutes(r)

		userHandler := user.NewHandler(userSvc)
		userHandler.RegisterRoutes(r)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			adminHandler.RegisterRoutes(r)
			userHandler.RegisterAdminRoutes(r)
		})
	})

	if runner != nil {
		if err := runner.Start(ctx); err != nil {
			return err
		}
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if runner != nil {
		if err := runner.Stop(shutdownCtx); err != nil {
			logger.Error("job runner shutdown error", "error", err)
		}
	}

	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown error", "error", err)
	}

	if redis != nil {
		if err := redis.Close(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}

	if st.db != nil {
		if err := st.db.Close(); err != nil {
			logger.Error("database close error", "error", err)
		}
	}

	logger.Info("application stopped")
	return nil
}

func openStores(
	ctx context.Context,
	cfg config.DatabaseConfig,
	logger *slog.Logger,
) (*stores, error) {
	if cfg.Driver == config.DriverMemory {
		mem := memstore.New()
		logger.Warn("using in-memory store, data is lost on exit")
		return &stores{
			habits: mem.Habits(),
			ledger: mem.Ledger(),
			users:  mem.Users(),
			check:  mem,
		}, nil
	}

	db, err := core.NewDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.MaxOpenConns,
		"min_idle_conns", cfg.MinIdleConns,
	)

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close() //nolint:errcheck // startup failure cleanup
			return nil, err
		}
		logger.Info("schema migrations applied")
	}

	return &stores{
		habits: habit.NewRepository(db.DB),
		ledger: ledger.NewRepository(db.DB),
		users:  user.NewRepository(db.DB),
		check:  db,
		db:     db,
	}, nil
}

func newRateLimiter(
	cfg config.RateLimitConfig,
	redis *core.Redis,
) *middleware.RateLimiter {
	rlCfg := middleware.RateLimitConfig{
		Limit:    middleware.PerWindow(cfg.Requests, cfg.Burst, cfg.Window),
		FailOpen: true,
	}
	if redis == nil {
		return middleware.NewRateLimiter(nil, rlCfg)
	}
	return middleware.NewRateLimiter(redis.Client, rlCfg)
}

func setupLogger(cfg config.LogConfig) (*slog.Logger, func()) {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var out io.Writer = os.Stdout
	closeFn := func() {}
	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, rotator)
		closeFn = func() {
			_ = rotator.Close() //nolint:errcheck // best-effort on exit
		}
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler), closeFn
}
