// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

// Command api is the entry point for the developer portal API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire the guard pipeline and domain handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meridianbank/devportal/internal/accounts"
	"github.com/meridianbank/devportal/internal/api"
	"github.com/meridianbank/devportal/internal/audit"
	"github.com/meridianbank/devportal/internal/auth"
	"github.com/meridianbank/devportal/internal/catalog"
	"github.com/meridianbank/devportal/internal/docs"
	"github.com/meridianbank/devportal/internal/guard"
	"github.com/meridianbank/devportal/internal/identity"
	"github.com/meridianbank/devportal/internal/platform/config"
	"github.com/meridianbank/devportal/internal/platform/constants"
	"github.com/meridianbank/devportal/internal/platform/migration"
	pgstore "github.com/meridianbank/devportal/internal/platform/postgres"
	redisstore "github.com/meridianbank/devportal/internal/platform/redis"
	"github.com/meridianbank/devportal/internal/sandbox"
	"github.com/meridianbank/devportal/internal/settings"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Application-lifetime context: cancelling it stops the background
	// goroutines (throttle cleanup, limiter sweepers).
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	// Startup deadline so misconfiguration is caught quickly rather than
	// hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(appCtx, 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 7. Repositories ───────────────────────────────────────────────────
	userRepository := identity.NewUserRepository(pool)
	developerRepository := identity.NewDeveloperRepository(pool)
	tokenRepository := identity.NewTokenRepository(pool)
	sessionRepository := auth.NewSessionRepository(rdb)
	auditStore := audit.NewPostgresStore(pool)
	categoryRepository := catalog.NewCategoryRepository(pool)
	endpointRepository := catalog.NewEndpointRepository(pool)
	pageRepository := docs.NewPageRepository(pool)
	settingsRepository := settings.NewRepository(pool)

	// ── 8. Guard Pipeline ─────────────────────────────────────────────────
	// The reserved development keys never exist in production, regardless of
	// the configuration flag.
	testKeys := guard.NewTestKeyProvider(cfg.SandboxTestKeys && !cfg.IsProduction())

	authGuard := guard.New(guard.Config{
		Sessions:         sessionRepository,
		Users:            userRepository,
		Developers:       developerRepository,
		Tokens:           tokenRepository,
		Recorder:         auditStore,
		TestKeys:         testKeys,
		AuditTokenAccess: cfg.AuditTokenAccess,
	})

	apiLimiter := guard.NewLimiter(cfg.APIRateWindow, cfg.APIRateMax)
	apiLimiter.StartSweeping(appCtx, time.Minute)

	loginLimiter := guard.NewLimiter(cfg.LoginRateWindow, cfg.LoginRateMax)
	loginLimiter.StartSweeping(appCtx, time.Minute)

	// ── 9. Domain Wiring ──────────────────────────────────────────────────
	authService := auth.NewService(userRepository, developerRepository, sessionRepository, auditStore, cfg.SessionTTL)
	authHandler := auth.NewHandler(authService, authGuard, loginLimiter)

	catalogService := catalog.NewService(categoryRepository, endpointRepository, auditStore, log)
	catalogHandler := catalog.NewHandler(catalogService)

	docsService := docs.NewService(pageRepository, auditStore, log)
	docsHandler := docs.NewHandler(docsService)

	settingsService := settings.NewService(settingsRepository, auditStore, log)
	settingsHandler := settings.NewHandler(settingsService)

	sandboxService := sandbox.NewService(endpointRepository)
	sandboxHandler := sandbox.NewHandler(sandboxService)

	accountsService := accounts.NewService(userRepository, developerRepository, tokenRepository, auditStore, log)
	accountsHandler := accounts.NewHandler(accountsService)

	auditHandler := audit.NewHandler(auditStore)

	// ── 10. HTTP Server ───────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      authHandler,
		Catalog:   catalogHandler,
		Docs:      docsHandler,
		Settings:  settingsHandler,
		Sandbox:   sandboxHandler,
		Accounts:  accountsHandler,
		Audit:     auditHandler,
	}

	server := api.NewServer(appCtx, cfg, log, authGuard, apiLimiter, handlers)

	// ── 11. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
