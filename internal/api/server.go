// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridianbank/devportal/internal/accounts"
	"github.com/meridianbank/devportal/internal/audit"
	"github.com/meridianbank/devportal/internal/auth"
	"github.com/meridianbank/devportal/internal/catalog"
	"github.com/meridianbank/devportal/internal/docs"
	"github.com/meridianbank/devportal/internal/guard"
	"github.com/meridianbank/devportal/internal/identity"
	"github.com/meridianbank/devportal/internal/platform/config"
	"github.com/meridianbank/devportal/internal/platform/constants"
	"github.com/meridianbank/devportal/internal/platform/middleware"
	"github.com/meridianbank/devportal/internal/sandbox"
	"github.com/meridianbank/devportal/internal/settings"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
//
// # Usage
//
// New domains add a field here — no other change to server.go is required.
type Handlers struct {
	// Liveness is the /health handler — always returns 200 if process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler — returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Auth handles login, logout, and the profile endpoint.
	Auth *auth.Handler

	// Catalog handles categories and API endpoints.
	Catalog *catalog.Handler

	// Docs handles the documentation tree.
	Docs *docs.Handler

	// Settings handles the admin configuration records.
	Settings *settings.Handler

	// Sandbox handles the request playground.
	Sandbox *sandbox.Handler

	// Accounts handles the admin principal surface.
	Accounts *accounts.Handler

	// Audit handles the admin audit-trail listing.
	Audit *audit.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
//
// apiLimiter keys on the authenticated identity and protects the sandbox
// playground; each route group composes its own guard stages on top of the
// identity-free global chain.
func NewServer(appCtx context.Context, cfg *config.Config, log *slog.Logger, g *guard.Guard, apiLimiter *guard.Limiter, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution. Everything here runs
	// before any identity is known.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.Throttle(appCtx))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated health probes for container orchestration.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	// # Application API
	// Domain-specific route groups mounted under versioned prefix.
	r.Route("/api/v1", func(api chi.Router) {
		// Login carries its own limiter; logout/me authenticate inside.
		api.Mount("/auth", h.Auth.Routes())

		// Browser surfaces: session-authenticated.
		api.Group(func(portal chi.Router) {
			portal.Use(g.Authenticate)
			portal.Mount("/catalog", h.Catalog.Routes())
			portal.Mount("/docs", h.Docs.Routes())
			portal.Mount("/settings", h.Settings.Routes())
			portal.Route("/admin", func(admin chi.Router) {
				admin.Mount("/", h.Accounts.Routes())
				admin.With(guard.RequireRole(identity.RoleAdmin)).Mount("/audit", h.Audit.Routes())
			})
		})

		// Playground: session or API key, environment-gated, rate-limited.
		api.Group(func(play chi.Router) {
			play.Use(g.AuthenticateAny)
			play.Mount("/sandbox", h.Sandbox.Routes(g, apiLimiter))
		})
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
