// Package api exposes the campaign management HTTP API.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/crierhq/crier/internal/campaign"
	"github.com/crierhq/crier/internal/config"
	"github.com/crierhq/crier/internal/content"
	"github.com/crierhq/crier/internal/metrics"
	"github.com/crierhq/crier/internal/platform"
	"github.com/crierhq/crier/internal/publisher"
	"github.com/crierhq/crier/internal/scheduler"
)

// Server is the HTTP API server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	campaigns  *campaign.Store
	scheduler  *scheduler.Scheduler
	registry   *platform.Registry
	dispatcher *publisher.Dispatcher
	generator  content.Generator
	config     *config.APIConfig
	logger     *slog.Logger
	startTime  time.Time
}

// ServerOptions bundles the server's collaborators. Generator may be
// nil; launches then use the deterministic fallback copy.
type ServerOptions struct {
	Campaigns  *campaign.Store
	Scheduler  *scheduler.Scheduler
	Registry   *platform.Registry
	Dispatcher *publisher.Dispatcher
	Generator  content.Generator
	Config     *config.APIConfig
	Logger     *slog.Logger
}

// NewServer creates a new API server
func NewServer(opts ServerOptions) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		campaigns:  opts.Campaigns,
		scheduler:  opts.Scheduler,
		registry:   opts.Registry,
		dispatcher: opts.Dispatcher,
		generator:  opts.Generator,
		config:     opts.Config,
		logger:     opts.Logger,
		startTime:  time.Now(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	// Middleware
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(metrics.HTTPMiddleware)
	s.router.Use(middleware.Recoverer)

	// Health check (no auth required)
	s.router.Get("/health", s.handleHealth)

	// API v1 routes (auth required)
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/platforms", s.handlePlatforms)

		r.Post("/campaigns", s.handleLaunch)
		r.Get("/campaigns", s.handleListCampaigns)
		r.Get("/campaigns/{id}", s.handleGetCampaign)
		r.Post("/campaigns/{id}/pause", s.handlePause)
		r.Post("/campaigns/{id}/resume", s.handleResume)
		r.Post("/campaigns/{id}/cancel", s.handleCancel)
		r.Get("/campaigns/{id}/schedule", s.handleGetSchedule)
	})
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	s.logger.Info("starting HTTP API server", "addr", s.config.ListenAddr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP API server")
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
