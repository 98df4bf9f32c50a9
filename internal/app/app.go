// Package app assembles and runs the service.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crierhq/crier/internal/api"
	"github.com/crierhq/crier/internal/campaign"
	"github.com/crierhq/crier/internal/config"
	"github.com/crierhq/crier/internal/content"
	"github.com/crierhq/crier/internal/metrics"
	"github.com/crierhq/crier/internal/platform"
	"github.com/crierhq/crier/internal/publisher"
	"github.com/crierhq/crier/internal/scheduler"
)

// App is the main application
type App struct {
	config        *config.Config
	storage       *scheduler.BoltStorage
	campaigns     *campaign.Store
	registry      *platform.Registry
	dispatcher    *publisher.Dispatcher
	scheduler     *scheduler.Scheduler
	executor      *scheduler.Executor
	cleaner       *scheduler.Cleaner
	apiServer     *api.Server
	metricsServer *metrics.Server
	collector     *metrics.Collector
	logger        *slog.Logger
}

// New creates a new application
func New(cfg *config.Config) (*App, error) {
	logger := setupLogger(cfg.Logging)

	storage, err := scheduler.NewStorage(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}

	campaigns, err := campaign.NewStore(storage.DB())
	if err != nil {
		storage.Close()
		return nil, fmt.Errorf("failed to create campaign store: %w", err)
	}

	registry := platform.NewRegistry()
	dispatcher := buildDispatcher(cfg, registry, logger)

	var generator content.Generator
	if cfg.Generator.Enabled {
		generator = content.NewLLMGenerator(
			cfg.Generator.BaseURL,
			cfg.Generator.APIKey,
			cfg.Generator.Model,
			cfg.Generator.Timeout,
			logger.With("component", "generator"),
		)
		logger.Info("content generator enabled", "model", cfg.Generator.Model)
	}

	sched := scheduler.New(storage, campaigns, registry, logger)

	executor := scheduler.NewExecutor(storage, campaigns, dispatcher, scheduler.ExecutorConfig{
		Workers:        cfg.Scheduler.Workers,
		PollInterval:   cfg.Scheduler.PollInterval,
		PublishTimeout: cfg.Scheduler.PublishTimeout,
	}, logger)

	cleaner, err := scheduler.NewCleaner(storage, cfg.Scheduler.Retention.MaxAge,
		cfg.Scheduler.Retention.CleanupSchedule, logger)
	if err != nil {
		storage.Close()
		return nil, err
	}

	var metricsServer *metrics.Server
	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		m := metrics.New()
		metrics.SetGlobal(m)
		collector = metrics.NewCollector(m, jobStats{storage}, campaigns,
			cfg.Storage.Path, cfg.Metrics.FlushInterval)
		metricsServer = metrics.NewServer(m, cfg.Metrics.ListenAddr, cfg.Metrics.Path,
			logger.With("component", "metrics"))
	}

	apiServer := api.NewServer(api.ServerOptions{
		Campaigns:  campaigns,
		Scheduler:  sched,
		Registry:   registry,
		Dispatcher: dispatcher,
		Generator:  generator,
		Config:     &cfg.API,
		Logger:     logger.With("component", "api"),
	})

	return &App{
		config:        cfg,
		storage:       storage,
		campaigns:     campaigns,
		registry:      registry,
		dispatcher:    dispatcher,
		scheduler:     sched,
		executor:      executor,
		cleaner:       cleaner,
		apiServer:     apiServer,
		metricsServer: metricsServer,
		collector:     collector,
		logger:        logger,
	}, nil
}

// buildDispatcher registers a publisher per known platform. Real
// clients are used when their credentials are present; everything
// else falls back to the mock.
func buildDispatcher(cfg *config.Config, registry *platform.Registry, logger *slog.Logger) *publisher.Dispatcher {
	d := publisher.NewDispatcher(logger.With("component", "dispatcher"))

	real := map[string]publisher.Publisher{}
	if !cfg.Publisher.Mock {
		if tw := publisher.NewTwitter(logger.With("platform", "x")); tw.Configured() {
			real["x"] = tw
		}
		if li := publisher.NewLinkedIn(logger.With("platform", "linkedin")); li.Configured() {
			real["linkedin"] = li
		}
		if rd := publisher.NewReddit(logger.With("platform", "reddit")); rd.Configured() {
			real["reddit"] = rd
		}
	}

	for _, desc := range registry.All() {
		if p, ok := real[desc.ID]; ok {
			d.Register(p)
			logger.Info("publisher registered", "platform", desc.ID, "mock", false)
			continue
		}
		d.Register(publisher.NewMock(desc.ID))
	}

	return d
}

// Run starts all components and waits for shutdown
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("starting crier",
		"api_addr", a.config.API.ListenAddr,
		"storage", a.config.Storage.Path,
		"workers", a.config.Scheduler.Workers,
	)

	// Create context that listens for signals
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a.executor.Start(ctx)
	a.cleaner.Start(ctx)
	if a.collector != nil {
		a.collector.Start(ctx)
	}

	// Channel to collect errors
	errCh := make(chan error, 2)

	go func() {
		if err := a.apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()

	if a.metricsServer != nil {
		go func() {
			if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.logger.Error("server error", "error", err)
		cancel()
	}

	return a.Shutdown(context.Background())
}

// Shutdown gracefully shuts down all components
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Stop the executor first so no new jobs fire
	a.executor.Stop()
	a.cleaner.Stop()

	if err := a.apiServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("api server shutdown error", "error", err)
	}

	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("metrics server shutdown error", "error", err)
		}
	}

	if a.collector != nil {
		a.collector.Stop()
	}

	if err := a.storage.Close(); err != nil {
		a.logger.Error("storage close error", "error", err)
	}

	a.logger.Info("shutdown complete")
	return nil
}

// jobStats adapts the job storage to the metrics collector
type jobStats struct {
	storage *scheduler.BoltStorage
}

func (j jobStats) JobStats(ctx context.Context) (*metrics.JobStats, error) {
	stats, err := j.storage.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &metrics.JobStats{
		Scheduled: stats.Scheduled,
		Fired:     stats.Fired,
	}, nil
}

// setupLogger creates a logger based on configuration
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
