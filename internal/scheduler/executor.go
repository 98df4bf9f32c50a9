package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/crierhq/crier/internal/campaign"
	"github.com/crierhq/crier/internal/metrics"
	"github.com/crierhq/crier/internal/publisher"
)

// Dispatcher routes a post to the platform's publisher
type Dispatcher interface {
	Post(ctx context.Context, platform string, post publisher.Post) publisher.Result
}

// ExecutorConfig contains executor configuration
type ExecutorConfig struct {
	Workers        int
	PollInterval   time.Duration
	PublishTimeout time.Duration
}

// Executor runs worker goroutines that claim due jobs and publish
// them. A failing job never affects its siblings.
type Executor struct {
	storage        *BoltStorage
	campaigns      *campaign.Store
	dispatcher     Dispatcher
	workers        int
	pollInterval   time.Duration
	publishTimeout time.Duration
	logger         *slog.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewExecutor creates a new job executor
func NewExecutor(storage *BoltStorage, campaigns *campaign.Store, dispatcher Dispatcher, cfg ExecutorConfig, logger *slog.Logger) *Executor {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = time.Minute
	}

	return &Executor{
		storage:        storage,
		campaigns:      campaigns,
		dispatcher:     dispatcher,
		workers:        cfg.Workers,
		pollInterval:   cfg.PollInterval,
		publishTimeout: cfg.PublishTimeout,
		logger:         logger.With("component", "executor"),
		stopCh:         make(chan struct{}),
	}
}

// Start starts the executor workers
func (e *Executor) Start(ctx context.Context) {
	e.logger.Info("starting executor", "workers", e.workers)

	for i := 0; i < e.workers; i++ {
		e.wg.Add(1)
		go e.worker(ctx, i)
	}
}

// Stop stops the executor gracefully
func (e *Executor) Stop() {
	e.logger.Info("stopping executor")
	close(e.stopCh)
	e.wg.Wait()
	e.logger.Info("executor stopped")
}

// worker is the main processing loop
func (e *Executor) worker(ctx context.Context, id int) {
	defer e.wg.Done()

	logger := e.logger.With("worker_id", id)
	logger.Debug("worker started")

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("worker stopped by context")
			return
		case <-e.stopCh:
			logger.Debug("worker stopped by signal")
			return
		case <-ticker.C:
			e.executeOne(ctx, logger)
		}
	}
}

// executeOne claims and runs a single due job
func (e *Executor) executeOne(ctx context.Context, logger *slog.Logger) {
	job, err := e.storage.ClaimDue(ctx, time.Now())
	if err != nil {
		logger.Error("failed to claim due job", "error", err)
		return
	}
	if job == nil {
		return // Nothing due
	}

	logger = logger.With("job_id", job.ID, "platform", job.Platform)
	logger.Debug("executing job")

	defer func() {
		if r := recover(); r != nil {
			logger.Error("job panicked", "panic", r)
			job.Status = StatusFailed
			job.LastError = fmt.Sprintf("panic: %v", r)
			if err := e.storage.Update(ctx, job); err != nil {
				logger.Error("failed to update job status", "error", err)
			}
			metrics.IncPostsFailed(job.Platform)
		}
	}()

	camp, err := e.campaigns.Get(ctx, job.CampaignID)
	if err != nil {
		logger.Error("failed to load campaign", "error", err)
		job.Status = StatusFailed
		job.LastError = err.Error()
		e.update(ctx, logger, job)
		metrics.IncPostsFailed(job.Platform)
		return
	}

	// A paused campaign swallows the fire without publishing. The
	// slot is gone, resuming does not replay it.
	switch {
	case camp == nil || camp.Status == campaign.StatusCancelled:
		job.Status = StatusCancelled
		e.update(ctx, logger, job)
		logger.Info("job cancelled, campaign inactive")
		return
	case camp.Status == campaign.StatusPaused:
		job.Status = StatusSkipped
		e.update(ctx, logger, job)
		metrics.IncPostsSkipped(job.Platform)
		logger.Info("job skipped, campaign paused")
		return
	}

	publishCtx, cancel := context.WithTimeout(ctx, e.publishTimeout)
	start := time.Now()
	result := e.dispatcher.Post(publishCtx, job.Platform, publisher.Post{
		Content:  job.Content,
		Hashtags: job.Hashtags,
	})
	cancel()
	metrics.ObservePublishDuration(job.Platform, time.Since(start).Seconds())

	if result.Success {
		job.Status = StatusSucceeded
		job.PostID = result.PostID
		job.PostURL = result.URL
		e.update(ctx, logger, job)
		metrics.IncPostsPublished(job.Platform)
		logger.Info("post published", "post_id", result.PostID, "url", result.URL)
		return
	}

	job.Status = StatusFailed
	job.LastError = result.Err
	e.update(ctx, logger, job)
	metrics.IncPostsFailed(job.Platform)
	logger.Warn("post failed", "error", result.Err)
}

func (e *Executor) update(ctx context.Context, logger *slog.Logger, job *Job) {
	if err := e.storage.Update(ctx, job); err != nil {
		logger.Error("failed to update job status", "error", err)
	}
}
