package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Cleaner removes finished jobs past their retention age on a cron
// schedule.
type Cleaner struct {
	storage *BoltStorage
	maxAge  time.Duration
	spec    string
	logger  *slog.Logger
	cron    *cron.Cron
}

// NewCleaner creates a cleaner. The spec uses standard cron syntax,
// descriptors like "@hourly" included.
func NewCleaner(storage *BoltStorage, maxAge time.Duration, spec string, logger *slog.Logger) (*Cleaner, error) {
	c := &Cleaner{
		storage: storage,
		maxAge:  maxAge,
		spec:    spec,
		logger:  logger.With("component", "cleaner"),
		cron:    cron.New(),
	}

	if _, err := c.cron.AddFunc(spec, func() { c.run(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", spec, err)
	}

	return c, nil
}

// Start runs one cleanup immediately, then on the cron schedule
func (c *Cleaner) Start(ctx context.Context) {
	if c.maxAge <= 0 {
		c.logger.Info("cleaner disabled, no retention age")
		return
	}

	c.run(ctx)
	c.cron.Start()
	c.logger.Info("cleaner started", "schedule", c.spec, "max_age", c.maxAge)
}

// Stop stops the cron scheduler and waits for a running cleanup
func (c *Cleaner) Stop() {
	<-c.cron.Stop().Done()
	c.logger.Info("cleaner stopped")
}

func (c *Cleaner) run(ctx context.Context) {
	deleted, err := c.storage.CleanupTerminal(ctx, c.maxAge)
	if err != nil {
		c.logger.Error("failed to cleanup finished jobs", "error", err)
		return
	}

	if deleted > 0 {
		c.logger.Info("cleaned up finished jobs", "deleted", deleted)
	}
}
