package metrics

import (
	"context"
	"os"
	"runtime"
	"sync"
	"time"
)

// JobStats contains job counts for gauge updates
type JobStats struct {
	Scheduled int64
	Fired     int64
}

// JobStatsProvider provides job statistics for metrics
type JobStatsProvider interface {
	JobStats(ctx context.Context) (*JobStats, error)
}

// CampaignStatsProvider provides campaign statistics for metrics
type CampaignStatsProvider interface {
	CountActive(ctx context.Context) (int64, error)
}

// Collector periodically refreshes gauge metrics from the stores
type Collector struct {
	metrics     *Metrics
	jobs        JobStatsProvider
	campaigns   CampaignStatsProvider
	storagePath string
	interval    time.Duration
	startTime   time.Time

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewCollector creates a new metrics collector
func NewCollector(m *Metrics, jobs JobStatsProvider, campaigns CampaignStatsProvider, storagePath string, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = 10 * time.Second
	}

	return &Collector{
		metrics:     m,
		jobs:        jobs,
		campaigns:   campaigns,
		storagePath: storagePath,
		interval:    interval,
		startTime:   time.Now(),
		stopCh:      make(chan struct{}),
	}
}

// Start begins the gauge update loop
func (c *Collector) Start(ctx context.Context) {
	c.wg.Add(1)
	go c.updateLoop(ctx)
}

// Stop stops the collector
func (c *Collector) Stop() {
	close(c.stopCh)
	c.wg.Wait()
}

func (c *Collector) updateLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Populate gauges immediately on start
	c.update(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.update(ctx)
		}
	}
}

func (c *Collector) update(ctx context.Context) {
	c.metrics.UptimeSeconds.Set(time.Since(c.startTime).Seconds())
	c.metrics.Goroutines.Set(float64(runtime.NumGoroutine()))

	if c.storagePath != "" {
		if info, err := os.Stat(c.storagePath); err == nil {
			c.metrics.StorageUsedBytes.Set(float64(info.Size()))
		}
	}

	if c.jobs != nil {
		if stats, err := c.jobs.JobStats(ctx); err == nil {
			c.metrics.JobsPending.Set(float64(stats.Scheduled))
			c.metrics.JobsInFlight.Set(float64(stats.Fired))
		}
	}

	if c.campaigns != nil {
		if n, err := c.campaigns.CountActive(ctx); err == nil {
			c.metrics.CampaignsActive.Set(float64(n))
		}
	}
}
