package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	globalMetrics *Metrics
	globalMu      sync.RWMutex
)

// Metrics holds all Prometheus metrics for Crier
type Metrics struct {
	// Post counters
	JobsScheduledTotal  *prometheus.CounterVec
	PostsPublishedTotal *prometheus.CounterVec
	PostsFailedTotal    *prometheus.CounterVec
	PostsSkippedTotal   *prometheus.CounterVec

	// Publish timing
	PublishDurationSeconds *prometheus.HistogramVec

	// Job and campaign gauges
	JobsPending     prometheus.Gauge
	JobsInFlight    prometheus.Gauge
	CampaignsActive prometheus.Gauge

	// API metrics
	APIRequestsTotal          *prometheus.CounterVec
	APIRequestDurationSeconds *prometheus.HistogramVec
	APIErrorsTotal            *prometheus.CounterVec

	// System metrics
	UptimeSeconds    prometheus.Gauge
	Goroutines       prometheus.Gauge
	StorageUsedBytes prometheus.Gauge

	registry *prometheus.Registry
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		// Post counters
		JobsScheduledTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crier_jobs_scheduled_total",
				Help: "Total number of post jobs scheduled",
			},
			[]string{"platform"},
		),
		PostsPublishedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crier_posts_published_total",
				Help: "Total number of successfully published posts",
			},
			[]string{"platform"},
		),
		PostsFailedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crier_posts_failed_total",
				Help: "Total number of failed post attempts",
			},
			[]string{"platform"},
		),
		PostsSkippedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crier_posts_skipped_total",
				Help: "Total number of posts skipped because the campaign was paused",
			},
			[]string{"platform"},
		),

		// Publish timing
		PublishDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crier_publish_duration_seconds",
				Help:    "Time spent publishing a post",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"platform"},
		),

		// Job and campaign gauges
		JobsPending: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "crier_jobs_pending",
				Help: "Number of jobs waiting for their scheduled time",
			},
		),
		JobsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "crier_jobs_in_flight",
				Help: "Number of jobs currently being published",
			},
		),
		CampaignsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "crier_campaigns_active",
				Help: "Number of campaigns in active status",
			},
		),

		// API metrics
		APIRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crier_api_requests_total",
				Help: "Total number of API requests",
			},
			[]string{"method", "path", "status"},
		),
		APIRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crier_api_request_duration_seconds",
				Help:    "API request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		APIErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crier_api_errors_total",
				Help: "Total number of API errors",
			},
			[]string{"error_type"},
		),

		// System metrics
		UptimeSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "crier_uptime_seconds",
				Help: "Server uptime in seconds",
			},
		),
		Goroutines: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "crier_goroutines",
				Help: "Number of active goroutines",
			},
		),
		StorageUsedBytes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "crier_storage_used_bytes",
				Help: "BoltDB file size in bytes",
			},
		),

		registry: reg,
	}

	// Register all metrics
	reg.MustRegister(
		m.JobsScheduledTotal,
		m.PostsPublishedTotal,
		m.PostsFailedTotal,
		m.PostsSkippedTotal,
		m.PublishDurationSeconds,
		m.JobsPending,
		m.JobsInFlight,
		m.CampaignsActive,
		m.APIRequestsTotal,
		m.APIRequestDurationSeconds,
		m.APIErrorsTotal,
		m.UptimeSeconds,
		m.Goroutines,
		m.StorageUsedBytes,
	)

	return m
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// SetGlobal sets the global metrics instance
func SetGlobal(m *Metrics) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalMetrics = m
}

// Global returns the global metrics instance
func Global() *Metrics {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalMetrics
}

// IncJobsScheduled increments the scheduled job counter
func IncJobsScheduled(platform string) {
	m := Global()
	if m != nil {
		m.JobsScheduledTotal.WithLabelValues(platform).Inc()
	}
}

// IncPostsPublished increments the published post counter
func IncPostsPublished(platform string) {
	m := Global()
	if m != nil {
		m.PostsPublishedTotal.WithLabelValues(platform).Inc()
	}
}

// IncPostsFailed increments the failed post counter
func IncPostsFailed(platform string) {
	m := Global()
	if m != nil {
		m.PostsFailedTotal.WithLabelValues(platform).Inc()
	}
}

// IncPostsSkipped increments the skipped post counter
func IncPostsSkipped(platform string) {
	m := Global()
	if m != nil {
		m.PostsSkippedTotal.WithLabelValues(platform).Inc()
	}
}

// ObservePublishDuration records a publish attempt duration
func ObservePublishDuration(platform string, seconds float64) {
	m := Global()
	if m != nil {
		m.PublishDurationSeconds.WithLabelValues(platform).Observe(seconds)
	}
}
