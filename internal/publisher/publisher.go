package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Post is the payload handed to a platform client at publish time.
type Post struct {
	Content   string
	Hashtags  []string
	Title     string // reddit: submission title, defaults to a content prefix
	Subreddit string // reddit: target community
}

// Result is the normalized outcome of a publish attempt. Failures are
// data, not errors: the scheduler records them as failed job outcomes.
type Result struct {
	Success  bool   `json:"success"`
	Platform string `json:"platform"`
	PostID   string `json:"post_id,omitempty"`
	URL      string `json:"url,omitempty"`
	Err      string `json:"error,omitempty"`
}

// Status describes a registered client for display.
type Status struct {
	Platform      string `json:"platform"`
	Authenticated bool   `json:"authenticated"`
	Mock          bool   `json:"mock,omitempty"`
}

// Publisher is implemented by one client per platform. Clients own
// their credential lifecycle: credentials load at construction,
// authentication happens lazily on first use, and an unauthenticated
// client returns a structured failure rather than an error.
type Publisher interface {
	Platform() string
	Post(ctx context.Context, post Post) Result
	Status() Status
}

func failure(platform, msg string) Result {
	return Result{Success: false, Platform: platform, Err: msg}
}

// Dispatcher routes a publish request to the client registered for the
// platform. Platforms with no client get a not-supported result.
type Dispatcher struct {
	mu         sync.RWMutex
	publishers map[string]Publisher
	logger     *slog.Logger
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		publishers: make(map[string]Publisher),
		logger:     logger,
	}
}

// Register adds or replaces the client for a platform.
func (d *Dispatcher) Register(p Publisher) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.publishers[p.Platform()] = p
}

// Post publishes to the named platform and normalizes the outcome.
func (d *Dispatcher) Post(ctx context.Context, platform string, post Post) Result {
	d.mu.RLock()
	p, ok := d.publishers[platform]
	d.mu.RUnlock()

	if !ok {
		return failure(platform, fmt.Sprintf("platform %s not supported", platform))
	}

	res := p.Post(ctx, post)
	if res.Platform == "" {
		res.Platform = platform
	}

	if res.Success {
		d.logger.Info("post published", "platform", platform, "post_id", res.PostID)
	} else {
		d.logger.Warn("post failed", "platform", platform, "error", res.Err)
	}
	return res
}

// Statuses returns the status of every registered client, sorted by
// platform id.
func (d *Dispatcher) Statuses() []Status {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Status, 0, len(d.publishers))
	for _, p := range d.publishers {
		out = append(out, p.Status())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Platform < out[j].Platform })
	return out
}
