// Package scheduler plans campaign posts onto a durable job store and
// executes them when due.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/crierhq/crier/internal/campaign"
	"github.com/crierhq/crier/internal/metrics"
	"github.com/crierhq/crier/internal/platform"
	"github.com/crierhq/crier/internal/schedule"
)

// Post is the prepared content for one platform, ready to plan.
type Post struct {
	Platform string
	Content  string
	Hashtags []string
}

// Scheduler plans posts into jobs
type Scheduler struct {
	storage   *BoltStorage
	campaigns *campaign.Store
	registry  *platform.Registry
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a scheduler backed by the given job storage
func New(storage *BoltStorage, campaigns *campaign.Store, registry *platform.Registry, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		storage:   storage,
		campaigns: campaigns,
		registry:  registry,
		logger:    logger.With("component", "scheduler"),
		now:       time.Now,
	}
}

// Schedule plans one job per post according to the schedule config and
// persists them. Job ids are deterministic, so planning the same
// campaign again replaces the previous jobs instead of duplicating
// them.
func (s *Scheduler) Schedule(ctx context.Context, campaignID string, posts []Post, cfg schedule.Config) ([]*Job, error) {
	camp, err := s.campaigns.Get(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}
	if camp == nil {
		return nil, fmt.Errorf("campaign not found: %s", campaignID)
	}

	platforms := make([]string, len(posts))
	for i, p := range posts {
		platforms[i] = p.Platform
	}

	slots, err := schedule.Plan(s.registry, s.now(), platforms, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to plan schedule: %w", err)
	}

	now := s.now()
	jobs := make([]*Job, 0, len(slots))
	for i, slot := range slots {
		job := &Job{
			ID:          JobID(campaignID, slot.Platform, slot.Tag),
			CampaignID:  campaignID,
			Platform:    slot.Platform,
			Content:     posts[i].Content,
			Hashtags:    posts[i].Hashtags,
			ScheduledAt: slot.At,
			Status:      StatusScheduled,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := s.storage.Put(ctx, job); err != nil {
			return nil, fmt.Errorf("failed to store job %s: %w", job.ID, err)
		}

		metrics.IncJobsScheduled(job.Platform)
		s.logger.Info("job scheduled",
			"job_id", job.ID,
			"campaign_id", campaignID,
			"platform", job.Platform,
			"scheduled_at", job.ScheduledAt,
		)
		jobs = append(jobs, job)
	}

	return jobs, nil
}

// CancelCampaign removes all of a campaign's jobs. Returns false when
// the campaign had none registered.
func (s *Scheduler) CancelCampaign(ctx context.Context, campaignID string) (bool, error) {
	removed, err := s.storage.CancelCampaign(ctx, campaignID)
	if err != nil {
		return false, fmt.Errorf("failed to cancel campaign jobs: %w", err)
	}

	if removed > 0 {
		s.logger.Info("campaign jobs cancelled", "campaign_id", campaignID, "jobs", removed)
	}
	return removed > 0, nil
}

// GetSchedule returns a campaign's jobs ordered by scheduled time
func (s *Scheduler) GetSchedule(ctx context.Context, campaignID string) ([]*Job, error) {
	return s.storage.ListByCampaign(ctx, campaignID)
}

// Stats returns job store statistics
func (s *Scheduler) Stats(ctx context.Context) (*Stats, error) {
	return s.storage.Stats(ctx)
}
