package scheduler

import (
	"fmt"
	"time"
)

// JobStatus represents the status of a scheduled post job
type JobStatus string

const (
	StatusScheduled JobStatus = "scheduled"
	StatusFired     JobStatus = "fired"
	StatusSucceeded JobStatus = "succeeded"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
	StatusSkipped   JobStatus = "skipped"
)

// Terminal reports whether the status is final.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCancelled, StatusSkipped:
		return true
	}
	return false
}

// Job represents a single platform post awaiting execution
type Job struct {
	ID          string    `json:"id"`
	CampaignID  string    `json:"campaign_id"`
	Platform    string    `json:"platform"`
	Content     string    `json:"content"`
	Hashtags    []string  `json:"hashtags,omitempty"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Status      JobStatus `json:"status"`
	PostID      string    `json:"post_id,omitempty"`
	PostURL     string    `json:"post_url,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// JobID builds the deterministic job identifier. Re-planning a
// campaign produces the same ids, so overwrites replace rather than
// duplicate.
func JobID(campaignID, platform, tag string) string {
	return fmt.Sprintf("%s_%s_%s", campaignID, platform, tag)
}

// Stats represents job store statistics
type Stats struct {
	Scheduled int64 `json:"scheduled"`
	Fired     int64 `json:"fired"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	Cancelled int64 `json:"cancelled"`
	Skipped   int64 `json:"skipped"`
	Total     int64 `json:"total"`
}
