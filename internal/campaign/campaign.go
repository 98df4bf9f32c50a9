package campaign

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a campaign.
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCancelled Status = "cancelled"
)

// Product describes what a campaign is marketing.
type Product struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Audience    string `json:"audience,omitempty"`
	Style       string `json:"style,omitempty"`
}

// Campaign is one marketing push: a product, its creative assets and
// the platforms it targets. Status is mutated only by explicit
// pause/resume/cancel calls.
type Campaign struct {
	ID        string    `json:"id"`
	Product   Product   `json:"product"`
	Assets    []string  `json:"assets,omitempty"`
	Platforms []string  `json:"platforms"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// NewID generates a unique campaign id.
func NewID() string {
	return "camp_" + uuid.New().String()
}
