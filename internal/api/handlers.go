package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/crierhq/crier/internal/campaign"
	"github.com/crierhq/crier/internal/content"
	"github.com/crierhq/crier/internal/platform"
	"github.com/crierhq/crier/internal/publisher"
	"github.com/crierhq/crier/internal/schedule"
	"github.com/crierhq/crier/internal/scheduler"
)

const version = "0.1.0"

// LaunchRequest is the request body for POST /campaigns
type LaunchRequest struct {
	Product   campaign.Product `json:"product"`
	Assets    []string         `json:"assets,omitempty"`
	Platforms []string         `json:"platforms"`
	Schedule  *ScheduleRequest `json:"schedule,omitempty"`
}

// ScheduleRequest selects and parameterizes the scheduling policy
type ScheduleRequest struct {
	Type           string      `json:"type,omitempty"`
	StaggerSeconds int         `json:"stagger_seconds,omitempty"`
	Start          *time.Time  `json:"start,omitempty"`
	IntervalHours  float64     `json:"interval_hours,omitempty"`
	Times          []time.Time `json:"times,omitempty"`
}

func (r *ScheduleRequest) toConfig() schedule.Config {
	if r == nil {
		return schedule.Config{}
	}

	cfg := schedule.Config{
		Policy: schedule.Policy(r.Type),
		Times:  r.Times,
	}
	if r.StaggerSeconds > 0 {
		cfg.Stagger = time.Duration(r.StaggerSeconds) * time.Second
	}
	if r.Start != nil {
		cfg.Start = *r.Start
	}
	if r.IntervalHours > 0 {
		cfg.Interval = time.Duration(r.IntervalHours * float64(time.Hour))
	}
	return cfg
}

// JobSummary is a summary of a scheduled job
type JobSummary struct {
	ID          string    `json:"id"`
	Platform    string    `json:"platform"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Status      string    `json:"status"`
	PostID      string    `json:"post_id,omitempty"`
	PostURL     string    `json:"post_url,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
}

func summarize(jobs []*scheduler.Job) []JobSummary {
	summaries := make([]JobSummary, len(jobs))
	for i, job := range jobs {
		summaries[i] = JobSummary{
			ID:          job.ID,
			Platform:    job.Platform,
			ScheduledAt: job.ScheduledAt,
			Status:      string(job.Status),
			PostID:      job.PostID,
			PostURL:     job.PostURL,
			LastError:   job.LastError,
		}
	}
	return summaries
}

// LaunchResponse is the response for POST /campaigns
type LaunchResponse struct {
	CampaignID string       `json:"campaign_id"`
	Status     string       `json:"status"`
	Jobs       []JobSummary `json:"jobs"`
}

// CampaignResponse is the response for GET /campaigns/{id}
type CampaignResponse struct {
	ID        string           `json:"id"`
	Product   campaign.Product `json:"product"`
	Assets    []string         `json:"assets,omitempty"`
	Platforms []string         `json:"platforms"`
	Status    string           `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
}

// CampaignListResponse is the response for GET /campaigns
type CampaignListResponse struct {
	Campaigns []CampaignResponse `json:"campaigns"`
	Total     int                `json:"total"`
}

// ScheduleResponse is the response for GET /campaigns/{id}/schedule
type ScheduleResponse struct {
	CampaignID string       `json:"campaign_id"`
	Jobs       []JobSummary `json:"jobs"`
}

// CancelResponse is the response for POST /campaigns/{id}/cancel
type CancelResponse struct {
	CampaignID  string `json:"campaign_id"`
	Status      string `json:"status"`
	JobsRemoved bool   `json:"jobs_removed"`
}

// PlatformStatus combines a registry descriptor with publisher state
type PlatformStatus struct {
	platform.Descriptor
	Authenticated bool `json:"authenticated"`
	Mock          bool `json:"mock"`
}

// HealthResponse is the response for GET /health
type HealthResponse struct {
	Status  string           `json:"status"`
	Version string           `json:"version"`
	Uptime  string           `json:"uptime"`
	Jobs    *scheduler.Stats `json:"jobs"`
}

// ErrorResponse is the error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleLaunch handles POST /api/v1/campaigns
func (s *Server) handleLaunch(w http.ResponseWriter, r *http.Request) {
	var req LaunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Product.Name == "" {
		s.sendError(w, http.StatusBadRequest, "product.name is required")
		return
	}
	if req.Schedule != nil && !schedule.ValidPolicy(schedule.Policy(req.Schedule.Type)) {
		s.sendError(w, http.StatusBadRequest, "unknown schedule type: "+req.Schedule.Type)
		return
	}

	camp := &campaign.Campaign{
		ID:        campaign.NewID(),
		Product:   req.Product,
		Assets:    req.Assets,
		Platforms: req.Platforms,
		Status:    campaign.StatusActive,
		CreatedAt: time.Now(),
	}
	if err := s.campaigns.Create(r.Context(), camp); err != nil {
		s.logger.Error("failed to create campaign", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to create campaign")
		return
	}

	// Prepare content per platform, degrading to the template copy
	// when generation is unavailable or fails.
	posts := make([]scheduler.Post, 0, len(req.Platforms))
	for _, id := range req.Platforms {
		if !s.registry.Known(id) {
			s.logger.Warn("unknown platform, using default descriptor",
				"campaign_id", camp.ID,
				"platform", id,
			)
		}
		desc := s.registry.Describe(id)

		var post *content.GeneratedPost
		if s.generator != nil {
			generated, err := s.generator.Generate(r.Context(), desc, req.Product)
			if err != nil {
				s.logger.Warn("content generation failed, using fallback",
					"campaign_id", camp.ID,
					"platform", id,
					"error", err,
				)
			} else {
				post = generated
			}
		}
		if post == nil {
			post = content.Fallback(desc, req.Product)
		}

		posts = append(posts, scheduler.Post{
			Platform: id,
			Content:  post.Content,
			Hashtags: post.Hashtags,
		})
	}

	jobs, err := s.scheduler.Schedule(r.Context(), camp.ID, posts, req.Schedule.toConfig())
	if err != nil {
		s.logger.Error("failed to schedule campaign", "campaign_id", camp.ID, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to schedule campaign")
		return
	}

	s.logger.Info("campaign launched",
		"campaign_id", camp.ID,
		"product", req.Product.Name,
		"platforms", req.Platforms,
		"jobs", len(jobs),
	)

	s.sendJSON(w, http.StatusAccepted, LaunchResponse{
		CampaignID: camp.ID,
		Status:     string(camp.Status),
		Jobs:       summarize(jobs),
	})
}

// handleGetCampaign handles GET /api/v1/campaigns/{id}
func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	camp := s.loadCampaign(w, r)
	if camp == nil {
		return
	}

	s.sendJSON(w, http.StatusOK, campaignResponse(camp))
}

func campaignResponse(camp *campaign.Campaign) CampaignResponse {
	return CampaignResponse{
		ID:        camp.ID,
		Product:   camp.Product,
		Assets:    camp.Assets,
		Platforms: camp.Platforms,
		Status:    string(camp.Status),
		CreatedAt: camp.CreatedAt,
	}
}

func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	list, err := s.campaigns.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list campaigns", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to list campaigns")
		return
	}

	resp := CampaignListResponse{Campaigns: make([]CampaignResponse, 0, len(list)), Total: len(list)}
	for _, camp := range list {
		resp.Campaigns = append(resp.Campaigns, campaignResponse(camp))
	}
	s.sendJSON(w, http.StatusOK, resp)
}

// handlePause handles POST /api/v1/campaigns/{id}/pause
func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	camp := s.loadCampaign(w, r)
	if camp == nil {
		return
	}
	if camp.Status == campaign.StatusCancelled {
		s.sendError(w, http.StatusConflict, "Campaign is cancelled")
		return
	}

	if err := s.campaigns.SetStatus(r.Context(), camp.ID, campaign.StatusPaused); err != nil {
		s.logger.Error("failed to pause campaign", "campaign_id", camp.ID, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to pause campaign")
		return
	}

	s.logger.Info("campaign paused", "campaign_id", camp.ID)
	s.sendJSON(w, http.StatusOK, map[string]string{
		"campaign_id": camp.ID,
		"status":      string(campaign.StatusPaused),
	})
}

// handleResume handles POST /api/v1/campaigns/{id}/resume
func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	camp := s.loadCampaign(w, r)
	if camp == nil {
		return
	}
	if camp.Status == campaign.StatusCancelled {
		s.sendError(w, http.StatusConflict, "Campaign is cancelled")
		return
	}

	if err := s.campaigns.SetStatus(r.Context(), camp.ID, campaign.StatusActive); err != nil {
		s.logger.Error("failed to resume campaign", "campaign_id", camp.ID, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to resume campaign")
		return
	}

	s.logger.Info("campaign resumed", "campaign_id", camp.ID)
	s.sendJSON(w, http.StatusOK, map[string]string{
		"campaign_id": camp.ID,
		"status":      string(campaign.StatusActive),
	})
}

// handleCancel handles POST /api/v1/campaigns/{id}/cancel
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	camp := s.loadCampaign(w, r)
	if camp == nil {
		return
	}

	removed, err := s.scheduler.CancelCampaign(r.Context(), camp.ID)
	if err != nil {
		s.logger.Error("failed to cancel campaign jobs", "campaign_id", camp.ID, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to cancel campaign")
		return
	}

	if err := s.campaigns.SetStatus(r.Context(), camp.ID, campaign.StatusCancelled); err != nil {
		s.logger.Error("failed to mark campaign cancelled", "campaign_id", camp.ID, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to cancel campaign")
		return
	}

	s.logger.Info("campaign cancelled", "campaign_id", camp.ID, "jobs_removed", removed)
	s.sendJSON(w, http.StatusOK, CancelResponse{
		CampaignID:  camp.ID,
		Status:      string(campaign.StatusCancelled),
		JobsRemoved: removed,
	})
}

// handleGetSchedule handles GET /api/v1/campaigns/{id}/schedule
func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	camp := s.loadCampaign(w, r)
	if camp == nil {
		return
	}

	jobs, err := s.scheduler.GetSchedule(r.Context(), camp.ID)
	if err != nil {
		s.logger.Error("failed to list schedule", "campaign_id", camp.ID, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to list schedule")
		return
	}

	s.sendJSON(w, http.StatusOK, ScheduleResponse{
		CampaignID: camp.ID,
		Jobs:       summarize(jobs),
	})
}

// handlePlatforms handles GET /api/v1/platforms
func (s *Server) handlePlatforms(w http.ResponseWriter, r *http.Request) {
	statuses := make(map[string]publisher.Status)
	if s.dispatcher != nil {
		for _, st := range s.dispatcher.Statuses() {
			statuses[st.Platform] = st
		}
	}

	out := make([]PlatformStatus, 0)
	for _, desc := range s.registry.All() {
		st := statuses[desc.ID]
		out = append(out, PlatformStatus{
			Descriptor:    desc,
			Authenticated: st.Authenticated,
			Mock:          st.Mock,
		})
	}

	s.sendJSON(w, http.StatusOK, out)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats, _ := s.scheduler.Stats(r.Context())

	s.sendJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: version,
		Uptime:  time.Since(s.startTime).String(),
		Jobs:    stats,
	})
}

// loadCampaign resolves the {id} URL param, writing the error response
// itself when the campaign cannot be served.
func (s *Server) loadCampaign(w http.ResponseWriter, r *http.Request) *campaign.Campaign {
	id := chi.URLParam(r, "id")
	if id == "" {
		s.sendError(w, http.StatusBadRequest, "id is required")
		return nil
	}

	camp, err := s.campaigns.Get(r.Context(), id)
	if err != nil {
		s.logger.Error("failed to get campaign", "campaign_id", id, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to get campaign")
		return nil
	}
	if camp == nil {
		s.sendError(w, http.StatusNotFound, "Campaign not found")
		return nil
	}

	return camp
}

// sendJSON sends a JSON response
func (s *Server) sendJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// sendError sends an error response
func (s *Server) sendError(w http.ResponseWriter, status int, message string) {
	s.sendJSON(w, status, ErrorResponse{Error: message})
}
