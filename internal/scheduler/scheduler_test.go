package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/crierhq/crier/internal/campaign"
	"github.com/crierhq/crier/internal/platform"
	"github.com/crierhq/crier/internal/schedule"
)

func newTestScheduler(t *testing.T) (*Scheduler, *BoltStorage, *campaign.Store) {
	t.Helper()
	storage, campaigns := testHarness(t)
	s := New(storage, campaigns, platform.NewRegistry(), testLogger())
	return s, storage, campaigns
}

func TestSchedulerSchedule(t *testing.T) {
	s, _, campaigns := newTestScheduler(t)
	ctx := context.Background()

	createCampaign(t, campaigns, "camp_1", campaign.StatusActive)

	posts := []Post{
		{Platform: "x", Content: "first", Hashtags: []string{"go"}},
		{Platform: "linkedin", Content: "second"},
	}
	jobs, err := s.Schedule(ctx, "camp_1", posts, schedule.Config{Policy: schedule.PolicyImmediate})
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs, want 2", len(jobs))
	}

	if jobs[0].ID != "camp_1_x_0" {
		t.Errorf("jobs[0].ID = %q", jobs[0].ID)
	}
	if jobs[1].ID != "camp_1_linkedin_1" {
		t.Errorf("jobs[1].ID = %q", jobs[1].ID)
	}
	if jobs[0].Content != "first" || jobs[1].Content != "second" {
		t.Errorf("content mismatch: %q, %q", jobs[0].Content, jobs[1].Content)
	}

	// Immediate policy staggers the second platform.
	gap := jobs[1].ScheduledAt.Sub(jobs[0].ScheduledAt)
	if gap != schedule.DefaultStagger {
		t.Errorf("stagger = %v, want %v", gap, schedule.DefaultStagger)
	}

	listed, err := s.GetSchedule(ctx, "camp_1")
	if err != nil {
		t.Fatal(err)
	}
	if len(listed) != 2 {
		t.Errorf("GetSchedule() returned %d jobs", len(listed))
	}
}

func TestSchedulerScheduleUnknownCampaign(t *testing.T) {
	s, _, _ := newTestScheduler(t)

	_, err := s.Schedule(context.Background(), "camp_missing", []Post{{Platform: "x", Content: "hi"}}, schedule.Config{})
	if err == nil {
		t.Fatal("expected error for unknown campaign")
	}
}

func TestSchedulerRescheduleReplacesJobs(t *testing.T) {
	s, _, campaigns := newTestScheduler(t)
	ctx := context.Background()

	createCampaign(t, campaigns, "camp_1", campaign.StatusActive)

	posts := []Post{{Platform: "x", Content: "v1"}}
	if _, err := s.Schedule(ctx, "camp_1", posts, schedule.Config{Policy: schedule.PolicyImmediate}); err != nil {
		t.Fatal(err)
	}

	posts[0].Content = "v2"
	if _, err := s.Schedule(ctx, "camp_1", posts, schedule.Config{Policy: schedule.PolicyImmediate}); err != nil {
		t.Fatal(err)
	}

	jobs, err := s.GetSchedule(ctx, "camp_1")
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 1 {
		t.Fatalf("got %d jobs after reschedule, want 1", len(jobs))
	}
	if jobs[0].Content != "v2" {
		t.Errorf("content = %q, want v2", jobs[0].Content)
	}
}

func TestSchedulerCancelCampaign(t *testing.T) {
	s, _, campaigns := newTestScheduler(t)
	ctx := context.Background()

	createCampaign(t, campaigns, "camp_1", campaign.StatusActive)
	if _, err := s.Schedule(ctx, "camp_1", []Post{{Platform: "x", Content: "hi"}}, schedule.Config{Policy: schedule.PolicyImmediate}); err != nil {
		t.Fatal(err)
	}

	found, err := s.CancelCampaign(ctx, "camp_1")
	if err != nil {
		t.Fatalf("CancelCampaign() error = %v", err)
	}
	if !found {
		t.Error("CancelCampaign() = false, want true")
	}

	jobs, err := s.GetSchedule(ctx, "camp_1")
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 0 {
		t.Errorf("cancelled campaign still has %d jobs", len(jobs))
	}

	// Second cancel has nothing to remove.
	found, err = s.CancelCampaign(ctx, "camp_1")
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Error("second CancelCampaign() = true, want false")
	}
}

func TestCleanerRun(t *testing.T) {
	storage := openTestStorage(t)
	ctx := context.Background()

	old := newTestJob("camp_1_x_0", "camp_1", time.Now().Add(-72*time.Hour))
	old.Status = StatusSucceeded
	old.UpdatedAt = time.Now().Add(-72 * time.Hour)
	if err := storage.Put(ctx, old); err != nil {
		t.Fatal(err)
	}

	c, err := NewCleaner(storage, 24*time.Hour, "@hourly", testLogger())
	if err != nil {
		t.Fatalf("NewCleaner() error = %v", err)
	}

	c.run(ctx)

	got, err := storage.Get(ctx, "camp_1_x_0")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Error("expired job was not cleaned up")
	}
}

func TestNewCleanerRejectsBadSpec(t *testing.T) {
	storage := openTestStorage(t)

	if _, err := NewCleaner(storage, time.Hour, "not a cron spec", testLogger()); err == nil {
		t.Fatal("expected error for invalid spec")
	}
}
