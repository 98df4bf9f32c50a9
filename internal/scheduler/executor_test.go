package scheduler

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/crierhq/crier/internal/campaign"
	"github.com/crierhq/crier/internal/publisher"
)

// mockDispatcher implements Dispatcher for testing
type mockDispatcher struct {
	mu       sync.Mutex
	postFunc func(platform string, post publisher.Post) publisher.Result
	posted   []string
}

func (m *mockDispatcher) Post(ctx context.Context, platform string, post publisher.Post) publisher.Result {
	m.mu.Lock()
	m.posted = append(m.posted, platform)
	m.mu.Unlock()
	if m.postFunc != nil {
		return m.postFunc(platform, post)
	}
	return publisher.Result{Success: true, Platform: platform, PostID: "p1"}
}

func (m *mockDispatcher) postedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.posted)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
}

func testHarness(t *testing.T) (*BoltStorage, *campaign.Store) {
	t.Helper()
	storage := openTestStorage(t)

	campaigns, err := campaign.NewStore(storage.DB())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return storage, campaigns
}

func createCampaign(t *testing.T, campaigns *campaign.Store, id string, status campaign.Status) {
	t.Helper()
	err := campaigns.Create(context.Background(), &campaign.Campaign{
		ID:        id,
		Product:   campaign.Product{Name: "Widget"},
		Platforms: []string{"x"},
		Status:    status,
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestExecutorPublishesDueJob(t *testing.T) {
	storage, campaigns := testHarness(t)
	ctx := context.Background()

	createCampaign(t, campaigns, "camp_1", campaign.StatusActive)
	if err := storage.Put(ctx, newTestJob("camp_1_x_0", "camp_1", time.Now().Add(-time.Second))); err != nil {
		t.Fatal(err)
	}

	dispatcher := &mockDispatcher{}
	e := NewExecutor(storage, campaigns, dispatcher, ExecutorConfig{Workers: 1}, testLogger())

	e.executeOne(ctx, testLogger())

	if dispatcher.postedCount() != 1 {
		t.Fatalf("dispatcher called %d times, want 1", dispatcher.postedCount())
	}

	job, err := storage.Get(ctx, "camp_1_x_0")
	if err != nil {
		t.Fatal(err)
	}
	if job.Status != StatusSucceeded {
		t.Errorf("status = %v, want %v", job.Status, StatusSucceeded)
	}
	if job.PostID != "p1" {
		t.Errorf("post id = %q, want p1", job.PostID)
	}
}

func TestExecutorSkipsPausedCampaign(t *testing.T) {
	storage, campaigns := testHarness(t)
	ctx := context.Background()

	createCampaign(t, campaigns, "camp_1", campaign.StatusPaused)
	if err := storage.Put(ctx, newTestJob("camp_1_x_0", "camp_1", time.Now().Add(-time.Second))); err != nil {
		t.Fatal(err)
	}

	dispatcher := &mockDispatcher{}
	e := NewExecutor(storage, campaigns, dispatcher, ExecutorConfig{Workers: 1}, testLogger())

	e.executeOne(ctx, testLogger())

	// The publisher must never see a paused campaign's job.
	if dispatcher.postedCount() != 0 {
		t.Fatalf("dispatcher called %d times, want 0", dispatcher.postedCount())
	}

	job, err := storage.Get(ctx, "camp_1_x_0")
	if err != nil {
		t.Fatal(err)
	}
	if job.Status != StatusSkipped {
		t.Errorf("status = %v, want %v", job.Status, StatusSkipped)
	}

	// Resuming does not replay the slot.
	if err := campaigns.SetStatus(ctx, "camp_1", campaign.StatusActive); err != nil {
		t.Fatal(err)
	}
	e.executeOne(ctx, testLogger())
	if dispatcher.postedCount() != 0 {
		t.Error("skipped job was replayed after resume")
	}

	// A job due after the resume fires normally.
	if err := storage.Put(ctx, newTestJob("camp_1_x_1", "camp_1", time.Now().Add(-time.Second))); err != nil {
		t.Fatal(err)
	}
	e.executeOne(ctx, testLogger())
	if dispatcher.postedCount() != 1 {
		t.Errorf("dispatcher called %d times after resume, want 1", dispatcher.postedCount())
	}
}

func TestExecutorCancelsJobForCancelledCampaign(t *testing.T) {
	storage, campaigns := testHarness(t)
	ctx := context.Background()

	createCampaign(t, campaigns, "camp_1", campaign.StatusCancelled)
	if err := storage.Put(ctx, newTestJob("camp_1_x_0", "camp_1", time.Now().Add(-time.Second))); err != nil {
		t.Fatal(err)
	}

	dispatcher := &mockDispatcher{}
	e := NewExecutor(storage, campaigns, dispatcher, ExecutorConfig{Workers: 1}, testLogger())

	e.executeOne(ctx, testLogger())

	if dispatcher.postedCount() != 0 {
		t.Fatal("dispatcher called for cancelled campaign")
	}

	job, err := storage.Get(ctx, "camp_1_x_0")
	if err != nil {
		t.Fatal(err)
	}
	if job.Status != StatusCancelled {
		t.Errorf("status = %v, want %v", job.Status, StatusCancelled)
	}
}

func TestExecutorFailureIsolation(t *testing.T) {
	storage, campaigns := testHarness(t)
	ctx := context.Background()

	createCampaign(t, campaigns, "camp_1", campaign.StatusActive)

	a := newTestJob("camp_1_x_0", "camp_1", time.Now().Add(-2*time.Second))
	b := newTestJob("camp_1_linkedin_0", "camp_1", time.Now().Add(-time.Second))
	b.Platform = "linkedin"
	if err := storage.Put(ctx, a); err != nil {
		t.Fatal(err)
	}
	if err := storage.Put(ctx, b); err != nil {
		t.Fatal(err)
	}

	dispatcher := &mockDispatcher{
		postFunc: func(platform string, post publisher.Post) publisher.Result {
			if platform == "x" {
				return publisher.Result{Success: false, Platform: platform, Err: "rate limited"}
			}
			return publisher.Result{Success: true, Platform: platform, PostID: "ln1"}
		},
	}
	e := NewExecutor(storage, campaigns, dispatcher, ExecutorConfig{Workers: 1}, testLogger())

	e.executeOne(ctx, testLogger())
	e.executeOne(ctx, testLogger())

	failed, err := storage.Get(ctx, "camp_1_x_0")
	if err != nil {
		t.Fatal(err)
	}
	if failed.Status != StatusFailed {
		t.Errorf("x job status = %v, want %v", failed.Status, StatusFailed)
	}
	if failed.LastError != "rate limited" {
		t.Errorf("x job error = %q", failed.LastError)
	}

	// The other platform's job is unaffected by the failure.
	ok, err := storage.Get(ctx, "camp_1_linkedin_0")
	if err != nil {
		t.Fatal(err)
	}
	if ok.Status != StatusSucceeded {
		t.Errorf("linkedin job status = %v, want %v", ok.Status, StatusSucceeded)
	}
}

func TestExecutorStartStop(t *testing.T) {
	storage, campaigns := testHarness(t)
	ctx := context.Background()

	createCampaign(t, campaigns, "camp_1", campaign.StatusActive)
	if err := storage.Put(ctx, newTestJob("camp_1_x_0", "camp_1", time.Now().Add(-time.Second))); err != nil {
		t.Fatal(err)
	}

	dispatcher := &mockDispatcher{}
	e := NewExecutor(storage, campaigns, dispatcher, ExecutorConfig{
		Workers:      2,
		PollInterval: 10 * time.Millisecond,
	}, testLogger())

	e.Start(ctx)

	deadline := time.After(2 * time.Second)
	for dispatcher.postedCount() == 0 {
		select {
		case <-deadline:
			e.Stop()
			t.Fatal("job was never executed")
		case <-time.After(10 * time.Millisecond):
		}
	}

	e.Stop()
}
