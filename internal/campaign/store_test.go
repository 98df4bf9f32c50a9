package campaign

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"
)

func openTestDB(t *testing.T) *bolt.DB {
	t.Helper()

	db, err := bolt.Open(filepath.Join(t.TempDir(), "crier.db"), 0600, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStoreCreateGet(t *testing.T) {
	store, err := NewStore(openTestDB(t))
	if err != nil {
		t.Fatal(err)
	}

	camp := &Campaign{
		ID:        NewID(),
		Product:   Product{Name: "Fizz Cola", Description: "A fizzy drink"},
		Platforms: []string{"x", "linkedin"},
		Status:    StatusActive,
		CreatedAt: time.Now(),
	}
	if err := store.Create(context.Background(), camp); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(context.Background(), camp.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("Get returned nil for existing campaign")
	}
	if got.Product.Name != "Fizz Cola" {
		t.Errorf("Product.Name = %q, want %q", got.Product.Name, "Fizz Cola")
	}
	if got.Status != StatusActive {
		t.Errorf("Status = %s, want active", got.Status)
	}
	if len(got.Platforms) != 2 {
		t.Errorf("len(Platforms) = %d, want 2", len(got.Platforms))
	}
}

func TestStoreGetUnknown(t *testing.T) {
	store, err := NewStore(openTestDB(t))
	if err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(context.Background(), "camp_missing")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("Get(unknown) = %+v, want nil", got)
	}
}

func TestStoreSetStatus(t *testing.T) {
	store, err := NewStore(openTestDB(t))
	if err != nil {
		t.Fatal(err)
	}

	camp := &Campaign{ID: NewID(), Status: StatusActive, CreatedAt: time.Now()}
	if err := store.Create(context.Background(), camp); err != nil {
		t.Fatal(err)
	}

	if err := store.SetStatus(context.Background(), camp.ID, StatusPaused); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(context.Background(), camp.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusPaused {
		t.Errorf("Status = %s, want paused", got.Status)
	}

	if err := store.SetStatus(context.Background(), "camp_missing", StatusPaused); err != ErrNotFound {
		t.Errorf("SetStatus(unknown) = %v, want ErrNotFound", err)
	}
}

func TestStoreCountActive(t *testing.T) {
	store, err := NewStore(openTestDB(t))
	if err != nil {
		t.Fatal(err)
	}

	for _, status := range []Status{StatusActive, StatusActive, StatusPaused, StatusCancelled} {
		c := &Campaign{ID: NewID(), Status: status, CreatedAt: time.Now()}
		if err := store.Create(context.Background(), c); err != nil {
			t.Fatal(err)
		}
	}

	count, err := store.CountActive(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("CountActive = %d, want 2", count)
	}
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewID()
		if seen[id] {
			t.Fatalf("duplicate campaign id %q", id)
		}
		seen[id] = true
	}
}
