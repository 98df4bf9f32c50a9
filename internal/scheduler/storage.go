package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketJobs       = []byte("jobs")
	bucketDue        = []byte("due")
	bucketByCampaign = []byte("by_campaign")
)

// BoltStorage persists jobs in BoltDB. The due bucket is a
// time-ordered index so claiming due jobs is a prefix scan.
type BoltStorage struct {
	db *bolt.DB
}

// NewStorage opens (or creates) the job database at path
func NewStorage(path string) (*BoltStorage, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketJobs, bucketDue, bucketByCampaign} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStorage{db: db}, nil
}

// Put stores a job and maintains its indexes. Writing an existing id
// replaces the record and removes the stale due entry, which is what
// makes re-scheduling a campaign idempotent.
func (s *BoltStorage) Put(ctx context.Context, job *Job) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		jobBucket := tx.Bucket(bucketJobs)
		dueBucket := tx.Bucket(bucketDue)

		// Drop the old due index entry if the job already exists
		if old := jobBucket.Get([]byte(job.ID)); old != nil {
			var prev Job
			if err := json.Unmarshal(old, &prev); err == nil {
				dueBucket.Delete(makeIndexKey(prev.ScheduledAt, prev.ID))
			}
		}

		data, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("failed to marshal job: %w", err)
		}
		if err := jobBucket.Put([]byte(job.ID), data); err != nil {
			return fmt.Errorf("failed to store job: %w", err)
		}

		// Only scheduled jobs wait in the due index
		if job.Status == StatusScheduled {
			indexKey := makeIndexKey(job.ScheduledAt, job.ID)
			if err := dueBucket.Put(indexKey, []byte(job.ID)); err != nil {
				return fmt.Errorf("failed to add to due index: %w", err)
			}
		}

		campaignBucket := tx.Bucket(bucketByCampaign)
		campaignKey := []byte(job.CampaignID + "/" + job.ID)
		if err := campaignBucket.Put(campaignKey, []byte(job.ID)); err != nil {
			return fmt.Errorf("failed to add to campaign index: %w", err)
		}

		return nil
	})
}

// ClaimDue atomically takes the next job whose scheduled time has
// passed, marking it fired so no other worker picks it up. Returns
// nil when nothing is due.
func (s *BoltStorage) ClaimDue(ctx context.Context, now time.Time) (*Job, error) {
	var job *Job

	err := s.db.Update(func(tx *bolt.Tx) error {
		dueBucket := tx.Bucket(bucketDue)
		jobBucket := tx.Bucket(bucketJobs)

		c := dueBucket.Cursor()

		for k, v := c.First(); k != nil; k, v = c.Next() {
			ts := parseTimestampFromKey(k)
			if ts.After(now) {
				break // All remaining are in the future
			}

			jobData := jobBucket.Get(v)
			if jobData == nil {
				// Job was deleted, clean up index
				c.Delete()
				continue
			}

			var j Job
			if err := json.Unmarshal(jobData, &j); err != nil {
				c.Delete()
				continue
			}
			if j.Status != StatusScheduled {
				// Stale index entry
				c.Delete()
				continue
			}

			j.Status = StatusFired
			j.UpdatedAt = now

			data, err := json.Marshal(&j)
			if err != nil {
				return err
			}
			if err := jobBucket.Put([]byte(j.ID), data); err != nil {
				return err
			}
			if err := c.Delete(); err != nil {
				return err
			}

			job = &j
			return nil
		}

		return nil
	})

	return job, err
}

// Update writes the job's current state. A job deleted by a campaign
// cancel while in flight is left deleted.
func (s *BoltStorage) Update(ctx context.Context, job *Job) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		jobBucket := tx.Bucket(bucketJobs)

		if jobBucket.Get([]byte(job.ID)) == nil {
			return nil
		}

		job.UpdatedAt = time.Now()

		data, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("failed to marshal job: %w", err)
		}
		if err := jobBucket.Put([]byte(job.ID), data); err != nil {
			return fmt.Errorf("failed to update job: %w", err)
		}

		return nil
	})
}

// Get retrieves a job by ID
func (s *BoltStorage) Get(ctx context.Context, id string) (*Job, error) {
	var job *Job

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketJobs).Get([]byte(id))
		if data == nil {
			return nil
		}

		job = &Job{}
		return json.Unmarshal(data, job)
	})

	return job, err
}

// ListByCampaign returns a campaign's jobs ordered by scheduled time
func (s *BoltStorage) ListByCampaign(ctx context.Context, campaignID string) ([]*Job, error) {
	var jobs []*Job

	err := s.db.View(func(tx *bolt.Tx) error {
		campaignBucket := tx.Bucket(bucketByCampaign)
		jobBucket := tx.Bucket(bucketJobs)

		prefix := []byte(campaignID + "/")
		c := campaignBucket.Cursor()

		for k, v := c.Seek(prefix); k != nil && strings.HasPrefix(string(k), string(prefix)); k, v = c.Next() {
			jobData := jobBucket.Get(v)
			if jobData == nil {
				continue
			}

			var job Job
			if err := json.Unmarshal(jobData, &job); err != nil {
				continue
			}
			jobs = append(jobs, &job)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].ScheduledAt.Equal(jobs[j].ScheduledAt) {
			return jobs[i].ID < jobs[j].ID
		}
		return jobs[i].ScheduledAt.Before(jobs[j].ScheduledAt)
	})

	return jobs, nil
}

// CancelCampaign removes every job belonging to the campaign and
// reports whether any were registered.
func (s *BoltStorage) CancelCampaign(ctx context.Context, campaignID string) (int, error) {
	removed := 0

	err := s.db.Update(func(tx *bolt.Tx) error {
		campaignBucket := tx.Bucket(bucketByCampaign)
		jobBucket := tx.Bucket(bucketJobs)
		dueBucket := tx.Bucket(bucketDue)

		prefix := []byte(campaignID + "/")
		c := campaignBucket.Cursor()

		var indexKeys [][]byte
		var jobIDs [][]byte

		for k, v := c.Seek(prefix); k != nil && strings.HasPrefix(string(k), string(prefix)); k, v = c.Next() {
			indexKeys = append(indexKeys, append([]byte{}, k...))
			jobIDs = append(jobIDs, append([]byte{}, v...))
		}

		for i, id := range jobIDs {
			if data := jobBucket.Get(id); data != nil {
				var job Job
				if err := json.Unmarshal(data, &job); err == nil {
					dueBucket.Delete(makeIndexKey(job.ScheduledAt, job.ID))
				}
				if err := jobBucket.Delete(id); err != nil {
					return err
				}
				removed++
			}
			if err := campaignBucket.Delete(indexKeys[i]); err != nil {
				return err
			}
		}

		return nil
	})

	return removed, err
}

// Stats returns job statistics
func (s *BoltStorage) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketJobs).Cursor()

		for k, v := c.First(); k != nil; k, v = c.Next() {
			var job Job
			if err := json.Unmarshal(v, &job); err != nil {
				continue
			}

			stats.Total++
			switch job.Status {
			case StatusScheduled:
				stats.Scheduled++
			case StatusFired:
				stats.Fired++
			case StatusSucceeded:
				stats.Succeeded++
			case StatusFailed:
				stats.Failed++
			case StatusCancelled:
				stats.Cancelled++
			case StatusSkipped:
				stats.Skipped++
			}
		}

		return nil
	})

	return stats, err
}

// CleanupTerminal removes finished jobs older than maxAge
func (s *BoltStorage) CleanupTerminal(ctx context.Context, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}

	cutoff := time.Now().Add(-maxAge)
	deleted := 0

	err := s.db.Update(func(tx *bolt.Tx) error {
		jobBucket := tx.Bucket(bucketJobs)
		campaignBucket := tx.Bucket(bucketByCampaign)
		c := jobBucket.Cursor()

		var toDelete []*Job

		for k, v := c.First(); k != nil; k, v = c.Next() {
			var job Job
			if err := json.Unmarshal(v, &job); err != nil {
				continue
			}

			if job.Status.Terminal() && job.UpdatedAt.Before(cutoff) {
				j := job
				toDelete = append(toDelete, &j)
			}
		}

		for _, job := range toDelete {
			if err := jobBucket.Delete([]byte(job.ID)); err != nil {
				return err
			}
			if err := campaignBucket.Delete([]byte(job.CampaignID + "/" + job.ID)); err != nil {
				return err
			}
			deleted++
		}

		return nil
	})

	return deleted, err
}

// Close closes the database connection
func (s *BoltStorage) Close() error {
	return s.db.Close()
}

// DB returns the underlying bolt.DB instance
func (s *BoltStorage) DB() *bolt.DB {
	return s.db
}

// makeIndexKey creates a sortable key from timestamp and ID
func makeIndexKey(t time.Time, id string) []byte {
	// Format: timestamp (RFC3339Nano) + ":" + id
	return []byte(t.Format(time.RFC3339Nano) + ":" + id)
}

// parseTimestampFromKey extracts timestamp from index key
func parseTimestampFromKey(key []byte) time.Time {
	s := string(key)
	// Find the separator
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ':' {
			ts, _ := time.Parse(time.RFC3339Nano, s[:i])
			return ts
		}
	}
	return time.Time{}
}
