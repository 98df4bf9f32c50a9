package campaign

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	bolt "go.etcd.io/bbolt"
)

var bucketCampaigns = []byte("campaigns")

// ErrNotFound is returned when a campaign id has no record.
var ErrNotFound = errors.New("campaign not found")

// Store persists campaign records in BoltDB. It shares the database
// handle with the job storage so the whole system is one file on disk.
type Store struct {
	db *bolt.DB
}

// NewStore creates a campaign store on an existing BoltDB instance.
func NewStore(db *bolt.DB) (*Store, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCampaigns)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create campaigns bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Create stores a new campaign record.
func (s *Store) Create(ctx context.Context, c *Campaign) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to marshal campaign: %w", err)
		}
		return tx.Bucket(bucketCampaigns).Put([]byte(c.ID), data)
	})
}

// Get retrieves a campaign by id. Returns nil, nil when the id is
// unknown.
func (s *Store) Get(ctx context.Context, id string) (*Campaign, error) {
	var c *Campaign

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketCampaigns).Get([]byte(id))
		if data == nil {
			return nil
		}
		c = &Campaign{}
		return json.Unmarshal(data, c)
	})

	return c, err
}

// SetStatus updates the status of an existing campaign.
func (s *Store) SetStatus(ctx context.Context, id string, status Status) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketCampaigns)

		data := bucket.Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}

		var c Campaign
		if err := json.Unmarshal(data, &c); err != nil {
			return fmt.Errorf("failed to unmarshal campaign: %w", err)
		}

		c.Status = status

		updated, err := json.Marshal(&c)
		if err != nil {
			return fmt.Errorf("failed to marshal campaign: %w", err)
		}
		return bucket.Put([]byte(id), updated)
	})
}

// List returns all campaigns sorted by creation time, newest first.
func (s *Store) List(ctx context.Context) ([]*Campaign, error) {
	var campaigns []*Campaign

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketCampaigns).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var camp Campaign
			if err := json.Unmarshal(v, &camp); err != nil {
				continue
			}
			campaigns = append(campaigns, &camp)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(campaigns, func(i, j int) bool {
		return campaigns[i].CreatedAt.After(campaigns[j].CreatedAt)
	})
	return campaigns, nil
}

// CountActive returns the number of campaigns currently in the active
// state. Used by the metrics collector.
func (s *Store) CountActive(ctx context.Context) (int64, error) {
	var count int64

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketCampaigns).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var camp Campaign
			if err := json.Unmarshal(v, &camp); err != nil {
				continue
			}
			if camp.Status == StatusActive {
				count++
			}
		}
		return nil
	})

	return count, err
}
