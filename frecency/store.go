// Package frecency tracks per-path usage records and ranks paths by a
// blend of access frequency and recency. Records are persisted in a small
// per-workspace bbolt database and never pruned.
package frecency

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Kind selects which record namespace a path belongs to.
type Kind string

const (
	KindFile   Kind = "files"
	KindFolder Kind = "folders"
)

// Record is the usage state for a single path.
type Record struct {
	Frequency    int   `json:"frequency"`
	LastAccessMs int64 `json:"lastAccessMs"`
}

// Store persists usage records keyed by path.
type Store struct {
	db     *bolt.DB
	logger *slog.Logger
}

// Open opens (or creates) the usage database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening usage store %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, kind := range []Kind{KindFile, KindFolder} {
			if _, createErr := tx.CreateBucketIfNotExists([]byte(kind)); createErr != nil {
				return createErr
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating usage buckets: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Touch records one access: frequency increments, last-access is stamped.
func (s *Store) Touch(kind Kind, path string, nowMs int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(kind))

		var record Record
		if raw := bucket.Get([]byte(path)); raw != nil {
			if err := json.Unmarshal(raw, &record); err != nil {
				// Corrupt entry: start over rather than fail the access.
				s.logger.Warn("resetting corrupt usage record", "path", path, "error", err)
				record = Record{}
			}
		}
		record.Frequency++
		record.LastAccessMs = nowMs

		raw, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("encoding usage record: %w", err)
		}
		return bucket.Put([]byte(path), raw)
	})
}

// Get returns the record for a path, reporting whether one exists.
func (s *Store) Get(kind Kind, path string) (Record, bool) {
	var record Record
	found := false

	s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(kind)).Get([]byte(path))
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil
		}
		found = true
		return nil
	})
	return record, found
}

// All returns every record of the given kind, keyed by path.
func (s *Store) All(kind Kind) map[string]Record {
	records := make(map[string]Record)

	s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(kind)).ForEach(func(key, raw []byte) error {
			var record Record
			if err := json.Unmarshal(raw, &record); err != nil {
				return nil
			}
			records[string(key)] = record
			return nil
		})
	})
	return records
}

// Count returns the number of records of the given kind.
func (s *Store) Count(kind Kind) int {
	count := 0
	s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket([]byte(kind)).Stats().KeyN
		return nil
	})
	return count
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}
