// Package store persists small pieces of pocket state in a bbolt database:
// the reconnect hints of the session and the local wallet's own records.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// FileName is the database file inside the pocket home directory.
const FileName = "pocket.db"

// Bucket names.
var (
	BucketHints  = []byte("hints")  //nolint:gochecknoglobals // bucket name
	BucketWallet = []byte("wallet") //nolint:gochecknoglobals // bucket name
)

// Hint keys.
const (
	KeyConnected   = "connected"
	KeyLastAddress = "last_address"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Store wraps the bbolt handle.
type Store struct {
	db *bolt.DB
}

// Hints are the durable reconnect markers.
type Hints struct {
	Connected   bool
	LastAddress string
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{BucketHints, BucketWallet} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveHints records a successful connection for address.
func (s *Store) SaveHints(address string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(BucketHints)
		if err := b.Put([]byte(KeyConnected), []byte("true")); err != nil {
			return err
		}
		return b.Put([]byte(KeyLastAddress), []byte(address))
	})
}

// ClearHints removes both hint keys. Clearing absent keys is not an error.
func (s *Store) ClearHints() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(BucketHints)
		if err := b.Delete([]byte(KeyConnected)); err != nil {
			return err
		}
		return b.Delete([]byte(KeyLastAddress))
	})
}

// LoadHints returns the stored hints.
func (s *Store) LoadHints() (Hints, error) {
	var h Hints
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(BucketHints)
		h.Connected = string(b.Get([]byte(KeyConnected))) == "true"
		h.LastAddress = string(b.Get([]byte(KeyLastAddress)))
		return nil
	})
	return h, err
}

// Get decodes the JSON record bucket/key into v.
func (s *Store) Get(bucket []byte, key string, v any) error {
	return s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucket).Get([]byte(key))
		if raw == nil {
			return ErrNotFound
		}
		return json.Unmarshal(raw, v)
	})
}

// Put stores v as JSON under bucket/key.
func (s *Store) Put(bucket []byte, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), raw)
	})
}

// Mutate loads the record bucket/key (zero value when absent), applies fn
// and writes the result back in one transaction.
func Mutate[T any](s *Store, bucket []byte, key string, fn func(*T) error) (T, error) {
	var rec T
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if raw := b.Get([]byte(key)); raw != nil {
			if err := json.Unmarshal(raw, &rec); err != nil {
				return err
			}
		}
		if err := fn(&rec); err != nil {
			return err
		}
		raw, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), raw)
	})
	return rec, err
}
