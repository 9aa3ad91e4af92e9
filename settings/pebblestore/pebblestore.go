// Package pebblestore implements the settings store on a Pebble database,
// for deployments where settings must survive restarts.
package pebblestore

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
)

// Store is a Pebble-backed settings store.
type Store struct {
	db *pebble.DB
}

// Open opens (creating if absent) a settings database in dir.
func Open(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open settings database: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(key string) (string, bool, error) {
	value, closer, err := s.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	defer closer.Close()

	return string(value), true, nil
}

func (s *Store) Set(key, value string) error {
	if err := s.db.Set([]byte(key), []byte(value), pebble.Sync); err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
