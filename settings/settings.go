// Package settings defines the key-value settings store the demo tooling
// reads its configuration from. The entry store itself never consults
// settings; it takes plain configuration at construction.
package settings

import (
	"io"
	"sync"
)

// DebugKey holds the flag that gates diagnostic logging in the store worker.
const DebugKey = "debug"

// Store is a minimal key-value settings store.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)
	// Set stores value under key, overwriting any existing value.
	Set(key, value string) error

	io.Closer
}

// Debug reads the debug flag from a settings store. Absent or unreadable
// settings mean disabled.
func Debug(s Store) bool {
	value, ok, err := s.Get(DebugKey)
	if err != nil || !ok {
		return false
	}
	return value == "true" || value == "1"
}

// Memory is an in-memory Store, useful in tests and as a default.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	return value, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Close() error {
	return nil
}
