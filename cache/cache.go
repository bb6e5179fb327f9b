// Package cache implements the session cache that sits beneath the resolver's
// in-memory cache. Stores are best effort: a failing store is reported as
// unavailable and the resolver treats it like a miss.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrMiss is returned by Get when no value is stored under the key.
	ErrMiss = errors.New("cache miss")
	// ErrUnavailable is returned when the backing store cannot serve the request.
	ErrUnavailable = errors.New("cache unavailable")
)

// Store is a string-keyed get/set store of resolved vector markup.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Backend names a store implementation selectable from configuration.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendSQLite Backend = "sqlite"
	BackendNone   Backend = "none"
)

// Open creates the store for backend. BackendNone yields a nil Store.
func Open(backend Backend, path string) (Store, error) {
	switch backend {
	case BackendMemory, "":
		return NewMemoryStore(0), nil
	case BackendSQLite:
		s, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendNone:
		return nil, nil
	}
	return nil, fmt.Errorf("unsupported cache backend %q", backend)
}

// Close releases the resources of s when it holds any.
func Close(s Store) error {
	if c, ok := s.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// MemoryStore keeps values in a map. A positive quota bounds the number of
// entries; writes past the quota fail with ErrUnavailable, like a full
// browser storage area would.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
	quota  int
}

// NewMemoryStore returns an empty store. A quota of zero means unbounded.
func NewMemoryStore(quota int) *MemoryStore {
	return &MemoryStore{
		values: make(map[string]string),
		quota:  quota,
	}
}

// Get returns the value stored under key.
func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return "", ErrMiss
	}
	return v, nil
}

// Set stores value under key, overwriting any previous value.
func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.values[key]; !exists && m.quota > 0 && len(m.values) >= m.quota {
		return fmt.Errorf("%w: quota of %d entries exceeded", ErrUnavailable, m.quota)
	}
	m.values[key] = value
	return nil
}

// Len returns the number of stored entries.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
