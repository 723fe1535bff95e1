package kv

import (
	"context"
	"sync"
	"time"
)

// MemoryStore provides an in-memory implementation of the Store interface.
// Values live in a mutex-guarded map with client-side expiry tracking.
//
// Characteristics:
//   - Fast read/write operations with O(1) access time
//   - Data is lost when the application terminates
//   - Thread-safe operations using read-write mutex
//   - Suitable for tests and for exercising remote-backed code paths
//     without a running Redis
type MemoryStore struct {
	locker sync.RWMutex
	data   map[string]memEntry
}

type memEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// NewMemoryStore creates a new in-memory Store ready for immediate use.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]memEntry),
	}
}

// Get retrieves the value stored under key, treating an expired entry as
// not found and pruning it.
func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.locker.RLock()
	e, ok := s.data[key]
	s.locker.RUnlock()
	if !ok {
		return "", false, nil
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		s.locker.Lock()
		delete(s.data, key)
		s.locker.Unlock()
		return "", false, nil
	}
	return e.value, true, nil
}

// Set stores value under key, recording an expiry when ttl is non-zero.
func (s *MemoryStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	e := memEntry{value: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	s.locker.Lock()
	s.data[key] = e
	s.locker.Unlock()
	return nil
}

// Delete removes the key. Deleting an absent key succeeds.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.locker.Lock()
	delete(s.data, key)
	s.locker.Unlock()
	return nil
}

// Ping always succeeds for in-memory storage.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}
