package kv

import (
	"context"
	"time"
)

// NoopStore is the degraded-mode Store used when no remote backend is
// configured. Every read reports not-found and every write is silently
// discarded, so upstream code never has to branch on configuration state.
type NoopStore struct{}

// NewNoopStore creates a Store that remembers nothing.
func NewNoopStore() *NoopStore {
	return &NoopStore{}
}

func (s *NoopStore) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, nil
}

func (s *NoopStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return nil
}

func (s *NoopStore) Delete(ctx context.Context, key string) error {
	return nil
}

func (s *NoopStore) Ping(ctx context.Context) error {
	return nil
}
