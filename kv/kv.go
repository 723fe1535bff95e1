// Package kv provides the key-value backend abstraction used by the durable
// stores. It defines the Store interface and provides a Redis-backed
// implementation plus a no-op fallback for running without remote storage.
package kv

import (
	"context"
	"time"
)

// Store defines the interface for remote key-value backends.
// Implementations must be safe for concurrent use and must report an
// absent or expired key as a not-found result, never as an error.
//
// The interface supports:
//   - Opaque string values; callers serialize their own payloads
//   - Optional per-key time-to-live on write (zero means no expiry)
//   - Explicit not-found reporting separate from transport failures
type Store interface {
	// Get retrieves the value stored under key.
	//
	// Returns:
	//   - string: The stored value, empty when not found
	//   - bool: Whether a value was found
	//   - error: Transport-level failures only; not-found is (_, false, nil)
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key. A non-zero ttl asks the backend to
	// expire the key after that duration.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Ping verifies that the backend is reachable.
	Ping(ctx context.Context) error
}
