// Package cache provides the get-or-compute TTL cache wrapped around every
// outbound data-tool call.
package cache

import (
	"context"
	"time"

	"github.com/cmdrkael/kaelbot/store"
)

// Cache is a thin TTL layer over a durable store. Expiry is handled by the
// store: remote mode uses the backend's native key TTL, file mode records
// an expiry timestamp and treats stale records as absent on read.
type Cache struct {
	st *store.Store
}

// New wraps st as a TTL cache.
func New(st *store.Store) *Cache {
	return &Cache{st: st}
}

// Cached returns the live value under key if one exists, otherwise invokes
// compute, stores its result with an expiry of now+ttl and returns it.
//
// A failed compute is never stored, so the next call for the same key
// retries immediately. Concurrent callers missing on the same key may both
// compute; with at most a handful of lookups per key in flight that is
// cheaper than stampede protection.
func Cached[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, compute func(ctx context.Context) (T, error)) (T, error) {
	var v T
	ok, err := c.st.Get(ctx, key, &v)
	if err == nil && ok {
		return v, nil
	}
	// Transport failures on read degrade to a recompute.
	v, err = compute(ctx)
	if err != nil {
		return v, err
	}
	// A failed cache write is not fatal; the value is returned uncached.
	_ = c.st.Put(ctx, key, v, ttl)
	return v, nil
}
