package kv

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type (
	Opt struct {
		keyPrefix string // Prefix prepended to every key in Redis
		opTimeout time.Duration
	}
	// Opts is a function type for configuring RedisStore options.
	Opts func(opt *Opt)
)

// WithKeyPrefix returns an Opts function that sets a prefix prepended to
// every key before it reaches Redis. This is useful for namespacing one
// bot instance's data apart from others sharing the same database.
func WithKeyPrefix(prefix string) Opts {
	return func(opt *Opt) {
		opt.keyPrefix = prefix
	}
}

// WithOpTimeout returns an Opts function that sets the per-operation
// timeout applied on top of the caller's context.
func WithOpTimeout(t time.Duration) Opts {
	return func(opt *Opt) {
		opt.opTimeout = t
	}
}

// RedisStore is a Store implementation backed by a Redis client.
// TTL handling is delegated to Redis's native key expiry, so expired keys
// surface as not-found without any client-side bookkeeping.
type RedisStore struct {
	cnf *Opt
	db  *redis.Client
}

// NewRedisStore creates a new Redis-backed Store from the given address and
// password. It does not dial eagerly; call Ping to verify connectivity.
//
// Example:
//
//	s := kv.NewRedisStore("127.0.0.1:6379", "", kv.WithKeyPrefix("kael:"))
func NewRedisStore(addr, password string, opts ...Opts) *RedisStore {
	opt := &Opt{
		keyPrefix: "kael:",
		opTimeout: 3 * time.Second,
	}
	for _, o := range opts {
		o(opt)
	}
	return &RedisStore{
		cnf: opt,
		db: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
	}
}

// Get retrieves the value stored under key. A missing or expired key is
// reported as ("", false, nil); only transport failures return an error.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cnf.opTimeout)
	defer cancel()
	val, err := s.db.Get(ctx, s.cnf.keyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return val, true, nil
}

// Set stores value under key, with Redis-native expiry when ttl is non-zero.
func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, s.cnf.opTimeout)
	defer cancel()
	return s.db.Set(ctx, s.cnf.keyPrefix+key, value, ttl).Err()
}

// Delete removes the key from Redis. Deleting an absent key succeeds.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.cnf.opTimeout)
	defer cancel()
	return s.db.Del(ctx, s.cnf.keyPrefix+key).Err()
}

// Ping verifies connectivity to the Redis server.
func (s *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cnf.opTimeout)
	defer cancel()
	return s.db.Ping(ctx).Err()
}
