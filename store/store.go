// Package store implements the durable store pattern shared by the cache,
// persona and memory stores. A Store binds to exactly one backend at
// construction time: a remote key-value service when one is configured, or
// a single debounced JSON document on local disk otherwise. The selection
// is immutable for the lifetime of the process.
package store

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/xyzj/toolbox/json"

	"github.com/cmdrkael/kaelbot/kv"
)

// backend is the minimal raw-bytes contract both persistence modes satisfy.
type backend interface {
	get(ctx context.Context, key string) ([]byte, bool, error)
	set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	del(ctx context.Context, key string) error
	close() error
}

type (
	// Opt contains configuration options for a Store.
	Opt struct {
		db       kv.Store      // Remote backend; nil selects file mode
		filePath string        // Local document path for file mode
		debounce time.Duration // Quiet period before a file flush
		logg     *log.Logger
	}
	// Opts is a function type for configuring Store options.
	Opts func(opt *Opt)
)

// WithKV binds the store to a remote key-value backend. Scope keys are
// namespaced under the store's name (e.g. "persona:<channel>").
func WithKV(db kv.Store) Opts {
	return func(opt *Opt) {
		opt.db = db
	}
}

// WithFile sets the local JSON document path used in file mode.
func WithFile(path string) Opts {
	return func(opt *Opt) {
		opt.filePath = path
	}
}

// WithDebounce sets the quiet period after which buffered file-mode writes
// are flushed to disk. Bursts of writes inside one period collapse into a
// single disk operation.
func WithDebounce(d time.Duration) Opts {
	return func(opt *Opt) {
		opt.debounce = d
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(l *log.Logger) Opts {
	return func(opt *Opt) {
		opt.logg = l
	}
}

// Store presents a stable read/write API over one of two interchangeable
// backends. All accessors take a context and may suspend on I/O; there is
// deliberately no synchronous variant that only works in file mode.
type Store struct {
	name string
	be   backend
	logg *log.Logger
}

// New creates a Store named name, bound to the remote backend when one was
// supplied via WithKV and to the local JSON document otherwise. In file
// mode the document is loaded once here; a missing or corrupt file is
// treated as an empty store and logged, never fatal.
func New(name string, opts ...Opts) *Store {
	opt := &Opt{
		debounce: 300 * time.Millisecond,
		logg:     log.New(io.Discard),
	}
	for _, o := range opts {
		o(opt)
	}
	s := &Store{
		name: name,
		logg: opt.logg,
	}
	if opt.db != nil {
		s.be = &kvBackend{prefix: name + ":", db: opt.db}
		return s
	}
	s.be = newFileBackend(opt.filePath, opt.debounce, opt.logg.With("store", name))
	return s
}

// Get unmarshals the value stored under scope into out. An absent, expired
// or unparseable value is reported as (false, nil); only transport failures
// return an error.
func (s *Store) Get(ctx context.Context, scope string, out any) (bool, error) {
	raw, ok, err := s.be.get(ctx, scope)
	if err != nil {
		return false, fmt.Errorf("store %s: get %q: %w", s.name, scope, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.logg.Warn("discarding unparseable record", "store", s.name, "scope", scope, "err", err)
		return false, nil
	}
	return true, nil
}

// Put marshals v and persists it under scope. A non-zero ttl marks the
// record as expiring: remote mode delegates to the backend's native key
// expiry, file mode records an expiry timestamp alongside the payload.
// In file mode the in-memory structure is updated before Put returns and
// the disk write is debounced.
func (s *Store) Put(ctx context.Context, scope string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store %s: marshal %q: %w", s.name, scope, err)
	}
	if err := s.be.set(ctx, scope, raw, ttl); err != nil {
		return fmt.Errorf("store %s: put %q: %w", s.name, scope, err)
	}
	return nil
}

// Delete removes the record under scope. Deleting an absent scope succeeds.
func (s *Store) Delete(ctx context.Context, scope string) error {
	if err := s.be.del(ctx, scope); err != nil {
		return fmt.Errorf("store %s: delete %q: %w", s.name, scope, err)
	}
	return nil
}

// Remote reports whether the store is bound to the remote key-value
// backend. Callers that need mode-dependent expiry behavior branch on
// this instead of carrying configuration around.
func (s *Store) Remote() bool {
	_, ok := s.be.(*kvBackend)
	return ok
}

// Close releases the backend. In file mode any pending debounced write is
// flushed so last-moment mutations survive shutdown.
func (s *Store) Close() error {
	return s.be.close()
}

// kvBackend adapts a kv.Store to the backend contract, namespacing every
// scope key under the store's prefix.
type kvBackend struct {
	prefix string
	db     kv.Store
}

func (b *kvBackend) get(ctx context.Context, key string) ([]byte, bool, error) {
	val, ok, err := b.db.Get(ctx, b.prefix+key)
	if err != nil || !ok {
		return nil, false, err
	}
	return json.Bytes(val), true, nil
}

func (b *kvBackend) set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return b.db.Set(ctx, b.prefix+key, json.String(data), ttl)
}

func (b *kvBackend) del(ctx context.Context, key string) error {
	return b.db.Delete(ctx, b.prefix+key)
}

func (b *kvBackend) close() error {
	return nil
}
