package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// fileEntry is the persisted form of one record in the JSON document.
// ExpiresAt is only present for records written with a TTL.
type fileEntry struct {
	ExpiresAt *time.Time      `json:"expiresAt,omitempty"`
	Data      json.RawMessage `json:"data"`
}

// fileBackend keeps the whole record set in memory and persists it as one
// JSON document. Writes mutate the map immediately and schedule a debounced
// flush: repeated triggers inside the quiet period collapse into a single
// disk write. close performs a final flush so nothing buffered is lost on
// graceful shutdown.
type fileBackend struct {
	path     string
	debounce time.Duration
	logg     *log.Logger

	mu    sync.Mutex
	data  map[string]fileEntry
	timer *time.Timer
	dirty bool

	// flushMu serializes disk writes: the debounce timer and close can
	// fire together, and both go through the same temp file.
	flushMu sync.Mutex
}

func newFileBackend(path string, debounce time.Duration, logg *log.Logger) *fileBackend {
	b := &fileBackend{
		path:     path,
		debounce: debounce,
		logg:     logg,
		data:     make(map[string]fileEntry),
	}
	b.load()
	return b
}

// load reads the document from disk. A missing file is a normal first run;
// a corrupt file is treated as an empty store and overwritten on the next
// flush. Neither is fatal.
func (b *fileBackend) load() {
	if b.path == "" {
		b.logg.Warn("no file path configured, records will not survive restarts")
		return
	}
	raw, err := os.ReadFile(b.path)
	if err != nil {
		if !os.IsNotExist(err) {
			b.logg.Warn("cannot read store file, starting empty", "path", b.path, "err", err)
		}
		return
	}
	if err := json.Unmarshal(raw, &b.data); err != nil {
		b.logg.Warn("store file is corrupt, starting empty", "path", b.path, "err", err)
		b.data = make(map[string]fileEntry)
	}
}

func (b *fileBackend) get(ctx context.Context, key string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.data[key]
	if !ok {
		return nil, false, nil
	}
	if e.ExpiresAt != nil && time.Now().After(*e.ExpiresAt) {
		delete(b.data, key)
		b.scheduleFlushLocked()
		return nil, false, nil
	}
	return e.Data, true, nil
}

func (b *fileBackend) set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	e := fileEntry{Data: data}
	if ttl > 0 {
		t := time.Now().Add(ttl)
		e.ExpiresAt = &t
	}
	b.mu.Lock()
	b.data[key] = e
	b.scheduleFlushLocked()
	b.mu.Unlock()
	return nil
}

func (b *fileBackend) del(ctx context.Context, key string) error {
	b.mu.Lock()
	if _, ok := b.data[key]; ok {
		delete(b.data, key)
		b.scheduleFlushLocked()
	}
	b.mu.Unlock()
	return nil
}

// scheduleFlushLocked arms (or re-arms) the debounce timer. Callers must
// hold b.mu.
func (b *fileBackend) scheduleFlushLocked() {
	b.dirty = true
	if b.path == "" {
		return
	}
	if b.timer == nil {
		b.timer = time.AfterFunc(b.debounce, b.flush)
		return
	}
	b.timer.Reset(b.debounce)
}

// flush writes the whole document to disk via a temp file and rename so a
// crash mid-write never truncates the previous state.
func (b *fileBackend) flush() {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()
	b.mu.Lock()
	if !b.dirty || b.path == "" {
		b.mu.Unlock()
		return
	}
	raw, err := json.Marshal(b.data)
	b.dirty = false
	b.mu.Unlock()
	if err != nil {
		b.logg.Error("cannot marshal store document", "err", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		b.logg.Error("cannot create store directory", "path", b.path, "err", err)
		return
	}
	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		b.logg.Error("cannot write store file", "path", tmp, "err", err)
		return
	}
	if err := os.Rename(tmp, b.path); err != nil {
		b.logg.Error("cannot replace store file", "path", b.path, "err", err)
	}
}

func (b *fileBackend) close() error {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
	}
	b.mu.Unlock()
	b.flush()
	return nil
}
