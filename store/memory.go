package store

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
)

// GlobalChannel is the distinguished scope holding memories shared by every
// channel. It is the only scope that receives seed content.
const GlobalChannel = "global"

// maxMemoryRead caps how many memories a read returns, bounding the
// context-injection cost regardless of how many are stored.
const maxMemoryRead = 50

// ErrMemoryNotFound is returned by Forget when neither a position nor a
// substring matches.
var ErrMemoryNotFound = errors.New("no matching memory")

// Memory is one remembered fact. Lists are kept most-recent-first;
// Remember always prepends.
type Memory struct {
	ID        int       `json:"id"`
	Text      string    `json:"text"`
	Author    string    `json:"author,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// seedMemories is the default content for the global channel, written once
// on first initialization and only when the scope is absent or empty.
func seedMemories() []Memory {
	now := time.Now()
	texts := []string{
		"I am CMDR Kael, a veteran Elite Dangerous commander turned channel AI.",
		"My ship of record is a Krait Mk II named 'Last Orders'.",
		"Home system is Wyrd; I still call Jaques Station the best bar in the galaxy.",
		"I distrust Imperial slavers and say so when asked.",
		"Fuel rats saved me once near Sagittarius A*; I always repay the favor.",
	}
	out := make([]Memory, 0, len(texts))
	for i, t := range texts {
		out = append(out, Memory{ID: i + 1, Text: t, CreatedAt: now})
	}
	return out
}

// MemoryStore manages the per-channel memory lists on top of a durable
// Store.
type MemoryStore struct {
	st *Store
}

// NewMemoryStore wraps st as the memory store and seeds the global channel
// when it has no content yet.
func NewMemoryStore(ctx context.Context, st *Store) (*MemoryStore, error) {
	ms := &MemoryStore{st: st}
	var existing []Memory
	ok, err := st.Get(ctx, GlobalChannel, &existing)
	if err != nil {
		return nil, err
	}
	if !ok || len(existing) == 0 {
		if err := st.Put(ctx, GlobalChannel, seedMemories(), 0); err != nil {
			return nil, err
		}
	}
	return ms, nil
}

// List returns up to max memories for channel, most recent first. A zero or
// negative max, or one above the read cap, is clamped to the cap.
func (ms *MemoryStore) List(ctx context.Context, channel string, max int) ([]Memory, error) {
	var list []Memory
	if _, err := ms.st.Get(ctx, channel, &list); err != nil {
		return nil, err
	}
	if max <= 0 || max > maxMemoryRead {
		max = maxMemoryRead
	}
	if len(list) > max {
		list = list[:max]
	}
	return list, nil
}

// Remember prepends a new memory to the channel's list and persists it.
func (ms *MemoryStore) Remember(ctx context.Context, channel, text, author string) (Memory, error) {
	var list []Memory
	if _, err := ms.st.Get(ctx, channel, &list); err != nil {
		return Memory{}, err
	}
	nextID := 1
	for _, m := range list {
		if m.ID >= nextID {
			nextID = m.ID + 1
		}
	}
	m := Memory{
		ID:        nextID,
		Text:      strings.TrimSpace(text),
		Author:    author,
		CreatedAt: time.Now(),
	}
	list = append([]Memory{m}, list...)
	if err := ms.st.Put(ctx, channel, list, 0); err != nil {
		return Memory{}, err
	}
	return m, nil
}

// Forget removes at most one memory from the channel's list. A spec that
// parses as a valid 1-based position removes that position; otherwise the
// first memory whose text contains spec case-insensitively is removed.
// Returns the removed memory, or ErrMemoryNotFound when nothing matches.
func (ms *MemoryStore) Forget(ctx context.Context, channel, spec string) (Memory, error) {
	var list []Memory
	if _, err := ms.st.Get(ctx, channel, &list); err != nil {
		return Memory{}, err
	}
	spec = strings.TrimSpace(spec)
	idx := -1
	if n, err := strconv.Atoi(spec); err == nil && n >= 1 && n <= len(list) {
		idx = n - 1
	} else {
		needle := strings.ToLower(spec)
		for i, m := range list {
			if strings.Contains(strings.ToLower(m.Text), needle) {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return Memory{}, ErrMemoryNotFound
	}
	removed := list[idx]
	list = append(list[:idx], list[idx+1:]...)
	if err := ms.st.Put(ctx, channel, list, 0); err != nil {
		return Memory{}, err
	}
	return removed, nil
}
