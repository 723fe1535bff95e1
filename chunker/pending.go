package chunker

import (
	"time"

	"github.com/xyzj/toolbox/mapfx"
)

// DefaultPendingTTL is how long an unclaimed continuation survives.
const DefaultPendingTTL = 10 * time.Minute

type pendingEntry struct {
	chunks    []string
	expiresAt time.Time
}

// Pending tracks, per channel, the chunks of a response that have not been
// delivered yet. An exhausted or expired backlog is pruned entirely; an
// empty queue and an absent queue are indistinguishable to callers.
type Pending struct {
	entries *mapfx.StructMap[string, pendingEntry]
	ttl     time.Duration
}

// NewPending creates a Pending tracker whose backlogs expire after ttl of
// inactivity. A non-positive ttl selects DefaultPendingTTL.
func NewPending(ttl time.Duration) *Pending {
	if ttl <= 0 {
		ttl = DefaultPendingTTL
	}
	return &Pending{
		entries: mapfx.NewStructMap[string, pendingEntry](),
		ttl:     ttl,
	}
}

// Enqueue replaces the channel's backlog with chunks. An empty slice
// clears the backlog instead of storing a zero-length placeholder.
func (p *Pending) Enqueue(channel string, chunks []string) {
	if len(chunks) == 0 {
		p.entries.Delete(channel)
		return
	}
	p.entries.Store(channel, &pendingEntry{
		chunks:    chunks,
		expiresAt: time.Now().Add(p.ttl),
	})
}

// HasMore reports whether the channel has undelivered chunks, lazily
// pruning an expired backlog.
func (p *Pending) HasMore(channel string) bool {
	e, ok := p.entries.Load(channel)
	if !ok {
		return false
	}
	if time.Now().After(e.expiresAt) || len(e.chunks) == 0 {
		p.entries.Delete(channel)
		return false
	}
	return true
}

// PopNext returns the channel's next chunk. The expiry is refreshed on a
// non-exhausting pop; popping the last chunk removes the backlog entirely.
func (p *Pending) PopNext(channel string) (string, bool) {
	e, ok := p.entries.LoadForUpdate(channel)
	if !ok {
		return "", false
	}
	if time.Now().After(e.expiresAt) || len(e.chunks) == 0 {
		p.entries.Delete(channel)
		return "", false
	}
	next := e.chunks[0]
	e.chunks = e.chunks[1:]
	if len(e.chunks) == 0 {
		p.entries.Delete(channel)
		return next, true
	}
	e.expiresAt = time.Now().Add(p.ttl)
	return next, true
}

// Clear drops the channel's backlog.
func (p *Pending) Clear(channel string) {
	p.entries.Delete(channel)
}
