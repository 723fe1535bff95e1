// Package heartbeat periodically publishes process liveness to the durable
// store so an external probe can tell a running bot from a dead one.
package heartbeat

import (
	"context"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/xyzj/toolbox/loopfunc"

	"github.com/cmdrkael/kaelbot/store"
)

// Key is the well-known scope the liveness payload is written under.
const Key = "heartbeat"

// Default publication cadence and freshness window. The TTL is deliberately
// several intervals wide so a single missed beat does not read as death.
const (
	DefaultInterval = 30 * time.Second
	DefaultTTL      = 120 * time.Second
)

// States reported by Check.
const (
	StateFresh        = "fresh"
	StateStale        = "stale"
	StateNeverStarted = "never-started"
)

// Beat is the liveness payload.
type Beat struct {
	Timestamp time.Time `json:"timestamp"`
	PID       int       `json:"pid"`
	Instance  string    `json:"instance"`
	Host      string    `json:"host"`
	Ready     bool      `json:"ready"`
}

type (
	// Opt contains configuration options for the Publisher.
	Opt struct {
		interval time.Duration
		ttl      time.Duration
		logg     *log.Logger
	}
	// Opts is a function type for configuring Publisher options.
	Opts func(opt *Opt)
)

// WithInterval sets the publication cadence.
func WithInterval(d time.Duration) Opts {
	return func(opt *Opt) {
		opt.interval = d
	}
}

// WithTTL sets the freshness window written with each beat.
func WithTTL(d time.Duration) Opts {
	return func(opt *Opt) {
		opt.ttl = d
	}
}

// WithLogger sets a custom logger for the publisher.
func WithLogger(l *log.Logger) Opts {
	return func(opt *Opt) {
		opt.logg = l
	}
}

// Publisher writes a Beat to the store once at startup and then on a fixed
// interval. Write failures are logged and swallowed; publication never
// blocks or crashes message handling.
type Publisher struct {
	st       *store.Store
	cnf      *Opt
	instance string
	host     string
	ready    atomic.Bool
	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a Publisher writing to st. Call Start to begin publishing.
func New(st *store.Store, opts ...Opts) *Publisher {
	opt := &Opt{
		interval: DefaultInterval,
		ttl:      DefaultTTL,
		logg:     log.New(io.Discard),
	}
	for _, o := range opts {
		o(opt)
	}
	host, _ := os.Hostname()
	return &Publisher{
		st:       st,
		cnf:      opt,
		instance: uuid.NewString(),
		host:     host,
		stop:     make(chan struct{}),
	}
}

// SetReady flips the readiness flag carried by subsequent beats.
func (p *Publisher) SetReady(ready bool) {
	p.ready.Store(ready)
}

// Start publishes one beat immediately and then keeps publishing every
// interval until Stop is called.
func (p *Publisher) Start() {
	p.publish()
	go loopfunc.LoopFunc(func(params ...any) {
		t := time.NewTicker(p.cnf.interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				p.publish()
			case <-p.stop:
				return
			}
		}
	}, "heartbeat", io.Discard)
}

// Stop halts publication. Safe to call more than once.
func (p *Publisher) Stop() {
	p.stopOnce.Do(func() {
		close(p.stop)
	})
}

func (p *Publisher) publish() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	b := Beat{
		Timestamp: time.Now(),
		PID:       os.Getpid(),
		Instance:  p.instance,
		Host:      p.host,
		Ready:     p.ready.Load(),
	}
	// Remote mode delegates staleness to native key expiry. File mode
	// must keep the record readable past the TTL: Check classifies an old
	// timestamp as stale, and an expiring envelope would erase that state.
	ttl := p.cnf.ttl
	if !p.st.Remote() {
		ttl = 0
	}
	if err := p.st.Put(ctx, Key, b, ttl); err != nil {
		p.cnf.logg.Warn("heartbeat write failed", "err", err)
	}
}

// Check reads the heartbeat from st and classifies it. A missing record is
// never-started (remote mode also expires stale keys into this state); a
// record older than ttl is stale.
func Check(ctx context.Context, st *store.Store, ttl time.Duration) (Beat, string, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	var b Beat
	ok, err := st.Get(ctx, Key, &b)
	if err != nil {
		return b, StateNeverStarted, err
	}
	if !ok {
		return b, StateNeverStarted, nil
	}
	if time.Since(b.Timestamp) > ttl {
		return b, StateStale, nil
	}
	return b, StateFresh, nil
}
