// Package kaelbot wires the CMDR Kael persona bot together: command
// parsing, prompt assembly, the LLM round trip with tool dispatch, and
// response chunking with per-channel continuation.
package kaelbot

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cmdrkael/kaelbot/chunker"
)

type (
	// Opt contains configuration options for the Bot.
	Opt struct {
		logg            *log.Logger
		sessionLifetime time.Duration // Idle time before a channel's history is dropped
		historySize     int           // Messages kept per channel conversation window
		maxChunkLen     int           // Transport chunk size limit
		pendingTTL      time.Duration // Continuation backlog lifetime
	}
	// Opts is a function type for configuring Bot options.
	Opts func(opt *Opt)
)

// WithLogger sets a custom logger for the bot.
func WithLogger(l *log.Logger) Opts {
	return func(opt *Opt) {
		opt.logg = l
	}
}

// WithSessionLifetime sets the idle time after which a channel's in-memory
// conversation window is dropped.
func WithSessionLifetime(d time.Duration) Opts {
	return func(opt *Opt) {
		opt.sessionLifetime = d
	}
}

// WithHistorySize sets how many recent messages each channel's
// conversation window holds.
func WithHistorySize(n int) Opts {
	return func(opt *Opt) {
		opt.historySize = n
	}
}

// WithMaxChunkLen overrides the transport chunk size limit.
func WithMaxChunkLen(n int) Opts {
	return func(opt *Opt) {
		opt.maxChunkLen = n
	}
}

// WithPendingTTL sets how long an unclaimed continuation backlog survives.
func WithPendingTTL(d time.Duration) Opts {
	return func(opt *Opt) {
		opt.pendingTTL = d
	}
}

func defaultOpt() *Opt {
	return &Opt{
		logg:            log.New(io.Discard),
		sessionLifetime: 7 * 24 * time.Hour,
		historySize:     40,
		maxChunkLen:     chunker.DefaultMaxLen,
		pendingTTL:      chunker.DefaultPendingTTL,
	}
}
