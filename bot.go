package kaelbot

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/xyzj/toolbox/loopfunc"
	"github.com/xyzj/toolbox/mapfx"

	"github.com/cmdrkael/kaelbot/chunker"
	"github.com/cmdrkael/kaelbot/history"
	"github.com/cmdrkael/kaelbot/llm"
	"github.com/cmdrkael/kaelbot/prompt"
	"github.com/cmdrkael/kaelbot/store"
	"github.com/cmdrkael/kaelbot/tools"
)

const continuationHint = "\n*(say \"more\" for the rest)*"

// Completer is the completion surface the bot needs; *llm.Client satisfies
// it, tests substitute a canned one.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (openai.ChatCompletionMessage, error)
}

// session is one channel's in-memory conversation window.
type session struct {
	hist     *history.History
	lastSeen time.Time
}

// Bot coordinates message handling for every channel: keyword commands,
// prompt assembly, the completion round trip with tool dispatch, and
// chunked delivery with continuations.
//
// Within one message the stages run strictly in sequence; messages from
// different channels interleave freely at I/O points. Concurrent commands
// against the same channel race with last-writer-wins semantics, which is
// accepted over per-channel locking.
type Bot struct {
	cnf      *Opt
	personas *store.PersonaStore
	memories *store.MemoryStore
	registry *tools.Registry
	llm      Completer
	pending  *chunker.Pending
	sessions *mapfx.StructMap[string, session]
}

// New creates a Bot and starts its background session sweeper, which drops
// conversation windows idle past the configured lifetime.
func New(personas *store.PersonaStore, memories *store.MemoryStore, registry *tools.Registry, llmCli Completer, opts ...Opts) *Bot {
	opt := defaultOpt()
	for _, o := range opts {
		o(opt)
	}
	b := &Bot{
		cnf:      opt,
		personas: personas,
		memories: memories,
		registry: registry,
		llm:      llmCli,
		pending:  chunker.NewPending(opt.pendingTTL),
		sessions: mapfx.NewStructMap[string, session](),
	}
	go loopfunc.LoopFunc(func(params ...any) {
		t := time.NewTicker(5 * time.Minute)
		defer t.Stop()
		for range t.C {
			b.sessions.ForEach(func(key string, s *session) bool {
				if time.Since(s.lastSeen) > b.cnf.sessionLifetime {
					b.sessions.Delete(key)
					b.cnf.logg.Warn("channel session expired and removed", "channel", key)
				}
				return true
			})
		}
	}, "session sweep", io.Discard)
	return b
}

// Pending exposes the continuation tracker, mainly for the transport layer
// and tests.
func (b *Bot) Pending() *chunker.Pending {
	return b.pending
}

// HandleMessage processes one inbound channel message and returns the text
// to send back now. Long responses are chunked: the first chunk is
// returned with a continuation hint and the rest is queued for "more".
func (b *Bot) HandleMessage(ctx context.Context, channelID, author, content string) (string, error) {
	if cmd, ok := parseCommand(content); ok {
		return b.handleCommand(ctx, channelID, author, cmd)
	}
	return b.respond(ctx, channelID, author, content)
}

func (b *Bot) handleCommand(ctx context.Context, channelID, author string, cmd command) (string, error) {
	switch cmd.kind {
	case cmdPersonaShow:
		p, err := b.personas.Get(ctx, channelID)
		if err != nil {
			return "", err
		}
		return formatPersona(p), nil
	case cmdPersonaSet:
		patch, err := store.PatchField(cmd.field, cmd.value)
		if err != nil {
			return err.Error(), nil
		}
		p, err := b.personas.Patch(ctx, channelID, patch)
		if err != nil {
			return "", err
		}
		return "Adjusted.\n" + formatPersona(p), nil
	case cmdPersonaReset:
		p, err := b.personas.Reset(ctx, channelID)
		if err != nil {
			return "", err
		}
		return "Back to factory settings.\n" + formatPersona(p), nil
	case cmdRemember:
		if cmd.arg == "" {
			return "Remember what, exactly?", nil
		}
		m, err := b.memories.Remember(ctx, channelID, cmd.arg, author)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Logged: %s", m.Text), nil
	case cmdForget:
		m, err := b.memories.Forget(ctx, channelID, cmd.arg)
		if err != nil {
			if err == store.ErrMemoryNotFound {
				return fmt.Sprintf("Nothing in the log matches %q.", cmd.arg), nil
			}
			return "", err
		}
		return fmt.Sprintf("Scrubbed: %s", m.Text), nil
	case cmdMemories:
		list, err := b.memories.List(ctx, channelID, 0)
		if err != nil {
			return "", err
		}
		if len(list) == 0 {
			return "The log for this channel is empty.", nil
		}
		var sb strings.Builder
		sb.WriteString("Channel log:\n")
		for i, m := range list {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, m.Text)
		}
		return strings.TrimRight(sb.String(), "\n"), nil
	case cmdMore:
		chunk, ok := b.pending.PopNext(channelID)
		if !ok {
			return "That was everything.", nil
		}
		if b.pending.HasMore(channelID) {
			chunk += continuationHint
		}
		return chunk, nil
	case cmdStop:
		b.pending.Clear(channelID)
		return "Dropping the rest.", nil
	}
	return "", fmt.Errorf("unhandled command kind %d", cmd.kind)
}

// respond runs the chat path: persona and memory reads, the completion
// round trip including tool dispatch, history bookkeeping, and chunking.
func (b *Bot) respond(ctx context.Context, channelID, author, content string) (string, error) {
	p, err := b.personas.Get(ctx, channelID)
	if err != nil {
		b.cnf.logg.Error("persona read failed", "channel", channelID, "err", err)
		p = store.DefaultPersona()
	}
	mems := b.memoryContext(ctx, channelID, p.MemoryWindow)

	sess := b.session(channelID)
	userMsg := openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: fmt.Sprintf("%s: %s", author, content),
	}
	msgs := make([]openai.ChatCompletionMessage, 0, sess.hist.Len()+8)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: prompt.System(p, mems),
	})
	msgs = append(msgs, sess.hist.Slice()...)
	msgs = append(msgs, userMsg)

	reply, err := b.llm.Complete(ctx, llm.Request{
		Messages:    msgs,
		Tools:       b.registry.Defs(),
		Temperature: float32(p.Temperature),
	})
	if err != nil {
		return "", err
	}
	if len(reply.ToolCalls) > 0 {
		msgs = append(msgs, reply)
		msgs = append(msgs, b.dispatchTools(ctx, reply.ToolCalls)...)
		reply, err = b.llm.Complete(ctx, llm.Request{
			Messages:    msgs,
			Temperature: float32(p.Temperature),
		})
		if err != nil {
			return "", err
		}
	}

	sess.hist.StoreMany(userMsg, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleAssistant,
		Content: reply.Content,
	})
	sess.lastSeen = time.Now()

	chunks := chunker.Split(reply.Content, b.cnf.maxChunkLen)
	if len(chunks) == 0 {
		return "", nil
	}
	first := chunks[0]
	if len(chunks) > 1 {
		b.pending.Enqueue(channelID, chunks[1:])
		first += continuationHint
	} else {
		b.pending.Clear(channelID)
	}
	return first, nil
}

// dispatchTools executes the model's tool calls concurrently and returns
// their result messages in call order. A failed tool degrades to an error
// payload instead of aborting the whole response.
func (b *Bot) dispatchTools(ctx context.Context, calls []openai.ToolCall) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(calls))
	var wg sync.WaitGroup
	for i, tc := range calls {
		wg.Add(1)
		go func(i int, tc openai.ToolCall) {
			defer wg.Done()
			res, err := b.registry.Call(ctx, tc.Function.Name, tc.Function.Arguments)
			if err != nil {
				b.cnf.logg.Error("tool call failed", "tool", tc.Function.Name, "err", err)
				res = `{"error":"tool unavailable"}`
			}
			out[i] = openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    res,
				Name:       tc.Function.Name,
				ToolCallID: tc.ID,
			}
		}(i, tc)
	}
	wg.Wait()
	return out
}

// memoryContext gathers channel memories, topping up with global ones when
// the window allows. Read failures degrade to an empty context.
func (b *Bot) memoryContext(ctx context.Context, channelID string, window int) []store.Memory {
	if window <= 0 {
		return nil
	}
	mems, err := b.memories.List(ctx, channelID, window)
	if err != nil {
		b.cnf.logg.Error("memory read failed", "channel", channelID, "err", err)
		mems = nil
	}
	if len(mems) < window && channelID != store.GlobalChannel {
		global, err := b.memories.List(ctx, store.GlobalChannel, window-len(mems))
		if err == nil {
			mems = append(mems, global...)
		}
	}
	return mems
}

// session returns the channel's live window, creating it on first use.
// LoadForUpdate matters here: lastSeen mutations must land on the stored
// struct, not a copy, or the sweeper sees a frozen timestamp.
func (b *Bot) session(channelID string) *session {
	if s, ok := b.sessions.LoadForUpdate(channelID); ok {
		return s
	}
	s := &session{
		hist:     history.New(b.cnf.historySize),
		lastSeen: time.Now(),
	}
	b.sessions.Store(channelID, s)
	return s
}

func formatPersona(p store.Persona) string {
	return fmt.Sprintf(
		"snark=%.1f formality=%.1f verbosity=%.1f humor=%.1f temperature=%.2f tone=%s window=%d",
		p.Snark, p.Formality, p.Verbosity, p.Humor, p.Temperature, p.Tone, p.MemoryWindow)
}
