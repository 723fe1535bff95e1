package kaelbot

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"

	"github.com/cmdrkael/kaelbot/cache"
	"github.com/cmdrkael/kaelbot/kv"
	"github.com/cmdrkael/kaelbot/llm"
	"github.com/cmdrkael/kaelbot/store"
	"github.com/cmdrkael/kaelbot/tools"
)

// fakeCompleter replays canned assistant messages in order.
type fakeCompleter struct {
	replies []openai.ChatCompletionMessage
	reqs    []llm.Request
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.Request) (openai.ChatCompletionMessage, error) {
	f.reqs = append(f.reqs, req)
	if len(f.replies) == 0 {
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "o7"}, nil
	}
	next := f.replies[0]
	f.replies = f.replies[1:]
	return next, nil
}

func newTestBot(t *testing.T, fc *fakeCompleter, opts ...Opts) *Bot {
	t.Helper()
	memories, err := store.NewMemoryStore(context.Background(), store.New("mem", store.WithKV(kv.NewMemoryStore())))
	require.NoError(t, err)
	return New(
		store.NewPersonaStore(store.New("persona", store.WithKV(kv.NewMemoryStore()))),
		memories,
		tools.NewRegistry(cache.New(store.New("cache", store.WithKV(kv.NewMemoryStore())))),
		fc,
		opts...,
	)
}

func TestPersonaCommands(t *testing.T) {
	ctx := context.Background()
	b := newTestBot(t, &fakeCompleter{})

	out, err := b.HandleMessage(ctx, "chan1", "cmdr", "persona")
	require.NoError(t, err)
	require.Contains(t, out, "snark=5.0")

	out, err = b.HandleMessage(ctx, "chan1", "cmdr", "persona set snark 9")
	require.NoError(t, err)
	require.Contains(t, out, "snark=9.0")

	out, err = b.HandleMessage(ctx, "chan1", "cmdr", "persona set tone grumpy")
	require.NoError(t, err)
	require.Contains(t, out, "tone=dry")

	out, err = b.HandleMessage(ctx, "chan1", "cmdr", "persona reset")
	require.NoError(t, err)
	require.Contains(t, out, "snark=5.0")
}

func TestMemoryCommands(t *testing.T) {
	ctx := context.Background()
	b := newTestBot(t, &fakeCompleter{})

	out, err := b.HandleMessage(ctx, "chan1", "cmdr", "remember: the Krait is docked")
	require.NoError(t, err)
	require.Contains(t, out, "the Krait is docked")

	out, err = b.HandleMessage(ctx, "chan1", "cmdr", "memories")
	require.NoError(t, err)
	require.Contains(t, out, "1. the Krait is docked")

	out, err = b.HandleMessage(ctx, "chan1", "cmdr", "forget: krait")
	require.NoError(t, err)
	require.Contains(t, out, "Scrubbed")

	out, err = b.HandleMessage(ctx, "chan1", "cmdr", "forget: krait")
	require.NoError(t, err)
	require.Contains(t, out, "Nothing in the log")
}

func TestChatInjectsPersonaAndMemories(t *testing.T) {
	ctx := context.Background()
	fc := &fakeCompleter{}
	b := newTestBot(t, fc)

	_, err := b.HandleMessage(ctx, "chan1", "cmdr", "remember: fuel is low")
	require.NoError(t, err)
	out, err := b.HandleMessage(ctx, "chan1", "cmdr", "how are we doing?")
	require.NoError(t, err)
	require.Equal(t, "o7", out)

	require.Len(t, fc.reqs, 1)
	sys := fc.reqs[0].Messages[0]
	require.Equal(t, openai.ChatMessageRoleSystem, sys.Role)
	require.Contains(t, sys.Content, "CMDR Kael")
	require.Contains(t, sys.Content, "fuel is low")
	require.InDelta(t, 0.7, fc.reqs[0].Temperature, 0.001)
}

func TestChatChunksLongReplies(t *testing.T) {
	ctx := context.Background()
	long := strings.Repeat("A long story paragraph.\n\n", 40)
	fc := &fakeCompleter{replies: []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleAssistant, Content: long},
	}}
	b := newTestBot(t, fc, WithMaxChunkLen(200))

	out, err := b.HandleMessage(ctx, "chan1", "cmdr", "tell me everything")
	require.NoError(t, err)
	require.LessOrEqual(t, len(out), 200+len(continuationHint))
	require.Contains(t, out, "more")
	require.True(t, b.Pending().HasMore("chan1"))

	// Drain via the more command.
	seen := 1
	for b.Pending().HasMore("chan1") {
		out, err = b.HandleMessage(ctx, "chan1", "cmdr", "more")
		require.NoError(t, err)
		require.NotEmpty(t, out)
		seen++
		require.Less(t, seen, 100, "continuation never drains")
	}
	out, err = b.HandleMessage(ctx, "chan1", "cmdr", "more")
	require.NoError(t, err)
	require.Equal(t, "That was everything.", out)
}

func TestSessionActivityRefreshesLastSeen(t *testing.T) {
	ctx := context.Background()
	b := newTestBot(t, &fakeCompleter{})

	_, err := b.HandleMessage(ctx, "chan1", "cmdr", "hello")
	require.NoError(t, err)
	s, ok := b.sessions.LoadForUpdate("chan1")
	require.True(t, ok)
	firstSeen := s.lastSeen

	time.Sleep(20 * time.Millisecond)
	_, err = b.HandleMessage(ctx, "chan1", "cmdr", "still here")
	require.NoError(t, err)

	// The stored session, not a copy, must carry the newer timestamp so
	// the sweeper never drops an active channel.
	s, ok = b.sessions.LoadForUpdate("chan1")
	require.True(t, ok)
	require.True(t, s.lastSeen.After(firstSeen))
}

func TestStopClearsPending(t *testing.T) {
	ctx := context.Background()
	b := newTestBot(t, &fakeCompleter{})
	b.Pending().Enqueue("chan1", []string{"x", "y"})

	out, err := b.HandleMessage(ctx, "chan1", "cmdr", "stop")
	require.NoError(t, err)
	require.Equal(t, "Dropping the rest.", out)
	require.False(t, b.Pending().HasMore("chan1"))
}

func TestToolCallRoundTrip(t *testing.T) {
	ctx := context.Background()
	memories, err := store.NewMemoryStore(ctx, store.New("mem", store.WithKV(kv.NewMemoryStore())))
	require.NoError(t, err)
	registry := tools.NewRegistry(cache.New(store.New("cache", store.WithKV(kv.NewMemoryStore()))))
	registry.Register(&tools.Tool{
		Def: openai.Tool{
			Type:     openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{Name: "edsm_system"},
		},
		Run: func(ctx context.Context, args map[string]any) (any, error) {
			return map[string]any{"name": "Wyrd", "population": 1000}, nil
		},
	})
	fc := &fakeCompleter{replies: []openai.ChatCompletionMessage{
		{
			Role: openai.ChatMessageRoleAssistant,
			ToolCalls: []openai.ToolCall{{
				ID:       "call-1",
				Type:     openai.ToolTypeFunction,
				Function: openai.FunctionCall{Name: "edsm_system", Arguments: `{"system":"Wyrd"}`},
			}},
		},
		{Role: openai.ChatMessageRoleAssistant, Content: "Wyrd is home."},
	}}
	b := New(
		store.NewPersonaStore(store.New("persona", store.WithKV(kv.NewMemoryStore()))),
		memories, registry, fc,
	)

	out, err := b.HandleMessage(ctx, "chan1", "cmdr", "what about Wyrd?")
	require.NoError(t, err)
	require.Equal(t, "Wyrd is home.", out)

	// Second request carries the tool result back to the model.
	require.Len(t, fc.reqs, 2)
	last := fc.reqs[1].Messages[len(fc.reqs[1].Messages)-1]
	require.Equal(t, openai.ChatMessageRoleTool, last.Role)
	require.Equal(t, "call-1", last.ToolCallID)
	require.Contains(t, last.Content, "Wyrd")
}
