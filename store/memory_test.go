package store_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cmdrkael/kaelbot/kv"
	"github.com/cmdrkael/kaelbot/store"
)

func newMemoryStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	ms, err := store.NewMemoryStore(context.Background(), store.New("mem", store.WithKV(kv.NewMemoryStore())))
	require.NoError(t, err)
	return ms
}

func TestGlobalChannelSeededOnce(t *testing.T) {
	ctx := context.Background()
	backing := store.New("mem", store.WithKV(kv.NewMemoryStore()))

	ms, err := store.NewMemoryStore(ctx, backing)
	require.NoError(t, err)
	list, err := ms.List(ctx, store.GlobalChannel, 0)
	require.NoError(t, err)
	require.Len(t, list, 5)

	// Re-initializing over existing content must not re-seed.
	_, err = ms.Remember(ctx, store.GlobalChannel, "new fact", "cmdr")
	require.NoError(t, err)
	ms2, err := store.NewMemoryStore(ctx, backing)
	require.NoError(t, err)
	list, err = ms2.List(ctx, store.GlobalChannel, 0)
	require.NoError(t, err)
	require.Len(t, list, 6)
	require.Equal(t, "new fact", list[0].Text)
}

func TestRememberPrepends(t *testing.T) {
	ctx := context.Background()
	ms := newMemoryStore(t)

	_, err := ms.Remember(ctx, "chan1", "older", "a")
	require.NoError(t, err)
	m, err := ms.Remember(ctx, "chan1", "newer", "b")
	require.NoError(t, err)
	require.Greater(t, m.ID, 1)

	list, err := ms.List(ctx, "chan1", 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "newer", list[0].Text)
	require.Equal(t, "older", list[1].Text)
}

func TestForgetByPosition(t *testing.T) {
	ctx := context.Background()
	ms := newMemoryStore(t)
	for _, text := range []string{"one", "two", "three"} {
		_, err := ms.Remember(ctx, "chan1", text, "")
		require.NoError(t, err)
	}

	// List order is three, two, one; position 2 is "two".
	removed, err := ms.Forget(ctx, "chan1", "2")
	require.NoError(t, err)
	require.Equal(t, "two", removed.Text)

	list, err := ms.List(ctx, "chan1", 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestForgetPositionBeatsSubstring(t *testing.T) {
	ctx := context.Background()
	ms := newMemoryStore(t)
	for _, text := range []string{"contains 3 in the text", "middle", "last"} {
		_, err := ms.Remember(ctx, "chan1", text, "")
		require.NoError(t, err)
	}

	// "3" is a valid position (list has 3 entries), so the positional rule
	// wins over the substring match at position 3.
	removed, err := ms.Forget(ctx, "chan1", "3")
	require.NoError(t, err)
	require.Equal(t, "contains 3 in the text", removed.Text)
}

func TestForgetBySubstring(t *testing.T) {
	ctx := context.Background()
	ms := newMemoryStore(t)
	for _, text := range []string{"the Krait needs repairs", "fuel at 30%"} {
		_, err := ms.Remember(ctx, "chan1", text, "")
		require.NoError(t, err)
	}

	removed, err := ms.Forget(ctx, "chan1", "KRAIT")
	require.NoError(t, err)
	require.Equal(t, "the Krait needs repairs", removed.Text)

	_, err = ms.Forget(ctx, "chan1", "anaconda")
	require.ErrorIs(t, err, store.ErrMemoryNotFound)
}

func TestForgetOutOfRangeFallsBackToSubstring(t *testing.T) {
	ctx := context.Background()
	ms := newMemoryStore(t)
	_, err := ms.Remember(ctx, "chan1", "route has 9 jumps", "")
	require.NoError(t, err)

	// "9" is out of range as a position but matches as a substring.
	removed, err := ms.Forget(ctx, "chan1", "9")
	require.NoError(t, err)
	require.Equal(t, "route has 9 jumps", removed.Text)
}

func TestListCapsReadSize(t *testing.T) {
	ctx := context.Background()
	ms := newMemoryStore(t)
	for i := 0; i < 60; i++ {
		_, err := ms.Remember(ctx, "chan1", fmt.Sprintf("fact %d", i), "")
		require.NoError(t, err)
	}

	list, err := ms.List(ctx, "chan1", 0)
	require.NoError(t, err)
	require.Len(t, list, 50)

	list, err = ms.List(ctx, "chan1", 10)
	require.NoError(t, err)
	require.Len(t, list, 10)
	require.Equal(t, "fact 59", list[0].Text)
}
