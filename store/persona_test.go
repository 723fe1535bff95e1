package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cmdrkael/kaelbot/kv"
	"github.com/cmdrkael/kaelbot/store"
)

func newPersonaStore() *store.PersonaStore {
	return store.NewPersonaStore(store.New("persona", store.WithKV(kv.NewMemoryStore())))
}

func f(v float64) *float64 { return &v }
func s(v string) *string   { return &v }
func i(v int) *int         { return &v }

func TestPersonaDefaultsMaterializedOnFirstRead(t *testing.T) {
	ctx := context.Background()
	ps := newPersonaStore()

	p, err := ps.Get(ctx, "chan1")
	require.NoError(t, err)
	require.Equal(t, store.DefaultPersona(), p)

	// The defaults were persisted, so a patch starts from them.
	p2, err := ps.Patch(ctx, "chan1", store.PersonaPatch{Snark: f(8)})
	require.NoError(t, err)
	require.Equal(t, 8.0, p2.Snark)
	require.Equal(t, store.DefaultPersona().Humor, p2.Humor)
}

func TestPersonaClampInvariant(t *testing.T) {
	ctx := context.Background()
	ps := newPersonaStore()

	patches := []store.PersonaPatch{
		{Snark: f(42), Temperature: f(9)},
		{Formality: f(-3), Humor: f(10.5)},
		{Temperature: f(-1), MemoryWindow: i(500)},
		{Verbosity: f(1e9), MemoryWindow: i(-2)},
		{Tone: s("furious")},
	}
	for _, patch := range patches {
		p, err := ps.Patch(ctx, "chan1", patch)
		require.NoError(t, err)
		for _, v := range []float64{p.Snark, p.Formality, p.Verbosity, p.Humor} {
			require.GreaterOrEqual(t, v, 0.0)
			require.LessOrEqual(t, v, 10.0)
		}
		require.GreaterOrEqual(t, p.Temperature, 0.2)
		require.LessOrEqual(t, p.Temperature, 1.2)
		require.GreaterOrEqual(t, p.MemoryWindow, 0)
		require.LessOrEqual(t, p.MemoryWindow, 50)
		require.Contains(t, []string{store.ToneDry, store.ToneWarm, store.ToneClipped, store.ToneMilitary}, p.Tone)
	}
}

func TestPersonaReset(t *testing.T) {
	ctx := context.Background()
	ps := newPersonaStore()

	_, err := ps.Patch(ctx, "chan1", store.PersonaPatch{Snark: f(9), Tone: s(store.ToneMilitary)})
	require.NoError(t, err)
	p, err := ps.Reset(ctx, "chan1")
	require.NoError(t, err)
	require.Equal(t, store.DefaultPersona(), p)

	p, err = ps.Get(ctx, "chan1")
	require.NoError(t, err)
	require.Equal(t, store.DefaultPersona(), p)
}

func TestPersonaChannelsIndependent(t *testing.T) {
	ctx := context.Background()
	ps := newPersonaStore()

	_, err := ps.Patch(ctx, "a", store.PersonaPatch{Snark: f(9)})
	require.NoError(t, err)
	p, err := ps.Get(ctx, "b")
	require.NoError(t, err)
	require.Equal(t, store.DefaultPersona().Snark, p.Snark)
}

func TestPatchField(t *testing.T) {
	patch, err := store.PatchField("snark", "7.5")
	require.NoError(t, err)
	require.NotNil(t, patch.Snark)
	require.Equal(t, 7.5, *patch.Snark)

	patch, err = store.PatchField("Tone", "warm")
	require.NoError(t, err)
	require.Equal(t, "warm", *patch.Tone)

	patch, err = store.PatchField("window", "25")
	require.NoError(t, err)
	require.Equal(t, 25, *patch.MemoryWindow)

	_, err = store.PatchField("snark", "lots")
	require.Error(t, err)
	_, err = store.PatchField("shields", "5")
	require.Error(t, err)
}
