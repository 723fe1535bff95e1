package heartbeat_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cmdrkael/kaelbot/heartbeat"
	"github.com/cmdrkael/kaelbot/kv"
	"github.com/cmdrkael/kaelbot/store"
)

func newStatusStore() *store.Store {
	return store.New("status", store.WithKV(kv.NewMemoryStore()))
}

func TestCheckNeverStarted(t *testing.T) {
	_, state, err := heartbeat.Check(context.Background(), newStatusStore(), 0)
	require.NoError(t, err)
	require.Equal(t, heartbeat.StateNeverStarted, state)
}

func TestPublisherWritesImmediately(t *testing.T) {
	st := newStatusStore()
	p := heartbeat.New(st, heartbeat.WithInterval(time.Hour))
	p.SetReady(true)
	p.Start()
	defer p.Stop()

	beat, state, err := heartbeat.Check(context.Background(), st, 0)
	require.NoError(t, err)
	require.Equal(t, heartbeat.StateFresh, state)
	require.Equal(t, os.Getpid(), beat.PID)
	require.True(t, beat.Ready)
	require.NotEmpty(t, beat.Instance)
}

func TestPublisherBeatGoesStaleInFileMode(t *testing.T) {
	st := store.New("status", store.WithFile(filepath.Join(t.TempDir(), "status.json")))
	defer st.Close()
	p := heartbeat.New(st, heartbeat.WithInterval(time.Hour), heartbeat.WithTTL(50*time.Millisecond))
	p.Start()
	p.Stop()

	// A dead bot's last beat must stay readable so it classifies as
	// stale, not never-started.
	time.Sleep(100 * time.Millisecond)
	beat, state, err := heartbeat.Check(context.Background(), st, 50*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, heartbeat.StateStale, state)
	require.Equal(t, os.Getpid(), beat.PID)
}

func TestCheckStale(t *testing.T) {
	ctx := context.Background()
	st := newStatusStore()
	old := heartbeat.Beat{Timestamp: time.Now().Add(-5 * time.Minute), PID: 1}
	require.NoError(t, st.Put(ctx, heartbeat.Key, old, 0))

	_, state, err := heartbeat.Check(ctx, st, 2*time.Minute)
	require.NoError(t, err)
	require.Equal(t, heartbeat.StateStale, state)
}
