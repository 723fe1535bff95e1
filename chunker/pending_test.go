package chunker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPendingExhaustion(t *testing.T) {
	p := NewPending(time.Minute)
	p.Enqueue("chan", []string{"a", "b", "c"})

	for _, want := range []string{"a", "b", "c"} {
		require.True(t, p.HasMore("chan"))
		got, ok := p.PopNext("chan")
		require.True(t, ok)
		require.Equal(t, want, got)
	}
	require.False(t, p.HasMore("chan"))
	_, ok := p.PopNext("chan")
	require.False(t, ok)
}

func TestPendingExpiry(t *testing.T) {
	p := NewPending(30 * time.Millisecond)
	p.Enqueue("chan", []string{"a", "b"})
	time.Sleep(50 * time.Millisecond)
	require.False(t, p.HasMore("chan"))
	_, ok := p.PopNext("chan")
	require.False(t, ok)
}

func TestPendingPopRefreshesExpiry(t *testing.T) {
	p := NewPending(60 * time.Millisecond)
	p.Enqueue("chan", []string{"a", "b", "c"})
	time.Sleep(40 * time.Millisecond)
	_, ok := p.PopNext("chan")
	require.True(t, ok)
	// Without the refresh the original deadline would have passed by now.
	time.Sleep(40 * time.Millisecond)
	require.True(t, p.HasMore("chan"))
}

func TestPendingEmptyEnqueueClears(t *testing.T) {
	p := NewPending(time.Minute)
	p.Enqueue("chan", []string{"a"})
	p.Enqueue("chan", nil)
	require.False(t, p.HasMore("chan"))
}

func TestPendingClear(t *testing.T) {
	p := NewPending(time.Minute)
	p.Enqueue("chan", []string{"a", "b"})
	p.Clear("chan")
	require.False(t, p.HasMore("chan"))
}
