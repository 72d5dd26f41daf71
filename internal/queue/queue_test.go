package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/waveacq/rtadp/internal/cmn"
)

func TestFIFOOrdering(t *testing.T) {
	q := New()
	q.Push([]byte("a"))
	q.Push([]byte("b"))
	q.Push([]byte("c"))

	for _, want := range []string{"a", "b", "c"} {
		got, err := q.Get()
		require.NoError(t, err)
		require.Equal(t, want, string(got))
	}
	require.True(t, q.Empty())
}

func TestFrontDoesNotRemove(t *testing.T) {
	q := New()
	q.Push([]byte("x"))

	front, err := q.Front()
	require.NoError(t, err)
	require.Equal(t, "x", string(front))
	require.Equal(t, 1, q.Size())
}

func TestNotifyAllWakesBlockedWaiters(t *testing.T) {
	q := New()
	done := make(chan error, 1)
	go func() {
		_, err := q.Get()
		done <- err
	}()

	time.Sleep(20 * time.Millisecond) // let the goroutine block on Get
	q.NotifyAll()

	select {
	case err := <-done:
		require.ErrorIs(t, err, cmn.ErrQueueStopped)
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken within 1s of NotifyAll")
	}
}

func TestGetAfterStoppedAndDrained(t *testing.T) {
	q := New()
	q.NotifyAll()
	_, err := q.Get()
	require.ErrorIs(t, err, cmn.ErrQueueStopped)
}

func TestPopAfterStoppedReturnsSilently(t *testing.T) {
	q := New()
	q.NotifyAll()
	q.Pop() // must not block or panic
}

func TestPushAfterStoppedIsDropped(t *testing.T) {
	q := New()
	q.NotifyAll()
	q.Push([]byte("dropped"))
	require.Equal(t, 0, q.Size())
}

func TestTryGetNonBlocking(t *testing.T) {
	q := New()
	_, ok := q.TryGet()
	require.False(t, ok)

	q.Push([]byte("y"))
	item, ok := q.TryGet()
	require.True(t, ok)
	require.Equal(t, "y", string(item))
}

func TestClearDrainsWithoutStopping(t *testing.T) {
	q := New()
	q.Push([]byte("1"))
	q.Push([]byte("2"))
	q.Clear()
	require.True(t, q.Empty())
	require.False(t, q.Stopped())
}
