package manager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/waveacq/rtadp/internal/config"
	"github.com/waveacq/rtadp/internal/transform"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	cfg := config.ManagerConfig{Name: "m1", WorkerCount: 1}
	return New(cfg, false)
}

func TestBinaryHappyPath(t *testing.T) {
	m := newTestManager(t)
	m.SetProcessing(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.StartWorkerThreads(ctx, []string{"w0"}, func() transform.Transform { return transform.Identity{} })

	item := make([]byte, 4128)
	for i := range item {
		item[i] = byte(i)
	}
	m.Push(item, transform.PriorityLow)

	require.Eventually(t, func() bool { return !m.ResultQueue(transform.PriorityLow).Empty() }, time.Second, 5*time.Millisecond)
	got, err := m.ResultQueue(transform.PriorityLow).Get()
	require.NoError(t, err)
	require.Equal(t, item, got)
}

func TestHPPreferenceWithSlowTransform(t *testing.T) {
	m := newTestManager(t)
	m.SetProcessing(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.StartWorkerThreads(ctx, []string{"w0"}, func() transform.Transform {
		return transform.Delay{Wait: 30 * time.Millisecond, Inner: transform.Identity{}}
	})

	for i := 0; i < 3; i++ {
		m.Push([]byte{byte('L'), byte(i)}, transform.PriorityLow)
	}
	m.Push([]byte{'H'}, transform.PriorityHigh)

	// The worker's current item may already be mid-flight when HP
	// arrives; the next item it picks must still prefer HP over the
	// remaining LP backlog.
	require.Eventually(t, func() bool { return !m.ResultQueue(transform.PriorityHigh).Empty() }, time.Second, 5*time.Millisecond)
	hp, err := m.ResultQueue(transform.PriorityHigh).Get()
	require.NoError(t, err)
	require.Equal(t, []byte{'H'}, hp)

	for i := 0; i < 3; i++ {
		require.Eventually(t, func() bool { return !m.ResultQueue(transform.PriorityLow).Empty() }, time.Second, 5*time.Millisecond)
		lp, err := m.ResultQueue(transform.PriorityLow).Get()
		require.NoError(t, err)
		require.Equal(t, []byte{byte('L'), byte(i)}, lp)
	}
}

func TestCleanQueuesDrainsAllFour(t *testing.T) {
	m := newTestManager(t)
	m.Push([]byte("a"), transform.PriorityLow)
	m.InputQueue(transform.PriorityHigh).Push([]byte("b"))
	m.ResultQueue(transform.PriorityLow).Push([]byte("c"))
	m.ResultQueue(transform.PriorityHigh).Push([]byte("d"))

	m.CleanQueues()
	require.True(t, m.QueuesEmpty())
}

func TestStopDataBlocksEnqueue(t *testing.T) {
	m := newTestManager(t)
	m.SetStopData(true)
	m.Push([]byte("dropped"), transform.PriorityLow)
	require.True(t, m.InputQueue(transform.PriorityLow).Empty())
}

func TestFastStopJoinsWithoutDraining(t *testing.T) {
	m := newTestManager(t)
	m.SetProcessing(false) // worker never drains; fast stop must still return

	ctx := context.Background()
	m.StartWorkerThreads(ctx, []string{"w0"}, func() transform.Transform { return transform.Identity{} })
	for i := 0; i < 50; i++ {
		m.Push([]byte{byte(i)}, transform.PriorityLow)
	}

	done := make(chan error, 1)
	go func() { done <- m.Stop(true) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("fast Stop did not return within 1s")
	}
}
