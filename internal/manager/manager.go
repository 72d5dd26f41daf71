// Package manager implements WorkerManager (spec §4.5): the owner of a
// Manager's four queues and its worker pool. A Manager holds no
// monitoring emitter; package monitor builds one over a Manager when a
// snapshot is requested.
package manager

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/waveacq/rtadp/internal/config"
	"github.com/waveacq/rtadp/internal/dedupe"
	"github.com/waveacq/rtadp/internal/nlog"
	"github.com/waveacq/rtadp/internal/queue"
	"github.com/waveacq/rtadp/internal/transform"
	"github.com/waveacq/rtadp/internal/worker"
)

const drainPollInterval = 50 * time.Millisecond

// Manager owns one Manager's worker pool and queues (spec §4.5).
type Manager struct {
	name string
	cfg  config.ManagerConfig

	lpIn, hpIn   *queue.Queue
	lpOut, hpOut *queue.Queue

	processing atomic.Bool
	stopData   atomic.Bool

	dedupe *dedupe.Tracker // nil when disabled

	mu      sync.Mutex
	workers []*worker.Thread
	group   *errgroup.Group
	cancel  context.CancelFunc
}

// New constructs an idle Manager for cfg. Call StartWorkerThreads to
// populate its worker pool.
func New(cfg config.ManagerConfig, dedupeEnabled bool) *Manager {
	m := &Manager{
		name:  cfg.Name,
		cfg:   cfg,
		lpIn:  queue.New(),
		hpIn:  queue.New(),
		lpOut: queue.New(),
		hpOut: queue.New(),
	}
	if dedupeEnabled {
		m.dedupe = dedupe.New(1 << 20)
	}
	return m
}

// Name returns the Manager's configured name.
func (m *Manager) Name() string { return m.name }

// InputQueue returns the input queue for priority (worker.Pool).
func (m *Manager) InputQueue(priority transform.Priority) *queue.Queue {
	if priority == transform.PriorityHigh {
		return m.hpIn
	}
	return m.lpIn
}

// ResultQueue returns the result queue for priority (worker.Pool).
func (m *Manager) ResultQueue(priority transform.Priority) *queue.Queue {
	if priority == transform.PriorityHigh {
		return m.hpOut
	}
	return m.lpOut
}

// Processing reports the current processing gate (worker.Pool).
func (m *Manager) Processing() bool { return m.processing.Load() }

// StopData reports the current stop_data gate.
func (m *Manager) StopData() bool { return m.stopData.Load() }

// Dedupe reports whether item looks like a reprocessing, when dedupe
// tracking is enabled; always false otherwise (worker.Pool).
func (m *Manager) Dedupe(item []byte) bool {
	if m.dedupe == nil {
		return false
	}
	return m.dedupe.SeenBefore(item)
}

// Push enqueues item into the given priority's input queue, unless
// stop_data is set (invariant 3).
func (m *Manager) Push(item []byte, priority transform.Priority) {
	if m.stopData.Load() {
		return
	}
	m.InputQueue(priority).Push(item)
}

// ResultSocketConfig returns the Manager's configured result-socket
// shape, read by the Supervisor's result publisher.
func (m *Manager) ResultSocketConfig() config.ManagerConfig { return m.cfg }

// StartWorkerThreads constructs one WorkerThread per entry of names, each
// with its own Transform from factory, and launches them under an
// errgroup supervised by ctx.
func (m *Manager) StartWorkerThreads(ctx context.Context, names []string, factory transform.Factory) {
	m.mu.Lock()
	defer m.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	g, gctx := errgroup.WithContext(runCtx)
	m.group = g

	for _, name := range names {
		t := worker.New(name, m, factory())
		m.workers = append(m.workers, t)
		g.Go(func() error { return t.Run(gctx) })
	}
	nlog.Infoln(m.name, "started", len(names), "worker threads")
}

// SetProcessing toggles the processing gate (spec §4.5).
func (m *Manager) SetProcessing(v bool) { m.processing.Store(v) }

// SetStopData toggles the input-enqueue gate (spec §4.5).
func (m *Manager) SetStopData(v bool) { m.stopData.Store(v) }

// CleanQueues drains all four queues atomically; called only from the
// reset command (spec §4.5).
func (m *Manager) CleanQueues() {
	m.lpIn.Clear()
	m.hpIn.Clear()
	m.lpOut.Clear()
	m.hpOut.Clear()
}

// QueuesEmpty reports whether all four queues are currently empty, used
// by cleanedshutdown's drain spin-wait (spec §4.6).
func (m *Manager) QueuesEmpty() bool {
	return m.lpIn.Empty() && m.hpIn.Empty() && m.lpOut.Empty() && m.hpOut.Empty()
}

// Stop joins all worker threads. If fast, it notifies all queues
// immediately (no drain guarantee); otherwise it waits until all four
// queues are empty before notifying, so every already-enqueued item is
// processed and published first (spec §4.5).
func (m *Manager) Stop(fast bool) error {
	if !fast {
		for !m.QueuesEmpty() {
			time.Sleep(drainPollInterval)
		}
	}
	m.lpIn.NotifyAll()
	m.hpIn.NotifyAll()
	m.lpOut.NotifyAll()
	m.hpOut.NotifyAll()

	m.mu.Lock()
	cancel, g := m.cancel, m.group
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if g == nil {
		return nil
	}
	return g.Wait()
}

// Workers returns the Manager's worker pool, for monitoring snapshots.
func (m *Manager) Workers() []*worker.Thread {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*worker.Thread, len(m.workers))
	copy(out, m.workers)
	return out
}

// QueueSizes returns the current size of all four queues, for
// monitoring snapshots (lpIn, hpIn, lpOut, hpOut).
func (m *Manager) QueueSizes() (lpIn, hpIn, lpOut, hpOut int) {
	return m.lpIn.Size(), m.hpIn.Size(), m.lpOut.Size(), m.hpOut.Size()
}
