// Package queue implements the BoundedPriorityQueue described in spec
// §4.1: a thread-safe FIFO of byte sequences with blocking consumers and
// a permanent shutdown latch.
package queue

import (
	"container/list"
	"sync"

	"github.com/waveacq/rtadp/internal/cmn"
)

// Queue is a thread-safe FIFO of byte slices. Despite the name
// ("bounded" in the sense of the original design's naming convention),
// it is unbounded in policy (spec §9 "Unbounded queues"): push never
// blocks and never rejects.
type Queue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	items   *list.List
	stopped bool
}

// New returns an empty, running Queue.
func New() *Queue {
	q := &Queue{items: list.New()}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends item to the back of the queue and wakes one waiter.
// Push never blocks and is a no-op (item is dropped) once the queue has
// been stopped.
func (q *Queue) Push(item []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return
	}
	q.items.PushBack(item)
	q.cond.Signal()
}

// Front blocks until the queue is non-empty or stopped, then returns the
// oldest item without removing it. Returns cmn.ErrQueueStopped once
// NotifyAll has latched the stopped flag, even if items remain.
func (q *Queue) Front() ([]byte, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.items.Len() == 0 && !q.stopped {
		q.cond.Wait()
	}
	if q.stopped {
		return nil, cmn.ErrQueueStopped
	}
	return q.items.Front().Value.([]byte), nil
}

// Pop blocks until the queue is non-empty or stopped, then removes and
// discards the oldest item. Unlike Front/Get, Pop returns silently (no
// error) once stopped, per spec §4.1.
func (q *Queue) Pop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.items.Len() == 0 && !q.stopped {
		q.cond.Wait()
	}
	if q.items.Len() == 0 {
		return
	}
	q.items.Remove(q.items.Front())
}

// Get atomically returns and removes the oldest item, blocking until one
// is available or the queue is stopped. Returns cmn.ErrQueueStopped once
// NotifyAll has latched the stopped flag, even if items remain.
func (q *Queue) Get() ([]byte, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.items.Len() == 0 && !q.stopped {
		q.cond.Wait()
	}
	if q.stopped {
		return nil, cmn.ErrQueueStopped
	}
	e := q.items.Front()
	q.items.Remove(e)
	return e.Value.([]byte), nil
}

// TryGet performs a non-blocking Get: it returns ok=false immediately if
// the queue is currently empty, instead of waiting. Used by WorkerThread's
// main loop (spec §4.4 steps 3-5) to test-then-take without suspending.
func (q *Queue) TryGet() (item []byte, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.items.Len() == 0 {
		return nil, false
	}
	e := q.items.Front()
	q.items.Remove(e)
	return e.Value.([]byte), true
}

// Size returns the current item count.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Empty reports whether the queue currently holds no items.
func (q *Queue) Empty() bool {
	return q.Size() == 0
}

// NotifyAll wakes every blocked waiter and permanently latches the
// stopped flag; subsequent Front/Get calls fail with ErrQueueStopped and
// Pop returns silently. Idempotent.
func (q *Queue) NotifyAll() {
	q.mu.Lock()
	q.stopped = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Stopped reports whether NotifyAll has been called.
func (q *Queue) Stopped() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stopped
}

// Clear atomically drains the queue without stopping it, used by
// WorkerManager.clean_queues (spec §4.5).
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items.Init()
}
