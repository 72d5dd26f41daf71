// Package xact provides a small job-lifecycle embeddable, generalized
// from the teacher's xact.Base/XactTCB pattern: a running/aborted/
// finished state machine with a point-in-time Snap.
package xact

import (
	"sync"
	"sync/atomic"
	"time"
)

// State is one value of a lifecycle's run state.
type State int32

const (
	StateRunning State = iota
	StateAborted
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateAborted:
		return "aborted"
	case StateFinished:
		return "finished"
	default:
		return "running"
	}
}

// Snap is a point-in-time lifecycle snapshot, named after the teacher's
// xact.Snap convention.
type Snap struct {
	ID        string
	State     string
	StartTime time.Time
	EndTime   time.Time
	AbortErr  string
}

// Base is an embeddable job lifecycle: an id, a start time, an atomic
// state, and an abort cause. WorkerThread embeds Base for its Snap
// plumbing (SPEC_FULL §4.4), mirroring XactTCB's embedding of
// xact.BckJog.
type Base struct {
	id        string
	startTime time.Time
	endTime   atomic.Value // time.Time
	state     atomic.Int32

	mu       sync.Mutex
	abortErr error
}

// Init sets id and records the start time. Must be called before any
// other Base method.
func (b *Base) Init(id string) {
	b.id = id
	b.startTime = time.Now()
	b.state.Store(int32(StateRunning))
}

// ID returns the identifier passed to Init.
func (b *Base) ID() string { return b.id }

// State returns the current lifecycle state.
func (b *Base) State() State { return State(b.state.Load()) }

// Running reports whether the lifecycle has neither aborted nor
// finished.
func (b *Base) Running() bool { return b.State() == StateRunning }

// Abort transitions to StateAborted, recording cause (may be nil). A
// second call is a no-op: the first abort cause wins.
func (b *Base) Abort(cause error) bool {
	if !b.state.CompareAndSwap(int32(StateRunning), int32(StateAborted)) {
		return false
	}
	b.mu.Lock()
	b.abortErr = cause
	b.mu.Unlock()
	b.endTime.Store(time.Now())
	return true
}

// Finish transitions to StateFinished if still running. A prior Abort
// is not overwritten.
func (b *Base) Finish() bool {
	if !b.state.CompareAndSwap(int32(StateRunning), int32(StateFinished)) {
		return false
	}
	b.endTime.Store(time.Now())
	return true
}

// Snap returns a point-in-time snapshot of the lifecycle.
func (b *Base) Snap() Snap {
	s := Snap{
		ID:        b.id,
		State:     b.State().String(),
		StartTime: b.startTime,
	}
	if et, ok := b.endTime.Load().(time.Time); ok {
		s.EndTime = et
	}
	b.mu.Lock()
	if b.abortErr != nil {
		s.AbortErr = b.abortErr.Error()
	}
	b.mu.Unlock()
	return s
}
