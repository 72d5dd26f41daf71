// Package worker implements WorkerThread (spec §4.4): one goroutine that
// pulls from its Manager's input queues with HP preference, runs a
// Transform, publishes non-empty outputs, and maintains rate stats.
package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/waveacq/rtadp/internal/cmn"
	"github.com/waveacq/rtadp/internal/nlog"
	"github.com/waveacq/rtadp/internal/queue"
	"github.com/waveacq/rtadp/internal/transform"
	"github.com/waveacq/rtadp/internal/xact"
)

// State is one of WorkerThread's observable run states (spec §4.4
// "States").
type State int32

const (
	StateStarting State = 1 << iota
	StateWaitingForData
	StateWaitingForProcessing
	StateProcessing
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "Starting"
	case StateWaitingForData:
		return "WaitingForData"
	case StateWaitingForProcessing:
		return "WaitingForProcessing"
	case StateProcessing:
		return "Processing"
	case StateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// Pool is the subset of WorkerManager a WorkerThread needs: its name, its
// four queues, its processing gate, and its dedupe check. Defined here (rather than
// importing package manager) to avoid an import cycle, since manager
// constructs WorkerThreads.
type Pool interface {
	Name() string
	InputQueue(priority transform.Priority) *queue.Queue
	ResultQueue(priority transform.Priority) *queue.Queue
	Processing() bool
	Dedupe(item []byte) (seenBefore bool)
}

const tick = 10 * time.Millisecond

var (
	rateGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rtadp_worker_rate_hz",
		Help: "Items processed per second by a worker, over the last 1s window.",
	}, []string{"manager", "worker"})
	processedTotal = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rtadp_worker_processed_total",
		Help: "Cumulative items processed by a worker since it started.",
	}, []string{"manager", "worker"})
)

func init() {
	prometheus.MustRegister(rateGauge, processedTotal)
}

// Thread is one WorkerThread instance: a dedicated goroutine bound to a
// Transform and a Pool.
type Thread struct {
	xact.Base

	name      string
	pool      Pool
	transform transform.Transform

	processedCount atomic.Int64 // since last rate tick
	totalProcessed atomic.Int64
	state          atomic.Int32
}

// New constructs a Thread bound to pool and transform, in StateStarting.
func New(name string, pool Pool, tr transform.Transform) *Thread {
	t := &Thread{name: name, pool: pool, transform: tr}
	t.Base.Init(name)
	t.state.Store(int32(StateStarting))
	return t
}

// Name returns the worker's configured name.
func (t *Thread) Name() string { return t.name }

// State returns the worker's current observable state.
func (t *Thread) State() State { return State(t.state.Load()) }

// TotalProcessed returns the cumulative processed count since New.
func (t *Thread) TotalProcessed() int64 { return t.totalProcessed.Load() }

// Run executes the main loop (spec §4.4) until ctx is cancelled or the
// input queues report QueueStopped. Intended to be run in its own
// goroutine, supervised by an errgroup.Group in WorkerManager.
func (t *Thread) Run(ctx context.Context) error {
	defer t.state.Store(int32(StateTerminated))
	defer t.Base.Finish()

	rateTicker := time.NewTicker(time.Second)
	defer rateTicker.Stop()
	loopTicker := time.NewTicker(tick)
	defer loopTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-rateTicker.C:
			t.logRate()
		case <-loopTicker.C:
			if stopped, err := t.step(); stopped {
				return err
			}
		}
	}
}

// step performs one iteration of the main loop (spec §4.4 steps 2-8).
// It returns stopped=true once an input queue reports QueueStopped,
// signalling the thread should exit cleanly.
func (t *Thread) step() (stopped bool, err error) {
	if !t.pool.Processing() {
		t.state.Store(int32(StateWaitingForProcessing))
		return false, nil
	}

	hp := t.pool.InputQueue(transform.PriorityHigh)
	if item, ok := hp.TryGet(); ok {
		t.process(item, transform.PriorityHigh)
		return false, nil
	}
	if hp.Stopped() {
		return true, nil
	}

	lp := t.pool.InputQueue(transform.PriorityLow)
	if item, ok := lp.TryGet(); ok {
		t.process(item, transform.PriorityLow)
		return false, nil
	}
	if lp.Stopped() {
		return true, nil
	}

	t.state.Store(int32(StateWaitingForData))
	return false, nil
}

func (t *Thread) process(item []byte, priority transform.Priority) {
	t.state.Store(int32(StateProcessing))

	if t.pool.Dedupe(item) {
		nlog.Warningln(t.name, "possible reprocessing of an already-seen item")
	}

	output := t.safeProcess(item, priority)
	if len(output) > 0 {
		t.pool.ResultQueue(priority).Push(output)
	}

	t.processedCount.Add(1)
	t.totalProcessed.Add(1)
	processedTotal.WithLabelValues(t.pool.Name(), t.name).Set(float64(t.totalProcessed.Load()))
}

// safeProcess contains a Transform panic, converting it into the empty
// output + logged warning contract spec §7 requires for TransformError.
func (t *Thread) safeProcess(item []byte, priority transform.Priority) (output []byte) {
	defer func() {
		if r := recover(); r != nil {
			nlog.Errorln(t.name, cmn.WrapError(cmn.KindTransformError, errorFromRecover(r), "transform panicked"))
			output = nil
		}
	}()
	return t.transform.Process(item, priority)
}

func errorFromRecover(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return cmn.NewError(cmn.KindTransformError, "panic: non-error value recovered")
}

func (t *Thread) logRate() {
	n := t.processedCount.Swap(0)
	lp := t.pool.InputQueue(transform.PriorityLow).Size()
	hp := t.pool.InputQueue(transform.PriorityHigh).Size()
	rateGauge.WithLabelValues(t.pool.Name(), t.name).Set(float64(n))
	nlog.Infof("%s Rate Hz %d Current %d Total %d Queues %d %d",
		t.name, n, n, t.totalProcessed.Load(), lp, hp)
}
