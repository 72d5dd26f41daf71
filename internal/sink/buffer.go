package sink

import (
	"context"
	"sync"
	"time"

	"github.com/waveacq/rtadp/internal/nlog"
)

// Buffer accumulates Records for one Manager and flushes them through a
// Provider either every interval or once maxRecords is reached
// (SPEC_FULL §3 "Batch record").
type Buffer struct {
	provider    Provider
	managerName string
	interval    time.Duration
	maxRecords  int

	mu      sync.Mutex
	pending []Record
	seq     uint64

	stop chan struct{}
	done chan struct{}
}

// NewBuffer starts a Buffer's background flush timer. Call Stop to flush
// any remainder and halt the timer.
func NewBuffer(provider Provider, managerName string, interval time.Duration, maxRecords int) *Buffer {
	b := &Buffer{
		provider:    provider,
		managerName: managerName,
		interval:    interval,
		maxRecords:  maxRecords,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	go b.run()
	return b
}

// Add appends bytes as the next Record, flushing immediately if the
// buffer has reached maxRecords.
func (b *Buffer) Add(data []byte, priority string) {
	b.mu.Lock()
	b.seq++
	b.pending = append(b.pending, Record{Sequence: b.seq, Priority: priority, Bytes: data})
	full := len(b.pending) >= b.maxRecords
	b.mu.Unlock()
	if full {
		b.flush()
	}
}

func (b *Buffer) run() {
	defer close(b.done)
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	for {
		select {
		case <-b.stop:
			b.flush()
			return
		case <-ticker.C:
			b.flush()
		}
	}
}

func (b *Buffer) flush() {
	b.mu.Lock()
	if len(b.pending) == 0 {
		b.mu.Unlock()
		return
	}
	records := b.pending
	b.pending = nil
	b.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.provider.WriteBatch(ctx, b.managerName, Batch{ManagerName: b.managerName, Records: records}); err != nil {
		nlog.Errorln("sink: flush failed for", b.managerName, ":", err)
	}
}

// Stop flushes any remaining Records and halts the background timer.
func (b *Buffer) Stop() {
	close(b.stop)
	<-b.done
}
