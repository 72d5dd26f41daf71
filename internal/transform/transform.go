// Package transform defines the WorkerTransform external contract
// (spec §4.3) and a handful of sample implementations used by tests and
// by the runnable demo pipeline.
package transform

import (
	"fmt"
	"time"

	"github.com/waveacq/rtadp/internal/cmn"
	"github.com/waveacq/rtadp/internal/codec"
	"github.com/waveacq/rtadp/internal/nlog"
)

// Priority mirrors the lane a queue item was pulled from.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityHigh
)

// Transform is the pluggable per-thread function that turns an input
// packet into a result (spec §4.3). One instance is bound per
// WorkerThread; a Transform must be reentrant across distinct
// instances but need not be safe for concurrent use by more than one
// goroutine.
type Transform interface {
	// Process must not panic across the boundary: implementations that
	// can fail should recover internally and return nil, logging a
	// warning (spec §7 "TransformError").
	Process(input []byte, priority Priority) []byte
}

// Factory constructs one Transform instance per WorkerThread.
type Factory func() Transform

// Identity returns input unchanged. Used by testable scenario 1 (spec
// §8 "Binary happy path").
type Identity struct{}

func (Identity) Process(input []byte, _ Priority) []byte { return input }

// Delay wraps another Transform, sleeping for Wait before delegating.
// Used to reproduce the HP-preference scenario (spec §8 scenario 2).
type Delay struct {
	Wait  time.Duration
	Inner Transform
}

func (d Delay) Process(input []byte, priority Priority) []byte {
	time.Sleep(d.Wait)
	if d.Inner == nil {
		return input
	}
	return d.Inner.Process(input, priority)
}

// Unpack decodes a waveform body into a compact summary record (count,
// min/max/mean of the unpacked 16-bit samples). It is a stand-in for
// "numerical inference" that exercises the packet codec's waveform-body
// parsing; it is explicitly NOT a reimplementation of the real
// inference kernel (Non-goal: replacing the inference model).
type Unpack struct{}

// Summary is Unpack's result record.
type Summary struct {
	Count int     `json:"count"`
	Min   int32   `json:"min"`
	Max   int32   `json:"max"`
	Mean  float64 `json:"mean"`
}

func (Unpack) Process(input []byte, _ Priority) []byte {
	classified, err := codec.Classify(input[4:])
	if err != nil || classified.Kind != codec.KindWaveform {
		return nil
	}
	const headerAndTypeSize = 14 // 12-byte header + type + subtype bytes
	body := input[4+headerAndTypeSize:]
	_, samples, err := codec.DecodeWaveformBody(body)
	if err != nil {
		nlog.Warningln("unpack transform:", cmn.WrapError(cmn.KindTransformError, err, "decode waveform body"))
		return nil
	}
	if len(samples) == 0 {
		return nil
	}
	var sum int64
	mn, mx := int32(samples[0]), int32(samples[0])
	for _, s := range samples {
		v := int32(s)
		sum += int64(v)
		if v < mn {
			mn = v
		}
		if v > mx {
			mx = v
		}
	}
	summary := Summary{
		Count: len(samples),
		Min:   mn,
		Max:   mx,
		Mean:  float64(sum) / float64(len(samples)),
	}
	return []byte(fmt.Sprintf(`{"count":%d,"min":%d,"max":%d,"mean":%f}`, summary.Count, summary.Min, summary.Max, summary.Mean))
}
