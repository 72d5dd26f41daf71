// Package monitor implements MonitoringEmitter (spec §4.7): gathering a
// per-Manager status snapshot and serializing it as the JSON monitoring
// envelope (spec §6).
package monitor

import (
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/waveacq/rtadp/internal/manager"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var queueSizeGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
	Name: "rtadp_queue_size",
	Help: "Current item count of a Manager's queue.",
}, []string{"manager", "priority", "direction"})

func init() {
	prometheus.MustRegister(queueSizeGauge)
}

// WorkerSnap is one WorkerThread's portion of a Manager snapshot: id,
// current state, and total processed. The current rate is not part of
// the snapshot; it is exported only through the rtadp_worker_rate_hz
// gauge.
type WorkerSnap struct {
	ID             string `json:"id"`
	State          string `json:"state"`
	TotalProcessed int64  `json:"total_processed"`
}

// ManagerSnap is the payload MonitoringEmitter gathers on getstatus
// (spec §4.7).
type ManagerSnap struct {
	Name        string       `json:"name"`
	LPInputSize int          `json:"lp_input_size"`
	HPInputSize int          `json:"hp_input_size"`
	LPResultSize int         `json:"lp_result_size"`
	HPResultSize int         `json:"hp_result_size"`
	Workers     []WorkerSnap `json:"workers"`
}

// Emitter gathers snapshots for one Manager.
type Emitter struct {
	mgr *manager.Manager
}

// New returns an Emitter for mgr.
func New(mgr *manager.Manager) *Emitter { return &Emitter{mgr: mgr} }

// Gather assembles a ManagerSnap and refreshes the queue-size gauges
// consumed by the /metrics HTTP surface (SPEC_FULL §4.7).
func (e *Emitter) Gather() ManagerSnap {
	lpIn, hpIn, lpOut, hpOut := e.mgr.QueueSizes()
	name := e.mgr.Name()
	queueSizeGauge.WithLabelValues(name, "low", "input").Set(float64(lpIn))
	queueSizeGauge.WithLabelValues(name, "high", "input").Set(float64(hpIn))
	queueSizeGauge.WithLabelValues(name, "low", "result").Set(float64(lpOut))
	queueSizeGauge.WithLabelValues(name, "high", "result").Set(float64(hpOut))

	workers := e.mgr.Workers()
	snaps := make([]WorkerSnap, len(workers))
	for i, w := range workers {
		snaps[i] = WorkerSnap{
			ID:             w.Name(),
			State:          w.State().String(),
			TotalProcessed: w.TotalProcessed(),
		}
	}
	return ManagerSnap{
		Name:         name,
		LPInputSize:  lpIn,
		HPInputSize:  hpIn,
		LPResultSize: lpOut,
		HPResultSize: hpOut,
		Workers:      snaps,
	}
}

// Envelope is the command/monitoring JSON envelope (spec §6).
type Envelope struct {
	Header Header `json:"header"`
	Body   any    `json:"body"`
}

// Header is the envelope's header (spec §6).
type Header struct {
	Type      int     `json:"type"`
	Subtype   string  `json:"subtype"`
	Time      float64 `json:"time"`
	PIDSource string  `json:"pidsource"`
	PIDTarget string  `json:"pidtarget"`
	Priority  string  `json:"priority"`
}

const headerTypeInfo = 5

// BuildEnvelope wraps snap as an info-level monitoring envelope
// addressed to pidtarget.
func BuildEnvelope(source, pidtarget string, snap ManagerSnap) Envelope {
	return Envelope{
		Header: Header{
			Type:      headerTypeInfo,
			Subtype:   "getstatus",
			Time:      float64(time.Now().UnixNano()) / 1e9,
			PIDSource: source,
			PIDTarget: pidtarget,
			Priority:  "Low",
		},
		Body: snap,
	}
}

// Marshal encodes env as a JSON monitoring message.
func Marshal(env Envelope) ([]byte, error) {
	return json.Marshal(env)
}
