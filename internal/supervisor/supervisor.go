// Package supervisor implements the top-level state machine and I/O
// perimeter described in spec §4.6: listeners, the command loop, the
// result publisher, and signal mapping.
package supervisor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teris-io/shortid"

	"github.com/waveacq/rtadp/internal/cmn"
	"github.com/waveacq/rtadp/internal/config"
	"github.com/waveacq/rtadp/internal/ctrlclient"
	"github.com/waveacq/rtadp/internal/manager"
	"github.com/waveacq/rtadp/internal/monitor"
	"github.com/waveacq/rtadp/internal/nlog"
	"github.com/waveacq/rtadp/internal/sink"
	"github.com/waveacq/rtadp/internal/transform"
	"github.com/waveacq/rtadp/internal/transport"
)

// Status is one value of the Supervisor's textual status (spec §3
// "Supervisor state").
type Status string

const (
	StatusInitialised     Status = "Initialised"
	StatusWaiting         Status = "Waiting"
	StatusProcessing      Status = "Processing"
	StatusEndingProcessing Status = "EndingProcessing"
	StatusShutdown        Status = "Shutdown"
)

const cleanedShutdownPollInterval = 200 * time.Millisecond

// Supervisor is a named process instance holding the run-wide state
// machine, every Manager, and the transport sockets it owns (spec §3
// "Supervisor state").
type Supervisor struct {
	cfg *config.Config

	statusMu sync.RWMutex
	status   Status

	continueAll atomic.Bool
	stopData    atomic.Bool

	runID     uint16
	runToken  string

	managers   map[string]*manager.Manager
	managerOrd []string // preserves config order for round-robin publishing

	ctrl *ctrlclient.Client

	lpData, hpData, command, monitorSock *transport.Endpoint
	resultEndpoints map[string]*resultSockets

	sinks   map[string]sink.Provider
	buffers map[string]*sink.Buffer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a Supervisor from cfg, in StatusInitialised. Call Start
// to open sockets, build Managers, and launch listener/publisher/command
// goroutines.
func New(cfg *config.Config) *Supervisor {
	s := &Supervisor{
		cfg:             cfg,
		status:          StatusInitialised,
		runID:           cfg.RunID,
		managers:        make(map[string]*manager.Manager),
		sinks:           make(map[string]sink.Provider),
		buffers:         make(map[string]*sink.Buffer),
		resultEndpoints: make(map[string]*resultSockets),
	}
	s.continueAll.Store(true)
	if s.runID == 0 {
		if token, err := shortid.Generate(); err == nil {
			s.runToken = token
		}
	}
	for _, mc := range cfg.Managers {
		s.managers[mc.Name] = manager.New(mc, cfg.DedupeEnabled)
		s.managerOrd = append(s.managerOrd, mc.Name)
	}
	return s
}

// Status returns the Supervisor's current status.
func (s *Supervisor) Status() Status {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

// SupervisorStatus implements monitor.StatusProvider.
func (s *Supervisor) SupervisorStatus() string { return string(s.Status()) }

func (s *Supervisor) setStatus(v Status) {
	s.statusMu.Lock()
	s.status = v
	s.statusMu.Unlock()
	nlog.Infoln(s.cfg.ProcessName, "status ->", v)
}

// ManagerSnapshots implements monitor.StatusProvider.
func (s *Supervisor) ManagerSnapshots() map[string]monitor.ManagerSnap {
	out := make(map[string]monitor.ManagerSnap, len(s.managers))
	for name, m := range s.managers {
		out[name] = monitor.New(m).Gather()
	}
	return out
}

// Start opens every configured socket, builds each Manager's worker
// pool and sink buffer, and launches the listener, publisher, and
// command-loop goroutines. Start does not block.
func (s *Supervisor) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	if err := s.openSockets(s.ctx); err != nil {
		return err
	}
	if s.cfg.CtrlURI != "" {
		s.ctrl = ctrlclient.New(s.ctx, s.cfg.CtrlURI)
	}
	if err := s.openSinks(s.ctx); err != nil {
		return err
	}

	for _, mc := range s.cfg.Managers {
		m := s.managers[mc.Name]
		m.StartWorkerThreads(s.ctx, mc.WorkerNamesOrDefault(), defaultTransformFactory())
		if provider, ok := s.sinks[mc.Name]; ok {
			s.buffers[mc.Name] = sink.NewBuffer(provider, mc.Name,
				time.Duration(s.cfg.FlushIntervalMillis)*time.Millisecond, s.cfg.FlushMaxRecords)
		}
	}

	s.setStatus(StatusWaiting)

	s.wg.Add(3)
	go s.runListener(transform.PriorityLow)
	go s.runListener(transform.PriorityHigh)
	go s.runPublisher()
	go s.runCommandLoop()

	if s.cfg.MonitorHTTPAddr != "" {
		monitor.ServeHTTP(s.cfg.MonitorHTTPAddr, s)
	}

	return nil
}

// defaultTransformFactory returns the demo pipeline's transform: the
// identity transform, which is what every concrete scenario in spec §8
// exercises. A real deployment injects its own Factory (the opaque
// inference kernel, spec §4.3) in place of this default.
func defaultTransformFactory() transform.Factory {
	return func() transform.Transform { return transform.Identity{} }
}

func (s *Supervisor) openSinks(ctx context.Context) error {
	for _, mc := range s.cfg.Managers {
		backend := mc.SinkBackend
		if backend == "" {
			backend = s.cfg.SinkBackend
		}
		if backend == "" {
			continue
		}
		p, err := s.buildProvider(ctx, backend)
		if err != nil {
			return err
		}
		s.sinks[mc.Name] = p
	}
	return nil
}

func (s *Supervisor) buildProvider(ctx context.Context, backend string) (sink.Provider, error) {
	switch backend {
	case "local":
		local, err := sink.NewLocal(s.cfg.SinkDir, s.cfg.SinkCompress)
		if err != nil {
			return nil, err
		}
		if err := sink.WriteSchema(s.cfg.SinkDir+"/schema.xml", sink.DefaultSchema()); err != nil {
			nlog.Warningln("failed to write sink schema descriptor:", err)
		}
		if s.cfg.SinkECEnabled {
			return sink.NewECWrapper(local, s.cfg.SinkECDataShards, s.cfg.SinkECParityShards)
		}
		return local, nil
	case "s3":
		return sink.NewS3(ctx, s.cfg.S3Bucket, s.cfg.S3Prefix)
	case "hdfs":
		return sink.NewHDFS(s.cfg.HDFSAddr, s.cfg.HDFSDir)
	default:
		return nil, cmn.NewError(cmn.KindConfigurationInvalid, "unknown sink backend "+backend)
	}
}

func (s *Supervisor) openSockets(ctx context.Context) error {
	var err error
	role := func(t config.SocketType) transport.Role {
		if t == config.SocketPubSub {
			return transport.RoleConnect
		}
		return transport.RoleBind
	}
	pattern := func(t config.SocketType) transport.Pattern {
		if t == config.SocketPubSub {
			return transport.PubSub
		}
		return transport.PushPull
	}

	s.lpData, err = transport.Open(ctx, pattern(s.cfg.DatasocketType), role(s.cfg.DatasocketType), s.cfg.LPDataURI)
	if err != nil {
		return err
	}
	s.hpData, err = transport.Open(ctx, pattern(s.cfg.DatasocketType), role(s.cfg.DatasocketType), s.cfg.HPDataURI)
	if err != nil {
		return err
	}
	s.command, err = transport.Open(ctx, transport.PubSub, transport.RoleConnect, s.cfg.CommandURI)
	if err != nil {
		return err
	}
	s.monitorSock, err = transport.Open(ctx, transport.PushPull, transport.RoleConnect, s.cfg.MonitorURI)
	if err != nil {
		return err
	}

	for _, mc := range s.cfg.Managers {
		if mc.ResultSocketType == "" || mc.ResultSocketType == config.SocketNone {
			continue
		}
		rs := &resultSockets{}
		rs.lp, err = transport.Open(ctx, pattern(mc.ResultSocketType), role(mc.ResultSocketType), mc.ResultLPURI)
		if err != nil {
			return err
		}
		rs.hp, err = transport.Open(ctx, pattern(mc.ResultSocketType), role(mc.ResultSocketType), mc.ResultHPURI)
		if err != nil {
			return err
		}
		s.resultEndpoints[mc.Name] = rs
	}
	return nil
}

// resultSockets holds one Manager's LP/HP result-publishing endpoints,
// owned and written only by the Supervisor's result publisher (spec §5
// "Shared-resource policy").
type resultSockets struct {
	lp, hp *transport.Endpoint
}

// RunID returns the numeric run identifier carried in control frames,
// or 0 if unset (see runToken for the human-readable correlate).
func (s *Supervisor) RunID() uint16 { return s.runID }
