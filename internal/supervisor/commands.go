package supervisor

import (
	"encoding/json"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/waveacq/rtadp/internal/cmn"
	"github.com/waveacq/rtadp/internal/manager"
	"github.com/waveacq/rtadp/internal/monitor"
	"github.com/waveacq/rtadp/internal/nlog"
	"github.com/waveacq/rtadp/internal/transport"
)

var cmdJSON = jsoniter.ConfigCompatibleWithStandardLibrary

const commandHeaderType = 0

// commandEnvelope mirrors the JSON command/monitoring envelope (spec
// §6), with Body left raw since its shape depends on Subtype.
type commandEnvelope struct {
	Header struct {
		Type      int     `json:"type"`
		Subtype   string  `json:"subtype"`
		Time      float64 `json:"time"`
		PIDSource string  `json:"pidsource"`
		PIDTarget string  `json:"pidtarget"`
		Priority  string  `json:"priority"`
	} `json:"header"`
	Body json.RawMessage `json:"body"`
}

// runCommandLoop is the command loop's main loop (spec §4.6 "Command
// loop"): receive JSON messages, filter by pidtarget, dispatch by
// subtype.
func (s *Supervisor) runCommandLoop() {
	for s.continueAll.Load() {
		msg, err := s.command.Recv()
		if err != nil {
			if cmn.Is(err, cmn.KindTransportRecvTimeout) {
				continue
			}
			nlog.Errorln("command loop:", err)
			continue
		}
		var env commandEnvelope
		if err := cmdJSON.Unmarshal(msg, &env); err != nil {
			nlog.Warningln("command loop: malformed command envelope:", err)
			continue
		}
		if env.Header.Type != commandHeaderType {
			continue
		}
		if env.Header.PIDTarget != s.cfg.ProcessName && env.Header.PIDTarget != "all" && env.Header.PIDTarget != "*" {
			continue
		}
		s.dispatch(env)
	}
}

// dispatch implements spec §4.6's command subtype table.
func (s *Supervisor) dispatch(env commandEnvelope) {
	switch env.Header.Subtype {
	case "start":
		s.startCustom()
		s.forEachManager(func(m *manager.Manager) { m.SetProcessing(true) })
		s.stopData.Store(false)
		s.setStatus(StatusProcessing)
	case "stop":
		s.stopData.Store(true)
		s.forEachManager(func(m *manager.Manager) { m.SetProcessing(false) })
		s.setStatus(StatusWaiting)
	case "startprocessing":
		s.forEachManager(func(m *manager.Manager) { m.SetProcessing(true) })
		s.setStatus(StatusProcessing)
	case "stopprocessing":
		s.forEachManager(func(m *manager.Manager) { m.SetProcessing(false) })
		s.setStatus(StatusWaiting)
	case "startdata":
		s.stopData.Store(false)
	case "stopdata":
		s.stopData.Store(true)
	case "reset":
		s.stopData.Store(true)
		s.forEachManager(func(m *manager.Manager) { m.SetProcessing(false) })
		s.forEachManager(func(m *manager.Manager) { m.CleanQueues() })
		s.setStatus(StatusWaiting)
	case "shutdown":
		s.setStatus(StatusShutdown)
		s.StopAll(false)
	case "cleanedshutdown":
		s.cleanedShutdown()
	case "getstatus":
		s.emitStatus(env.Header.PIDSource)
	default:
		nlog.Warningln("command loop: unknown subtype", env.Header.Subtype)
	}
}

func (s *Supervisor) forEachManager(fn func(*manager.Manager)) {
	for _, m := range s.managers {
		fn(m)
	}
}

// startCustom sends a DefaultA0 frame followed (after 100ms) by a
// StartAcq frame on the control socket (spec §4.6 "Control frames").
func (s *Supervisor) startCustom() {
	if s.ctrl == nil {
		return
	}
	if err := s.ctrl.SendStart(s.runID); err != nil {
		nlog.Errorln("start_custom: failed to send control frames:", err)
	}
}

// stopCustom sends a StopAcq frame on the control socket.
func (s *Supervisor) stopCustom() {
	if s.ctrl == nil {
		return
	}
	if err := s.ctrl.SendStop(s.runID); err != nil {
		nlog.Errorln("stop_custom: failed to send control frame:", err)
	}
}

// cleanedShutdown implements the cleanedshutdown subtype (spec §4.6):
// drain every Manager's queues before proceeding as a plain shutdown.
func (s *Supervisor) cleanedShutdown() {
	if s.Status() != StatusProcessing {
		nlog.Warningln("cleanedshutdown received while not Processing; proceeding as shutdown immediately")
		s.setStatus(StatusShutdown)
		s.StopAll(false)
		return
	}
	s.setStatus(StatusEndingProcessing)
	s.stopData.Store(true)
	s.forEachManager(func(m *manager.Manager) { m.SetStopData(true) })

	for {
		allEmpty := true
		for _, m := range s.managers {
			if !m.QueuesEmpty() {
				allEmpty = false
				break
			}
		}
		if allEmpty {
			break
		}
		time.Sleep(cleanedShutdownPollInterval)
	}

	s.setStatus(StatusShutdown)
	s.StopAll(false)
}

// emitStatus asks every Manager's monitoring emitter to emit a snapshot
// addressed to pidtarget (spec §4.7).
func (s *Supervisor) emitStatus(pidtarget string) {
	for _, m := range s.managers {
		snap := monitor.New(m).Gather()
		env := monitor.BuildEnvelope(s.cfg.ProcessName, pidtarget, snap)
		data, err := monitor.Marshal(env)
		if err != nil {
			nlog.Errorln("getstatus: failed to marshal snapshot:", err)
			continue
		}
		if err := s.monitorSock.Send(data); err != nil {
			nlog.Errorln("getstatus: failed to send snapshot:", err)
		}
	}
}

// StopAll performs the shutdown subtype's effect: gate data and
// processing closed, notify/join every Manager (fast or draining),
// close every owned socket, and flush any remaining sink buffers.
// Grounded on stop_all (original_source Supervisor.cpp), which closes
// the data/processing gates before draining rather than after.
func (s *Supervisor) StopAll(fast bool) {
	s.continueAll.Store(false)
	s.stopData.Store(true)
	s.forEachManager(func(m *manager.Manager) {
		m.SetStopData(true)
		m.SetProcessing(false)
	})
	if s.cancel != nil {
		s.cancel()
	}
	for name, m := range s.managers {
		if err := m.Stop(fast); err != nil {
			nlog.Errorln("manager", name, "stop error:", err)
		}
	}
	s.stopCustom()
	for _, buf := range s.buffers {
		buf.Stop()
	}
	for _, provider := range s.sinks {
		if err := provider.Close(); err != nil {
			nlog.Errorln("sink close error:", err)
		}
	}
	for _, ep := range []*transport.Endpoint{s.lpData, s.hpData, s.command, s.monitorSock} {
		if err := ep.Close(); err != nil {
			nlog.Warningln("close error:", err)
		}
	}
	if s.ctrl != nil {
		_ = s.ctrl.Close()
	}
	for _, rs := range s.resultEndpoints {
		if err := rs.lp.Close(); err != nil {
			nlog.Warningln("close error:", err)
		}
		if err := rs.hp.Close(); err != nil {
			nlog.Warningln("close error:", err)
		}
	}
}
