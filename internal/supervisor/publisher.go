package supervisor

import (
	"time"

	"github.com/waveacq/rtadp/internal/nlog"
	"github.com/waveacq/rtadp/internal/transform"
	"github.com/waveacq/rtadp/internal/transport"
)

const publishInterval = 10 * time.Millisecond

// runPublisher is the result publisher's main loop (spec §4.6 "Result
// publisher"): every tick, for each Manager, prefer an HP-result item
// over an LP-result item, and send whichever is taken on that
// Manager's matching result socket.
func (s *Supervisor) runPublisher() {
	defer s.wg.Done()
	ticker := time.NewTicker(publishInterval)
	defer ticker.Stop()
	for s.continueAll.Load() {
		<-ticker.C
		for _, name := range s.managerOrd {
			s.publishOne(name)
		}
	}
}

func (s *Supervisor) publishOne(managerName string) {
	rs, ok := s.resultEndpoints[managerName]
	if !ok {
		return
	}
	m := s.managers[managerName]

	if item, got := m.ResultQueue(transform.PriorityHigh).TryGet(); got {
		s.send(rs.hp, item, managerName, "high")
		return
	}
	if item, got := m.ResultQueue(transform.PriorityLow).TryGet(); got {
		s.send(rs.lp, item, managerName, "low")
	}
}

func (s *Supervisor) send(ep *transport.Endpoint, item []byte, managerName, priority string) {
	if err := ep.Send(item); err != nil {
		nlog.Errorln("publisher: send failed for", managerName, priority, ":", err)
	}
	if buf, ok := s.buffers[managerName]; ok {
		buf.Add(item, priority)
	}
}
