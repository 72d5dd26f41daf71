package supervisor

import (
	"os"

	"github.com/karrick/godirwalk"

	"github.com/waveacq/rtadp/internal/cmn"
	"github.com/waveacq/rtadp/internal/codec"
	"github.com/waveacq/rtadp/internal/nlog"
	"github.com/waveacq/rtadp/internal/transform"
)

// runListener is one data listener's main loop (spec §4.6 "Data
// listeners"). Its body depends on cfg.DataflowType.
func (s *Supervisor) runListener(priority transform.Priority) {
	defer s.wg.Done()
	ep := s.lpData
	if priority == transform.PriorityHigh {
		ep = s.hpData
	}
	for s.continueAll.Load() {
		msg, err := ep.Recv()
		if err != nil {
			if cmn.Is(err, cmn.KindTransportRecvTimeout) {
				continue
			}
			nlog.Errorln("listener:", err)
			return
		}
		s.handleMessage(msg, priority)
	}
}

func (s *Supervisor) handleMessage(msg []byte, priority transform.Priority) {
	switch s.cfg.DataflowType {
	case "filename":
		s.handleFilename(msg, priority)
	case "string":
		s.pushToAll(withLengthPrefix(msg), priority)
	default:
		s.handleBinary(msg, priority)
	}
}

// handleBinary implements spec §4.6's binary-case data listener:
// classify and fan out Waveform packets to every Manager's input queue
// at this priority. transport.Endpoint.Recv already strips the wire's
// length prefix, so msg is payload form; it is classified directly, and
// a Waveform is pushed with its 4-byte size prefix restored.
func (s *Supervisor) handleBinary(msg []byte, priority transform.Priority) {
	classified, err := codec.Classify(msg)
	if err != nil {
		nlog.Warningln("listener: dropping malformed packet:", err)
		return
	}
	switch classified.Kind {
	case codec.KindWaveform:
		s.pushToAll(withLengthPrefix(msg), priority)
	case codec.KindHousekeeping:
		if priority == transform.PriorityLow {
			nlog.Infoln("listener: housekeeping packet received (not forwarded)")
		}
	default:
		nlog.Warningln("listener: dropping unknown packet type", classified.Type, classified.Subtype)
	}
}

// handleFilename implements the replay dataflow (spec §4.6 "Filename and
// string dataflows"): msg is a UTF-8 path; openFile enumerates
// self-contained records under it (a directory) or reads it (a file).
func (s *Supervisor) handleFilename(msg []byte, priority transform.Priority) {
	items, err := openFile(string(msg))
	if err != nil {
		nlog.Warningln("listener: open_file failed:", err)
		return
	}
	for _, item := range items {
		s.pushToAll(item, priority)
	}
}

func (s *Supervisor) pushToAll(item []byte, priority transform.Priority) {
	if s.stopData.Load() {
		return
	}
	for _, m := range s.managers {
		m.Push(item, priority)
	}
}

func withLengthPrefix(payload []byte) []byte {
	out := make([]byte, 4+len(payload))
	le32(out[:4], uint32(len(payload)))
	copy(out[4:], payload)
	return out
}

func le32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

// openFile is the overridable open_file(path) -> (items, count)
// collaborator from spec §4.6. If path names a directory, it is walked
// with karrick/godirwalk in deterministic (sorted) order and every
// regular file's contents become one item; if path names a file, its
// contents become the single item.
func openFile(path string) ([][]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, cmn.WrapError(cmn.KindTransportFatal, err, "stat replay path")
	}
	if !info.IsDir() {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, cmn.WrapError(cmn.KindTransportFatal, err, "read replay file")
		}
		return [][]byte{data}, nil
	}

	var items [][]byte
	err = godirwalk.Walk(path, &godirwalk.Options{
		Unsorted: false,
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			data, err := os.ReadFile(osPathname)
			if err != nil {
				return err
			}
			items = append(items, data)
			return nil
		},
	})
	if err != nil {
		return nil, cmn.WrapError(cmn.KindTransportFatal, err, "walk replay directory")
	}
	return items, nil
}
