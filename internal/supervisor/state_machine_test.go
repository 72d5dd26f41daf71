package supervisor

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/waveacq/rtadp/internal/config"
)

func TestSupervisorStateMachine(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Supervisor state machine")
}

func testConfig() *config.Config {
	return &config.Config{
		ProcessName:    "sup-test",
		DataflowType:   config.DataflowBinary,
		DatasocketType: config.SocketPushPull,
		LPDataURI:      "tcp://127.0.0.1:0",
		HPDataURI:      "tcp://127.0.0.1:0",
		CommandURI:     "tcp://127.0.0.1:0",
		MonitorURI:     "tcp://127.0.0.1:0",
		Managers: []config.ManagerConfig{
			{Name: "m1", WorkerCount: 1},
		},
		FlushIntervalMillis: 1000,
		FlushMaxRecords:     500,
	}
}

func envelopeFor(subtype, pidtarget string) commandEnvelope {
	var env commandEnvelope
	env.Header.Type = commandHeaderType
	env.Header.Subtype = subtype
	env.Header.PIDTarget = pidtarget
	return env
}

var _ = Describe("Supervisor command dispatch", func() {
	var s *Supervisor

	BeforeEach(func() {
		s = New(testConfig())
	})

	It("starts Initialised", func() {
		Expect(s.Status()).To(Equal(StatusInitialised))
	})

	It("transitions Waiting -> Processing on start, and gates stop_data/processing", func() {
		s.setStatus(StatusWaiting)
		s.dispatch(envelopeFor("start", "sup-test"))
		Expect(s.Status()).To(Equal(StatusProcessing))
		Expect(s.stopData.Load()).To(BeFalse())
		for _, m := range s.managers {
			Expect(m.Processing()).To(BeTrue())
		}
	})

	It("transitions Processing -> Waiting on stop", func() {
		s.setStatus(StatusProcessing)
		for _, m := range s.managers {
			m.SetProcessing(true)
		}
		s.dispatch(envelopeFor("stop", "sup-test"))
		Expect(s.Status()).To(Equal(StatusWaiting))
		Expect(s.stopData.Load()).To(BeTrue())
		for _, m := range s.managers {
			Expect(m.Processing()).To(BeFalse())
		}
	})

	It("toggles processing only on startprocessing/stopprocessing", func() {
		s.dispatch(envelopeFor("startprocessing", "sup-test"))
		Expect(s.Status()).To(Equal(StatusProcessing))
		s.dispatch(envelopeFor("stopprocessing", "sup-test"))
		Expect(s.Status()).To(Equal(StatusWaiting))
	})

	It("is idempotent for repeated stopdata/stopprocessing", func() {
		s.dispatch(envelopeFor("stopdata", "sup-test"))
		s.dispatch(envelopeFor("stopdata", "sup-test"))
		Expect(s.stopData.Load()).To(BeTrue())

		s.dispatch(envelopeFor("stopprocessing", "sup-test"))
		s.dispatch(envelopeFor("stopprocessing", "sup-test"))
		for _, m := range s.managers {
			Expect(m.Processing()).To(BeFalse())
		}
	})

	It("reset leaves all queues empty and status Waiting", func() {
		for _, m := range s.managers {
			m.Push([]byte("x"), 0)
			m.InputQueue(1).Push([]byte("y"))
		}
		s.dispatch(envelopeFor("reset", "sup-test"))
		Expect(s.Status()).To(Equal(StatusWaiting))
		for _, m := range s.managers {
			Expect(m.QueuesEmpty()).To(BeTrue())
		}
	})

})
