package supervisor

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/waveacq/rtadp/internal/nlog"
)

var (
	registeredMu sync.Mutex
	registered   *Supervisor
	signalCh     chan os.Signal
)

// RegisterSignals installs SIGINT/SIGTERM/other handlers that map to
// commands (spec §4.6 "Signal mapping", §9 "Global signal handler"):
// SIGINT -> shutdown, SIGTERM -> cleanedshutdown, anything else ->
// shutdown with a warning. Exactly one Supervisor may be registered at
// a time; a second call before UnregisterSignals panics.
func (s *Supervisor) RegisterSignals() {
	registeredMu.Lock()
	defer registeredMu.Unlock()
	if registered != nil {
		panic("supervisor: a Supervisor is already registered for signal handling")
	}
	registered = s
	signalCh = make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
	go handleSignals()
}

// UnregisterSignals stops signal delivery and clears the process-scoped
// registration cell.
func (s *Supervisor) UnregisterSignals() {
	registeredMu.Lock()
	defer registeredMu.Unlock()
	if registered != s {
		return
	}
	signal.Stop(signalCh)
	registered = nil
}

func handleSignals() {
	for sig := range signalCh {
		registeredMu.Lock()
		s := registered
		registeredMu.Unlock()
		if s == nil {
			return
		}
		switch sig {
		case syscall.SIGINT:
			nlog.Infoln("received SIGINT: shutdown")
			s.setStatus(StatusShutdown)
			s.StopAll(false)
		case syscall.SIGTERM:
			nlog.Infoln("received SIGTERM: cleanedshutdown")
			s.cleanedShutdown()
		default:
			nlog.Warningln("received unexpected signal", sig, ": shutdown")
			s.setStatus(StatusShutdown)
			s.StopAll(false)
		}
	}
}
