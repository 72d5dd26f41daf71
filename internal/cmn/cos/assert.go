// Package cos ("common os") holds small helpers used throughout the
// module: invariant assertions and verbosity gating, mirroring the
// teacher's cmn/cos helper package.
package cos

import (
	"fmt"

	"github.com/waveacq/rtadp/internal/nlog"
)

// Assert panics if cond is false. Reserved for invariants that must never
// fire in correct code (e.g. a queue's internal list length going
// negative) — not for anything reachable from untrusted input.
func Assert(cond bool) {
	if !cond {
		panic("assertion failed")
	}
}

// AssertMsg is like Assert but attaches a formatted message to the panic.
func AssertMsg(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("assertion failed: "+format, args...))
	}
}

// FastV reports whether verbose logging at level v should proceed for
// smodule, without the cost of formatting the message when it should not.
func FastV(v int, smodule string) bool {
	return nlog.FastV(v, smodule)
}

// Smodule name constants, passed to FastV call sites for parity with the
// teacher's per-subsystem verbosity gating.
const (
	SmoduleSupervisor = "supervisor"
	SmoduleManager    = "manager"
	SmoduleWorker     = "worker"
	SmoduleTransport  = "transport"
	SmoduleSink       = "sink"
	SmoduleCodec      = "codec"
)
