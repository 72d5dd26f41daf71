// Package nlog is a thin, call-site-compatible wrapper around zerolog.
//
// The shape (Infoln/Warningln/Errorln/Infof, a package-level verbosity
// gate) mirrors the teacher's internal cmn/nlog convention, which is not
// an importable module on its own; this wraps a real third-party
// structured logger instead of reinventing one.
package nlog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu     sync.RWMutex
	logger zerolog.Logger
	fastV  int // verbosity gate, set via SetVerbosity
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
}

// Configure points the global logger at w (e.g. a rotating file) and sets
// the minimum level. mode "json" keeps structured JSON lines (production);
// anything else falls back to the human-readable console writer.
func Configure(w io.Writer, level zerolog.Level, mode string) {
	mu.Lock()
	defer mu.Unlock()
	if mode == "json" {
		logger = zerolog.New(w).Level(level).With().Timestamp().Logger()
		return
	}
	logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).Level(level).With().Timestamp().Logger()
}

// SetVerbosity sets the FastV threshold used by FastV gating below.
func SetVerbosity(v int) {
	mu.Lock()
	fastV = v
	mu.Unlock()
}

// FastV reports whether logging at verbosity v for smodule should proceed.
// smodule is accepted for call-site parity with the teacher's cos.FastV
// but is not currently used to sub-select modules.
func FastV(v int, _ string) bool {
	mu.RLock()
	defer mu.RUnlock()
	return v <= fastV
}

func get() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Infoln(args ...any)    { get().Info().Msg(sprint(args...)) }
func Warningln(args ...any) { get().Warn().Msg(sprint(args...)) }
func Errorln(args ...any)   { get().Error().Msg(sprint(args...)) }

func Infof(format string, args ...any)    { get().Info().Msgf(format, args...) }
func Warningf(format string, args ...any) { get().Warn().Msgf(format, args...) }
func Errorf(format string, args ...any)   { get().Error().Msgf(format, args...) }

// Fatalln logs at fatal level and terminates the process, matching the
// teacher's convention that configuration/construction failures are fatal.
func Fatalln(args ...any) {
	get().Fatal().Msg(sprint(args...))
}

func sprint(args ...any) string {
	if len(args) == 1 {
		if s, ok := args[0].(string); ok {
			return s
		}
	}
	msg := ""
	for i, a := range args {
		if i > 0 {
			msg += " "
		}
		msg += toString(a)
	}
	return msg
}

func toString(a any) string {
	switch v := a.(type) {
	case string:
		return v
	case error:
		return v.Error()
	case interface{ String() string }:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
