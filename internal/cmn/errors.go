// Package cmn holds small cross-cutting types shared by every package in
// the module: error kinds and the kinded Error type. Assertion helpers
// and verbosity gating live in the cos subpackage.
package cmn

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an error independently of its wrapped cause, so that
// callers can type-switch on *Error without parsing message text.
type Kind int

const (
	KindUnknown Kind = iota
	KindShortPacket
	KindInvalidSize
	KindUnknownPacketType
	KindBadCRC
	KindQueueStopped
	KindTransportRecvTimeout
	KindTransportFatal
	KindConfigurationInvalid
	KindTransformError
)

func (k Kind) String() string {
	switch k {
	case KindShortPacket:
		return "short-packet"
	case KindInvalidSize:
		return "invalid-size"
	case KindUnknownPacketType:
		return "unknown-packet-type"
	case KindBadCRC:
		return "bad-crc"
	case KindQueueStopped:
		return "queue-stopped"
	case KindTransportRecvTimeout:
		return "transport-recv-timeout"
	case KindTransportFatal:
		return "transport-fatal"
	case KindConfigurationInvalid:
		return "configuration-invalid"
	case KindTransformError:
		return "transform-error"
	default:
		return "unknown"
	}
}

// Error is a kinded error that carries a pkg/errors stack trace on the
// wrapped cause, so a log line keeps both "what kind" (for callers that
// type-switch) and "where" (for a human reading the log).
type Error struct {
	Kind  Kind
	Msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.cause }

// Cause satisfies github.com/pkg/errors' Causer interface.
func (e *Error) Cause() error { return e.cause }

// NewError builds a new *Error with a pkg/errors-captured stack, with no
// prior cause.
func NewError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, cause: errors.New(msg)}
}

// WrapError annotates cause with kind and msg, preserving cause's stack
// (or capturing one now, if cause doesn't already carry one).
func WrapError(kind Kind, cause error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, cause: errors.Wrap(cause, msg)}
}

// KindOf reports the Kind of err, walking the cause chain, or KindUnknown
// if err is nil or does not carry one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err (or any error in its chain) has the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

var (
	// ErrQueueStopped is returned by the blocking queue operations
	// (Front, Get) once NotifyAll has been called.
	ErrQueueStopped = NewError(KindQueueStopped, "queue stopped")
	// ErrTransportRecvTimeout signals a read deadline expiring with no
	// frame available; callers treat it as a liveness-check tick, not a
	// fatal condition.
	ErrTransportRecvTimeout = NewError(KindTransportRecvTimeout, "receive timeout")
)
