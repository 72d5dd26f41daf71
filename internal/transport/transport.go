// Package transport implements the message-oriented socket abstraction
// described in spec §6: push/pull and pub/sub patterns over TCP, with a
// receive-timeout so listener loops stay responsive to shutdown. This
// reimplements, rather than imports, the teacher's internal
// transport.DataMover/ObjHdr concept, which is not an independently
// importable module.
package transport

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"sync"
	"time"

	"github.com/waveacq/rtadp/internal/cmn"
	"github.com/waveacq/rtadp/internal/nlog"
)

// Pattern names one of the two supported socket patterns (spec §6).
type Pattern string

const (
	PushPull Pattern = "pushpull"
	PubSub   Pattern = "pubsub"
)

// Role names which side of a Pattern an endpoint plays.
type Role string

const (
	RoleBind    Role = "bind"    // accepts connections
	RoleConnect Role = "connect" // dials out
)

const (
	maxFrameSize  = 64 << 20 // generous upper bound against a corrupt length prefix
	defaultRecvTO = 10 * time.Millisecond
)

// Endpoint is one message-oriented socket: either the bind side of a
// push/pull or pub/sub pair (accepting one or many connections), or the
// connect side (dialing exactly one).
type Endpoint struct {
	pattern Pattern
	role    Role
	uri     string
	recvTO  time.Duration

	mu        sync.Mutex
	listener  net.Listener
	conns     []net.Conn // pubsub-bind: every subscriber; pushpull-bind: the single accepted conn
	dialed    net.Conn   // connect-side
}

// Open establishes an Endpoint for (pattern, role) at uri ("tcp://host:port").
// RoleBind starts listening (and, for pushpull, accepts its single peer
// in the background); RoleConnect dials immediately.
func Open(ctx context.Context, pattern Pattern, role Role, uri string) (*Endpoint, error) {
	addr := stripScheme(uri)
	e := &Endpoint{pattern: pattern, role: role, uri: uri, recvTO: defaultRecvTO}

	switch role {
	case RoleBind:
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, cmn.WrapError(cmn.KindTransportFatal, err, "listen on "+uri)
		}
		e.listener = ln
		go e.acceptLoop(ctx)
	case RoleConnect:
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return nil, cmn.WrapError(cmn.KindTransportFatal, err, "dial "+uri)
		}
		e.dialed = conn
	}
	return e, nil
}

func stripScheme(uri string) string {
	const scheme = "tcp://"
	if len(uri) > len(scheme) && uri[:len(scheme)] == scheme {
		return uri[len(scheme):]
	}
	return uri
}

func (e *Endpoint) acceptLoop(ctx context.Context) {
	for {
		conn, err := e.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				nlog.Warningln("transport: accept on", e.uri, "failed:", err)
				return
			}
		}
		e.mu.Lock()
		e.conns = append(e.conns, conn)
		e.mu.Unlock()
		if e.pattern == PushPull {
			// pushpull-bind serves exactly one peer at a time.
			return
		}
	}
}

// SetRecvTimeout overrides the receive-timeout used by Recv.
func (e *Endpoint) SetRecvTimeout(d time.Duration) { e.recvTO = d }

// Send writes payload, length-prefixed, to every currently-known peer
// (one for pushpull, all subscribers for a pubsub-bind fan-out; the
// single dialed connection for a connect-side endpoint).
func (e *Endpoint) Send(payload []byte) error {
	frame := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint32(frame[:4], uint32(len(payload)))
	copy(frame[4:], payload)

	if e.dialed != nil {
		_, err := e.dialed.Write(frame)
		if err != nil {
			return cmn.WrapError(cmn.KindTransportFatal, err, "send")
		}
		return nil
	}

	e.mu.Lock()
	peers := append([]net.Conn(nil), e.conns...)
	e.mu.Unlock()
	var firstErr error
	for _, c := range peers {
		if _, err := c.Write(frame); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return cmn.WrapError(cmn.KindTransportFatal, firstErr, "send")
	}
	return nil
}

// Recv blocks for up to the configured receive-timeout waiting for one
// complete length-prefixed frame, returning cmn.ErrTransportRecvTimeout
// if none arrives in time. A connect-side endpoint reads its dialed
// connection; a bind-side endpoint reads its (first, for pushpull)
// accepted connection.
func (e *Endpoint) Recv() ([]byte, error) {
	conn := e.activeConn()
	if conn == nil {
		return nil, cmn.ErrTransportRecvTimeout
	}
	if err := conn.SetReadDeadline(time.Now().Add(e.recvTO)); err != nil {
		return nil, cmn.WrapError(cmn.KindTransportFatal, err, "set read deadline")
	}

	var sizeBuf [4]byte
	if _, err := io.ReadFull(conn, sizeBuf[:]); err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, cmn.ErrTransportRecvTimeout
		}
		return nil, cmn.WrapError(cmn.KindTransportFatal, err, "read frame size")
	}
	n := binary.LittleEndian.Uint32(sizeBuf[:])
	if n == 0 || n > maxFrameSize {
		return nil, cmn.NewError(cmn.KindInvalidSize, "frame size out of bounds")
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(conn, body); err != nil {
		return nil, cmn.WrapError(cmn.KindTransportFatal, err, "read frame body")
	}
	return body, nil
}

func (e *Endpoint) activeConn() net.Conn {
	if e.dialed != nil {
		return e.dialed
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.conns) == 0 {
		return nil
	}
	return e.conns[0]
}

// Close releases the listener and every connection owned by e.
func (e *Endpoint) Close() error {
	e.mu.Lock()
	conns := append([]net.Conn(nil), e.conns...)
	e.conns = nil
	e.mu.Unlock()

	var firstErr error
	for _, c := range conns {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if e.dialed != nil {
		if err := e.dialed.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if e.listener != nil {
		if err := e.listener.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
