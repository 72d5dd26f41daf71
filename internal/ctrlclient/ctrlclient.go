// Package ctrlclient implements CtrlClient (spec §4.8): a thin client
// holding a push-type socket connected to the frontend's control port.
package ctrlclient

import (
	"context"
	"time"

	"github.com/waveacq/rtadp/internal/codec"
	"github.com/waveacq/rtadp/internal/nlog"
	"github.com/waveacq/rtadp/internal/transport"
)

const frameSize = 128

// startGap is the pause between the DefaultA0 and StartAcq frames in
// SendStart, per spec §4.6 / scenario 6's "(after 100 ms)" gap.
const startGap = 100 * time.Millisecond

// Client sends start/stop acquisition control frames to the frontend.
type Client struct {
	ep      *transport.Endpoint
	counter uint16
}

// New dials uri as a push-type connection. Connection failure is fatal,
// per spec §4.8: nlog.Fatalln logs it and exits the process with a
// non-zero status, so New does not return in that case.
func New(ctx context.Context, uri string) *Client {
	ep, err := transport.Open(ctx, transport.PushPull, transport.RoleConnect, uri)
	if err != nil {
		nlog.Fatalln("ctrlclient: failed to connect to", uri, ":", err)
	}
	return &Client{ep: ep}
}

// SendStart encodes a DefaultA0 frame followed by a StartAcq frame for
// runID, zero-padded to a 128-byte buffer each, per spec §4.6
// "start_custom".
func (c *Client) SendStart(runID uint16) error {
	if err := c.sendFrame(codec.KindDefaultA0, runID); err != nil {
		return err
	}
	time.Sleep(startGap)
	return c.sendFrame(codec.KindStartAcq, runID)
}

// SendStop encodes a StopAcq frame for runID, per spec §4.6
// "stop_custom".
func (c *Client) SendStop(runID uint16) error {
	return c.sendFrame(codec.KindStopAcq, runID)
}

func (c *Client) sendFrame(kind codec.Kind, runID uint16) error {
	c.counter++
	frame, err := codec.EncodeControl(kind, runID, c.counter)
	if err != nil {
		return err
	}
	padded := make([]byte, frameSize)
	copy(padded, frame)
	return c.ep.Send(padded)
}

// Close releases the underlying connection.
func (c *Client) Close() error { return c.ep.Close() }
