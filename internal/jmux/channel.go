package jmux

import (
	"io"
	"net"
	"sync"
	"time"

	"github.com/devolutions/jmux/internal/wire"
)

const (
	halfClosedSend = 0x1
	halfClosedRecv = 0x2
	halfClosedBoth = halfClosedSend | halfClosedRecv
)

// channelOwner is the slice of Session a channel needs, mirroring
// internal/muxado/stream.go's sessionPrivate split between the public Session API
// and the bits only a stream/channel should call.
type channelOwner interface {
	writeMessage(m wire.Message, deadline time.Time) error
	removeChannel(localID uint32)
	fail(err error)
	LocalAddr() net.Addr
	RemoteAddr() net.Addr
}

// channel is a single multiplexed byte stream. It implements net.Conn and is the
// concrete type returned by Session.Open and the type Session splices to the
// Resolver's connection for remotely-initiated channels, per spec.md §4.1/§4.4.
//
// Adapted from internal/muxado/stream.go's stream type: the send half is gated by
// an outboundWindow instead of muxado's condWindow-over-int, the receive half by an
// inboundBuffer, and framing goes through wire.Data/wire.EOF/wire.Close instead of
// muxado's frame package.
type channel struct {
	localID, remoteID uint32
	destination       DestinationURL
	maxPacketSize     uint32 // cap on DATA chunks we send, set by the peer's announced maximum_packet_size
	maxPacketSizeIn   uint32 // cap on DATA payloads we accept, the maximum_packet_size we announced
	owner             channelOwner

	window *outboundWindow
	buf    *inboundBuffer

	writer        sync.Mutex
	writeDeadline time.Time

	halfCloseMu sync.Mutex
	closedState uint8
	sentEOF     bool
	torn        bool // true once the CLOSE handshake has completed, guards against a duplicate send
}

// newChannel builds a channel for one direction's worth of Open/OPEN_SUCCESS
// exchange. outboundWindow/outboundMaxPacketSize come from whatever the peer
// announced (its accept window and packet cap), since those bound what this side
// may send; inboundWindow/inboundMaxPacketSize come from what this side itself
// announced, since those bound what the peer may send us (spec.md §4.4).
func newChannel(owner channelOwner, localID, remoteID uint32, outboundWindow, outboundMaxPacketSize, inboundWindow, inboundMaxPacketSize uint32, dest DestinationURL) *channel {
	return &channel{
		localID:         localID,
		remoteID:        remoteID,
		destination:     dest,
		maxPacketSize:   outboundMaxPacketSize,
		maxPacketSizeIn: inboundMaxPacketSize,
		owner:           owner,
		window:          newOutboundWindow(outboundWindow),
		buf:             newInboundBuffer(int(inboundWindow)),
	}
}

var _ net.Conn = (*channel)(nil)

// Read drains buffered data. Once enough has been drained since the last grant, it
// credits the peer back via WINDOW_ADJUST, so the window tracks free buffer space
// instead of bytes received (spec.md §4.4/§9's back-pressure policy).
func (c *channel) Read(p []byte) (int, error) {
	n, err, credit := c.buf.read(p)
	if credit > 0 {
		_ = c.owner.writeMessage(&wire.WindowAdjust{
			RecipientChannelID: c.remoteID,
			WindowAdjustment:   credit,
		}, time.Time{})
	}
	return n, err
}

// Write sends p as one or more DATA messages, chunked to maxPacketSize and gated by
// the outbound window; it blocks while the window is exhausted (spec.md §4.4).
func (c *channel) Write(p []byte) (int, error) {
	c.writer.Lock()
	defer c.writer.Unlock()

	total := len(p)
	sent := 0
	for sent < total {
		chunk := total - sent
		if chunk > int(c.maxPacketSize) {
			chunk = int(c.maxPacketSize)
		}
		got, err := c.window.decrement(uint32(chunk))
		if err != nil {
			return sent, err
		}
		if got == 0 {
			continue
		}
		data := &wire.Data{
			RecipientChannelID: c.remoteID,
			TransferData:       p[sent : sent+int(got)],
		}
		if err := c.owner.writeMessage(data, c.writeDeadline); err != nil {
			return sent, err
		}
		sent += int(got)
	}
	return sent, nil
}

// Close sends EOF on the send half (if not already sent), fails pending reads and
// writes locally, then marks the receive half closed too; with both halves closed,
// maybeRemove emits CLOSE and removes the channel from its session (compare
// internal/muxado/stream.go's Close).
func (c *channel) Close() error {
	_ = c.CloseWrite()
	c.window.setError(errChannelClosed)
	c.buf.setError(errChannelClosed)
	c.maybeRemove(halfClosedRecv)
	return nil
}

// CloseWrite sends EOF on the send half, per spec.md §4.4's half-close state
// machine (Open -> EofSent -> Closed once CLOSE is exchanged).
func (c *channel) CloseWrite() error {
	c.writer.Lock()
	defer c.writer.Unlock()
	if c.sentEOF {
		return nil
	}
	c.sentEOF = true
	err := c.owner.writeMessage(&wire.EOF{RecipientChannelID: c.remoteID}, c.writeDeadline)
	c.window.setError(errChannelClosed)
	c.maybeRemove(halfClosedSend)
	return err
}

func (c *channel) LocalAddr() net.Addr  { return c.owner.LocalAddr() }
func (c *channel) RemoteAddr() net.Addr { return c.owner.RemoteAddr() }

func (c *channel) SetDeadline(t time.Time) error {
	if err := c.SetReadDeadline(t); err != nil {
		return err
	}
	return c.SetWriteDeadline(t)
}

func (c *channel) SetReadDeadline(t time.Time) error {
	c.buf.setDeadline(t)
	return nil
}

func (c *channel) SetWriteDeadline(t time.Time) error {
	c.writer.Lock()
	c.writeDeadline = t
	c.writer.Unlock()
	return nil
}

// Destination reports the DestinationURL this channel was opened against.
func (c *channel) Destination() DestinationURL { return c.destination }

/////////////////////////////////////////////////////////////////////////////
// inbound message handling, called by the session's control loop
/////////////////////////////////////////////////////////////////////////////

func (c *channel) handleData(m *wire.Data) error {
	if len(m.TransferData) == 0 {
		return nil
	}
	if c.maxPacketSizeIn > 0 && uint32(len(m.TransferData)) > c.maxPacketSizeIn {
		return newErr(ErrorProtocol, errString("DATA payload exceeds announced maximum packet size"))
	}
	// WINDOW_ADJUST is granted from Read() as the consumer drains, not here on
	// receipt: crediting on receipt would refill the peer's window regardless of
	// whether anything was ever read, turning a slow consumer into unbounded
	// buffering instead of back-pressure.
	return c.buf.write(m.TransferData)
}

func (c *channel) handleWindowAdjust(m *wire.WindowAdjust) error {
	if overflowed := c.window.increment(m.WindowAdjustment); overflowed {
		return errWindowOverflow
	}
	return nil
}

func (c *channel) handleEOF(*wire.EOF) error {
	c.buf.setError(io.EOF)
	c.maybeRemove(halfClosedRecv)
	return nil
}

// handleClose tears the channel down on receipt of CLOSE. If the local send half is
// still open, spec.md §4.4 requires a reciprocal CLOSE be emitted before the channel
// is removed, so a peer that initiates teardown first still gets a completed
// handshake instead of silence.
func (c *channel) handleClose(*wire.Close) error {
	c.halfCloseMu.Lock()
	sendOpen := c.closedState&halfClosedSend == 0
	alreadyTorn := c.torn
	c.closedState = halfCloseBoth()
	c.torn = true
	c.halfCloseMu.Unlock()

	c.window.setError(errChannelClosed)
	c.buf.setError(errChannelClosed)
	if sendOpen && !alreadyTorn {
		_ = c.owner.writeMessage(&wire.Close{RecipientChannelID: c.remoteID}, time.Time{})
	}
	c.owner.removeChannel(c.localID)
	return nil
}

// closeLocal tears the channel down immediately without a wire exchange, used when
// the owning session itself is shutting down.
func (c *channel) closeLocal(err error) {
	c.window.setError(err)
	c.buf.setError(err)
}

func (c *channel) maybeRemove(flag uint8) {
	c.halfCloseMu.Lock()
	c.closedState |= flag
	done := c.closedState == halfCloseBoth() && !c.torn
	if done {
		c.torn = true
	}
	c.halfCloseMu.Unlock()
	if done {
		_ = c.owner.writeMessage(&wire.Close{RecipientChannelID: c.remoteID}, time.Time{})
		c.owner.removeChannel(c.localID)
	}
}

func halfCloseBoth() uint8 { return halfClosedBoth }
