package jmux

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/devolutions/jmux/internal/wire"
	"github.com/devolutions/jmux/log"
)

// Session is the long-running task hosting one JMUX transport. It owns the local ID
// allocator, the live-channel registry, and the single writer goroutine that
// serializes all outbound frames, per spec.md §4.5.
//
// Grounded on internal/muxado/session.go's reader()/writer()/die() skeleton,
// generalized from "GOAWAY + single frame type dispatch" to the seven JMUX message
// types plus a pending-open map, an injected AcceptancePolicy, and an injected
// Resolver for remotely-initiated channels.
type Session struct {
	dieOnce   uint32
	config    *Config
	transport io.ReadWriteCloser
	framer    wire.Framer
	logger    log.Logger

	channels *channelMap
	idsMu    sync.Mutex
	ids      idAllocator

	pendingMu sync.Mutex
	pending   map[uint32]chan openResult

	acceptSem chan struct{}

	writeFrames chan writeReq

	dead   chan struct{}
	dieErr error

	lastActivity int64 // unix nanos, accessed via atomic
}

type openResult struct {
	remoteID      uint32
	initialWindow uint32
	maxPacketSize uint32
	err           error
}

type writeReq struct {
	m   wire.Message
	err chan error
}

// New creates a Session multiplexing JMUX traffic over transport. Either peer may
// call Open; there is no client/server distinction at the protocol level since the
// local/remote ID namespaces are already kept separate (spec.md §3).
func New(transport io.ReadWriteCloser, config *Config) *Session {
	if config == nil {
		config = &Config{}
	}
	config.initDefaults()

	s := &Session{
		config:      config,
		transport:   transport,
		framer:      wire.NewFramer(transport, transport, config.MaxFrameSize),
		logger:      config.Logger,
		channels:    newChannelMap(),
		pending:     make(map[uint32]chan openResult),
		acceptSem:   make(chan struct{}, config.AcceptBacklog),
		writeFrames: make(chan writeReq, config.writeFrameQueueDepth),
		dead:        make(chan struct{}),
	}
	s.touch()
	go s.reader()
	go s.writer()
	if config.IdleTimeout > 0 {
		go s.idleMonitor()
	}
	return s
}

func (s *Session) touch() {
	atomic.StoreInt64(&s.lastActivity, time.Now().UnixNano())
}

func (s *Session) idleMonitor() {
	ticker := time.NewTicker(s.config.IdleTimeout / 4)
	defer ticker.Stop()
	for {
		select {
		case <-s.dead:
			return
		case <-ticker.C:
			last := time.Unix(0, atomic.LoadInt64(&s.lastActivity))
			if time.Since(last) > s.config.IdleTimeout {
				s.fail(newErr(ErrorTimeout, errString("session idle timeout")))
				return
			}
		}
	}
}

// Open emits OPEN for destination and blocks until OPEN_SUCCESS/OPEN_FAILURE
// arrives, ctx is done, or the configured OpenTimeout elapses. On success it returns
// a net.Conn backed by the new channel's send/receive halves, per spec.md §4.4.
func (s *Session) Open(ctx context.Context, destination DestinationURL) (net.Conn, error) {
	select {
	case <-s.dead:
		return nil, errSessionClosed
	default:
	}

	s.idsMu.Lock()
	localID, err := s.ids.alloc()
	s.idsMu.Unlock()
	if err != nil {
		return nil, err
	}

	result := make(chan openResult, 1)
	s.pendingMu.Lock()
	s.pending[localID] = result
	s.pendingMu.Unlock()

	cleanup := func() {
		s.pendingMu.Lock()
		delete(s.pending, localID)
		s.pendingMu.Unlock()
		s.idsMu.Lock()
		s.ids.free(localID)
		s.idsMu.Unlock()
	}

	open := &wire.Open{
		SenderChannelID:   localID,
		InitialWindow:     s.config.MaxWindowSize,
		MaximumPacketSize: s.config.MaxPacketSize,
		DestinationURL:    destination.String(),
	}
	if err := s.writeMessage(open, time.Time{}); err != nil {
		cleanup()
		return nil, err
	}

	timer := time.NewTimer(s.config.OpenTimeout)
	defer timer.Stop()

	select {
	case r := <-result:
		if r.err != nil {
			cleanup()
			return nil, r.err
		}
		ch := newChannel(s, localID, r.remoteID, r.initialWindow, r.maxPacketSize, s.config.MaxWindowSize, s.config.MaxPacketSize, destination)
		s.channels.set(localID, ch)
		return ch, nil
	case <-ctx.Done():
		cleanup()
		return nil, ctx.Err()
	case <-timer.C:
		cleanup()
		return nil, errOpenTimeout
	case <-s.dead:
		cleanup()
		return nil, errSessionClosed
	}
}

// Shutdown emits CLOSE for every live local channel (best effort), then closes the
// transport, per spec.md §4.5's cancellation protocol.
func (s *Session) Shutdown() error {
	// One shared deadline bounds the whole CLOSE round, so a peer that stops
	// reading cannot stall Shutdown once per channel.
	deadline := time.Now().Add(time.Second)
	s.channels.each(func(_ uint32, c *channel) {
		_ = s.writeMessage(&wire.Close{RecipientChannelID: c.remoteID}, deadline)
	})
	return s.fail(errSessionClosed)
}

// Wait blocks until the session has terminated and returns the cause.
func (s *Session) Wait() error {
	<-s.dead
	return s.dieErr
}

func (s *Session) LocalAddr() net.Addr  { return connAddr(s.transport, true) }
func (s *Session) RemoteAddr() net.Addr { return connAddr(s.transport, false) }

type jmuxAddr struct{ locality string }

func (a jmuxAddr) Network() string { return "jmux" }
func (a jmuxAddr) String() string  { return "jmux: " + a.locality }

func connAddr(transport io.ReadWriteCloser, local bool) net.Addr {
	if local {
		if a, ok := transport.(interface{ LocalAddr() net.Addr }); ok {
			return a.LocalAddr()
		}
		return jmuxAddr{"local"}
	}
	if a, ok := transport.(interface{ RemoteAddr() net.Addr }); ok {
		return a.RemoteAddr()
	}
	return jmuxAddr{"remote"}
}

////////////////////////////////////////////////////////////////////////////
// channelOwner interface, called by channel
////////////////////////////////////////////////////////////////////////////

func (s *Session) writeMessage(m wire.Message, deadline time.Time) error {
	var timeout <-chan time.Time
	if !deadline.IsZero() {
		timeout = time.After(time.Until(deadline))
	}
	req := writeReq{m: m, err: make(chan error, 1)}
	select {
	case s.writeFrames <- req:
	case <-s.dead:
		return errSessionClosed
	case <-timeout:
		return errWriteTimeout
	}
	select {
	case err := <-req.err:
		return err
	case <-s.dead:
		return errSessionClosed
	case <-timeout:
		return errWriteTimeout
	}
}

func (s *Session) removeChannel(localID uint32) {
	s.channels.delete(localID)
	s.idsMu.Lock()
	s.ids.free(localID)
	s.idsMu.Unlock()
}

func (s *Session) fail(err error) error {
	if !atomic.CompareAndSwapUint32(&s.dieOnce, 0, 1) {
		return errSessionClosed
	}
	s.dieErr = err
	s.channels.each(func(_ uint32, c *channel) {
		c.closeLocal(err)
	})
	s.pendingMu.Lock()
	for id, ch := range s.pending {
		ch <- openResult{err: err}
		delete(s.pending, id)
	}
	s.pendingMu.Unlock()
	close(s.dead)
	return s.transport.Close()
}

////////////////////////////////////////////////////////////////////////////
// reader / writer goroutines
////////////////////////////////////////////////////////////////////////////

func (s *Session) writer() {
	defer s.recoverPanic("writer")
	for {
		select {
		case req := <-s.writeFrames:
			err := s.framer.WriteFrame(req.m)
			if req.err != nil {
				req.err <- err
			}
			if err != nil {
				s.fail(newErr(ErrorTransport, err))
				return
			}
		case <-s.dead:
			return
		}
	}
}

func (s *Session) reader() {
	defer s.recoverPanic("reader")
	for {
		m, err := s.framer.ReadFrame()
		if err != nil {
			if err == io.EOF {
				s.fail(newErr(ErrorTransport, io.EOF))
			} else {
				s.fail(newErr(ErrorTransport, err))
			}
			return
		}
		s.touch()
		if err := s.handleMessage(m); err != nil {
			s.fail(err)
			return
		}
		select {
		case <-s.dead:
			return
		default:
		}
	}
}

func (s *Session) recoverPanic(where string) {
	if r := recover(); r != nil {
		s.fail(newErr(ErrorProtocol, fmt.Errorf("%s panic: %v", where, r)))
	}
}

func (s *Session) handleMessage(m wire.Message) error {
	switch f := m.(type) {
	case *wire.Open:
		return s.handleOpen(f)
	case *wire.OpenSuccess:
		return s.handleOpenSuccess(f)
	case *wire.OpenFailure:
		return s.handleOpenFailure(f)
	case *wire.WindowAdjust:
		return s.handleWindowAdjustMsg(f)
	case *wire.Data:
		return s.handleDataMsg(f)
	case *wire.EOF:
		return s.handleEOFMsg(f)
	case *wire.Close:
		return s.handleCloseMsg(f)
	default:
		return newErr(ErrorProtocol, fmt.Errorf("unhandled message type %T", m))
	}
}

func (s *Session) handleOpenSuccess(f *wire.OpenSuccess) error {
	s.pendingMu.Lock()
	ch, ok := s.pending[f.RecipientChannelID]
	if ok {
		delete(s.pending, f.RecipientChannelID)
	}
	s.pendingMu.Unlock()
	if !ok {
		// stale/expired pending entry (e.g. the Open() caller already timed out);
		// silently drop, matching muxado's tolerance for frames about torn-down streams.
		return nil
	}
	ch <- openResult{
		remoteID:      f.SenderChannelID,
		initialWindow: f.InitialWindow,
		maxPacketSize: f.MaximumPacketSize,
	}
	return nil
}

func (s *Session) handleOpenFailure(f *wire.OpenFailure) error {
	s.pendingMu.Lock()
	ch, ok := s.pending[f.RecipientChannelID]
	if ok {
		delete(s.pending, f.RecipientChannelID)
	}
	s.pendingMu.Unlock()
	if !ok {
		return nil
	}
	code := ReasonCode(f.ReasonCode)
	ch <- openResult{err: newErr(ErrorOpenRefused, &OpenRefusalError{Code: code, Description: f.Description})}
	return nil
}

func (s *Session) handleDataMsg(f *wire.Data) error {
	ch, ok := s.channels.get(f.RecipientChannelID)
	if !ok {
		// channel already torn down locally; ignore trailing DATA, per spec.md §9's
		// tolerance for frames racing a local close.
		return nil
	}
	return ch.handleData(f)
}

func (s *Session) handleWindowAdjustMsg(f *wire.WindowAdjust) error {
	ch, ok := s.channels.get(f.RecipientChannelID)
	if !ok {
		return nil
	}
	return ch.handleWindowAdjust(f)
}

func (s *Session) handleEOFMsg(f *wire.EOF) error {
	ch, ok := s.channels.get(f.RecipientChannelID)
	if !ok {
		return nil
	}
	return ch.handleEOF(f)
}

func (s *Session) handleCloseMsg(f *wire.Close) error {
	ch, ok := s.channels.get(f.RecipientChannelID)
	if !ok {
		return nil
	}
	return ch.handleClose(f)
}

// handleOpen processes a remotely-initiated OPEN: it evaluates the AcceptancePolicy
// synchronously (expected to be cheap/non-blocking) and, if accepted, completes the
// handshake and splices bytes to the resolved destination asynchronously so a slow
// Resolver.Connect never blocks the reader goroutine, per spec.md §4.4's "remotely
// initiated" handshake.
func (s *Session) handleOpen(f *wire.Open) error {
	dest, err := ParseDestinationURL(f.DestinationURL)
	if err != nil {
		return s.refuseOpen(f.SenderChannelID, ReasonResolverFailed, err.Error())
	}

	peer := PeerContext{RemoteAddr: s.RemoteAddr()}
	ok, code, desc := s.config.AcceptancePolicy.Allow(dest, peer)
	if !ok {
		return s.refuseOpen(f.SenderChannelID, code, desc)
	}

	select {
	case s.acceptSem <- struct{}{}:
	default:
		return s.refuseOpen(f.SenderChannelID, ReasonUnreachable, "accept backlog full")
	}
	go func() {
		defer func() { <-s.acceptSem }()
		s.completeOpen(f, dest)
	}()
	return nil
}

func (s *Session) refuseOpen(remoteID uint32, code ReasonCode, desc string) error {
	return s.writeMessage(&wire.OpenFailure{
		RecipientChannelID: remoteID,
		ReasonCode:         uint32(code),
		Description:        desc,
	}, time.Time{})
}

func (s *Session) completeOpen(f *wire.Open, dest DestinationURL) {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.OpenTimeout)
	defer cancel()

	conn, err := s.config.Resolver.Connect(ctx, dest.Host, dest.Port)
	if err != nil {
		s.logger.Log(ctx, log.LogLevelWarn, "jmux: resolver failed", map[string]interface{}{
			"destination": dest.String(), "error": err.Error(),
		})
		_ = s.refuseOpen(f.SenderChannelID, ReasonUnreachable, err.Error())
		return
	}

	s.idsMu.Lock()
	localID, err := s.ids.alloc()
	s.idsMu.Unlock()
	if err != nil {
		conn.Close()
		_ = s.refuseOpen(f.SenderChannelID, ReasonUnreachable, err.Error())
		return
	}

	// The peer's OPEN announces the window/packet cap it will accept from us, which
	// governs this channel's outbound side, symmetric with Open()'s use of the
	// OPEN_SUCCESS's InitialWindow/MaximumPacketSize (spec.md §4.4).
	outboundWindow := f.InitialWindow
	if outboundWindow == 0 {
		outboundWindow = s.config.MaxWindowSize
	}
	outboundMaxPacket := f.MaximumPacketSize
	if outboundMaxPacket == 0 {
		outboundMaxPacket = s.config.MaxPacketSize
	}
	ch := newChannel(s, localID, f.SenderChannelID, outboundWindow, outboundMaxPacket, s.config.MaxWindowSize, s.config.MaxPacketSize, dest)
	s.channels.set(localID, ch)

	if err := s.writeMessage(&wire.OpenSuccess{
		RecipientChannelID: f.SenderChannelID,
		SenderChannelID:    localID,
		InitialWindow:      s.config.MaxWindowSize,
		MaximumPacketSize:  s.config.MaxPacketSize,
	}, time.Time{}); err != nil {
		s.removeChannel(localID)
		conn.Close()
		return
	}

	s.logger.Log(context.Background(), log.LogLevelInfo, "jmux: channel opened", map[string]interface{}{
		"destination": dest.String(), "local_id": localID, "remote_id": f.SenderChannelID,
	})

	go func() {
		sent, received, ferr := forwardBidirectional(conn, ch)
		s.logger.Log(context.Background(), log.LogLevelInfo, "jmux: channel closed", map[string]interface{}{
			"destination": dest.String(), "sent": sent, "received": received, "error": errString2(ferr),
		})
		conn.Close()
		ch.Close()
	}()
}

func errString2(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
