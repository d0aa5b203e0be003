// Package socks implements a SOCKS4 and SOCKS5 front-end that terminates CONNECT
// requests by opening a channel through a jmux.Session and splicing bytes
// between the client socket and the resulting channel. It supports SOCKS4
// CONNECT (including the socks4a domain-name extension) and SOCKS5 CONNECT with
// IPv4/IPv6/domain address types; it never implements BIND or UDP ASSOCIATE.
package socks

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/jpillora/backoff"

	"github.com/devolutions/jmux"
	"github.com/devolutions/jmux/log"
)

// Acceptor runs a SOCKS4/SOCKS5 accept loop over a listener, opening one jmux
// channel per accepted CONNECT request.
type Acceptor struct {
	Listener net.Listener
	Session  *jmux.Session

	// OpenTimeout bounds how long a single CONNECT waits for the channel Open
	// to resolve before the client gets a failure reply. Zero means no
	// additional timeout beyond the session's own OpenTimeout.
	OpenTimeout time.Duration

	Logger log.Logger
}

// NewAcceptor constructs an Acceptor with defaults filled in.
func NewAcceptor(listener net.Listener, session *jmux.Session, logger log.Logger) *Acceptor {
	return &Acceptor{Listener: listener, Session: session, Logger: logger}
}

// Serve runs the accept loop until ctx is cancelled or the listener returns a
// non-temporary error. Accept errors that implement a Temporary() bool method
// are retried with exponential backoff instead of spinning, the same pattern
// the teacher's reconnecting session uses for its own retry loop.
func (a *Acceptor) Serve(ctx context.Context) error {
	boff := &backoff.Backoff{
		Min:    10 * time.Millisecond,
		Max:    1 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	go func() {
		<-ctx.Done()
		a.Listener.Close()
	}()

	for {
		conn, err := a.Listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if temp, ok := err.(interface{ Temporary() bool }); ok && temp.Temporary() {
				wait := boff.Duration()
				a.logf(log.LogLevelWarn, "socks: temporary accept error, backing off", "error", err.Error(), "wait", wait.String())
				time.Sleep(wait)
				continue
			}
			return err
		}
		boff.Reset()

		go a.handle(ctx, conn)
	}
}

func (a *Acceptor) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	r := bufio.NewReader(conn)
	version, err := r.Peek(1)
	if err != nil {
		a.logf(log.LogLevelWarn, "socks: reading version byte failed", "error", err.Error())
		return
	}

	switch version[0] {
	case socks4Version:
		a.handleSocks4(ctx, conn, r)
	case socks5Version:
		a.handleSocks5(ctx, conn, r)
	default:
		a.logf(log.LogLevelWarn, "socks: unrecognized protocol version", "version", fmt.Sprintf("%#x", version[0]))
	}
}

func (a *Acceptor) handleSocks4(ctx context.Context, conn net.Conn, r *bufio.Reader) {
	var hdr [2]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		a.logf(log.LogLevelWarn, "socks4: reading version/command failed", "error", err.Error())
		return
	}
	if hdr[1] != socks4CommandConnect {
		w := bufio.NewWriter(conn)
		_ = writeSocks4Reply(w, Socks4Rejected)
		return
	}

	req, err := readSocks4Request(r)
	if err != nil {
		a.logf(log.LogLevelWarn, "socks4: malformed request", "error", err.Error())
		return
	}

	w := bufio.NewWriter(conn)
	a.connectAndSplice(ctx, conn, req.destination(),
		func() error { return writeSocks4Reply(w, Socks4Granted) },
		func(code jmux.ReasonCode) error { return writeSocks4Reply(w, socks4FailureFromReason(code)) },
	)
}

func (a *Acceptor) handleSocks5(ctx context.Context, conn net.Conn, r *bufio.Reader) {
	rw := bufio.NewReadWriter(r, bufio.NewWriter(conn))
	if err := negotiateSocks5Method(rw); err != nil {
		a.logf(log.LogLevelWarn, "socks5: method negotiation failed", "error", err.Error())
		return
	}

	req, err := readSocks5Request(r)
	if err != nil {
		a.logf(log.LogLevelWarn, "socks5: malformed request", "error", err.Error())
		return
	}
	if req.command != socks5CommandConnect {
		_ = writeSocks5Reply(rw.Writer, Socks5CommandNotSupported)
		_ = rw.Writer.Flush()
		return
	}

	a.connectAndSplice(ctx, conn, req.destination(),
		func() error { return writeSocks5Reply(rw.Writer, Socks5Granted) },
		func(code jmux.ReasonCode) error { return writeSocks5Reply(rw.Writer, socks5FailureFromReason(code)) },
	)
}

// connectAndSplice opens a channel to destination, writes the appropriate
// protocol-specific success or failure reply, and on success pipes bytes
// between conn and the channel until both directions have reached EOF (each
// EOF is passed on as a half-close) or either direction fails.
func (a *Acceptor) connectAndSplice(ctx context.Context, conn net.Conn, destination jmux.DestinationURL, writeSuccess func() error, writeFailure func(jmux.ReasonCode) error) {
	openCtx := ctx
	var cancel context.CancelFunc
	if a.OpenTimeout > 0 {
		openCtx, cancel = context.WithTimeout(ctx, a.OpenTimeout)
		defer cancel()
	}

	channel, err := a.Session.Open(openCtx, destination)
	if err != nil {
		code := jmux.ReasonUnreachable
		if kind, cause := jmux.GetError(err); kind == jmux.ErrorOpenRefused {
			if refusal, ok := cause.(*jmux.OpenRefusalError); ok {
				code = refusal.Code
			}
		}
		_ = writeFailure(code)
		a.logf(log.LogLevelInfo, "socks: channel open failed", "destination", destination.String(), "error", err.Error())
		return
	}
	defer channel.Close()

	if err := writeSuccess(); err != nil {
		a.logf(log.LogLevelWarn, "socks: writing success reply failed", "error", err.Error())
		return
	}

	sent, received, ferr := jmux.ForwardBidirectional(conn, channel)
	a.logf(log.LogLevelInfo, "socks: channel closed", "destination", destination.String(), "sent", sent, "received", received, "error", errString(ferr))
}

func (a *Acceptor) logf(level log.LogLevel, msg string, kv ...interface{}) {
	if a.Logger == nil {
		return
	}
	data := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		data[key] = kv[i+1]
	}
	a.Logger.Log(context.Background(), level, msg, data)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
