package jmux

import (
	"bytes"
	"io"
	"os"
	"sync"
	"time"
)

var errBufferFull = newErr(ErrorProtocol, errString("inbound data queue full"))

// inboundBuffer is the bounded, condvar-gated queue feeding a channel's Read side.
// Adapted from internal/muxado/buffer.go's inboundBuffer, which already expresses
// the carrier- and message-format-agnostic "bounded queue with a deadline" shape
// spec.md §4.5 asks the session reader to use for back-pressure.
type inboundBuffer struct {
	mu       sync.Mutex
	cond     sync.Cond
	buf      bytes.Buffer
	err      error
	maxSize  int
	deadline time.Time
	timer    *time.Timer

	// unacked counts bytes drained by read() since the last credit grant; once it
	// reaches half of maxSize, read() reports it as a credit for the caller to send
	// back to the peer as WINDOW_ADJUST. This is what ties the granted window to
	// actual consumer drain rate instead of receipt, so a slow reader applies
	// back-pressure to the peer instead of the peer's window being refilled
	// regardless of whether anything was ever read.
	unacked int
}

func newInboundBuffer(maxSize int) *inboundBuffer {
	b := &inboundBuffer{maxSize: maxSize}
	b.cond.L = &b.mu
	return b
}

// write appends data coming off the wire. Returns errBufferFull if this would grow
// the queue past maxSize — a flow-control violation by the peer (spec.md §4.4), since
// maxSize is the total window this side ever grants and credit is only ever restored
// by read(), never by write().
func (b *inboundBuffer) write(data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	if b.buf.Len()+len(data) > b.maxSize {
		b.err = errBufferFull
		b.cond.Broadcast()
		return errBufferFull
	}
	b.buf.Write(data)
	b.cond.Broadcast()
	return nil
}

// read drains buffered bytes into p, blocking if the queue is empty and no terminal
// error/deadline has fired. credit is non-zero once enough has been drained since the
// last grant to justify sending WINDOW_ADJUST(credit) to the peer; the caller is
// responsible for actually sending it.
func (b *inboundBuffer) read(p []byte) (n int, err error, credit uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for {
		if !b.deadline.IsZero() && !time.Now().Before(b.deadline) {
			return 0, os.ErrDeadlineExceeded, 0
		}
		if b.buf.Len() > 0 {
			n, _ = b.buf.Read(p)
			b.unacked += n
			if b.maxSize > 0 && b.unacked*2 >= b.maxSize {
				credit = uint32(b.unacked)
				b.unacked = 0
			}
			return n, nil, credit
		}
		if b.err != nil {
			return 0, b.err, 0
		}
		b.cond.Wait()
	}
}

// setError puts the buffer into a permanent terminal state (io.EOF for a graceful
// EOF, or a hard error for abrupt close); buffered bytes already queued remain
// readable until drained, matching "flush first, then signal close" (spec.md §9).
func (b *inboundBuffer) setError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err == nil {
		b.err = err
		b.cond.Broadcast()
	}
}

func (b *inboundBuffer) setDeadline(t time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deadline = t
	if b.timer != nil {
		b.timer.Stop()
	}
	if timeout := time.Until(t); !t.IsZero() && timeout > 0 {
		b.timer = time.AfterFunc(timeout, func() {
			b.mu.Lock()
			b.cond.Broadcast()
			b.mu.Unlock()
		})
	}
	b.cond.Broadcast()
}

var _ io.Reader = (*bufferReaderAdapter)(nil)

// bufferReaderAdapter lets callers treat an inboundBuffer like an io.Reader without
// exposing write/setError outside this package.
type bufferReaderAdapter struct{ b *inboundBuffer }

func (a *bufferReaderAdapter) Read(p []byte) (int, error) {
	n, err, _ := a.b.read(p)
	return n, err
}
