package jmux

import (
	"io"

	"golang.org/x/sync/errgroup"
)

// forwardBidirectional splices a and b until both legs have finished, returning
// bytes copied a->b, bytes copied b->a, and the first non-nil error encountered on
// either leg. A leg that reaches EOF closes the write side of its destination
// (CloseWrite if it has one, otherwise Close) so the EOF reaches the far end. An
// error on either leg closes both ends so the
// companion copy's blocked Read unblocks instead of outliving the forwarder. Used
// internally to splice a resolved destination connection with the channel that
// requested it (spec.md §4.4's "spawn a forwarder ... and splices bytes").
//
// This is the same shape as the module root's exported ForwardBidirectional; it is
// kept as an unexported copy here rather than imported to avoid an import cycle
// (the root package imports internal/jmux to build Session).
func forwardBidirectional(a, b io.ReadWriteCloser) (sent, received int64, err error) {
	g := new(errgroup.Group)

	cancel := func() {
		a.Close()
		b.Close()
	}
	closeWrite := func(w io.WriteCloser) {
		if c, ok := w.(interface{ CloseWrite() error }); ok {
			c.CloseWrite()
		} else {
			w.Close()
		}
	}

	g.Go(func() error {
		n, cerr := io.Copy(b, a)
		sent = n
		if cerr != nil {
			cancel()
		} else {
			closeWrite(b)
		}
		return cerr
	})
	g.Go(func() error {
		n, cerr := io.Copy(a, b)
		received = n
		if cerr != nil {
			cancel()
		} else {
			closeWrite(a)
		}
		return cerr
	})

	err = g.Wait()
	return sent, received, err
}
