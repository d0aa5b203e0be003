package jmux

import (
	"io"

	"golang.org/x/sync/errgroup"
)

// Forward copies from src to dst until src returns EOF or either side errors,
// returning the number of bytes copied. Grounded on the teacher's forward.go/
// forwarder.go join() helper and original_source/crates/transport/src/forward.rs's
// forward() naming and return-value shape.
func Forward(dst io.Writer, src io.Reader) (transferred int64, err error) {
	return io.Copy(dst, src)
}

// ForwardBidirectional splices a and b, copying a->b and b->a concurrently, and
// returns once both legs have finished. When one leg reaches EOF, the write side of
// its destination is closed (CloseWrite if the destination has one, otherwise
// Close) so the EOF reaches the far end. Unlike the teacher's join() (a bare
// sync.WaitGroup that silently discards io.Copy errors), this uses
// golang.org/x/sync/errgroup to return the first error to the caller; when a or b
// also implements io.Closer (true of every caller in this module, which only ever
// passes net.Conn/channel values), an error on either leg closes both ends so the
// companion copy's blocked Read unblocks instead of running forever, matching
// §4.7/§7's requirement that back-pressure/errors propagate instead of leaking a
// stuck goroutine.
func ForwardBidirectional(a, b io.ReadWriter) (aToB, bToA int64, err error) {
	g := new(errgroup.Group)

	cancel := func() {
		if c, ok := a.(io.Closer); ok {
			c.Close()
		}
		if c, ok := b.(io.Closer); ok {
			c.Close()
		}
	}
	closeWrite := func(w io.Writer) {
		if c, ok := w.(interface{ CloseWrite() error }); ok {
			c.CloseWrite()
		} else if c, ok := w.(io.Closer); ok {
			c.Close()
		}
	}

	g.Go(func() error {
		n, cerr := io.Copy(b, a)
		aToB = n
		if cerr != nil {
			cancel()
		} else {
			closeWrite(b)
		}
		return cerr
	})
	g.Go(func() error {
		n, cerr := io.Copy(a, b)
		bToA = n
		if cerr != nil {
			cancel()
		} else {
			closeWrite(a)
		}
		return cerr
	})

	err = g.Wait()
	return aToB, bToA, err
}
