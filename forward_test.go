package jmux

import (
	"errors"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestForwardBidirectionalSplicesBothDirections(t *testing.T) {
	socksClient, socksSide := net.Pipe()
	channelSide, remoteTarget := net.Pipe()

	done := make(chan struct{})
	var aToB int64
	go func() {
		defer close(done)
		aToB, _, _ = ForwardBidirectional(socksSide, channelSide)
	}()

	_, err := socksClient.Write([]byte("hello world"))
	require.NoError(t, err)
	var b [len("hello world")]byte
	_, err = remoteTarget.Read(b[:])
	require.NoError(t, err)
	require.Equal(t, []byte("hello world"), b[:])

	socksClient.Close()
	_, err = remoteTarget.Read(b[:])
	require.Truef(t, errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe), "expected EOF-ish error, got %v", err)

	<-done
	require.GreaterOrEqual(t, aToB, int64(len("hello world")))
}

func TestForwardCopiesUntilEOF(t *testing.T) {
	r, w := io.Pipe()
	dst := &fakeWriteCloser{}

	done := make(chan struct{})
	var n int64
	go func() {
		defer close(done)
		n, _ = Forward(dst, r)
	}()

	_, err := w.Write([]byte("payload"))
	require.NoError(t, err)
	w.Close()
	<-done

	require.Equal(t, "payload", string(dst.buf))
	require.Equal(t, int64(len("payload")), n)
}

type fakeWriteCloser struct{ buf []byte }

func (f *fakeWriteCloser) Write(p []byte) (int, error) {
	f.buf = append(f.buf, p...)
	return len(p), nil
}
