package jmux

import (
	"io"
	"testing"
	"time"
)

func TestInboundBufferWriteThenRead(t *testing.T) {
	b := newInboundBuffer(16)
	if err := b.write([]byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}
	p := make([]byte, 16)
	n, err, _ := b.read(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(p[:n]) != "hello" {
		t.Errorf("got %q, want %q", p[:n], "hello")
	}
}

func TestInboundBufferFullIsProtocolError(t *testing.T) {
	b := newInboundBuffer(4)
	if err := b.write([]byte("12345")); err == nil {
		t.Errorf("expected errBufferFull, got nil")
	}
}

func TestInboundBufferDoesNotReplenishOnWrite(t *testing.T) {
	// Without a drain, a second write that would exceed capacity must still fail
	// even though the first write "fit": credit only ever comes from read(), never
	// from write(), so a slow consumer applies real back-pressure to the peer.
	b := newInboundBuffer(4)
	if err := b.write([]byte("ab")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := b.write([]byte("abc")); err == nil {
		t.Errorf("expected errBufferFull since nothing was drained between writes")
	}
}

func TestInboundBufferReadGrantsCreditAtHalfDrained(t *testing.T) {
	b := newInboundBuffer(4)
	if err := b.write([]byte("ab")); err != nil {
		t.Fatalf("write: %v", err)
	}

	p := make([]byte, 16)
	n, err, credit := b.read(p)
	if err != nil || n != 2 {
		t.Fatalf("got (%d, %v), want (2, nil)", n, err)
	}
	if credit != 2 {
		t.Errorf("got credit %d, want 2 once half of a 4-byte window has drained", credit)
	}

	// A second small write should now fit again since read() freed capacity.
	if err := b.write([]byte("cd")); err != nil {
		t.Errorf("write after drain: %v", err)
	}
}

func TestInboundBufferBlocksUntilData(t *testing.T) {
	b := newInboundBuffer(16)
	done := make(chan int, 1)
	go func() {
		p := make([]byte, 16)
		n, _, _ := b.read(p)
		done <- n
	}()

	select {
	case <-done:
		t.Fatalf("read returned before any data was written")
	case <-time.After(20 * time.Millisecond):
	}

	_ = b.write([]byte("x"))

	select {
	case n := <-done:
		if n != 1 {
			t.Errorf("got %d bytes, want 1", n)
		}
	case <-time.After(time.Second):
		t.Fatalf("read never unblocked")
	}
}

func TestInboundBufferEOFAfterDrain(t *testing.T) {
	b := newInboundBuffer(16)
	_ = b.write([]byte("ab"))
	b.setError(io.EOF)

	p := make([]byte, 16)
	n, err, _ := b.read(p)
	if err != nil || string(p[:n]) != "ab" {
		t.Fatalf("got (%q, %v), want (\"ab\", nil)", p[:n], err)
	}

	_, err, _ = b.read(p)
	if err != io.EOF {
		t.Errorf("got %v, want io.EOF once drained", err)
	}
}

func TestInboundBufferDeadlineExceeded(t *testing.T) {
	b := newInboundBuffer(16)
	b.setDeadline(time.Now().Add(-time.Second))
	p := make([]byte, 16)
	_, err, _ := b.read(p)
	if err == nil {
		t.Errorf("expected deadline exceeded error")
	}
}
