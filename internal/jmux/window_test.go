package jmux

import (
	"testing"
	"time"
)

func TestOutboundWindowDecrementRespectsAvailable(t *testing.T) {
	w := newOutboundWindow(10)
	got, err := w.decrement(100)
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if got != 10 {
		t.Errorf("got %d, want 10 (capped to available window)", got)
	}
}

func TestOutboundWindowBlocksUntilIncrement(t *testing.T) {
	w := newOutboundWindow(0)

	done := make(chan uint32, 1)
	go func() {
		got, err := w.decrement(5)
		if err != nil {
			t.Error(err)
		}
		done <- got
	}()

	select {
	case <-done:
		t.Fatalf("decrement returned before any window was available")
	case <-time.After(20 * time.Millisecond):
	}

	w.increment(5)

	select {
	case got := <-done:
		if got != 5 {
			t.Errorf("got %d, want 5", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("decrement never unblocked after increment")
	}
}

func TestOutboundWindowIncrementZeroIsNoop(t *testing.T) {
	w := newOutboundWindow(3)
	if overflowed := w.increment(0); overflowed {
		t.Errorf("incrementing by 0 should never overflow")
	}
	got, err := w.decrement(100)
	if err != nil || got != 3 {
		t.Errorf("got (%d, %v), want (3, nil)", got, err)
	}
}

func TestOutboundWindowIncrementSaturates(t *testing.T) {
	w := newOutboundWindow(0xFFFFFFF0)
	if overflowed := w.increment(0x20); !overflowed {
		t.Errorf("expected overflow when incrementing past uint32 max")
	}
}

func TestOutboundWindowSetErrorUnblocksWaiters(t *testing.T) {
	w := newOutboundWindow(0)
	errc := make(chan error, 1)
	go func() {
		_, err := w.decrement(1)
		errc <- err
	}()
	time.Sleep(10 * time.Millisecond)
	w.setError(errChannelClosed)
	if err := <-errc; err != errChannelClosed {
		t.Errorf("got %v, want errChannelClosed", err)
	}
}
