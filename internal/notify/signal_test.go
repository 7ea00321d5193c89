package notify

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSignalWakesAllWaiters(t *testing.T) {
	s := NewSignal()
	a, b := s.C(), s.C()
	s.Notify()
	for i, ch := range []<-chan struct{}{a, b} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatalf("waiter %d not woken", i)
		}
	}
	select {
	case <-s.C():
		t.Fatal("fresh channel should be open")
	default:
	}
	if got := s.Seq(); got != 1 {
		t.Errorf("Seq = %d, want 1", got)
	}
}

func TestWaitAfter(t *testing.T) {
	s := NewSignal()
	s.Notify()

	// Already past seq 0: returns immediately.
	got, err := s.WaitAfter(context.Background(), 0)
	if err != nil || got != 1 {
		t.Fatalf("WaitAfter(0) = %d, %v", got, err)
	}

	done := make(chan uint64)
	go func() {
		n, _ := s.WaitAfter(context.Background(), 1)
		done <- n
	}()
	s.Notify()
	select {
	case n := <-done:
		if n != 2 {
			t.Errorf("WaitAfter(1) = %d, want 2", n)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitAfter did not return")
	}
}

func TestWaitAfterCancelled(t *testing.T) {
	s := NewSignal()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.WaitAfter(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
