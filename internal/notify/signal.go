// Package notify provides a broadcast signal for state changes.
package notify

import (
	"context"
	"sync"
)

// Signal wakes every waiter on each Notify. Waiters take the channel from
// C and must call C again after each wakeup.
type Signal struct {
	mu  sync.Mutex
	ch  chan struct{}
	seq uint64
}

// NewSignal creates a ready-to-use Signal.
func NewSignal() *Signal { return &Signal{ch: make(chan struct{})} }

// Notify wakes all current waiters.
func (s *Signal) Notify() {
	s.mu.Lock()
	close(s.ch)
	s.ch = make(chan struct{})
	s.seq++
	s.mu.Unlock()
}

// C returns a channel closed by the next Notify.
func (s *Signal) C() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ch
}

// Seq returns the number of Notify calls so far.
func (s *Signal) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// WaitAfter blocks until more than seq notifications have happened or
// ctx is done. It returns the new sequence number.
func (s *Signal) WaitAfter(ctx context.Context, seq uint64) (uint64, error) {
	for {
		s.mu.Lock()
		cur, ch := s.seq, s.ch
		s.mu.Unlock()
		if cur > seq {
			return cur, nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return cur, ctx.Err()
		}
	}
}
