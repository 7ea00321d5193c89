package callgroup

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrSuperseded is returned by Latest.Do when a newer call started before
// this one finished. The result of a superseded call is discarded.
var ErrSuperseded = errors.New("superseded by a newer call")

// Latest runs computations where only the newest one counts. Starting a
// call cancels the context of the call before it; a call that finishes
// after a newer one started returns ErrSuperseded and publishes nothing.
//
// The published value is swapped atomically, so Load never observes a
// partial result.
type Latest[T any] struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc

	current atomic.Pointer[T]
}

// Do runs fn as the newest call. On success the result is published and
// returned. On failure nothing is published.
func (l *Latest[T]) Do(ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l.mu.Lock()
	l.gen++
	gen := l.gen
	if l.cancel != nil {
		l.cancel()
	}
	l.cancel = cancel
	l.mu.Unlock()

	v, err := fn(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	var zero T
	if gen != l.gen {
		return zero, ErrSuperseded
	}
	l.cancel = nil
	if err != nil {
		return zero, err
	}
	l.current.Store(&v)
	return v, nil
}

// Load returns the last published value, or nil if nothing was published.
func (l *Latest[T]) Load() *T {
	return l.current.Load()
}

// Generation returns the number of calls started so far.
func (l *Latest[T]) Generation() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gen
}
