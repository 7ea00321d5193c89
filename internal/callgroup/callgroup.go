// Package callgroup coordinates concurrent computations.
//
// Group deduplicates calls by key: if multiple goroutines request the same
// key concurrently, only one executes the function and the others receive
// the same result. Once the function returns, the key is forgotten and
// future calls trigger a new execution.
//
// Latest coalesces recomputations: each call supersedes the one before
// it, and only the most recently started call may publish its result.
package callgroup

import (
	"context"
	"sync"
)

// Result is the outcome of a deduplicated call.
type Result[V any] struct {
	Val V
	Err error
}

// Group deduplicates concurrent function calls by key.
type Group[K comparable, V any] struct {
	mu    sync.Mutex
	calls map[K]*call[V]
}

type call[V any] struct {
	done chan struct{}
	res  Result[V]
}

// DoChan executes fn if no call is in flight for key. If a call is
// already in flight, the returned channel will receive the result of
// that existing call. The channel receives exactly one value and is
// never closed.
func (g *Group[K, V]) DoChan(key K, fn func() (V, error)) <-chan Result[V] {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[K]*call[V])
	}
	c, ok := g.calls[key]
	if !ok {
		c = &call[V]{done: make(chan struct{})}
		g.calls[key] = c
		go g.run(key, c, fn)
	}
	g.mu.Unlock()

	ch := make(chan Result[V], 1)
	go func() {
		<-c.done
		ch <- c.res
	}()
	return ch
}

func (g *Group[K, V]) run(key K, c *call[V], fn func() (V, error)) {
	c.res.Val, c.res.Err = fn()
	close(c.done)

	g.mu.Lock()
	delete(g.calls, key)
	g.mu.Unlock()
}

// Do is DoChan that waits for the result. It returns ctx.Err() if ctx is
// done first; the shared call keeps running for the other waiters.
func (g *Group[K, V]) Do(ctx context.Context, key K, fn func() (V, error)) (V, error) {
	select {
	case r := <-g.DoChan(key, fn):
		return r.Val, r.Err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}
