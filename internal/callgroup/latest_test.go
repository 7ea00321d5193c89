package callgroup

import (
	"context"
	"errors"
	"testing"
)

func TestLatestPublishes(t *testing.T) {
	var l Latest[[]int]
	if l.Load() != nil {
		t.Fatal("expected nothing published")
	}
	v, err := l.Do(context.Background(), func(context.Context) ([]int, error) {
		return []int{1, 2}, nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if len(v) != 2 || len(*l.Load()) != 2 {
		t.Errorf("got %v, published %v", v, *l.Load())
	}
}

func TestLatestSupersedes(t *testing.T) {
	var l Latest[string]
	started := make(chan struct{})
	firstDone := make(chan error, 1)

	go func() {
		_, err := l.Do(context.Background(), func(ctx context.Context) (string, error) {
			close(started)
			<-ctx.Done()
			return "stale", nil
		})
		firstDone <- err
	}()
	<-started

	v, err := l.Do(context.Background(), func(context.Context) (string, error) {
		return "fresh", nil
	})
	if err != nil || v != "fresh" {
		t.Fatalf("second call = %q, %v", v, err)
	}

	if err := <-firstDone; !errors.Is(err, ErrSuperseded) {
		t.Errorf("first call error = %v, want ErrSuperseded", err)
	}
	if got := *l.Load(); got != "fresh" {
		t.Errorf("published %q, want fresh", got)
	}
	if g := l.Generation(); g != 2 {
		t.Errorf("generation = %d, want 2", g)
	}
}

func TestLatestErrorKeepsPrevious(t *testing.T) {
	var l Latest[int]
	ctx := context.Background()
	if _, err := l.Do(ctx, func(context.Context) (int, error) { return 1, nil }); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("boom")
	if _, err := l.Do(ctx, func(context.Context) (int, error) { return 2, boom }); !errors.Is(err, boom) {
		t.Fatalf("error = %v, want boom", err)
	}
	if got := *l.Load(); got != 1 {
		t.Errorf("published %d, want 1", got)
	}
}
