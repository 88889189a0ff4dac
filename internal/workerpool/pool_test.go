package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestPoolBoundsConcurrency(t *testing.T) {
	t.Parallel()

	pool := New(2)
	var active, peak int64
	var wg sync.WaitGroup

	gate := make(chan struct{})
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pool.Do(context.Background(), func() error {
				n := atomic.AddInt64(&active, 1)
				for {
					p := atomic.LoadInt64(&peak)
					if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
						break
					}
				}
				<-gate
				atomic.AddInt64(&active, -1)
				return nil
			})
		}()
	}

	close(gate)
	wg.Wait()

	if p := atomic.LoadInt64(&peak); p > 2 {
		t.Fatalf("expected at most 2 concurrent tasks, observed %d", p)
	}
}

func TestPoolPropagatesTaskError(t *testing.T) {
	t.Parallel()

	pool := New(1)
	want := errors.New("task failed")
	if err := pool.Do(context.Background(), func() error { return want }); !errors.Is(err, want) {
		t.Fatalf("expected task error, got %v", err)
	}
}

func TestPoolRespectsContextWhileWaiting(t *testing.T) {
	t.Parallel()

	pool := New(1)
	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = pool.Do(context.Background(), func() error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := pool.Do(ctx, func() error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	close(release)
}

func TestRunReturnsValue(t *testing.T) {
	t.Parallel()

	pool := New(1)
	got, err := Run(context.Background(), pool, func() (string, error) { return "out", nil })
	if err != nil || got != "out" {
		t.Fatalf("expected out, got %q (%v)", got, err)
	}
}
