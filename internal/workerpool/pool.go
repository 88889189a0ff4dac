package workerpool

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Pool bounds how much CPU-bound or blocking work runs at once. Callers run
// their task on their own goroutine after acquiring a slot, so a hung task
// stalls only its own caller while holding one slot.
type Pool struct {
	sem *semaphore.Weighted
}

// New creates a pool with the given number of slots. Sizes below one are
// clamped to one.
func New(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size))}
}

// Do runs fn once a slot is free. Acquisition respects ctx; the task itself
// is not interrupted once started.
func (p *Pool) Do(ctx context.Context, fn func() error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	return fn()
}

// Run is Do for tasks that produce a value.
func Run[T any](ctx context.Context, p *Pool, fn func() (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, func() error {
		var err error
		out, err = fn()
		return err
	})
	return out, err
}
