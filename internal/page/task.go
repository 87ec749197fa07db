// Package page models the data-loading lifecycle of storefront pages.
package page

import (
	"context"
	"errors"
)

// ErrDiscarded is returned for results that settle after their task was
// cancelled. Such results are never applied.
var ErrDiscarded = errors.New("page: result discarded after cancellation")

// FetchFunc retrieves a page's data.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Task is a single in-flight fetch tied to a page's visible lifetime.
type Task[T any] struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	result    T
	err       error
	discarded bool
}

// Start runs fetch in its own goroutine under a context derived from ctx.
func Start[T any](ctx context.Context, fetch FetchFunc[T]) *Task[T] {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task[T]{
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(t.done)
		result, err := fetch(ctx)
		if ctx.Err() != nil {
			t.discarded = true
			return
		}
		t.result, t.err = result, err
	}()

	return t
}

// Cancel stops the task. A result that has not yet settled is discarded.
func (t *Task[T]) Cancel() {
	t.cancel()
}

// Wait blocks until the task settles or is cancelled. A task that already
// settled returns its result even if it was cancelled afterwards.
func (t *Task[T]) Wait() (T, error) {
	var zero T

	select {
	case <-t.done:
	default:
		select {
		case <-t.done:
		case <-t.ctx.Done():
			return zero, ErrDiscarded
		}
	}

	defer t.cancel()
	if t.discarded {
		return zero, ErrDiscarded
	}
	return t.result, t.err
}
