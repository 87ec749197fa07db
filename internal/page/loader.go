package page

import (
	"context"
	"sync"
)

// Status is the renderable state of a page.
type Status int

const (
	Loading Status = iota
	Failed
	Loaded
)

func (s Status) String() string {
	switch s {
	case Failed:
		return "error"
	case Loaded:
		return "loaded"
	default:
		return "loading"
	}
}

// State is a page's data with its status. Err is set only when Failed.
type State[T any] struct {
	Status Status
	Data   T
	Err    error
}

// Loader runs one fetch per mount and keeps the last settled result.
// A newer mount supersedes an older in-flight one. The older caller then
// waits for the newer fetch and returns its result, so every caller whose
// own context is alive gets a settled state.
type Loader[T any] struct {
	mu      sync.Mutex
	state   State[T]
	current *Task[T]
	epoch   int
	wrapErr func(error) error
}

// NewLoader creates a loader. wrapErr converts fetch errors into what the
// page shows; nil keeps them as-is.
func NewLoader[T any](wrapErr func(error) error) *Loader[T] {
	if wrapErr == nil {
		wrapErr = func(err error) error { return err }
	}
	return &Loader[T]{wrapErr: wrapErr}
}

// Mount fetches the page data. It returns ErrDiscarded only when ctx ended
// or the loader was unmounted first; the state is then left untouched.
func (l *Loader[T]) Mount(ctx context.Context, fetch FetchFunc[T]) (State[T], error) {
	l.mu.Lock()
	epoch := l.epoch
	own := l.start(ctx, fetch)
	l.mu.Unlock()

	task := own
	for {
		data, err := wait(ctx, task)

		l.mu.Lock()
		if l.epoch != epoch || ctx.Err() != nil {
			if l.current == own {
				l.current = nil
			}
			state := l.state
			l.mu.Unlock()
			return state, ErrDiscarded
		}

		if l.current == task && err != ErrDiscarded {
			l.current = nil
			l.settle(data, err)
			state := l.state
			l.mu.Unlock()
			return state, nil
		}

		switch {
		case l.current != nil && l.current != task:
			// A newer mount took over; follow it.
			task = l.current
		case l.current == nil && l.state.Status != Loading:
			// Another caller settled the fetch we were following.
			state := l.state
			l.mu.Unlock()
			return state, nil
		default:
			// The fetch we followed was abandoned by its caller.
			own = l.start(ctx, fetch)
			task = own
		}
		l.mu.Unlock()
	}
}

// start begins a fetch that supersedes the current one. l.mu must be held.
func (l *Loader[T]) start(ctx context.Context, fetch FetchFunc[T]) *Task[T] {
	if l.current != nil {
		l.current.Cancel()
	}
	task := Start(ctx, fetch)
	l.current = task
	var zero T
	l.state = State[T]{Status: Loading, Data: zero}
	return task
}

func (l *Loader[T]) settle(data T, err error) {
	if err != nil {
		l.state = State[T]{Status: Failed, Err: l.wrapErr(err)}
		return
	}
	l.state = State[T]{Status: Loaded, Data: data}
}

// wait blocks until task settles or ctx ends.
func wait[T any](ctx context.Context, task *Task[T]) (T, error) {
	select {
	case <-task.done:
	case <-task.ctx.Done():
	case <-ctx.Done():
		var zero T
		return zero, ErrDiscarded
	}
	return task.Wait()
}

// Unmount cancels any in-flight fetch. Callers waiting on it return
// ErrDiscarded.
func (l *Loader[T]) Unmount() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.epoch++
	if l.current != nil {
		l.current.Cancel()
		l.current = nil
	}
}

// State returns the current state.
func (l *Loader[T]) State() State[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Update replaces the loaded data with fn(data). It reports false when
// nothing is loaded.
func (l *Loader[T]) Update(fn func(T) T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.Status != Loaded {
		return false
	}
	l.state.Data = fn(l.state.Data)
	return true
}
