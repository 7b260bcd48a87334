// Package future provides single-assignment pending results.
//
// A Future settles exactly once, either with a value or with an error. Any
// number of goroutines may wait on it; later Resolve/Reject calls are ignored.
package future

import (
	"context"
	"sync"
)

// Future is a pending result of type T.
type Future[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

// New returns an unsettled future.
func New[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved returns a future already settled with v.
func Resolved[T any](v T) *Future[T] {
	f := New[T]()
	f.Resolve(v)
	return f
}

// Rejected returns a future already settled with err.
func Rejected[T any](err error) *Future[T] {
	f := New[T]()
	f.Reject(err)
	return f
}

// Resolve settles the future with v. It reports whether this call settled it.
func (f *Future[T]) Resolve(v T) bool {
	return f.settle(v, nil)
}

// Reject settles the future with err. It reports whether this call settled it.
func (f *Future[T]) Reject(err error) bool {
	var zero T
	return f.settle(zero, err)
}

func (f *Future[T]) settle(v T, err error) bool {
	settled := false
	f.once.Do(func() {
		f.value = v
		f.err = err
		settled = true
		close(f.done)
	})
	return settled
}

// Done is closed once the future settles.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future settles or ctx is done.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Peek returns the settled result without blocking. ok is false while pending.
func (f *Future[T]) Peek() (value T, err error, ok bool) {
	select {
	case <-f.done:
		return f.value, f.err, true
	default:
		var zero T
		return zero, nil, false
	}
}
