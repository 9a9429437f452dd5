package tempoz

import (
	"context"
	"sync"
	"time"
)

// Wrapper builds a named Invoker around a target function.
type Wrapper[T any] struct {
	name  string
	build func(target func(T)) Invoker[T]
}

// Name returns the name the built schedulers report.
func (w Wrapper[T]) Name() string {
	return w.name
}

// Wrap builds a new Invoker around target.
func (w Wrapper[T]) Wrap(target func(T)) Invoker[T] {
	return w.build(target)
}

// DebounceWrapper returns a Wrapper that builds a Debounce.
func DebounceWrapper[T any](delay time.Duration, clock Clock, opts ...Option) Wrapper[T] {
	return Wrapper[T]{
		name: newConfig("debounce", opts).name,
		build: func(target func(T)) Invoker[T] {
			return NewDebounce(target, delay, clock, opts...)
		},
	}
}

// ThrottleWrapper returns a Wrapper that builds a Throttle.
func ThrottleWrapper[T any](delay time.Duration, clock Clock, opts ...Option) Wrapper[T] {
	return Wrapper[T]{
		name: newConfig("throttle", opts).name,
		build: func(target func(T)) Invoker[T] {
			return NewThrottle(target, delay, clock, opts...)
		},
	}
}

// Stream drives an Invoker from a channel. Every item read from the input
// is passed to Call, and every target run is emitted on the output.
type Stream[T any] struct {
	name string
	wrap Wrapper[T]
}

// NewStream creates a processor around the scheduler built by wrap.
// A fresh scheduler is built for every Process call.
//
// Example:
//
//	// Emit search queries only after 300ms without typing
//	stream := tempoz.NewStream(tempoz.DebounceWrapper[string](300*time.Millisecond, tempoz.RealClock))
//	queries := stream.Process(ctx, keystrokes)
//
// When the input closes, any buffered call is flushed before the output
// closes. When ctx is cancelled, buffered calls are dropped.
func NewStream[T any](wrap Wrapper[T]) *Stream[T] {
	return &Stream[T]{
		name: wrap.Name() + "-stream",
		wrap: wrap,
	}
}

// Process reads items from in until it closes or ctx is cancelled, passing
// each to a fresh scheduler. Items the scheduler delivers are sent on the
// returned channel, which closes once the scheduler has been stopped.
func (s *Stream[T]) Process(ctx context.Context, in <-chan T) <-chan T {
	out := make(chan T)

	go func() {
		var mu sync.Mutex
		closed := false

		inv := s.wrap.Wrap(func(item T) {
			mu.Lock()
			defer mu.Unlock()
			if closed {
				return
			}
			select {
			case out <- item:
			case <-ctx.Done():
			}
		})

		defer func() {
			inv.Stop()
			mu.Lock()
			closed = true
			close(out)
			mu.Unlock()
		}()

		for {
			select {
			case item, ok := <-in:
				if !ok {
					inv.Flush()
					return
				}
				inv.Call(item)
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// Name returns the scheduler name with a "-stream" suffix.
func (s *Stream[T]) Name() string {
	return s.name
}
