// Package tempoz provides pacing primitives for interactive callers: a
// debounce scheduler that waits for a quiet period before calling its
// target, and a throttle scheduler that caps calls to one per window with
// configurable leading and trailing edges.
//
// Both schedulers wrap a target function and hand back an instance whose
// Call method is used in place of the target:
//
//	search := tempoz.NewDebounce(func(q string) {
//		runSearch(q)
//	}, 300*time.Millisecond, tempoz.RealClock)
//	defer search.Stop()
//
//	onChangeText := func(txt string) {
//		search.Call(txt)
//	}
//
// Timer callbacks run on clock goroutines by default. Pass WithLoop to route
// every callback through a single-goroutine Loop when callers need an
// event-loop model where nothing runs in parallel with anything else.
//
// clockz fake clocks run AfterFunc callbacks while holding their own lock.
// A target fired that way must not call the clock, directly or through a
// scheduler on the same clock; give such schedulers a Loop.
//
// Instances can also be driven by channels through Stream, which implements
// the Processor interface:
//
//	stream := tempoz.NewStream(tempoz.ThrottleWrapper[Event](time.Second, tempoz.RealClock))
//	limited := stream.Process(ctx, events)
//
// The reduce subpackage holds the reducer combinator and store used for
// local state management.
package tempoz

import "context"

// Invoker is the common surface of Debounce and Throttle.
// Implementations must be safe for concurrent use.
type Invoker[T any] interface {
	// Call hands an argument to the scheduler. Whether and when the target
	// runs with it is up to the scheduler.
	Call(arg T)

	// Flush runs any buffered call immediately on the caller's goroutine.
	// It reports whether the target ran.
	Flush() bool

	// Cancel drops any buffered call and stops the pending timer.
	// The instance stays usable. It reports whether a call was dropped.
	Cancel() bool

	// Stop disposes the instance. Pending timers are cancelled and
	// subsequent calls are ignored.
	Stop()

	// Name returns a descriptive name, useful for logs and debugging.
	Name() string
}

// Processor transforms an input channel of type In to an output channel of type Out.
// Processors should:
//   - Close the output channel when the input channel is closed
//   - Respect context cancellation
//   - Be safe for concurrent use
type Processor[In, Out any] interface {
	// Process transforms the input channel to an output channel.
	// It should close the output channel when processing is complete.
	Process(ctx context.Context, in <-chan In) <-chan Out

	// Name returns a descriptive name for the processor, useful for debugging.
	Name() string
}

// Edge identifies which part of a scheduling window triggered a target call.
type Edge string

const (
	// EdgeLeading is the immediate call at the start of a throttle window.
	EdgeLeading Edge = "leading"

	// EdgeTrailing is the deferred call at the end of a window or quiet period.
	EdgeTrailing Edge = "trailing"

	// EdgeFlush is a call forced by Flush.
	EdgeFlush Edge = "flush"
)

var (
	_ Invoker[struct{}] = (*Debounce[struct{}])(nil)
	_ Invoker[struct{}] = (*Throttle[struct{}])(nil)

	_ Processor[struct{}, struct{}] = (*Stream[struct{}])(nil)
)
