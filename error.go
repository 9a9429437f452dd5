package tempoz

import (
	"errors"
	"fmt"
	"time"
)

// ErrLoopClosed is returned when posting to a Loop that has been closed.
var ErrLoopClosed = errors.New("tempoz: loop closed")

// CallbackError reports a panic raised by a target while it was running
// inside a timer callback. Such panics cannot reach the goroutine that made
// the original Call, so they are captured here together with the argument
// that was being delivered.
//
//nolint:govet // fieldalignment: struct layout optimized for readability over memory
type CallbackError[T any] struct {
	// Args is the argument the target was called with.
	Args T

	// Err is the recovered panic value as an error.
	Err error

	// Scheduler is the name of the scheduler that ran the target.
	Scheduler string

	// Edge identifies the kind of call that panicked.
	Edge Edge

	// Timestamp records when the panic was recovered.
	Timestamp time.Time
}

// NewCallbackError builds a CallbackError from a recovered panic value.
// Non-error values are formatted into an error.
func NewCallbackError[T any](args T, recovered any, scheduler string, edge Edge, at time.Time) *CallbackError[T] {
	err, ok := recovered.(error)
	if !ok {
		err = fmt.Errorf("panic: %v", recovered)
	}
	return &CallbackError[T]{
		Args:      args,
		Err:       err,
		Scheduler: scheduler,
		Edge:      edge,
		Timestamp: at,
	}
}

// String returns a human-readable representation of the error.
func (ce *CallbackError[T]) String() string {
	return fmt.Sprintf("CallbackError[%s/%s]: %v (args: %v, time: %s)",
		ce.Scheduler, ce.Edge, ce.Err, ce.Args, ce.Timestamp.Format(time.RFC3339))
}

// Unwrap returns the underlying error, enabling error wrapping chains.
func (ce *CallbackError[T]) Unwrap() error {
	return ce.Err
}

// Error implements the error interface.
func (ce *CallbackError[T]) Error() string {
	return ce.String()
}
