// Package testing provides test utilities for tempoz.
package testing

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
)

// Call is one recorded target invocation.
type Call[T any] struct {
	// Arg is the argument the target received.
	Arg T

	// At is the clock offset from the recorder's start.
	At time.Duration
}

// Clock is a clockz.FakeClock that also publishes how far it has been
// advanced. clockz runs AfterFunc callbacks while holding its lock, so a
// target fired by Advance cannot call Now; it can call Elapsed.
type Clock struct {
	*clockz.FakeClock
	elapsed atomic.Int64
}

// NewClock creates a fake clock starting at the current time.
func NewClock() *Clock {
	return &Clock{FakeClock: clockz.NewFakeClock()}
}

// Advance moves the clock forward by d. Elapsed reports the new offset to
// callbacks fired during the advance.
func (c *Clock) Advance(d time.Duration) {
	c.elapsed.Add(int64(d))
	c.FakeClock.Advance(d)
}

// Elapsed returns the total duration passed to Advance.
func (c *Clock) Elapsed() time.Duration {
	return time.Duration(c.elapsed.Load())
}

// Recorder collects target invocations with the clock offset at which
// they happened. Callbacks fired by one Advance are all recorded at the
// offset that advance reached, so tests step in increments that land on
// the expected deadlines.
// It is safe for concurrent use, since targets usually run on timer goroutines.
type Recorder[T any] struct {
	mu    sync.Mutex
	clock *Clock
	calls []Call[T]
}

// NewRecorder creates a recorder reading offsets from clock.
func NewRecorder[T any](clock *Clock) *Recorder[T] {
	return &Recorder[T]{clock: clock}
}

// Target is the function to hand to a scheduler.
func (r *Recorder[T]) Target(arg T) {
	at := r.clock.Elapsed()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call[T]{Arg: arg, At: at})
}

// Calls returns a copy of the recorded calls.
func (r *Recorder[T]) Calls() []Call[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call[T], len(r.calls))
	copy(out, r.calls)
	return out
}

// Args returns the recorded arguments in call order.
func (r *Recorder[T]) Args() []T {
	calls := r.Calls()
	out := make([]T, len(calls))
	for i, c := range calls {
		out[i] = c.Arg
	}
	return out
}

// Len returns the number of recorded calls.
func (r *Recorder[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// Step advances the clock by d and waits for the timer callbacks it
// triggered to finish.
func (c *Clock) Step(d time.Duration) {
	c.Advance(d)
	c.BlockUntilReady()
}

// StepBy steps the clock n times by d. Timers armed at the deadline of a
// window are only observed at the right offsets when time moves in steps
// no larger than that window.
func (c *Clock) StepBy(d time.Duration, n int) {
	for i := 0; i < n; i++ {
		c.Step(d)
	}
}

// AssertCallCount verifies the expected number of calls were recorded.
func AssertCallCount[T any](t *testing.T, r *Recorder[T], expected int) {
	t.Helper()

	if got := r.Len(); got != expected {
		t.Errorf("expected %d calls, got %d: %v", expected, got, r.Calls())
	}
}

// AssertCall verifies the i-th recorded call's argument and offset.
func AssertCall[T comparable](t *testing.T, r *Recorder[T], i int, arg T, at time.Duration) {
	t.Helper()

	calls := r.Calls()
	if i >= len(calls) {
		t.Errorf("call %d: only %d calls recorded", i, len(calls))
		return
	}
	if calls[i].Arg != arg {
		t.Errorf("call %d: expected arg %v, got %v", i, arg, calls[i].Arg)
	}
	if calls[i].At != at {
		t.Errorf("call %d: expected at %v, got %v", i, at, calls[i].At)
	}
}
