package tempoz

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Debounce delays calls to a target until a quiet period has passed since
// the last Call. Only the argument of the last call in a burst reaches the
// target.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type Debounce[T any] struct {
	base

	// fireMu serializes target runs from timer callbacks and Flush.
	fireMu sync.Mutex

	mu         sync.Mutex
	target     func(T)
	timer      Timer
	pending    T
	hasPending bool
	gen        uint64
	stopped    bool
}

// NewDebounce wraps target in a debounce scheduler.
// Each Call cancels the previously scheduled call and schedules a new one
// delay after it, so target runs once per burst with the latest argument.
//
// When to use:
//   - Search-as-you-type input
//   - Saving a form after the user stops editing
//   - Reacting to resize or scroll only once it settles
//
// Example:
//
//	// Mirror input text 1s after the user stops typing
//	debounced := tempoz.NewDebounce(func(txt string) {
//		setOutput(txt)
//	}, time.Second, tempoz.RealClock)
//	defer debounced.Stop()
//
//	debounced.Call("h")
//	debounced.Call("he") // only "he" is delivered
//
// Parameters:
//   - target: The function to call; may be replaced later with SetTarget
//   - delay: The quiet period; negative values are clamped to zero
//   - clock: Clock interface for time operations
//
// A zero delay still defers the call to a timer callback.
func NewDebounce[T any](target func(T), delay time.Duration, clock Clock, opts ...Option) *Debounce[T] {
	d := &Debounce[T]{target: target}
	d.init("debounce", delay, clock, opts)
	return d
}

// Call schedules target(arg) after the delay, replacing any call that is
// still pending. Calls made after Stop are ignored.
func (d *Debounce[T]) Call(arg T) {
	now := d.clock.Now()

	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stats.calls.Add(1)
	if d.hasPending {
		d.dropped()
	}
	d.gen++
	gen := d.gen
	d.pending = arg
	d.hasPending = true
	old := d.timer
	d.timer = nil
	d.mu.Unlock()

	stopTimers(old)

	// The clock is only touched with d.mu released: a fake clock holds its
	// lock while running fire, which needs d.mu.
	due := now.Add(d.delay)
	timer := d.clock.AfterFunc(d.delay, func() {
		d.dispatch(func() { d.fire(gen, due) })
	})

	d.mu.Lock()
	live := !d.stopped && gen == d.gen && d.hasPending
	if live {
		d.timer = timer
	}
	d.mu.Unlock()
	if !live {
		stopTimers(timer)
	}
}

// fire delivers the pending argument if gen is still the live schedule.
func (d *Debounce[T]) fire(gen uint64, due time.Time) {
	d.fireMu.Lock()
	defer d.fireMu.Unlock()

	d.mu.Lock()
	if d.stopped || gen != d.gen || !d.hasPending {
		d.mu.Unlock()
		return
	}
	arg, fn := d.takeLocked()
	d.mu.Unlock()

	runCallback(&d.base, fn, arg, EdgeTrailing, due)
}

// takeLocked clears the pending call and returns it with the current target.
// Caller must hold d.mu.
func (d *Debounce[T]) takeLocked() (T, func(T)) {
	var zero T
	arg := d.pending
	d.pending = zero
	d.hasPending = false
	d.timer = nil
	return arg, d.target
}

// SetTarget replaces the target. Calls that are already scheduled will use
// the new target when they fire.
func (d *Debounce[T]) SetTarget(target func(T)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.target = target
}

// Pending reports whether a call is scheduled and has not fired yet.
func (d *Debounce[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hasPending
}

// Flush runs the pending call now, on the caller's goroutine, instead of
// waiting for the timer. It reports whether the target ran.
// Flush must not be called from within the target.
func (d *Debounce[T]) Flush() bool {
	now := d.clock.Now()

	d.fireMu.Lock()
	d.mu.Lock()
	if d.stopped || !d.hasPending {
		d.mu.Unlock()
		d.fireMu.Unlock()
		return false
	}
	d.gen++
	old := d.timer
	arg, fn := d.takeLocked()
	d.mu.Unlock()

	defer stopTimers(old)
	defer d.fireMu.Unlock()

	d.cfg.logger.Debug("flushing pending call", d.fields()...)
	runDirect(&d.base, fn, arg, EdgeFlush, now)
	return true
}

// Cancel drops the pending call, if any. The instance stays usable.
func (d *Debounce[T]) Cancel() bool {
	d.mu.Lock()
	cancelled, timer := d.cancelLocked()
	d.mu.Unlock()

	stopTimers(timer)
	return cancelled
}

// cancelLocked invalidates the schedule and detaches its timer, which the
// caller stops after releasing d.mu.
func (d *Debounce[T]) cancelLocked() (bool, Timer) {
	d.gen++
	timer := d.timer
	d.timer = nil
	if !d.hasPending {
		return false, timer
	}
	var zero T
	d.pending = zero
	d.hasPending = false
	d.stats.dropped.Add(1)
	d.cfg.logger.Debug("pending call cancelled", d.fields()...)
	return true, timer
}

// Stop cancels any pending call and disposes the instance.
// It is safe to call more than once.
func (d *Debounce[T]) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	_, timer := d.cancelLocked()
	d.stopped = true
	d.cfg.logger.Debug("debounce stopped", d.fields(zap.Int64("calls", d.stats.calls.Load()))...)
	d.mu.Unlock()

	stopTimers(timer)
}
