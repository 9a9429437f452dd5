package tempoz

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Throttle limits calls to a target to at most one per window, with an
// optional call at the start of a burst (leading edge) and an optional call
// with the latest buffered argument once the window closes (trailing edge).
//
// The scheduler has two states. While idle, a Call opens a window: the
// target runs immediately when the leading edge is enabled, otherwise the
// argument is buffered. While the window is open, calls only replace the
// buffered argument. When the window timer expires with nothing buffered
// the scheduler goes idle; otherwise the buffered argument is delivered
// (when the trailing edge is enabled) and a new window starts.
//
// The timer for that following window is armed as soon as an argument is
// buffered, so expiry never has to touch the clock.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type Throttle[T any] struct {
	base

	// fireMu serializes target runs: leading calls, trailing calls and Flush.
	fireMu sync.Mutex

	mu         sync.Mutex
	target     func(T)
	leading    bool
	trailing   bool
	windowOpen bool
	pending    T
	hasPending bool
	stopped    bool

	// Windows are numbered from seq. window is the open one and deadline
	// its end; next is the window armed to follow it, 0 when none is.
	seq      uint64
	window   uint64
	next     uint64
	deadline time.Time
	timers   map[uint64]Timer
}

// NewThrottle wraps target in a throttle scheduler.
// Leading and trailing edges are both enabled unless WithLeading(false) or
// WithTrailing(false) is passed.
//
// When to use:
//   - Mirroring fast-changing input at a steady rate
//   - Scroll and drag handlers
//   - Progress reporting from a hot loop
//
// Example:
//
//	// Update the preview at most once per second while typing
//	throttled := tempoz.NewThrottle(func(txt string) {
//		setPreview(txt)
//	}, time.Second, tempoz.RealClock)
//	defer throttled.Stop()
//
//	// Trailing edge only: wait for the window to close
//	trailingOnly := tempoz.NewThrottle(save, time.Second, tempoz.RealClock,
//		tempoz.WithLeading(false))
//
// Parameters:
//   - target: The function to call; may be replaced later with SetTarget
//   - delay: The window length; negative values are clamped to zero
//   - clock: Clock interface for time operations
//
// Disabling both edges is accepted and yields a throttle that never calls
// its target.
func NewThrottle[T any](target func(T), delay time.Duration, clock Clock, opts ...Option) *Throttle[T] {
	t := &Throttle[T]{target: target, timers: make(map[uint64]Timer)}
	t.init("throttle", delay, clock, opts)
	t.leading = t.cfg.leading
	t.trailing = t.cfg.trailing
	if !t.leading && !t.trailing {
		t.cfg.logger.Warn("both edges disabled; target will never be called", t.fields()...)
	}
	return t
}

// Call offers arg to the throttle. Outside a window it opens one and, with
// the leading edge enabled, runs the target on the caller's goroutine.
// Inside a window it replaces the buffered argument.
//
// If the target is already running when a window opens, the argument is
// buffered for the trailing edge instead of running alongside it.
func (t *Throttle[T]) Call(arg T) {
	now := t.clock.Now()

	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stats.calls.Add(1)

	if t.windowOpen {
		arm := t.bufferLocked(arg)
		t.mu.Unlock()
		t.arm(arm, now)
		return
	}

	t.seq++
	t.window = t.seq
	t.next = 0
	t.windowOpen = true
	t.deadline = now.Add(t.delay)
	arms := []armRequest{{id: t.window, due: t.deadline}}
	leading := t.leading
	fn := t.target
	if !leading {
		arms = append(arms, t.bufferLocked(arg))
	}
	t.mu.Unlock()

	for _, a := range arms {
		t.arm(a, now)
	}
	if !leading {
		return
	}

	if !t.fireMu.TryLock() {
		t.mu.Lock()
		if t.stopped || !t.windowOpen {
			t.stats.dropped.Add(1)
			t.mu.Unlock()
			return
		}
		a := t.bufferLocked(arg)
		t.mu.Unlock()
		t.arm(a, now)
		return
	}
	defer t.fireMu.Unlock()
	runDirect(&t.base, fn, arg, EdgeLeading, now)
}

// armRequest names a window timer to start once t.mu is released.
type armRequest struct {
	id  uint64
	due time.Time
}

// bufferLocked stores arg for the trailing edge. The first buffered
// argument of a window plans the window that follows it, which the caller
// arms after releasing t.mu. Caller must hold t.mu.
func (t *Throttle[T]) bufferLocked(arg T) armRequest {
	if t.hasPending {
		t.dropped()
	}
	t.pending = arg
	t.hasPending = true
	if t.next != 0 {
		return armRequest{}
	}
	t.seq++
	t.next = t.seq
	return armRequest{id: t.next, due: t.deadline.Add(t.delay)}
}

// arm starts the timer for window a.id. The clock is never called with
// t.mu or t.fireMu held: a fake clock runs expire under its own lock.
func (t *Throttle[T]) arm(a armRequest, now time.Time) {
	if a.id == 0 {
		return
	}
	timer := t.clock.AfterFunc(a.due.Sub(now), func() {
		t.dispatch(func() { t.expire(a.id) })
	})

	t.mu.Lock()
	live := !t.stopped && t.windowOpen && (a.id == t.window || a.id == t.next)
	if live {
		t.timers[a.id] = timer
	}
	t.mu.Unlock()
	if !live {
		stopTimers(timer)
	}
}

// expire handles the end of window id. The timer of the following window
// can, on a loaded real clock, run before the current one; the current
// window is then closed first.
func (t *Throttle[T]) expire(id uint64) {
	t.fireMu.Lock()
	defer t.fireMu.Unlock()

	for {
		t.mu.Lock()
		if t.stopped || !t.windowOpen || (id != t.window && id != t.next) {
			t.mu.Unlock()
			return
		}
		closed := t.window
		arg, fn, deliver, due := t.closeWindowLocked()
		t.mu.Unlock()

		if deliver {
			runCallback(&t.base, fn, arg, EdgeTrailing, due)
		}
		if closed == id {
			return
		}
	}
}

// closeWindowLocked ends the open window. With nothing buffered the
// throttle goes idle; otherwise the buffered argument is taken and the
// already armed next window becomes current. Caller must hold t.mu.
func (t *Throttle[T]) closeWindowLocked() (arg T, fn func(T), deliver bool, due time.Time) {
	due = t.deadline
	delete(t.timers, t.window)
	if !t.hasPending {
		t.windowOpen = false
		return arg, nil, false, due
	}

	arg = t.takeLocked()
	if t.next == 0 {
		t.windowOpen = false
	} else {
		t.window = t.next
		t.next = 0
		t.deadline = due.Add(t.delay)
	}
	if !t.trailing {
		t.stats.dropped.Add(1)
		return arg, nil, false, due
	}
	return arg, t.target, true, due
}

// takeLocked clears and returns the buffered argument. Caller must hold t.mu.
func (t *Throttle[T]) takeLocked() T {
	var zero T
	arg := t.pending
	t.pending = zero
	t.hasPending = false
	return arg
}

// detachTimersLocked removes every window timer from the state so the
// caller can stop them after releasing t.mu. Caller must hold t.mu.
func (t *Throttle[T]) detachTimersLocked() []Timer {
	timers := make([]Timer, 0, len(t.timers))
	for id, timer := range t.timers {
		timers = append(timers, timer)
		delete(t.timers, id)
	}
	return timers
}

// SetTarget replaces the target. Buffered arguments are delivered to the
// new target when the window closes.
func (t *Throttle[T]) SetTarget(target func(T)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.target = target
}

// SetEdges changes which edges fire. The new settings apply to the next
// Call and to the expiry of the current window.
func (t *Throttle[T]) SetEdges(leading, trailing bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.leading = leading
	t.trailing = trailing
}

// Pending reports whether an argument is buffered for the trailing edge.
func (t *Throttle[T]) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hasPending
}

// Active reports whether a throttle window is currently open.
func (t *Throttle[T]) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.windowOpen
}

// Flush delivers the buffered argument now, on the caller's goroutine, and
// starts a fresh window. Nothing runs when no argument is buffered or the
// trailing edge is disabled. It reports whether the target ran.
// Flush must not be called from within the target.
func (t *Throttle[T]) Flush() bool {
	now := t.clock.Now()

	t.fireMu.Lock()
	t.mu.Lock()
	if t.stopped || !t.hasPending || !t.trailing {
		t.mu.Unlock()
		t.fireMu.Unlock()
		return false
	}
	arg := t.takeLocked()
	fn := t.target
	old := t.detachTimersLocked()
	t.seq++
	t.window = t.seq
	t.next = 0
	t.windowOpen = true
	t.deadline = now.Add(t.delay)
	a := armRequest{id: t.window, due: t.deadline}
	t.mu.Unlock()

	// Deferred calls run last in first out: fireMu is released before the
	// clock is touched.
	defer t.arm(a, now)
	defer stopTimers(old...)
	defer t.fireMu.Unlock()

	t.cfg.logger.Debug("flushing buffered call", t.fields()...)
	runDirect(&t.base, fn, arg, EdgeFlush, now)
	return true
}

// Cancel closes the current window and drops any buffered argument.
// The instance stays usable and the next Call opens a new window.
func (t *Throttle[T]) Cancel() bool {
	t.mu.Lock()
	cancelled, timers := t.cancelLocked()
	t.mu.Unlock()

	stopTimers(timers...)
	return cancelled
}

func (t *Throttle[T]) cancelLocked() (bool, []Timer) {
	timers := t.detachTimersLocked()
	t.seq++
	t.window = t.seq
	t.next = 0
	t.windowOpen = false
	if !t.hasPending {
		return false, timers
	}
	t.takeLocked()
	t.stats.dropped.Add(1)
	t.cfg.logger.Debug("buffered call cancelled", t.fields()...)
	return true, timers
}

// Stop cancels the window timers and disposes the instance.
// It is safe to call more than once.
func (t *Throttle[T]) Stop() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	_, timers := t.cancelLocked()
	t.stopped = true
	t.cfg.logger.Debug("throttle stopped", t.fields(zap.Int64("calls", t.stats.calls.Load()))...)
	t.mu.Unlock()

	stopTimers(timers...)
}
