package tempoz

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// base holds what Debounce and Throttle share: configuration, the clock,
// identity, counters and the callback dispatch path.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type base struct {
	cfg   config
	clock Clock
	delay time.Duration
	id    string
	stats counters

	// coalesceLog keeps debug logs for overwritten arguments from
	// flooding the logger during fast bursts.
	coalesceLog rate.Sometimes
}

func (b *base) init(kind string, delay time.Duration, clock Clock, opts []Option) {
	b.cfg = newConfig(kind, opts)
	b.id = uuid.NewString()
	b.coalesceLog = rate.Sometimes{First: 1, Interval: time.Second}

	if clock == nil {
		clock = RealClock
	}
	b.clock = clock

	if delay < 0 {
		b.cfg.logger.Warn("negative delay clamped to zero",
			b.fields(zap.Duration("delay", delay))...)
		delay = 0
	}
	b.delay = delay
}

func (b *base) fields(extra ...zap.Field) []zap.Field {
	return append([]zap.Field{
		zap.String("scheduler", b.cfg.name),
		zap.String("instance", b.id),
	}, extra...)
}

// Name returns the scheduler name.
func (b *base) Name() string {
	return b.cfg.name
}

// ID returns the unique instance identifier used in logs.
func (b *base) ID() string {
	return b.id
}

// Delay returns the effective delay after clamping.
func (b *base) Delay() time.Duration {
	return b.delay
}

// Stats returns a snapshot of the scheduler's counters.
func (b *base) Stats() Stats {
	return b.stats.snapshot()
}

// dispatch runs a fired timer's work, on the loop when one is configured.
func (b *base) dispatch(task func()) {
	if b.cfg.loop == nil {
		task()
		return
	}
	if err := b.cfg.loop.Post(task); err != nil {
		b.cfg.logger.Warn("timer callback dropped", b.fields(zap.Error(err))...)
	}
}

func (b *base) dropped() {
	b.stats.dropped.Add(1)
	b.coalesceLog.Do(func() {
		b.cfg.logger.Debug("buffered call replaced", b.fields()...)
	})
}

// runCallback invokes fn from a timer callback. A panic in fn cannot reach
// the original caller, so it is wrapped in a CallbackError and delivered to
// the panic handler, or re-raised when none is set.
//
// at is the time the timer was due. Fake clocks run AfterFunc callbacks
// while holding their own lock, so nothing on this path may call the clock.
func runCallback[T any](b *base, fn func(T), arg T, edge Edge, at time.Time) {
	if fn == nil {
		return
	}
	b.stats.invoked(at)
	b.cfg.logger.Debug("invoking target", b.fields(zap.String("edge", string(edge)))...)
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err := NewCallbackError(arg, r, b.cfg.name, edge, at)
		b.cfg.logger.Error("target panicked in timer callback",
			b.fields(zap.String("edge", string(edge)), zap.Error(err))...)
		if b.cfg.onPanic == nil {
			panic(err)
		}
		b.cfg.onPanic(err)
	}()
	fn(arg)
}

// runDirect invokes fn on the caller's goroutine; panics propagate to the caller.
func runDirect[T any](b *base, fn func(T), arg T, edge Edge, at time.Time) {
	if fn == nil {
		return
	}
	b.stats.invoked(at)
	b.cfg.logger.Debug("invoking target", b.fields(zap.String("edge", string(edge)))...)
	fn(arg)
}

// stopTimers stops timers that were detached from the scheduler state.
// It must be called without holding the scheduler's locks, since a fake
// clock may be inside a callback that is waiting for them.
func stopTimers(timers ...Timer) {
	for _, t := range timers {
		if t != nil {
			t.Stop()
		}
	}
}
