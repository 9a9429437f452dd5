// Package replay runs a scenario against the debounce, throttle and reducer
// primitives on a fake clock, producing a deterministic timeline.
package replay

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/clockz"
	"go.uber.org/zap"

	"github.com/zoobzio/tempoz"
	"github.com/zoobzio/tempoz/internal/demo"
	"github.com/zoobzio/tempoz/internal/scenario"
	"github.com/zoobzio/tempoz/reduce"
)

// Source names the output row an event belongs to.
type Source string

const (
	SourceDefault  Source = "default"
	SourceThrottle Source = "throttle"
	SourceDebounce Source = "debounce"
)

var sourceRank = map[Source]int{
	SourceDefault:  0,
	SourceThrottle: 1,
	SourceDebounce: 2,
}

// Event is one update of an output row.
type Event struct {
	At     time.Duration
	Source Source
	Text   string
}

// Timeline is the ordered list of output updates.
type Timeline []Event

// Of returns the events of a single source.
func (tl Timeline) Of(src Source) Timeline {
	var out Timeline
	for _, e := range tl {
		if e.Source == src {
			out = append(out, e)
		}
	}
	return out
}

// Snapshot is the reducer state after one dispatched action.
type Snapshot struct {
	Action demo.Action
	State  reduce.State
}

// Result is everything a replay produced.
type Result struct {
	Timeline  Timeline
	Snapshots []Snapshot
	Debounce  tempoz.Stats
	Throttle  tempoz.Stats
}

// Run replays sc. Keystrokes update the default row immediately and are
// passed to a debounce and a throttle bound to the other rows. After the
// last keystroke the clock keeps running long enough for every pending
// call to land. Actions are then dispatched to the demo store.
func Run(ctx context.Context, sc *scenario.Scenario, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clock := clockz.NewFakeClock()

	// Targets fired by the fake clock run under its lock and cannot call
	// Now, so the offset the clock is being advanced to is kept here.
	var offset atomic.Int64

	var mu sync.Mutex
	var timeline Timeline
	record := func(src Source) func(string) {
		return func(text string) {
			at := time.Duration(offset.Load())
			mu.Lock()
			defer mu.Unlock()
			timeline = append(timeline, Event{At: at, Source: src, Text: text})
		}
	}

	leading, trailing := sc.Throttle.Edges()
	debounced := tempoz.NewDebounce(record(SourceDebounce), sc.Debounce.Delay.Std(), clock,
		tempoz.WithLogger(logger.Named("debounce")))
	defer debounced.Stop()
	throttled := tempoz.NewThrottle(record(SourceThrottle), sc.Throttle.Delay.Std(), clock,
		tempoz.WithLogger(logger.Named("throttle")),
		tempoz.WithLeading(leading),
		tempoz.WithTrailing(trailing))
	defer throttled.Stop()
	setDefault := record(SourceDefault)

	res := sc.Resolution.Std()
	var elapsed time.Duration
	advanceTo := func(target time.Duration) error {
		for elapsed < target {
			if err := ctx.Err(); err != nil {
				return err
			}
			step := min(res, target-elapsed)
			elapsed += step
			offset.Store(int64(elapsed))
			clock.Advance(step)
			clock.BlockUntilReady()
		}
		return nil
	}

	for _, k := range sc.Input {
		if err := advanceTo(k.At.Std()); err != nil {
			return nil, err
		}
		setDefault(k.Text)
		debounced.Call(k.Text)
		throttled.Call(k.Text)
	}

	// Throttle windows re-arm after a trailing call, so allow two windows.
	tail := max(sc.Debounce.Delay.Std(), 2*sc.Throttle.Delay.Std()) + res
	if err := advanceTo(elapsed + tail); err != nil {
		return nil, err
	}

	mu.Lock()
	sort.SliceStable(timeline, func(i, j int) bool {
		if timeline[i].At != timeline[j].At {
			return timeline[i].At < timeline[j].At
		}
		return sourceRank[timeline[i].Source] < sourceRank[timeline[j].Source]
	})
	result := &Result{
		Timeline: timeline,
		Debounce: debounced.Stats(),
		Throttle: throttled.Stats(),
	}
	mu.Unlock()

	result.Snapshots = Reduce(sc.Actions, logger)

	logger.Debug("replay finished",
		zap.String("scenario", sc.Name),
		zap.Int("events", len(result.Timeline)),
		zap.Int("actions", len(result.Snapshots)),
		zap.Duration("elapsed", elapsed))

	return result, nil
}

// Reduce dispatches actions to a fresh demo store and snapshots the state
// after each one.
func Reduce(actions []scenario.Action, logger *zap.Logger) []Snapshot {
	if logger == nil {
		logger = zap.NewNop()
	}
	store := demo.NewStore(logger.Named("store"))

	snapshots := make([]Snapshot, 0, len(actions))
	for _, a := range actions {
		action := demo.Action{Type: a.Type, Payload: a.Payload}
		st := store.Dispatch(action)
		snapshots = append(snapshots, Snapshot{Action: action, State: st})
	}
	return snapshots
}
