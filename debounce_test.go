package tempoz

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	tztest "github.com/zoobzio/tempoz/testing"
)

func TestDebounce_Name(t *testing.T) {
	d := NewDebounce(func(string) {}, 100*time.Millisecond, RealClock)
	defer d.Stop()

	if d.Name() != "debounce" {
		t.Errorf("expected name 'debounce', got %q", d.Name())
	}
	if d.ID() == "" {
		t.Error("expected a non-empty instance id")
	}

	named := NewDebounce(func(string) {}, time.Millisecond, RealClock, WithName("search"))
	defer named.Stop()
	if named.Name() != "search" {
		t.Errorf("expected name 'search', got %q", named.Name())
	}
	if named.ID() == d.ID() {
		t.Error("expected distinct instance ids")
	}
}

func TestDebounce_BurstFiresOnceWithLastArgs(t *testing.T) {
	clock := tztest.NewClock()
	start := clock.Now()
	rec := tztest.NewRecorder[int](clock)
	d := NewDebounce(rec.Target, 50*time.Millisecond, clock)
	defer d.Stop()

	// Rapid succession of values
	d.Call(1)
	clock.Step(10 * time.Millisecond)
	d.Call(2)
	clock.Step(10 * time.Millisecond)
	d.Call(3)

	// Just short of the quiet period after the last call
	clock.Step(49 * time.Millisecond)
	tztest.AssertCallCount(t, rec, 0)

	clock.Step(time.Millisecond)
	tztest.AssertCallCount(t, rec, 1)
	tztest.AssertCall(t, rec, 0, 3, 70*time.Millisecond)

	// Nothing else is scheduled
	clock.Step(time.Second)
	tztest.AssertCallCount(t, rec, 1)

	stats := d.Stats()
	if stats.Calls != 3 || stats.Invocations != 1 || stats.Dropped != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if want := start.Add(70 * time.Millisecond); !stats.LastInvocation.Equal(want) {
		t.Errorf("expected last invocation at the timer's due time %v, got %v", want, stats.LastInvocation)
	}
}

func TestDebounce_SpacedCallsFireEach(t *testing.T) {
	clock := tztest.NewClock()
	rec := tztest.NewRecorder[string](clock)
	d := NewDebounce(rec.Target, 100*time.Millisecond, clock)
	defer d.Stop()

	for i := 0; i < 3; i++ {
		d.Call(fmt.Sprintf("v%d", i))
		clock.Step(100 * time.Millisecond)
	}

	tztest.AssertCallCount(t, rec, 3)
	tztest.AssertCall(t, rec, 0, "v0", 100*time.Millisecond)
	tztest.AssertCall(t, rec, 1, "v1", 200*time.Millisecond)
	tztest.AssertCall(t, rec, 2, "v2", 300*time.Millisecond)
}

func TestDebounce_ZeroDelayIsDeferred(t *testing.T) {
	clock := tztest.NewClock()
	rec := tztest.NewRecorder[int](clock)
	d := NewDebounce(rec.Target, 0, clock)
	defer d.Stop()

	d.Call(1)
	if rec.Len() != 0 {
		t.Fatal("zero delay must not call the target synchronously")
	}
	if !d.Pending() {
		t.Error("expected call to be pending")
	}

	clock.Step(time.Millisecond)
	tztest.AssertCallCount(t, rec, 1)
	if d.Pending() {
		t.Error("expected nothing pending after firing")
	}
}

func TestDebounce_NegativeDelayClamped(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	clock := tztest.NewClock()
	rec := tztest.NewRecorder[int](clock)

	d := NewDebounce(rec.Target, -5*time.Second, clock, WithLogger(zap.New(core)))
	defer d.Stop()

	if d.Delay() != 0 {
		t.Errorf("expected delay clamped to 0, got %v", d.Delay())
	}
	if logs.FilterMessage("negative delay clamped to zero").Len() != 1 {
		t.Error("expected a warning about the clamped delay")
	}

	d.Call(7)
	clock.Step(time.Millisecond)
	tztest.AssertCallCount(t, rec, 1)
}

func TestDebounce_CancelPreventsFiring(t *testing.T) {
	clock := tztest.NewClock()
	rec := tztest.NewRecorder[int](clock)
	d := NewDebounce(rec.Target, 50*time.Millisecond, clock)
	defer d.Stop()

	d.Call(1)
	if !d.Cancel() {
		t.Error("expected Cancel to report a dropped call")
	}
	if d.Cancel() {
		t.Error("expected second Cancel to report nothing dropped")
	}

	clock.Step(time.Second)
	tztest.AssertCallCount(t, rec, 0)

	// Still usable after Cancel
	d.Call(2)
	clock.Step(50 * time.Millisecond)
	tztest.AssertCallCount(t, rec, 1)
	tztest.AssertCall(t, rec, 0, 2, time.Second+50*time.Millisecond)
}

func TestDebounce_StopDisposes(t *testing.T) {
	clock := tztest.NewClock()
	rec := tztest.NewRecorder[int](clock)
	d := NewDebounce(rec.Target, 50*time.Millisecond, clock)

	d.Call(1)
	d.Stop()
	d.Stop() // idempotent

	clock.Step(time.Second)
	tztest.AssertCallCount(t, rec, 0)

	d.Call(2)
	clock.Step(time.Second)
	tztest.AssertCallCount(t, rec, 0)

	if d.Flush() {
		t.Error("expected Flush on a stopped debounce to do nothing")
	}
}

func TestDebounce_SetTargetUsesLatest(t *testing.T) {
	clock := tztest.NewClock()
	stale := tztest.NewRecorder[string](clock)
	current := tztest.NewRecorder[string](clock)

	d := NewDebounce(stale.Target, 100*time.Millisecond, clock)
	defer d.Stop()

	d.Call("scheduled-before-swap")
	d.SetTarget(current.Target)

	clock.Step(100 * time.Millisecond)

	tztest.AssertCallCount(t, stale, 0)
	tztest.AssertCallCount(t, current, 1)
	tztest.AssertCall(t, current, 0, "scheduled-before-swap", 100*time.Millisecond)
}

func TestDebounce_Flush(t *testing.T) {
	clock := tztest.NewClock()
	rec := tztest.NewRecorder[int](clock)
	d := NewDebounce(rec.Target, 100*time.Millisecond, clock)
	defer d.Stop()

	if d.Flush() {
		t.Error("expected Flush with nothing pending to report false")
	}

	d.Call(1)
	d.Call(2)
	if !d.Flush() {
		t.Fatal("expected Flush to run the pending call")
	}
	tztest.AssertCallCount(t, rec, 1)
	tztest.AssertCall(t, rec, 0, 2, 0)

	// The flushed timer must not fire again
	clock.Step(time.Second)
	tztest.AssertCallCount(t, rec, 1)
}

func TestDebounce_PanicHandler(t *testing.T) {
	clock := tztest.NewClock()
	core, logs := observer.New(zapcore.ErrorLevel)

	var mu sync.Mutex
	var caught []error
	d := NewDebounce(func(q string) {
		panic("boom: " + q)
	}, 10*time.Millisecond, clock,
		WithLogger(zap.New(core)),
		WithPanicHandler(func(err error) {
			mu.Lock()
			defer mu.Unlock()
			caught = append(caught, err)
		}),
	)
	defer d.Stop()

	d.Call("query")
	clock.Step(10 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(caught) != 1 {
		t.Fatalf("expected 1 recovered panic, got %d", len(caught))
	}

	var cbErr *CallbackError[string]
	if !errors.As(caught[0], &cbErr) {
		t.Fatalf("expected *CallbackError[string], got %T", caught[0])
	}
	if cbErr.Args != "query" {
		t.Errorf("expected args 'query', got %q", cbErr.Args)
	}
	if cbErr.Edge != EdgeTrailing {
		t.Errorf("expected trailing edge, got %q", cbErr.Edge)
	}
	if cbErr.Scheduler != "debounce" {
		t.Errorf("expected scheduler 'debounce', got %q", cbErr.Scheduler)
	}
	if logs.FilterMessage("target panicked in timer callback").Len() != 1 {
		t.Error("expected the panic to be logged")
	}
}

// TestDebounce_ReentrantCall runs on a loop: the fake clock runs timer
// callbacks under its own lock, so a target calling back into a scheduler
// on the same clock must run elsewhere.
func TestDebounce_ReentrantCall(t *testing.T) {
	clock := tztest.NewClock()
	loop := NewLoop(nil)
	defer loop.Close()
	rec := tztest.NewRecorder[int](clock)

	var d *Debounce[int]
	d = NewDebounce(func(n int) {
		rec.Target(n)
		if n < 3 {
			d.Call(n + 1)
		}
	}, 10*time.Millisecond, clock, WithLoop(loop))
	defer d.Stop()

	d.Call(1)
	for i := 0; i < 5; i++ {
		clock.Step(10 * time.Millisecond)
		if err := loop.Do(func() {}); err != nil {
			t.Fatal(err)
		}
	}

	tztest.AssertCallCount(t, rec, 3)
	tztest.AssertCall(t, rec, 2, 3, 30*time.Millisecond)
}

func TestDebounce_ConcurrentCallers(t *testing.T) {
	clock := tztest.NewClock()
	rec := tztest.NewRecorder[int](clock)
	d := NewDebounce(rec.Target, 50*time.Millisecond, clock)
	defer d.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			d.Call(n)
		}(i)
	}
	wg.Wait()

	clock.Step(50 * time.Millisecond)
	tztest.AssertCallCount(t, rec, 1)

	if got := d.Stats().Calls; got != 20 {
		t.Errorf("expected 20 calls counted, got %d", got)
	}
}

// Example demonstrates debouncing rapid user input.
func ExampleDebounce() {
	clock := clockz.NewFakeClock()

	// Mirror the input 1s after the user stops typing.
	debounced := NewDebounce(func(txt string) {
		fmt.Println("debounced:", txt)
	}, time.Second, clock)
	defer debounced.Stop()

	for _, txt := range []string{"h", "he", "hel", "hell", "hello"} {
		debounced.Call(txt)
		clock.Advance(100 * time.Millisecond)
		clock.BlockUntilReady()
	}

	clock.Advance(time.Second)
	clock.BlockUntilReady()

	// Output:
	// debounced: hello
}
