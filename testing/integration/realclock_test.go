package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/tempoz"
)

// These tests run against the real clock with generous margins. They cover
// what the fake clock cannot: timers firing on runtime goroutines.

func TestRealClock_DebounceBurst(t *testing.T) {
	var mu sync.Mutex
	var got []int
	fired := make(chan struct{}, 1)

	d := tempoz.NewDebounce(func(n int) {
		mu.Lock()
		got = append(got, n)
		mu.Unlock()
		fired <- struct{}{}
	}, 50*time.Millisecond, tempoz.RealClock)
	defer d.Stop()

	for i := 0; i < 10; i++ {
		d.Call(i)
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("debounced call never fired")
	}
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != 9 {
		t.Errorf("expected [9], got %v", got)
	}
}

func TestRealClock_ZeroDelayDebounceIsAsync(t *testing.T) {
	caller := make(chan struct{})
	fired := make(chan struct{})

	d := tempoz.NewDebounce(func(struct{}) {
		<-caller // only proceeds once Call has returned
		close(fired)
	}, 0, tempoz.RealClock)
	defer d.Stop()

	d.Call(struct{}{})
	close(caller)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("zero-delay call never fired")
	}
}

func TestRealClock_ThrottleWithLoop(t *testing.T) {
	loop := tempoz.NewLoop(nil)
	defer loop.Close()

	var mu sync.Mutex
	var got []string
	trailing := make(chan struct{}, 1)

	throttle := tempoz.NewThrottle(func(s string) {
		mu.Lock()
		got = append(got, s)
		n := len(got)
		mu.Unlock()
		if n == 2 {
			trailing <- struct{}{}
		}
	}, 50*time.Millisecond, tempoz.RealClock, tempoz.WithLoop(loop))
	defer throttle.Stop()

	throttle.Call("a")
	throttle.Call("b")
	throttle.Call("c")

	select {
	case <-trailing:
	case <-time.After(time.Second):
		t.Fatal("trailing call never fired")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Errorf("expected [a c], got %v", got)
	}
}

func TestRealClock_StreamPipeline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	in := make(chan int)
	throttled := tempoz.NewStream(tempoz.ThrottleWrapper[int](20*time.Millisecond, tempoz.RealClock)).Process(ctx, in)
	debounced := tempoz.NewStream(tempoz.DebounceWrapper[int](20*time.Millisecond, tempoz.RealClock)).Process(ctx, throttled)

	go func() {
		defer close(in)
		for i := 0; i < 20; i++ {
			in <- i
			time.Sleep(time.Millisecond)
		}
	}()

	var last int
	var count int
	for v := range debounced {
		last = v
		count++
	}

	if count == 0 {
		t.Fatal("expected at least one value through the pipeline")
	}
	if last != 19 {
		t.Errorf("expected the final value 19 to be flushed through, got %d", last)
	}
}
