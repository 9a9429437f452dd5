package tempoz

import (
	"sync"

	"go.uber.org/zap"
)

// Loop is a single-goroutine task queue. Tasks run one at a time in the
// order they were posted, never in parallel with each other. Schedulers
// created WithLoop hand their timer callbacks to the loop, which gives
// callers an event-loop model: targets, store dispatches and anything else
// posted to the same loop observe each other sequentially.
//
// The queue is unbounded so that tasks may post further tasks without
// blocking the loop.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type Loop struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
	logger *zap.Logger
}

// NewLoop starts a loop goroutine. A nil logger disables logging.
func NewLoop(logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Loop{
		done:   make(chan struct{}),
		logger: logger,
	}
	l.cond = sync.NewCond(&l.mu)
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.closed {
			l.cond.Wait()
		}
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		task := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		task()
	}
}

// Post queues task to run on the loop goroutine.
// It returns ErrLoopClosed once Close has been called.
func (l *Loop) Post(task func()) error {
	if task == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrLoopClosed
	}
	l.queue = append(l.queue, task)
	l.cond.Signal()
	return nil
}

// Do posts task and waits for it to finish.
// Calling Do from a task running on the same loop deadlocks.
func (l *Loop) Do(task func()) error {
	if task == nil {
		return nil
	}
	finished := make(chan struct{})
	if err := l.Post(func() {
		defer close(finished)
		task()
	}); err != nil {
		return err
	}
	<-finished
	return nil
}

// Close stops accepting tasks, lets queued tasks finish and waits for the
// loop goroutine to exit. Calling Close from a task deadlocks.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.done
		return
	}
	l.closed = true
	remaining := len(l.queue)
	l.cond.Broadcast()
	l.mu.Unlock()

	l.logger.Debug("loop closing", zap.Int("queued", remaining))
	<-l.done
}

// Done is closed once the loop goroutine has exited.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
