package tempoz

import "go.uber.org/zap"

// Option configures a Debounce or Throttle.
type Option func(*config)

//nolint:govet // fieldalignment: struct layout optimized for readability
type config struct {
	name     string
	logger   *zap.Logger
	loop     *Loop
	onPanic  func(error)
	leading  bool
	trailing bool
}

func newConfig(name string, opts []Option) config {
	c := config{
		name:     name,
		logger:   zap.NewNop(),
		leading:  true,
		trailing: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}
	return c
}

// WithName overrides the scheduler name reported by Name and used in logs.
func WithName(name string) Option {
	return func(c *config) {
		if name != "" {
			c.name = name
		}
	}
}

// WithLogger sets the logger. A nil logger leaves logging disabled.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLoop routes timer callbacks through l so they run on the loop's
// goroutine, serialized with every other task posted to it.
func WithLoop(l *Loop) Option {
	return func(c *config) {
		c.loop = l
	}
}

// WithPanicHandler receives panics raised by the target inside timer
// callbacks, wrapped in a *CallbackError. Without a handler such panics
// are logged and re-raised on the callback goroutine.
func WithPanicHandler(fn func(error)) Option {
	return func(c *config) {
		c.onPanic = fn
	}
}

// WithLeading enables or disables the throttle's leading-edge call.
// Debounce ignores it.
func WithLeading(enabled bool) Option {
	return func(c *config) {
		c.leading = enabled
	}
}

// WithTrailing enables or disables the throttle's trailing-edge call.
// Debounce ignores it.
func WithTrailing(enabled bool) Option {
	return func(c *config) {
		c.trailing = enabled
	}
}
