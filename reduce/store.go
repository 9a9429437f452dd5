package reduce

import (
	"sync"

	"go.uber.org/zap"
)

// StoreOption configures a Store.
type StoreOption[S any] func(*storeConfig[S])

type storeConfig[S any] struct {
	name   string
	logger *zap.Logger
	equal  func(a, b S) bool
}

// WithStoreName sets the name used in logs.
func WithStoreName[S any](name string) StoreOption[S] {
	return func(c *storeConfig[S]) {
		if name != "" {
			c.name = name
		}
	}
}

// WithStoreLogger sets the logger. A nil logger leaves logging disabled.
func WithStoreLogger[S any](logger *zap.Logger) StoreOption[S] {
	return func(c *storeConfig[S]) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithEquality lets the store skip notifying subscribers when a dispatch
// leaves the state equal to the previous one. Without it every dispatch
// notifies.
func WithEquality[S any](equal func(a, b S) bool) StoreOption[S] {
	return func(c *storeConfig[S]) {
		c.equal = equal
	}
}

// Store holds a state value and applies actions to it through a reducer.
// Dispatches are serialized; subscribers run after the state has been
// replaced, outside the store lock, in subscription order.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type Store[S, A any] struct {
	cfg     storeConfig[S]
	reducer Reducer[S, A]

	mu     sync.Mutex
	state  S
	nextID uint64
	subs   []subscriber[S]
}

type subscriber[S any] struct {
	id uint64
	fn func(S)
}

// NewStore creates a store that starts at initial.
// Reducers run under the store lock and must not dispatch to the same store.
func NewStore[S, A any](reducer Reducer[S, A], initial S, opts ...StoreOption[S]) *Store[S, A] {
	cfg := storeConfig[S]{
		name:   "store",
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Store[S, A]{
		cfg:     cfg,
		reducer: reducer,
		state:   initial,
	}
}

// State returns the current state.
func (s *Store[S, A]) State() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies action and returns the resulting state.
func (s *Store[S, A]) Dispatch(action A) S {
	s.mu.Lock()
	prev := s.state
	next := s.reducer(prev, action)
	s.state = next
	changed := s.cfg.equal == nil || !s.cfg.equal(prev, next)
	var subs []subscriber[S]
	if changed {
		subs = make([]subscriber[S], len(s.subs))
		copy(subs, s.subs)
	}
	s.mu.Unlock()

	if !changed {
		s.cfg.logger.Debug("dispatch left state unchanged", zap.String("store", s.cfg.name))
		return next
	}
	for _, sub := range subs {
		sub.fn(next)
	}
	return next
}

// Subscribe registers fn to receive the state after every dispatch that
// changed it. The returned function removes the subscription and may be
// called more than once.
func (s *Store[S, A]) Subscribe(fn func(S)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber[S]{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}
