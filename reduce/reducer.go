// Package reduce composes independent slice reducers into one reducer over
// a composite State, and provides a Store that applies actions to it.
//
// Each slice is declared with a typed Key, an initial value and a reducer
// that only ever sees its own slice:
//
//	var (
//		Count = reduce.NewKey[int]("count")
//		Todo  = reduce.NewKey[[]string]("todo")
//	)
//
//	root := reduce.MustCombine(
//		reduce.Bind(Count, 0, counterReducer),
//		reduce.Bind(Todo, []string{}, todoReducer),
//	)
//
//	next := root(reduce.State{}, Action{Type: "INC"})
//	Count.Get(next) // 1
//
// Reducers must be pure and total: actions they do not recognize return the
// previous state unchanged. Slice values are shared between successive
// states, so reducers must return new values instead of mutating the ones
// they receive.
package reduce

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyKey is returned by Combine for a slice with an empty name.
	ErrEmptyKey = errors.New("reduce: empty slice key")

	// ErrDuplicateKey is returned by Combine when two slices share a name.
	ErrDuplicateKey = errors.New("reduce: duplicate slice key")

	// ErrNilReducer is returned by Combine for a slice without a reducer.
	ErrNilReducer = errors.New("reduce: nil reducer")
)

// Reducer computes the next state from the previous state and an action.
type Reducer[S, A any] func(state S, action A) S

// Key names a slice of a State and fixes the type of its value.
type Key[S any] struct {
	name string
}

// NewKey returns a key for a slice called name.
func NewKey[S any](name string) Key[S] {
	return Key[S]{name: name}
}

// Name returns the slice name.
func (k Key[S]) Name() string {
	return k.name
}

// Lookup returns the slice value from st. ok is false when st has no such
// slice or it holds a value of a different type.
func (k Key[S]) Lookup(st State) (value S, ok bool) {
	raw, found := st.values[k.name]
	if !found {
		return value, false
	}
	value, ok = raw.(S)
	return value, ok
}

// Get returns the slice value from st, or the zero value of S.
func (k Key[S]) Get(st State) S {
	v, _ := k.Lookup(st)
	return v
}

// Slice is one entry of a combined reducer. Build it with Bind.
type Slice[A any] interface {
	sliceKey() string
	validate() error
	step(prev State, action A) any
}

type slice[S, A any] struct {
	key     Key[S]
	initial S
	reducer Reducer[S, A]
}

// Bind ties a reducer to a slice key. initial is handed to the reducer
// whenever the previous state has no value for key, so the first dispatch
// against an empty State always yields a fully populated record.
func Bind[S, A any](key Key[S], initial S, reducer Reducer[S, A]) Slice[A] {
	return slice[S, A]{key: key, initial: initial, reducer: reducer}
}

func (s slice[S, A]) sliceKey() string {
	return s.key.name
}

func (s slice[S, A]) validate() error {
	if s.key.name == "" {
		return ErrEmptyKey
	}
	if s.reducer == nil {
		return fmt.Errorf("slice %q: %w", s.key.name, ErrNilReducer)
	}
	return nil
}

func (s slice[S, A]) step(prev State, action A) any {
	current, ok := s.key.Lookup(prev)
	if !ok {
		current = s.initial
	}
	return s.reducer(current, action)
}

// Combine builds a reducer over State from independent slice reducers.
// Slices run in the order given. Each reducer receives only its own
// previous value and the action, and its result is written into a freshly
// allocated State; the input State is never modified.
func Combine[A any](slices ...Slice[A]) (Reducer[State, A], error) {
	keys := make([]string, 0, len(slices))
	seen := make(map[string]struct{}, len(slices))
	for i, s := range slices {
		if s == nil {
			return nil, fmt.Errorf("slice %d: %w", i, ErrNilReducer)
		}
		if err := s.validate(); err != nil {
			return nil, err
		}
		k := s.sliceKey()
		if _, dup := seen[k]; dup {
			return nil, fmt.Errorf("slice %q: %w", k, ErrDuplicateKey)
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}

	ordered := make([]Slice[A], len(slices))
	copy(ordered, slices)

	return func(state State, action A) State {
		next := State{
			keys:   keys,
			values: make(map[string]any, len(ordered)),
		}
		for _, s := range ordered {
			next.values[s.sliceKey()] = s.step(state, action)
		}
		return next
	}, nil
}

// MustCombine is like Combine but panics on an invalid slice set.
// It suits package-level reducer declarations.
func MustCombine[A any](slices ...Slice[A]) Reducer[State, A] {
	r, err := Combine(slices...)
	if err != nil {
		panic(err)
	}
	return r
}
