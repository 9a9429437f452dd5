package reduce

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// State is an immutable record of named slices produced by a combined
// reducer. Keys keep the order in which their slices were declared.
//
// The zero State holds no slices and stands in for "no previous state".
type State struct {
	keys   []string
	values map[string]any
}

// IsZero reports whether s holds no slices.
func (s State) IsZero() bool {
	return len(s.keys) == 0
}

// Len returns the number of slices.
func (s State) Len() int {
	return len(s.keys)
}

// Keys returns the slice names in declaration order.
func (s State) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Has reports whether s holds a slice named key.
func (s State) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Value returns the untyped value of the slice named key.
// Prefer Key.Get for typed access.
func (s State) Value(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// String renders s as {key: value, ...} in key order.
func (s State) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range s.keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %v", k, s.values[k])
	}
	b.WriteByte('}')
	return b.String()
}

// Fingerprint hashes the keys and the Go-syntax rendering of every value.
// Different fingerprints mean the states differ, or hold distinct pointers
// to equal values. Equal fingerprints do not prove equality: values may
// collide or render alike, as pointers nested in a value render as
// addresses.
func (s State) Fingerprint() uint64 {
	h := xxhash.New()
	for _, k := range s.keys {
		_, _ = h.WriteString(k)
		_, _ = h.WriteString("=")
		_, _ = fmt.Fprintf(h, "%#v", s.values[k])
		_, _ = h.WriteString(";")
	}
	return h.Sum64()
}

// StateEqual reports whether a and b hold the same keys with deeply equal
// values. Fingerprints are compared first to reject most changes cheaply.
// It is meant for StoreOption WithEquality.
//
// Reducers must return new values rather than mutate a previous state in
// place; a change made behind a shared pointer is visible in both states
// and cannot be detected.
func StateEqual(a, b State) bool {
	if len(a.keys) != len(b.keys) || a.Fingerprint() != b.Fingerprint() {
		return false
	}
	for i, k := range a.keys {
		if b.keys[i] != k {
			return false
		}
		bv, ok := b.values[k]
		if !ok || !reflect.DeepEqual(a.values[k], bv) {
			return false
		}
	}
	return true
}
