// Package demo holds the state of the reducer demo page: a counter and a
// todo list combined into one root reducer.
package demo

import (
	"slices"

	"go.uber.org/zap"

	"github.com/zoobzio/tempoz/reduce"
)

// Action types understood by the demo reducers. Anything else passes
// through unchanged.
const (
	ActionInc     = "INC"
	ActionDec     = "DEC"
	ActionReset   = "RESET"
	ActionAddTodo = "ADD_TODO"
)

// Action is dispatched to the root reducer.
type Action struct {
	Type    string
	Payload string
}

var (
	// Count is the counter slice.
	Count = reduce.NewKey[int]("count")

	// Todo is the todo list slice.
	Todo = reduce.NewKey[[]string]("todo")
)

// Root combines the counter and todo reducers.
var Root = reduce.MustCombine(
	reduce.Bind(Count, 0, CounterReducer),
	reduce.Bind(Todo, []string{}, TodoReducer),
)

func CounterReducer(state int, action Action) int {
	switch action.Type {
	case ActionInc:
		return state + 1
	case ActionDec:
		return state - 1
	case ActionReset:
		return 0
	default:
		return state
	}
}

func TodoReducer(state []string, action Action) []string {
	switch action.Type {
	case ActionAddTodo:
		return append(slices.Clone(state), action.Payload)
	default:
		return state
	}
}

// NewStore returns a store over Root starting from the initial state.
func NewStore(logger *zap.Logger) *reduce.Store[reduce.State, Action] {
	return reduce.NewStore(Root, Root(reduce.State{}, Action{}),
		reduce.WithStoreName[reduce.State]("demo"),
		reduce.WithStoreLogger[reduce.State](logger),
		reduce.WithEquality(reduce.StateEqual),
	)
}
