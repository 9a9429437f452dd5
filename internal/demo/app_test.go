package demo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/zoobzio/tempoz/reduce"
)

func TestRoot(t *testing.T) {
	st := Root(reduce.State{}, Action{Type: "SOMETHING_ELSE"})
	assert.Equal(t, "{count: 0, todo: []}", st.String())

	st = Root(reduce.State{}, Action{Type: ActionInc})
	assert.Equal(t, "{count: 1, todo: []}", st.String())

	st = Root(st, Action{Type: ActionAddTodo, Payload: "x"})
	assert.Equal(t, 1, Count.Get(st))
	assert.Equal(t, []string{"x"}, Todo.Get(st))

	st = Root(st, Action{Type: ActionReset})
	assert.Equal(t, 0, Count.Get(st))
	assert.Equal(t, []string{"x"}, Todo.Get(st))
}

func TestNewStore(t *testing.T) {
	store := NewStore(zap.NewNop())
	assert.Equal(t, "{count: 0, todo: []}", store.State().String())

	var seen []string
	store.Subscribe(func(st reduce.State) { seen = append(seen, st.String()) })

	store.Dispatch(Action{Type: ActionDec})
	store.Dispatch(Action{Type: "NOPE"})

	assert.Equal(t, []string{"{count: -1, todo: []}"}, seen)
}
