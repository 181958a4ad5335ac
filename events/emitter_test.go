package events

import (
	"testing"

	"cosmossdk.io/log"
	"github.com/stretchr/testify/assert"
)

func TestEmitOrderAndFilter(t *testing.T) {
	e := NewEmitter(log.NewNopLogger())
	var got []string
	e.Subscribe(EventQuestCompleted, func(ev Event) { got = append(got, "first:"+ev.TxID) })
	e.Subscribe(EventQuestCompleted, func(ev Event) { got = append(got, "second:"+ev.TxID) })
	e.Subscribe(EventQuestClaimed, func(ev Event) { got = append(got, "claimed:"+ev.TxID) })

	e.EmitAll([]Event{
		{Type: EventQuestCompleted, TxID: "a"},
		{Type: EventScoreSubmitted, TxID: "b"},
		{Type: EventQuestClaimed, TxID: "c"},
	})

	assert.Equal(t, []string{"first:a", "second:a", "claimed:c"}, got)
}

func TestPanickingHandlerIsIsolated(t *testing.T) {
	e := NewEmitter(log.NewNopLogger())
	called := false
	e.Subscribe(EventTxExecuted, func(Event) { panic("boom") })
	e.Subscribe(EventTxExecuted, func(Event) { called = true })

	assert.NotPanics(t, func() { e.Emit(Event{Type: EventTxExecuted}) })
	assert.True(t, called)
}
