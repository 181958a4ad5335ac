// Package events is the in-process pub/sub bus for ledger events.
package events

import (
	"sync"

	"cosmossdk.io/log"
)

// EventType labels what happened.
type EventType string

const (
	EventBlockCommit    EventType = "block_commit"
	EventTxExecuted     EventType = "tx_executed"
	EventTxFailed       EventType = "tx_failed"
	EventInitialized    EventType = "initialized"
	EventScoreSubmitted EventType = "score_submitted"
	EventQuestCreated   EventType = "quest_created"
	EventQuestCompleted EventType = "quest_completed"
	EventQuestClaimed   EventType = "quest_claimed"
	EventLifelineBought EventType = "lifeline_bought"
)

// Event carries a typed payload emitted after a state change.
type Event struct {
	Type        EventType      `json:"type"`
	TxID        string         `json:"tx_id,omitempty"`
	BlockHeight int64          `json:"block_height"`
	Data        map[string]any `json:"data"`
}

// Handler is a callback invoked for matching events.
type Handler func(Event)

// Emitter is a synchronous pub/sub broker. Subscribe before Emit.
type Emitter struct {
	logger log.Logger

	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewEmitter creates an Emitter with no subscribers.
func NewEmitter(logger log.Logger) *Emitter {
	return &Emitter{
		logger:   logger.With("module", "events"),
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe registers h to be called whenever typ is emitted.
func (e *Emitter) Subscribe(typ EventType, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[typ] = append(e.handlers[typ], h)
}

// Emit delivers ev to every subscriber of ev.Type in subscription order.
// A panicking handler is logged and skipped.
func (e *Emitter) Emit(ev Event) {
	e.mu.RLock()
	handlers := e.handlers[ev.Type]
	e.mu.RUnlock()
	for _, h := range handlers {
		e.call(h, ev)
	}
}

// EmitAll emits evs in order.
func (e *Emitter) EmitAll(evs []Event) {
	for _, ev := range evs {
		e.Emit(ev)
	}
}

func (e *Emitter) call(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("event handler panicked", "event", string(ev.Type), "tx", ev.TxID, "panic", r)
		}
	}()
	h(ev)
}
