package vm

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/tolelom/vivorun/core"
	"github.com/tolelom/vivorun/events"
)

// Context is passed to every Handler. It gives access to the ledger state
// and the transaction being executed, and collects the events the handler
// emits. Collected events are published only if the transaction succeeds.
type Context struct {
	State  core.State
	Height int64
	Tx     *core.Transaction

	events []events.Event
}

// RequireAuth succeeds only when the transaction was signed by player.
// The signature has already been verified by the executor.
func (c *Context) RequireAuth(player string) error {
	if player == "" {
		return errorsmod.Wrap(core.ErrUnauthorized, "empty player")
	}
	if player != c.Tx.From {
		return errorsmod.Wrapf(core.ErrUnauthorized, "signer %s cannot act for player %s", c.Tx.From, player)
	}
	return nil
}

// Emit queues an event stamped with the current transaction and height.
func (c *Context) Emit(typ events.EventType, data map[string]any) {
	c.events = append(c.events, events.Event{
		Type:        typ,
		TxID:        c.Tx.ID,
		BlockHeight: c.Height,
		Data:        data,
	})
}

// Events returns the queued events.
func (c *Context) Events() []events.Event {
	return c.events
}
