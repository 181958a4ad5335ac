package vm

import (
	"fmt"
	"math"

	errorsmod "cosmossdk.io/errors"

	"github.com/tolelom/vivorun/core"
	"github.com/tolelom/vivorun/events"
)

// Executor applies transactions to the state using the global Handler registry.
type Executor struct {
	state core.State
}

// NewExecutor creates an Executor over state.
func NewExecutor(state core.State) *Executor {
	return &Executor{state: state}
}

// ExecuteTx verifies and executes a single transaction at height. A validly
// signed transaction carrying the expected nonce always consumes that nonce,
// even when its handler fails. Either every handler write stays in the state
// buffer and its events are returned, or the handler's writes are reverted.
func (e *Executor) ExecuteTx(height int64, tx *core.Transaction) ([]events.Event, error) {
	if err := tx.Verify(); err != nil {
		return nil, errorsmod.Wrap(core.ErrUnauthorized, err.Error())
	}
	if err := e.useNonce(tx); err != nil {
		return nil, err
	}

	snapID, err := e.state.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	ctx := &Context{State: e.state, Height: height, Tx: tx}
	if err := globalRegistry.Execute(tx.Type, ctx, tx.Payload); err != nil {
		if revertErr := e.state.RevertToSnapshot(snapID); revertErr != nil {
			return nil, fmt.Errorf("revert snapshot after tx failure: %w (revert: %v)", err, revertErr)
		}
		return nil, err
	}
	return ctx.Events(), nil
}

// useNonce checks tx.Nonce against the signer's account and increments it.
// A mismatch leaves the account untouched.
func (e *Executor) useNonce(tx *core.Transaction) error {
	acc, err := e.state.GetAccount(tx.From)
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	}
	if acc.Nonce != tx.Nonce {
		return errorsmod.Wrapf(core.ErrInvalidNonce, "expected %d got %d", acc.Nonce, tx.Nonce)
	}
	if acc.Nonce == math.MaxUint64 {
		return errorsmod.Wrapf(core.ErrOverflow, "nonce of %s", tx.From)
	}
	acc.Nonce++
	return e.state.SetAccount(acc)
}
