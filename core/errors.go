package core

import (
	"errors"

	errorsmod "cosmossdk.io/errors"
)

// Codespace namespaces the ledger's registered error codes.
const Codespace = "vivorun"

// ErrNotFound is returned when a requested object does not exist in storage.
var ErrNotFound = errors.New("not found")

// Rejecting failures. Any of them aborts the whole invocation.
var (
	ErrUnauthorized        = errorsmod.Register(Codespace, 2, "caller is not authorized for player")
	ErrQuestNotCompleted   = errorsmod.Register(Codespace, 3, "quest not completed")
	ErrAlreadyClaimed      = errorsmod.Register(Codespace, 4, "quest already claimed")
	ErrInsufficientBalance = errorsmod.Register(Codespace, 5, "insufficient tokens")
	ErrInvalidRequest      = errorsmod.Register(Codespace, 6, "invalid request")
	ErrOverflow            = errorsmod.Register(Codespace, 7, "counter overflow")
	ErrInvalidNonce        = errorsmod.Register(Codespace, 8, "invalid nonce")
)
