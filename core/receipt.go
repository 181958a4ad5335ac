package core

import (
	errorsmod "cosmossdk.io/errors"
)

// Receipt records the outcome of a processed transaction. Failed
// transactions are not included in a block, so the receipt is the only
// place a client can learn why its invocation was rejected.
type Receipt struct {
	TxID        string `json:"tx_id"`
	Type        TxType `json:"type"`
	From        string `json:"from"`
	BlockHeight int64  `json:"block_height"`
	Success     bool   `json:"success"`
	Codespace   string `json:"codespace,omitempty"`
	Code        uint32 `json:"code,omitempty"`
	Log         string `json:"log,omitempty"`
}

// NewReceipt builds the receipt of tx processed at height with result err.
func NewReceipt(tx *Transaction, height int64, err error) *Receipt {
	r := &Receipt{
		TxID:        tx.ID,
		Type:        tx.Type,
		From:        tx.From,
		BlockHeight: height,
		Success:     err == nil,
	}
	if err != nil {
		r.Codespace, r.Code, r.Log = errorsmod.ABCIInfo(err, false)
	}
	return r
}
