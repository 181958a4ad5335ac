package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tolelom/vivorun/crypto"
)

// BlockHeader is the hashed and signed part of a block.
type BlockHeader struct {
	Height      int64  `json:"height"`
	PrevHash    string `json:"prev_hash"`
	StateRoot   string `json:"state_root"` // ledger state after applying this block
	TxRoot      string `json:"tx_root"`
	ReceiptRoot string `json:"receipt_root"`
	Rejected    int    `json:"rejected"` // processed transactions left out of Transactions
	Timestamp   int64  `json:"timestamp"`
	Proposer    string `json:"proposer"` // pubkey hex
}

// Block groups the invocations that were applied together and committed in
// one batch. Receipts cover every transaction the proposer processed, in
// processing order: the included ones and the rejected ones whose only
// state change is their consumed nonce.
type Block struct {
	Header       BlockHeader    `json:"header"`
	Transactions []*Transaction `json:"transactions"`
	Receipts     []*Receipt     `json:"receipts"`
	Hash         string         `json:"hash"`
	Signature    string         `json:"signature"`
}

// ComputeHash returns the hash of the serialised header.
func (b *Block) ComputeHash() string {
	data, err := json.Marshal(b.Header)
	if err != nil {
		return ""
	}
	return crypto.Hash(data)
}

// Sign sets Hash and signs it with the proposer key.
func (b *Block) Sign(priv crypto.PrivateKey) {
	b.Hash = b.ComputeHash()
	b.Signature = crypto.Sign(priv, []byte(b.Hash))
}

// Verify checks the block signature against pub.
func (b *Block) Verify(pub crypto.PublicKey) error {
	return crypto.Verify(pub, []byte(b.Hash), b.Signature)
}

// CheckBody checks that Transactions and Receipts agree with the header
// roots, that every included transaction has a successful receipt in the
// same order, and that Rejected counts the failed receipts.
func (b *Block) CheckBody() error {
	if ComputeTxRoot(b.Transactions) != b.Header.TxRoot {
		return fmt.Errorf("block %d tx root mismatch", b.Header.Height)
	}
	if ComputeReceiptRoot(b.Receipts) != b.Header.ReceiptRoot {
		return fmt.Errorf("block %d receipt root mismatch", b.Header.Height)
	}

	next, rejected := 0, 0
	for _, r := range b.Receipts {
		if r.BlockHeight != b.Header.Height {
			return fmt.Errorf("receipt %s recorded at height %d", r.TxID, r.BlockHeight)
		}
		if !r.Success {
			rejected++
			continue
		}
		if next >= len(b.Transactions) || b.Transactions[next].ID != r.TxID {
			return fmt.Errorf("receipt %s has no matching transaction", r.TxID)
		}
		next++
	}
	if next != len(b.Transactions) {
		return errors.New("transaction without a successful receipt")
	}
	if rejected != b.Header.Rejected {
		return fmt.Errorf("block %d declares %d rejected, receipts show %d", b.Header.Height, b.Header.Rejected, rejected)
	}
	return nil
}

// ComputeTxRoot hashes the concatenated transaction IDs.
func ComputeTxRoot(txs []*Transaction) string {
	if len(txs) == 0 {
		return crypto.Hash([]byte("empty"))
	}
	var ids []byte
	for _, tx := range txs {
		ids = append(ids, tx.ID...)
	}
	return crypto.Hash(ids)
}

// ComputeReceiptRoot hashes the concatenated hashes of the encoded receipts.
func ComputeReceiptRoot(receipts []*Receipt) string {
	var hashes []byte
	for _, r := range receipts {
		data, err := json.Marshal(r)
		if err != nil {
			return ""
		}
		hashes = append(hashes, crypto.Hash(data)...)
	}
	return crypto.Hash(hashes)
}

// NewBlock creates an unsigned block holding the included transactions and
// the receipts of every processed one.
func NewBlock(height int64, prevHash, proposer string, txs []*Transaction, receipts []*Receipt) *Block {
	rejected := 0
	for _, r := range receipts {
		if !r.Success {
			rejected++
		}
	}
	return &Block{
		Header: BlockHeader{
			Height:      height,
			PrevHash:    prevHash,
			TxRoot:      ComputeTxRoot(txs),
			ReceiptRoot: ComputeReceiptRoot(receipts),
			Rejected:    rejected,
			Timestamp:   time.Now().UnixNano(),
			Proposer:    proposer,
		},
		Transactions: txs,
		Receipts:     receipts,
	}
}
