// Package consensus implements Proof-of-Authority block production.
// Validators propose blocks in round-robin order. Each block is signed by
// the proposer and carries the state root after its transactions.
package consensus

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"cosmossdk.io/log"

	"github.com/tolelom/vivorun/config"
	"github.com/tolelom/vivorun/core"
	"github.com/tolelom/vivorun/crypto"
	"github.com/tolelom/vivorun/events"
	"github.com/tolelom/vivorun/vm"
)

// ErrNoPending is returned by ProduceBlock when the mempool is empty.
var ErrNoPending = errors.New("no pending transactions")

// PoA is the Proof-of-Authority consensus engine.
type PoA struct {
	cfg     *config.Config
	bc      *core.Blockchain
	state   core.State
	mempool *core.Mempool
	exec    *vm.Executor
	emitter *events.Emitter
	logger  log.Logger
	privKey crypto.PrivateKey
	pubKey  crypto.PublicKey
}

// New creates a PoA engine for the local validator identified by privKey.
func New(
	cfg *config.Config,
	bc *core.Blockchain,
	state core.State,
	mempool *core.Mempool,
	exec *vm.Executor,
	emitter *events.Emitter,
	logger log.Logger,
	privKey crypto.PrivateKey,
) *PoA {
	return &PoA{
		cfg:     cfg,
		bc:      bc,
		state:   state,
		mempool: mempool,
		exec:    exec,
		emitter: emitter,
		logger:  logger.With("module", "consensus"),
		privKey: privKey,
		pubKey:  privKey.Public(),
	}
}

// IsProposer reports whether this node should propose the next block.
func (p *PoA) IsProposer() bool {
	if len(p.cfg.Validators) == 0 {
		return false
	}
	nextHeight := p.bc.Height() + 1
	idx := int(nextHeight) % len(p.cfg.Validators)
	return p.cfg.Validators[idx] == p.pubKey.Hex()
}

// ProduceBlock executes pending transactions one at a time, then signs and
// commits the next block. Failed transactions are left out of the block but
// still get a receipt and leave the mempool. Events are published only after
// the block and its state are committed.
func (p *PoA) ProduceBlock() (*core.Block, error) {
	if !p.IsProposer() {
		return nil, errors.New("not the proposer for this round")
	}
	tip := p.bc.Tip()
	if tip == nil {
		return nil, errors.New("chain has no genesis block")
	}

	limit := p.cfg.MaxBlockTxs
	if limit <= 0 {
		limit = 500
	}
	pending := p.mempool.Pending(limit)
	if len(pending) == 0 {
		return nil, ErrNoPending
	}

	height := tip.Header.Height + 1
	var (
		included  []*core.Transaction
		receipts  = make([]*core.Receipt, 0, len(pending))
		processed = make([]string, 0, len(pending))
		evs       []events.Event
	)
	for _, tx := range pending {
		processed = append(processed, tx.ID)
		txEvents, err := p.exec.ExecuteTx(height, tx)
		receipt := core.NewReceipt(tx, height, err)
		receipts = append(receipts, receipt)
		result := events.Event{
			Type:        events.EventTxExecuted,
			TxID:        tx.ID,
			BlockHeight: height,
			Data:        map[string]any{"type": string(tx.Type), "from": tx.From, "receipt": receipt},
		}
		if err != nil {
			p.logger.Debug("tx rejected", "tx", tx.ID, "type", string(tx.Type), "code", receipt.Code, "err", err)
			result.Type = events.EventTxFailed
			evs = append(evs, result)
			continue
		}
		included = append(included, tx)
		evs = append(evs, txEvents...)
		evs = append(evs, result)
	}

	block := core.NewBlock(height, tip.Hash, p.pubKey.Hex(), included, receipts)
	// The root covers the unflushed write buffer.
	stateRoot, err := p.state.ComputeRoot()
	if err != nil {
		p.state.Discard()
		return nil, fmt.Errorf("state root: %w", err)
	}
	block.Header.StateRoot = stateRoot
	block.Sign(p.privKey)

	if err := p.bc.AddBlock(block); err != nil {
		p.state.Discard()
		return nil, fmt.Errorf("add block: %w", err)
	}

	// Flush state only after the block is safely stored.
	if err := p.state.Commit(); err != nil {
		p.logger.Error("block stored but state commit failed", "height", height, "err", err)
		os.Exit(1)
	}
	p.mempool.Remove(processed)

	p.emitter.EmitAll(evs)
	p.emitter.Emit(events.Event{
		Type:        events.EventBlockCommit,
		BlockHeight: height,
		Data: map[string]any{
			"hash":     block.Hash,
			"txs":      len(included),
			"rejected": block.Header.Rejected,
		},
	})
	p.logger.Info("block committed", "height", height, "txs", len(included), "rejected", block.Header.Rejected)
	return block, nil
}

// ValidateBlock checks that block was proposed and signed by the expected
// validator and that it links to prev. prev is nil for the genesis block,
// which any key may sign.
func ValidateBlock(validators []string, block, prev *core.Block) error {
	if len(validators) == 0 {
		return errors.New("no validators configured")
	}

	pub, err := crypto.PubKeyFromHex(block.Header.Proposer)
	if err != nil {
		return fmt.Errorf("invalid proposer pubkey: %w", err)
	}
	if block.ComputeHash() != block.Hash {
		return fmt.Errorf("block %d hash does not match header", block.Header.Height)
	}
	if err := block.Verify(pub); err != nil {
		return fmt.Errorf("block signature invalid: %w", err)
	}

	if prev == nil {
		if block.Header.Height != 0 || !config.IsGenesisHash(block.Header.PrevHash) {
			return errors.New("first block must be height 0 with the genesis prev-hash")
		}
		return nil
	}

	idx := int(block.Header.Height) % len(validators)
	if expected := validators[idx]; block.Header.Proposer != expected {
		return fmt.Errorf("wrong proposer: got %s want %s", block.Header.Proposer, expected)
	}
	if block.Header.PrevHash != prev.Hash {
		return fmt.Errorf("prev_hash mismatch: got %s want %s", block.Header.PrevHash, prev.Hash)
	}
	if block.Header.Height != prev.Header.Height+1 {
		return fmt.Errorf("height mismatch: got %d want %d", block.Header.Height, prev.Header.Height+1)
	}
	return block.CheckBody()
}

// VerifyChain validates every stored block from genesis to the tip.
func VerifyChain(bc *core.Blockchain, validators []string) error {
	var prev *core.Block
	for h := int64(0); h <= bc.Height(); h++ {
		block, err := bc.GetBlockByHeight(h)
		if err != nil {
			return fmt.Errorf("load block %d: %w", h, err)
		}
		if err := ValidateBlock(validators, block, prev); err != nil {
			return err
		}
		prev = block
	}
	return nil
}

// Run produces blocks every interval while this node is the proposer. It
// blocks until ctx is done.
func (p *PoA) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !p.IsProposer() {
				continue
			}
			if _, err := p.ProduceBlock(); err != nil && !errors.Is(err, ErrNoPending) {
				p.logger.Error("produce block", "err", err)
			}
		}
	}
}
