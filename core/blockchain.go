package core

import (
	"fmt"
	"sync"
)

// BlockStore persists blocks. Implementations live in the storage package.
type BlockStore interface {
	GetBlock(hash string) (*Block, error)
	GetBlockByHeight(height int64) (*Block, error)
	// GetTip returns the current tip hash, or ("", nil) before genesis.
	GetTip() (string, error)
	// CommitBlock writes the block, its height index entry and the new tip
	// pointer in one batch.
	CommitBlock(block *Block) error
}

// Blockchain tracks the canonical sequence of ledger blocks.
type Blockchain struct {
	mu    sync.RWMutex
	store BlockStore
	tip   *Block
}

// NewBlockchain returns a Blockchain backed by store. Call Init before use.
func NewBlockchain(store BlockStore) *Blockchain {
	return &Blockchain{store: store}
}

// Init loads the persisted tip, if any.
func (bc *Blockchain) Init() error {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	tipHash, err := bc.store.GetTip()
	if err != nil {
		return fmt.Errorf("get tip: %w", err)
	}
	if tipHash == "" {
		return nil
	}
	tip, err := bc.store.GetBlock(tipHash)
	if err != nil {
		return fmt.Errorf("load tip block %s: %w", tipHash, err)
	}
	bc.tip = tip
	return nil
}

// AddBlock checks height and PrevHash linkage against the tip, then persists
// the block and advances the tip.
func (bc *Blockchain) AddBlock(block *Block) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	if bc.tip != nil {
		if want := bc.tip.Header.Height + 1; block.Header.Height != want {
			return fmt.Errorf("block height %d does not follow tip %d", block.Header.Height, bc.tip.Header.Height)
		}
		if block.Header.PrevHash != bc.tip.Hash {
			return fmt.Errorf("prev_hash mismatch: got %s want %s", block.Header.PrevHash, bc.tip.Hash)
		}
	} else if block.Header.Height != 0 {
		return fmt.Errorf("first block must have height 0, got %d", block.Header.Height)
	}

	if err := bc.store.CommitBlock(block); err != nil {
		return fmt.Errorf("commit block: %w", err)
	}
	bc.tip = block
	return nil
}

// GetBlock returns a block by its hash.
func (bc *Blockchain) GetBlock(hash string) (*Block, error) {
	return bc.store.GetBlock(hash)
}

// GetBlockByHeight returns the block at the given height.
func (bc *Blockchain) GetBlockByHeight(height int64) (*Block, error) {
	return bc.store.GetBlockByHeight(height)
}

// Tip returns the current chain tip, or nil before genesis.
func (bc *Blockchain) Tip() *Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.tip
}

// Height returns the height of the tip, or -1 before genesis.
func (bc *Blockchain) Height() int64 {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	if bc.tip == nil {
		return -1
	}
	return bc.tip.Header.Height
}
