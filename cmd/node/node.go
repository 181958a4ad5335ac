package main

import (
	"fmt"

	"cosmossdk.io/log"

	"github.com/tolelom/vivorun/config"
	"github.com/tolelom/vivorun/core"
	"github.com/tolelom/vivorun/crypto"
	"github.com/tolelom/vivorun/storage"
)

// ledger is the persistent part of a node: its database, the state buffer
// used by block production and the block chain.
type ledger struct {
	db    storage.DB
	state *storage.StateDB
	bc    *core.Blockchain
}

func openLedger(cfg *config.Config) (*ledger, error) {
	db, err := storage.Open(cfg.StorageOptions())
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	bc := core.NewBlockchain(storage.NewBlockStore(db))
	if err := bc.Init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("blockchain init: %w", err)
	}
	return &ledger{db: db, state: storage.NewStateDB(db), bc: bc}, nil
}

// ensureGenesis commits the genesis block on a fresh chain.
func (l *ledger) ensureGenesis(cfg *config.Config, priv crypto.PrivateKey, logger log.Logger) error {
	if l.bc.Tip() != nil {
		return nil
	}
	block, err := config.CreateGenesisBlock(cfg, l.state, priv)
	if err != nil {
		return fmt.Errorf("genesis: %w", err)
	}
	if err := l.bc.AddBlock(block); err != nil {
		return fmt.Errorf("add genesis: %w", err)
	}
	logger.Info("genesis block committed", "hash", block.Hash, "chain_id", cfg.Genesis.ChainID)
	return nil
}

func (l *ledger) Close() error {
	return l.db.Close()
}
