package core

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	maxMempoolSize = 10_000
	maxTxAge       = int64(time.Hour)
	maxTxFuture    = int64(5 * time.Minute)
)

// Mempool holds signed invocations waiting for the next block, in arrival order.
type Mempool struct {
	chainID string

	mu  sync.RWMutex
	txs map[string]*Transaction
	ord []string
}

// NewMempool creates an empty mempool that only accepts transactions for chainID.
func NewMempool(chainID string) *Mempool {
	return &Mempool{chainID: chainID, txs: make(map[string]*Transaction)}
}

// Add verifies and queues tx. It rejects transactions for another chain,
// invalid signatures, timestamps outside [-1h, +5m] of now, duplicates, and
// anything once the pool is full.
func (m *Mempool) Add(tx *Transaction) error {
	if tx.ChainID != m.chainID {
		return fmt.Errorf("chain ID mismatch: got %q want %q", tx.ChainID, m.chainID)
	}
	if err := tx.Verify(); err != nil {
		return fmt.Errorf("invalid tx signature: %w", err)
	}
	now := time.Now().UnixNano()
	if now-tx.Timestamp > maxTxAge {
		return errors.New("transaction expired")
	}
	if tx.Timestamp-now > maxTxFuture {
		return errors.New("transaction timestamp too far in the future")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.txs) >= maxMempoolSize {
		return errors.New("mempool full")
	}
	if _, exists := m.txs[tx.ID]; exists {
		return errors.New("tx already in pool")
	}
	m.txs[tx.ID] = tx
	m.ord = append(m.ord, tx.ID)
	return nil
}

// Pending returns up to n queued transactions in arrival order.
func (m *Mempool) Pending(n int) []*Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Transaction, 0, min(n, len(m.ord)))
	for _, id := range m.ord {
		if len(out) >= n {
			break
		}
		if tx, ok := m.txs[id]; ok {
			out = append(out, tx)
		}
	}
	return out
}

// Remove drops transactions by ID once they have been processed.
func (m *Mempool) Remove(ids []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.txs, id)
	}
	kept := m.ord[:0]
	for _, id := range m.ord {
		if _, ok := m.txs[id]; ok {
			kept = append(kept, id)
		}
	}
	m.ord = kept
}

// Size returns the number of queued transactions.
func (m *Mempool) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.txs)
}
