// Package testutil provides in-memory storage and ready-made ledger
// fixtures for tests across the module. Never import this in production code.
package testutil

import (
	"bytes"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/tolelom/vivorun/core"
	"github.com/tolelom/vivorun/storage"
	"github.com/tolelom/vivorun/wallet"
)

// MemDB is a thread-safe in-memory storage.DB.
type MemDB struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemDB creates an empty MemDB.
func NewMemDB() *MemDB {
	return &MemDB{data: make(map[string][]byte)}
}

func (m *MemDB) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, core.ErrNotFound
	}
	return bytes.Clone(v), nil
}

func (m *MemDB) Set(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[string(key)] = bytes.Clone(value)
	return nil
}

func (m *MemDB) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
	return nil
}

func (m *MemDB) NewIterator(prefix []byte) storage.Iterator {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var pairs []storage.KV
	for k, v := range m.data {
		if strings.HasPrefix(k, string(prefix)) {
			pairs = append(pairs, storage.KV{Key: []byte(k), Value: bytes.Clone(v)})
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return bytes.Compare(pairs[i].Key, pairs[j].Key) < 0 })
	return storage.NewSliceIterator(pairs)
}

func (m *MemDB) NewBatch() storage.Batch {
	return &memBatch{db: m}
}

func (m *MemDB) Close() error { return nil }

// Len returns the number of stored keys.
func (m *MemDB) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

type memBatchOp struct {
	key   string
	value []byte // nil means delete
}

type memBatch struct {
	db  *MemDB
	ops []memBatchOp
}

func (b *memBatch) Set(key, value []byte) {
	b.ops = append(b.ops, memBatchOp{string(key), append([]byte{}, value...)})
}

func (b *memBatch) Delete(key []byte) {
	b.ops = append(b.ops, memBatchOp{string(key), nil})
}

func (b *memBatch) Reset() { b.ops = nil }

func (b *memBatch) Write() error {
	b.db.mu.Lock()
	defer b.db.mu.Unlock()
	for _, op := range b.ops {
		if op.value == nil {
			delete(b.db.data, op.key)
		} else {
			b.db.data[op.key] = op.value
		}
	}
	return nil
}

// NewStateDB returns a storage.StateDB backed by a fresh MemDB.
func NewStateDB() *storage.StateDB {
	return storage.NewStateDB(NewMemDB())
}

// NewWallet generates a player wallet or fails the test.
func NewWallet(t testing.TB) *wallet.Wallet {
	t.Helper()
	w, err := wallet.Generate()
	if err != nil {
		t.Fatalf("generate wallet: %v", err)
	}
	return w
}
