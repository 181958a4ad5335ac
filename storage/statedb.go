package storage

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"

	"github.com/tolelom/vivorun/core"
	"github.com/tolelom/vivorun/crypto"
)

// registerPrefix records a state-key prefix into statePrefixes so that
// ComputeRoot() always covers it.
func registerPrefix(p string) string {
	statePrefixes = append(statePrefixes, p)
	return p
}

// statePrefixes is populated by registerPrefix() below.
var statePrefixes []string

var (
	prefixAccount  = registerPrefix("acct:")
	prefixStats    = registerPrefix("stats:")
	prefixQuest    = registerPrefix("quest:")
	prefixQuestIdx = registerPrefix("qidx:")
	prefixProgress = registerPrefix("qprg:")
	prefixConfig   = registerPrefix("cfg:")
)

var (
	keyActiveQuests = prefixQuestIdx + "active"
	keyTokenAddress = prefixConfig + "token"
)

// StateDB implements core.State on top of a DB with an in-memory write
// buffer, snapshot/rollback, and deterministic state-root computation.
// Reads always consult the buffer first, so every write is visible to the
// next read made through the same StateDB. A StateDB that is never written
// reads only committed data. Ledger state is never deleted, so the buffer
// only holds writes. Not safe for concurrent use.
type StateDB struct {
	db        DB
	dirty     map[string][]byte
	snapshots []map[string][]byte
}

// NewStateDB creates a StateDB backed by db.
func NewStateDB(db DB) *StateDB {
	return &StateDB{db: db, dirty: make(map[string][]byte)}
}

// ---- internal helpers ----

func (s *StateDB) get(key string) ([]byte, error) {
	if v, ok := s.dirty[key]; ok {
		return v, nil
	}
	return s.db.Get([]byte(key))
}

func (s *StateDB) set(key string, val []byte) {
	s.dirty[key] = val
}

// getJSON decodes the value at key into v. found is false when the key is absent.
func (s *StateDB) getJSON(key string, v any) (found bool, err error) {
	data, err := s.get(key)
	if errors.Is(err, core.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *StateDB) setJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.set(key, data)
	return nil
}

func questKey(id uint32) string {
	return prefixQuest + strconv.FormatUint(uint64(id), 10)
}

func progressKey(player string, questID uint32) string {
	return prefixProgress + player + ":" + strconv.FormatUint(uint64(questID), 10)
}

// ---- Account ----

func (s *StateDB) GetAccount(address string) (*core.Account, error) {
	acc := &core.Account{Address: address}
	if _, err := s.getJSON(prefixAccount+address, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

func (s *StateDB) SetAccount(acc *core.Account) error {
	return s.setJSON(prefixAccount+acc.Address, acc)
}

// ---- Player stats ----

func (s *StateDB) GetPlayerStats(player string) (*core.PlayerStats, error) {
	stats := core.NewPlayerStats(player)
	if _, err := s.getJSON(prefixStats+player, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *StateDB) SetPlayerStats(stats *core.PlayerStats) error {
	return s.setJSON(prefixStats+stats.Player, stats)
}

// ---- Quests ----

func (s *StateDB) GetQuest(id uint32) (*core.Quest, error) {
	var q core.Quest
	found, err := s.getJSON(questKey(id), &q)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, core.ErrNotFound
	}
	return &q, nil
}

// SetQuest stores q and keeps the active-quest index in step with q.Active.
func (s *StateDB) SetQuest(q *core.Quest) error {
	if err := s.setJSON(questKey(q.ID), q); err != nil {
		return err
	}
	ids, err := s.ActiveQuestIDs()
	if err != nil {
		return err
	}
	i, listed := slices.BinarySearch(ids, q.ID)
	switch {
	case q.Active && !listed:
		ids = slices.Insert(ids, i, q.ID)
	case !q.Active && listed:
		ids = slices.Delete(ids, i, i+1)
	default:
		return nil
	}
	return s.setJSON(keyActiveQuests, ids)
}

func (s *StateDB) ActiveQuestIDs() ([]uint32, error) {
	var ids []uint32
	if _, err := s.getJSON(keyActiveQuests, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// ---- Quest progress ----

func (s *StateDB) GetQuestProgress(player string, questID uint32) (*core.QuestProgress, error) {
	p := &core.QuestProgress{Player: player, QuestID: questID}
	if _, err := s.getJSON(progressKey(player, questID), p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *StateDB) SetQuestProgress(p *core.QuestProgress) error {
	return s.setJSON(progressKey(p.Player, p.QuestID), p)
}

// ---- Config ----

func (s *StateDB) GetTokenAddress() (string, error) {
	var addr string
	if _, err := s.getJSON(keyTokenAddress, &addr); err != nil {
		return "", err
	}
	return addr, nil
}

func (s *StateDB) SetTokenAddress(addr string) error {
	return s.setJSON(keyTokenAddress, addr)
}

// ---- Snapshot / Rollback / Commit ----

func copyBuffer(dirty map[string][]byte) map[string][]byte {
	d := make(map[string][]byte, len(dirty))
	for k, v := range dirty {
		d[k] = bytes.Clone(v)
	}
	return d
}

// Snapshot saves the current write buffer and returns a snapshot ID.
func (s *StateDB) Snapshot() (int, error) {
	s.snapshots = append(s.snapshots, copyBuffer(s.dirty))
	return len(s.snapshots) - 1, nil
}

// RevertToSnapshot restores the write buffer to snapshot id and discards
// every later snapshot.
func (s *StateDB) RevertToSnapshot(id int) error {
	if id < 0 || id >= len(s.snapshots) {
		return fmt.Errorf("invalid snapshot id %d", id)
	}
	s.dirty = copyBuffer(s.snapshots[id])
	s.snapshots = s.snapshots[:id]
	return nil
}

// ComputeRoot returns the hash of the complete ledger state: persisted
// entries under the state prefixes merged with the write buffer, sorted by
// key and length-prefix encoded. It does not flush anything. A failed scan
// is an error, never an empty prefix.
func (s *StateDB) ComputeRoot() (string, error) {
	merged := make(map[string][]byte)
	for _, prefix := range statePrefixes {
		it := s.db.NewIterator([]byte(prefix))
		for it.Next() {
			merged[string(it.Key())] = bytes.Clone(it.Value())
		}
		err := it.Error()
		it.Release()
		if err != nil {
			return "", fmt.Errorf("scan %s: %w", prefix, err)
		}
	}
	for k, v := range s.dirty {
		merged[k] = v
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	var lenBuf [4]byte
	for _, k := range keys {
		v := merged[k]
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(k)))
		buf.Write(lenBuf[:])
		buf.WriteString(k)
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(v)))
		buf.Write(lenBuf[:])
		buf.Write(v)
	}
	return crypto.Hash(buf.Bytes()), nil
}

// Commit flushes the write buffer to the DB in one batch and clears it.
func (s *StateDB) Commit() error {
	batch := s.db.NewBatch()
	for k, v := range s.dirty {
		batch.Set([]byte(k), v)
	}
	if err := batch.Write(); err != nil {
		return err
	}
	s.Discard()
	return nil
}

// Discard drops every uncommitted write.
func (s *StateDB) Discard() {
	s.dirty = make(map[string][]byte)
	s.snapshots = nil
}
