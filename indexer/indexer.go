// Package indexer maintains secondary indexes over committed blocks so game
// clients can list a player's quests and look up transaction receipts without
// scanning full state.
package indexer

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"cosmossdk.io/log"

	"github.com/tolelom/vivorun/core"
	"github.com/tolelom/vivorun/events"
	"github.com/tolelom/vivorun/storage"
)

const (
	prefixCompleted = "idx:player:completed:"
	prefixClaimed   = "idx:player:claimed:"
	prefixReceipt   = "rcpt:"
)

// Indexer subscribes to chain events and updates secondary lookup tables.
type Indexer struct {
	db     storage.DB
	logger log.Logger
}

// New creates an Indexer backed by db and subscribes it to emitter.
func New(db storage.DB, emitter *events.Emitter, logger log.Logger) *Indexer {
	idx := &Indexer{db: db, logger: logger.With("module", "indexer")}
	emitter.Subscribe(events.EventQuestCompleted, idx.onQuestCompleted)
	emitter.Subscribe(events.EventQuestClaimed, idx.onQuestClaimed)
	emitter.Subscribe(events.EventTxExecuted, idx.onReceipt)
	emitter.Subscribe(events.EventTxFailed, idx.onReceipt)
	return idx
}

// CompletedQuests returns the ids of quests player has completed, ascending.
func (idx *Indexer) CompletedQuests(player string) ([]uint32, error) {
	return idx.getList(prefixCompleted + player)
}

// ClaimedQuests returns the ids of quests player has claimed, ascending.
func (idx *Indexer) ClaimedQuests(player string) ([]uint32, error) {
	return idx.getList(prefixClaimed + player)
}

// Receipt returns the receipt of a processed transaction or core.ErrNotFound.
func (idx *Indexer) Receipt(txID string) (*core.Receipt, error) {
	data, err := idx.db.Get([]byte(prefixReceipt + txID))
	if err != nil {
		return nil, err
	}
	var r core.Receipt
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("indexer unmarshal receipt: %w", err)
	}
	return &r, nil
}

// ---- event handlers ----

func (idx *Indexer) onQuestCompleted(ev events.Event) {
	idx.addQuest(prefixCompleted, ev)
}

func (idx *Indexer) onQuestClaimed(ev events.Event) {
	idx.addQuest(prefixClaimed, ev)
}

func (idx *Indexer) addQuest(prefix string, ev events.Event) {
	player, _ := ev.Data["player"].(string)
	questID, ok := ev.Data["quest_id"].(uint32)
	if player == "" || !ok {
		return
	}
	if err := idx.addToList(prefix+player, questID); err != nil {
		idx.logger.Error("index quest", "event", string(ev.Type), "player", player, "quest", questID, "err", err)
	}
}

func (idx *Indexer) onReceipt(ev events.Event) {
	r, ok := ev.Data["receipt"].(*core.Receipt)
	if !ok {
		return
	}
	data, err := json.Marshal(r)
	if err == nil {
		err = idx.db.Set([]byte(prefixReceipt+r.TxID), data)
	}
	if err != nil {
		idx.logger.Error("store receipt", "tx", r.TxID, "err", err)
	}
}

// ---- list helpers ----

func (idx *Indexer) getList(key string) ([]uint32, error) {
	data, err := idx.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, nil // empty list
		}
		return nil, err
	}
	var ids []uint32
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("indexer unmarshal: %w", err)
	}
	return ids, nil
}

// addToList inserts id into the sorted list at key unless it is already there.
func (idx *Indexer) addToList(key string, id uint32) error {
	ids, err := idx.getList(key)
	if err != nil {
		return err
	}
	i, found := slices.BinarySearch(ids, id)
	if found {
		return nil
	}
	ids = slices.Insert(ids, i, id)
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return idx.db.Set([]byte(key), data)
}
