package indexer

import (
	"testing"

	"cosmossdk.io/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolelom/vivorun/core"
	"github.com/tolelom/vivorun/events"
	"github.com/tolelom/vivorun/internal/testutil"
)

func newIndexer(t *testing.T) (*Indexer, *events.Emitter) {
	t.Helper()
	e := events.NewEmitter(log.NewNopLogger())
	return New(testutil.NewMemDB(), e, log.NewNopLogger()), e
}

func TestQuestLists(t *testing.T) {
	idx, e := newIndexer(t)

	for _, id := range []uint32{5, 1, 5, 3} {
		e.Emit(events.Event{
			Type: events.EventQuestCompleted,
			Data: map[string]any{"player": "alice", "quest_id": id},
		})
	}
	e.Emit(events.Event{
		Type: events.EventQuestClaimed,
		Data: map[string]any{"player": "alice", "quest_id": uint32(3), "reward": uint64(10)},
	})

	completed, err := idx.CompletedQuests("alice")
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 3, 5}, completed)

	claimed, err := idx.ClaimedQuests("alice")
	require.NoError(t, err)
	assert.Equal(t, []uint32{3}, claimed)

	none, err := idx.CompletedQuests("bob")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMalformedEventIgnored(t *testing.T) {
	idx, e := newIndexer(t)
	e.Emit(events.Event{
		Type: events.EventQuestCompleted,
		Data: map[string]any{"player": "alice", "quest_id": "not-a-number"},
	})
	completed, err := idx.CompletedQuests("alice")
	require.NoError(t, err)
	assert.Empty(t, completed)
}

func TestReceipts(t *testing.T) {
	idx, e := newIndexer(t)

	_, err := idx.Receipt("missing")
	require.ErrorIs(t, err, core.ErrNotFound)

	tx := &core.Transaction{ID: "tx1", Type: core.TxBuyLifeline, From: "alice"}
	e.Emit(events.Event{
		Type: events.EventTxFailed,
		TxID: tx.ID,
		Data: map[string]any{"type": string(tx.Type), "receipt": core.NewReceipt(tx, 4, core.ErrInsufficientBalance)},
	})

	r, err := idx.Receipt("tx1")
	require.NoError(t, err)
	assert.False(t, r.Success)
	assert.Equal(t, core.Codespace, r.Codespace)
	assert.Equal(t, uint32(5), r.Code)
	assert.Equal(t, int64(4), r.BlockHeight)
}
