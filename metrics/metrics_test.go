package metrics

import (
	"testing"

	"cosmossdk.io/log"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/tolelom/vivorun/events"
)

func TestObserveCountsCommittedEvents(t *testing.T) {
	e := events.NewEmitter(log.NewNopLogger())
	Observe(e)

	okBefore := testutil.ToFloat64(txProcessed.WithLabelValues("submit_score", "ok"))
	rewardBefore := testutil.ToFloat64(rewardTokens)

	e.EmitAll([]events.Event{
		{Type: events.EventTxExecuted, Data: map[string]any{"type": "submit_score"}},
		{Type: events.EventQuestClaimed, Data: map[string]any{"reward": uint64(100)}},
		{Type: events.EventBlockCommit, BlockHeight: 7},
	})

	assert.Equal(t, okBefore+1, testutil.ToFloat64(txProcessed.WithLabelValues("submit_score", "ok")))
	assert.Equal(t, rewardBefore+100, testutil.ToFloat64(rewardTokens))
	assert.Equal(t, float64(7), testutil.ToFloat64(blockHeight))
}
