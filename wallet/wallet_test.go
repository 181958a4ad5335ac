package wallet

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolelom/vivorun/core"
)

func TestKeystoreRoundTrip(t *testing.T) {
	w, err := Generate()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "player.key")

	require.NoError(t, SaveKey(path, "hunter2", w.PrivKey()))

	priv, err := LoadKey(path, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, w.PubKey(), New(priv).PubKey())

	_, err = LoadKey(path, "wrong")
	assert.Error(t, err)
}

func TestSubmitScoreTx(t *testing.T) {
	w, err := Generate()
	require.NoError(t, err)

	tx, err := w.SubmitScore("vivorun-test", 3, 600)
	require.NoError(t, err)
	assert.Equal(t, core.TxSubmitScore, tx.Type)
	assert.Equal(t, uint64(3), tx.Nonce)
	assert.NotEmpty(t, tx.ID)
	require.NoError(t, tx.Verify())

	var p core.SubmitScorePayload
	require.NoError(t, json.Unmarshal(tx.Payload, &p))
	assert.Equal(t, w.PubKey(), p.Player)
	assert.Equal(t, uint64(600), p.Score)

	tx.Nonce = 4
	assert.Error(t, tx.Verify(), "changing a signed field must break the signature")
}

func TestClaimAndLifelineTx(t *testing.T) {
	w, err := Generate()
	require.NoError(t, err)

	claim, err := w.ClaimQuestReward("vivorun-test", 0, 7)
	require.NoError(t, err)
	var cp core.ClaimQuestRewardPayload
	require.NoError(t, json.Unmarshal(claim.Payload, &cp))
	assert.Equal(t, uint32(7), cp.QuestID)
	assert.Equal(t, w.PubKey(), cp.Player)

	buy, err := w.BuyLifeline("vivorun-test", 1)
	require.NoError(t, err)
	assert.Equal(t, core.TxBuyLifeline, buy.Type)
	require.NoError(t, buy.Verify())
}
