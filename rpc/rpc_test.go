package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolelom/vivorun/config"
	"github.com/tolelom/vivorun/consensus"
	"github.com/tolelom/vivorun/core"
	"github.com/tolelom/vivorun/crypto"
	"github.com/tolelom/vivorun/events"
	"github.com/tolelom/vivorun/indexer"
	"github.com/tolelom/vivorun/internal/testutil"
	"github.com/tolelom/vivorun/storage"
	"github.com/tolelom/vivorun/vm"
	_ "github.com/tolelom/vivorun/vm/modules/progression"
)

type testNode struct {
	poa    *consensus.PoA
	client *Client
	url    string
	chain  string
}

func startNode(t *testing.T, opts ServerOptions) *testNode {
	t.Helper()
	priv, pub, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.Validators = []string{pub.Hex()}
	cfg.Genesis.TokenAddress = "token-contract"
	cfg.Genesis.Quests = []config.GenesisQuest{{ID: 0, Title: "Marathon", RewardAmount: 100, TargetScore: 1000}}

	logger := log.NewNopLogger()
	db := testutil.NewMemDB()
	state := storage.NewStateDB(db)
	bc := core.NewBlockchain(storage.NewBlockStore(db))
	require.NoError(t, bc.Init())
	genesis, err := config.CreateGenesisBlock(cfg, state, priv)
	require.NoError(t, err)
	require.NoError(t, bc.AddBlock(genesis))

	emitter := events.NewEmitter(logger)
	idx := indexer.New(db, emitter, logger)
	mempool := core.NewMempool(cfg.Genesis.ChainID)
	poa := consensus.New(cfg, bc, state, mempool, vm.NewExecutor(state), emitter, logger, priv)

	handler := NewHandler(bc, mempool, storage.NewStateDB(db), idx, cfg.Genesis.ChainID)
	srv := httptest.NewServer(NewServer(opts, handler, logger).Handler())
	t.Cleanup(srv.Close)

	return &testNode{
		poa:    poa,
		client: NewClient(srv.URL, opts.AuthToken),
		url:    srv.URL,
		chain:  cfg.Genesis.ChainID,
	}
}

func TestPlayerFlowOverRPC(t *testing.T) {
	ctx := context.Background()
	n := startNode(t, ServerOptions{})
	player := testutil.NewWallet(t)

	nonce, err := n.client.Nonce(ctx, player.PubKey())
	require.NoError(t, err)
	assert.Zero(t, nonce)

	var ids []string
	for i, score := range []uint64{600, 400} {
		tx, err := player.SubmitScore(n.chain, uint64(i), score)
		require.NoError(t, err)
		id, err := n.client.SendTx(ctx, tx)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	claim, err := player.ClaimQuestReward(n.chain, 2, 0)
	require.NoError(t, err)
	claimID, err := n.client.SendTx(ctx, claim)
	require.NoError(t, err)

	r, err := n.client.Receipt(ctx, claimID)
	require.NoError(t, err)
	assert.Nil(t, r, "no receipt before the block")

	_, err = n.poa.ProduceBlock()
	require.NoError(t, err)

	for _, id := range append(ids, claimID) {
		r, err := n.client.Receipt(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, r)
		assert.True(t, r.Success)
	}

	stats, err := n.client.PlayerStats(ctx, player.PubKey())
	require.NoError(t, err)
	assert.Equal(t, uint32(2), stats.TotalGamesPlayed)
	assert.Equal(t, uint64(110), stats.TokensEarned)
	assert.Equal(t, uint32(3), stats.AvailableLives)

	p, err := n.client.QuestProgress(ctx, player.PubKey(), 0)
	require.NoError(t, err)
	assert.True(t, p.Completed)
	assert.True(t, p.Claimed)

	var quests PlayerQuests
	require.NoError(t, n.client.Call(ctx, "getPlayerQuests", map[string]string{"player": player.PubKey()}, &quests))
	assert.Equal(t, []uint32{0}, quests.Completed)
	assert.Equal(t, []uint32{0}, quests.Claimed)

	nonce, err = n.client.Nonce(ctx, player.PubKey())
	require.NoError(t, err)
	assert.Equal(t, uint64(3), nonce)
}

func TestFailedTxReceiptOverRPC(t *testing.T) {
	ctx := context.Background()
	n := startNode(t, ServerOptions{})
	player := testutil.NewWallet(t)

	tx, err := player.ClaimQuestReward(n.chain, 0, 0)
	require.NoError(t, err)
	id, err := n.client.SendTx(ctx, tx)
	require.NoError(t, err)
	_, err = n.poa.ProduceBlock()
	require.NoError(t, err)

	r, err := n.client.Receipt(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.False(t, r.Success)
	assert.Equal(t, core.Codespace, r.Codespace)
	assert.Equal(t, uint32(3), r.Code)
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	n := startNode(t, ServerOptions{})

	q, err := n.client.Quest(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, "Marathon", q.Title)

	q, err = n.client.Quest(ctx, 77)
	require.NoError(t, err)
	assert.Nil(t, q)

	var active []core.Quest
	require.NoError(t, n.client.Call(ctx, "getActiveQuests", nil, &active))
	require.Len(t, active, 1)
	assert.Equal(t, uint32(0), active[0].ID)

	var addr string
	require.NoError(t, n.client.Call(ctx, "getTokenAddress", nil, &addr))
	assert.Equal(t, "token-contract", addr)

	stats, err := n.client.PlayerStats(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, uint32(core.DefaultLives), stats.AvailableLives)

	var height int64
	require.NoError(t, n.client.Call(ctx, "getBlockHeight", nil, &height))
	assert.Zero(t, height)

	var rpcErr *Error
	err = n.client.Call(ctx, "getBalance", nil, nil)
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, CodeMethodNotFound, rpcErr.Code)

	err = n.client.Call(ctx, "getQuest", map[string]any{}, nil)
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, CodeInvalidParams, rpcErr.Code)
}

func TestSendTxWrongChain(t *testing.T) {
	n := startNode(t, ServerOptions{})
	tx, err := testutil.NewWallet(t).SubmitScore("other-chain", 0, 10)
	require.NoError(t, err)

	_, err = n.client.SendTx(context.Background(), tx)
	var rpcErr *Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, CodeInvalidParams, rpcErr.Code)
}

func TestBearerAuth(t *testing.T) {
	n := startNode(t, ServerOptions{AuthToken: "s3cret"})

	var height int64
	require.NoError(t, n.client.Call(context.Background(), "getBlockHeight", nil, &height))

	anon := NewClient(n.url, "")
	err := anon.Call(context.Background(), "getBlockHeight", nil, &height)
	var rpcErr *Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, CodeUnauthorized, rpcErr.Code)
}

func TestRateLimit(t *testing.T) {
	n := startNode(t, ServerOptions{RateLimit: 0.001, RateBurst: 1})

	var height int64
	require.NoError(t, n.client.Call(context.Background(), "getBlockHeight", nil, &height))
	err := n.client.Call(context.Background(), "getBlockHeight", nil, &height)
	var rpcErr *Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, CodeRateLimited, rpcErr.Code)
}

func TestRateLimiterKeyCap(t *testing.T) {
	rl := NewRateLimiter(1, 1, log.NewNopLogger())
	rl.maxKeys = 2
	now := time.Now()

	rl.getLimiter("10.0.0.1", now)
	rl.getLimiter("10.0.0.2", now.Add(time.Second))
	rl.getLimiter("10.0.0.3", now.Add(2*time.Second))
	assert.Len(t, rl.limiters, 2, "no client is idle, the least recent one goes")
	assert.NotContains(t, rl.limiters, "10.0.0.1")

	// A known client never evicts anyone.
	rl.getLimiter("10.0.0.2", now.Add(3*time.Second))
	assert.Len(t, rl.limiters, 2)

	// Idle clients are dropped first.
	rl.getLimiter("10.0.0.4", now.Add(3*time.Second+limiterIdleTime+time.Second))
	assert.Len(t, rl.limiters, 1)
	assert.Contains(t, rl.limiters, "10.0.0.4")
}

func TestHealthAndMetrics(t *testing.T) {
	n := startNode(t, ServerOptions{})

	resp, err := http.Get(n.url + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])

	mresp, err := http.Get(n.url + "/metrics")
	require.NoError(t, err)
	defer mresp.Body.Close()
	assert.Equal(t, http.StatusOK, mresp.StatusCode)
}

func TestLedgerErrorMapping(t *testing.T) {
	resp := ledgerErrResponse(1, errorsmod.Wrapf(core.ErrAlreadyClaimed, "quest %d", 3))
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeLedgerError, resp.Error.Code)
	assert.Equal(t, &ErrorData{Codespace: core.Codespace, Code: 4}, resp.Error.Data)
	assert.Contains(t, resp.Error.Message, "quest 3")

	resp = ledgerErrResponse(1, assert.AnError)
	assert.Equal(t, CodeInternalError, resp.Error.Code)
	assert.Equal(t, "undefined", resp.Error.Data.Codespace)
}
