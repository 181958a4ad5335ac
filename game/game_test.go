package game_test

import (
	"math"
	"testing"

	errorsmod "cosmossdk.io/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolelom/vivorun/core"
	"github.com/tolelom/vivorun/game"
	"github.com/tolelom/vivorun/internal/testutil"
)

const alice = "alice"

// signer authorizes exactly one player.
type signer string

func (s signer) RequireAuth(player string) error {
	if string(s) != player {
		return errorsmod.Wrapf(core.ErrUnauthorized, "signer %s", string(s))
	}
	return nil
}

func TestDefaultStats(t *testing.T) {
	st := testutil.NewStateDB()
	stats, err := game.GetStats(st, alice)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), stats.TotalGamesPlayed)
	assert.Equal(t, uint64(0), stats.TokensEarned)
	assert.Equal(t, uint32(core.DefaultLevel), stats.Level)
	assert.Equal(t, uint32(core.DefaultLives), stats.AvailableLives)
}

func TestFirstSubmission(t *testing.T) {
	for _, score := range []uint64{0, 1, 99, 100, 150, 1000, 123456} {
		st := testutil.NewStateDB()
		res, err := game.SubmitScore(st, signer(alice), alice, score)
		require.NoError(t, err)

		stats, err := game.GetStats(st, alice)
		require.NoError(t, err)
		assert.Equal(t, uint32(1), stats.TotalGamesPlayed, "score %d", score)
		assert.Equal(t, score, stats.TotalScore)
		assert.Equal(t, score, stats.HighScore)
		assert.Equal(t, score/100, stats.TokensEarned)
		assert.Equal(t, score/100, res.TokensCredited)
		assert.Equal(t, uint32(core.DefaultLevel), stats.Level)
	}
}

func TestScenarioB(t *testing.T) {
	st := testutil.NewStateDB()
	_, err := game.SubmitScore(st, signer(alice), alice, 150)
	require.NoError(t, err)

	stats, err := game.GetStats(st, alice)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), stats.TotalGamesPlayed)
	assert.Equal(t, uint64(150), stats.TotalScore)
	assert.Equal(t, uint64(150), stats.HighScore)
	assert.Equal(t, uint64(1), stats.TokensEarned)
}

func TestHighScoreAndTotals(t *testing.T) {
	st := testutil.NewStateDB()
	scores := []uint64{300, 1200, 50, 900, 1200}
	var sum, tokens uint64
	for _, s := range scores {
		_, err := game.SubmitScore(st, signer(alice), alice, s)
		require.NoError(t, err)
		sum += s
		tokens += s / 100
	}
	stats, err := game.GetStats(st, alice)
	require.NoError(t, err)
	assert.Equal(t, uint32(len(scores)), stats.TotalGamesPlayed)
	assert.Equal(t, sum, stats.TotalScore)
	assert.Equal(t, uint64(1200), stats.HighScore)
	assert.Equal(t, tokens, stats.TokensEarned)
}

func TestSubmitRequiresAuth(t *testing.T) {
	st := testutil.NewStateDB()
	_, err := game.SubmitScore(st, signer("mallory"), alice, 500)
	require.ErrorIs(t, err, core.ErrUnauthorized)

	stats, err := game.GetStats(st, alice)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalGamesPlayed)
}

func TestScenarioA(t *testing.T) {
	st := testutil.NewStateDB()
	_, err := game.CreateQuest(st, 0, "Marathon", "score 1000 in total", 100, 1000)
	require.NoError(t, err)

	res, err := game.SubmitScore(st, signer(alice), alice, 600)
	require.NoError(t, err)
	assert.Empty(t, res.Completed)

	res, err = game.SubmitScore(st, signer(alice), alice, 400)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0}, res.Completed)

	p, err := game.GetProgress(st, alice, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), p.Progress)
	assert.True(t, p.Completed)
	assert.False(t, p.Claimed)

	// 6 + 4 tokens from the two games, then the quest reward.
	before, err := game.GetStats(st, alice)
	require.NoError(t, err)
	reward, err := game.Claim(st, signer(alice), alice, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), reward)

	after, err := game.GetStats(st, alice)
	require.NoError(t, err)
	assert.Equal(t, before.TokensEarned+100, after.TokensEarned)
	assert.Equal(t, uint64(110), after.TokensEarned)
}

func TestScenarioC(t *testing.T) {
	st := testutil.NewStateDB()
	_, err := game.SubmitScore(st, signer(alice), alice, 1000)
	require.NoError(t, err)

	stats, err := game.BuyLifeline(st, signer(alice), alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), stats.TokensEarned)
	assert.Equal(t, uint32(4), stats.AvailableLives)

	_, err = game.BuyLifeline(st, signer(alice), alice)
	require.ErrorIs(t, err, core.ErrInsufficientBalance)

	stats, err = game.GetStats(st, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), stats.TokensEarned)
	assert.Equal(t, uint32(4), stats.AvailableLives)
}

func TestBuyLifeline(t *testing.T) {
	t.Run("requires auth", func(t *testing.T) {
		st := testutil.NewStateDB()
		_, err := game.Credit(st, alice, 50)
		require.NoError(t, err)
		_, err = game.BuyLifeline(st, signer("mallory"), alice)
		require.ErrorIs(t, err, core.ErrUnauthorized)
	})

	t.Run("exact price", func(t *testing.T) {
		st := testutil.NewStateDB()
		_, err := game.Credit(st, alice, game.LifelinePrice)
		require.NoError(t, err)
		stats, err := game.BuyLifeline(st, signer(alice), alice)
		require.NoError(t, err)
		assert.Zero(t, stats.TokensEarned)
		assert.Equal(t, uint32(core.DefaultLives+1), stats.AvailableLives)
	})

	t.Run("one short", func(t *testing.T) {
		st := testutil.NewStateDB()
		_, err := game.Credit(st, alice, game.LifelinePrice-1)
		require.NoError(t, err)
		_, err = game.BuyLifeline(st, signer(alice), alice)
		require.ErrorIs(t, err, core.ErrInsufficientBalance)
		_, debitErr := game.Debit(st, alice, game.LifelinePrice)
		require.ErrorIs(t, debitErr, core.ErrInsufficientBalance)
		assert.Contains(t, err.Error(), debitErr.Error(), "purchase and debit share one balance rule")

		stats, err := game.GetStats(st, alice)
		require.NoError(t, err)
		assert.Equal(t, uint64(game.LifelinePrice-1), stats.TokensEarned)
		assert.Equal(t, uint32(core.DefaultLives), stats.AvailableLives)
	})

	t.Run("leaves change", func(t *testing.T) {
		st := testutil.NewStateDB()
		_, err := game.Credit(st, alice, 25)
		require.NoError(t, err)
		stats, err := game.BuyLifeline(st, signer(alice), alice)
		require.NoError(t, err)
		assert.Equal(t, uint64(15), stats.TokensEarned)
	})
}

func TestDebit(t *testing.T) {
	st := testutil.NewStateDB()
	_, err := game.Debit(st, alice, 1)
	require.ErrorIs(t, err, core.ErrInsufficientBalance)

	_, err = game.Credit(st, alice, 30)
	require.NoError(t, err)
	stats, err := game.Debit(st, alice, 30)
	require.NoError(t, err)
	assert.Zero(t, stats.TokensEarned)
}

func TestClaim(t *testing.T) {
	newState := func(t *testing.T) core.State {
		st := testutil.NewStateDB()
		_, err := game.CreateQuest(st, 3, "Warmup", "", 50, 100)
		require.NoError(t, err)
		return st
	}

	t.Run("not completed", func(t *testing.T) {
		st := newState(t)
		_, err := game.SubmitScore(st, signer(alice), alice, 99)
		require.NoError(t, err)
		_, err = game.Claim(st, signer(alice), alice, 3)
		require.ErrorIs(t, err, core.ErrQuestNotCompleted)
	})

	t.Run("unknown quest is never completed", func(t *testing.T) {
		st := newState(t)
		_, err := game.Claim(st, signer(alice), alice, 42)
		require.ErrorIs(t, err, core.ErrQuestNotCompleted)
	})

	t.Run("twice", func(t *testing.T) {
		st := newState(t)
		_, err := game.SubmitScore(st, signer(alice), alice, 100)
		require.NoError(t, err)
		_, err = game.Claim(st, signer(alice), alice, 3)
		require.NoError(t, err)

		_, err = game.Claim(st, signer(alice), alice, 3)
		require.ErrorIs(t, err, core.ErrAlreadyClaimed)

		stats, err := game.GetStats(st, alice)
		require.NoError(t, err)
		assert.Equal(t, uint64(1+50), stats.TokensEarned)
	})

	t.Run("requires auth", func(t *testing.T) {
		st := newState(t)
		_, err := game.SubmitScore(st, signer(alice), alice, 100)
		require.NoError(t, err)
		_, err = game.Claim(st, signer("mallory"), alice, 3)
		require.ErrorIs(t, err, core.ErrUnauthorized)

		p, err := game.GetProgress(st, alice, 3)
		require.NoError(t, err)
		assert.False(t, p.Claimed)
	})

	t.Run("replaced quest pays the new reward", func(t *testing.T) {
		st := newState(t)
		_, err := game.SubmitScore(st, signer(alice), alice, 100)
		require.NoError(t, err)
		_, err = game.CreateQuest(st, 3, "Warmup v2", "", 70, 100)
		require.NoError(t, err)

		reward, err := game.Claim(st, signer(alice), alice, 3)
		require.NoError(t, err)
		assert.Equal(t, uint64(70), reward)
	})
}

func TestClaimMissingQuestMarksClaimed(t *testing.T) {
	st := testutil.NewStateDB()
	// Progress for a quest that is not in the catalog.
	require.NoError(t, st.SetQuestProgress(&core.QuestProgress{
		Player: alice, QuestID: 9, Progress: 500, Completed: true,
	}))

	reward, err := game.Claim(st, signer(alice), alice, 9)
	require.NoError(t, err)
	assert.Zero(t, reward)

	p, err := game.GetProgress(st, alice, 9)
	require.NoError(t, err)
	assert.True(t, p.Claimed)

	stats, err := game.GetStats(st, alice)
	require.NoError(t, err)
	assert.Zero(t, stats.TokensEarned)
}

func TestProgressLatch(t *testing.T) {
	st := testutil.NewStateDB()
	_, err := game.CreateQuest(st, 1, "Sprint", "", 10, 500)
	require.NoError(t, err)

	res, err := game.SubmitScore(st, signer(alice), alice, 700)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1}, res.Completed)

	for i := 0; i < 3; i++ {
		res, err = game.SubmitScore(st, signer(alice), alice, 10)
		require.NoError(t, err)
		assert.Empty(t, res.Completed, "latch flips only once")
	}

	p, err := game.GetProgress(st, alice, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(730), p.Progress)
	assert.True(t, p.Completed)
}

func TestProgressIsPerQuestAndPlayer(t *testing.T) {
	st := testutil.NewStateDB()
	_, err := game.CreateQuest(st, 0, "Small", "", 5, 200)
	require.NoError(t, err)
	_, err = game.CreateQuest(st, 1, "Big", "", 500, 5000)
	require.NoError(t, err)
	_, err = game.CreateQuest(st, 25, "High id", "", 1, 1)
	require.NoError(t, err)

	res, err := game.SubmitScore(st, signer(alice), alice, 300)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 25}, res.Completed)

	for _, id := range []uint32{0, 1, 25} {
		p, err := game.GetProgress(st, alice, id)
		require.NoError(t, err)
		assert.Equal(t, uint64(300), p.Progress, "quest %d", id)
	}

	bob, err := game.GetProgress(st, "bob", 0)
	require.NoError(t, err)
	assert.Zero(t, bob.Progress)
	assert.False(t, bob.Completed)
}

func TestProgressOnlyWhileActive(t *testing.T) {
	st := testutil.NewStateDB()
	_, err := game.SubmitScore(st, signer(alice), alice, 400)
	require.NoError(t, err)

	_, err = game.CreateQuest(st, 2, "Late", "", 10, 1000)
	require.NoError(t, err)
	_, err = game.SubmitScore(st, signer(alice), alice, 300)
	require.NoError(t, err)

	q, err := game.GetQuest(st, 2)
	require.NoError(t, err)
	q.Active = false
	require.NoError(t, st.SetQuest(q))
	_, err = game.SubmitScore(st, signer(alice), alice, 900)
	require.NoError(t, err)

	p, err := game.GetProgress(st, alice, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), p.Progress)
	assert.False(t, p.Completed)
}

func TestSubmitIsAllOrNothing(t *testing.T) {
	st := testutil.NewStateDB()
	_, err := game.CreateQuest(st, 0, "Full", "", 1, math.MaxUint64)
	require.NoError(t, err)
	require.NoError(t, st.SetQuestProgress(&core.QuestProgress{
		Player: alice, QuestID: 0, Progress: math.MaxUint64,
	}))

	snap, err := st.Snapshot()
	require.NoError(t, err)
	_, err = game.SubmitScore(st, signer(alice), alice, 100)
	require.ErrorIs(t, err, core.ErrOverflow)
	require.NoError(t, st.RevertToSnapshot(snap))

	stats, err := game.GetStats(st, alice)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalGamesPlayed, "stats must roll back with the failed progress update")
	assert.Zero(t, stats.TokensEarned)
}

func TestRecordGameOverflow(t *testing.T) {
	st := testutil.NewStateDB()
	_, err := game.RecordGame(st, alice, math.MaxUint64)
	require.NoError(t, err)
	_, err = game.RecordGame(st, alice, 1)
	require.ErrorIs(t, err, core.ErrOverflow)

	_, err = game.Credit(testutil.NewStateDB(), alice, math.MaxUint64)
	require.NoError(t, err)
}

func TestCreateQuest(t *testing.T) {
	st := testutil.NewStateDB()
	_, err := game.GetQuest(st, 0)
	require.ErrorIs(t, err, core.ErrNotFound)

	q, err := game.CreateQuest(st, 0, "First", "desc", 10, 20)
	require.NoError(t, err)
	assert.True(t, q.Active)

	_, err = game.CreateQuest(st, 0, "Second", "", 1, 2)
	require.NoError(t, err)
	got, err := game.GetQuest(st, 0)
	require.NoError(t, err)
	assert.Equal(t, "Second", got.Title)
	assert.Equal(t, uint64(2), got.TargetScore)

	ids, err := st.ActiveQuestIDs()
	require.NoError(t, err)
	assert.Equal(t, []uint32{0}, ids)
}

func TestInitialize(t *testing.T) {
	st := testutil.NewStateDB()
	addr, err := game.TokenAddress(st)
	require.NoError(t, err)
	assert.Empty(t, addr)

	require.NoError(t, game.Initialize(st, "token-1"))
	require.NoError(t, game.Initialize(st, "token-2"))
	addr, err = game.TokenAddress(st)
	require.NoError(t, err)
	assert.Equal(t, "token-2", addr)

	// The address never changes score accounting.
	_, err = game.SubmitScore(st, signer(alice), alice, 500)
	require.NoError(t, err)
	stats, err := game.GetStats(st, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), stats.TokensEarned)
}
