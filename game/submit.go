package game

import "github.com/tolelom/vivorun/core"

// ScoreResult describes what a score submission changed.
type ScoreResult struct {
	Stats          *core.PlayerStats
	TokensCredited uint64
	Completed      []uint32 // quests whose completion latch flipped
}

// SubmitScore records a game for player and advances every active quest.
// Both steps belong to one invocation; the caller discards all writes if an
// error is returned.
func SubmitScore(st core.State, auth Authorizer, player string, score uint64) (*ScoreResult, error) {
	if err := auth.RequireAuth(player); err != nil {
		return nil, err
	}

	stats, err := RecordGame(st, player, score)
	if err != nil {
		return nil, err
	}
	credited := score / TokensPerScore

	// Tokens stay an internal counter: the configured token contract is
	// looked up but nothing is minted on it.
	if _, err := st.GetTokenAddress(); err != nil {
		return nil, err
	}

	completed, err := AdvanceAll(st, player, score)
	if err != nil {
		return nil, err
	}
	return &ScoreResult{Stats: stats, TokensCredited: credited, Completed: completed}, nil
}
