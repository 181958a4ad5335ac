package game

import (
	"math"

	errorsmod "cosmossdk.io/errors"

	"github.com/tolelom/vivorun/core"
)

// TokensPerScore is the score divisor used when crediting tokens for a game.
const TokensPerScore = 100

// GetStats returns the stored stats of player, or the defaults.
func GetStats(st core.State, player string) (*core.PlayerStats, error) {
	return st.GetPlayerStats(player)
}

// Credit adds amount to the player's token balance.
func Credit(st core.State, player string, amount uint64) (*core.PlayerStats, error) {
	stats, err := st.GetPlayerStats(player)
	if err != nil {
		return nil, err
	}
	if stats.TokensEarned, err = add64(stats.TokensEarned, amount, "tokens_earned"); err != nil {
		return nil, err
	}
	if err := st.SetPlayerStats(stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// Debit removes amount from the player's token balance. The balance never
// goes negative.
func Debit(st core.State, player string, amount uint64) (*core.PlayerStats, error) {
	stats, err := st.GetPlayerStats(player)
	if err != nil {
		return nil, err
	}
	if err := debit(stats, amount); err != nil {
		return nil, err
	}
	if err := st.SetPlayerStats(stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// debit takes amount from a loaded record without persisting it.
func debit(stats *core.PlayerStats, amount uint64) error {
	if stats.TokensEarned < amount {
		return errorsmod.Wrapf(core.ErrInsufficientBalance, "have %d, need %d", stats.TokensEarned, amount)
	}
	stats.TokensEarned -= amount
	return nil
}

// RecordGame applies one finished game to the player's stats and credits
// score/TokensPerScore tokens.
func RecordGame(st core.State, player string, score uint64) (*core.PlayerStats, error) {
	stats, err := st.GetPlayerStats(player)
	if err != nil {
		return nil, err
	}
	if stats.TotalGamesPlayed == math.MaxUint32 {
		return nil, errorsmod.Wrap(core.ErrOverflow, "total_games_played")
	}
	stats.TotalGamesPlayed++
	if stats.TotalScore, err = add64(stats.TotalScore, score, "total_score"); err != nil {
		return nil, err
	}
	stats.HighScore = max(stats.HighScore, score)
	if stats.TokensEarned, err = add64(stats.TokensEarned, score/TokensPerScore, "tokens_earned"); err != nil {
		return nil, err
	}
	if err := st.SetPlayerStats(stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func add64(a, b uint64, field string) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, errorsmod.Wrap(core.ErrOverflow, field)
	}
	return a + b, nil
}
