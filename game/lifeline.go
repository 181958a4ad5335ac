package game

import (
	"math"

	errorsmod "cosmossdk.io/errors"

	"github.com/tolelom/vivorun/core"
)

// LifelinePrice is the token cost of one extra life.
const LifelinePrice = 10

// BuyLifeline trades LifelinePrice tokens for one life in a single
// read-modify-write of the player's stats.
func BuyLifeline(st core.State, auth Authorizer, player string) (*core.PlayerStats, error) {
	if err := auth.RequireAuth(player); err != nil {
		return nil, err
	}

	stats, err := st.GetPlayerStats(player)
	if err != nil {
		return nil, err
	}
	if err := debit(stats, LifelinePrice); err != nil {
		return nil, errorsmod.Wrap(err, "lifeline")
	}
	if stats.AvailableLives == math.MaxUint32 {
		return nil, errorsmod.Wrap(core.ErrOverflow, "available_lives")
	}
	stats.AvailableLives++
	if err := st.SetPlayerStats(stats); err != nil {
		return nil, err
	}
	return stats, nil
}
