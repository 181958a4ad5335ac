package game

import (
	"errors"

	errorsmod "cosmossdk.io/errors"

	"github.com/tolelom/vivorun/core"
)

// Claim converts a completed quest into its token reward, once. The progress
// record is marked claimed before the reward is credited, and a quest that no
// longer exists credits nothing. It returns the amount credited.
func Claim(st core.State, auth Authorizer, player string, questID uint32) (uint64, error) {
	if err := auth.RequireAuth(player); err != nil {
		return 0, err
	}

	p, err := st.GetQuestProgress(player, questID)
	if err != nil {
		return 0, err
	}
	if !p.Completed {
		return 0, errorsmod.Wrapf(core.ErrQuestNotCompleted, "quest %d", questID)
	}
	if p.Claimed {
		return 0, errorsmod.Wrapf(core.ErrAlreadyClaimed, "quest %d", questID)
	}
	p.Claimed = true
	if err := st.SetQuestProgress(p); err != nil {
		return 0, err
	}

	q, err := st.GetQuest(questID)
	if errors.Is(err, core.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if _, err := Credit(st, player, q.RewardAmount); err != nil {
		return 0, err
	}
	return q.RewardAmount, nil
}
