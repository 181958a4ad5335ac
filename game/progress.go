package game

import (
	"errors"

	errorsmod "cosmossdk.io/errors"

	"github.com/tolelom/vivorun/core"
)

// GetProgress returns the player's progress on a quest, or the zero record.
func GetProgress(st core.State, player string, questID uint32) (*core.QuestProgress, error) {
	return st.GetQuestProgress(player, questID)
}

// AdvanceAll adds score to the player's progress on every active quest and
// latches Completed once progress reaches the target. It returns the ids of
// the quests completed by this call.
func AdvanceAll(st core.State, player string, score uint64) ([]uint32, error) {
	ids, err := st.ActiveQuestIDs()
	if err != nil {
		return nil, err
	}

	var completed []uint32
	for _, id := range ids {
		q, err := st.GetQuest(id)
		if errors.Is(err, core.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !q.Active {
			continue
		}

		p, err := st.GetQuestProgress(player, id)
		if err != nil {
			return nil, err
		}
		if p.Progress, err = add64(p.Progress, score, "quest progress"); err != nil {
			return nil, errorsmod.Wrapf(err, "quest %d", id)
		}
		if !p.Completed && p.Progress >= q.TargetScore {
			p.Completed = true
			completed = append(completed, id)
		}
		if err := st.SetQuestProgress(p); err != nil {
			return nil, err
		}
	}
	return completed, nil
}
