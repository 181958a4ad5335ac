package game

import "github.com/tolelom/vivorun/core"

// CreateQuest stores an active quest under id, replacing any quest already
// there. Anyone may call it.
func CreateQuest(st core.State, id uint32, title, description string, reward, target uint64) (*core.Quest, error) {
	q := &core.Quest{
		ID:           id,
		Title:        title,
		Description:  description,
		RewardAmount: reward,
		TargetScore:  target,
		Active:       true,
	}
	if err := st.SetQuest(q); err != nil {
		return nil, err
	}
	return q, nil
}

// GetQuest returns the quest with id or core.ErrNotFound.
func GetQuest(st core.State, id uint32) (*core.Quest, error) {
	return st.GetQuest(id)
}
