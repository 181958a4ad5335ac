// Package progression registers the player-progression transaction handlers.
// Import it for side effects to make the VM accept them.
package progression

import (
	"encoding/json"

	errorsmod "cosmossdk.io/errors"

	"github.com/tolelom/vivorun/core"
	"github.com/tolelom/vivorun/events"
	"github.com/tolelom/vivorun/game"
	"github.com/tolelom/vivorun/vm"
)

func init() {
	vm.Register(core.TxInitialize, handleInitialize)
	vm.Register(core.TxSubmitScore, handleSubmitScore)
	vm.Register(core.TxClaimQuestReward, handleClaimQuestReward)
	vm.Register(core.TxBuyLifeline, handleBuyLifeline)
	vm.Register(core.TxCreateQuest, handleCreateQuest)
}

func decode(payload json.RawMessage, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return errorsmod.Wrapf(core.ErrInvalidRequest, "decode payload: %v", err)
	}
	return nil
}

func handleInitialize(ctx *vm.Context, payload json.RawMessage) error {
	var p core.InitializePayload
	if err := decode(payload, &p); err != nil {
		return err
	}
	if p.TokenAddress == "" {
		return errorsmod.Wrap(core.ErrInvalidRequest, "token address required")
	}
	if err := game.Initialize(ctx.State, p.TokenAddress); err != nil {
		return err
	}
	ctx.Emit(events.EventInitialized, map[string]any{"token_address": p.TokenAddress})
	return nil
}

func handleSubmitScore(ctx *vm.Context, payload json.RawMessage) error {
	var p core.SubmitScorePayload
	if err := decode(payload, &p); err != nil {
		return err
	}
	res, err := game.SubmitScore(ctx.State, ctx, p.Player, p.Score)
	if err != nil {
		return err
	}

	ctx.Emit(events.EventScoreSubmitted, map[string]any{
		"player":     p.Player,
		"score":      p.Score,
		"tokens":     res.TokensCredited,
		"high_score": res.Stats.HighScore,
	})
	for _, id := range res.Completed {
		ctx.Emit(events.EventQuestCompleted, map[string]any{"player": p.Player, "quest_id": id})
	}
	return nil
}

func handleClaimQuestReward(ctx *vm.Context, payload json.RawMessage) error {
	var p core.ClaimQuestRewardPayload
	if err := decode(payload, &p); err != nil {
		return err
	}
	reward, err := game.Claim(ctx.State, ctx, p.Player, p.QuestID)
	if err != nil {
		return err
	}
	ctx.Emit(events.EventQuestClaimed, map[string]any{
		"player":   p.Player,
		"quest_id": p.QuestID,
		"reward":   reward,
	})
	return nil
}

func handleBuyLifeline(ctx *vm.Context, payload json.RawMessage) error {
	var p core.BuyLifelinePayload
	if err := decode(payload, &p); err != nil {
		return err
	}
	stats, err := game.BuyLifeline(ctx.State, ctx, p.Player)
	if err != nil {
		return err
	}
	ctx.Emit(events.EventLifelineBought, map[string]any{
		"player": p.Player,
		"lives":  stats.AvailableLives,
		"tokens": stats.TokensEarned,
	})
	return nil
}

// handleCreateQuest accepts any signer.
func handleCreateQuest(ctx *vm.Context, payload json.RawMessage) error {
	var p core.CreateQuestPayload
	if err := decode(payload, &p); err != nil {
		return err
	}
	q, err := game.CreateQuest(ctx.State, p.QuestID, p.Title, p.Description, p.RewardAmount, p.TargetScore)
	if err != nil {
		return err
	}
	ctx.Emit(events.EventQuestCreated, map[string]any{
		"quest_id": q.ID,
		"title":    q.Title,
		"reward":   q.RewardAmount,
		"target":   q.TargetScore,
	})
	return nil
}
