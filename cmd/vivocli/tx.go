package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tolelom/vivorun/core"
	"github.com/tolelom/vivorun/wallet"
)

func newSubmitScoreCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "submit-score <score>",
		Short: "Record a finished game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			score, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid score %q: %w", args[0], err)
			}
			return opts.send(cmd, func(w *wallet.Wallet, chainID string, nonce uint64) (*core.Transaction, error) {
				return w.SubmitScore(chainID, nonce, score)
			})
		},
	}
}

func newClaimCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "claim <quest-id>",
		Short: "Claim the reward of a completed quest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseQuestID(args[0])
			if err != nil {
				return err
			}
			return opts.send(cmd, func(w *wallet.Wallet, chainID string, nonce uint64) (*core.Transaction, error) {
				return w.ClaimQuestReward(chainID, nonce, id)
			})
		},
	}
}

func newBuyLifelineCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "buy-lifeline",
		Short: "Spend 10 tokens on one extra life",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.send(cmd, func(w *wallet.Wallet, chainID string, nonce uint64) (*core.Transaction, error) {
				return w.BuyLifeline(chainID, nonce)
			})
		},
	}
}

func newCreateQuestCommand(opts *rootOptions) *cobra.Command {
	var p core.CreateQuestPayload
	cmd := &cobra.Command{
		Use:   "create-quest",
		Short: "Define or replace a quest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if p.Title == "" {
				return fmt.Errorf("--title is required")
			}
			return opts.send(cmd, func(w *wallet.Wallet, chainID string, nonce uint64) (*core.Transaction, error) {
				return w.CreateQuest(chainID, nonce, p)
			})
		},
	}
	cmd.Flags().Uint32Var(&p.QuestID, "id", 0, "quest id")
	cmd.Flags().StringVar(&p.Title, "title", "", "quest title")
	cmd.Flags().StringVar(&p.Description, "description", "", "quest description")
	cmd.Flags().Uint64Var(&p.RewardAmount, "reward", 0, "tokens credited on claim")
	cmd.Flags().Uint64Var(&p.TargetScore, "target", 0, "cumulative score needed to complete")
	return cmd
}

func newInitializeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "initialize <token-address>",
		Short: "Store the token-contract address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.send(cmd, func(w *wallet.Wallet, chainID string, nonce uint64) (*core.Transaction, error) {
				return w.Initialize(chainID, nonce, args[0])
			})
		},
	}
}
