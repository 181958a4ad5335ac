package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// playerArg returns args[0] when given, else the keystore's own public key.
func (o *rootOptions) playerArg(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	w, err := o.wallet()
	if err != nil {
		return "", err
	}
	return w.PubKey(), nil
}

func newStatsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats [player]",
		Short: "Show a player's stats (default: own key)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			player, err := opts.playerArg(args)
			if err != nil {
				return err
			}
			stats, err := opts.client().PlayerStats(cmd.Context(), player)
			if err != nil {
				return err
			}
			return printJSON(cmd, stats)
		},
	}
}

func newQuestCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "quest <quest-id>",
		Short: "Show a quest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseQuestID(args[0])
			if err != nil {
				return err
			}
			q, err := opts.client().Quest(cmd.Context(), id)
			if err != nil {
				return err
			}
			if q == nil {
				return fmt.Errorf("quest %d not found", id)
			}
			return printJSON(cmd, q)
		},
	}
}

func newProgressCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "progress <quest-id> [player]",
		Short: "Show a player's progress on a quest (default: own key)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseQuestID(args[0])
			if err != nil {
				return err
			}
			player, err := opts.playerArg(args[1:])
			if err != nil {
				return err
			}
			p, err := opts.client().QuestProgress(cmd.Context(), player, id)
			if err != nil {
				return err
			}
			return printJSON(cmd, p)
		},
	}
}

func newReceiptCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "receipt <tx-id>",
		Short: "Show the outcome of a submitted transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.client().Receipt(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if r == nil {
				return fmt.Errorf("transaction %s not processed yet", args[0])
			}
			return printJSON(cmd, r)
		},
	}
}
