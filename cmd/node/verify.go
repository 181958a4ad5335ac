package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tolelom/vivorun/consensus"
)

func newVerifyCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check signatures and linkage of every stored block",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.ConfigPath)
			if err != nil {
				return err
			}
			l, err := openLedger(cfg)
			if err != nil {
				return err
			}
			defer l.Close()

			if err := consensus.VerifyChain(l.bc, cfg.Validators); err != nil {
				return err
			}
			root, err := l.state.ComputeRoot()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "verified %d blocks, state root %s\n", l.bc.Height()+1, root)
			return nil
		},
	}
}
