package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tolelom/vivorun/config"
	"github.com/tolelom/vivorun/wallet"
)

func newInitCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default single-validator config for the key in --key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(opts.ConfigPath); err == nil {
				return fmt.Errorf("%s already exists", opts.ConfigPath)
			}
			priv, err := wallet.LoadKey(opts.KeyPath, os.Getenv(passwordEnv))
			if err != nil {
				return fmt.Errorf("load key: %w", err)
			}
			cfg := config.DefaultConfig()
			cfg.Validators = []string{priv.Public().Hex()}
			if err := config.Save(cfg, opts.ConfigPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (validator %s)\n", opts.ConfigPath, cfg.Validators[0])
			return nil
		},
	}
}
