package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tolelom/vivorun/wallet"
)

func newGenKeyCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "genkey",
		Short: "Generate a new key and save it to the keystore file",
		Long: "Generate an ed25519 key pair and save it encrypted with $" + passwordEnv + ".\n" +
			"The public key doubles as a validator address and a player identity.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(opts.KeyPath); err == nil {
				return fmt.Errorf("%s already exists", opts.KeyPath)
			}
			w, err := wallet.Generate()
			if err != nil {
				return err
			}
			if err := wallet.SaveKey(opts.KeyPath, os.Getenv(passwordEnv), w.PrivKey()); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Public key: %s\n", w.PubKey())
			fmt.Fprintf(out, "Saved to:   %s\n", opts.KeyPath)
			return nil
		},
	}
}
