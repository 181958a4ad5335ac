// Command node runs a vivorun ledger node.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tolelom/vivorun/config"
)

// passwordEnv names the variable holding the keystore password. Passwords
// are not taken from flags because flags leak via ps.
const passwordEnv = "VIVO_PASSWORD"

// rootOptions holds global flags for all commands.
type rootOptions struct {
	ConfigPath string
	KeyPath    string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "node",
		Short:         "vivorun player-progression ledger node",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "config.json", "path to config file")
	cmd.PersistentFlags().StringVar(&opts.KeyPath, "key", "validator.key", "path to keystore file")

	cmd.AddCommand(newStartCommand(opts))
	cmd.AddCommand(newGenKeyCommand(opts))
	cmd.AddCommand(newInitCommand(opts))
	cmd.AddCommand(newVerifyCommand(opts))
	return cmd
}

// loadConfig loads and validates the config; a missing file means defaults.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		path = ""
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
