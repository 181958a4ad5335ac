// Command vivocli is the player client: it signs ledger transactions with a
// local keystore and queries a node over JSON-RPC.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tolelom/vivorun/core"
	"github.com/tolelom/vivorun/rpc"
	"github.com/tolelom/vivorun/wallet"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	RPCURL    string
	AuthToken string
	KeyPath   string
	ChainID   string
	Wait      time.Duration
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
		Use:           "vivocli",
		Short:         "vivorun player client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.RPCURL, "rpc", "http://127.0.0.1:8545", "node JSON-RPC URL")
	cmd.PersistentFlags().StringVar(&opts.AuthToken, "token", os.Getenv("VIVO_RPC_AUTH_TOKEN"), "RPC bearer token")
	cmd.PersistentFlags().StringVar(&opts.KeyPath, "key", "player.key", "keystore file (password from $VIVO_PASSWORD)")
	cmd.PersistentFlags().StringVar(&opts.ChainID, "chain-id", "vivorun-dev", "chain ID to sign for")
	cmd.PersistentFlags().DurationVar(&opts.Wait, "wait", 0, "wait up to this long for the transaction receipt")

	cmd.AddCommand(
		newSubmitScoreCommand(opts),
		newClaimCommand(opts),
		newBuyLifelineCommand(opts),
		newCreateQuestCommand(opts),
		newInitializeCommand(opts),
		newStatsCommand(opts),
		newQuestCommand(opts),
		newProgressCommand(opts),
		newReceiptCommand(opts),
	)
	return cmd
}

func (o *rootOptions) client() *rpc.Client {
	return rpc.NewClient(o.RPCURL, o.AuthToken)
}

func (o *rootOptions) wallet() (*wallet.Wallet, error) {
	priv, err := wallet.LoadKey(o.KeyPath, os.Getenv("VIVO_PASSWORD"))
	if err != nil {
		return nil, fmt.Errorf("load key: %w", err)
	}
	return wallet.New(priv), nil
}

// txBuilder builds a signed transaction for the given nonce.
type txBuilder func(w *wallet.Wallet, chainID string, nonce uint64) (*core.Transaction, error)

// send fetches the signer's nonce, signs, submits and optionally waits for
// the receipt.
func (o *rootOptions) send(cmd *cobra.Command, build txBuilder) error {
	ctx := cmd.Context()
	w, err := o.wallet()
	if err != nil {
		return err
	}
	c := o.client()
	nonce, err := c.Nonce(ctx, w.PubKey())
	if err != nil {
		return err
	}
	tx, err := build(w, o.ChainID, nonce)
	if err != nil {
		return err
	}
	id, err := c.SendTx(ctx, tx)
	if err != nil {
		return err
	}
	if o.Wait <= 0 {
		return printJSON(cmd, map[string]string{"tx_id": id})
	}
	r, err := waitReceipt(ctx, c, id, o.Wait)
	if err != nil {
		return err
	}
	if err := printJSON(cmd, r); err != nil {
		return err
	}
	if !r.Success {
		return fmt.Errorf("transaction failed: %s", r.Log)
	}
	return nil
}

func waitReceipt(ctx context.Context, c *rpc.Client, txID string, timeout time.Duration) (*core.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		r, err := c.Receipt(ctx, txID)
		if err != nil {
			return nil, err
		}
		if r != nil {
			return r, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("no receipt for %s after %s", txID, timeout)
		case <-ticker.C:
		}
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseQuestID(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid quest id %q: %w", s, err)
	}
	return uint32(id), nil
}
