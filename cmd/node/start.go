package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tolelom/vivorun/consensus"
	"github.com/tolelom/vivorun/core"
	"github.com/tolelom/vivorun/events"
	"github.com/tolelom/vivorun/indexer"
	"github.com/tolelom/vivorun/logging"
	"github.com/tolelom/vivorun/metrics"
	"github.com/tolelom/vivorun/rpc"
	"github.com/tolelom/vivorun/storage"
	"github.com/tolelom/vivorun/vm"
	"github.com/tolelom/vivorun/wallet"

	// Import VM modules to trigger their init() self-registration.
	_ "github.com/tolelom/vivorun/vm/modules/progression"
)

func newStartCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Run the node until SIGINT or SIGTERM",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNode(cmd.Context(), opts)
		},
	}
}

func runNode(ctx context.Context, opts *rootOptions) error {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	logger = logger.With("node", cfg.NodeID)

	password := os.Getenv(passwordEnv)
	if password == "" {
		logger.Info(passwordEnv + " not set; keystore uses an empty password")
	}
	privKey, err := wallet.LoadKey(opts.KeyPath, password)
	if err != nil {
		return fmt.Errorf("load key: %w", err)
	}

	l, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer l.Close()
	if err := l.ensureGenesis(cfg, privKey, logger); err != nil {
		return err
	}

	emitter := events.NewEmitter(logger)
	metrics.Observe(emitter)
	idx := indexer.New(l.db, emitter, logger)
	mempool := core.NewMempool(cfg.Genesis.ChainID)
	exec := vm.NewExecutor(l.state)
	poa := consensus.New(cfg, l.bc, l.state, mempool, exec, emitter, logger, privKey)

	// RPC reads go through a StateDB that is never written, so they only
	// see committed blocks.
	rpcHandler := rpc.NewHandler(l.bc, mempool, storage.NewStateDB(l.db), idx, cfg.Genesis.ChainID)
	rpcServer := rpc.NewServer(rpc.ServerOptions{
		Addr:      fmt.Sprintf(":%d", cfg.RPC.Port),
		AuthToken: cfg.RPC.AuthToken,
		RateLimit: cfg.RPC.RateLimit,
		RateBurst: cfg.RPC.RateBurst,
	}, rpcHandler, logger)
	if err := rpcServer.Start(); err != nil {
		return fmt.Errorf("rpc start: %w", err)
	}
	defer rpcServer.Stop()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		poa.Run(ctx, cfg.BlockInterval())
	}()
	logger.Info("consensus running",
		"validator", privKey.Public().Hex(),
		"proposer", poa.IsProposer(),
		"height", l.bc.Height(),
		"backend", cfg.Storage.Backend,
	)

	<-ctx.Done()
	logger.Info("shutting down")
	// Stop consensus first so no block is written while the DB closes.
	wg.Wait()
	return nil
}
