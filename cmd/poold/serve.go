package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapPool/internal/api"
	"swapPool/internal/chain"
	"swapPool/internal/config"
	"swapPool/internal/fixedpoint"
	"swapPool/internal/journal"
	"swapPool/internal/metrics"
	"swapPool/internal/model"
	"swapPool/internal/pool"
	"swapPool/internal/snapshot"
	"swapPool/internal/storage"
	"swapPool/internal/storage/postgres"
	"swapPool/internal/token"
)

const shutdownTimeout = 15 * time.Second

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadServe(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		db        *postgres.Store
		snapStore snapshot.Store
		sinks     = storage.Multi{storage.NewJsonlStorage(cfg.Journal)}
	)
	if cfg.PGDSN != "" {
		db, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer db.Close()
		if err := db.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		sinks = append(sinks, db)
		snapStore = &snapshot.DBStore{Store: db, Name: cfg.SnapshotName}
	}
	if cfg.SnapshotFile != "" {
		snapStore = &snapshot.FileStore{Path: cfg.SnapshotFile}
	}

	var (
		snap     model.Snapshot
		restored bool
	)
	if snapStore != nil {
		if snap, restored, err = snapStore.Load(ctx); err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
	}

	address := pool.DeriveAddress(cfg.Asset1, cfg.Asset2, cfg.Owner)
	if restored {
		address = pool.DeriveAddress(
			common.HexToAddress(snap.Pool.Asset1),
			common.HexToAddress(snap.Pool.Asset2),
			common.HexToAddress(snap.Pool.Owner),
		)
	} else if err := cfg.Validate(); err != nil {
		return err
	}

	lastSeq, err := storage.LastSequence(cfg.Journal)
	if err != nil {
		return fmt.Errorf("scan journal: %w", err)
	}
	if snap.Sequence > lastSeq {
		lastSeq = snap.Sequence
	}

	m, err := metrics.New()
	if err != nil {
		return err
	}
	recorder, err := journal.NewRecorder(address, sinks, lastSeq, logger)
	if err != nil {
		return err
	}
	m.Registry().MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "poold",
		Name:      "journal_failures",
		Help:      "Pool events that could not be written to the journal.",
	}, func() float64 { return float64(recorder.Failures()) }))
	sink := pool.MultiSink{recorder, m}

	var (
		p      *pool.Pool
		ledger *token.MemoryLedger
	)
	if restored {
		p, ledger, err = snapshot.Restore(snap, sink, logger)
		if err != nil {
			return fmt.Errorf("restore snapshot: %w", err)
		}
		logger.Info("snapshot restored", zap.Uint64("sequence", snap.Sequence))
	} else {
		p, ledger, err = createPool(ctx, cfg, address, sink, logger)
		if err != nil {
			return err
		}
	}
	if err := m.TrackPool(p); err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewServer(p, m, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("serve start",
		zap.String("addr", cfg.Addr),
		zap.String("pool", p.Address().Hex()),
		zap.String("journal", cfg.Journal),
		zap.Uint64("sequence", lastSeq),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}

	if snapStore == nil {
		logger.Info("serve stopped", zap.Uint64("sequence", recorder.Sequence()))
		return nil
	}
	final := snapshot.Capture(p, ledger, recorder.Sequence())
	if err := snapStore.Save(shutdownCtx, final); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	logger.Info("snapshot saved", zap.Uint64("sequence", final.Sequence))
	return nil
}

// createPool builds an empty pool over a fresh ledger seeded with the
// configured balances.
func createPool(ctx context.Context, cfg config.ServeConfig, address common.Address, sink pool.EventSink, logger *zap.Logger) (*pool.Pool, *token.MemoryLedger, error) {
	metas, err := assetMetas(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	ledger, err := token.NewMemoryLedger(address, metas...)
	if err != nil {
		return nil, nil, err
	}
	for _, balance := range cfg.Balances {
		amount, err := fixedpoint.Parse(balance.Amount)
		if err != nil {
			return nil, nil, fmt.Errorf("balance of %s: %w", balance.Holder.Hex(), err)
		}
		if err := ledger.Credit(balance.Asset, balance.Holder, amount); err != nil {
			return nil, nil, fmt.Errorf("seed balance of %s: %w", balance.Holder.Hex(), err)
		}
	}

	p, err := pool.New(pool.Config{
		Asset1:         cfg.Asset1,
		Asset2:         cfg.Asset2,
		Owner:          cfg.Owner,
		FeeRecipient:   cfg.FeeRecipient,
		TradeFeeBps:    cfg.TradeFeeBps,
		ProtocolFeeBps: cfg.ProtocolFeeBps,
		MaxTradeBps:    cfg.MaxTradeBps,
	}, ledger, sink, logger)
	if err != nil {
		return nil, nil, err
	}
	return p, ledger, nil
}

func assetMetas(ctx context.Context, cfg config.ServeConfig, logger *zap.Logger) ([]model.AssetMeta, error) {
	if !cfg.NeedsRPC() {
		return []model.AssetMeta{
			{Address: cfg.Asset1.Hex(), Decimals: cfg.Asset1Decimals},
			{Address: cfg.Asset2.Hex(), Decimals: cfg.Asset2Decimals},
		}, nil
	}

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	chainID, err := client.GetChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain id: %w", err)
	}
	logger.Info("resolving asset metadata", zap.String("chain_id", chainID.String()))

	return chain.ResolveAssets(ctx, client, []common.Address{cfg.Asset1, cfg.Asset2}, 3, logger)
}
