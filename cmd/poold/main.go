package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "poold",
		Short:        "Constant-product liquidity pool daemon",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pool behind the HTTP API",
		RunE:  runServe,
	}

	serveCmd.Flags().String("addr", ":8080", "HTTP listen address")
	serveCmd.Flags().String("asset1", "", "first pooled asset address")
	serveCmd.Flags().String("asset2", "", "second pooled asset address")
	serveCmd.Flags().Uint64("asset1-decimals", 0, "native decimals of asset1, 0 resolves them over RPC")
	serveCmd.Flags().Uint64("asset2-decimals", 0, "native decimals of asset2, 0 resolves them over RPC")
	serveCmd.Flags().String("owner", "", "pool owner address")
	serveCmd.Flags().String("fee-recipient", "", "protocol fee recipient (defaults to owner)")
	serveCmd.Flags().Uint64("trade-fee-bps", 30, "trade fee in basis points")
	serveCmd.Flags().Uint64("protocol-fee-bps", 20, "protocol fee in basis points")
	serveCmd.Flags().Uint64("max-trade-bps", 1000, "max share of the output reserve per swap, in basis points")
	serveCmd.Flags().String("rpc", "", "EVM RPC URL for asset metadata")
	serveCmd.Flags().String("journal", "./data/journal.jsonl", "event journal JSONL path")
	serveCmd.Flags().String("snapshot-file", "", "snapshot file restored on start and saved on stop")
	serveCmd.Flags().String("pg-dsn", "", "Postgres DSN for journal and snapshots")
	serveCmd.Flags().String("snapshot-name", "default", "snapshot row name in Postgres")
	serveCmd.Flags().StringSlice("balances", nil, "seed balances as holder:asset:amount in native units")
	serveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(serveCmd)

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Rebuild pool state and window metrics from the journal",
		RunE:  runReplay,
	}

	replayCmd.Flags().String("in", "./data/journal.jsonl", "input journal JSONL")
	replayCmd.Flags().String("out", "./data/window_metrics.jsonl", "window metrics JSONL when no Postgres DSN is set")
	replayCmd.Flags().String("window", "5m", "aggregation window (e.g. 1m, 5m, 1h)")
	replayCmd.Flags().String("asset1", "", "first pooled asset address")
	replayCmd.Flags().String("asset2", "", "second pooled asset address")
	replayCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	replayCmd.Flags().Int("batch-size", 1000, "batch size for metric writes")
	replayCmd.Flags().String("state-file", "", "optional local state file for progress tracking")
	replayCmd.Flags().String("state-name", "replay", "progress row name in Postgres")
	replayCmd.Flags().Uint64("recompute-from", 0, "rebuild windows from this journal sequence")
	replayCmd.Flags().String("snapshot-file", "", "snapshot to audit the rebuilt reserves against")
	replayCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(replayCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode journal logs into typed events",
		RunE:  runDecode,
	}

	decodeCmd.Flags().String("in", "./data/journal.jsonl", "input journal JSONL")
	decodeCmd.Flags().String("out", "./data/typed_events.jsonl", "output typed events JSONL")
	decodeCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	decodeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(decodeCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a swap against given reserves",
		Args:  cobra.NoArgs,
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("amount-in", "", "input amount in internal precision")
	quoteCmd.Flags().String("total-in", "", "input-side reserve")
	quoteCmd.Flags().String("total-out", "", "output-side reserve")
	quoteCmd.Flags().Uint64("trade-fee-bps", 30, "trade fee in basis points")
	quoteCmd.Flags().Uint64("protocol-fee-bps", 20, "protocol fee in basis points")
	quoteCmd.Flags().Uint64("max-trade-bps", 1000, "max share of the output reserve per swap")

	root.AddCommand(quoteCmd)

	return root
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
