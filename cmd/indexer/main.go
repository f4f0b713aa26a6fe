package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"priceScope/internal/chain"
	"priceScope/internal/config"
	"priceScope/internal/dex"
	"priceScope/internal/indexer"
	"priceScope/internal/metrics"
	"priceScope/internal/storage"
)

func main() {
	root := &cobra.Command{
		Use:          "indexer",
		Short:        "Uniswap V3 pool and price indexer",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch pool logs over RPC into a block JSONL file",
		RunE:  runFetch,
	}

	fetchCmd.Flags().String("rpc", "", "Ethereum RPC URL")
	fetchCmd.Flags().Uint64("from", 0, "start block (inclusive)")
	fetchCmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest")
	fetchCmd.Flags().StringSlice("address", nil, "contract addresses (comma-separated), empty means any")
	fetchCmd.Flags().StringSlice("topic0", nil, "topic0 signatures (comma-separated), empty means every V3 event")
	fetchCmd.Flags().Uint64("batch-size", 2000, "blocks per batch")
	fetchCmd.Flags().String("out", "./data/blocks.jsonl", "output JSONL path")
	fetchCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	fetchCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	fetchCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	fetchCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	fetchCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	fetchCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address")

	root.AddCommand(fetchCmd)
	root.AddCommand(newProcessCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runFetch(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFetch(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}

	addresses, err := parseAddresses(cfg.Addresses)
	if err != nil {
		return err
	}
	topic0, err := parseTopic0(cfg.Topic0)
	if err != nil {
		return err
	}
	if len(topic0) == 0 {
		decoder, err := dex.NewV3Decoder()
		if err != nil {
			return err
		}
		topic0 = decoder.Topics()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveMetrics(ctx, cfg.MetricsAddr, logger)

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	out := storage.NewJsonlStorage(cfg.Out)

	runner := indexer.NewRunner(indexer.RunConfig{
		FromBlock:         cfg.FromBlock,
		ToBlock:           cfg.ToBlock,
		Addresses:         addresses,
		Topic0:            topic0,
		BatchSize:         cfg.BatchSize,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		MaxRetries:        cfg.Retry.MaxRetries,
		RetryBackoff:      cfg.Retry.RetryBackoff,
	}, chainClient, logger)

	logger.Info("fetch start",
		zap.String("rpc", cfg.RPCURL),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.Int("addresses", len(addresses)),
		zap.Int("topic0", len(topic0)),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.String("out", cfg.Out),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("checkpoint", cfg.Checkpoint),
	)

	return runner.Run(ctx, out)
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

// serveMetrics exposes /metrics until ctx is done. An empty addr disables it.
func serveMetrics(ctx context.Context, addr string, logger *zap.Logger) {
	metrics.MustRegister()
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("metrics listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

func parseAddresses(inputs []string) ([]common.Address, error) {
	addresses := make([]common.Address, 0, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !common.IsHexAddress(input) {
			return nil, fmt.Errorf("invalid address: %s", input)
		}
		addresses = append(addresses, common.HexToAddress(input))
	}
	return addresses, nil
}

func parseTopic0(inputs []string) ([]common.Hash, error) {
	topics := make([]common.Hash, 0, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		data, err := hexutil.Decode(input)
		if err != nil || len(data) != 32 {
			return nil, fmt.Errorf("invalid topic0: %s", input)
		}
		topics = append(topics, common.BytesToHash(data))
	}
	return topics, nil
}
