package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"priceScope/internal/chain"
	"priceScope/internal/config"
	"priceScope/internal/dex"
	"priceScope/internal/indexer"
	"priceScope/internal/mapper"
	"priceScope/internal/pipeline"
	"priceScope/internal/storage"
	"priceScope/internal/storage/bolt"
	"priceScope/internal/storage/kafka"
	"priceScope/internal/storage/postgres"
	"priceScope/internal/storage/redis"
)

func newProcessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Run blocks through the pool, liquidity and price pipeline",
		RunE:  runProcess,
	}

	cmd.Flags().String("rpc", "", "Ethereum RPC URL (token metadata, and blocks when --in is empty)")
	cmd.Flags().String("in", "", "input block JSONL from fetch; empty reads blocks over RPC")
	cmd.Flags().Uint64("from", 0, "start block (inclusive)")
	cmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest")
	cmd.Flags().Uint64("batch-size", 500, "blocks per eth_getLogs request")
	cmd.Flags().String("factory", mapper.DefaultFactory, "V3 factory address")
	cmd.Flags().Bool("tick-on-chain", false, "read slot0 when a pool's tick has not been seen yet")
	cmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address")

	cmd.Flags().String("deltas-out", "", "append committed deltas to this JSONL file")
	cmd.Flags().String("snapshot", "./data/state.db", "bbolt snapshot for resume; empty disables")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN")
	cmd.Flags().String("pg-state-name", "pricescope", "indexer_state row name")
	cmd.Flags().String("kafka-server", "", "Kafka bootstrap server")
	cmd.Flags().String("kafka-topic", "", "Kafka topic for deltas")
	cmd.Flags().String("redis-addr", "", "Redis address")
	cmd.Flags().String("redis-password", "", "Redis password")
	cmd.Flags().Int("redis-db", 0, "Redis database")
	cmd.Flags().String("redis-stream", "pricescope:deltas", "Redis stream for deltas")
	cmd.Flags().String("redis-prefix", "pricescope", "Redis key prefix for latest values")

	return cmd
}

func runProcess(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadProcess(cfgFile, cmd.Flags())
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

	serveMetrics(ctx, cfg.MetricsAddr, logger)

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	decoder, err := dex.NewV3Decoder()
	if err != nil {
		return err
	}

	sinks, snap, err := openSinks(ctx, cfg, logger)
	if err != nil {
		return err
	}
	multi := storage.NewMulti(logger.Named("sinks"), sinks...)
	defer func() {
		if err := multi.Close(); err != nil {
			logger.Warn("close sinks", zap.Error(err))
		}
		if snap != nil {
			if err := snap.Close(); err != nil {
				logger.Warn("close snapshot", zap.Error(err))
			}
		}
	}()

	deps := pipeline.Deps{
		Decoder:  decoder,
		Resolver: chain.NewResolver(chainClient, logger.Named("erc20")),
		Sink:     multi,
		Factory:  cfg.Factory,
	}
	if snap != nil {
		deps.Checkpoint = snap
	}
	if cfg.TickOnChain {
		deps.TickReader = chain.NewSlotReader(chainClient)
	}
	p, err := pipeline.New(deps, logger.Named("pipeline"))
	if err != nil {
		return err
	}

	from := cfg.FromBlock
	if snap != nil {
		last, ok, err := p.Restore(snap)
		if err != nil {
			return err
		}
		if ok && last >= from {
			from = last + 1
		}
	}

	var src indexer.Source
	if cfg.In != "" {
		src = indexer.NewFileSource(cfg.In, from, cfg.ToBlock, logger.Named("source"))
	} else {
		src = indexer.NewRunner(indexer.RunConfig{
			FromBlock:    from,
			ToBlock:      cfg.ToBlock,
			Topic0:       decoder.Topics(),
			BatchSize:    cfg.BatchSize,
			MaxRetries:   cfg.Retry.MaxRetries,
			RetryBackoff: cfg.Retry.RetryBackoff,
		}, chainClient, logger.Named("source"))
	}

	logger.Info("process start",
		zap.String("in", cfg.In),
		zap.Uint64("from", from),
		zap.Uint64("to", cfg.ToBlock),
		zap.String("factory", cfg.Factory),
		zap.Int("sinks", multi.Len()),
	)

	return p.Run(ctx, src)
}

// openSinks builds every configured sink. The bbolt snapshot is returned
// apart from them: it is written only after the others accept a block and
// committed state is restored from it.
func openSinks(ctx context.Context, cfg config.ProcessConfig, logger *zap.Logger) ([]storage.Sink, *bolt.Snapshot, error) {
	var (
		sinks []storage.Sink
		snap  *bolt.Snapshot
	)
	fail := func(err error) ([]storage.Sink, *bolt.Snapshot, error) {
		for _, s := range sinks {
			_ = s.Close()
		}
		if snap != nil {
			_ = snap.Close()
		}
		return nil, nil, err
	}

	if cfg.DeltasOut != "" {
		sinks = append(sinks, storage.NewJsonlStorage(cfg.DeltasOut))
	}

	if cfg.Snapshot != "" {
		if dir := filepath.Dir(cfg.Snapshot); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fail(fmt.Errorf("create snapshot dir: %w", err))
			}
		}
		s, err := bolt.Open(cfg.Snapshot)
		if err != nil {
			return fail(err)
		}
		snap = s
	}

	if cfg.PGDSN != "" {
		pg, err := postgres.NewStore(ctx, cfg.PGDSN, cfg.PGStateName)
		if err != nil {
			return fail(fmt.Errorf("connect postgres: %w", err))
		}
		sinks = append(sinks, pg)
		if err := pg.EnsureSchema(ctx); err != nil {
			return fail(fmt.Errorf("postgres schema: %w", err))
		}
		if last, ok, err := pg.LoadState(ctx, cfg.PGStateName); err != nil {
			return fail(fmt.Errorf("postgres state: %w", err))
		} else if ok {
			logger.Info("postgres state", zap.String("name", cfg.PGStateName), zap.Uint64("last_block", last))
		}
	}

	if cfg.KafkaServer != "" {
		k, err := kafka.NewSink(cfg.KafkaServer, cfg.KafkaTopic)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, k)
	}

	if cfg.RedisAddr != "" {
		r, err := redis.NewSink(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, cfg.RedisStream, cfg.RedisPrefix)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, r)
		if err := r.Ping(ctx); err != nil {
			return fail(fmt.Errorf("ping redis: %w", err))
		}
	}

	return sinks, snap, nil
}
