package indexer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"priceScope/internal/chain"
	"priceScope/internal/model"
	"priceScope/internal/storage"
)

// RunConfig holds runtime settings for the RPC block source.
type RunConfig struct {
	FromBlock         uint64
	ToBlock           uint64
	Addresses         []common.Address
	Topic0            []common.Hash
	BatchSize         uint64
	CheckpointPath    string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
}

// LogSource is the part of the chain client the runner needs.
type LogSource interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	Header(ctx context.Context, number uint64) (chain.BlockHeader, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
}

// Runner assembles blocks from eth_getLogs over a block range.
type Runner struct {
	cfg        RunConfig
	retry      retryPolicy
	chain      LogSource
	logger     *zap.Logger
	seen       map[string]struct{}
	checkpoint *CheckpointStore
}

func NewRunner(cfg RunConfig, chainClient LogSource, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	retry := newRetryPolicy(cfg.MaxRetries, cfg.RetryBackoff)
	retry.onRetry = func(attempt int, delay time.Duration, err error) {
		logger.Debug("retrying rpc call", zap.Int("attempt", attempt), zap.Duration("delay", delay), zap.Error(err))
	}
	return &Runner{
		cfg:        cfg,
		retry:      retry,
		chain:      chainClient,
		logger:     logger,
		seen:       make(map[string]struct{}),
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
	}
}

// Run fetches the configured range and writes the blocks to w, one batch per range.
func (r *Runner) Run(ctx context.Context, w storage.BlockWriter) error {
	if w == nil {
		return fmt.Errorf("block writer is nil")
	}
	return r.each(ctx, func(ctx context.Context, blocks []model.Block) error {
		if err := w.PutBlocks(blocks); err != nil {
			return fmt.Errorf("store blocks: %w", err)
		}
		return nil
	})
}

// Stream hands each assembled block to handle in ascending order.
func (r *Runner) Stream(ctx context.Context, handle BlockHandler) error {
	return r.each(ctx, func(ctx context.Context, blocks []model.Block) error {
		for _, block := range blocks {
			if err := handle(ctx, block); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Runner) each(ctx context.Context, fn func(context.Context, []model.Block) error) error {
	if r.chain == nil {
		return fmt.Errorf("chain client is nil")
	}
	if r.cfg.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	if len(r.cfg.Addresses) == 0 && len(r.cfg.Topic0) == 0 {
		return fmt.Errorf("at least one address or topic0 filter is required")
	}

	from := r.cfg.FromBlock
	to := r.cfg.ToBlock
	if to == 0 {
		latest, err := r.chain.LatestBlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("get latest block: %w", err)
		}
		to = latest
	}

	if from > to {
		r.logger.Info("nothing to sync", zap.Uint64("from", from), zap.Uint64("to", to))
		return nil
	}
	span := BlockRange{From: from, To: to}

	cp, ok, err := r.checkpoint.Load()
	if err != nil {
		return err
	}
	if ok {
		rest, more := span.After(cp.LastProcessedBlock)
		if !more {
			r.logger.Info("nothing to sync", zap.Uint64("last_processed", cp.LastProcessedBlock), zap.Uint64("to", to))
			return nil
		}
		if rest.From != span.From {
			r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", cp.LastProcessedBlock), zap.Uint64("from", rest.From))
		}
		span = rest
	}

	ranges, err := span.Split(r.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, blockRange := range ranges {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		blocks, err := r.FetchRange(ctx, blockRange)
		if err != nil {
			return err
		}
		if err := fn(ctx, blocks); err != nil {
			return err
		}
		if err := r.checkpoint.Advance(blockRange.To, len(blocks)); err != nil {
			return err
		}

		r.logger.Info("batch complete", zap.Int("blocks", len(blocks)), zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))
	}
	return nil
}

// FetchRange returns the blocks of the range that carry at least one matching log.
func (r *Runner) FetchRange(ctx context.Context, blockRange BlockRange) ([]model.Block, error) {
	r.logger.Info("fetch logs", zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))

	logs, err := r.filterLogsWithRetry(ctx, blockRange.From, blockRange.To)
	if err != nil {
		return nil, fmt.Errorf("filter logs: %w", err)
	}

	fresh := make([]types.Log, 0, len(logs))
	headers := make(map[uint64]chain.BlockHeader)
	for _, lg := range logs {
		if r.isDuplicate(lg) {
			continue
		}
		fresh = append(fresh, lg)
		headers[lg.BlockNumber] = chain.BlockHeader{}
	}

	numbers := make([]uint64, 0, len(headers))
	for n := range headers {
		numbers = append(numbers, n)
	}
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })
	for _, n := range numbers {
		header, err := r.headerWithRetry(ctx, n)
		if err != nil {
			return nil, fmt.Errorf("block header %d: %w", n, err)
		}
		headers[n] = header
	}

	return AssembleBlocks(fresh, headers), nil
}

func (r *Runner) filterLogsWithRetry(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error) {
	return withRetry(ctx, r.retry, func(ctx context.Context) ([]types.Log, error) {
		logs, err := r.chain.FilterLogs(ctx, fromBlock, toBlock, r.cfg.Addresses, r.cfg.Topic0)
		if err != nil {
			r.logger.Warn("filter logs failed", zap.Error(err), zap.Uint64("from", fromBlock), zap.Uint64("to", toBlock))
		}
		return logs, err
	})
}

func (r *Runner) headerWithRetry(ctx context.Context, blockNumber uint64) (chain.BlockHeader, error) {
	return withRetry(ctx, r.retry, func(ctx context.Context) (chain.BlockHeader, error) {
		header, err := r.chain.Header(ctx, blockNumber)
		if err != nil {
			r.logger.Warn("block header fetch failed", zap.Error(err), zap.Uint64("block_number", blockNumber))
		}
		return header, err
	})
}

func (r *Runner) isDuplicate(log types.Log) bool {
	id := fmt.Sprintf("%d:%s:%d:%t", log.BlockNumber, log.TxHash.Hex(), log.Index, log.Removed)
	if _, ok := r.seen[id]; ok {
		return true
	}
	r.seen[id] = struct{}{}
	return false
}
