package indexer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"priceScope/internal/model"
	"priceScope/internal/storage"
)

// FileSource replays blocks from a JSONL file written by the fetch command.
type FileSource struct {
	path   string
	from   uint64
	to     uint64
	logger *zap.Logger
}

// NewFileSource reads path and yields blocks in [from, to]; to == 0 means no upper bound.
func NewFileSource(path string, from, to uint64, logger *zap.Logger) *FileSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSource{path: path, from: from, to: to, logger: logger}
}

func (s *FileSource) Stream(ctx context.Context, handle BlockHandler) error {
	var (
		last    uint64
		started bool
		skipped int
	)
	err := storage.ReadBlocks(s.path, func(block model.Block) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if block.Number < s.from || (s.to != 0 && block.Number > s.to) {
			skipped++
			return nil
		}
		if started && block.Number <= last {
			return fmt.Errorf("block %d out of order after %d", block.Number, last)
		}
		last, started = block.Number, true
		return handle(ctx, block)
	})
	if err != nil {
		return err
	}
	s.logger.Info("file source drained",
		zap.String("path", s.path),
		zap.Uint64("last_block", last),
		zap.Int("skipped", skipped),
	)
	return nil
}
