package indexer

import (
	"context"

	"priceScope/internal/model"
)

// BlockHandler consumes one block. Blocks are delivered in ascending order.
type BlockHandler func(ctx context.Context, block model.Block) error

// Source produces blocks for the processing pipeline.
type Source interface {
	Stream(ctx context.Context, handle BlockHandler) error
}
