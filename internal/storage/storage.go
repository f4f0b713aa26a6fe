package storage

import (
	"context"

	"priceScope/internal/model"
	"priceScope/internal/store"
)

// BlockDeltas is the ordered write set of one committed block.
type BlockDeltas struct {
	BlockNumber uint64        `json:"block_number"`
	BlockHash   string        `json:"block_hash"`
	Timestamp   uint64        `json:"timestamp"`
	Deltas      []store.Delta `json:"deltas"`
}

// Sink receives committed block deltas.
type Sink interface {
	Name() string
	Publish(ctx context.Context, batch BlockDeltas) error
	Close() error
}

// BlockWriter persists raw blocks produced by the fetch command.
type BlockWriter interface {
	PutBlocks(blocks []model.Block) error
}
