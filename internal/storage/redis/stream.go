package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"priceScope/internal/storage"
)

const lastBlockField = "last_block"

// Sink appends each block's deltas to a stream and mirrors latest values
// into one hash per store.
type Sink struct {
	rdb    *redis.Client
	stream string
	prefix string
}

func NewSink(addr, password string, db int, stream, prefix string) (*Sink, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	if stream == "" {
		stream = "pricescope:deltas"
	}
	if prefix == "" {
		prefix = "pricescope"
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Sink{rdb: rdb, stream: stream, prefix: prefix}, nil
}

func (s *Sink) Name() string { return "redis" }

func (s *Sink) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Sink) Publish(ctx context.Context, batch storage.BlockDeltas) error {
	deltas, err := json.Marshal(batch.Deltas)
	if err != nil {
		return fmt.Errorf("marshal deltas: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"block_number": batch.BlockNumber,
			"block_hash":   batch.BlockHash,
			"timestamp":    batch.Timestamp,
			"deltas":       deltas,
		},
	})
	for _, d := range batch.Deltas {
		pipe.HSet(ctx, s.StoreHash(d.Store), d.Key, string(d.NewValue))
	}
	pipe.HSet(ctx, s.metaHash(), lastBlockField, strconv.FormatUint(batch.BlockNumber, 10))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline: %w", err)
	}
	return nil
}

// StoreHash names the hash holding the latest values of a store.
func (s *Sink) StoreHash(store string) string {
	return s.prefix + ":store:" + store
}

func (s *Sink) metaHash() string {
	return s.prefix + ":meta"
}

func (s *Sink) Close() error { return s.rdb.Close() }
