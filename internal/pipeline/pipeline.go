// Package pipeline runs one block at a time through the mapper, the
// registries, the aggregators and the price engine, then publishes the
// committed deltas.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"priceScope/internal/chain"
	"priceScope/internal/dex"
	"priceScope/internal/indexer"
	"priceScope/internal/keys"
	"priceScope/internal/liquidity"
	"priceScope/internal/mapper"
	"priceScope/internal/metrics"
	"priceScope/internal/model"
	"priceScope/internal/price"
	"priceScope/internal/registry"
	"priceScope/internal/storage"
	"priceScope/internal/store"
	"priceScope/internal/ticks"
)

// Deps are the external collaborators of a Pipeline.
type Deps struct {
	Decoder  dex.Decoder
	Resolver chain.TokenResolver
	// TickReader is optional; without it an unseen pool tick is out of range.
	TickReader chain.TickStateReader
	Sink       storage.Sink
	// Checkpoint receives a block only after Sink has accepted it, so its
	// height never runs ahead of any other output.
	Checkpoint storage.Sink
	Factory    string
}

// Snapshot restores committed state saved by a previous run.
type Snapshot interface {
	Load(store string, fn func(key string, value []byte)) error
	LastBlock() (uint64, bool, error)
}

type Pipeline struct {
	stores     *Stores
	mapper     *mapper.Mapper
	registry   *registry.Registry
	ticks      *ticks.Store
	liquidity  *liquidity.Aggregator
	prices     *price.Engine
	sink       storage.Sink
	checkpoint storage.Sink
	logger     *zap.Logger

	lastBlock uint64
	resumed   bool
}

func New(deps Deps, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Decoder == nil {
		return nil, fmt.Errorf("decoder is required")
	}
	if deps.Resolver == nil {
		return nil, fmt.Errorf("token resolver is required")
	}

	stores := NewStores()
	reg := registry.New(deps.Resolver, registry.Stores{
		Pools:     stores.Pools,
		Tokens:    stores.Tokens,
		Whitelist: stores.Whitelist,
	}, logger.Named("registry"), registry.WithDroppedHook(metrics.IncPoolDropped))

	var liqOpts []liquidity.Option
	if deps.TickReader != nil {
		liqOpts = append(liqOpts, liquidity.WithTickFallback(deps.TickReader))
	}

	return &Pipeline{
		stores:   stores,
		mapper:   mapper.New(deps.Decoder, deps.Factory, reg, logger.Named("mapper")),
		registry: reg,
		ticks:    ticks.New(stores.Ticks, logger.Named("ticks")),
		liquidity: liquidity.New(liquidity.Stores{
			Liquidity:  stores.Liquidity,
			SqrtPrices: stores.SqrtPrices,
		}, logger.Named("liquidity"), liqOpts...),
		prices: price.NewEngine(reg, price.Stores{
			Liquidity:     stores.Liquidity,
			Prices:        stores.Prices,
			DerivedPrices: stores.DerivedPrices,
		}, logger.Named("price")),
		sink:       deps.Sink,
		checkpoint: deps.Checkpoint,
		logger:     logger,
	}, nil
}

// Restore loads committed state from snap. It returns the last block the
// snapshot covers; later calls to HandleBlock skip blocks at or below it.
func (p *Pipeline) Restore(snap Snapshot) (uint64, bool, error) {
	last, ok, err := snap.LastBlock()
	if err != nil {
		return 0, false, fmt.Errorf("read snapshot height: %w", err)
	}
	if !ok {
		return 0, false, nil
	}
	for _, st := range p.stores.Set().All() {
		if err := snap.Load(st.Name(), st.Load); err != nil {
			return 0, false, fmt.Errorf("restore store %s: %w", st.Name(), err)
		}
	}
	p.lastBlock, p.resumed = last, true
	p.logger.Info("state restored",
		zap.Uint64("last_block", last),
		zap.Int("pools", p.stores.Pools.Len()),
		zap.Int("tokens", p.stores.Tokens.Len()),
	)
	return last, true, nil
}

// Run processes every block of src.
func (p *Pipeline) Run(ctx context.Context, src indexer.Source) error {
	return src.Stream(ctx, p.HandleBlock)
}

// HandleBlock processes block and publishes its deltas before returning.
func (p *Pipeline) HandleBlock(ctx context.Context, block model.Block) error {
	if p.resumed && block.Number <= p.lastBlock {
		return nil
	}
	batch, err := p.ProcessBlock(ctx, block)
	if err != nil {
		return err
	}
	if p.sink != nil {
		if err := p.sink.Publish(ctx, batch); err != nil {
			return fmt.Errorf("publish block %d: %w", block.Number, err)
		}
	}
	if p.checkpoint != nil {
		if err := p.checkpoint.Publish(ctx, batch); err != nil {
			return fmt.Errorf("checkpoint block %d: %w", block.Number, err)
		}
	}
	for name, n := range countByStore(batch) {
		metrics.AddDeltas(name, n)
	}
	p.lastBlock, p.resumed = block.Number, true
	metrics.SetLastBlock(block.Number)
	return nil
}

// ProcessBlock runs one pass over block. On success the block is committed
// and its ordered deltas returned; on failure nothing is committed.
func (p *Pipeline) ProcessBlock(ctx context.Context, block model.Block) (storage.BlockDeltas, error) {
	start := time.Now()
	cache := registry.NewTokenCache()
	events := 0

	err := p.mapper.Map(block, func(ev model.BlockEvent) error {
		events++
		metrics.IncEvent(ev.Kind.String())
		return p.dispatch(ctx, cache, block, ev)
	})
	if err != nil {
		p.stores.Set().Discard()
		reason := "error"
		if model.IsDataIntegrity(err) {
			reason = "data_integrity"
		}
		metrics.IncAborted(reason)
		p.logger.Error("block aborted", zap.Uint64("block", block.Number), zap.String("reason", reason), zap.Error(err))
		return storage.BlockDeltas{}, fmt.Errorf("block %d: %w", block.Number, err)
	}

	deltas := p.stores.Set().Commit()
	metrics.IncBlock()
	metrics.ObserveBlock(time.Since(start).Seconds())
	p.logger.Info("block processed",
		zap.Uint64("block", block.Number),
		zap.Int("events", events),
		zap.Int("deltas", len(deltas)),
	)
	return storage.BlockDeltas{
		BlockNumber: block.Number,
		BlockHash:   block.Hash,
		Timestamp:   block.Timestamp,
		Deltas:      deltas,
	}, nil
}

func (p *Pipeline) dispatch(ctx context.Context, cache *registry.TokenCache, block model.Block, ev model.BlockEvent) error {
	switch ev.Kind {
	case model.KindPoolCreated:
		_, err := p.registry.HandlePoolCreated(ctx, cache, ev)
		return err

	case model.KindPoolInitialized:
		pi := ev.Initialization
		if _, ok := p.registry.Pool(pi.PoolAddress); !ok {
			p.logger.Debug("initialize on unregistered pool", zap.String("pool", pi.PoolAddress))
			return nil
		}
		return p.setJSON(p.stores.PoolInits, ev.Ordinal, keys.PoolInit(pi.PoolAddress), pi)

	case model.KindSqrtPriceUpdate:
		update := ev.SqrtPrice
		pool, ok := p.registry.Pool(update.PoolAddress)
		if !ok {
			return nil
		}
		if err := p.setJSON(p.stores.SqrtPrices, ev.Ordinal, keys.SqrtPrice(update.PoolAddress), update); err != nil {
			return err
		}
		return p.prices.ApplySqrtPriceUpdate(*update, pool)

	case model.KindPoolEvent:
		return p.handlePoolEvent(ctx, block, ev)

	case model.KindFeeAmountEnabled:
		return p.setJSON(p.stores.Fees, ev.Ordinal, keys.Fee(ev.Fee.Fee, ev.Fee.TickSpacing), ev.Fee)

	case model.KindFlash:
		if _, ok := p.registry.Pool(ev.Flash.PoolAddress); !ok {
			return nil
		}
		return p.setJSON(p.stores.Flashes, ev.Ordinal, keys.Flash(ev.Flash.PoolAddress), ev.Flash)
	}
	return fmt.Errorf("unhandled event kind %s", ev.Kind)
}

func (p *Pipeline) handlePoolEvent(ctx context.Context, block model.Block, ev model.BlockEvent) error {
	pe := ev.PoolEvent
	pool, ok := p.registry.Pool(pe.PoolAddress)
	if !ok {
		return &model.DataIntegrityError{
			BlockNumber: block.Number,
			Ordinal:     ev.Ordinal,
			Reason:      fmt.Sprintf("%s on unregistered pool %s", pe.Kind, pe.PoolAddress),
		}
	}

	switch pe.Kind {
	case model.EventSwap:
		return p.setJSON(p.stores.Swaps, ev.Ordinal, keys.Swap(pool.Address), pe)
	case model.EventMint:
		if err := p.ticks.HandleMint(*pe); err != nil {
			return err
		}
		return p.liquidity.Handle(ctx, *pe, pool, block.Number)
	case model.EventBurn:
		return p.liquidity.Handle(ctx, *pe, pool, block.Number)
	}
	return errors.New("unknown pool event kind " + string(pe.Kind))
}

func (p *Pipeline) setJSON(st *store.Store, ordinal uint64, key keys.Key, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return st.Set(ordinal, key.String(), raw)
}

func countByStore(batch storage.BlockDeltas) map[string]int {
	out := make(map[string]int)
	for _, d := range batch.Deltas {
		out[d.Store]++
	}
	return out
}
