// Package liquidity tracks in-range liquidity and value locked per pool.
package liquidity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"priceScope/internal/chain"
	"priceScope/internal/keys"
	"priceScope/internal/model"
	"priceScope/internal/price"
	"priceScope/internal/store"
)

// Stores are the stores the aggregator reads and writes.
type Stores struct {
	Liquidity  *store.Store
	SqrtPrices *store.Store
}

// Aggregator applies Mint and Burn events.
type Aggregator struct {
	stores   Stores
	fallback chain.TickStateReader
	logger   *zap.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithTickFallback reads slot0 from chain when no sqrt price has been seen for
// a pool. The read is made at the parent block: with no Initialize or Swap
// seen before the event, the pool's tick has not moved within the block.
func WithTickFallback(reader chain.TickStateReader) Option {
	return func(a *Aggregator) { a.fallback = reader }
}

func New(stores Stores, logger *zap.Logger, opts ...Option) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Aggregator{stores: stores, logger: logger}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handle applies a pool event. Swaps do not change liquidity here.
func (a *Aggregator) Handle(ctx context.Context, ev model.Event, pool model.Pool, blockNumber uint64) error {
	switch ev.Kind {
	case model.EventMint:
		return a.mint(ctx, ev, pool, blockNumber)
	case model.EventBurn:
		return a.burn(ctx, ev, pool, blockNumber)
	}
	return nil
}

func (a *Aggregator) mint(ctx context.Context, ev model.Event, pool model.Pool, blockNumber uint64) error {
	m := ev.Mint
	amount, err := decimal.NewFromString(m.Amount)
	if err != nil {
		return fmt.Errorf("mint amount %q: %w", m.Amount, err)
	}
	inRange, err := a.inRange(ctx, ev.LogOrdinal, pool.Address, blockNumber, m.TickLower, m.TickUpper)
	if err != nil {
		return err
	}
	if inRange {
		if err := a.stores.Liquidity.Add(ev.LogOrdinal, keys.Liquidity(pool.Address).String(), amount); err != nil {
			return err
		}
	}

	amount0, err := price.ConvertTokenToDecimal(m.Amount0, pool.Token0.Decimals)
	if err != nil {
		return err
	}
	amount1, err := price.ConvertTokenToDecimal(m.Amount1, pool.Token1.Decimals)
	if err != nil {
		return err
	}
	if err := a.stores.Liquidity.Add(ev.LogOrdinal, keys.AmountLocked(pool.Address, pool.Token0.Address).String(), amount0); err != nil {
		return err
	}
	return a.stores.Liquidity.Add(ev.LogOrdinal, keys.AmountLocked(pool.Address, pool.Token1.Address).String(), amount1)
}

func (a *Aggregator) burn(ctx context.Context, ev model.Event, pool model.Pool, blockNumber uint64) error {
	b := ev.Burn
	amount, err := decimal.NewFromString(b.Amount)
	if err != nil {
		return fmt.Errorf("burn amount %q: %w", b.Amount, err)
	}
	inRange, err := a.inRange(ctx, ev.LogOrdinal, pool.Address, blockNumber, b.TickLower, b.TickUpper)
	if err != nil {
		return err
	}
	if inRange {
		if err := a.stores.Liquidity.Add(ev.LogOrdinal, keys.Liquidity(pool.Address).String(), amount.Neg()); err != nil {
			return err
		}
	}

	amount0, err := price.ConvertTokenToDecimal(b.Amount0, pool.Token0.Decimals)
	if err != nil {
		return err
	}
	amount1, err := price.ConvertTokenToDecimal(b.Amount1, pool.Token1.Decimals)
	if err != nil {
		return err
	}
	t0, t1 := pool.Token0.Address, pool.Token1.Address
	if err := a.stores.Liquidity.Add(ev.LogOrdinal, keys.TotalValueLocked(t0, t1).String(), amount0.Neg()); err != nil {
		return err
	}
	return a.stores.Liquidity.Add(ev.LogOrdinal, keys.TotalValueLocked(t1, t0).String(), amount1.Neg())
}

func parentBlock(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	return n - 1
}

// inRange tests lower <= tick <= upper against the pool's tick at ordinal.
// An unknown tick is out of range.
func (a *Aggregator) inRange(ctx context.Context, ordinal uint64, pool string, blockNumber uint64, lower, upper int32) (bool, error) {
	tick, ok := a.CurrentTick(ordinal, pool)
	if !ok && a.fallback != nil {
		var err error
		tick, ok, err = a.fallback.PoolTickState(ctx, pool, parentBlock(blockNumber))
		if err != nil {
			return false, fmt.Errorf("pool %s tick state: %w", pool, err)
		}
	}
	if !ok {
		a.logger.Debug("no current tick, treating position as out of range", zap.String("pool", pool), zap.Uint64("ordinal", ordinal))
		return false, nil
	}
	return lower <= tick && tick <= upper, nil
}

// CurrentTick returns the tick of the last sqrt price update at or before ordinal.
func (a *Aggregator) CurrentTick(ordinal uint64, pool string) (int32, bool) {
	raw, ok := a.stores.SqrtPrices.GetAt(ordinal, keys.SqrtPrice(pool).String())
	if !ok {
		return 0, false
	}
	var update model.SqrtPriceUpdate
	if err := json.Unmarshal(raw, &update); err != nil {
		a.logger.Warn("corrupt sqrt price record", zap.String("pool", pool), zap.Error(err))
		return 0, false
	}
	return update.Tick, true
}
