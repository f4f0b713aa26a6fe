package liquidity

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"priceScope/internal/keys"
	"priceScope/internal/model"
	"priceScope/internal/store"
)

const (
	poolAddr = "8ad599c3a0ff1de082011efddc58f1908eb6e6d8"
	usdc     = "a0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
	weth     = "c02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"
)

var testPool = model.Pool{
	Address: poolAddr,
	Token0:  model.Erc20Token{Address: usdc, Decimals: 6},
	Token1:  model.Erc20Token{Address: weth, Decimals: 18},
}

func newAggregator(t *testing.T) (*Aggregator, Stores) {
	t.Helper()
	stores := Stores{
		Liquidity:  store.New("liquidity", store.PolicyAdd),
		SqrtPrices: store.New("sqrt_prices", store.PolicySet),
	}
	return New(stores, zaptest.NewLogger(t)), stores
}

func setTick(t *testing.T, stores Stores, ordinal uint64, tick int32) {
	t.Helper()
	raw, err := json.Marshal(model.SqrtPriceUpdate{PoolAddress: poolAddr, Ordinal: ordinal, SqrtPrice: "1", Tick: tick})
	require.NoError(t, err)
	require.NoError(t, stores.SqrtPrices.Set(ordinal, keys.SqrtPrice(poolAddr).String(), raw))
}

func mint(ordinal uint64, lower, upper int32, amount string) model.Event {
	return model.Event{
		Kind:        model.EventMint,
		PoolAddress: poolAddr,
		LogOrdinal:  ordinal,
		Mint: &model.MintEventData{
			TickLower: lower, TickUpper: upper, Amount: amount,
			Amount0: "2000000", Amount1: "1000000000000000000",
		},
	}
}

func burn(ordinal uint64, lower, upper int32, amount string) model.Event {
	return model.Event{
		Kind:        model.EventBurn,
		PoolAddress: poolAddr,
		LogOrdinal:  ordinal,
		Burn: &model.BurnEventData{
			TickLower: lower, TickUpper: upper, Amount: amount,
			Amount0: "1000000", Amount1: "500000000000000000",
		},
	}
}

func liquidity(stores Stores) decimal.Decimal {
	d, _ := stores.Liquidity.GetLastDecimal(keys.Liquidity(poolAddr).String())
	return d
}

func TestMintWithoutKnownTickFailsClosed(t *testing.T) {
	a, stores := newAggregator(t)
	require.NoError(t, a.Handle(context.Background(), mint(1, -100, 100, "500"), testPool, 1))

	require.True(t, liquidity(stores).IsZero())
	locked, ok := stores.Liquidity.GetLastDecimal(keys.AmountLocked(poolAddr, usdc).String())
	require.True(t, ok)
	require.True(t, locked.Equal(decimal.NewFromInt(2)), locked.String())
	locked, _ = stores.Liquidity.GetLastDecimal(keys.AmountLocked(poolAddr, weth).String())
	require.True(t, locked.Equal(decimal.NewFromInt(1)))
}

func TestLiquidityUsesTickAtEventTime(t *testing.T) {
	a, stores := newAggregator(t)
	ctx := context.Background()

	setTick(t, stores, 1, 0)
	require.NoError(t, a.Handle(ctx, mint(2, -100, 100, "500"), testPool, 1))
	require.NoError(t, a.Handle(ctx, mint(3, 200, 300, "70"), testPool, 1))

	// Price moves into the second range; earlier mints are not revisited.
	setTick(t, stores, 4, 250)
	require.NoError(t, a.Handle(ctx, mint(5, 200, 300, "30"), testPool, 1))
	require.NoError(t, a.Handle(ctx, burn(6, -100, 100, "500"), testPool, 1))
	require.NoError(t, a.Handle(ctx, burn(7, 250, 260, "10"), testPool, 1))

	// 500 (in range) + 30 (in range) - 10 (in range, inclusive lower bound)
	require.True(t, liquidity(stores).Equal(decimal.NewFromInt(520)), liquidity(stores).String())

	tvl0, ok := stores.Liquidity.GetLastDecimal(keys.TotalValueLocked(usdc, weth).String())
	require.True(t, ok)
	require.True(t, tvl0.Equal(decimal.NewFromInt(-2)), tvl0.String())
	tvl1, _ := stores.Liquidity.GetLastDecimal(keys.TotalValueLocked(weth, usdc).String())
	require.True(t, tvl1.Equal(decimal.NewFromInt(-1)), tvl1.String())
}

type fakeTickState struct {
	tick   int32
	ok     bool
	blocks []uint64
}

func (f *fakeTickState) PoolTickState(_ context.Context, _ string, blockNumber uint64) (int32, bool, error) {
	f.blocks = append(f.blocks, blockNumber)
	return f.tick, f.ok, nil
}

func TestTickFallback(t *testing.T) {
	stores := Stores{
		Liquidity:  store.New("liquidity", store.PolicyAdd),
		SqrtPrices: store.New("sqrt_prices", store.PolicySet),
	}
	reader := &fakeTickState{tick: 5, ok: true}
	a := New(stores, zaptest.NewLogger(t), WithTickFallback(reader))
	require.NoError(t, a.Handle(context.Background(), mint(1, 0, 10, "42"), testPool, 12369740))
	require.True(t, liquidity(stores).Equal(decimal.NewFromInt(42)))
	require.Equal(t, []uint64{12369739}, reader.blocks)
}

func TestSwapIsIgnored(t *testing.T) {
	a, stores := newAggregator(t)
	swap := model.Event{Kind: model.EventSwap, PoolAddress: poolAddr, Swap: &model.SwapEventData{}}
	require.NoError(t, a.Handle(context.Background(), swap, testPool, 1))
	require.Empty(t, stores.Liquidity.Commit())
}
