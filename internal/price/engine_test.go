package price

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"priceScope/internal/keys"
	"priceScope/internal/model"
	"priceScope/internal/store"
)

const (
	wbtc        = "2260fac5e5542a773aa44fbcfedf7c193bc2c599"
	wbtcWeth    = "cbcdf9626bc03e24f779434178a73a0b4bad62ed"
	wbtcUsdc    = "99ac8ca7087fa4a2a1fb6357269965a2014abc35"
	usdcWethPos = UsdcWeth03Pool
)

type fakePools struct {
	pools     map[string]model.Pool
	whitelist map[string][]string
}

func (f fakePools) Pool(addr string) (model.Pool, bool) {
	p, ok := f.pools[addr]
	return p, ok
}

func (f fakePools) WhitelistPools(token string) []string { return f.whitelist[token] }

func newTestEngine(t *testing.T, pools fakePools) (*Engine, Stores) {
	t.Helper()
	stores := Stores{
		Liquidity:     store.New("liquidity", store.PolicyAdd),
		Prices:        store.New("prices", store.PolicySet),
		DerivedPrices: store.New("derived_prices", store.PolicySet),
	}
	return NewEngine(pools, stores, zaptest.NewLogger(t)), stores
}

func token(addr string, decimals uint8) model.Erc20Token {
	return model.Erc20Token{Address: addr, Decimals: decimals}
}

func TestFindEthPerTokenWeth(t *testing.T) {
	e, _ := newTestEngine(t, fakePools{})
	require.True(t, e.FindEthPerToken(1, WethAddress).Equal(decimal.NewFromInt(1)))
}

func TestFindEthPerTokenStableCoin(t *testing.T) {
	e, stores := newTestEngine(t, fakePools{})
	require.True(t, e.FindEthPerToken(1, UsdcAddress).IsZero())

	key := keys.PoolPrice(usdcWethPos, WethAddress).String()
	require.NoError(t, stores.Prices.Set(5, key, []byte("2000")))

	require.True(t, e.FindEthPerToken(4, UsdcAddress).IsZero())
	got := e.FindEthPerToken(5, UsdcAddress)
	require.True(t, got.Equal(decimal.RequireFromString("0.0005")), got.String())
}

func TestFindEthPerTokenPicksLargestWhitelistPool(t *testing.T) {
	pools := fakePools{
		pools: map[string]model.Pool{
			wbtcWeth: {Address: wbtcWeth, Token0: token(wbtc, 8), Token1: token(WethAddress, 18)},
			wbtcUsdc: {Address: wbtcUsdc, Token0: token(wbtc, 8), Token1: token(UsdcAddress, 6)},
		},
		whitelist: map[string][]string{wbtc: {wbtcUsdc, wbtcWeth}},
	}
	e, stores := newTestEngine(t, pools)

	for _, p := range []string{wbtcWeth, wbtcUsdc} {
		require.NoError(t, stores.Liquidity.Add(1, keys.Liquidity(p).String(), decimal.NewFromInt(1000)))
	}
	require.NoError(t, stores.Liquidity.Add(1, keys.AmountLocked(wbtcWeth, WethAddress).String(), decimal.NewFromInt(100)))
	require.NoError(t, stores.Liquidity.Add(1, keys.AmountLocked(wbtcUsdc, UsdcAddress).String(), decimal.NewFromInt(1000000)))

	require.NoError(t, stores.Prices.Set(2, keys.PoolPrice(wbtcWeth, wbtc).String(), []byte("15")))
	require.NoError(t, stores.Prices.Set(2, keys.PoolPrice(wbtcUsdc, wbtc).String(), []byte("30000")))
	// 1,000,000 USDC at 0.0001 ETH each is 100 ETH; ties keep the first pool evaluated.
	require.NoError(t, stores.Prices.Set(2, keys.Price(UsdcAddress, WethAddress).String(), []byte("0.0001")))

	got := e.FindEthPerToken(3, wbtc)
	require.True(t, got.Equal(decimal.NewFromInt(3000000)), got.String())

	// The WETH pool wins once it holds more ETH.
	require.NoError(t, stores.Liquidity.Add(4, keys.AmountLocked(wbtcWeth, WethAddress).String(), decimal.NewFromInt(50)))
	got = e.FindEthPerToken(5, wbtc)
	require.True(t, got.Equal(decimal.NewFromInt(15*150)), got.String())
}

func TestFindEthPerTokenBelowFloorIsZero(t *testing.T) {
	pools := fakePools{
		pools:     map[string]model.Pool{wbtcWeth: {Address: wbtcWeth, Token0: token(wbtc, 8), Token1: token(WethAddress, 18)}},
		whitelist: map[string][]string{wbtc: {wbtcWeth}},
	}
	e, stores := newTestEngine(t, pools)
	require.NoError(t, stores.Liquidity.Add(1, keys.Liquidity(wbtcWeth).String(), decimal.NewFromInt(1000)))
	require.NoError(t, stores.Liquidity.Add(1, keys.AmountLocked(wbtcWeth, WethAddress).String(), decimal.NewFromInt(60)))
	require.NoError(t, stores.Prices.Set(2, keys.PoolPrice(wbtcWeth, wbtc).String(), []byte("15")))

	require.True(t, e.FindEthPerToken(3, wbtc).IsZero())
}

func TestFindEthPerTokenSkipsPoolsWithoutLiquidity(t *testing.T) {
	pools := fakePools{
		pools:     map[string]model.Pool{wbtcWeth: {Address: wbtcWeth, Token0: token(wbtc, 8), Token1: token(WethAddress, 18)}},
		whitelist: map[string][]string{wbtc: {wbtcWeth}},
	}
	e, stores := newTestEngine(t, pools)
	require.NoError(t, stores.Liquidity.Add(1, keys.AmountLocked(wbtcWeth, WethAddress).String(), decimal.NewFromInt(500)))
	require.NoError(t, stores.Prices.Set(2, keys.PoolPrice(wbtcWeth, wbtc).String(), []byte("15")))

	require.True(t, e.FindEthPerToken(3, wbtc).IsZero())
}

func TestApplySqrtPriceUpdateWritesBothDirections(t *testing.T) {
	pool := model.Pool{Address: usdcWethPos, Token0: token(UsdcAddress, 6), Token1: token(WethAddress, 18)}
	pools := fakePools{pools: map[string]model.Pool{usdcWethPos: pool}}
	e, stores := newTestEngine(t, pools)

	// sqrt(1/2000 * 1e12) * 2^96 prices ETH near 2000 USDC.
	update := model.SqrtPriceUpdate{
		PoolAddress: usdcWethPos,
		Ordinal:     7,
		SqrtPrice:   "1771595571142957166518320255467520",
	}
	require.NoError(t, e.ApplySqrtPriceUpdate(update, pool))

	ethUsd, ok := stores.Prices.GetAtDecimal(7, keys.PoolPrice(usdcWethPos, WethAddress).String())
	require.True(t, ok)
	require.True(t, ethUsd.Sub(decimal.NewFromInt(2000)).Abs().LessThan(decimal.NewFromInt(1)), ethUsd.String())

	usdcInWeth, ok := stores.Prices.GetAtDecimal(7, keys.Price(UsdcAddress, WethAddress).String())
	require.True(t, ok)
	require.True(t, usdcInWeth.Mul(ethUsd).Sub(decimal.NewFromInt(1)).Abs().LessThan(decimal.New(1, -20)))

	bundle, ok := stores.Prices.GetLastDecimal(keys.BundleEthUSD().String())
	require.True(t, ok)
	require.True(t, bundle.Equal(ethUsd))

	usdcEth, ok := stores.DerivedPrices.GetLastDecimal(keys.DerivedEthPrice(UsdcAddress).String())
	require.True(t, ok)
	require.True(t, usdcEth.Mul(ethUsd).Sub(decimal.NewFromInt(1)).Abs().LessThan(decimal.New(1, -20)))

	wethEth, _ := stores.DerivedPrices.GetLastDecimal(keys.DerivedEthPrice(WethAddress).String())
	require.True(t, wethEth.Equal(decimal.NewFromInt(1)))
}
