package price

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"priceScope/internal/keys"
	"priceScope/internal/model"
	"priceScope/internal/store"
)

// PoolLookup resolves a registered pool by address.
type PoolLookup interface {
	Pool(address string) (model.Pool, bool)
	WhitelistPools(token string) []string
}

// Stores are the stores the engine reads and writes.
type Stores struct {
	Liquidity     *store.Store
	Prices        *store.Store
	DerivedPrices *store.Store
}

// Engine maintains spot prices and ETH-denominated token prices.
type Engine struct {
	pools  PoolLookup
	stores Stores
	logger *zap.Logger
}

func NewEngine(pools PoolLookup, stores Stores, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{pools: pools, stores: stores, logger: logger}
}

// ApplySqrtPriceUpdate recomputes the pool's spot prices, the ETH-USD bundle
// and both tokens' derived ETH prices at the update's ordinal.
func (e *Engine) ApplySqrtPriceUpdate(update model.SqrtPriceUpdate, pool model.Pool) error {
	sqrt, err := decimal.NewFromString(update.SqrtPrice)
	if err != nil {
		return fmt.Errorf("pool %s sqrt price %q: %w", pool.Address, update.SqrtPrice, err)
	}
	ord := update.Ordinal
	t0, t1 := pool.Token0.Address, pool.Token1.Address
	price0, price1 := SqrtPriceX96ToTokenPrices(sqrt, pool.Token0.Decimals, pool.Token1.Decimals)

	writes := []struct {
		key   keys.Key
		value decimal.Decimal
	}{
		{keys.Price(t0, t1), price1},
		{keys.Price(t1, t0), price0},
		{keys.PoolPrice(pool.Address, t0), price1},
		{keys.PoolPrice(pool.Address, t1), price0},
	}
	for _, w := range writes {
		if err := e.stores.Prices.Set(ord, w.key.String(), []byte(w.value.String())); err != nil {
			return err
		}
	}

	if err := e.stores.Prices.Set(ord, keys.BundleEthUSD().String(), []byte(e.EthPriceInUSD(ord).String())); err != nil {
		return err
	}

	for _, token := range []string{t0, t1} {
		eth := e.FindEthPerToken(ord, token)
		if err := e.stores.DerivedPrices.Set(ord, keys.DerivedEthPrice(token).String(), []byte(eth.String())); err != nil {
			return err
		}
	}
	return nil
}

// EthPriceInUSD reads WETH priced in USDC from the reference pool, or zero.
func (e *Engine) EthPriceInUSD(ordinal uint64) decimal.Decimal {
	p, _ := e.stores.Prices.GetAtDecimal(ordinal, keys.PoolPrice(UsdcWeth03Pool, WethAddress).String())
	return p
}

// FindEthPerToken derives how much ETH one unit of token is worth at ordinal.
//
// WETH is 1, stablecoins are the inverse of the ETH-USD price. Any other token
// is priced through the whitelist pool holding the most ETH, provided it
// holds more than MinimumEthLocked.
func (e *Engine) FindEthPerToken(ordinal uint64, token string) decimal.Decimal {
	if token == WethAddress {
		return decimal.NewFromInt(1)
	}
	if IsStableCoin(token) {
		return SafeDiv(decimal.NewFromInt(1), e.EthPriceInUSD(ordinal))
	}

	largest := decimal.Zero
	priceSoFar := decimal.Zero
	minimum := decimal.NewFromInt(MinimumEthLocked)

	for _, poolAddr := range e.pools.WhitelistPools(token) {
		pool, ok := e.pools.Pool(poolAddr)
		if !ok {
			continue
		}
		liquidity, _ := e.stores.Liquidity.GetLastDecimal(keys.Liquidity(poolAddr).String())
		if !liquidity.IsPositive() {
			continue
		}
		counterpart, ok := pool.Counterpart(token)
		if !ok {
			continue
		}

		native, _ := e.stores.Liquidity.GetLastDecimal(keys.AmountLocked(poolAddr, counterpart.Address).String())
		ethLocked := native
		if counterpart.Address != WethAddress {
			counterEth, ok := e.stores.Prices.GetAtDecimal(ordinal, keys.Price(counterpart.Address, WethAddress).String())
			if !ok {
				continue
			}
			ethLocked = native.Mul(counterEth)
		}

		// strict comparison: on an exact tie the earlier whitelist pool keeps the price
		if ethLocked.GreaterThan(largest) && ethLocked.GreaterThan(minimum) {
			tokenPrice, ok := e.stores.Prices.GetAtDecimal(ordinal, keys.PoolPrice(poolAddr, token).String())
			if !ok {
				continue
			}
			largest = ethLocked
			priceSoFar = tokenPrice.Mul(ethLocked)
		}
	}

	if priceSoFar.IsZero() {
		e.logger.Debug("no whitelist pool prices token", zap.String("token", token), zap.Uint64("ordinal", ordinal))
	}
	return priceSoFar
}
