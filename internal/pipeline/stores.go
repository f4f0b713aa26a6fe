package pipeline

import "priceScope/internal/store"

// Store names, also used as sink table and bucket names.
const (
	StorePools         = "pools"
	StoreTokens        = "tokens"
	StoreWhitelist     = "whitelist"
	StorePoolInits     = "pool_inits"
	StoreSqrtPrices    = "sqrt_prices"
	StoreSwaps         = "swaps"
	StoreTicks         = "ticks"
	StoreLiquidity     = "liquidity"
	StorePrices        = "prices"
	StoreDerivedPrices = "derived_prices"
	StoreFees          = "fees"
	StoreFlashes       = "flashes"
)

// Stores holds every named store written by a pass.
type Stores struct {
	Pools         *store.Store
	Tokens        *store.Store
	Whitelist     *store.Store
	PoolInits     *store.Store
	SqrtPrices    *store.Store
	Swaps         *store.Store
	Ticks         *store.Store
	Liquidity     *store.Store
	Prices        *store.Store
	DerivedPrices *store.Store
	Fees          *store.Store
	Flashes       *store.Store

	set *store.Set
}

// NewStores creates the stores in the order their deltas are published
// when several share an ordinal.
func NewStores() *Stores {
	s := &Stores{
		Pools:         store.New(StorePools, store.PolicySet),
		Tokens:        store.New(StoreTokens, store.PolicySet),
		Whitelist:     store.New(StoreWhitelist, store.PolicyAppend),
		PoolInits:     store.New(StorePoolInits, store.PolicySet),
		SqrtPrices:    store.New(StoreSqrtPrices, store.PolicySet),
		Swaps:         store.New(StoreSwaps, store.PolicySet),
		Ticks:         store.New(StoreTicks, store.PolicySet),
		Liquidity:     store.New(StoreLiquidity, store.PolicyAdd),
		Prices:        store.New(StorePrices, store.PolicySet),
		DerivedPrices: store.New(StoreDerivedPrices, store.PolicySet),
		Fees:          store.New(StoreFees, store.PolicySet),
		Flashes:       store.New(StoreFlashes, store.PolicySet),
	}
	s.set = store.NewSet(
		s.Pools, s.Tokens, s.Whitelist, s.PoolInits, s.SqrtPrices, s.Swaps,
		s.Ticks, s.Liquidity, s.Prices, s.DerivedPrices, s.Fees, s.Flashes,
	)
	return s
}

func (s *Stores) Set() *store.Set { return s.set }
