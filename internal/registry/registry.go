// Package registry records pools created by the factory together with their tokens.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"priceScope/internal/chain"
	"priceScope/internal/keys"
	"priceScope/internal/model"
	"priceScope/internal/price"
	"priceScope/internal/store"
)

// Stores are the stores owned by the registry.
type Stores struct {
	Pools     *store.Store
	Tokens    *store.Store
	Whitelist *store.Store
}

type resolution struct {
	token model.Erc20Token
	ok    bool
}

// TokenCache memoizes token resolution for one block pass, failures included.
type TokenCache struct {
	entries map[string]resolution
}

func NewTokenCache() *TokenCache {
	return &TokenCache{entries: make(map[string]resolution)}
}

// Registry validates and persists pools.
type Registry struct {
	resolver chain.TokenResolver
	stores   Stores
	logger   *zap.Logger

	onDropped func()
}

// Option configures a Registry.
type Option func(*Registry)

// WithDroppedHook runs fn each time a pool is discarded for an unresolvable token.
func WithDroppedHook(fn func()) Option {
	return func(r *Registry) { r.onDropped = fn }
}

func New(resolver chain.TokenResolver, stores Stores, logger *zap.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{resolver: resolver, stores: stores, logger: logger, onDropped: func() {}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HandlePoolCreated registers a pool when both of its tokens resolve.
// It returns nil, nil when the pool is discarded.
func (r *Registry) HandlePoolCreated(ctx context.Context, cache *TokenCache, ev model.BlockEvent) (*model.Pool, error) {
	created := ev.PoolCreated
	if created == nil {
		return nil, fmt.Errorf("pool created event without payload at ordinal %d", ev.Ordinal)
	}

	token0, ok0, err := r.resolve(ctx, cache, created.Token0, ev.BlockNumber)
	if err != nil {
		return nil, err
	}
	token1, ok1, err := r.resolve(ctx, cache, created.Token1, ev.BlockNumber)
	if err != nil {
		return nil, err
	}
	if !ok0 || !ok1 {
		r.logger.Warn("dropping pool with unresolvable token",
			zap.String("pool", created.Pool),
			zap.String("token0", created.Token0),
			zap.String("token1", created.Token1),
			zap.Bool("token0_ok", ok0),
			zap.Bool("token1_ok", ok1),
		)
		r.onDropped()
		return nil, nil
	}

	pool := model.Pool{
		Address:               created.Pool,
		Token0:                token0,
		Token1:                token1,
		Fee:                   created.Fee,
		TickSpacing:           created.TickSpacing,
		CreationTransactionID: ev.TxHash,
		BlockNum:              ev.BlockNumber,
		LogOrdinal:            ev.Ordinal,
	}
	raw, err := json.Marshal(pool)
	if err != nil {
		return nil, fmt.Errorf("encode pool %s: %w", pool.Address, err)
	}
	if err := r.stores.Pools.Set(ev.Ordinal, keys.Pool(pool.Address).String(), raw); err != nil {
		return nil, err
	}
	if err := r.stores.Pools.Set(ev.Ordinal, keys.TokenPair(token0.Address, token1.Address).String(), raw); err != nil {
		return nil, err
	}

	for _, token := range []model.Erc20Token{token0, token1} {
		if err := r.persistToken(ev.Ordinal, token, pool.Address); err != nil {
			return nil, err
		}
	}

	r.logger.Debug("pool registered",
		zap.String("pool", pool.Address),
		zap.String("token0", token0.Symbol),
		zap.String("token1", token1.Symbol),
		zap.Uint32("fee", pool.Fee),
	)
	return &pool, nil
}

func (r *Registry) persistToken(ordinal uint64, token model.Erc20Token, pool string) error {
	key := keys.Token(token.Address).String()
	if _, ok := r.stores.Tokens.GetLast(key); !ok {
		raw, err := json.Marshal(token)
		if err != nil {
			return fmt.Errorf("encode token %s: %w", token.Address, err)
		}
		if err := r.stores.Tokens.Set(ordinal, key, raw); err != nil {
			return err
		}
	}
	if !price.IsWhitelisted(token.Address) {
		return nil
	}
	wlKey := keys.TokenWhitelist(token.Address).String()
	for _, existing := range r.stores.Whitelist.GetLastList(wlKey) {
		if existing == pool {
			return nil
		}
	}
	return r.stores.Whitelist.Append(ordinal, wlKey, pool)
}

// resolve looks the token up in the pass cache, then the token store, then chain.
func (r *Registry) resolve(ctx context.Context, cache *TokenCache, address string, blockNumber uint64) (model.Erc20Token, bool, error) {
	if res, ok := cache.entries[address]; ok {
		return res.token, res.ok, nil
	}
	if token, ok := r.Token(address); ok {
		token.WhitelistPools = nil
		cache.entries[address] = resolution{token: token, ok: true}
		return token, true, nil
	}

	token, err := r.resolver.ResolveErc20(ctx, address, blockNumber)
	switch {
	case err == nil:
		cache.entries[address] = resolution{token: token, ok: true}
		return token, true, nil
	case errors.Is(err, chain.ErrTokenNotFound):
		cache.entries[address] = resolution{}
		return model.Erc20Token{}, false, nil
	default:
		return model.Erc20Token{}, false, fmt.Errorf("resolve token %s: %w", address, err)
	}
}

// Pool returns the registered pool at address.
func (r *Registry) Pool(address string) (model.Pool, bool) {
	raw, ok := r.stores.Pools.GetLast(keys.Pool(address).String())
	if !ok {
		return model.Pool{}, false
	}
	var p model.Pool
	if err := json.Unmarshal(raw, &p); err != nil {
		r.logger.Warn("corrupt pool record", zap.String("pool", address), zap.Error(err))
		return model.Pool{}, false
	}
	return p, true
}

// Token returns the stored token with its whitelist pools.
func (r *Registry) Token(address string) (model.Erc20Token, bool) {
	raw, ok := r.stores.Tokens.GetLast(keys.Token(address).String())
	if !ok {
		return model.Erc20Token{}, false
	}
	var t model.Erc20Token
	if err := json.Unmarshal(raw, &t); err != nil {
		return model.Erc20Token{}, false
	}
	t.WhitelistPools = r.WhitelistPools(address)
	return t, true
}

// WhitelistPools lists, in registration order, the pools recorded for a whitelisted token.
func (r *Registry) WhitelistPools(token string) []string {
	return r.stores.Whitelist.GetLastList(keys.TokenWhitelist(token).String())
}
