// Package ticks records tick boundary prices for minted positions.
package ticks

import (
	"encoding/json"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"priceScope/internal/keys"
	"priceScope/internal/model"
	"priceScope/internal/price"
	"priceScope/internal/store"
)

// Store writes Tick records. Boundaries are written once and never updated.
type Store struct {
	ticks  *store.Store
	logger *zap.Logger
}

func New(ticks *store.Store, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{ticks: ticks, logger: logger}
}

// HandleMint records both boundaries of a mint. Other events are ignored.
func (s *Store) HandleMint(ev model.Event) error {
	if ev.Kind != model.EventMint || ev.Mint == nil {
		return nil
	}
	for _, idx := range []int32{ev.Mint.TickLower, ev.Mint.TickUpper} {
		if err := s.record(ev.LogOrdinal, ev.PoolAddress, idx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) record(ordinal uint64, pool string, idx int32) error {
	key := keys.Tick(idx, pool).String()
	if _, ok := s.ticks.GetLast(key); ok {
		return nil
	}
	price0, price1, err := price.TickPrices(idx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(model.Tick{
		PoolAddress: pool,
		Idx:         strconv.FormatInt(int64(idx), 10),
		Price0:      price0.String(),
		Price1:      price1.String(),
	})
	if err != nil {
		return fmt.Errorf("encode tick %d: %w", idx, err)
	}
	s.logger.Debug("tick recorded", zap.String("pool", pool), zap.Int32("tick", idx))
	return s.ticks.Set(ordinal, key, raw)
}

// Tick returns the stored boundary.
func (s *Store) Tick(pool string, idx int32) (model.Tick, bool) {
	raw, ok := s.ticks.GetLast(keys.Tick(idx, pool).String())
	if !ok {
		return model.Tick{}, false
	}
	var t model.Tick
	if err := json.Unmarshal(raw, &t); err != nil {
		return model.Tick{}, false
	}
	return t, true
}
