// Package mapper turns a block's logs into ordered domain events.
package mapper

import (
	"fmt"

	"go.uber.org/zap"

	"priceScope/internal/dex"
	"priceScope/internal/model"
)

// DefaultFactory is the Uniswap V3 factory on Ethereum mainnet.
const DefaultFactory = "1f98431c8ad98523631ae4a59f267346ea31f984"

// PoolLookup resolves pools registered so far, including earlier in the same block.
type PoolLookup interface {
	Pool(address string) (model.Pool, bool)
}

// Handler consumes one event. It runs before the next log is mapped, so
// pools it registers are visible to later logs of the same block.
type Handler func(model.BlockEvent) error

// Mapper decodes logs and dispatches events in ordinal order.
type Mapper struct {
	decoder dex.Decoder
	factory string
	pools   PoolLookup
	logger  *zap.Logger
}

func New(decoder dex.Decoder, factory string, pools PoolLookup, logger *zap.Logger) *Mapper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if factory == "" {
		factory = DefaultFactory
	}
	return &Mapper{
		decoder: decoder,
		factory: model.NormalizeAddress(factory),
		pools:   pools,
		logger:  logger,
	}
}

// Map walks the block's non-reverted logs by ordinal and calls handle for each event.
// A swap, mint or burn on an unregistered pool returns a *model.DataIntegrityError.
func (m *Mapper) Map(block model.Block, handle Handler) error {
	for _, lg := range block.OrderedLogs() {
		if !m.decoder.CanDecode(lg.Topic0()) {
			continue
		}
		decoded, err := m.decoder.Decode(lg.Log)
		if err != nil {
			m.logger.Warn("skipping undecodable log",
				zap.Uint64("block", block.Number),
				zap.String("tx_hash", lg.TxHash),
				zap.Uint64("ordinal", lg.Ordinal),
				zap.String("address", lg.Address),
				zap.Error(err),
			)
			continue
		}

		events, err := m.events(block, lg, decoded)
		if err != nil {
			return err
		}
		for _, ev := range events {
			if err := handle(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Mapper) events(block model.Block, lg model.TracedLog, decoded model.DecodedLog) ([]model.BlockEvent, error) {
	address := model.NormalizeAddress(lg.Address)
	base := model.BlockEvent{Ordinal: lg.Ordinal, BlockNumber: block.Number, TxHash: lg.TxHash}

	switch payload := decoded.Payload.(type) {
	case model.PoolCreatedEventData:
		if address != m.factory {
			return nil, nil
		}
		ev := base
		ev.Kind = model.KindPoolCreated
		ev.PoolCreated = &payload
		return []model.BlockEvent{ev}, nil

	case model.FeeAmountEnabledEventData:
		ev := base
		ev.Kind = model.KindFeeAmountEnabled
		ev.Fee = &model.Fee{Fee: payload.Fee, TickSpacing: payload.TickSpacing}
		return []model.BlockEvent{ev}, nil

	case model.InitializeEventData:
		initEv := base
		initEv.Kind = model.KindPoolInitialized
		initEv.Initialization = &model.PoolInitialization{
			PoolAddress:   address,
			TransactionID: lg.TxHash,
			InitializedAt: block.Timestamp,
			SqrtPrice:     payload.SqrtPriceX96,
			Tick:          payload.Tick,
			LogOrdinal:    lg.Ordinal,
		}
		update := base
		update.Kind = model.KindSqrtPriceUpdate
		update.SqrtPrice = &model.SqrtPriceUpdate{
			PoolAddress: address,
			Ordinal:     lg.Ordinal,
			SqrtPrice:   payload.SqrtPriceX96,
			Tick:        payload.Tick,
		}
		return []model.BlockEvent{initEv, update}, nil

	case model.SwapEventData:
		pool, err := m.requirePool(block, lg, address, dex.EventSwap)
		if err != nil {
			return nil, err
		}
		ev := base
		ev.Kind = model.KindPoolEvent
		ev.PoolEvent = poolEvent(block, lg, pool, model.EventSwap)
		ev.PoolEvent.Swap = &payload
		update := base
		update.Kind = model.KindSqrtPriceUpdate
		update.SqrtPrice = &model.SqrtPriceUpdate{
			PoolAddress: address,
			Ordinal:     lg.Ordinal,
			SqrtPrice:   payload.SqrtPriceX96,
			Tick:        payload.Tick,
		}
		return []model.BlockEvent{ev, update}, nil

	case model.MintEventData:
		pool, err := m.requirePool(block, lg, address, dex.EventMint)
		if err != nil {
			return nil, err
		}
		ev := base
		ev.Kind = model.KindPoolEvent
		ev.PoolEvent = poolEvent(block, lg, pool, model.EventMint)
		ev.PoolEvent.Mint = &payload
		return []model.BlockEvent{ev}, nil

	case model.BurnEventData:
		pool, err := m.requirePool(block, lg, address, dex.EventBurn)
		if err != nil {
			return nil, err
		}
		ev := base
		ev.Kind = model.KindPoolEvent
		ev.PoolEvent = poolEvent(block, lg, pool, model.EventBurn)
		ev.PoolEvent.Burn = &payload
		return []model.BlockEvent{ev}, nil

	case model.FlashEventData:
		ev := base
		ev.Kind = model.KindFlash
		ev.Flash = &model.Flash{
			PoolAddress:   address,
			TransactionID: lg.TxHash,
			Sender:        payload.Sender,
			Recipient:     payload.Recipient,
			Amount0:       payload.Amount0,
			Amount1:       payload.Amount1,
			Paid0:         payload.Paid0,
			Paid1:         payload.Paid1,
			LogOrdinal:    lg.Ordinal,
		}
		return []model.BlockEvent{ev}, nil
	}

	return nil, fmt.Errorf("unexpected payload %T for %s", decoded.Payload, decoded.Name)
}

func (m *Mapper) requirePool(block model.Block, lg model.TracedLog, address, name string) (model.Pool, error) {
	pool, ok := m.pools.Pool(address)
	if !ok {
		return model.Pool{}, &model.DataIntegrityError{
			BlockNumber: block.Number,
			Ordinal:     lg.Ordinal,
			Reason:      fmt.Sprintf("%s in tx %s references unregistered pool %s", name, lg.TxHash, address),
		}
	}
	return pool, nil
}

func poolEvent(block model.Block, lg model.TracedLog, pool model.Pool, kind model.EventKind) *model.Event {
	return &model.Event{
		Kind:          kind,
		PoolAddress:   pool.Address,
		Token0:        pool.Token0.Address,
		Token1:        pool.Token1.Address,
		Fee:           pool.Fee,
		TransactionID: lg.TxHash,
		Timestamp:     block.Timestamp,
		LogOrdinal:    lg.Ordinal,
	}
}
