package dex

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"priceScope/internal/model"
)

// V3Decoder decodes Uniswap V3 factory and pool events.
type V3Decoder struct {
	factoryABI  abi.ABI
	poolABI     abi.ABI
	topicToName map[string]string
}

// NewV3Decoder builds a decoder for every supported factory and pool event.
func NewV3Decoder() (*V3Decoder, error) {
	factoryABI, err := V3FactoryABI()
	if err != nil {
		return nil, fmt.Errorf("parse factory abi: %w", err)
	}
	poolABI, err := V3PoolABI()
	if err != nil {
		return nil, fmt.Errorf("parse pool abi: %w", err)
	}

	topicToName := make(map[string]string)
	for _, name := range []string{EventPoolCreated, EventFeeAmountEnabled} {
		topicToName[strings.ToLower(factoryABI.Events[name].ID.Hex())] = name
	}
	for _, name := range []string{EventInitialize, EventSwap, EventMint, EventBurn, EventFlash} {
		topicToName[strings.ToLower(poolABI.Events[name].ID.Hex())] = name
	}

	return &V3Decoder{
		factoryABI:  factoryABI,
		poolABI:     poolABI,
		topicToName: topicToName,
	}, nil
}

// Topics returns the topic0 of every decodable event, sorted by event name.
func (d *V3Decoder) Topics() []common.Hash {
	out := make([]common.Hash, 0, len(d.topicToName))
	for _, name := range []string{EventPoolCreated, EventFeeAmountEnabled, EventInitialize, EventSwap, EventMint, EventBurn, EventFlash} {
		if ev, ok := d.factoryABI.Events[name]; ok {
			out = append(out, ev.ID)
			continue
		}
		out = append(out, d.poolABI.Events[name].ID)
	}
	return out
}

// CanDecode checks if the topic0 is supported.
func (d *V3Decoder) CanDecode(topic0 string) bool {
	if topic0 == "" {
		return false
	}
	_, ok := d.topicToName[strings.ToLower(topic0)]
	return ok
}

// Decode converts a raw log into its typed payload.
func (d *V3Decoder) Decode(log model.Log) (model.DecodedLog, error) {
	if len(log.Topics) == 0 {
		return model.DecodedLog{}, fmt.Errorf("missing topics")
	}
	name, ok := d.topicToName[log.Topic0()]
	if !ok {
		return model.DecodedLog{}, fmt.Errorf("unsupported topic0: %s", log.Topics[0])
	}

	var (
		payload interface{}
		err     error
	)
	switch name {
	case EventPoolCreated:
		payload, err = d.decodePoolCreated(log)
	case EventFeeAmountEnabled:
		payload, err = d.decodeFeeAmountEnabled(log)
	case EventInitialize:
		payload, err = d.decodeInitialize(log)
	case EventSwap:
		payload, err = d.decodeSwap(log)
	case EventMint:
		payload, err = d.decodeMint(log)
	case EventBurn:
		payload, err = d.decodeBurn(log)
	case EventFlash:
		payload, err = d.decodeFlash(log)
	default:
		return model.DecodedLog{}, fmt.Errorf("unsupported event name: %s", name)
	}
	if err != nil {
		return model.DecodedLog{}, fmt.Errorf("decode %s: %w", name, err)
	}
	return model.DecodedLog{Name: name, Payload: payload}, nil
}

func (d *V3Decoder) decodePoolCreated(log model.Log) (model.PoolCreatedEventData, error) {
	event := d.factoryABI.Events[EventPoolCreated]
	var indexed struct {
		Token0 common.Address
		Token1 common.Address
		Fee    *big.Int
	}
	if err := parseIndexed(event, log.Topics, &indexed); err != nil {
		return model.PoolCreatedEventData{}, err
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.PoolCreatedEventData{}, err
	}
	if len(values) != 2 {
		return model.PoolCreatedEventData{}, fmt.Errorf("unexpected pool created values: %d", len(values))
	}
	spacingInt, err := asBigInt(values[0])
	if err != nil {
		return model.PoolCreatedEventData{}, err
	}
	tickSpacing, err := int24FromBig(spacingInt)
	if err != nil {
		return model.PoolCreatedEventData{}, err
	}
	pool, err := asAddress(values[1])
	if err != nil {
		return model.PoolCreatedEventData{}, err
	}
	fee, err := uint24FromBig(indexed.Fee)
	if err != nil {
		return model.PoolCreatedEventData{}, err
	}

	return model.PoolCreatedEventData{
		Token0:      model.HexAddress(indexed.Token0),
		Token1:      model.HexAddress(indexed.Token1),
		Fee:         fee,
		TickSpacing: tickSpacing,
		Pool:        model.HexAddress(pool),
	}, nil
}

func (d *V3Decoder) decodeFeeAmountEnabled(log model.Log) (model.FeeAmountEnabledEventData, error) {
	event := d.factoryABI.Events[EventFeeAmountEnabled]
	var indexed struct {
		Fee         *big.Int
		TickSpacing *big.Int
	}
	if err := parseIndexed(event, log.Topics, &indexed); err != nil {
		return model.FeeAmountEnabledEventData{}, err
	}
	fee, err := uint24FromBig(indexed.Fee)
	if err != nil {
		return model.FeeAmountEnabledEventData{}, err
	}
	tickSpacing, err := int24FromBig(indexed.TickSpacing)
	if err != nil {
		return model.FeeAmountEnabledEventData{}, err
	}
	return model.FeeAmountEnabledEventData{Fee: fee, TickSpacing: tickSpacing}, nil
}

func (d *V3Decoder) decodeInitialize(log model.Log) (model.InitializeEventData, error) {
	event := d.poolABI.Events[EventInitialize]
	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.InitializeEventData{}, err
	}
	if len(values) != 2 {
		return model.InitializeEventData{}, fmt.Errorf("unexpected initialize values: %d", len(values))
	}
	sqrtPrice, err := asString(values[0])
	if err != nil {
		return model.InitializeEventData{}, err
	}
	tickInt, err := asBigInt(values[1])
	if err != nil {
		return model.InitializeEventData{}, err
	}
	tick, err := int24FromBig(tickInt)
	if err != nil {
		return model.InitializeEventData{}, err
	}
	return model.InitializeEventData{SqrtPriceX96: sqrtPrice, Tick: tick}, nil
}

func (d *V3Decoder) decodeSwap(log model.Log) (model.SwapEventData, error) {
	event := d.poolABI.Events[EventSwap]
	var indexed struct {
		Sender    common.Address
		Recipient common.Address
	}
	if err := parseIndexed(event, log.Topics, &indexed); err != nil {
		return model.SwapEventData{}, err
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.SwapEventData{}, err
	}
	if len(values) != 5 {
		return model.SwapEventData{}, fmt.Errorf("unexpected swap values: %d", len(values))
	}

	amounts := make([]string, 4)
	for i := range amounts {
		if amounts[i], err = asString(values[i]); err != nil {
			return model.SwapEventData{}, err
		}
	}
	tickInt, err := asBigInt(values[4])
	if err != nil {
		return model.SwapEventData{}, err
	}
	tick, err := int24FromBig(tickInt)
	if err != nil {
		return model.SwapEventData{}, err
	}

	return model.SwapEventData{
		Sender:       model.HexAddress(indexed.Sender),
		Recipient:    model.HexAddress(indexed.Recipient),
		Amount0:      amounts[0],
		Amount1:      amounts[1],
		SqrtPriceX96: amounts[2],
		Liquidity:    amounts[3],
		Tick:         tick,
	}, nil
}

type positionTopics struct {
	Owner     common.Address
	TickLower *big.Int
	TickUpper *big.Int
}

func (p positionTopics) ticks() (int32, int32, error) {
	lower, err := int24FromBig(p.TickLower)
	if err != nil {
		return 0, 0, err
	}
	upper, err := int24FromBig(p.TickUpper)
	if err != nil {
		return 0, 0, err
	}
	return lower, upper, nil
}

func (d *V3Decoder) decodeMint(log model.Log) (model.MintEventData, error) {
	event := d.poolABI.Events[EventMint]
	var indexed positionTopics
	if err := parseIndexed(event, log.Topics, &indexed); err != nil {
		return model.MintEventData{}, err
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.MintEventData{}, err
	}
	if len(values) != 4 {
		return model.MintEventData{}, fmt.Errorf("unexpected mint values: %d", len(values))
	}

	sender, err := asAddress(values[0])
	if err != nil {
		return model.MintEventData{}, err
	}
	amounts := make([]string, 3)
	for i := range amounts {
		if amounts[i], err = asString(values[i+1]); err != nil {
			return model.MintEventData{}, err
		}
	}
	tickLower, tickUpper, err := indexed.ticks()
	if err != nil {
		return model.MintEventData{}, err
	}

	return model.MintEventData{
		Sender:    model.HexAddress(sender),
		Owner:     model.HexAddress(indexed.Owner),
		TickLower: tickLower,
		TickUpper: tickUpper,
		Amount:    amounts[0],
		Amount0:   amounts[1],
		Amount1:   amounts[2],
	}, nil
}

func (d *V3Decoder) decodeBurn(log model.Log) (model.BurnEventData, error) {
	event := d.poolABI.Events[EventBurn]
	var indexed positionTopics
	if err := parseIndexed(event, log.Topics, &indexed); err != nil {
		return model.BurnEventData{}, err
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.BurnEventData{}, err
	}
	if len(values) != 3 {
		return model.BurnEventData{}, fmt.Errorf("unexpected burn values: %d", len(values))
	}

	amounts := make([]string, 3)
	for i := range amounts {
		if amounts[i], err = asString(values[i]); err != nil {
			return model.BurnEventData{}, err
		}
	}
	tickLower, tickUpper, err := indexed.ticks()
	if err != nil {
		return model.BurnEventData{}, err
	}

	return model.BurnEventData{
		Owner:     model.HexAddress(indexed.Owner),
		TickLower: tickLower,
		TickUpper: tickUpper,
		Amount:    amounts[0],
		Amount0:   amounts[1],
		Amount1:   amounts[2],
	}, nil
}

func (d *V3Decoder) decodeFlash(log model.Log) (model.FlashEventData, error) {
	event := d.poolABI.Events[EventFlash]
	var indexed struct {
		Sender    common.Address
		Recipient common.Address
	}
	if err := parseIndexed(event, log.Topics, &indexed); err != nil {
		return model.FlashEventData{}, err
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.FlashEventData{}, err
	}
	if len(values) != 4 {
		return model.FlashEventData{}, fmt.Errorf("unexpected flash values: %d", len(values))
	}
	amounts := make([]string, 4)
	for i := range amounts {
		if amounts[i], err = asString(values[i]); err != nil {
			return model.FlashEventData{}, err
		}
	}

	return model.FlashEventData{
		Sender:    model.HexAddress(indexed.Sender),
		Recipient: model.HexAddress(indexed.Recipient),
		Amount0:   amounts[0],
		Amount1:   amounts[1],
		Paid0:     amounts[2],
		Paid1:     amounts[3],
	}, nil
}

func parseIndexed(event abi.Event, topics []string, out interface{}) error {
	indexedTopics, err := parseIndexedTopics(event, topics)
	if err != nil {
		return err
	}
	if err := abi.ParseTopics(out, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return fmt.Errorf("parse topics: %w", err)
	}
	return nil
}

func parseIndexedTopics(event abi.Event, topics []string) ([]common.Hash, error) {
	indexedCount := len(indexedArguments(event.Inputs))
	if len(topics) != indexedCount+1 {
		return nil, fmt.Errorf("expected %d topics, got %d", indexedCount+1, len(topics))
	}
	out := make([]common.Hash, 0, indexedCount)
	for _, topic := range topics[1:] {
		data, err := hexutil.Decode(topic)
		if err != nil {
			return nil, fmt.Errorf("invalid topic: %w", err)
		}
		if len(data) > 32 {
			return nil, fmt.Errorf("topic length %d", len(data))
		}
		out = append(out, common.BytesToHash(data))
	}
	return out, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func unpackNonIndexed(event abi.Event, dataHex string) ([]interface{}, error) {
	if dataHex == "" {
		dataHex = "0x"
	}
	data, err := hexutil.Decode(dataHex)
	if err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}
	values, err := event.Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	return values, nil
}
