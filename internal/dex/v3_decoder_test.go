package dex

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"priceScope/internal/model"
)

func TestV3DecoderSwap(t *testing.T) {
	poolABI, err := V3PoolABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewV3Decoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	pool := common.HexToAddress("0x1111111111111111111111111111111111111111")
	sender := common.HexToAddress("0x2222222222222222222222222222222222222222")
	recipient := common.HexToAddress("0x3333333333333333333333333333333333333333")

	data, err := poolABI.Events["Swap"].Inputs.NonIndexed().Pack(
		big.NewInt(-1000),
		big.NewInt(2000),
		big.NewInt(123456789),
		big.NewInt(987654321),
		big.NewInt(-15),
	)
	if err != nil {
		t.Fatalf("pack swap: %v", err)
	}

	log := buildLog(pool, poolABI.Events["Swap"].ID, data, []common.Hash{
		topicFromAddress(sender),
		topicFromAddress(recipient),
	})
	if !decoder.CanDecode(log.Topics[0]) {
		t.Fatalf("swap topic not recognized")
	}

	decoded, err := decoder.Decode(log)
	if err != nil {
		t.Fatalf("decode swap: %v", err)
	}
	if decoded.Name != EventSwap {
		t.Fatalf("name mismatch: %s", decoded.Name)
	}
	swap, ok := decoded.Payload.(model.SwapEventData)
	if !ok {
		t.Fatalf("decoded type mismatch")
	}
	if swap.Amount0 != "-1000" || swap.Amount1 != "2000" {
		t.Fatalf("amounts mismatch: %+v", swap)
	}
	if swap.SqrtPriceX96 != "123456789" || swap.Liquidity != "987654321" {
		t.Fatalf("price fields mismatch: %+v", swap)
	}
	if swap.Tick != -15 {
		t.Fatalf("tick mismatch: %d", swap.Tick)
	}
	if swap.Sender != "2222222222222222222222222222222222222222" || swap.Recipient != "3333333333333333333333333333333333333333" {
		t.Fatalf("address mismatch: %+v", swap)
	}
}

func TestV3DecoderMintBurn(t *testing.T) {
	poolABI, err := V3PoolABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewV3Decoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	pool := common.HexToAddress("0x9999999999999999999999999999999999999999")
	sender := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	owner := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

	mintData, err := poolABI.Events["Mint"].Inputs.NonIndexed().Pack(
		sender,
		big.NewInt(5000),
		big.NewInt(100),
		big.NewInt(200),
	)
	if err != nil {
		t.Fatalf("pack mint: %v", err)
	}
	mintLog := buildLog(pool, poolABI.Events["Mint"].ID, mintData, []common.Hash{
		topicFromAddress(owner),
		topicFromInt24(-120),
		topicFromInt24(120),
	})

	decoded, err := decoder.Decode(mintLog)
	if err != nil {
		t.Fatalf("decode mint: %v", err)
	}
	mint, ok := decoded.Payload.(model.MintEventData)
	if !ok {
		t.Fatalf("mint type mismatch")
	}
	if mint.TickLower != -120 || mint.TickUpper != 120 {
		t.Fatalf("mint tick mismatch: %+v", mint)
	}
	if mint.Amount != "5000" || mint.Amount0 != "100" || mint.Amount1 != "200" {
		t.Fatalf("mint amount mismatch: %+v", mint)
	}

	burnData, err := poolABI.Events["Burn"].Inputs.NonIndexed().Pack(
		big.NewInt(7000),
		big.NewInt(300),
		big.NewInt(400),
	)
	if err != nil {
		t.Fatalf("pack burn: %v", err)
	}
	burnLog := buildLog(pool, poolABI.Events["Burn"].ID, burnData, []common.Hash{
		topicFromAddress(owner),
		topicFromInt24(-60),
		topicFromInt24(60),
	})

	decoded, err = decoder.Decode(burnLog)
	if err != nil {
		t.Fatalf("decode burn: %v", err)
	}
	burn, ok := decoded.Payload.(model.BurnEventData)
	if !ok {
		t.Fatalf("burn type mismatch")
	}
	if burn.Amount != "7000" || burn.TickLower != -60 {
		t.Fatalf("burn mismatch: %+v", burn)
	}
}

func TestV3DecoderFactoryEvents(t *testing.T) {
	factoryABI, err := V3FactoryABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewV3Decoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	factory := common.HexToAddress("0x1F98431c8aD98523631AE4a59f267346ea31F984")
	usdc := common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	weth := common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	pool := common.HexToAddress("0x8ad599c3A0ff1De082011EFDDc58f1908eb6e6D8")

	data, err := factoryABI.Events["PoolCreated"].Inputs.NonIndexed().Pack(big.NewInt(60), pool)
	if err != nil {
		t.Fatalf("pack pool created: %v", err)
	}
	log := buildLog(factory, factoryABI.Events["PoolCreated"].ID, data, []common.Hash{
		topicFromAddress(usdc),
		topicFromAddress(weth),
		common.BigToHash(big.NewInt(3000)),
	})

	decoded, err := decoder.Decode(log)
	if err != nil {
		t.Fatalf("decode pool created: %v", err)
	}
	created, ok := decoded.Payload.(model.PoolCreatedEventData)
	if !ok {
		t.Fatalf("pool created type mismatch")
	}
	if created.Pool != "8ad599c3a0ff1de082011efddc58f1908eb6e6d8" {
		t.Fatalf("pool mismatch: %s", created.Pool)
	}
	if created.Token0 != "a0b86991c6218b36c1d19d4a2e9eb0ce3606eb48" || created.Fee != 3000 || created.TickSpacing != 60 {
		t.Fatalf("pool created mismatch: %+v", created)
	}

	feeLog := buildLog(factory, factoryABI.Events["FeeAmountEnabled"].ID, nil, []common.Hash{
		common.BigToHash(big.NewInt(100)),
		topicFromInt24(1),
	})
	decoded, err = decoder.Decode(feeLog)
	if err != nil {
		t.Fatalf("decode fee amount enabled: %v", err)
	}
	fee, ok := decoded.Payload.(model.FeeAmountEnabledEventData)
	if !ok || fee.Fee != 100 || fee.TickSpacing != 1 {
		t.Fatalf("fee mismatch: %+v", decoded.Payload)
	}
}

func TestV3DecoderInitializeAndFlash(t *testing.T) {
	poolABI, err := V3PoolABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewV3Decoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	pool := common.HexToAddress("0x4444444444444444444444444444444444444444")

	q96 := new(big.Int).Lsh(big.NewInt(1), 96)
	data, err := poolABI.Events["Initialize"].Inputs.NonIndexed().Pack(q96, big.NewInt(0))
	if err != nil {
		t.Fatalf("pack initialize: %v", err)
	}
	decoded, err := decoder.Decode(buildLog(pool, poolABI.Events["Initialize"].ID, data, nil))
	if err != nil {
		t.Fatalf("decode initialize: %v", err)
	}
	initialized, ok := decoded.Payload.(model.InitializeEventData)
	if !ok || initialized.SqrtPriceX96 != q96.String() || initialized.Tick != 0 {
		t.Fatalf("initialize mismatch: %+v", decoded.Payload)
	}

	sender := common.HexToAddress("0x5555555555555555555555555555555555555555")
	flashData, err := poolABI.Events["Flash"].Inputs.NonIndexed().Pack(
		big.NewInt(10), big.NewInt(20), big.NewInt(11), big.NewInt(21),
	)
	if err != nil {
		t.Fatalf("pack flash: %v", err)
	}
	decoded, err = decoder.Decode(buildLog(pool, poolABI.Events["Flash"].ID, flashData, []common.Hash{
		topicFromAddress(sender),
		topicFromAddress(sender),
	}))
	if err != nil {
		t.Fatalf("decode flash: %v", err)
	}
	flash, ok := decoded.Payload.(model.FlashEventData)
	if !ok || flash.Paid1 != "21" || flash.Amount0 != "10" {
		t.Fatalf("flash mismatch: %+v", decoded.Payload)
	}
}

func TestV3DecoderRejectsWrongTopicCount(t *testing.T) {
	poolABI, err := V3PoolABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewV3Decoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	log := buildLog(common.Address{}, poolABI.Events["Swap"].ID, nil, nil)
	if _, err := decoder.Decode(log); err == nil {
		t.Fatalf("expected error for swap without indexed topics")
	}
	if decoder.CanDecode("0xdeadbeef") {
		t.Fatalf("unexpected topic accepted")
	}
	if len(decoder.Topics()) != 7 {
		t.Fatalf("topics: %d", len(decoder.Topics()))
	}
}

func buildLog(address common.Address, topic0 common.Hash, data []byte, indexed []common.Hash) model.Log {
	topics := make([]string, 0, len(indexed)+1)
	topics = append(topics, topic0.Hex())
	for _, topic := range indexed {
		topics = append(topics, topic.Hex())
	}
	return model.Log{
		Address: model.HexAddress(address),
		Ordinal: 1,
		Index:   0,
		Topics:  topics,
		Data:    hexutil.Encode(data),
	}
}

func topicFromAddress(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}

func topicFromInt24(value int32) common.Hash {
	bigVal := big.NewInt(int64(value))
	if value < 0 {
		bigVal = new(big.Int).Add(bigVal, new(big.Int).Lsh(big.NewInt(1), 256))
	}
	return common.BigToHash(bigVal)
}
