package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"

	"priceScope/internal/model"
)

const slot0ABIJSON = `[
  {
    "inputs": [],
    "name": "slot0",
    "outputs": [
      {"internalType": "uint160", "name": "sqrtPriceX96", "type": "uint160"},
      {"internalType": "int24", "name": "tick", "type": "int24"},
      {"internalType": "uint16", "name": "observationIndex", "type": "uint16"},
      {"internalType": "uint16", "name": "observationCardinality", "type": "uint16"},
      {"internalType": "uint16", "name": "observationCardinalityNext", "type": "uint16"},
      {"internalType": "uint8", "name": "feeProtocol", "type": "uint8"},
      {"internalType": "bool", "name": "unlocked", "type": "bool"}
    ],
    "stateMutability": "view",
    "type": "function"
  }
]`

var (
	slot0ABI     abi.ABI
	slot0ABIOnce sync.Once
	slot0ABIErr  error
)

func slot0ABIInstance() (abi.ABI, error) {
	slot0ABIOnce.Do(func() {
		slot0ABI, slot0ABIErr = abi.JSON(strings.NewReader(slot0ABIJSON))
	})
	return slot0ABI, slot0ABIErr
}

// TickStateReader reads a pool's current tick from chain.
type TickStateReader interface {
	PoolTickState(ctx context.Context, pool string, blockNumber uint64) (int32, bool, error)
}

// ContractCaller performs eth_call.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// SlotReader reads slot0 from V3 pools.
type SlotReader struct {
	caller ContractCaller
}

func NewSlotReader(caller ContractCaller) *SlotReader {
	return &SlotReader{caller: caller}
}

// PoolTickState returns the pool's tick at blockNumber. A reverted call or an
// undecodable answer reports unknown rather than an error.
func (s *SlotReader) PoolTickState(ctx context.Context, pool string, blockNumber uint64) (int32, bool, error) {
	parsed, err := slot0ABIInstance()
	if err != nil {
		return 0, false, fmt.Errorf("parse slot0 abi: %w", err)
	}
	data, err := parsed.Pack("slot0")
	if err != nil {
		return 0, false, fmt.Errorf("pack slot0: %w", err)
	}

	to := model.CommonAddress(pool)
	var blockPtr *big.Int
	if blockNumber > 0 {
		blockPtr = new(big.Int).SetUint64(blockNumber)
	}
	resp, err := s.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, blockPtr)
	if err != nil {
		if ctx.Err() != nil {
			return 0, false, ctx.Err()
		}
		return 0, false, nil
	}
	if len(resp) == 0 {
		return 0, false, nil
	}
	values, err := parsed.Unpack("slot0", resp)
	if err != nil || len(values) < 2 {
		return 0, false, nil
	}
	tick, ok := values[1].(*big.Int)
	if !ok || !tick.IsInt64() {
		return 0, false, nil
	}
	return int32(tick.Int64()), true, nil
}
