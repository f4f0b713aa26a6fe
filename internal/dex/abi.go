package dex

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const v3FactoryABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "token0", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "token1", "type": "address"},
      {"indexed": true, "internalType": "uint24", "name": "fee", "type": "uint24"},
      {"indexed": false, "internalType": "int24", "name": "tickSpacing", "type": "int24"},
      {"indexed": false, "internalType": "address", "name": "pool", "type": "address"}
    ],
    "name": "PoolCreated",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint24", "name": "fee", "type": "uint24"},
      {"indexed": true, "internalType": "int24", "name": "tickSpacing", "type": "int24"}
    ],
    "name": "FeeAmountEnabled",
    "type": "event"
  }
]`

const v3PoolABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "uint160", "name": "sqrtPriceX96", "type": "uint160"},
      {"indexed": false, "internalType": "int24", "name": "tick", "type": "int24"}
    ],
    "name": "Initialize",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "sender", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "recipient", "type": "address"},
      {"indexed": false, "internalType": "int256", "name": "amount0", "type": "int256"},
      {"indexed": false, "internalType": "int256", "name": "amount1", "type": "int256"},
      {"indexed": false, "internalType": "uint160", "name": "sqrtPriceX96", "type": "uint160"},
      {"indexed": false, "internalType": "uint128", "name": "liquidity", "type": "uint128"},
      {"indexed": false, "internalType": "int24", "name": "tick", "type": "int24"}
    ],
    "name": "Swap",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "address", "name": "sender", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "owner", "type": "address"},
      {"indexed": true, "internalType": "int24", "name": "tickLower", "type": "int24"},
      {"indexed": true, "internalType": "int24", "name": "tickUpper", "type": "int24"},
      {"indexed": false, "internalType": "uint128", "name": "amount", "type": "uint128"},
      {"indexed": false, "internalType": "uint256", "name": "amount0", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "amount1", "type": "uint256"}
    ],
    "name": "Mint",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "owner", "type": "address"},
      {"indexed": true, "internalType": "int24", "name": "tickLower", "type": "int24"},
      {"indexed": true, "internalType": "int24", "name": "tickUpper", "type": "int24"},
      {"indexed": false, "internalType": "uint128", "name": "amount", "type": "uint128"},
      {"indexed": false, "internalType": "uint256", "name": "amount0", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "amount1", "type": "uint256"}
    ],
    "name": "Burn",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "sender", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "recipient", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "amount0", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "amount1", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "paid0", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "paid1", "type": "uint256"}
    ],
    "name": "Flash",
    "type": "event"
  }
]`

var (
	v3FactoryABI     abi.ABI
	v3FactoryABIOnce sync.Once
	v3FactoryABIErr  error

	v3PoolABI     abi.ABI
	v3PoolABIOnce sync.Once
	v3PoolABIErr  error
)

// V3FactoryABI returns the parsed V3 factory event ABI.
func V3FactoryABI() (abi.ABI, error) {
	v3FactoryABIOnce.Do(func() {
		v3FactoryABI, v3FactoryABIErr = abi.JSON(strings.NewReader(v3FactoryABIJSON))
	})
	return v3FactoryABI, v3FactoryABIErr
}

// V3PoolABI returns the parsed V3 pool event ABI.
func V3PoolABI() (abi.ABI, error) {
	v3PoolABIOnce.Do(func() {
		v3PoolABI, v3PoolABIErr = abi.JSON(strings.NewReader(v3PoolABIJSON))
	})
	return v3PoolABI, v3PoolABIErr
}
