package chain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"

	"priceScope/internal/model"
)

// ErrTokenNotFound means the address does not answer ERC20 metadata calls
// and has no static override.
var ErrTokenNotFound = errors.New("erc20 token not found")

// TokenResolver resolves ERC20 metadata for an address as of a block.
type TokenResolver interface {
	ResolveErc20(ctx context.Context, address string, blockNumber uint64) (model.Erc20Token, error)
}

// BatchCaller sends batched JSON-RPC requests.
type BatchCaller interface {
	BatchCallContext(ctx context.Context, batch []rpc.BatchElem) error
}

const erc20ABIStringJSON = `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"}
]`

const erc20ABIBytes32JSON = `[
  {"inputs": [], "name": "symbol", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"}
]`

var (
	erc20ABIString      abi.ABI
	erc20ABIStringOnce  sync.Once
	erc20ABIStringErr   error
	erc20ABIBytes32     abi.ABI
	erc20ABIBytes32Once sync.Once
	erc20ABIBytes32Err  error
)

// ERC20StringABI returns the standard ERC20 metadata ABI.
func ERC20StringABI() (abi.ABI, error) {
	erc20ABIStringOnce.Do(func() {
		erc20ABIString, erc20ABIStringErr = abi.JSON(strings.NewReader(erc20ABIStringJSON))
	})
	return erc20ABIString, erc20ABIStringErr
}

// ERC20Bytes32ABI returns the legacy ABI where name and symbol are bytes32.
func ERC20Bytes32ABI() (abi.ABI, error) {
	erc20ABIBytes32Once.Do(func() {
		erc20ABIBytes32, erc20ABIBytes32Err = abi.JSON(strings.NewReader(erc20ABIBytes32JSON))
	})
	return erc20ABIBytes32, erc20ABIBytes32Err
}

// Resolver fetches ERC20 metadata with one batched round trip per token
// and caches successful results for the life of the process.
type Resolver struct {
	caller BatchCaller
	cache  *xsync.Map[string, model.Erc20Token]
	logger *zap.Logger
}

func NewResolver(caller BatchCaller, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		caller: caller,
		cache:  xsync.NewMap[string, model.Erc20Token](),
		logger: logger,
	}
}

// ResolveErc20 returns ErrTokenNotFound when decimals cannot be read and no
// static override exists. Transport failures are returned as-is.
// The calls run against blockNumber; the first successful read of an
// address is cached.
func (r *Resolver) ResolveErc20(ctx context.Context, address string, blockNumber uint64) (model.Erc20Token, error) {
	address = model.NormalizeAddress(address)
	if token, ok := r.cache.Load(address); ok {
		return token, nil
	}
	token, err := r.fetch(ctx, address, blockNumber)
	if err != nil {
		return model.Erc20Token{}, err
	}
	r.cache.Store(address, token)
	return token, nil
}

func (r *Resolver) fetch(ctx context.Context, address string, blockNumber uint64) (model.Erc20Token, error) {
	stringABI, err := ERC20StringABI()
	if err != nil {
		return model.Erc20Token{}, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := ERC20Bytes32ABI()
	if err != nil {
		return model.Erc20Token{}, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	to := model.CommonAddress(address)
	block := hexutil.EncodeUint64(blockNumber)
	methods := []string{"decimals", "name", "symbol"}
	results := make([]hexutil.Bytes, len(methods))
	batch := make([]rpc.BatchElem, len(methods))
	for i, method := range methods {
		data, err := stringABI.Pack(method)
		if err != nil {
			return model.Erc20Token{}, fmt.Errorf("pack %s: %w", method, err)
		}
		batch[i] = rpc.BatchElem{
			Method: "eth_call",
			Args: []interface{}{
				map[string]interface{}{"to": to, "data": hexutil.Bytes(data)},
				block,
			},
			Result: &results[i],
		}
	}
	if err := r.caller.BatchCallContext(ctx, batch); err != nil {
		return model.Erc20Token{}, fmt.Errorf("erc20 batch for %s: %w", address, err)
	}

	static, hasStatic := StaticToken(address)
	token := model.Erc20Token{Address: address}

	decimals, err := unpackDecimals(stringABI, batch[0], results[0])
	switch {
	case err == nil:
		token.Decimals = decimals
	case hasStatic:
		token.Decimals = static.Decimals
	default:
		r.logger.Debug("decimals call failed", zap.String("token", address), zap.Error(err))
		return model.Erc20Token{}, fmt.Errorf("%s: %w", address, ErrTokenNotFound)
	}

	token.Name = r.readText(stringABI, bytes32ABI, "name", address, batch[1], results[1], static.Name, hasStatic)
	token.Symbol = r.readText(stringABI, bytes32ABI, "symbol", address, batch[2], results[2], static.Symbol, hasStatic)
	return token, nil
}

func unpackDecimals(parsed abi.ABI, elem rpc.BatchElem, raw hexutil.Bytes) (uint8, error) {
	if elem.Error != nil {
		return 0, elem.Error
	}
	if len(raw) == 0 {
		return 0, fmt.Errorf("empty decimals response")
	}
	values, err := parsed.Unpack("decimals", raw)
	if err != nil {
		return 0, fmt.Errorf("unpack decimals: %w", err)
	}
	return asUint8(values[0])
}

// readText decodes a string result, then the static table, then bytes32.
func (r *Resolver) readText(stringABI, bytes32ABI abi.ABI, method, address string, elem rpc.BatchElem, raw hexutil.Bytes, static string, hasStatic bool) string {
	if elem.Error == nil && len(raw) > 0 {
		if values, err := stringABI.Unpack(method, raw); err == nil {
			if s, ok := values[0].(string); ok {
				return s
			}
		}
	}
	if hasStatic {
		return static
	}
	if elem.Error == nil && len(raw) > 0 {
		if values, err := bytes32ABI.Unpack(method, raw); err == nil {
			if s, ok := bytes32ToString(values[0]); ok {
				return s
			}
		}
	}
	r.logger.Debug("erc20 text call failed", zap.String("token", address), zap.String("method", method))
	return ""
}

func bytes32ToString(value interface{}) (string, bool) {
	var b []byte
	switch v := value.(type) {
	case [32]byte:
		b = v[:]
	case []byte:
		b = v
	default:
		return "", false
	}
	b = bytes.TrimRight(b, "\x00")
	if !utf8.Valid(b) {
		return "", false
	}
	return string(b), true
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case uint16:
		return uint8(v), nil
	case uint32:
		return uint8(v), nil
	case uint64:
		return uint8(v), nil
	case *big.Int:
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}
