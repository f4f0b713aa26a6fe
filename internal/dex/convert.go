package dex

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asString(value interface{}) (string, error) {
	n, err := asBigInt(value)
	if err != nil {
		return "", err
	}
	return n.String(), nil
}

func int24FromBig(value *big.Int) (int32, error) {
	if value == nil {
		return 0, fmt.Errorf("int24 missing")
	}
	min := big.NewInt(-1 << 23)
	max := big.NewInt((1 << 23) - 1)
	if value.Cmp(min) < 0 || value.Cmp(max) > 0 {
		return 0, fmt.Errorf("int24 overflow: %s", value.String())
	}
	return int32(value.Int64()), nil
}

func uint24FromBig(value *big.Int) (uint32, error) {
	if value == nil || value.Sign() < 0 || value.BitLen() > 24 {
		return 0, fmt.Errorf("uint24 out of range: %v", value)
	}
	return uint32(value.Uint64()), nil
}
