package price

import (
	"fmt"
	"math/big"

	"github.com/ALTree/bigfloat"
	"github.com/shopspring/decimal"
)

// DivisionScale is the number of decimal places kept by divisions.
const DivisionScale int32 = 100

// tickPrecision is roughly 100 significant decimal digits.
const tickPrecision uint = 340

var (
	q192     = decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), 192), 0)
	tickBase = mustFloat("1.0001")
)

func mustFloat(s string) *big.Float {
	f, ok := new(big.Float).SetPrec(tickPrecision).SetString(s)
	if !ok {
		panic(fmt.Sprintf("invalid float literal %q", s))
	}
	return f
}

// SafeDiv returns a/b, or zero when b is zero.
func SafeDiv(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.DivRound(b, DivisionScale)
}

// SqrtPriceX96ToTokenPrices converts a Q64.96 sqrt price into
// price1 (token1 per token0) and price0 (token0 per token1), adjusted for decimals.
func SqrtPriceX96ToTokenPrices(sqrtPrice decimal.Decimal, decimals0, decimals1 uint8) (price0, price1 decimal.Decimal) {
	raw := sqrtPrice.Mul(sqrtPrice).DivRound(q192, DivisionScale)
	price1 = raw.Shift(int32(decimals0) - int32(decimals1))
	price0 = SafeDiv(decimal.NewFromInt(1), price1)
	return price0, price1
}

// TickPrices returns 1.0001^tick and its inverse.
func TickPrices(tick int32) (price0, price1 decimal.Decimal, err error) {
	exp := new(big.Float).SetPrec(tickPrecision).SetInt64(int64(tick))
	pow := bigfloat.Pow(tickBase, exp)
	price0, err = decimal.NewFromString(pow.Text('g', 100))
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("tick %d price: %w", tick, err)
	}
	return price0, SafeDiv(decimal.NewFromInt(1), price0), nil
}

// ConvertTokenToDecimal scales a raw integer amount by the token decimals.
func ConvertTokenToDecimal(amount string, decimals uint8) (decimal.Decimal, error) {
	raw, ok := new(big.Int).SetString(amount, 10)
	if !ok {
		return decimal.Zero, fmt.Errorf("invalid token amount %q", amount)
	}
	return decimal.NewFromBigInt(raw, -int32(decimals)), nil
}
