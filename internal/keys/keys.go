// Package keys builds and parses the colon-separated store keys.
//
// The rendered strings are a wire format shared with downstream consumers,
// so the layouts below must not change.
package keys

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies a key layout.
type Kind int

const (
	KindPool Kind = iota + 1
	KindTokenPair
	KindToken
	KindTokenWhitelist
	KindDerivedEthPrice
	KindPoolInit
	KindSqrtPrice
	KindSwap
	KindTick
	KindLiquidity
	KindTotalValueLocked
	KindAmountLocked
	KindPrice
	KindPoolPrice
	KindBundle
	KindFee
	KindFlash
)

var kindNames = map[Kind]string{
	KindPool:             "pool",
	KindTokenPair:        "tokens",
	KindToken:            "token",
	KindTokenWhitelist:   "token_whitelist",
	KindDerivedEthPrice:  "token_dprice_eth",
	KindPoolInit:         "pool_init",
	KindSqrtPrice:        "sqrt_price",
	KindSwap:             "swap",
	KindTick:             "tick",
	KindLiquidity:        "liquidity",
	KindTotalValueLocked: "total_value_locked",
	KindAmountLocked:     "amount_locked",
	KindPrice:            "price",
	KindPoolPrice:        "pool_price",
	KindBundle:           "bundle",
	KindFee:              "fee",
	KindFlash:            "flash",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Key is a typed store key.
type Key struct {
	Kind  Kind
	Parts []string
}

func (k Key) String() string {
	p := k.Parts
	switch k.Kind {
	case KindPool, KindPoolInit, KindSqrtPrice, KindSwap, KindLiquidity, KindFlash, KindToken:
		return k.Kind.prefix() + ":" + p[0]
	case KindTokenPair, KindTotalValueLocked, KindAmountLocked, KindPrice, KindPoolPrice, KindFee:
		return k.Kind.prefix() + ":" + p[0] + ":" + p[1]
	case KindTokenWhitelist:
		return "token:" + p[0] + ":whitelist"
	case KindDerivedEthPrice:
		return "token:" + p[0] + ":dprice:eth"
	case KindTick:
		return "tick:" + p[0] + ":pool:" + p[1]
	case KindBundle:
		return "bundle:eth:usd"
	}
	return strings.Join(p, ":")
}

func (k Kind) prefix() string {
	if k == KindTokenPair {
		return "tokens"
	}
	return kindNames[k]
}

func Pool(addr string) Key { return Key{Kind: KindPool, Parts: []string{addr}} }

// TokenPair orders the two addresses so either argument order yields the same key.
func TokenPair(a, b string) Key {
	if b < a {
		a, b = b, a
	}
	return Key{Kind: KindTokenPair, Parts: []string{a, b}}
}

func Token(addr string) Key { return Key{Kind: KindToken, Parts: []string{addr}} }

func TokenWhitelist(addr string) Key { return Key{Kind: KindTokenWhitelist, Parts: []string{addr}} }

func DerivedEthPrice(addr string) Key { return Key{Kind: KindDerivedEthPrice, Parts: []string{addr}} }

func PoolInit(pool string) Key { return Key{Kind: KindPoolInit, Parts: []string{pool}} }

func SqrtPrice(pool string) Key { return Key{Kind: KindSqrtPrice, Parts: []string{pool}} }

func Swap(pool string) Key { return Key{Kind: KindSwap, Parts: []string{pool}} }

func Tick(idx int32, pool string) Key {
	return Key{Kind: KindTick, Parts: []string{strconv.FormatInt(int64(idx), 10), pool}}
}

func Liquidity(pool string) Key { return Key{Kind: KindLiquidity, Parts: []string{pool}} }

// TotalValueLocked is the running value of token locked against counterpart.
func TotalValueLocked(token, counterpart string) Key {
	return Key{Kind: KindTotalValueLocked, Parts: []string{token, counterpart}}
}

func AmountLocked(pool, token string) Key {
	return Key{Kind: KindAmountLocked, Parts: []string{pool, token}}
}

// Price is the price of token a denominated in token b.
func Price(a, b string) Key { return Key{Kind: KindPrice, Parts: []string{a, b}} }

// PoolPrice is the price of token in its counterpart, as last seen in pool.
func PoolPrice(pool, token string) Key {
	return Key{Kind: KindPoolPrice, Parts: []string{pool, token}}
}

func BundleEthUSD() Key { return Key{Kind: KindBundle} }

func Fee(fee uint32, tickSpacing int32) Key {
	return Key{Kind: KindFee, Parts: []string{
		strconv.FormatUint(uint64(fee), 10),
		strconv.FormatInt(int64(tickSpacing), 10),
	}}
}

func Flash(pool string) Key { return Key{Kind: KindFlash, Parts: []string{pool}} }

// Parse recovers the typed key from its rendered form.
func Parse(s string) (Key, error) {
	p := strings.Split(s, ":")
	switch {
	case s == "bundle:eth:usd":
		return BundleEthUSD(), nil
	case len(p) == 4 && p[0] == "tick" && p[2] == "pool":
		return Key{Kind: KindTick, Parts: []string{p[1], p[3]}}, nil
	case len(p) == 3 && p[0] == "token" && p[2] == "whitelist":
		return TokenWhitelist(p[1]), nil
	case len(p) == 4 && p[0] == "token" && p[2] == "dprice" && p[3] == "eth":
		return DerivedEthPrice(p[1]), nil
	case len(p) == 2:
		switch p[0] {
		case "pool":
			return Pool(p[1]), nil
		case "token":
			return Token(p[1]), nil
		case "pool_init":
			return PoolInit(p[1]), nil
		case "sqrt_price":
			return SqrtPrice(p[1]), nil
		case "swap":
			return Swap(p[1]), nil
		case "liquidity":
			return Liquidity(p[1]), nil
		case "flash":
			return Flash(p[1]), nil
		}
	case len(p) == 3:
		switch p[0] {
		case "tokens":
			return Key{Kind: KindTokenPair, Parts: []string{p[1], p[2]}}, nil
		case "total_value_locked":
			return TotalValueLocked(p[1], p[2]), nil
		case "amount_locked":
			return AmountLocked(p[1], p[2]), nil
		case "price":
			return Price(p[1], p[2]), nil
		case "pool_price":
			return PoolPrice(p[1], p[2]), nil
		case "fee":
			return Key{Kind: KindFee, Parts: []string{p[1], p[2]}}, nil
		}
	}
	return Key{}, fmt.Errorf("unrecognized store key %q", s)
}
