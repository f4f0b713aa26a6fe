package keys

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	weth = "c02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"
	usdc = "a0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
	pool = "8ad599c3a0ff1de082011efddc58f1908eb6e6d8"
)

func TestKeyLayouts(t *testing.T) {
	cases := []struct {
		key  Key
		want string
	}{
		{Pool(pool), "pool:" + pool},
		{TokenPair(weth, usdc), "tokens:" + usdc + ":" + weth},
		{TokenWhitelist(weth), "token:" + weth + ":whitelist"},
		{DerivedEthPrice(weth), "token:" + weth + ":dprice:eth"},
		{Tick(-887220, pool), "tick:-887220:pool:" + pool},
		{PoolPrice(pool, weth), "pool_price:" + pool + ":" + weth},
		{BundleEthUSD(), "bundle:eth:usd"},
		{Fee(3000, 60), "fee:3000:60"},
		{TotalValueLocked(usdc, weth), "total_value_locked:" + usdc + ":" + weth},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, tc.key.String())
		parsed, err := Parse(tc.want)
		require.NoError(t, err)
		require.Equal(t, tc.key.Kind, parsed.Kind, tc.want)
		require.Equal(t, tc.want, parsed.String())
	}
}

func TestTokenPairIsOrderIndependent(t *testing.T) {
	require.Equal(t, TokenPair(weth, usdc).String(), TokenPair(usdc, weth).String())
}

func TestParseRejectsUnknown(t *testing.T) {
	_, err := Parse("nope:1:2:3:4")
	require.Error(t, err)
}
