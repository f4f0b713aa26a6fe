package price

const (
	WethAddress = "c02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"
	UsdcAddress = "a0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
	// UsdcWeth03Pool is the USDC/WETH 0.3% pool used as the ETH-USD reference.
	UsdcWeth03Pool = "8ad599c3a0ff1de082011efddc58f1908eb6e6d8"
)

// MinimumEthLocked is the liquidity floor a whitelist pool needs to price a token.
const MinimumEthLocked = 60

var stableCoins = []string{
	"6b175474e89094c44da98b954eedeac495271d0f",
	"a0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
	"dac17f958d2ee523a2206206994597c13d831ec7",
	"0000000000085d4780b73119b644ae5ecd22b376",
	"956f47f50a910163d8bf957cf5846d573e7f87ca",
	"4dd28568d05f09b02220b09c2cb307bfd837cb95",
}

var whitelistTokens = []string{
	"c02aaa39b223fe8d0a0e5c4f27ead9083c756cc2", // WETH
	"6b175474e89094c44da98b954eedeac495271d0f", // DAI
	"a0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", // USDC
	"dac17f958d2ee523a2206206994597c13d831ec7", // USDT
	"0000000000085d4780b73119b644ae5ecd22b376", // TUSD
	"2260fac5e5542a773aa44fbcfedf7c193bc2c599", // WBTC
	"5d3a536e4d6dbd6114cc1ead35777bab948e3643", // cDAI
	"39aa39c021dfbae8fac545936693ac917d5e7563", // cUSDC
	"86fadb80d8d2cff3c3680819e4da99c10232ba0f", // EBASE
	"57ab1ec28d129707052df4df418d58a2d46d5f51", // sUSD
	"9f8f72aa9304c8b593d555f12ef6589cc3a579a2", // MKR
	"c00e94cb662c3520282e6f5717214004a7f26888", // COMP
	"514910771af9ca656af840dff83e8264ecf986ca", // LINK
	"c011a73ee8576fb46f5e1c5751ca3b9fe0af2a6f", // SNX
	"0bc529c00c6401aef6d220be8c6ea1667f6ad93e", // YFI
	"111111111117dc0aa78b770fa6a738034120c302", // 1INCH
	"df5e0e81dff6faf3a7e52ba697820c5e32d806a8", // yCurv
	"956f47f50a910163d8bf957cf5846d573e7f87ca", // FEI
	"7d1afa7b718fb893db30a3abc0cfc608aacfebb0", // MATIC
	"7fc66500c84a76ad7e9c93437bfc5ac33e2ddae9", // AAVE
	"fe2e637202056d30016725477c5da089ab0a043a", // sETH2
}

var (
	stableSet    = toSet(stableCoins)
	whitelistSet = toSet(whitelistTokens)
)

func toSet(addrs []string) map[string]struct{} {
	out := make(map[string]struct{}, len(addrs))
	for _, a := range addrs {
		out[a] = struct{}{}
	}
	return out
}

// IsStableCoin reports whether addr is a USD stablecoin.
func IsStableCoin(addr string) bool {
	_, ok := stableSet[addr]
	return ok
}

// IsWhitelisted reports whether pools containing addr may be used for pricing.
func IsWhitelisted(addr string) bool {
	_, ok := whitelistSet[addr]
	return ok
}
