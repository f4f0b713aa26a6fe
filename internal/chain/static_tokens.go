package chain

import "priceScope/internal/model"

// staticTokens covers legacy tokens whose metadata calls do not follow ERC20.
var staticTokens = map[string]model.Erc20Token{
	"e0b7927c4af23765cb51314a0e0521a9645f0e2a": {Address: "e0b7927c4af23765cb51314a0e0521a9645f0e2a", Name: "DGD", Symbol: "DGD", Decimals: 9},
	"7fc66500c84a76ad7e9c93437bfc5ac33e2ddae9": {Address: "7fc66500c84a76ad7e9c93437bfc5ac33e2ddae9", Name: "Aave Token", Symbol: "AAVE", Decimals: 18},
	"eb9951021698b42e4399f9cbb6267aa35f82d59d": {Address: "eb9951021698b42e4399f9cbb6267aa35f82d59d", Name: "LIF", Symbol: "LIF", Decimals: 18},
	"bdeb4b83251fb146687fa19d1c660f99411eefe3": {Address: "bdeb4b83251fb146687fa19d1c660f99411eefe3", Name: "savedroid", Symbol: "SVD", Decimals: 18},
	"bb9bc244d798123fde783fcc1c72d3bb8c189413": {Address: "bb9bc244d798123fde783fcc1c72d3bb8c189413", Name: "TheDAO", Symbol: "TheDAO", Decimals: 16},
	"38c6a68304cdefb9bec48bbfaaba5c5b47818bb2": {Address: "38c6a68304cdefb9bec48bbfaaba5c5b47818bb2", Name: "HPBCoin", Symbol: "HPB", Decimals: 18},
}

// StaticToken returns the hardcoded metadata for a legacy token.
func StaticToken(address string) (model.Erc20Token, bool) {
	t, ok := staticTokens[address]
	return t, ok
}
