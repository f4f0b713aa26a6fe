package model

// Erc20Token captures ERC20 metadata as resolved at pool creation.
type Erc20Token struct {
	Address        string   `json:"address"`
	Name           string   `json:"name"`
	Symbol         string   `json:"symbol"`
	Decimals       uint8    `json:"decimals"`
	WhitelistPools []string `json:"whitelist_pools,omitempty"`
}
