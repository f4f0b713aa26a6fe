package model

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// NormalizeAddress lowercases an address and strips the 0x prefix.
func NormalizeAddress(addr string) string {
	addr = strings.TrimSpace(strings.ToLower(addr))
	return strings.TrimPrefix(addr, "0x")
}

// HexAddress renders an address in the normalized key form.
func HexAddress(addr common.Address) string {
	return NormalizeAddress(addr.Hex())
}

// CommonAddress converts a normalized address back to a go-ethereum address.
func CommonAddress(addr string) common.Address {
	return common.HexToAddress("0x" + NormalizeAddress(addr))
}
