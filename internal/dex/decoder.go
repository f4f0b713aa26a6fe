package dex

import (
	"priceScope/internal/model"
)

// Event names produced by the V3 decoder.
const (
	EventPoolCreated      = "PoolCreated"
	EventFeeAmountEnabled = "FeeAmountEnabled"
	EventInitialize       = "Initialize"
	EventSwap             = "Swap"
	EventMint             = "Mint"
	EventBurn             = "Burn"
	EventFlash            = "Flash"
)

// Decoder defines a log decoder.
type Decoder interface {
	CanDecode(topic0 string) bool
	Decode(log model.Log) (model.DecodedLog, error)
}
