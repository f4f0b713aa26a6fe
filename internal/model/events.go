package model

// PoolCreatedEventData is the decoded factory PoolCreated payload.
type PoolCreatedEventData struct {
	Token0      string `json:"token0"`
	Token1      string `json:"token1"`
	Fee         uint32 `json:"fee"`
	TickSpacing int32  `json:"tick_spacing"`
	Pool        string `json:"pool"`
}

// FeeAmountEnabledEventData is the decoded factory FeeAmountEnabled payload.
type FeeAmountEnabledEventData struct {
	Fee         uint32 `json:"fee"`
	TickSpacing int32  `json:"tick_spacing"`
}

// InitializeEventData is the decoded Initialize payload.
type InitializeEventData struct {
	SqrtPriceX96 string `json:"sqrt_price_x96"`
	Tick         int32  `json:"tick"`
}

// SwapEventData is the decoded Swap event payload.
type SwapEventData struct {
	Sender       string `json:"sender"`
	Recipient    string `json:"recipient"`
	Amount0      string `json:"amount0"`
	Amount1      string `json:"amount1"`
	SqrtPriceX96 string `json:"sqrt_price_x96"`
	Liquidity    string `json:"liquidity"`
	Tick         int32  `json:"tick"`
}

// MintEventData is the decoded Mint event payload.
type MintEventData struct {
	Sender    string `json:"sender"`
	Owner     string `json:"owner"`
	TickLower int32  `json:"tick_lower"`
	TickUpper int32  `json:"tick_upper"`
	Amount    string `json:"amount"`
	Amount0   string `json:"amount0"`
	Amount1   string `json:"amount1"`
}

// BurnEventData is the decoded Burn event payload.
type BurnEventData struct {
	Owner     string `json:"owner"`
	TickLower int32  `json:"tick_lower"`
	TickUpper int32  `json:"tick_upper"`
	Amount    string `json:"amount"`
	Amount0   string `json:"amount0"`
	Amount1   string `json:"amount1"`
}

// FlashEventData is the decoded Flash event payload.
type FlashEventData struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Amount0   string `json:"amount0"`
	Amount1   string `json:"amount1"`
	Paid0     string `json:"paid0"`
	Paid1     string `json:"paid1"`
}

// DecodedLog is a log decoded into one of the *EventData payloads above.
type DecodedLog struct {
	Name    string
	Payload interface{}
}

// EventKind enumerates the pool activity kinds.
type EventKind string

const (
	EventSwap EventKind = "swap"
	EventMint EventKind = "mint"
	EventBurn EventKind = "burn"
)

// Event is pool activity enriched with the pool's token pair.
// Exactly one of Swap, Mint or Burn is set, matching Kind.
type Event struct {
	Kind          EventKind      `json:"kind"`
	PoolAddress   string         `json:"pool_address"`
	Token0        string         `json:"token0"`
	Token1        string         `json:"token1"`
	Fee           uint32         `json:"fee"`
	TransactionID string         `json:"transaction_id"`
	Timestamp     uint64         `json:"timestamp"`
	LogOrdinal    uint64         `json:"log_ordinal"`
	Swap          *SwapEventData `json:"swap,omitempty"`
	Mint          *MintEventData `json:"mint,omitempty"`
	Burn          *BurnEventData `json:"burn,omitempty"`
}

// BlockEventKind tags a BlockEvent.
type BlockEventKind int

const (
	KindPoolCreated BlockEventKind = iota
	KindPoolInitialized
	KindSqrtPriceUpdate
	KindPoolEvent
	KindFeeAmountEnabled
	KindFlash
)

func (k BlockEventKind) String() string {
	switch k {
	case KindPoolCreated:
		return "pool_created"
	case KindPoolInitialized:
		return "pool_initialized"
	case KindSqrtPriceUpdate:
		return "sqrt_price_update"
	case KindPoolEvent:
		return "pool_event"
	case KindFeeAmountEnabled:
		return "fee_amount_enabled"
	case KindFlash:
		return "flash"
	}
	return "unknown"
}

// BlockEvent is one item produced by the event mapper, in ordinal order.
type BlockEvent struct {
	Kind        BlockEventKind
	Ordinal     uint64
	BlockNumber uint64
	TxHash      string

	PoolCreated    *PoolCreatedEventData
	Initialization *PoolInitialization
	SqrtPrice      *SqrtPriceUpdate
	PoolEvent      *Event
	Fee            *Fee
	Flash          *Flash
}
