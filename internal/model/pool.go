package model

// Pool is a registered V3 pool with its token snapshots.
type Pool struct {
	Address               string     `json:"address"`
	Token0                Erc20Token `json:"token0"`
	Token1                Erc20Token `json:"token1"`
	Fee                   uint32     `json:"fee"`
	TickSpacing           int32      `json:"tick_spacing"`
	CreationTransactionID string     `json:"creation_transaction_id"`
	BlockNum              uint64     `json:"block_num"`
	LogOrdinal            uint64     `json:"log_ordinal"`
}

// Counterpart returns the other token of the pool, or false if token is not in it.
func (p Pool) Counterpart(token string) (Erc20Token, bool) {
	switch token {
	case p.Token0.Address:
		return p.Token1, true
	case p.Token1.Address:
		return p.Token0, true
	}
	return Erc20Token{}, false
}

// PoolInitialization records the first sqrt price set on a pool.
type PoolInitialization struct {
	PoolAddress   string `json:"pool_address"`
	TransactionID string `json:"transaction_id"`
	InitializedAt uint64 `json:"initialized_at"`
	SqrtPrice     string `json:"sqrt_price"`
	Tick          int32  `json:"tick"`
	LogOrdinal    uint64 `json:"log_ordinal"`
}

// SqrtPriceUpdate is emitted on pool initialization and on every swap.
type SqrtPriceUpdate struct {
	PoolAddress string `json:"pool_address"`
	Ordinal     uint64 `json:"ordinal"`
	SqrtPrice   string `json:"sqrt_price"`
	Tick        int32  `json:"tick"`
}

// Tick holds the prices at a tick boundary.
type Tick struct {
	PoolAddress string `json:"pool_address"`
	Idx         string `json:"idx"`
	Price0      string `json:"price0"`
	Price1      string `json:"price1"`
}

// Fee is a fee tier enabled on the factory.
type Fee struct {
	Fee         uint32 `json:"fee"`
	TickSpacing int32  `json:"tick_spacing"`
}

// Flash is a flash loan taken from a pool.
type Flash struct {
	PoolAddress   string `json:"pool_address"`
	TransactionID string `json:"transaction_id"`
	Sender        string `json:"sender"`
	Recipient     string `json:"recipient"`
	Amount0       string `json:"amount0"`
	Amount1       string `json:"amount1"`
	Paid0         string `json:"paid0"`
	Paid1         string `json:"paid1"`
	LogOrdinal    uint64 `json:"log_ordinal"`
}
