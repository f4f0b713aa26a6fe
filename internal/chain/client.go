package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/puzpuzpuz/xsync/v4"
)

// BlockHeader is the subset of a header needed to assemble blocks.
type BlockHeader struct {
	Number    uint64
	Hash      string
	Timestamp uint64
}

// Client wraps go-ethereum RPC and provides helper methods.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client

	headers *xsync.Map[uint64, BlockHeader]
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		headers:   xsync.NewMap[uint64, BlockHeader](),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// LatestBlockNumber returns the latest block number.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return c.ethClient.BlockNumber(ctx)
}

// Header returns the block hash and timestamp, using an in-memory cache.
func (c *Client) Header(ctx context.Context, number uint64) (BlockHeader, error) {
	if h, ok := c.headers.Load(number); ok {
		return h, nil
	}

	header, err := c.ethClient.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return BlockHeader{}, fmt.Errorf("header %d: %w", number, err)
	}

	h := BlockHeader{Number: number, Hash: header.Hash().Hex(), Timestamp: header.Time}
	c.headers.Store(number, h)
	return h, nil
}

// FilterLogs returns logs in the given range for addresses and topic0 filters.
func (c *Client) FilterLogs(
	ctx context.Context,
	fromBlock uint64,
	toBlock uint64,
	addresses []common.Address,
	topic0 []common.Hash,
) ([]types.Log, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: addresses,
	}
	if len(topic0) > 0 {
		query.Topics = [][]common.Hash{topic0}
	}
	return c.ethClient.FilterLogs(ctx, query)
}

// CallContract performs an eth_call for a contract method.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return c.ethClient.CallContract(ctx, msg, blockNumber)
}

// BatchCallContext sends several JSON-RPC requests in one round trip.
func (c *Client) BatchCallContext(ctx context.Context, batch []rpc.BatchElem) error {
	return c.rpcClient.BatchCallContext(ctx, batch)
}
