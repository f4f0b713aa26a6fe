package indexer

import (
	"sort"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"priceScope/internal/chain"
	"priceScope/internal/model"
)

// AssembleBlocks groups RPC logs into blocks. RPC logs carry no call tree, so
// each transaction becomes one call and removed logs land in a reverted call.
// A log's ordinal is its block log index plus one.
func AssembleBlocks(logs []types.Log, headers map[uint64]chain.BlockHeader) []model.Block {
	byBlock := make(map[uint64][]types.Log)
	for _, lg := range logs {
		byBlock[lg.BlockNumber] = append(byBlock[lg.BlockNumber], lg)
	}

	numbers := make([]uint64, 0, len(byBlock))
	for n := range byBlock {
		numbers = append(numbers, n)
	}
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })

	blocks := make([]model.Block, 0, len(numbers))
	for _, n := range numbers {
		blockLogs := byBlock[n]
		sort.SliceStable(blockLogs, func(i, j int) bool { return blockLogs[i].Index < blockLogs[j].Index })

		header := headers[n]
		block := model.Block{Number: n, Hash: header.Hash, Timestamp: header.Timestamp}
		if block.Hash == "" && len(blockLogs) > 0 {
			block.Hash = blockLogs[0].BlockHash.Hex()
		}

		txPos := make(map[string]int)
		for _, lg := range blockLogs {
			txHash := lg.TxHash.Hex()
			pos, ok := txPos[txHash]
			if !ok {
				pos = len(block.Transactions)
				txPos[txHash] = pos
				block.Transactions = append(block.Transactions, model.TransactionTrace{
					Hash:  txHash,
					Index: uint64(lg.TxIndex),
				})
			}
			tx := &block.Transactions[pos]
			call := callFor(tx, lg)
			call.Logs = append(call.Logs, toModelLog(lg))
		}
		blocks = append(blocks, block)
	}
	return blocks
}

func callFor(tx *model.TransactionTrace, lg types.Log) *model.Call {
	for i := range tx.Calls {
		if tx.Calls[i].StateReverted == lg.Removed {
			return &tx.Calls[i]
		}
	}
	tx.Calls = append(tx.Calls, model.Call{
		Address:       model.HexAddress(lg.Address),
		StateReverted: lg.Removed,
	})
	return &tx.Calls[len(tx.Calls)-1]
}

func toModelLog(lg types.Log) model.Log {
	topics := make([]string, 0, len(lg.Topics))
	for _, topic := range lg.Topics {
		topics = append(topics, topic.Hex())
	}
	return model.Log{
		Address: model.HexAddress(lg.Address),
		Ordinal: uint64(lg.Index) + 1,
		Index:   uint64(lg.Index),
		Topics:  topics,
		Data:    hexutil.Encode(lg.Data),
	}
}
