package model

import (
	"sort"
	"strings"
)

// Block is one block of transaction traces, the unit of a processing pass.
type Block struct {
	Number       uint64             `json:"number"`
	Hash         string             `json:"hash"`
	Timestamp    uint64             `json:"timestamp"`
	Transactions []TransactionTrace `json:"transactions"`
}

// TransactionTrace groups the calls executed by one transaction.
type TransactionTrace struct {
	Hash  string `json:"hash"`
	Index uint64 `json:"index"`
	Calls []Call `json:"calls"`
}

// Call is a single contract call frame and the logs it emitted.
type Call struct {
	Address       string `json:"address"`
	StateReverted bool   `json:"state_reverted"`
	Logs          []Log  `json:"logs"`
}

// Log is a raw event log. Ordinal is unique and increasing within a block.
type Log struct {
	Address string   `json:"address"`
	Ordinal uint64   `json:"ordinal"`
	Index   uint64   `json:"index"`
	Topics  []string `json:"topics"`
	Data    string   `json:"data"`
}

// Topic0 returns the lowercased event signature topic or "".
func (l Log) Topic0() string {
	if len(l.Topics) == 0 {
		return ""
	}
	return strings.ToLower(l.Topics[0])
}

// TracedLog is a log together with the transaction that emitted it.
type TracedLog struct {
	Log
	TxHash string
}

// OrderedLogs flattens the block into logs from non-reverted calls, sorted by ordinal.
func (b Block) OrderedLogs() []TracedLog {
	var out []TracedLog
	for _, tx := range b.Transactions {
		for _, call := range tx.Calls {
			if call.StateReverted {
				continue
			}
			for _, lg := range call.Logs {
				out = append(out, TracedLog{Log: lg, TxHash: tx.Hash})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Ordinal < out[j].Ordinal
	})
	return out
}
