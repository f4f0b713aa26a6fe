package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrderedLogsSkipsRevertedCallsAndSorts(t *testing.T) {
	block := Block{
		Number: 12369821,
		Transactions: []TransactionTrace{
			{
				Hash: "0xaa",
				Calls: []Call{
					{Address: "p1", Logs: []Log{{Ordinal: 5}, {Ordinal: 2}}},
					{Address: "p2", StateReverted: true, Logs: []Log{{Ordinal: 3}}},
				},
			},
			{
				Hash:  "0xbb",
				Calls: []Call{{Address: "p3", Logs: []Log{{Ordinal: 4}}}},
			},
		},
	}

	logs := block.OrderedLogs()
	require.Len(t, logs, 3)
	require.Equal(t, uint64(2), logs[0].Ordinal)
	require.Equal(t, uint64(4), logs[1].Ordinal)
	require.Equal(t, "0xbb", logs[1].TxHash)
	require.Equal(t, uint64(5), logs[2].Ordinal)
}

func TestNormalizeAddress(t *testing.T) {
	require.Equal(t, "c02aaa39b223fe8d0a0e5c4f27ead9083c756cc2",
		NormalizeAddress(" 0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2 "))
	require.Equal(t, "c02aaa39b223fe8d0a0e5c4f27ead9083c756cc2",
		HexAddress(CommonAddress("C02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")))
}

func TestPoolCounterpart(t *testing.T) {
	p := Pool{Token0: Erc20Token{Address: "aa"}, Token1: Erc20Token{Address: "bb"}}
	other, ok := p.Counterpart("aa")
	require.True(t, ok)
	require.Equal(t, "bb", other.Address)
	_, ok = p.Counterpart("cc")
	require.False(t, ok)
}

func TestIsDataIntegrity(t *testing.T) {
	err := error(&DataIntegrityError{BlockNumber: 1, Ordinal: 2, Reason: "missing pool"})
	require.True(t, IsDataIntegrity(err))
	require.False(t, IsDataIntegrity(nil))
}
