package indexer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitRange(t *testing.T) {
	got, err := SplitRange(100, 105, 2)
	require.NoError(t, err)
	require.Equal(t, []BlockRange{
		{From: 100, To: 101},
		{From: 102, To: 103},
		{From: 104, To: 105},
	}, got)
}

func TestSplitRangeSingle(t *testing.T) {
	got, err := SplitRange(5, 5, 10)
	require.NoError(t, err)
	require.Equal(t, []BlockRange{{From: 5, To: 5}}, got)
}

func TestSplitRangeInvalid(t *testing.T) {
	_, err := SplitRange(10, 9, 1)
	require.Error(t, err)
	_, err = SplitRange(1, 10, 0)
	require.Error(t, err)
}

func TestBlockRangeAfter(t *testing.T) {
	r := BlockRange{From: 10, To: 20}

	rest, ok := r.After(5)
	require.True(t, ok)
	require.Equal(t, r, rest)

	rest, ok = r.After(14)
	require.True(t, ok)
	require.Equal(t, BlockRange{From: 15, To: 20}, rest)
	require.Equal(t, uint64(6), rest.Len())

	_, ok = r.After(20)
	require.False(t, ok)
}
