package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"priceScope/internal/model"
	"priceScope/internal/store"
)

func TestJsonlBlocksRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "blocks.jsonl")
	s := NewJsonlStorage(path)

	blocks := []model.Block{
		{Number: 1, Hash: "0x01", Transactions: []model.TransactionTrace{{Hash: "0xaa", Calls: []model.Call{{Address: "pool", Logs: []model.Log{{Ordinal: 1}}}}}}},
		{Number: 2, Hash: "0x02"},
	}
	require.NoError(t, s.PutBlocks(blocks[:1]))
	require.NoError(t, s.PutBlocks(blocks[1:]))
	require.NoError(t, s.PutBlocks(nil))

	var got []model.Block
	require.NoError(t, ReadBlocks(path, func(b model.Block) error {
		got = append(got, b)
		return nil
	}))
	require.Len(t, got, 2)
	require.Equal(t, uint64(1), got[0].Number)
	require.Equal(t, "0xaa", got[0].Transactions[0].Hash)
	require.Equal(t, uint64(2), got[1].Number)
}

func TestJsonlPublishWritesOneLinePerBlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deltas.jsonl")
	s := NewJsonlStorage(path)

	require.NoError(t, s.Publish(context.Background(), BlockDeltas{
		BlockNumber: 3,
		Deltas:      []store.Delta{{Store: "prices", Key: "price:a:b", Ordinal: 2, Operation: store.OpSet, NewValue: []byte("5")}},
	}))
	require.NoError(t, s.Publish(context.Background(), BlockDeltas{BlockNumber: 4}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []BlockDeltas
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var b BlockDeltas
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &b))
		lines = append(lines, b)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, lines, 2)
	require.Equal(t, "price:a:b", lines[0].Deltas[0].Key)
	require.Equal(t, []byte("5"), lines[0].Deltas[0].NewValue)
}
