package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"priceScope/internal/storage"
	"priceScope/internal/store"
)

func TestSnapshotPublishAndLoad(t *testing.T) {
	snap, err := Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer snap.Close()

	_, found, err := snap.LastBlock()
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, snap.Publish(context.Background(), storage.BlockDeltas{
		BlockNumber: 10,
		Deltas: []store.Delta{
			{Store: "prices", Key: "price:a:b", NewValue: []byte("1")},
			{Store: "prices", Key: "price:a:b", NewValue: []byte("2")},
			{Store: "liquidity", Key: "liquidity:p", NewValue: []byte("7")},
		},
	}))
	require.NoError(t, snap.Publish(context.Background(), storage.BlockDeltas{BlockNumber: 11}))

	height, found, err := snap.LastBlock()
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, uint64(11), height)

	got := map[string]string{}
	require.NoError(t, snap.Load("prices", func(key string, value []byte) {
		got[key] = string(value)
	}))
	require.Equal(t, map[string]string{"price:a:b": "2"}, got)

	require.NoError(t, snap.Load("missing", func(string, []byte) {
		t.Fatal("unexpected key")
	}))
}
