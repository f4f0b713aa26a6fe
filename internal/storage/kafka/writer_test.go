package kafka

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"priceScope/internal/storage"
	"priceScope/internal/store"
)

type recordingWriter struct {
	msgs []kafka.Message
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestSinkPublishKeysByStoreAndKey(t *testing.T) {
	w := &recordingWriter{}
	sink := &Sink{writer: w}

	batch := storage.BlockDeltas{
		BlockNumber: 12,
		BlockHash:   "0xabc",
		Deltas: []store.Delta{
			{Store: "prices", Key: "price:a:b", Ordinal: 3, Operation: store.OpSet, NewValue: []byte("2")},
			{Store: "liquidity", Key: "liquidity:p", Ordinal: 5, Operation: store.OpAdd, OldValue: []byte("1"), NewValue: []byte("4")},
		},
	}
	require.NoError(t, sink.Publish(context.Background(), batch))
	require.Len(t, w.msgs, 2)
	require.Equal(t, "prices:price:a:b", string(w.msgs[0].Key))
	require.Equal(t, "liquidity:liquidity:p", string(w.msgs[1].Key))
	require.Equal(t, []kafka.Header{{Key: "kind", Value: []byte("price")}}, w.msgs[0].Headers)

	var got Message
	require.NoError(t, json.Unmarshal(w.msgs[1].Value, &got))
	require.Equal(t, uint64(12), got.BlockNumber)
	require.Equal(t, "liquidity", got.Kind)
	require.Equal(t, "add", got.Operation)
	require.Equal(t, "1", got.OldValue)
	require.Equal(t, "4", got.NewValue)
}

func TestSinkPublishEmptyBatch(t *testing.T) {
	w := &recordingWriter{}
	sink := &Sink{writer: w}
	require.NoError(t, sink.Publish(context.Background(), storage.BlockDeltas{BlockNumber: 1}))
	require.Empty(t, w.msgs)
}

func TestMessagesRejectUnknownKey(t *testing.T) {
	_, err := Messages(storage.BlockDeltas{Deltas: []store.Delta{
		{Store: "prices", Key: "nope:1:2:3:4", Operation: store.OpSet, NewValue: []byte("1")},
	}})
	require.Error(t, err)
}
