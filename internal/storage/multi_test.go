package storage

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"priceScope/internal/store"
)

type fakeSink struct {
	name string
	err  error

	mu      sync.Mutex
	batches []BlockDeltas
	closed  bool
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) Publish(_ context.Context, batch BlockDeltas) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, batch)
	return nil
}

func (f *fakeSink) Close() error {
	f.closed = true
	return nil
}

func TestMultiPublishesToEverySink(t *testing.T) {
	a := &fakeSink{name: "a"}
	b := &fakeSink{name: "b"}
	m := NewMulti(zaptest.NewLogger(t), a, b)

	batch := BlockDeltas{BlockNumber: 5, Deltas: []store.Delta{{Store: "prices", Key: "k", NewValue: []byte("1")}}}
	require.NoError(t, m.Publish(context.Background(), batch))
	require.NoError(t, m.Close())

	for _, s := range []*fakeSink{a, b} {
		require.Len(t, s.batches, 1)
		require.Equal(t, uint64(5), s.batches[0].BlockNumber)
		require.True(t, s.closed)
	}
}

func TestMultiReturnsSinkError(t *testing.T) {
	boom := errors.New("boom")
	ok := &fakeSink{name: "ok"}
	bad := &fakeSink{name: "bad", err: boom}
	m := NewMulti(zaptest.NewLogger(t), ok, bad)
	defer m.Close()

	err := m.Publish(context.Background(), BlockDeltas{BlockNumber: 9})
	require.Error(t, err)
	require.ErrorIs(t, err, boom)
}

func TestMultiWithoutSinks(t *testing.T) {
	m := NewMulti(nil)
	require.NoError(t, m.Publish(context.Background(), BlockDeltas{BlockNumber: 1}))
	require.NoError(t, m.Close())
}
