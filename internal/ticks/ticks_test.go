package ticks

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"priceScope/internal/model"
	"priceScope/internal/store"
)

const pool = "8ad599c3a0ff1de082011efddc58f1908eb6e6d8"

func mint(lower, upper int32, ordinal uint64) model.Event {
	return model.Event{
		Kind:        model.EventMint,
		PoolAddress: pool,
		LogOrdinal:  ordinal,
		Mint:        &model.MintEventData{TickLower: lower, TickUpper: upper, Amount: "1"},
	}
}

func TestMintWritesBothBoundaries(t *testing.T) {
	st := store.New("ticks", store.PolicySet)
	s := New(st, zaptest.NewLogger(t))

	require.NoError(t, s.HandleMint(mint(0, 60, 1)))

	zero, ok := s.Tick(pool, 0)
	require.True(t, ok)
	require.Equal(t, "0", zero.Idx)
	require.Equal(t, "1", zero.Price0)
	require.Equal(t, "1", zero.Price1)

	_, ok = s.Tick(pool, 60)
	require.True(t, ok)
	require.Len(t, st.Commit(), 2)
}

func TestTicksAreWriteOnce(t *testing.T) {
	st := store.New("ticks", store.PolicySet)
	s := New(st, zaptest.NewLogger(t))

	require.NoError(t, s.HandleMint(mint(-60, 60, 1)))
	require.NoError(t, s.HandleMint(mint(-60, 120, 2)))
	require.Len(t, st.Commit(), 3)
}

func TestBurnIsIgnored(t *testing.T) {
	st := store.New("ticks", store.PolicySet)
	s := New(st, zaptest.NewLogger(t))

	burn := model.Event{Kind: model.EventBurn, PoolAddress: pool, Burn: &model.BurnEventData{TickLower: -10, TickUpper: 10}}
	require.NoError(t, s.HandleMint(burn))
	require.Empty(t, st.Commit())
}
