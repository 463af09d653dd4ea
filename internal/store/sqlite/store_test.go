package sqlite

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"ordstack/internal/order"
	"ordstack/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *OrderStore {
	t.Helper()
	s, err := NewOrderStore(filepath.Join(t.TempDir(), "orders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSqliteRoundTripSpreadWithNaN(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	o := order.New(order.ContractKey{Instrument: "CRUDE_W", Contract: "20260600"}, order.NewTradeQuantity([]int64{3, -3}))
	require.NoError(t, o.AssignID(12))
	require.NoError(t, o.Fill(
		order.NewTradeQuantity([]int64{1, 0}),
		order.NewFillPrice([]float64{78.25, math.NaN()}),
		time.Date(2024, 3, 1, 10, 0, 0, 123000000, time.UTC),
	))
	o.SetMeta("broker_ref", "IB-991")

	require.NoError(t, s.Save(ctx, 12, o.ToRecord(), false))

	rec, err := s.Load(ctx, 12)
	require.NoError(t, err)
	back, err := order.FromRecord(rec)
	require.NoError(t, err)

	assert.True(t, o.Equals(back))
	assert.Equal(t, int64(12), back.ID())
	assert.True(t, back.Filled().Equals(order.NewTradeQuantity([]int64{1, 0})))
	assert.InDelta(t, 78.25, back.FilledPrice().Leg(0), 1e-9)
	assert.True(t, math.IsNaN(back.FilledPrice().Leg(1)))
	assert.Equal(t, o.FillTime(), back.FillTime())

	ref, ok := back.Meta("broker_ref")
	require.True(t, ok)
	assert.Equal(t, "IB-991", ref)
}

func TestSqliteOverwriteContract(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	o := order.New(order.InstrumentKey{Instrument: "EDOLLAR"}, order.SingleLeg(10))
	require.NoError(t, o.AssignID(1))
	rec := o.ToRecord()

	require.NoError(t, s.Save(ctx, 1, rec, false))
	assert.ErrorIs(t, s.Save(ctx, 1, rec, false), store.ErrExistingData)

	require.NoError(t, o.Fill(order.SingleLeg(10), order.SingleLegPrice(99.5), time.Now()))
	require.NoError(t, s.Save(ctx, 1, o.ToRecord(), true))

	back, err := s.Load(ctx, 1)
	require.NoError(t, err)
	loaded, err := order.FromRecord(back)
	require.NoError(t, err)
	assert.True(t, loaded.FillEqualsTrade())
}

func TestSqliteMissingData(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	_, err := s.Load(ctx, 404)
	assert.ErrorIs(t, err, store.ErrMissingData)
	assert.ErrorIs(t, s.Delete(ctx, 404), store.ErrMissingData)
}

func TestSqliteListAndDelete(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	for _, id := range []int64{5, 2, 9} {
		o := order.New(order.InstrumentKey{Instrument: "EDOLLAR"}, order.SingleLeg(1))
		require.NoError(t, o.AssignID(id))
		require.NoError(t, s.Save(ctx, id, o.ToRecord(), false))
	}

	ids, err := s.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 5, 9}, ids)

	require.NoError(t, s.Delete(ctx, 5))
	ids, err = s.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 9}, ids)
}

func TestSqliteReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "orders.db")

	s, err := NewOrderStore(path)
	require.NoError(t, err)
	o := order.New(order.InstrumentKey{Instrument: "SP500"}, order.SingleLeg(-2))
	require.NoError(t, o.AssignID(1))
	o.Lock()
	require.NoError(t, s.Save(ctx, 1, o.ToRecord(), false))
	require.NoError(t, s.Close())

	// The advisory lock flag survives a process restart with the record.
	reopened, err := NewOrderStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	rec, err := reopened.Load(ctx, 1)
	require.NoError(t, err)
	back, err := order.FromRecord(rec)
	require.NoError(t, err)
	assert.True(t, back.IsLocked())
	assert.True(t, back.Trade().Equals(order.SingleLeg(-2)))
}
