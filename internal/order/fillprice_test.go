package order

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNaNFillPrice(t *testing.T) {
	fp := NaNFillPrice(NewTradeQuantity([]int64{3, -3}))
	assert.Equal(t, 2, fp.Len())
	assert.True(t, fp.IsAllNaN())
}

func TestFillPriceEquals(t *testing.T) {
	nan := math.NaN()
	assert.True(t, NewFillPrice([]float64{100, nan}).Equals(NewFillPrice([]float64{100, nan})))
	assert.False(t, NewFillPrice([]float64{100, nan}).Equals(NewFillPrice([]float64{100, 50})))
	assert.False(t, SingleLegPrice(100).Equals(NewFillPrice([]float64{100, 100})))
}

func TestAverageFillPrice(t *testing.T) {
	nan := math.NaN()

	t.Run("per leg ignoring NaN", func(t *testing.T) {
		avg, err := AverageFillPrice([]FillPrice{
			{100, nan},
			{nan, 50},
			{102, 52},
		})
		require.NoError(t, err)
		assert.InDelta(t, 101, avg.Leg(0), 1e-9)
		assert.InDelta(t, 51, avg.Leg(1), 1e-9)
	})

	t.Run("leg with no prices stays NaN", func(t *testing.T) {
		avg, err := AverageFillPrice([]FillPrice{
			{100, nan},
			{102, nan},
		})
		require.NoError(t, err)
		assert.InDelta(t, 101, avg.Leg(0), 1e-9)
		assert.True(t, math.IsNaN(avg.Leg(1)))
	})

	t.Run("empty history", func(t *testing.T) {
		_, err := AverageFillPrice(nil)
		assert.ErrorIs(t, err, ErrEmptyInput)
	})

	t.Run("ragged history", func(t *testing.T) {
		_, err := AverageFillPrice([]FillPrice{{100}, {100, 50}})
		assert.ErrorIs(t, err, ErrShapeMismatch)
	})
}

func TestLatestFillTime(t *testing.T) {
	early := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	late := time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC)

	t.Run("max ignoring zero entries", func(t *testing.T) {
		got, err := LatestFillTime([]time.Time{early, {}, late})
		require.NoError(t, err)
		assert.True(t, got.Equal(late))
	})

	t.Run("nothing valid", func(t *testing.T) {
		_, err := LatestFillTime([]time.Time{{}, {}})
		assert.ErrorIs(t, err, ErrEmptyInput)

		_, err = LatestFillTime(nil)
		assert.ErrorIs(t, err, ErrEmptyInput)
	})
}

func TestAdjustSpreadBenchmark(t *testing.T) {
	trade := NewTradeQuantity([]int64{1, -1})
	benchmark := NewFillPrice([]float64{102.0, 100.0})

	// Implied spread is 2.0; an actual traded spread of 2.5 shifts each
	// leg up by 0.5.
	adjusted, err := AdjustSpreadBenchmark(trade, benchmark, 2.5)
	require.NoError(t, err)
	assert.InDelta(t, 102.5, adjusted.Leg(0), 1e-9)
	assert.InDelta(t, 100.5, adjusted.Leg(1), 1e-9)

	_, err = AdjustSpreadBenchmark(trade, SingleLegPrice(100), 2.5)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}
