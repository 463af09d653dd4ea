package limits

import (
	"context"
	"path/filepath"
	"testing"

	"ordstack/internal/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testLimits(t *testing.T) *TradeLimits {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "limits.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	tl, err := New(db)
	require.NoError(t, err)
	return tl
}

func TestPossibleTradeWithoutLimits(t *testing.T) {
	ctx := context.Background()
	tl := testLimits(t)

	proposed := order.NewTradeQuantity([]int64{10, -5})
	possible, err := tl.PossibleTrade(ctx, "CRUDE_W", proposed)
	require.NoError(t, err)
	assert.True(t, possible.Equals(proposed))
}

func TestPossibleTradeClipsProportionally(t *testing.T) {
	ctx := context.Background()
	tl := testLimits(t)
	require.NoError(t, tl.SetLimit(ctx, "CRUDE_W", 1, 3))

	possible, err := tl.PossibleTrade(ctx, "CRUDE_W", order.NewTradeQuantity([]int64{10, -5}))
	require.NoError(t, err)
	assert.True(t, possible.Equals(order.NewTradeQuantity([]int64{6, -3})))
}

func TestBudgetConsumedAndReleased(t *testing.T) {
	ctx := context.Background()
	tl := testLimits(t)
	require.NoError(t, tl.SetLimit(ctx, "EDOLLAR", 1, 10))

	require.NoError(t, tl.AddTrade(ctx, "EDOLLAR", order.SingleLeg(7)))
	possible, err := tl.PossibleTrade(ctx, "EDOLLAR", order.SingleLeg(10))
	require.NoError(t, err)
	assert.True(t, possible.Equals(order.SingleLeg(3)))

	require.NoError(t, tl.RemoveTrade(ctx, "EDOLLAR", order.SingleLeg(7)))
	possible, err = tl.PossibleTrade(ctx, "EDOLLAR", order.SingleLeg(10))
	require.NoError(t, err)
	assert.True(t, possible.Equals(order.SingleLeg(10)))
}

func TestExhaustedBudgetGivesZeroTrade(t *testing.T) {
	ctx := context.Background()
	tl := testLimits(t)
	require.NoError(t, tl.SetLimit(ctx, "EDOLLAR", 1, 5))

	require.NoError(t, tl.AddTrade(ctx, "EDOLLAR", order.SingleLeg(5)))
	possible, err := tl.PossibleTrade(ctx, "EDOLLAR", order.SingleLeg(4))
	require.NoError(t, err)
	assert.True(t, possible.IsZero())
}

func TestTightestOfSeveralLimitsWins(t *testing.T) {
	ctx := context.Background()
	tl := testLimits(t)
	require.NoError(t, tl.SetLimit(ctx, "EDOLLAR", 1, 3))
	require.NoError(t, tl.SetLimit(ctx, "EDOLLAR", 30, 8))

	possible, err := tl.PossibleTrade(ctx, "EDOLLAR", order.SingleLeg(10))
	require.NoError(t, err)
	assert.True(t, possible.Equals(order.SingleLeg(3)))
}

func TestResetLimit(t *testing.T) {
	ctx := context.Background()
	tl := testLimits(t)
	require.NoError(t, tl.SetLimit(ctx, "EDOLLAR", 1, 5))
	require.NoError(t, tl.AddTrade(ctx, "EDOLLAR", order.SingleLeg(5)))

	require.NoError(t, tl.ResetLimit(ctx, "EDOLLAR", 1))
	possible, err := tl.PossibleTrade(ctx, "EDOLLAR", order.SingleLeg(5))
	require.NoError(t, err)
	assert.True(t, possible.Equals(order.SingleLeg(5)))
}
