package limits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ordstack/internal/logger"
	"ordstack/internal/order"

	"gorm.io/gorm"
)

// limitRow is one per-key, per-period trade budget. The limit and usage
// are counted in units of the smallest leg, so a spread trade of
// [10, -5] consumes 5 units.
type limitRow struct {
	Key             string `gorm:"column:key;primaryKey"`
	PeriodDays      int    `gorm:"column:period_days;primaryKey"`
	MaxAbs          int64  `gorm:"column:max_abs"`
	UsedAbs         int64  `gorm:"column:used_abs"`
	PeriodStartUnix int64  `gorm:"column:period_start"`
}

func (limitRow) TableName() string { return "trade_limits" }

// TradeLimits enforces rolling per-period trade budgets per tradeable
// key. It never errors a trade for being too big: the caller gets back
// the largest proportionally scaled trade the remaining budget allows,
// possibly zero.
type TradeLimits struct {
	db *gorm.DB
}

func New(db *gorm.DB) (*TradeLimits, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db cannot be nil")
	}
	if err := db.AutoMigrate(&limitRow{}); err != nil {
		return nil, err
	}
	return &TradeLimits{db: db}, nil
}

// SetLimit creates or replaces the budget for key over periodDays.
func (tl *TradeLimits) SetLimit(ctx context.Context, key string, periodDays int, maxAbs int64) error {
	if periodDays <= 0 || maxAbs < 0 {
		return fmt.Errorf("limit for %s: period %d days, max %d is invalid", key, periodDays, maxAbs)
	}
	row := limitRow{
		Key:             key,
		PeriodDays:      periodDays,
		MaxAbs:          maxAbs,
		PeriodStartUnix: time.Now().Unix(),
	}
	return tl.db.WithContext(ctx).Save(&row).Error
}

// ResetLimit zeroes the usage for one budget.
func (tl *TradeLimits) ResetLimit(ctx context.Context, key string, periodDays int) error {
	return tl.db.WithContext(ctx).Model(&limitRow{}).
		Where("key = ? AND period_days = ?", key, periodDays).
		Updates(map[string]any{"used_abs": 0, "period_start": time.Now().Unix()}).Error
}

// PossibleTrade clips a proposed trade to what every budget for key
// still allows, preserving leg ratios. With no budgets configured the
// proposal comes back unchanged.
func (tl *TradeLimits) PossibleTrade(ctx context.Context, key string, proposed order.TradeQuantity) (order.TradeQuantity, error) {
	rows, err := tl.rowsForKey(ctx, key)
	if err != nil {
		return nil, err
	}
	possible := proposed.Copy()
	now := time.Now()
	for i := range rows {
		row := rolledOver(rows[i], now)
		remaining := row.MaxAbs - row.UsedAbs
		if remaining < 0 {
			remaining = 0
		}
		clipped := possible.ScaleToAbsLimit(remaining)
		if !clipped.Equals(possible) {
			logger.Warnf("trade limit %s/%dd: clipped %s to %s", key, row.PeriodDays, possible, clipped)
		}
		possible = clipped
		if row != rows[i] {
			if err := tl.db.WithContext(ctx).Save(&row).Error; err != nil {
				return nil, err
			}
		}
	}
	return possible, nil
}

// AddTrade consumes budget for an executed trade.
func (tl *TradeLimits) AddTrade(ctx context.Context, key string, executed order.TradeQuantity) error {
	return tl.adjustUsage(ctx, key, executed.MinAbsLeg())
}

// RemoveTrade releases budget, used when a recorded trade is backed out.
func (tl *TradeLimits) RemoveTrade(ctx context.Context, key string, executed order.TradeQuantity) error {
	return tl.adjustUsage(ctx, key, -executed.MinAbsLeg())
}

func (tl *TradeLimits) adjustUsage(ctx context.Context, key string, delta int64) error {
	rows, err := tl.rowsForKey(ctx, key)
	if err != nil {
		return err
	}
	now := time.Now()
	for i := range rows {
		row := rolledOver(rows[i], now)
		row.UsedAbs += delta
		if row.UsedAbs < 0 {
			row.UsedAbs = 0
		}
		if err := tl.db.WithContext(ctx).Save(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

func (tl *TradeLimits) rowsForKey(ctx context.Context, key string) ([]limitRow, error) {
	var rows []limitRow
	err := tl.db.WithContext(ctx).
		Where("key = ?", key).
		Order("period_days ASC").
		Find(&rows).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("loading limits for %s: %w", key, err)
	}
	return rows, nil
}

// rolledOver resets usage when the budget's period has elapsed.
func rolledOver(row limitRow, now time.Time) limitRow {
	periodEnd := time.Unix(row.PeriodStartUnix, 0).Add(time.Duration(row.PeriodDays) * 24 * time.Hour)
	if now.After(periodEnd) {
		row.UsedAbs = 0
		row.PeriodStartUnix = now.Unix()
	}
	return row
}
