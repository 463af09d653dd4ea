package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ordstack/internal/order"
	"ordstack/internal/store"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type orderRow struct {
	OrderID       int64          `gorm:"column:order_id;primaryKey"`
	Key           string         `gorm:"column:key;index"`
	Active        bool           `gorm:"column:active"`
	Locked        bool           `gorm:"column:locked"`
	Record        datatypes.JSON `gorm:"column:record;type:TEXT"`
	UpdatedAtUnix int64          `gorm:"column:updated_at"`
}

func (orderRow) TableName() string { return "order_records" }

// OrderStore persists order records in SQLite through gorm. One row per
// order id; the full flat record rides in a JSON column, with the few
// fields worth querying on (key, active, locked) mirrored as columns.
type OrderStore struct {
	db *gorm.DB
}

var _ store.OrderStore = (*OrderStore)(nil)

// NewOrderStore opens (creating if needed) the database at path.
func NewOrderStore(path string) (*OrderStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return NewOrderStoreFromDB(db)
}

// NewOrderStoreFromDB wraps an already opened gorm handle, used when
// several stores share one database.
func NewOrderStoreFromDB(db *gorm.DB) (*OrderStore, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db cannot be nil")
	}
	if err := db.AutoMigrate(&orderRow{}); err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(2)
		sqlDB.SetMaxIdleConns(2)
	}
	return &OrderStore{db: db}, nil
}

// DB exposes the underlying gorm handle so sibling stores can share the
// same database file.
func (s *OrderStore) DB() *gorm.DB { return s.db }

func (s *OrderStore) Load(ctx context.Context, id int64) (order.Record, error) {
	var row orderRow
	err := s.db.WithContext(ctx).Where("order_id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("order %d: %w", id, store.ErrMissingData)
	}
	if err != nil {
		return nil, fmt.Errorf("loading order %d: %w", id, err)
	}
	return decodeRecord(row.Record)
}

func (s *OrderStore) Save(ctx context.Context, id int64, rec order.Record, overwrite bool) error {
	raw, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	row := orderRow{
		OrderID:       id,
		Key:           recordString(rec, "key"),
		Active:        recordBool(rec, "active"),
		Locked:        recordBool(rec, "locked"),
		Record:        raw,
		UpdatedAtUnix: time.Now().Unix(),
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&orderRow{}).Where("order_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			if !overwrite {
				return fmt.Errorf("order %d: %w", id, store.ErrExistingData)
			}
			return tx.Save(&row).Error
		}
		return tx.Create(&row).Error
	})
}

func (s *OrderStore) Delete(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Where("order_id = ?", id).Delete(&orderRow{})
	if res.Error != nil {
		return fmt.Errorf("deleting order %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order %d: %w", id, store.ErrMissingData)
	}
	return nil
}

func (s *OrderStore) ListIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := s.db.WithContext(ctx).Model(&orderRow{}).
		Order("order_id ASC").
		Pluck("order_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Close closes the underlying database.
func (s *OrderStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func recordString(rec order.Record, field string) string {
	s, _ := rec[field].(string)
	return s
}

func recordBool(rec order.Record, field string) bool {
	b, _ := rec[field].(bool)
	return b
}
