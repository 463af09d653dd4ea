package store

import (
	"context"
	"errors"

	"ordstack/internal/order"
)

// Data-layer error kinds, matched with errors.Is by callers.
var (
	// ErrMissingData means no record exists for the requested id.
	ErrMissingData = errors.New("no data for key")

	// ErrExistingData means a record already exists and the caller did
	// not ask to overwrite.
	ErrExistingData = errors.New("data already exists for key")
)

// OrderStore persists order records one id at a time. The weak
// reference-by-id design means a caller never needs more than this:
// load one, save one, delete one.
type OrderStore interface {
	// Load returns the record stored under id, ErrMissingData if none.
	Load(ctx context.Context, id int64) (order.Record, error)

	// Save stores rec under id. Without overwrite an existing record is
	// an ErrExistingData error, never silently replaced.
	Save(ctx context.Context, id int64, rec order.Record, overwrite bool) error

	// Delete removes the record under id, ErrMissingData if none.
	Delete(ctx context.Context, id int64) error

	// ListIDs returns every stored id, ascending.
	ListIDs(ctx context.Context) ([]int64, error)
}
