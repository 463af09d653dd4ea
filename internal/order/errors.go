package order

import "errors"

// Contract-violation errors. All are synchronous and non-retryable: the
// caller supplied something that would corrupt the execution record, so
// nothing is clamped or auto-corrected.
var (
	// ErrOverFill means a proposed cumulative fill exceeds the desired
	// trade on at least one leg, or flips its sign.
	ErrOverFill = errors.New("fill exceeds desired trade")

	// ErrStateViolation means a set-once field (order id, parent, a
	// non-empty children set) was written a second time.
	ErrStateViolation = errors.New("order state violation")

	// ErrShapeMismatch means two per-leg vectors of different length were
	// combined or compared.
	ErrShapeMismatch = errors.New("leg count mismatch")

	// ErrEmptyInput means an aggregate (average price, latest fill time)
	// was asked for over nothing.
	ErrEmptyInput = errors.New("empty input")
)
