package order

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FillPrice is a per-leg price vector. Legs with no fill yet hold NaN.
// Same leg order convention as TradeQuantity.
type FillPrice []float64

// SingleLegPrice wraps a scalar price as a one-leg vector.
func SingleLegPrice(price float64) FillPrice {
	return FillPrice{price}
}

// NewFillPrice copies prices into a fresh vector.
func NewFillPrice(prices []float64) FillPrice {
	out := make(FillPrice, len(prices))
	copy(out, prices)
	return out
}

// NaNFillPrice returns an all-NaN vector sized from a trade, the state of
// an order with no fills.
func NaNFillPrice(trade TradeQuantity) FillPrice {
	out := make(FillPrice, trade.Len())
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// Copy returns an independent copy.
func (fp FillPrice) Copy() FillPrice {
	return NewFillPrice(fp)
}

// Leg returns the price for one leg.
func (fp FillPrice) Leg(i int) float64 { return fp[i] }

// Len returns the number of legs.
func (fp FillPrice) Len() int { return len(fp) }

// IsAllNaN reports whether no leg has a price yet.
func (fp FillPrice) IsAllNaN() bool {
	for _, p := range fp {
		if !math.IsNaN(p) {
			return false
		}
	}
	return true
}

// Equals reports element-wise equality, treating NaN legs as equal to
// NaN legs so that unfilled orders compare equal after a round trip.
func (fp FillPrice) Equals(other FillPrice) bool {
	if len(fp) != len(other) {
		return false
	}
	for i, p := range fp {
		q := other[i]
		if math.IsNaN(p) && math.IsNaN(q) {
			continue
		}
		if p != q {
			return false
		}
	}
	return true
}

func (fp FillPrice) String() string {
	parts := make([]string, len(fp))
	for i, p := range fp {
		parts[i] = strconv.FormatFloat(p, 'g', -1, 64)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// AverageFillPrice collapses the prices of several partial fills into one
// effective price per leg: each leg averages the non-NaN prices observed
// across the history, and stays NaN if no entry priced it.
func AverageFillPrice(history []FillPrice) (FillPrice, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("averaging fill prices: %w", ErrEmptyInput)
	}
	legs := len(history[0])
	for _, fp := range history[1:] {
		if len(fp) != legs {
			return nil, fmt.Errorf("averaging fill prices over %d and %d legs: %w", legs, len(fp), ErrShapeMismatch)
		}
	}
	out := make(FillPrice, legs)
	for leg := 0; leg < legs; leg++ {
		var sum float64
		var n int
		for _, fp := range history {
			if p := fp[leg]; !math.IsNaN(p) {
				sum += p
				n++
			}
		}
		if n == 0 {
			out[leg] = math.NaN()
		} else {
			out[leg] = sum / float64(n)
		}
	}
	return out, nil
}

// LatestFillTime resolves several fill timestamps to the most recent one,
// ignoring zero entries. A fill reported in pieces carries the time of
// its last piece.
func LatestFillTime(times []time.Time) (time.Time, error) {
	var latest time.Time
	for _, t := range times {
		if t.IsZero() {
			continue
		}
		if t.After(latest) {
			latest = t
		}
	}
	if latest.IsZero() {
		return time.Time{}, fmt.Errorf("resolving latest fill time: %w", ErrEmptyInput)
	}
	return latest, nil
}

// AdjustSpreadBenchmark shifts per-leg benchmark prices so that the
// spread price they imply for trade matches an actually traded spread
// price. Used to back per-leg prices out of a spread execution.
func AdjustSpreadBenchmark(trade TradeQuantity, benchmark FillPrice, actualSpreadPrice float64) (FillPrice, error) {
	implied, err := trade.SpreadPrice(benchmark)
	if err != nil {
		return nil, err
	}
	shift := actualSpreadPrice - implied
	out := make(FillPrice, len(benchmark))
	for i, p := range benchmark {
		out[i] = p + shift
	}
	return out, nil
}
