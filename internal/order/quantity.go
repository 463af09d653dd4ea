package order

import (
	"fmt"
	"strconv"
	"strings"
)

// TradeQuantity is a per-leg signed quantity vector. A single-instrument
// trade has one leg; a calendar spread has one leg per contract, in a
// fixed leg order agreed by the caller (the vector does not describe its
// own leg order). Length is fixed once constructed.
type TradeQuantity []int64

// SingleLeg wraps a scalar quantity as a one-leg vector.
func SingleLeg(qty int64) TradeQuantity {
	return TradeQuantity{qty}
}

// NewTradeQuantity copies qty into a fresh vector.
func NewTradeQuantity(qty []int64) TradeQuantity {
	out := make(TradeQuantity, len(qty))
	copy(out, qty)
	return out
}

// Copy returns an independent copy.
func (tq TradeQuantity) Copy() TradeQuantity {
	return NewTradeQuantity(tq)
}

// Leg returns the quantity for one leg.
func (tq TradeQuantity) Leg(i int) int64 { return tq[i] }

// Len returns the number of legs.
func (tq TradeQuantity) Len() int { return len(tq) }

// IsZero reports whether every leg is zero.
func (tq TradeQuantity) IsZero() bool {
	for _, q := range tq {
		if q != 0 {
			return false
		}
	}
	return true
}

// ZeroVersion returns an all-zero vector of the same length.
func (tq TradeQuantity) ZeroVersion() TradeQuantity {
	return make(TradeQuantity, len(tq))
}

// Equals reports element-wise equality. Vectors of different length are
// never equal.
func (tq TradeQuantity) Equals(other TradeQuantity) bool {
	if len(tq) != len(other) {
		return false
	}
	for i, q := range tq {
		if q != other[i] {
			return false
		}
	}
	return true
}

// Sub returns tq - other leg-wise.
func (tq TradeQuantity) Sub(other TradeQuantity) (TradeQuantity, error) {
	if len(tq) != len(other) {
		return nil, fmt.Errorf("subtracting %d legs from %d legs: %w", len(other), len(tq), ErrShapeMismatch)
	}
	out := make(TradeQuantity, len(tq))
	for i, q := range tq {
		out[i] = q - other[i]
	}
	return out, nil
}

// Covers reports whether a proposed cumulative fill stays within this
// desired trade: same leg count and, per leg, |fill| <= |trade| with the
// fill's sign matching the trade's (or zero).
func (tq TradeQuantity) Covers(fill TradeQuantity) bool {
	if len(tq) != len(fill) {
		return false
	}
	for i, q := range tq {
		f := fill[i]
		if absQty(f) > absQty(q) {
			return false
		}
		if f*q < 0 {
			return false
		}
	}
	return true
}

// BuyOrSell returns +1 for a buy, -1 for a sell and 0 for a zero trade,
// judged by the first leg (leg order convention puts the near leg first).
func (tq TradeQuantity) BuyOrSell() int {
	if len(tq) == 0 || tq[0] == 0 {
		return 0
	}
	if tq[0] > 0 {
		return 1
	}
	return -1
}

// AsSingleLeg returns the scalar quantity of a one-leg vector.
func (tq TradeQuantity) AsSingleLeg() (int64, error) {
	if len(tq) != 1 {
		return 0, fmt.Errorf("%d legs where a single leg trade is required: %w", len(tq), ErrShapeMismatch)
	}
	return tq[0], nil
}

// Abs returns the vector with every leg made non-negative.
func (tq TradeQuantity) Abs() TradeQuantity {
	out := make(TradeQuantity, len(tq))
	for i, q := range tq {
		out[i] = absQty(q)
	}
	return out
}

// MaxAbsLeg returns the largest absolute leg size.
func (tq TradeQuantity) MaxAbsLeg() int64 {
	var max int64
	for _, q := range tq {
		if a := absQty(q); a > max {
			max = a
		}
	}
	return max
}

// MinAbsLeg returns the smallest nonzero absolute leg size, or zero for
// a zero vector.
func (tq TradeQuantity) MinAbsLeg() int64 {
	var min int64
	for _, q := range tq {
		a := absQty(q)
		if a == 0 {
			continue
		}
		if min == 0 || a < min {
			min = a
		}
	}
	return min
}

// ScaleToAbsLimit proportionally shrinks the trade so its smallest leg
// does not exceed maxAbs, preserving leg ratios and signs. Shrinking a
// spread by anything other than a whole ratio step would change its
// economic exposure, so legs truncate toward zero; an all-zero result
// signals a trade too small to place, not an error.
func (tq TradeQuantity) ScaleToAbsLimit(maxAbs int64) TradeQuantity {
	return tq.scaleSmallestLegTo(maxAbs)
}

// ReduceToMinLegSize proportionally shrinks the trade so the leg with the
// smallest absolute size is capped at minSize. Used when liquidity on one
// leg of a spread limits the whole trade.
func (tq TradeQuantity) ReduceToMinLegSize(minSize int64) TradeQuantity {
	return tq.scaleSmallestLegTo(minSize)
}

func (tq TradeQuantity) scaleSmallestLegTo(limit int64) TradeQuantity {
	if limit < 0 {
		limit = 0
	}
	smallest := tq.MinAbsLeg()
	if smallest == 0 || smallest <= limit {
		return tq.Copy()
	}
	out := make(TradeQuantity, len(tq))
	for i, q := range tq {
		scaled := absQty(q) * limit / smallest
		if q < 0 {
			scaled = -scaled
		}
		out[i] = scaled
	}
	return out
}

// SpreadPrice returns the sign-adjusted sum of per-leg prices, the
// conventional quoted price of a spread. Only meaningful for multi-leg
// trades but defined for any shape.
func (tq TradeQuantity) SpreadPrice(prices FillPrice) (float64, error) {
	if len(tq) != len(prices) {
		return 0, fmt.Errorf("%d prices for %d legs: %w", len(prices), len(tq), ErrShapeMismatch)
	}
	var total float64
	for i, q := range tq {
		switch {
		case q > 0:
			total += prices[i]
		case q < 0:
			total -= prices[i]
		}
	}
	return total, nil
}

func (tq TradeQuantity) String() string {
	parts := make([]string, len(tq))
	for i, q := range tq {
		parts[i] = strconv.FormatInt(q, 10)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func absQty(q int64) int64 {
	if q < 0 {
		return -q
	}
	return q
}
