package order

import (
	"fmt"
	"math"
	"time"
)

// Record is the flat name-value form an order persists as. Known fields
// use the reserved names below; everything else is order metadata and
// passes through untouched.
type Record map[string]any

// Reserved record field names.
const (
	recordKey         = "key"
	recordTrade       = "trade"
	recordFill        = "fill"
	recordFillTime    = "fill_datetime"
	recordFilledPrice = "filled_price"
	recordLocked      = "locked"
	recordOrderID     = "order_id"
	recordParent      = "parent"
	recordChildren    = "children"
	recordActive      = "active"
)

// ToRecord serializes the order losslessly to a flat record. Single-leg
// vectors flatten to scalars, unset ids and an empty children set are
// simply absent, and the fill time normalizes to UTC at millisecond
// precision.
func (o *Order) ToRecord() Record {
	rec := Record{
		recordKey:         o.Key(),
		recordTrade:       qtyToField(o.trade),
		recordFill:        qtyToField(o.fill),
		recordFilledPrice: priceToField(o.filledPrice),
		recordLocked:      o.locked,
		recordActive:      o.active,
	}
	if !o.fillTime.IsZero() {
		rec[recordFillTime] = normalizeFillTime(o.fillTime)
	}
	if o.HasID() {
		rec[recordOrderID] = o.id
	}
	if o.HasParent() {
		rec[recordParent] = o.parent
	}
	if len(o.children) > 0 {
		rec[recordChildren] = append([]int64(nil), o.children...)
	}
	for k, v := range o.meta {
		rec[k] = v
	}
	return rec
}

// FromRecord reconstructs an order from its flat record form. The key
// comes back as a generic ObjectKey built from the persisted display
// string. Unknown fields become metadata.
func FromRecord(rec Record) (*Order, error) {
	key, ok := rec[recordKey].(string)
	if !ok || key == "" {
		return nil, fmt.Errorf("order record has no key field")
	}
	trade, err := qtyFromField(rec[recordTrade])
	if err != nil {
		return nil, fmt.Errorf("order record trade: %w", err)
	}

	o := New(ObjectKey{Name: key}, trade)

	if raw, present := rec[recordFill]; present {
		fill, err := qtyFromField(raw)
		if err != nil {
			return nil, fmt.Errorf("order record fill: %w", err)
		}
		if fill.Len() != trade.Len() {
			return nil, fmt.Errorf("order record fill %v for trade %v: %w", fill, trade, ErrShapeMismatch)
		}
		o.fill = fill
	}
	if raw, present := rec[recordFilledPrice]; present {
		price, err := priceFromField(raw)
		if err != nil {
			return nil, fmt.Errorf("order record filled price: %w", err)
		}
		if price.Len() != trade.Len() {
			return nil, fmt.Errorf("order record price %v for trade %v: %w", price, trade, ErrShapeMismatch)
		}
		o.filledPrice = price
	}
	if raw, present := rec[recordFillTime]; present {
		at, err := timeFromField(raw)
		if err != nil {
			return nil, fmt.Errorf("order record fill time: %w", err)
		}
		o.fillTime = normalizeFillTime(at)
	}
	if raw, present := rec[recordOrderID]; present {
		id, err := intFromField(raw)
		if err != nil {
			return nil, fmt.Errorf("order record id: %w", err)
		}
		o.id = id
	}
	if raw, present := rec[recordParent]; present {
		parent, err := intFromField(raw)
		if err != nil {
			return nil, fmt.Errorf("order record parent: %w", err)
		}
		o.parent = parent
	}
	if raw, present := rec[recordChildren]; present {
		children, err := intSliceFromField(raw)
		if err != nil {
			return nil, fmt.Errorf("order record children: %w", err)
		}
		o.children = children
	}
	if locked, present := rec[recordLocked]; present {
		b, err := boolFromField(locked)
		if err != nil {
			return nil, fmt.Errorf("order record locked: %w", err)
		}
		o.locked = b
	}
	if active, present := rec[recordActive]; present {
		b, err := boolFromField(active)
		if err != nil {
			return nil, fmt.Errorf("order record active: %w", err)
		}
		o.active = b
	}

	for k, v := range rec {
		switch k {
		case recordKey, recordTrade, recordFill, recordFillTime,
			recordFilledPrice, recordLocked, recordOrderID,
			recordParent, recordChildren, recordActive:
		default:
			o.SetMeta(k, v)
		}
	}
	return o, nil
}

func normalizeFillTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func qtyToField(tq TradeQuantity) any {
	if tq.Len() == 1 {
		return tq[0]
	}
	return append([]int64(nil), tq...)
}

func priceToField(fp FillPrice) any {
	if fp.Len() == 1 {
		return fp[0]
	}
	return append([]float64(nil), fp...)
}

// Field coercion below accepts both the native Go shapes ToRecord emits
// and the widened shapes a JSON round trip produces (float64 scalars,
// []any lists, RFC 3339 strings for times).

func qtyFromField(raw any) (TradeQuantity, error) {
	switch v := raw.(type) {
	case []int64:
		return NewTradeQuantity(v), nil
	case []any:
		out := make(TradeQuantity, len(v))
		for i, e := range v {
			n, err := intFromField(e)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	default:
		n, err := intFromField(raw)
		if err != nil {
			return nil, err
		}
		return SingleLeg(n), nil
	}
}

func priceFromField(raw any) (FillPrice, error) {
	switch v := raw.(type) {
	case []float64:
		return NewFillPrice(v), nil
	case []any:
		out := make(FillPrice, len(v))
		for i, e := range v {
			p, err := floatFromField(e)
			if err != nil {
				return nil, err
			}
			out[i] = p
		}
		return out, nil
	default:
		p, err := floatFromField(raw)
		if err != nil {
			return nil, err
		}
		return SingleLegPrice(p), nil
	}
}

func intFromField(raw any) (int64, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("cannot read %T as integer", raw)
	}
}

func floatFromField(raw any) (float64, error) {
	switch v := raw.(type) {
	case nil:
		// JSON cannot carry NaN; stores write null for unpriced legs.
		return math.NaN(), nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("cannot read %T as float", raw)
	}
}

func intSliceFromField(raw any) ([]int64, error) {
	switch v := raw.(type) {
	case []int64:
		return append([]int64(nil), v...), nil
	case []any:
		out := make([]int64, len(v))
		for i, e := range v {
			n, err := intFromField(e)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cannot read %T as integer list", raw)
	}
}

func boolFromField(raw any) (bool, error) {
	b, ok := raw.(bool)
	if !ok {
		return false, fmt.Errorf("cannot read %T as bool", raw)
	}
	return b, nil
}

func timeFromField(raw any) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("cannot parse %q as time: %w", v, err)
		}
		return t, nil
	default:
		return time.Time{}, fmt.Errorf("cannot read %T as time", raw)
	}
}
