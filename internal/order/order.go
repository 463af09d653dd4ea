package order

import (
	"fmt"
	"strings"
	"time"
)

// Sentinels for ids that have not been assigned yet. Ids are handed out
// by the stack on admission; a freshly built order has none.
const (
	NoOrderID int64 = -1
	NoParent  int64 = -1
)

// Order represents a desired or (partially) completed trade at one level
// of the execution stack. The same type backs strategy, instrument,
// contract and broker level orders; level-specific fields ride in the
// metadata map. Parent and child orders are referenced by id only, never
// by pointer, so each stack level persists and loads independently.
//
// An Order is a plain value: it starts no goroutines and does no I/O.
// The locked flag is an advisory marker honoured by cooperating stack
// managers (it survives persistence, so it can outlive a process run);
// it is not a mutex and does not make any method atomic.
type Order struct {
	key         Tradeable
	trade       TradeQuantity
	fill        TradeQuantity
	filledPrice FillPrice
	fillTime    time.Time

	id       int64
	locked   bool
	parent   int64
	children []int64
	active   bool

	meta map[string]any
}

// New builds an unsubmitted order for a desired trade: nothing filled,
// all prices NaN, no id, active.
func New(key Tradeable, trade TradeQuantity) *Order {
	t := trade.Copy()
	return &Order{
		key:         key,
		trade:       t,
		fill:        t.ZeroVersion(),
		filledPrice: NaNFillPrice(t),
		id:          NoOrderID,
		parent:      NoParent,
		active:      true,
	}
}

// Identity returns the key for the thing being traded.
func (o *Order) Identity() Tradeable { return o.key }

// Key returns the display key.
func (o *Order) Key() string { return o.key.Key() }

// Trade returns a copy of the desired quantity vector.
func (o *Order) Trade() TradeQuantity { return o.trade.Copy() }

// Filled returns a copy of the cumulative filled vector.
func (o *Order) Filled() TradeQuantity { return o.fill.Copy() }

// FilledPrice returns a copy of the most recent per-leg fill prices.
func (o *Order) FilledPrice() FillPrice { return o.filledPrice.Copy() }

// FillTime returns when the last fill happened, zero if never filled.
func (o *Order) FillTime() time.Time { return o.fillTime }

// Fill records a cumulative fill: the broker layer reports the total
// executed so far, not the increment. The fill must stay inside the
// desired trade leg-wise or nothing is recorded. A nil price leaves the
// current prices alone; a zero at defaults to now.
func (o *Order) Fill(cumulative TradeQuantity, price FillPrice, at time.Time) error {
	if cumulative.Len() != o.trade.Len() {
		return fmt.Errorf("fill %v for trade %v: %w", cumulative, o.trade, ErrShapeMismatch)
	}
	if !o.trade.Covers(cumulative) {
		return fmt.Errorf("fill %v for trade %v: %w", cumulative, o.trade, ErrOverFill)
	}
	if price != nil && price.Len() != o.trade.Len() {
		return fmt.Errorf("fill price %v for trade %v: %w", price, o.trade, ErrShapeMismatch)
	}
	o.fill = cumulative.Copy()
	if price != nil {
		o.filledPrice = price.Copy()
	}
	if at.IsZero() {
		at = time.Now()
	}
	o.fillTime = at
	return nil
}

// Remaining returns trade - fill, the quantity still to be placed
// downstream.
func (o *Order) Remaining() TradeQuantity {
	rem, _ := o.trade.Sub(o.fill) // same length by construction
	return rem
}

// RemainderOrder returns a new order for only the unexecuted part of
// this one: trade is the remaining quantity, nothing filled, prices NaN.
// Everything else is copied.
func (o *Order) RemainderOrder() *Order {
	out := o.copy()
	out.trade = o.Remaining()
	out.fill = out.trade.ZeroVersion()
	out.filledPrice = NaNFillPrice(out.trade)
	out.fillTime = time.Time{}
	return out
}

// WithTrade returns a copy with the desired trade replaced wholesale.
// Only sensible before the order has been admitted to the stack.
func (o *Order) WithTrade(trade TradeQuantity) *Order {
	out := o.copy()
	out.trade = trade.Copy()
	return out
}

// ShrinkToAbsLimit returns a copy whose trade has been proportionally
// shrunk with TradeQuantity.ScaleToAbsLimit.
func (o *Order) ShrinkToAbsLimit(maxAbs int64) *Order {
	out := o.copy()
	out.trade = o.trade.ScaleToAbsLimit(maxAbs)
	return out
}

// ShrinkToMinLegSize returns a copy whose trade has been proportionally
// shrunk with TradeQuantity.ReduceToMinLegSize.
func (o *Order) ShrinkToMinLegSize(minSize int64) *Order {
	out := o.copy()
	out.trade = o.trade.ReduceToMinLegSize(minSize)
	return out
}

// ID returns the stack id, NoOrderID before admission.
func (o *Order) ID() int64 { return o.id }

// HasID reports whether the order has been admitted to a stack.
func (o *Order) HasID() bool { return o.id != NoOrderID }

// AssignID sets the stack id. Ids are assigned exactly once; a second
// assignment fails whatever the value.
func (o *Order) AssignID(id int64) error {
	if o.HasID() {
		return fmt.Errorf("order %d already has an id: %w", o.id, ErrStateViolation)
	}
	o.id = id
	return nil
}

// Parent returns the id of the order one level up, NoParent if none.
func (o *Order) Parent() int64 { return o.parent }

// HasParent reports whether a parent has been assigned.
func (o *Order) HasParent() bool { return o.parent != NoParent }

// AssignParent links this order to its parent one level up. Like ids,
// parents are assigned exactly once.
func (o *Order) AssignParent(id int64) error {
	if o.HasParent() {
		return fmt.Errorf("order already has parent %d: %w", o.parent, ErrStateViolation)
	}
	o.parent = id
	return nil
}

// Children returns a copy of the child order ids one level down.
func (o *Order) Children() []int64 {
	if len(o.children) == 0 {
		return nil
	}
	out := make([]int64, len(o.children))
	copy(out, o.children)
	return out
}

// HasChildren reports whether any children have been linked.
func (o *Order) HasChildren() bool { return len(o.children) > 0 }

// SetChildren sets the children wholesale, legal only while the set is
// empty. A populated set only grows through AddChild, or is dropped
// entirely with ClearChildren.
func (o *Order) SetChildren(children []int64) error {
	if o.HasChildren() {
		return fmt.Errorf("order already has children %v, add one at a time: %w", o.children, ErrStateViolation)
	}
	o.children = append([]int64(nil), children...)
	return nil
}

// AddChild appends one child id.
func (o *Order) AddChild(id int64) {
	o.children = append(o.children, id)
}

// ClearChildren removes all child links.
func (o *Order) ClearChildren() {
	o.children = nil
}

// IsLocked reports the advisory lock flag.
func (o *Order) IsLocked() bool { return o.locked }

// Lock sets the advisory lock flag. Cooperating stack managers check it
// before mutating; nothing here enforces that.
func (o *Order) Lock() { o.locked = true }

// Unlock clears the advisory lock flag.
func (o *Order) Unlock() { o.locked = false }

// Active reports whether the order is still working. Inactive orders
// have been filled or cancelled.
func (o *Order) Active() bool { return o.active }

// Deactivate retires the order. There is no way back.
func (o *Order) Deactivate() { o.active = false }

// ZeroOut administratively cancels an order with no executed quantity:
// the fill is zeroed and the order deactivated.
func (o *Order) ZeroOut() {
	o.fill = o.trade.ZeroVersion()
	o.Deactivate()
}

// SetTradeToFill collapses the desired trade down to what actually
// executed, used before retiring a partially filled order.
func (o *Order) SetTradeToFill() {
	o.trade = o.fill.Copy()
}

// FillIsZero reports whether nothing has executed yet.
func (o *Order) FillIsZero() bool { return o.fill.IsZero() }

// FillEqualsTrade reports whether the order is completely filled.
func (o *Order) FillEqualsTrade() bool { return o.fill.Equals(o.trade) }

// IsZeroTrade reports whether the desired trade itself is zero.
func (o *Order) IsZeroTrade() bool { return o.trade.IsZero() }

// SameIdentity reports whether both orders trade the same thing.
func (o *Order) SameIdentity(other *Order) bool {
	return o.key.Equal(other.key)
}

// Equals reports whether two orders represent the same desired trade:
// same identity key and same trade vector. Fill state, id and metadata
// are deliberately excluded so a duplicate submission is detected
// whatever its execution progress.
func (o *Order) Equals(other *Order) bool {
	return o.SameIdentity(other) && o.trade.Equals(other.trade)
}

// Meta returns one metadata value.
func (o *Order) Meta(key string) (any, bool) {
	v, ok := o.meta[key]
	return v, ok
}

// SetMeta stores one metadata value. The core treats metadata as opaque;
// it round-trips through serialization untouched.
func (o *Order) SetMeta(key string, value any) {
	if o.meta == nil {
		o.meta = make(map[string]any)
	}
	o.meta[key] = value
}

// Metadata returns a copy of the metadata map.
func (o *Order) Metadata() map[string]any {
	if len(o.meta) == 0 {
		return nil
	}
	out := make(map[string]any, len(o.meta))
	for k, v := range o.meta {
		out[k] = v
	}
	return out
}

func (o *Order) String() string {
	var flags []string
	if o.locked {
		flags = append(flags, "LOCKED")
	}
	if !o.active {
		flags = append(flags, "INACTIVE")
	}
	suffix := ""
	if len(flags) > 0 {
		suffix = " " + strings.Join(flags, " ")
	}
	id := "unset"
	if o.HasID() {
		id = fmt.Sprintf("%d", o.id)
	}
	parent := "none"
	if o.HasParent() {
		parent = fmt.Sprintf("%d", o.parent)
	}
	return fmt.Sprintf("(Order ID:%s) For %s, qty %s fill %s, parent:%s children:%v%s",
		id, o.Key(), o.trade, o.fill, parent, o.children, suffix)
}

// Copy returns a deep copy carrying the full state, including id,
// linkage, lock, and metadata.
func (o *Order) Copy() *Order { return o.copy() }

func (o *Order) copy() *Order {
	out := &Order{
		key:         o.key,
		trade:       o.trade.Copy(),
		fill:        o.fill.Copy(),
		filledPrice: o.filledPrice.Copy(),
		fillTime:    o.fillTime,
		id:          o.id,
		locked:      o.locked,
		parent:      o.parent,
		active:      o.active,
	}
	if len(o.children) > 0 {
		out.children = append([]int64(nil), o.children...)
	}
	if len(o.meta) > 0 {
		out.meta = make(map[string]any, len(o.meta))
		for k, v := range o.meta {
			out.meta[k] = v
		}
	}
	return out
}
