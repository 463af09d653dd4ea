package broker

import (
	"context"
	"time"

	"ordstack/internal/order"
)

// FillEvent is one cumulative fill report from a venue: the total
// executed so far on an order, never the increment.
type FillEvent struct {
	OrderID int64
	Fill    order.TradeQuantity
	Price   order.FillPrice
	At      time.Time
}

// FillSource is the broker-side collaborator the stack polls for fills.
// Implementations talk to a venue (or simulate one); the core never
// calls the venue directly.
type FillSource interface {
	// PendingFills returns the fill events reported since the last poll.
	PendingFills(ctx context.Context) ([]FillEvent, error)
}
