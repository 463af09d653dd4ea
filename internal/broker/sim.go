package broker

import (
	"context"
	"sync"
	"time"

	"ordstack/internal/logger"
	"ordstack/internal/order"
)

// SimFillSource fakes a venue for tests and demos: registered orders
// fill in a fixed number of equal cumulative stages at a given price.
// Each poll advances every working order by one stage.
type SimFillSource struct {
	mu     sync.Mutex
	queue  []simOrder
	stages int
	clock  func() time.Time
}

type simOrder struct {
	id    int64
	trade order.TradeQuantity
	price order.FillPrice
	stage int
}

// NewSimFillSource builds a simulator that completes every order in
// stages polls (minimum one).
func NewSimFillSource(stages int) *SimFillSource {
	if stages < 1 {
		stages = 1
	}
	return &SimFillSource{stages: stages, clock: time.Now}
}

// Register stages fills for an admitted order at the given price.
func (s *SimFillSource) Register(id int64, trade order.TradeQuantity, price order.FillPrice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, simOrder{id: id, trade: trade.Copy(), price: price.Copy()})
	logger.Debugf("sim broker: watching order %d for %s", id, trade)
}

// PendingFills advances every registered order one stage and reports
// the new cumulative fills. Completed orders drop out of the queue.
func (s *SimFillSource) PendingFills(_ context.Context) ([]FillEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var events []FillEvent
	remaining := s.queue[:0]
	for _, so := range s.queue {
		so.stage++
		events = append(events, FillEvent{
			OrderID: so.id,
			Fill:    stageFill(so.trade, so.stage, s.stages),
			Price:   so.price.Copy(),
			At:      s.clock(),
		})
		if so.stage < s.stages {
			remaining = append(remaining, so)
		}
	}
	s.queue = remaining
	return events, nil
}

// stageFill scales the full trade to stage/stages, truncating toward
// zero, with the final stage always the complete trade.
func stageFill(trade order.TradeQuantity, stage, stages int) order.TradeQuantity {
	if stage >= stages {
		return trade.Copy()
	}
	out := make(order.TradeQuantity, trade.Len())
	for i := 0; i < trade.Len(); i++ {
		out[i] = trade.Leg(i) * int64(stage) / int64(stages)
	}
	return out
}
