package stack

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ordstack/internal/logger"
	"ordstack/internal/order"
	"ordstack/internal/store"
)

// Stack-level error kinds.
var (
	// ErrDuplicateOrder means an equal desired trade (same key, same
	// trade vector) is already on the stack.
	ErrDuplicateOrder = errors.New("equal order already on stack")

	// ErrLockedOrder means the order's advisory lock is set and the
	// requested mutation was refused.
	ErrLockedOrder = errors.New("order is locked")

	// ErrZeroTrade means an order with a zero desired trade was offered
	// for admission.
	ErrZeroTrade = errors.New("zero trade")

	// ErrNotRemovable means removal was asked for an order that is still
	// active, locked, or has children.
	ErrNotRemovable = errors.New("order not removable")
)

// Stack is one level of the order-management hierarchy: it admits
// orders, hands out their ids, honours the advisory lock, applies
// cumulative fills, and maintains the strictly-once parent/child
// linkage. Orders are held only through the store, one record per id,
// so several processes can cooperate on the same stack.
type Stack struct {
	name  string
	store store.OrderStore

	mu     sync.Mutex
	nextID int64
}

// New builds a stack over st. The id counter resumes above the highest
// persisted id so reopened stacks never reissue one.
func New(ctx context.Context, name string, st store.OrderStore) (*Stack, error) {
	ids, err := st.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening %s stack: %w", name, err)
	}
	next := int64(1)
	if len(ids) > 0 {
		next = ids[len(ids)-1] + 1
	}
	return &Stack{name: name, store: st, nextID: next}, nil
}

// Name returns the stack level name used in logs.
func (s *Stack) Name() string { return s.name }

// Put admits an unsubmitted order: it is checked against the live stack
// for duplicates, assigned the next id, and persisted. The assigned id
// is returned.
func (s *Stack) Put(ctx context.Context, o *order.Order) (int64, error) {
	if o.IsZeroTrade() {
		return order.NoOrderID, fmt.Errorf("putting order for %s: %w", o.Key(), ErrZeroTrade)
	}
	if o.HasID() {
		return order.NoOrderID, fmt.Errorf("order %d already admitted: %w", o.ID(), order.ErrStateViolation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	live, err := s.activeLocked(ctx)
	if err != nil {
		return order.NoOrderID, err
	}
	if live.ContainsEqualOrder(o) {
		return order.NoOrderID, fmt.Errorf("putting order for %s trade %s: %w", o.Key(), o.Trade(), ErrDuplicateOrder)
	}

	// Persist a copy carrying the id first; the caller's order takes
	// the id only once the write lands, so a failed save leaves it
	// unadmitted and Put can simply be retried.
	id := s.nextID
	admitted := o.Copy()
	if err := admitted.AssignID(id); err != nil {
		return order.NoOrderID, err
	}
	if err := s.store.Save(ctx, id, admitted.ToRecord(), false); err != nil {
		return order.NoOrderID, fmt.Errorf("saving order %d: %w", id, err)
	}
	if err := o.AssignID(id); err != nil {
		return order.NoOrderID, err
	}
	s.nextID++
	logger.Infof("%s stack: admitted order %d for %s trade %s", s.name, id, o.Key(), o.Trade())
	return id, nil
}

// Get loads one order by id.
func (s *Stack) Get(ctx context.Context, id int64) (*order.Order, error) {
	rec, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return order.FromRecord(rec)
}

// List loads every order on the stack.
func (s *Stack) List(ctx context.Context) (order.List, error) {
	ids, err := s.store.ListIDs(ctx)
	if err != nil {
		return nil, err
	}
	out := make(order.List, 0, len(ids))
	for _, id := range ids {
		o, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// ActiveOrders loads the orders still working.
func (s *Stack) ActiveOrders(ctx context.Context) (order.List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLocked(ctx)
}

func (s *Stack) activeLocked(ctx context.Context) (order.List, error) {
	ids, err := s.store.ListIDs(ctx)
	if err != nil {
		return nil, err
	}
	var out order.List
	for _, id := range ids {
		rec, err := s.store.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		o, err := order.FromRecord(rec)
		if err != nil {
			return nil, err
		}
		if o.Active() {
			out = append(out, o)
		}
	}
	return out, nil
}

// Lock sets the advisory lock on a persisted order. The flag lives in
// the record, so it outlives this process.
func (s *Stack) Lock(ctx context.Context, id int64) error {
	return s.update(ctx, id, func(o *order.Order) error {
		o.Lock()
		return nil
	})
}

// Unlock clears the advisory lock on a persisted order.
func (s *Stack) Unlock(ctx context.Context, id int64) error {
	return s.update(ctx, id, func(o *order.Order) error {
		o.Unlock()
		return nil
	})
}

// AddChildren links child orders to a parent, both directions, each
// strictly once. Children must already be on a stack (have ids).
//
// Linkage is not transactional. A failure part-way leaves the already
// processed children parented without the parent's list updated; the
// caller must inspect and repair, typically by locking the parent and
// re-linking the unparented children.
func (s *Stack) AddChildren(ctx context.Context, childStack *Stack, parentID int64, childIDs ...int64) error {
	for _, childID := range childIDs {
		if err := childStack.update(ctx, childID, func(child *order.Order) error {
			return child.AssignParent(parentID)
		}); err != nil {
			return fmt.Errorf("linking child %d to parent %d: %w", childID, parentID, err)
		}
	}
	return s.update(ctx, parentID, func(parent *order.Order) error {
		for _, childID := range childIDs {
			parent.AddChild(childID)
		}
		return nil
	})
}

// ApplyFill records a cumulative fill on a persisted order, refusing
// locked orders. A completely filled order is deactivated before it is
// written back.
func (s *Stack) ApplyFill(ctx context.Context, id int64, fill order.TradeQuantity, price order.FillPrice, at time.Time) error {
	return s.update(ctx, id, func(o *order.Order) error {
		if o.IsLocked() {
			return fmt.Errorf("filling order %d: %w", id, ErrLockedOrder)
		}
		if err := o.Fill(fill, price, at); err != nil {
			return err
		}
		if o.FillEqualsTrade() {
			o.Deactivate()
			logger.Infof("%s stack: order %d for %s completely filled at %s", s.name, id, o.Key(), o.FilledPrice())
		} else {
			logger.Infof("%s stack: order %d for %s filled %s of %s", s.name, id, o.Key(), o.Filled(), o.Trade())
		}
		return nil
	})
}

// ZeroOut administratively cancels an unfilled persisted order.
func (s *Stack) ZeroOut(ctx context.Context, id int64) error {
	return s.update(ctx, id, func(o *order.Order) error {
		if o.IsLocked() {
			return fmt.Errorf("zeroing order %d: %w", id, ErrLockedOrder)
		}
		o.ZeroOut()
		return nil
	})
}

// Remove deletes a retired order from the stack: it must be inactive,
// unlocked, and have no remaining child links.
func (s *Stack) Remove(ctx context.Context, id int64) error {
	o, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if o.Active() || o.IsLocked() || o.HasChildren() {
		return fmt.Errorf("removing order %d: %w", id, ErrNotRemovable)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	logger.Infof("%s stack: removed order %d for %s", s.name, id, o.Key())
	return nil
}

// update loads an order, applies fn, and writes it back. The advisory
// lock is checked by the operations that must honour it, not here: lock
// and unlock themselves go through this path too.
func (s *Stack) update(ctx context.Context, id int64, fn func(*order.Order) error) error {
	rec, err := s.store.Load(ctx, id)
	if err != nil {
		return err
	}
	o, err := order.FromRecord(rec)
	if err != nil {
		return err
	}
	if err := fn(o); err != nil {
		return err
	}
	return s.store.Save(ctx, id, o.ToRecord(), true)
}
