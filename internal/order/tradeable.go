package order

import "fmt"

// Tradeable identifies the thing an order trades: an instrument, a
// contract, or a strategy/instrument pair. Keys are immutable values;
// every field is rendered into Key(), so two keys are structurally equal
// exactly when their Key() strings match.
type Tradeable interface {
	// Key returns the stable display form used for lookup and reporting.
	Key() string
	// Equal reports structural equality with another key.
	Equal(other Tradeable) bool
}

// ObjectKey is the generic single-name key. Records deserialized from
// storage carry an ObjectKey built from the persisted display string.
type ObjectKey struct {
	Name string
}

func (k ObjectKey) Key() string { return k.Name }

func (k ObjectKey) Equal(other Tradeable) bool {
	return other != nil && k.Key() == other.Key()
}

func (k ObjectKey) String() string { return k.Key() }

// InstrumentKey identifies a single instrument.
type InstrumentKey struct {
	Instrument string
}

func (k InstrumentKey) Key() string { return k.Instrument }

func (k InstrumentKey) Equal(other Tradeable) bool {
	return other != nil && k.Key() == other.Key()
}

func (k InstrumentKey) String() string { return k.Key() }

// ContractKey identifies one deliverable contract of an instrument, e.g.
// EDOLLAR/20260300.
type ContractKey struct {
	Instrument string
	Contract   string
}

func (k ContractKey) Key() string {
	return fmt.Sprintf("%s/%s", k.Instrument, k.Contract)
}

func (k ContractKey) Equal(other Tradeable) bool {
	return other != nil && k.Key() == other.Key()
}

func (k ContractKey) String() string { return k.Key() }

// StrategyInstrumentKey identifies an instrument traded by a named
// strategy, the unit of the top stack level.
type StrategyInstrumentKey struct {
	Strategy   string
	Instrument string
}

func (k StrategyInstrumentKey) Key() string {
	return fmt.Sprintf("%s %s", k.Strategy, k.Instrument)
}

func (k StrategyInstrumentKey) Equal(other Tradeable) bool {
	return other != nil && k.Key() == other.Key()
}

func (k StrategyInstrumentKey) String() string { return k.Key() }
