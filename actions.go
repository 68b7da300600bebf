package lotbook

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Actions is the corporate-action replay engine. Each action moves through
// received → validated → synthesized-or-rejected: an accepted action
// persists its own transaction as the audit record together with whatever
// buys it synthesizes, in one atomic batch; a rejected action persists
// nothing and surfaces its error.
//
// Only SPLIT is interpreted lazily at read time, because it scales every
// historical transaction uniformly. The other actions introduce a new asset
// identity or a partial cost transfer, so they must materialize transactions
// that preserve per-lot acquisition dates.
type Actions struct {
	ledger *Ledger
	log    zerolog.Logger
}

// NewActions creates a replay engine over a ledger.
func NewActions(l *Ledger, log zerolog.Logger) *Actions {
	return &Actions{ledger: l, log: log}
}

// ApplySplit validates and records a split. No transactions are synthesized:
// replay scales earlier transactions on the fly, keeping total consideration
// invariant.
func (e *Actions) ApplySplit(split Split) error {
	if err := e.ledger.Apply(Batch{Transactions: []Transaction{split}}); err != nil {
		return err
	}
	e.log.Info().Str("asset", split.AssetID()).
		Int64("num", split.Numerator).Int64("den", split.Denominator).
		Msg("split recorded")
	return nil
}

// ApplyBonus computes the bonus entitlement from holdings on the record date
// and synthesizes a zero-price buy for it. Zero holdings is not an error:
// the audit transaction is still recorded.
func (e *Actions) ApplyBonus(bonus Bonus) error {
	if err := bonus.Validate(e.ledger); err != nil {
		return err
	}
	holdings := e.ledger.HoldingsOnDate(bonus.AssetID(), bonus.When())
	entitled := holdings.Mul(bonus.ratio())
	if e.ledger.Asset(bonus.AssetID()).Class.WholeUnits() {
		entitled = entitled.Floor()
	}

	batch := Batch{Transactions: []Transaction{bonus}}
	if entitled.IsPositive() {
		buy := NewBuy(bonus.PortfolioID(), bonus.AssetID(), bonus.When(),
			entitled, M(0, e.ledger.Asset(bonus.AssetID()).Currency), Money{})
		buy.SourceAction = bonus.Ref()
		batch.Transactions = append(batch.Transactions, buy)
	}
	if err := e.ledger.Apply(batch); err != nil {
		return err
	}
	e.log.Info().Str("asset", bonus.AssetID()).
		Str("entitled", entitled.String()).
		Msg("bonus recorded")
	return nil
}

// ApplyMerger replays every open lot of the merging asset onto the target:
// quantity × ratio at price ÷ ratio, preserving each lot's original
// acquisition date so holding periods carry over. The source asset's lots
// are retired by the audit transaction at read time.
func (e *Actions) ApplyMerger(merger Merger) error {
	if err := merger.Validate(e.ledger); err != nil {
		return err
	}
	lots := AvailableLots(e.ledger, merger.AssetID(), merger.When())
	if len(lots) == 0 {
		return fmt.Errorf("merger of %s on %s: %w", merger.AssetID(), merger.When(), ErrNoHoldingsOnRecordDate)
	}

	ratio := merger.ratio()
	batch := Batch{Transactions: []Transaction{merger}}
	for _, lot := range lots {
		buy := NewBuy(merger.PortfolioID(), merger.TargetAsset, merger.When(),
			lot.Available.Mul(ratio), lot.UnitCost.Div(ratio), Money{})
		buy.SourceAction = merger.Ref()
		buy.AcquiredOn = lot.AcquiredOn
		batch.Transactions = append(batch.Transactions, buy)
	}
	if err := e.ledger.Apply(batch); err != nil {
		return err
	}
	e.log.Info().Str("asset", merger.AssetID()).Str("target", merger.TargetAsset).
		Int("lots", len(lots)).Msg("merger recorded")
	return nil
}

// ApplyDemerger carves the allocation percentage of the parent's original
// cost into child lots at the given ratio, preserving acquisition dates.
// The cumulative allocation across all demergers of one parent may not
// exceed 100% of its cost.
func (e *Actions) ApplyDemerger(dm Demerger) error {
	if err := dm.Validate(e.ledger); err != nil {
		return err
	}
	cumulative := dm.AllocationPct
	for _, tx := range e.ledger.Transactions() {
		if prev, ok := tx.(Demerger); ok && prev.AssetID() == dm.AssetID() {
			cumulative = cumulative.Add(prev.AllocationPct)
		}
	}
	if cumulative.GreaterThan(hundred) {
		return fmt.Errorf("%w: cumulative demerger allocation %s%% exceeds 100%%",
			ErrInvalidRatio, cumulative)
	}

	lots := AvailableLots(e.ledger, dm.AssetID(), dm.When())
	if len(lots) == 0 {
		return fmt.Errorf("demerger of %s on %s: %w", dm.AssetID(), dm.When(), ErrNoHoldingsOnRecordDate)
	}

	ratio := dm.ratio()
	carve := Q(dm.AllocationPct.Div(hundred))
	var allocated Money
	batch := Batch{}
	for _, lot := range lots {
		unit := lot.OrigUnitCost.Mul(carve)
		buy := NewBuy(dm.PortfolioID(), dm.ChildAsset, dm.When(),
			lot.Available.Mul(ratio), unit.Div(ratio), Money{})
		buy.SourceAction = dm.Ref()
		buy.AcquiredOn = lot.AcquiredOn
		batch.Transactions = append(batch.Transactions, buy)
		allocated = allocated.Add(unit.Mul(lot.Available))
	}
	// The audit record carries the total cost carved out of the parent.
	dm.AllocatedCost = allocated
	batch.Transactions = append([]Transaction{dm}, batch.Transactions...)

	if err := e.ledger.Apply(batch); err != nil {
		return err
	}
	e.log.Info().Str("asset", dm.AssetID()).Str("child", dm.ChildAsset).
		Str("allocated", allocated.Amount().String()).Msg("demerger recorded")
	return nil
}

// ApplyRename moves every open lot 1:1 onto the new asset identity with the
// same quantity, price and acquisition date. Not a taxable event.
func (e *Actions) ApplyRename(rn Rename) error {
	if err := rn.Validate(e.ledger); err != nil {
		return err
	}
	lots := AvailableLots(e.ledger, rn.AssetID(), rn.When())
	if len(lots) == 0 {
		return fmt.Errorf("rename of %s on %s: %w", rn.AssetID(), rn.When(), ErrNoHoldingsOnRecordDate)
	}

	batch := Batch{Transactions: []Transaction{rn}}
	for _, lot := range lots {
		buy := NewBuy(rn.PortfolioID(), rn.TargetAsset, rn.When(),
			lot.Available, lot.UnitCost, Money{})
		buy.SourceAction = rn.Ref()
		buy.AcquiredOn = lot.AcquiredOn
		batch.Transactions = append(batch.Transactions, buy)
	}
	if err := e.ledger.Apply(batch); err != nil {
		return err
	}
	e.log.Info().Str("asset", rn.AssetID()).Str("target", rn.TargetAsset).
		Int("lots", len(lots)).Msg("rename recorded")
	return nil
}

// SyntheticOf returns the transactions a corporate action synthesized.
func (e *Actions) SyntheticOf(actionID string) []Transaction {
	var out []Transaction
	for _, tx := range e.ledger.Transactions() {
		if buy, ok := tx.(Buy); ok && buy.SourceAction == actionID {
			out = append(out, tx)
		}
	}
	return out
}
