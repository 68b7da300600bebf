package lotbook

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/kmenon/lotbook/date"
)

// Lot is a derived view of a buy-like transaction: the acquisition itself
// plus the quantity still unconsumed by sells as of a given date. Lots are
// never persisted; they are recomputed by full replay on every query.
type Lot struct {
	Tx         Transaction // the acquiring transaction
	AcquiredOn date.Date   // holding-period start
	Quantity   Quantity    // split-adjusted original quantity
	Available  Quantity    // split-adjusted unconsumed quantity
	UnitCost   Money       // split-adjusted effective cost per unit (after demerger carve-outs)
	FMV        Money       // split-adjusted fair market value per unit, zero unless recorded

	// OrigUnitCost is the split-adjusted acquisition price before any
	// demerger carve-out. Demerger allocation percentages always apply to
	// it, so a sequence of demergers conserves the original cost.
	OrigUnitCost Money
}

var hundred = decimal.NewFromInt(100)

// replayLots walks an asset's history and returns every lot with its
// available quantity as of asOf, ordered by acquisition date. A non-empty
// stopTxID ends the replay just before that transaction.
//
// Sells consume availability at their position in time: first through their
// persisted explicit links, then FIFO over lots acquired strictly before the
// sell date. Splits scale open lots in place, so link quantities recorded in
// pre-split units meet pre-split lots during replay and stay consistent.
// A merger or rename retires every open lot: the units continue on the
// successor asset through the synthesized buys. A demerger carves its
// allocation percentage of the original cost out of each open lot.
func replayLots(l *Ledger, assetID string, asOf date.Date, stopTxID string) []Lot {
	var open []Lot
	byBuyID := make(map[string]int)

	for tx := range l.AssetTransactions(assetID, asOf) {
		if stopTxID != "" && tx.Ref() == stopTxID {
			break
		}
		switch v := tx.(type) {
		case Split:
			ratio := v.ratio()
			for i := range open {
				open[i].Quantity = open[i].Quantity.Mul(ratio)
				open[i].Available = open[i].Available.Mul(ratio)
				open[i].UnitCost = open[i].UnitCost.Div(ratio)
				open[i].OrigUnitCost = open[i].OrigUnitCost.Div(ratio)
				if !open[i].FMV.IsZero() {
					open[i].FMV = open[i].FMV.Div(ratio)
				}
			}
		case Sell:
			consumed := Quantity{}
			for _, lk := range l.LinksOfSell(v.Ref()) {
				if i, ok := byBuyID[lk.Buy]; ok {
					open[i].Available = open[i].Available.Sub(lk.Quantity)
					consumed = consumed.Add(lk.Quantity)
				}
			}
			if rest := v.Quantity.Sub(consumed); rest.IsPositive() {
				fifoConsume(open, rest, v.When())
			}
		case Merger:
			for i := range open {
				open[i].Available = Quantity{}
			}
		case Rename:
			for i := range open {
				open[i].Available = Quantity{}
			}
		case Demerger:
			carve := Q(v.AllocationPct.Div(hundred))
			for i := range open {
				open[i].UnitCost = open[i].UnitCost.Sub(open[i].OrigUnitCost.Mul(carve))
			}
		default:
			if q, price, ok := isAcquisition(tx); ok {
				byBuyID[tx.Ref()] = len(open)
				open = append(open, Lot{
					Tx:           tx,
					AcquiredOn:   acquisitionDate(tx),
					Quantity:     q,
					Available:    q,
					UnitCost:     price,
					FMV:          acquisitionFMV(tx),
					OrigUnitCost: price,
				})
			}
		}
	}

	sort.SliceStable(open, func(i, j int) bool {
		return open[i].AcquiredOn.Before(open[j].AcquiredOn)
	})
	return open
}

// fifoConsume greedily reduces lot availability oldest-first. Lots acquired
// strictly before the sell date take precedence; same-day lots are consumed
// only if the dated ones run out.
func fifoConsume(open []Lot, quantity Quantity, sellDate date.Date) Quantity {
	order := make([]int, 0, len(open))
	for i := range open {
		order = append(order, i)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return open[order[a]].AcquiredOn.Before(open[order[b]].AcquiredOn)
	})

	for pass := 0; pass < 2 && quantity.IsPositive(); pass++ {
		for _, i := range order {
			if !quantity.IsPositive() {
				break
			}
			dated := open[i].AcquiredOn.Before(sellDate)
			if (pass == 0 && !dated) || (pass == 1 && dated) {
				continue
			}
			if !open[i].Available.IsPositive() {
				continue
			}
			take := open[i].Available
			if take.GreaterThan(quantity) {
				take = quantity
			}
			open[i].Available = open[i].Available.Sub(take)
			quantity = quantity.Sub(take)
		}
	}
	return quantity
}

// AvailableLots returns the lots of an asset with available quantity > 0 as
// of a date, ordered by acquisition date.
func AvailableLots(l *Ledger, assetID string, asOf date.Date) []Lot {
	var out []Lot
	for _, lot := range replayLots(l, assetID, asOf, "") {
		if lot.Available.IsPositive() {
			out = append(out, lot)
		}
	}
	return out
}
