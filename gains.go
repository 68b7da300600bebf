package lotbook

import (
	"fmt"
	"sort"

	"github.com/kmenon/lotbook/date"
)

// GainEntry is one matched (sell, lot) pair in a reporting period, with its
// cost basis, classification and advance-tax window. Entries are derived on
// every query; nothing here is persisted.
type GainEntry struct {
	Asset      Asset
	SellID     string
	BuyID      string
	AcquiredOn date.Date
	SoldOn     date.Date
	Quantity   Quantity

	Cost     Money // total, in sell-date units, after any grandfathering
	Proceeds Money
	Gain     Money

	HoldingDays   int
	Type          GainType
	RateLabel     string
	Grandfathered bool
	Window        int // advance-tax filing window index, 0..4
}

// Bucket aggregates the gains of one (type, category) pair across the five
// advance-tax filing windows of a financial year.
type Bucket struct {
	Type     GainType
	Category TaxCategory
	Windows  [5]Money
	Total    Money
}

// Classifier turns persisted sale/lot links into classified capital-gains
// entries. It reads links only: a sell imported without links contributes no
// entries until BackfillLinks has run.
type Classifier struct {
	ledger *Ledger
}

func NewClassifier(l *Ledger) *Classifier { return &Classifier{ledger: l} }

// Gains returns one entry per link whose sell date falls in the period,
// ordered by sell date then sell ID. Exempt assets contribute nothing.
func (c *Classifier) Gains(period date.Range) ([]GainEntry, error) {
	var out []GainEntry
	for lk := range c.ledger.Links() {
		sellTx := c.ledger.Get(lk.Sell)
		sell, ok := sellTx.(Sell)
		if !ok || !period.Contains(sell.When()) {
			continue
		}
		asset := c.ledger.Asset(sell.AssetID())
		if asset == nil {
			return nil, fmt.Errorf("sell %s: asset %q: %w", lk.Sell, sell.AssetID(), ErrAssetNotFound)
		}
		if asset.Class.TaxCategory() == TaxExempt {
			continue
		}
		buy := c.ledger.Get(lk.Buy)
		if buy == nil {
			return nil, fmt.Errorf("link of sell %s: buy %q not found", lk.Sell, lk.Buy)
		}
		entry, err := c.classify(*asset, sell, buy, lk.Quantity)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SoldOn != out[j].SoldOn {
			return out[i].SoldOn.Before(out[j].SoldOn)
		}
		return out[i].SellID < out[j].SellID
	})
	return out, nil
}

// classify computes one entry. Link quantities are recorded in units
// contemporaneous with the sell, so the buy-side unit cost and the cutoff
// FMV are scaled by the splits between their own dates and the sell date,
// and reduced by any demerger carve in the same interval.
func (c *Classifier) classify(asset Asset, sell Sell, buy Transaction, qty Quantity) (GainEntry, error) {
	_, unitCost, ok := isAcquisition(buy)
	if !ok {
		return GainEntry{}, fmt.Errorf("link of sell %s: %q is not an acquisition", sell.Ref(), buy.Ref())
	}
	// equity compensation: the recorded FMV is the cost of acquisition
	if fmv := acquisitionFMV(buy); !fmv.IsZero() {
		unitCost = fmv
	}
	unitCost = unitCost.Div(c.splitFactor(sell.AssetID(), buy.When(), sell.When()))
	if carve := c.demergerCarve(sell.AssetID(), buy.When(), sell.When()); carve.IsPositive() {
		unitCost = unitCost.Sub(unitCost.Mul(carve))
	}

	acquired := acquisitionDate(buy)
	cat := asset.Class.TaxCategory()
	gainType := ShortTerm
	if isLongTerm(cat, acquired, sell.When()) {
		gainType = LongTerm
	}

	entry := GainEntry{
		Asset:       asset,
		SellID:      sell.Ref(),
		BuyID:       buy.Ref(),
		AcquiredOn:  acquired,
		SoldOn:      sell.When(),
		Quantity:    qty,
		HoldingDays: acquired.DaysUntil(sell.When()),
		Type:        gainType,
		RateLabel:   rateLabel(gainType, cat, !sell.When().Before(RateCutover)),
		Window:      date.FinancialYearOf(sell.When()).FilingWindowOf(sell.When()),
	}

	if grandfathered(cat, gainType, acquired, asset.FMVAtCutoff) {
		fmv := asset.FMVAtCutoff.Div(c.splitFactor(sell.AssetID(), GrandfatheringCutoff, sell.When()))
		if carve := c.demergerCarve(sell.AssetID(), GrandfatheringCutoff, sell.When()); carve.IsPositive() {
			fmv = fmv.Sub(fmv.Mul(carve))
		}
		adjusted := grandfatheredCost(unitCost, fmv, sell.Price)
		entry.Grandfathered = !adjusted.Equal(unitCost)
		unitCost = adjusted
	}

	entry.Cost = unitCost.Mul(qty)
	entry.Proceeds = sell.Price.Mul(qty)
	entry.Gain = entry.Proceeds.Sub(entry.Cost)
	return entry, nil
}

// splitFactor returns the product of split ratios on an asset strictly after
// `from` and up to `to`. Dividing a per-unit figure dated `from` by the
// factor restates it in `to`-date units.
func (c *Classifier) splitFactor(assetID string, from, to date.Date) Quantity {
	factor := Q(1)
	for tx := range c.ledger.AssetTransactions(assetID, to) {
		split, ok := tx.(Split)
		if !ok || !split.When().After(from) {
			continue
		}
		factor = factor.Mul(split.ratio())
	}
	return factor
}

// demergerCarve sums the allocation fractions of demergers on an asset
// strictly after `from` and up to `to`. The fraction comes off a per-unit
// cost dated `from`, mirroring the carve the lot view applies, so the
// parent and the spun-out child never deduct the same cost twice.
func (c *Classifier) demergerCarve(assetID string, from, to date.Date) Quantity {
	carve := Q(0)
	for tx := range c.ledger.AssetTransactions(assetID, to) {
		dm, ok := tx.(Demerger)
		if !ok || !dm.When().After(from) {
			continue
		}
		carve = carve.Add(Q(dm.AllocationPct.Div(hundred)))
	}
	return carve
}

// Report buckets a financial year's gains by (type, category) across the
// five advance-tax filing windows, ordered for stable rendering.
func (c *Classifier) Report(fy date.FinancialYear) ([]Bucket, error) {
	entries, err := c.Gains(fy.Range())
	if err != nil {
		return nil, err
	}
	type key struct {
		t   GainType
		cat TaxCategory
	}
	buckets := make(map[key]*Bucket)
	for _, e := range entries {
		k := key{e.Type, e.Asset.Class.TaxCategory()}
		b, ok := buckets[k]
		if !ok {
			b = &Bucket{Type: k.t, Category: k.cat}
			buckets[k] = b
		}
		if e.Window >= 0 {
			b.Windows[e.Window] = b.Windows[e.Window].Add(e.Gain)
		}
		b.Total = b.Total.Add(e.Gain)
	}
	out := make([]Bucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}
