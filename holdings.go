package lotbook

import (
	"context"
	"sort"

	"github.com/kmenon/lotbook/date"
	"github.com/kmenon/lotbook/pricing"
)

// Holding is the derived position of one asset on a date: quantity,
// weighted-average cost, market valuation and running profit figures. It is
// recomputed from the transaction history on every query.
type Holding struct {
	Asset      Asset
	Quantity   Quantity
	AvgCost    Money // per unit, weighted average over open quantity
	Invested   Money // cost basis of the open quantity
	Price      Money // market price per unit, book value when no quote
	Value      Money
	DayPL      Money // zero when the asset is unquoted
	Unrealized Money
	Realized   Money // cumulative, net of sell fees
	Income     Money // dividends, coupons and credited interest
	Quoted     bool  // false when Price fell back to book value
}

// Summary is the portfolio-level roll-up. Totals cover holdings in the
// reporting currency only; foreign-currency positions are listed but never
// converted.
type Summary struct {
	Portfolio  string
	On         date.Date
	Currency   string
	Value      Money
	Invested   Money
	DayPL      Money
	Unrealized Money
	Realized   Money
	Holdings   []Holding
}

// Aggregator computes holdings by a single dated walk over the ledger,
// pricing open positions through a quote provider.
type Aggregator struct {
	ledger    *Ledger
	prices    pricing.Provider
	reporting string
}

func NewAggregator(l *Ledger, prices pricing.Provider, reportingCurrency string) *Aggregator {
	return &Aggregator{ledger: l, prices: prices, reporting: reportingCurrency}
}

// position is the per-asset accumulator of the walk.
type position struct {
	qty      Quantity
	invested Money
	balance  Money // savings schemes: contributions plus credited interest
	realized Money
	income   Money
}

// Summary replays the full history up to asOf and values the result. Pricing
// failures are recovered locally: an unquoted asset is valued at book.
func (a *Aggregator) Summary(ctx context.Context, asOf date.Date) (*Summary, error) {
	byAsset := make(map[string]*position)
	at := func(id string) *position {
		p, ok := byAsset[id]
		if !ok {
			p = &position{}
			byAsset[id] = p
		}
		return p
	}

	for _, tx := range a.ledger.Transactions() {
		if tx.When().After(asOf) {
			continue
		}
		p := at(tx.AssetID())
		switch v := tx.(type) {
		case Sell:
			// realized against weighted-average cost; the invested amount
			// shrinks proportionally so the average is unchanged.
			avg := Money{}
			if p.qty.IsPositive() {
				avg = p.invested.Div(p.qty)
			}
			p.realized = p.realized.Add(v.Price.Sub(avg).Mul(v.Quantity)).Sub(v.Fees)
			p.invested = p.invested.Sub(avg.Mul(v.Quantity))
			p.qty = p.qty.Sub(v.Quantity)
		case Split:
			p.qty = p.qty.Mul(v.ratio())
		case Merger:
			// units and cost continue on the target through synthesized buys
			p.qty, p.invested = Quantity{}, Money{}
		case Rename:
			p.qty, p.invested = Quantity{}, Money{}
		case Demerger:
			p.invested = p.invested.Sub(v.AllocatedCost)
		case Bonus:
			// entitlement arrives as zero-cost synthesized buys
		case Dividend:
			p.income = p.income.Add(v.Amount)
			if q, price, ok := isAcquisition(tx); ok {
				p.qty = p.qty.Add(q)
				p.invested = p.invested.Add(price.Mul(q))
			}
		case Coupon:
			p.income = p.income.Add(v.Amount)
		case Contribution:
			p.invested = p.invested.Add(v.Amount)
			p.balance = p.balance.Add(v.Amount)
		case InterestCredit:
			p.income = p.income.Add(v.Amount)
			p.balance = p.balance.Add(v.Amount)
		default:
			if q, price, ok := isAcquisition(tx); ok {
				p.qty = p.qty.Add(q)
				p.invested = p.invested.Add(price.Mul(q))
			}
			switch v := tx.(type) {
			case Buy:
				p.invested = p.invested.Add(v.Fees)
			case RSUVest:
				p.invested = p.invested.Add(v.Fees)
			case ESPPPurchase:
				p.invested = p.invested.Add(v.Fees)
			}
		}
	}

	quotes := a.quote(ctx, byAsset)

	s := &Summary{
		Portfolio: a.ledger.Portfolio(),
		On:        asOf,
		Currency:  a.reporting,
	}
	for id, p := range byAsset {
		asset := a.ledger.Asset(id)
		if asset == nil {
			continue
		}
		h := a.value(*asset, p, quotes)
		if h.Quantity.IsZero() && h.Value.IsZero() && h.Realized.IsZero() && h.Income.IsZero() {
			continue
		}
		s.Holdings = append(s.Holdings, h)
		if asset.Currency != a.reporting {
			continue
		}
		s.Value = s.Value.Add(h.Value)
		s.Invested = s.Invested.Add(h.Invested)
		s.DayPL = s.DayPL.Add(h.DayPL)
		s.Unrealized = s.Unrealized.Add(h.Unrealized)
		s.Realized = s.Realized.Add(h.Realized)
	}
	sort.Slice(s.Holdings, func(i, j int) bool {
		return s.Holdings[i].Asset.Ticker < s.Holdings[j].Asset.Ticker
	})
	return s, nil
}

// quote fetches current prices for the open, quotable positions. A failed or
// partial fetch is not an error at this level.
func (a *Aggregator) quote(ctx context.Context, byAsset map[string]*position) map[string]pricing.Quote {
	var tickers []string
	for id, p := range byAsset {
		asset := a.ledger.Asset(id)
		if asset == nil || !p.qty.IsPositive() {
			continue
		}
		switch asset.Class {
		case ClassSavingsScheme, ClassDeposit:
			continue
		}
		tickers = append(tickers, asset.Ticker)
	}
	if len(tickers) == 0 || a.prices == nil {
		return nil
	}
	quotes, err := a.prices.CurrentPrices(ctx, tickers)
	if err != nil {
		return quotes
	}
	return quotes
}

func (a *Aggregator) value(asset Asset, p *position, quotes map[string]pricing.Quote) Holding {
	h := Holding{
		Asset:    asset,
		Quantity: p.qty,
		Invested: p.invested,
		Realized: p.realized,
		Income:   p.income,
	}
	switch asset.Class {
	case ClassSavingsScheme, ClassDeposit:
		// book valuation: balance carries the credited interest
		h.Value = p.balance
		h.Unrealized = p.balance.Sub(p.invested)
		return h
	}
	if p.qty.IsPositive() {
		h.AvgCost = p.invested.Div(p.qty)
	}
	if q, ok := quotes[asset.Ticker]; ok {
		h.Quoted = true
		h.Price = M(q.Price, asset.Currency)
		h.DayPL = h.Price.Sub(M(q.PreviousClose, asset.Currency)).Mul(p.qty)
	} else {
		h.Price = h.AvgCost
	}
	h.Value = h.Price.Mul(p.qty)
	h.Unrealized = h.Value.Sub(h.Invested)
	return h
}
