package lotbook

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kmenon/lotbook/date"
)

// Matcher is the lot matching engine. It resolves every sale against
// specific purchase lots, explicitly when the caller names them and FIFO for
// the remainder, persisting sell and links as one atomic batch.
type Matcher struct {
	ledger *Ledger
	log    zerolog.Logger
}

// NewMatcher creates a matcher over a ledger.
func NewMatcher(l *Ledger, log zerolog.Logger) *Matcher {
	return &Matcher{ledger: l, log: log}
}

// RecordSale validates the sell against holdings on its date, resolves the
// explicit links, fills any remainder FIFO over lots dated strictly before
// the sale, and persists the sell with its links atomically. On failure
// nothing is persisted.
func (m *Matcher) RecordSale(sell Sell, explicit []TransactionLink) (Sell, error) {
	holdings := m.ledger.HoldingsOnDate(sell.AssetID(), sell.When())
	if holdings.LessThan(sell.Quantity) {
		return sell, fmt.Errorf("sell %s of %s on %s, holdings are %s: %w",
			sell.Quantity, sell.AssetID(), sell.When(), holdings, ErrInsufficientHoldings)
	}

	lots := replayLots(m.ledger, sell.AssetID(), sell.When(), "")
	available := make(map[string]Quantity, len(lots))
	for _, lot := range lots {
		available[lot.Tx.Ref()] = lot.Available
	}

	links := make([]TransactionLink, 0, len(explicit)+len(lots))
	var allocated Quantity
	for _, lk := range explicit {
		avail, ok := available[lk.Buy]
		if !ok {
			return sell, fmt.Errorf("explicit link to unknown lot %q: %w", lk.Buy, ErrAssetNotFound)
		}
		if avail.LessThan(lk.Quantity) {
			return sell, fmt.Errorf("lot %s has %s available, link wants %s: %w",
				lk.Buy, avail, lk.Quantity, ErrInsufficientHoldings)
		}
		available[lk.Buy] = avail.Sub(lk.Quantity)
		allocated = allocated.Add(lk.Quantity)
		links = append(links, NewLink(sell.Ref(), lk.Buy, lk.Quantity))
	}
	if allocated.GreaterThan(sell.Quantity) {
		return sell, fmt.Errorf("explicit links allocate %s, sell is only %s: %w",
			allocated, sell.Quantity, ErrInsufficientHoldings)
	}

	// FIFO fallback for the remainder: oldest lots dated strictly before
	// the sale, consumed greedily.
	remainder := sell.Quantity.Sub(allocated)
	for _, lot := range lots {
		if !remainder.IsPositive() {
			break
		}
		if !lot.AcquiredOn.Before(sell.When()) {
			continue
		}
		avail := available[lot.Tx.Ref()]
		if !avail.IsPositive() {
			continue
		}
		take := avail
		if take.GreaterThan(remainder) {
			take = remainder
		}
		available[lot.Tx.Ref()] = avail.Sub(take)
		remainder = remainder.Sub(take)
		links = append(links, NewLink(sell.Ref(), lot.Tx.Ref(), take))
	}
	if remainder.IsPositive() {
		return sell, fmt.Errorf("no lots dated before %s cover remaining %s: %w",
			sell.When(), remainder, ErrInsufficientHoldings)
	}

	if err := m.ledger.Apply(Batch{Transactions: []Transaction{sell}, Links: links}); err != nil {
		return sell, err
	}
	m.log.Info().
		Str("asset", sell.AssetID()).
		Str("sell", sell.Ref()).
		Int("links", len(links)).
		Msg("sale recorded")
	return sell, nil
}

// AvailableLots returns the asset's open lots as of a date.
func (m *Matcher) AvailableLots(assetID string, asOf date.Date) []Lot {
	return AvailableLots(m.ledger, assetID, asOf)
}

// HoldingsOnDate returns the split-adjusted quantity held at end of day.
func (m *Matcher) HoldingsOnDate(assetID string, asOf date.Date) Quantity {
	return m.ledger.HoldingsOnDate(assetID, asOf)
}

// BackfillLinks finds every sell with zero persisted links and synthesizes
// FIFO links for it, oldest sells first. The operation is idempotent: a sell
// that already has links is never touched, so re-running creates no
// duplicates.
func (m *Matcher) BackfillLinks() (int, error) {
	var created int
	for _, tx := range m.ledger.Transactions() {
		sell, ok := tx.(Sell)
		if !ok || len(m.ledger.LinksOfSell(sell.Ref())) > 0 {
			continue
		}

		lots := lotsBefore(m.ledger, sell.AssetID(), sell.Ref())
		remainder := sell.Quantity
		var links []TransactionLink
		for _, lot := range lots {
			if !remainder.IsPositive() {
				break
			}
			if !lot.AcquiredOn.Before(sell.When()) || !lot.Available.IsPositive() {
				continue
			}
			take := lot.Available
			if take.GreaterThan(remainder) {
				take = remainder
			}
			remainder = remainder.Sub(take)
			links = append(links, NewLink(sell.Ref(), lot.Tx.Ref(), take))
		}
		if remainder.IsPositive() {
			return created, fmt.Errorf("backfill of sell %s leaves %s unmatched: %w",
				sell.Ref(), remainder, ErrInsufficientHoldings)
		}
		if err := m.ledger.Apply(Batch{Links: links}); err != nil {
			return created, err
		}
		created += len(links)
	}
	if created > 0 {
		m.log.Info().Int("links", created).Msg("backfilled FIFO links")
	}
	return created, nil
}

// lotsBefore replays the asset's lots up to, but excluding, the transaction
// with the given ID.
func lotsBefore(l *Ledger, assetID, stopTxID string) []Lot {
	stop := l.Get(stopTxID)
	if stop == nil {
		return nil
	}
	return replayLots(l, assetID, stop.When(), stopTxID)
}
