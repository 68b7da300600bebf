package lotbook

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"sort"

	"github.com/kmenon/lotbook/date"
)

// TransactionLink allocates part of a buy lot to a sell. Links are never
// updated in place, only superseded by delete plus recreate.
type TransactionLink struct {
	ID       string   `json:"id"`
	Sell     string   `json:"sell"`
	Buy      string   `json:"buy"`
	Quantity Quantity `json:"quantity"`
}

// Batch is the atomic unit of work: either every transaction and link in the
// batch is persisted, or none is.
type Batch struct {
	Transactions []Transaction
	Links        []TransactionLink
}

// Ledger is the append-mostly transaction store for a single portfolio.
//
// Transactions are kept in chronological order. Everything derived from them
// (lots, holdings, gains) is recomputed by replay on every read.
type Ledger struct {
	portfolio    string
	transactions []Transaction
	links        []TransactionLink
	assets       map[string]Asset // indexed by asset ID
	byID         map[string]int   // transaction index by ID
}

// NewLedger creates an empty ledger for a portfolio.
func NewLedger(portfolioID string) *Ledger {
	return &Ledger{
		portfolio: portfolioID,
		assets:    make(map[string]Asset),
		byID:      make(map[string]int),
	}
}

// Portfolio returns the owning portfolio's identity.
func (l *Ledger) Portfolio() string { return l.portfolio }

// DeclareAsset registers an asset with the ledger.
func (l *Ledger) DeclareAsset(a Asset) error {
	if err := a.Validate(); err != nil {
		return err
	}
	l.assets[a.ID] = a
	return nil
}

// Asset returns the asset declared with this ID, or nil if unknown.
func (l *Ledger) Asset(id string) *Asset {
	a, ok := l.assets[id]
	if !ok {
		return nil
	}
	return &a
}

// Assets iterates over declared assets in ticker order.
func (l *Ledger) Assets() iter.Seq[Asset] {
	return func(yield func(Asset) bool) {
		ids := slices.Collect(maps.Keys(l.assets))
		slices.SortFunc(ids, func(a, b string) int {
			return cmpString(l.assets[a].Ticker, l.assets[b].Ticker)
		})
		for _, id := range ids {
			if !yield(l.assets[id]) {
				return
			}
		}
	}
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Append appends transactions and maintains chronological order. It does not
// validate; use Apply for validated, atomic writes.
func (l *Ledger) Append(txs ...Transaction) {
	for _, tx := range txs {
		l.transactions = append(l.transactions, tx)
	}
	l.stableSort()
}

// Apply validates every transaction in the batch against the current state
// and then appends transactions and links together. Validation happens
// before any mutation, so a failure leaves the ledger untouched.
func (l *Ledger) Apply(batch Batch) error {
	for _, tx := range batch.Transactions {
		if tx.PortfolioID() != l.portfolio {
			return fmt.Errorf("transaction %s targets portfolio %q: %w", tx.Ref(), tx.PortfolioID(), ErrPortfolioNotFound)
		}
		if err := tx.Validate(l); err != nil {
			return fmt.Errorf("invalid %s transaction on %s: %w", tx.What(), tx.When(), err)
		}
	}
	for _, lk := range batch.Links {
		if !lk.Quantity.IsPositive() {
			return fmt.Errorf("link %s: quantity must be positive, got %s", lk.ID, lk.Quantity)
		}
	}
	l.Append(batch.Transactions...)
	l.links = append(l.links, batch.Links...)
	return nil
}

// stableSort sorts transactions by date; same-day records keep their
// original relative order.
func (l *Ledger) stableSort() {
	sort.SliceStable(l.transactions, func(i, j int) bool {
		return l.transactions[i].When().Before(l.transactions[j].When())
	})
	l.byID = make(map[string]int, len(l.transactions))
	for i, tx := range l.transactions {
		l.byID[tx.Ref()] = i
	}
}

// Get returns the transaction with the given ID, or nil.
func (l *Ledger) Get(id string) Transaction {
	i, ok := l.byID[id]
	if !ok {
		return nil
	}
	return l.transactions[i]
}

// Transactions iterates over all transactions in chronological order.
func (l *Ledger) Transactions() iter.Seq2[int, Transaction] {
	return func(yield func(int, Transaction) bool) {
		for i, tx := range l.transactions {
			if !yield(i, tx) {
				return
			}
		}
	}
}

// AssetTransactions iterates over transactions of one asset up to and
// including max, in chronological order.
func (l *Ledger) AssetTransactions(assetID string, max date.Date) iter.Seq[Transaction] {
	return func(yield func(Transaction) bool) {
		for _, tx := range l.transactions {
			if tx.When().After(max) {
				// Sorted by date, safe to stop.
				return
			}
			if tx.AssetID() != assetID {
				continue
			}
			if !yield(tx) {
				return
			}
		}
	}
}

// Links iterates over all persisted links.
func (l *Ledger) Links() iter.Seq[TransactionLink] {
	return func(yield func(TransactionLink) bool) {
		for _, lk := range l.links {
			if !yield(lk) {
				return
			}
		}
	}
}

// LinksOfSell returns the explicit links consuming lots for one sell.
func (l *Ledger) LinksOfSell(sellID string) []TransactionLink {
	var out []TransactionLink
	for _, lk := range l.links {
		if lk.Sell == sellID {
			out = append(out, lk)
		}
	}
	return out
}

// LinkedQuantity returns the total quantity of a buy lot consumed by links.
func (l *Ledger) LinkedQuantity(buyID string) Quantity {
	var total Quantity
	for _, lk := range l.links {
		if lk.Buy == buyID {
			total = total.Add(lk.Quantity)
		}
	}
	return total
}

// Remove deletes every transaction matching the predicate and returns how
// many were removed. Links referencing a removed transaction are dropped
// with it. This is the correction path: derived state is never mutated,
// the source records are deleted and recomputed on the next read.
func (l *Ledger) Remove(match func(Transaction) bool) int {
	removed := make(map[string]struct{})
	kept := l.transactions[:0]
	for _, tx := range l.transactions {
		if match(tx) {
			removed[tx.Ref()] = struct{}{}
			continue
		}
		kept = append(kept, tx)
	}
	l.transactions = kept
	if len(removed) > 0 {
		keptLinks := l.links[:0]
		for _, lk := range l.links {
			if _, goneSell := removed[lk.Sell]; goneSell {
				continue
			}
			if _, goneBuy := removed[lk.Buy]; goneBuy {
				continue
			}
			keptLinks = append(keptLinks, lk)
		}
		l.links = keptLinks
	}
	l.stableSort()
	return len(removed)
}

// HoldingsOnDate computes the quantity of an asset held at end of day asOf:
// split-adjusted acquisitions minus sells. Corporate-action handlers use it
// to determine eligible holdings on a record date.
func (l *Ledger) HoldingsOnDate(assetID string, asOf date.Date) Quantity {
	var position Quantity
	for tx := range l.AssetTransactions(assetID, asOf) {
		switch v := tx.(type) {
		case Split:
			position = position.Mul(v.ratio())
		case Sell:
			position = position.Sub(v.Quantity)
		case Merger, Rename:
			// The units moved to the successor identity.
			position = Quantity{}
		default:
			if q, _, ok := isAcquisition(tx); ok {
				position = position.Add(q)
			}
		}
	}
	return position
}
