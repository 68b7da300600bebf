package lotbook

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/kmenon/lotbook/date"
)

const testPortfolio = "pf-test"

func equity(id string) Asset {
	return Asset{ID: id, Ticker: strings.ToUpper(id), Class: ClassEquity, Currency: "INR"}
}

func inr(v float64) Money { return M(v, "INR") }

func newTestLedger(t *testing.T, assets ...Asset) *Ledger {
	t.Helper()
	l := NewLedger(testPortfolio)
	for _, a := range assets {
		require.NoError(t, l.DeclareAsset(a))
	}
	return l
}

func newTestMatcher(t *testing.T, l *Ledger) *Matcher {
	t.Helper()
	return NewMatcher(l, zerolog.Nop())
}

func newTestActions(t *testing.T, l *Ledger) *Actions {
	t.Helper()
	return NewActions(l, zerolog.Nop())
}

// buy appends a validated purchase and returns it.
func buy(t *testing.T, l *Ledger, asset string, on date.Date, qty, price float64) Buy {
	t.Helper()
	tx := NewBuy(testPortfolio, asset, on, Q(qty), inr(price), Money{})
	require.NoError(t, l.Apply(Batch{Transactions: []Transaction{tx}}))
	return tx
}

// sale records a sale with no explicit links through the matcher.
func sale(t *testing.T, l *Ledger, asset string, on date.Date, qty, price float64) Sell {
	t.Helper()
	sell, err := newTestMatcher(t, l).RecordSale(NewSell(testPortfolio, asset, on, Q(qty), inr(price), Money{}), nil)
	require.NoError(t, err)
	return sell
}

func requireQty(t *testing.T, want float64, got Quantity) {
	t.Helper()
	require.True(t, Q(want).Equal(got), "want quantity %v, got %s", want, got)
}

func requireAmount(t *testing.T, want float64, got Money) {
	t.Helper()
	require.True(t, inr(want).Equal(got), "want %v INR, got %s %s", want, got.Amount(), got.Currency())
}
