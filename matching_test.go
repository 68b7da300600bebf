package lotbook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmenon/lotbook/date"
)

func TestRecordSaleFIFO(t *testing.T) {
	l := newTestLedger(t, equity("rel"))
	first := buy(t, l, "rel", date.New(2023, time.January, 10), 10, 100)
	second := buy(t, l, "rel", date.New(2023, time.February, 10), 10, 120)

	sell := sale(t, l, "rel", date.New(2023, time.June, 1), 12, 150)

	links := l.LinksOfSell(sell.Ref())
	require.Len(t, links, 2)
	assert.Equal(t, first.Ref(), links[0].Buy)
	requireQty(t, 10, links[0].Quantity)
	assert.Equal(t, second.Ref(), links[1].Buy)
	requireQty(t, 2, links[1].Quantity)
}

// Link conservation: for every sell, the sum of its link quantities equals
// the sell quantity; for every buy, the allocated quantity never exceeds the
// lot size.
func TestLinkConservation(t *testing.T) {
	l := newTestLedger(t, equity("rel"))
	b1 := buy(t, l, "rel", date.New(2023, time.January, 10), 10, 100)
	b2 := buy(t, l, "rel", date.New(2023, time.February, 10), 5, 120)
	s1 := sale(t, l, "rel", date.New(2023, time.March, 1), 7, 150)
	s2 := sale(t, l, "rel", date.New(2023, time.April, 1), 6, 160)

	for _, s := range []Sell{s1, s2} {
		var sum Quantity
		for _, lk := range l.LinksOfSell(s.Ref()) {
			sum = sum.Add(lk.Quantity)
		}
		require.True(t, sum.Equal(s.Quantity), "sell %s allocates %s of %s", s.Ref(), sum, s.Quantity)
	}
	for _, b := range []Buy{b1, b2} {
		require.False(t, l.LinkedQuantity(b.Ref()).GreaterThan(b.Quantity),
			"buy %s over-allocated", b.Ref())
	}
}

func TestRecordSaleInsufficientHoldings(t *testing.T) {
	l := newTestLedger(t, equity("rel"))
	buy(t, l, "rel", date.New(2023, time.January, 10), 10, 100)

	m := newTestMatcher(t, l)
	_, err := m.RecordSale(NewSell(testPortfolio, "rel", date.New(2023, time.June, 1), Q(11), inr(150), Money{}), nil)
	require.ErrorIs(t, err, ErrInsufficientHoldings)

	// nothing persisted
	for _, tx := range l.Transactions() {
		_, isSell := tx.(Sell)
		assert.False(t, isSell)
	}
	for range l.Links() {
		t.Fatal("no links expected")
	}
}

func TestRecordSaleSameDayLotExcluded(t *testing.T) {
	l := newTestLedger(t, equity("rel"))
	buy(t, l, "rel", date.New(2023, time.June, 1), 10, 100)

	// FIFO only reaches lots dated strictly before the sale
	m := newTestMatcher(t, l)
	_, err := m.RecordSale(NewSell(testPortfolio, "rel", date.New(2023, time.June, 1), Q(5), inr(150), Money{}), nil)
	require.ErrorIs(t, err, ErrInsufficientHoldings)
}

// Two lots, a partial explicit link, FIFO for nothing: the residual position
// is 15 units carrying a 2000 aggregate basis.
func TestRecordSaleExplicitLink(t *testing.T) {
	l := newTestLedger(t, equity("rel"))
	older := buy(t, l, "rel", date.New(2023, time.January, 10), 10, 150)
	newer := buy(t, l, "rel", date.New(2023, time.February, 10), 10, 100)

	m := newTestMatcher(t, l)
	sell, err := m.RecordSale(
		NewSell(testPortfolio, "rel", date.New(2023, time.June, 1), Q(5), inr(150), Money{}),
		[]TransactionLink{{Buy: newer.Ref(), Quantity: Q(5)}},
	)
	require.NoError(t, err)

	links := l.LinksOfSell(sell.Ref())
	require.Len(t, links, 1)
	assert.Equal(t, newer.Ref(), links[0].Buy)

	// gain on the matched lot: 5 × (150 − 100)
	c := NewClassifier(l)
	entries, err := c.Gains(date.NewRange(sell.When(), sell.When()))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	requireAmount(t, 250, entries[0].Gain)

	// residual: 10 @ 150 plus 5 @ 100 = 15 units on a 2000 basis
	lots := AvailableLots(l, "rel", date.New(2023, time.December, 31))
	require.Len(t, lots, 2)
	var units Quantity
	var basis Money
	for _, lot := range lots {
		units = units.Add(lot.Available)
		basis = basis.Add(lot.UnitCost.Mul(lot.Available))
	}
	requireQty(t, 15, units)
	requireAmount(t, 2000, basis)
	assert.Equal(t, older.Ref(), lots[0].Tx.Ref())
}

func TestRecordSaleExplicitLinkOverAllocated(t *testing.T) {
	l := newTestLedger(t, equity("rel"))
	b := buy(t, l, "rel", date.New(2023, time.January, 10), 10, 100)

	m := newTestMatcher(t, l)
	_, err := m.RecordSale(
		NewSell(testPortfolio, "rel", date.New(2023, time.June, 1), Q(5), inr(150), Money{}),
		[]TransactionLink{{Buy: b.Ref(), Quantity: Q(6)}},
	)
	require.ErrorIs(t, err, ErrInsufficientHoldings)
}

func TestBackfillLinks(t *testing.T) {
	l := newTestLedger(t, equity("rel"))
	b1 := buy(t, l, "rel", date.New(2023, time.January, 10), 10, 100)
	b2 := buy(t, l, "rel", date.New(2023, time.February, 10), 10, 120)

	// an imported sell, persisted without links
	imported := NewSell(testPortfolio, "rel", date.New(2023, time.June, 1), Q(12), inr(150), Money{})
	require.NoError(t, l.Apply(Batch{Transactions: []Transaction{imported}}))

	m := newTestMatcher(t, l)
	created, err := m.BackfillLinks()
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	links := l.LinksOfSell(imported.Ref())
	require.Len(t, links, 2)
	assert.Equal(t, b1.Ref(), links[0].Buy)
	requireQty(t, 10, links[0].Quantity)
	assert.Equal(t, b2.Ref(), links[1].Buy)
	requireQty(t, 2, links[1].Quantity)

	// idempotent: a second run touches nothing
	created, err = m.BackfillLinks()
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Len(t, l.LinksOfSell(imported.Ref()), 2)
}

func TestBackfillLinksHonorsEarlierSells(t *testing.T) {
	l := newTestLedger(t, equity("rel"))
	buy(t, l, "rel", date.New(2023, time.January, 10), 10, 100)
	b2 := buy(t, l, "rel", date.New(2023, time.February, 10), 10, 120)

	s1 := NewSell(testPortfolio, "rel", date.New(2023, time.March, 1), Q(10), inr(150), Money{})
	s2 := NewSell(testPortfolio, "rel", date.New(2023, time.April, 1), Q(5), inr(160), Money{})
	require.NoError(t, l.Apply(Batch{Transactions: []Transaction{s1, s2}}))

	m := newTestMatcher(t, l)
	_, err := m.BackfillLinks()
	require.NoError(t, err)

	// the first sell drained the first lot, so the second maps to lot two
	links := l.LinksOfSell(s2.Ref())
	require.Len(t, links, 1)
	assert.Equal(t, b2.Ref(), links[0].Buy)
	requireQty(t, 5, links[0].Quantity)
}

func TestHoldingsOnDate(t *testing.T) {
	l := newTestLedger(t, equity("rel"))
	buy(t, l, "rel", date.New(2023, time.January, 10), 10, 100)
	sale(t, l, "rel", date.New(2023, time.March, 1), 4, 150)

	m := newTestMatcher(t, l)
	requireQty(t, 0, m.HoldingsOnDate("rel", date.New(2023, time.January, 9)))
	requireQty(t, 10, m.HoldingsOnDate("rel", date.New(2023, time.February, 1)))
	requireQty(t, 6, m.HoldingsOnDate("rel", date.New(2023, time.December, 31)))
}
