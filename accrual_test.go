package lotbook

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmenon/lotbook/date"
	"github.com/kmenon/lotbook/rates"
)

func ppfAsset() Asset {
	return Asset{
		ID:       "ppf-1",
		Ticker:   "PPF",
		Class:    ClassSavingsScheme,
		Currency: "INR",
		OpenedOn: date.New(2020, time.April, 1),
	}
}

// flatRates serves one rate for every scheme and year.
type flatRates struct{ rate float64 }

func (r flatRates) RateForYear(string, date.FinancialYear) (decimal.Decimal, error) {
	return decimal.NewFromFloat(r.rate), nil
}

func newTestAccruer(t *testing.T, l *Ledger, r rates.Provider) *Accruer {
	t.Helper()
	if r == nil {
		r = rates.Published()
	}
	return NewAccruer(l, r, zerolog.Nop())
}

func contribute(t *testing.T, l *Ledger, asset string, on date.Date, amount float64) {
	t.Helper()
	tx := NewContribution(testPortfolio, asset, on, inr(amount))
	require.NoError(t, l.Apply(Batch{Transactions: []Transaction{tx}}))
}

func TestCreditInterestCompounds(t *testing.T) {
	l := newTestLedger(t, ppfAsset())
	contribute(t, l, "ppf-1", date.New(2020, time.April, 10), 100000)

	a := newTestAccruer(t, l, flatRates{0.071})
	credits, err := a.CreditInterest("ppf-1", date.New(2022, time.June, 1))
	require.NoError(t, err)
	require.Len(t, credits, 2)

	// FY2020: 100000 × 7.1%, credited on the year's last day
	assert.Equal(t, date.New(2021, time.March, 31), credits[0].When())
	assert.Equal(t, date.FinancialYear(2020), credits[0].Year)
	requireAmount(t, 7100, credits[0].Amount)
	assert.True(t, credits[0].Generated)

	// FY2021 compounds on the credited balance: 107100 × 7.1%
	assert.Equal(t, date.New(2022, time.March, 31), credits[1].When())
	requireAmount(t, 7604.1, credits[1].Amount)
}

func TestCreditInterestIdempotent(t *testing.T) {
	l := newTestLedger(t, ppfAsset())
	contribute(t, l, "ppf-1", date.New(2020, time.April, 10), 100000)

	a := newTestAccruer(t, l, flatRates{0.071})
	first, err := a.CreditInterest("ppf-1", date.New(2022, time.June, 1))
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := a.CreditInterest("ppf-1", date.New(2022, time.June, 1))
	require.NoError(t, err)
	assert.Empty(t, second)

	var count int
	for _, tx := range l.Transactions() {
		if _, ok := tx.(InterestCredit); ok {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

// Only contributions made in the first month of the year earn that year's
// interest; later ones start earning the following year.
func TestCreditInterestQualifyingContributions(t *testing.T) {
	l := newTestLedger(t, ppfAsset())
	contribute(t, l, "ppf-1", date.New(2020, time.April, 10), 100000)
	contribute(t, l, "ppf-1", date.New(2020, time.October, 5), 50000)

	a := newTestAccruer(t, l, flatRates{0.071})
	credits, err := a.CreditInterest("ppf-1", date.New(2021, time.April, 10))
	require.NoError(t, err)
	require.Len(t, credits, 1)
	requireAmount(t, 7100, credits[0].Amount) // the October deposit earns nothing yet
}

func TestCreditInterestSkipsUserEnteredYears(t *testing.T) {
	l := newTestLedger(t, ppfAsset())
	contribute(t, l, "ppf-1", date.New(2020, time.April, 10), 100000)

	manual := NewInterestCredit(testPortfolio, "ppf-1", date.New(2021, time.March, 31), inr(7000), 2020)
	require.NoError(t, l.Apply(Batch{Transactions: []Transaction{manual}}))

	a := newTestAccruer(t, l, flatRates{0.071})
	credits, err := a.CreditInterest("ppf-1", date.New(2022, time.June, 1))
	require.NoError(t, err)
	require.Len(t, credits, 1)
	assert.Equal(t, date.FinancialYear(2021), credits[0].Year)
	// the manual figure is the balance, not a recomputed one
	requireAmount(t, 7597, credits[0].Amount)
}

func TestInvalidateCreditsRegenerates(t *testing.T) {
	l := newTestLedger(t, ppfAsset())
	contribute(t, l, "ppf-1", date.New(2020, time.April, 10), 100000)

	a := newTestAccruer(t, l, flatRates{0.071})
	_, err := a.CreditInterest("ppf-1", date.New(2022, time.June, 1))
	require.NoError(t, err)

	removed, err := a.InvalidateCredits("ppf-1")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	// a correction entered, regeneration reflects it
	contribute(t, l, "ppf-1", date.New(2020, time.April, 20), 100000)
	credits, err := a.CreditInterest("ppf-1", date.New(2022, time.June, 1))
	require.NoError(t, err)
	require.Len(t, credits, 2)
	requireAmount(t, 14200, credits[0].Amount)
}

func TestInvalidateCreditsKeepsUserEntered(t *testing.T) {
	l := newTestLedger(t, ppfAsset())
	manual := NewInterestCredit(testPortfolio, "ppf-1", date.New(2021, time.March, 31), inr(7000), 2020)
	require.NoError(t, l.Apply(Batch{Transactions: []Transaction{manual}}))

	a := newTestAccruer(t, l, flatRates{0.071})
	removed, err := a.InvalidateCredits("ppf-1")
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.NotNil(t, l.Get(manual.Ref()))
}

func TestEstimateOpenYear(t *testing.T) {
	l := newTestLedger(t, ppfAsset())
	contribute(t, l, "ppf-1", date.New(2020, time.April, 10), 100000)

	a := newTestAccruer(t, l, flatRates{0.071})
	// six complete months into FY2020: half the annual figure
	est, err := a.Estimate("ppf-1", date.New(2020, time.October, 2))
	require.NoError(t, err)
	requireAmount(t, 3550, est)
}

func TestAccruerRejectsNonScheme(t *testing.T) {
	l := newTestLedger(t, equity("rel"))
	a := newTestAccruer(t, l, nil)
	_, err := a.CreditInterest("rel", date.Today())
	require.Error(t, err)

	_, err = a.CreditInterest("missing", date.Today())
	require.ErrorIs(t, err, ErrAssetNotFound)
}
