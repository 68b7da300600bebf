package lotbook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kmenon/lotbook/date"
)

func TestIsLongTerm(t *testing.T) {
	tests := []struct {
		name     string
		cat      TaxCategory
		acquired date.Date
		sold     date.Date
		want     bool
	}{
		{"equity at 365 days", TaxEquity,
			date.New(2022, time.June, 1), date.New(2023, time.June, 1), false},
		{"equity at 366 days", TaxEquity,
			date.New(2022, time.June, 1), date.New(2023, time.June, 2), true},
		{"gold 30 months pre-cutover", TaxGold,
			date.New(2022, time.January, 10), date.New(2024, time.July, 10), false},
		{"gold 30 months post-cutover", TaxGold,
			date.New(2022, time.January, 10), date.New(2024, time.July, 23), true},
		{"gold 37 months pre-cutover", TaxGold,
			date.New(2021, time.May, 1), date.New(2024, time.July, 1), true},
		{"debt 25 months post-cutover", TaxDebt,
			date.New(2022, time.August, 1), date.New(2024, time.September, 1), true},
		{"unlisted 23 months post-cutover", TaxUnlisted,
			date.New(2022, time.October, 1), date.New(2024, time.August, 1), false},
		{"sgb 13 months post-cutover", TaxSGB,
			date.New(2023, time.July, 1), date.New(2024, time.August, 1), true},
		{"sgb 13 months pre-cutover", TaxSGB,
			date.New(2022, time.January, 1), date.New(2023, time.February, 1), false},
		{"foreign 25 months before cutover", TaxForeign,
			date.New(2020, time.January, 1), date.New(2022, time.February, 1), true},
		{"foreign 23 months after cutover", TaxForeign,
			date.New(2022, time.October, 1), date.New(2024, time.September, 1), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isLongTerm(tc.cat, tc.acquired, tc.sold))
		})
	}
}

func TestGrandfatheredCost(t *testing.T) {
	tests := []struct {
		cost, fmv, sale, want float64
	}{
		{100, 200, 300, 200}, // FMV substitutes the cost
		{200, 150, 100, 200}, // price fell: the real cost stands
		{100, 200, 150, 150}, // FMV capped at the sale price
		{250, 200, 300, 250}, // cost above FMV stands
	}
	for _, tc := range tests {
		got := grandfatheredCost(inr(tc.cost), inr(tc.fmv), inr(tc.sale))
		requireAmount(t, tc.want, got)
	}
}

func TestTaxCategoryMapping(t *testing.T) {
	assert.Equal(t, TaxEquity, ClassEquityFund.TaxCategory())
	assert.Equal(t, TaxDebt, ClassBond.TaxCategory())
	assert.Equal(t, TaxForeign, ClassForeignEquity.TaxCategory())
	assert.Equal(t, TaxExempt, ClassSavingsScheme.TaxCategory())
	assert.True(t, ClassEquity.WholeUnits())
	assert.False(t, ClassEquityFund.WholeUnits())
}
