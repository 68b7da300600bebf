package lotbook

import (
	"time"

	"github.com/kmenon/lotbook/date"
)

// GainType splits gains into the short- and long-term regimes.
type GainType string

const (
	ShortTerm GainType = "STCG"
	LongTerm  GainType = "LTCG"
)

// Legislative dates. These are statutes, not configuration: changing them
// means the law changed, and every historical report changes with them.
var (
	// GrandfatheringCutoff is the last day whose fair market value anchors
	// the grandfathered cost of equity acquired on or before it.
	GrandfatheringCutoff = date.New(2018, time.January, 31)

	// RateCutover is the first day the revised holding periods and rates
	// apply. Classification follows the sell date, not the buy date.
	RateCutover = date.New(2024, time.July, 23)
)

// isLongTerm classifies a disposal by tax category and holding period.
// Equity counts days; the other categories count months, with the threshold
// shortened for sells on or after the rate cutover.
func isLongTerm(cat TaxCategory, acquired, sold date.Date) bool {
	postCutover := !sold.Before(RateCutover)
	switch cat {
	case TaxEquity:
		return acquired.DaysUntil(sold) > 365
	case TaxForeign:
		// fixed threshold, unaffected by the cutover
		return sold.After(acquired.AddMonths(24))
	case TaxSGB:
		// secondary-market sales only; redemptions never reach the
		// classifier because they are exempt
		if postCutover {
			return sold.After(acquired.AddMonths(12))
		}
		return sold.After(acquired.AddMonths(36))
	default: // gold, debt, unlisted
		if postCutover {
			return sold.After(acquired.AddMonths(24))
		}
		return sold.After(acquired.AddMonths(36))
	}
}

// grandfathered reports whether the grandfathering adjustment applies: an
// equity lot acquired on or before the cutoff, disposed of long-term, with a
// recorded cutoff FMV.
func grandfathered(cat TaxCategory, g GainType, acquired date.Date, fmvAtCutoff Money) bool {
	return cat == TaxEquity && g == LongTerm &&
		!acquired.After(GrandfatheringCutoff) && fmvAtCutoff.IsPositive()
}

// grandfatheredCost adjusts a per-unit acquisition cost by the cutoff FMV:
// adjusted = max(cost, min(fmv, salePrice)). The min against the sale price
// prevents a manufactured loss when the price fell below the cutoff FMV.
func grandfatheredCost(cost, fmvAtCutoff, salePrice Money) Money {
	return cost.Max(fmvAtCutoff.Min(salePrice))
}

// rateLabel names the statutory rate bucket for a gain. The label is a
// reporting string only; the engine never computes tax amounts.
func rateLabel(g GainType, cat TaxCategory, postCutover bool) string {
	if g == ShortTerm {
		switch cat {
		case TaxEquity:
			if postCutover {
				return "20%"
			}
			return "15%"
		default:
			return "slab"
		}
	}
	switch cat {
	case TaxEquity:
		if postCutover {
			return "12.5% over 1.25L"
		}
		return "10% over 1L"
	default:
		if postCutover {
			return "12.5%"
		}
		return "20% with indexation"
	}
}
