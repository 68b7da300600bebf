package lotbook

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kmenon/lotbook/date"
)

func newID() string { return uuid.NewString() }

// NewBuy creates a user-entered purchase.
func NewBuy(portfolio, asset string, on date.Date, quantity Quantity, price, fees Money) Buy {
	return Buy{tradeCmd: tradeCmd{
		base:     base{ID: newID(), Portfolio: portfolio, Asset: asset, Date: on},
		Quantity: quantity,
		Price:    price,
		Fees:     fees,
	}}
}

// NewSell creates a disposal.
func NewSell(portfolio, asset string, on date.Date, quantity Quantity, price, fees Money) Sell {
	return Sell{tradeCmd: tradeCmd{
		base:     base{ID: newID(), Portfolio: portfolio, Asset: asset, Date: on},
		Quantity: quantity,
		Price:    price,
		Fees:     fees,
	}}
}

// NewDividend creates a cash dividend.
func NewDividend(portfolio, asset string, on date.Date, amount Money) Dividend {
	return Dividend{
		base:   base{ID: newID(), Portfolio: portfolio, Asset: asset, Date: on},
		Amount: amount,
	}
}

// NewReinvestedDividend creates a dividend reinvested at the given unit price.
func NewReinvestedDividend(portfolio, asset string, on date.Date, amount, reinvestPrice Money) Dividend {
	return Dividend{
		base:          base{ID: newID(), Portfolio: portfolio, Asset: asset, Date: on},
		Amount:        amount,
		Reinvested:    true,
		ReinvestPrice: reinvestPrice,
	}
}

// NewCoupon creates a bond coupon payment.
func NewCoupon(portfolio, asset string, on date.Date, amount Money) Coupon {
	return Coupon{
		base:   base{ID: newID(), Portfolio: portfolio, Asset: asset, Date: on},
		Amount: amount,
	}
}

// NewRSUVest creates an equity-compensation vesting with its recorded FMV.
func NewRSUVest(portfolio, asset string, on date.Date, quantity Quantity, price, fmv Money) RSUVest {
	return RSUVest{
		tradeCmd: tradeCmd{
			base:     base{ID: newID(), Portfolio: portfolio, Asset: asset, Date: on},
			Quantity: quantity,
			Price:    price,
		},
		FMV: fmv,
	}
}

// NewESPPPurchase creates an employee stock purchase with its recorded FMV.
func NewESPPPurchase(portfolio, asset string, on date.Date, quantity Quantity, price, fmv Money) ESPPPurchase {
	return ESPPPurchase{
		tradeCmd: tradeCmd{
			base:     base{ID: newID(), Portfolio: portfolio, Asset: asset, Date: on},
			Quantity: quantity,
			Price:    price,
		},
		FMV: fmv,
	}
}

// NewSplit creates a split of num new units per den old ones.
func NewSplit(portfolio, asset string, on date.Date, num, den int64) Split {
	return Split{ratioCmd: ratioCmd{
		base:      base{ID: newID(), Portfolio: portfolio, Asset: asset, Date: on},
		Numerator: num, Denominator: den,
	}}
}

// NewBonus creates a bonus issue of num new units per den held.
func NewBonus(portfolio, asset string, on date.Date, num, den int64) Bonus {
	return Bonus{ratioCmd: ratioCmd{
		base:      base{ID: newID(), Portfolio: portfolio, Asset: asset, Date: on},
		Numerator: num, Denominator: den,
	}}
}

// NewMerger creates a merger of asset into target at num/den.
func NewMerger(portfolio, asset, target string, on date.Date, num, den int64) Merger {
	return Merger{
		ratioCmd: ratioCmd{
			base:      base{ID: newID(), Portfolio: portfolio, Asset: asset, Date: on},
			Numerator: num, Denominator: den,
		},
		TargetAsset: target,
	}
}

// NewDemerger creates a demerger spinning child out of asset at num/den,
// carrying allocationPct percent of the parent's cost.
func NewDemerger(portfolio, asset, child string, on date.Date, num, den int64, allocationPct decimal.Decimal) Demerger {
	return Demerger{
		ratioCmd: ratioCmd{
			base:      base{ID: newID(), Portfolio: portfolio, Asset: asset, Date: on},
			Numerator: num, Denominator: den,
		},
		ChildAsset:    child,
		AllocationPct: allocationPct,
	}
}

// NewRename creates a rename of asset to the target identity.
func NewRename(portfolio, asset, target string, on date.Date) Rename {
	return Rename{
		base:        base{ID: newID(), Portfolio: portfolio, Asset: asset, Date: on},
		TargetAsset: target,
	}
}

// NewContribution creates a savings-scheme deposit.
func NewContribution(portfolio, asset string, on date.Date, amount Money) Contribution {
	return Contribution{
		base:   base{ID: newID(), Portfolio: portfolio, Asset: asset, Date: on},
		Amount: amount,
	}
}

// NewInterestCredit creates a user-entered interest credit for a closed
// financial year. Engine-generated credits are built by the accruer itself.
func NewInterestCredit(portfolio, asset string, on date.Date, amount Money, year date.FinancialYear) InterestCredit {
	return InterestCredit{
		base:   base{ID: newID(), Portfolio: portfolio, Asset: asset, Date: on},
		Amount: amount,
		Year:   year,
	}
}

// NewLink allocates quantity of a buy lot to a sell.
func NewLink(sellID, buyID string, quantity Quantity) TransactionLink {
	return TransactionLink{ID: newID(), Sell: sellID, Buy: buyID, Quantity: quantity}
}
