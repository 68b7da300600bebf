package lotbook

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/kmenon/lotbook/date"
	"github.com/kmenon/lotbook/rates"
)

// Accruer generates the yearly interest credits of contribution-based
// savings schemes. Credits are ordinary ledger transactions flagged
// Generated, so invalidation can delete and regenerate them without
// touching user-entered records.
//
// The rate table is keyed by the asset's ticker, lower-cased: an account
// declared with ticker "PPF" accrues at the published "ppf" rates.
type Accruer struct {
	ledger *Ledger
	rates  rates.Provider
	log    zerolog.Logger
}

func NewAccruer(l *Ledger, r rates.Provider, log zerolog.Logger) *Accruer {
	return &Accruer{ledger: l, rates: r, log: log.With().Str("component", "accruer").Logger()}
}

// schemeAsset resolves and checks the asset.
func (a *Accruer) schemeAsset(assetID string) (*Asset, error) {
	asset := a.ledger.Asset(assetID)
	if asset == nil {
		return nil, fmt.Errorf("asset %q: %w", assetID, ErrAssetNotFound)
	}
	if asset.Class != ClassSavingsScheme {
		return nil, fmt.Errorf("asset %q is a %s, not a savings scheme", assetID, asset.Class)
	}
	return asset, nil
}

// yearBase computes the amount interest is earned on for one financial
// year: the balance at the year's start plus the contributions made in its
// first month. Later contributions earn nothing until the next year, the
// scheme's minimum-balance rule collapsed to annual granularity.
func (a *Accruer) yearBase(assetID string, fy date.FinancialYear, pending []InterestCredit) Money {
	var opening, qualifying Money
	firstMonthEnd := fy.Start().AddMonths(1).Add(-1)
	for tx := range a.ledger.AssetTransactions(assetID, fy.End()) {
		switch v := tx.(type) {
		case Contribution:
			if v.When().Before(fy.Start()) {
				opening = opening.Add(v.Amount)
			} else if !v.When().After(firstMonthEnd) {
				qualifying = qualifying.Add(v.Amount)
			}
		case InterestCredit:
			if v.When().Before(fy.Start()) {
				opening = opening.Add(v.Amount)
			}
		}
	}
	for _, c := range pending {
		if c.When().Before(fy.Start()) {
			opening = opening.Add(c.Amount)
		}
	}
	return opening.Add(qualifying)
}

// firstYear returns the financial year accrual starts in: the declared
// opening date, or the first recorded transaction of the account.
func (a *Accruer) firstYear(asset *Asset) (date.FinancialYear, bool) {
	if !asset.OpenedOn.IsZero() {
		return date.FinancialYearOf(asset.OpenedOn), true
	}
	for tx := range a.ledger.AssetTransactions(asset.ID, date.New(9999, time.December, 31)) {
		return date.FinancialYearOf(tx.When()), true
	}
	return 0, false
}

// CreditInterest generates the missing interest credit of every financial
// year fully elapsed at asOf, in order, and applies them as one batch.
// Years that already carry a credit, generated or user-entered, are left
// alone, so the operation is idempotent.
func (a *Accruer) CreditInterest(assetID string, asOf date.Date) ([]InterestCredit, error) {
	asset, err := a.schemeAsset(assetID)
	if err != nil {
		return nil, err
	}
	fy, ok := a.firstYear(asset)
	if !ok {
		return nil, nil
	}

	credited := make(map[date.FinancialYear]bool)
	for tx := range a.ledger.AssetTransactions(assetID, asOf) {
		if c, isCredit := tx.(InterestCredit); isCredit {
			credited[c.Year] = true
		}
	}

	var generated []InterestCredit
	for ; fy.End().Before(asOf); fy = fy.Next() {
		if credited[fy] {
			continue
		}
		rate, err := a.rates.RateForYear(a.scheme(asset), fy)
		if err != nil {
			return nil, fmt.Errorf("credit interest for %s: %w", fy, err)
		}
		principal := a.yearBase(assetID, fy, generated)
		if !principal.IsPositive() {
			continue
		}
		credit := InterestCredit{
			base: base{
				ID:        newID(),
				Portfolio: a.ledger.Portfolio(),
				Asset:     assetID,
				Date:      fy.End(),
			},
			Amount:    M(principal.Amount().Mul(rate), asset.Currency),
			Year:      fy,
			Generated: true,
		}
		generated = append(generated, credit)
	}
	if len(generated) == 0 {
		return nil, nil
	}

	batch := Batch{}
	for _, c := range generated {
		batch.Transactions = append(batch.Transactions, c)
	}
	if err := a.ledger.Apply(batch); err != nil {
		return nil, err
	}
	a.log.Info().
		Str("asset", assetID).
		Int("credits", len(generated)).
		Msg("interest credited")
	return generated, nil
}

// Estimate computes the interest accrued so far in the financial year
// containing asOf, prorated by complete months since April. The figure is
// never persisted; it becomes a credit only once the year closes.
func (a *Accruer) Estimate(assetID string, asOf date.Date) (Money, error) {
	asset, err := a.schemeAsset(assetID)
	if err != nil {
		return Money{}, err
	}
	fy := date.FinancialYearOf(asOf)
	rate, err := a.rates.RateForYear(a.scheme(asset), fy)
	if err != nil {
		return Money{}, fmt.Errorf("estimate interest for %s: %w", fy, err)
	}
	principal := a.yearBase(assetID, fy, nil)
	months := int64(fy.Start().DaysUntil(asOf) / 30)
	if months > 12 {
		months = 12
	}
	accrued := principal.Amount().Mul(rate).Mul(decimal.NewFromInt(months)).Div(decimal.NewFromInt(12))
	return M(accrued, asset.Currency), nil
}

// InvalidateCredits deletes every generated credit of the asset and returns
// the number removed. The next CreditInterest call regenerates them from
// the surviving history.
func (a *Accruer) InvalidateCredits(assetID string) (int, error) {
	if _, err := a.schemeAsset(assetID); err != nil {
		return 0, err
	}
	n := a.ledger.Remove(func(tx Transaction) bool {
		c, ok := tx.(InterestCredit)
		return ok && c.Asset == assetID && c.Generated
	})
	if n > 0 {
		a.log.Info().Str("asset", assetID).Int("credits", n).Msg("generated credits invalidated")
	}
	return n, nil
}

func (a *Accruer) scheme(asset *Asset) string {
	return strings.ToLower(asset.Ticker)
}
