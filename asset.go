package lotbook

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kmenon/lotbook/date"
)

// AssetClass classifies an asset for tax-category and accrual-model selection.
type AssetClass string

const (
	ClassEquity        AssetClass = "equity"         // listed equity shares
	ClassEquityFund    AssetClass = "equity-fund"    // equity-oriented mutual fund
	ClassDebtFund      AssetClass = "debt-fund"      // debt-oriented mutual fund
	ClassBond          AssetClass = "bond"           // listed bonds and debentures
	ClassSGB           AssetClass = "sgb"            // sovereign gold bond
	ClassGold          AssetClass = "gold"           // physical gold, gold ETF
	ClassForeignEquity AssetClass = "foreign-equity" // foreign-listed equity
	ClassUnlisted      AssetClass = "unlisted"       // unlisted shares
	ClassSavingsScheme AssetClass = "savings-scheme" // contribution-based scheme (PPF-style)
	ClassDeposit       AssetClass = "deposit"        // fixed/recurring deposit
)

// TaxCategory groups asset classes under the holding-period and rate rules
// that apply to them.
type TaxCategory string

const (
	TaxEquity   TaxCategory = "equity"   // listed equity and equity funds
	TaxDebt     TaxCategory = "debt"     // debt funds, bonds, deposits
	TaxGold     TaxCategory = "gold"     // gold and gold instruments
	TaxSGB      TaxCategory = "sgb"      // sovereign gold bonds
	TaxForeign  TaxCategory = "foreign"  // foreign-currency assets
	TaxUnlisted TaxCategory = "unlisted" // unlisted shares
	TaxExempt   TaxCategory = "exempt"   // savings schemes: no capital-gains event
)

// TaxCategory maps the asset class to the rule group used by the
// capital-gains classifier.
func (c AssetClass) TaxCategory() TaxCategory {
	switch c {
	case ClassEquity, ClassEquityFund:
		return TaxEquity
	case ClassDebtFund, ClassBond, ClassDeposit:
		return TaxDebt
	case ClassGold:
		return TaxGold
	case ClassSGB:
		return TaxSGB
	case ClassForeignEquity:
		return TaxForeign
	case ClassUnlisted:
		return TaxUnlisted
	case ClassSavingsScheme:
		return TaxExempt
	default:
		return TaxDebt
	}
}

// WholeUnits reports whether holdings of this class are counted in whole
// units, which makes bonus entitlements floor to an integer quantity.
func (c AssetClass) WholeUnits() bool {
	switch c {
	case ClassEquity, ClassSGB, ClassForeignEquity, ClassUnlisted:
		return true
	default:
		return false
	}
}

// Asset is the identity and classification of an instrument held in a
// portfolio.
type Asset struct {
	ID       string     `json:"id"`
	Ticker   string     `json:"ticker"`
	Name     string     `json:"name,omitempty"`
	Class    AssetClass `json:"class"`
	Currency string     `json:"currency"`

	// FMVAtCutoff is the externally supplied fair market value per unit on
	// the grandfathering cutoff date. Zero when unknown or not applicable.
	FMVAtCutoff Money `json:"-"`

	// OpenedOn is the account opening date for savings-scheme assets.
	OpenedOn date.Date `json:"opened_on,omitempty"`
}

// MarshalJSON flattens the optional FMV into a bare decimal so the asset
// round-trips through the JSONL store.
func (a Asset) MarshalJSON() ([]byte, error) {
	type alias Asset
	return json.Marshal(struct {
		alias
		FMV decimal.Decimal `json:"fmv_at_cutoff"`
	}{alias: alias(a), FMV: a.FMVAtCutoff.Amount()})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (a *Asset) UnmarshalJSON(b []byte) error {
	type alias Asset
	var temp struct {
		alias
		FMV decimal.Decimal `json:"fmv_at_cutoff"`
	}
	if err := json.Unmarshal(b, &temp); err != nil {
		return err
	}
	*a = Asset(temp.alias)
	a.FMVAtCutoff = M(temp.FMV, a.Currency)
	return nil
}

// Validate checks the asset's identity fields.
func (a Asset) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("asset ID is missing")
	}
	if a.Ticker == "" {
		return fmt.Errorf("asset %s: ticker is missing", a.ID)
	}
	if a.Currency == "" {
		return fmt.Errorf("asset %s: currency is missing", a.Ticker)
	}
	return nil
}
