package lotbook

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kmenon/lotbook/date"
)

// Kind is a typed tag identifying a transaction variant. The set is closed:
// every consumer switches exhaustively over it, so adding a kind is a
// compile-time-checked change.
type Kind string

const (
	KindBuy            Kind = "BUY"
	KindSell           Kind = "SELL"
	KindDividend       Kind = "DIVIDEND"
	KindSplit          Kind = "SPLIT"
	KindBonus          Kind = "BONUS"
	KindMerger         Kind = "MERGER"
	KindDemerger       Kind = "DEMERGER"
	KindRename         Kind = "RENAME"
	KindContribution   Kind = "CONTRIBUTION"
	KindInterestCredit Kind = "INTEREST_CREDIT"
	KindCoupon         Kind = "COUPON"
	KindRSUVest        Kind = "RSU_VEST"
	KindESPPPurchase   Kind = "ESPP_PURCHASE"
)

// Transaction is the common interface of all ledger records. Transactions are
// immutable once appended; corrections are modeled as delete plus recreate.
type Transaction interface {
	What() Kind          // What returns the variant tag.
	When() date.Date     // When returns the effective date.
	Ref() string         // Ref returns the transaction's unique ID.
	AssetID() string     // AssetID returns the owning asset identity.
	PortfolioID() string // PortfolioID returns the owning portfolio identity.
	Equal(Transaction) bool
	Validate(l *Ledger) error
}

// base carries the envelope common to every transaction variant.
type base struct {
	ID        string    `json:"id"`
	Portfolio string    `json:"portfolio"`
	Asset     string    `json:"asset"`
	Date      date.Date `json:"date"`
	Note      string    `json:"note,omitempty"`
}

func (t base) When() date.Date     { return t.Date }
func (t base) Ref() string         { return t.ID }
func (t base) AssetID() string     { return t.Asset }
func (t base) PortfolioID() string { return t.Portfolio }

// validate checks the envelope against the ledger's known assets.
func (t base) validate(l *Ledger) error {
	if t.ID == "" {
		return fmt.Errorf("transaction ID is missing")
	}
	if t.Portfolio == "" {
		return fmt.Errorf("portfolio ID is missing")
	}
	if l.Asset(t.Asset) == nil {
		return fmt.Errorf("asset %q: %w", t.Asset, ErrAssetNotFound)
	}
	return nil
}

// tradeCmd is the component shared by quantity-and-price transactions.
type tradeCmd struct {
	base
	Quantity Quantity `json:"quantity"`
	Price    Money    `json:"price"` // per unit
	Fees     Money    `json:"fees"`
}

func (t tradeCmd) validate(l *Ledger) error {
	if err := t.base.validate(l); err != nil {
		return err
	}
	if t.Quantity.IsNegative() {
		return fmt.Errorf("quantity must be non-negative, got %s", t.Quantity)
	}
	if t.Price.IsNegative() {
		return fmt.Errorf("price must be non-negative, got %s", t.Price.Amount())
	}
	if t.Fees.IsNegative() {
		return fmt.Errorf("fees must be non-negative, got %s", t.Fees.Amount())
	}
	return nil
}

// ratioCmd is the component shared by corporate actions carrying a ratio.
type ratioCmd struct {
	base
	Numerator   int64 `json:"num"`
	Denominator int64 `json:"den"`
}

func (t ratioCmd) validate(l *Ledger) error {
	if err := t.base.validate(l); err != nil {
		return err
	}
	if t.Numerator <= 0 || t.Denominator <= 0 {
		return fmt.Errorf("%w: %d/%d", ErrInvalidRatio, t.Numerator, t.Denominator)
	}
	return nil
}

// ratio returns the multiplicative factor numerator/denominator.
func (t ratioCmd) ratio() Quantity {
	return Q(t.Numerator).Div(Q(t.Denominator))
}

// --- Acquisitions and disposals ---

// Buy records the purchase of a quantity of an asset at a unit price.
type Buy struct {
	tradeCmd

	// SourceAction holds the ID of the corporate action that synthesized
	// this buy, empty for user-entered purchases.
	SourceAction string `json:"source_action,omitempty"`

	// AcquiredOn overrides the acquisition date used for holding-period
	// purposes when a merger/demerger/rename preserves the original date.
	// Zero means the transaction date itself.
	AcquiredOn date.Date `json:"acquired_on"`
}

func (t Buy) What() Kind { return KindBuy }

// AcquisitionDate is the date used for holding-period computation.
func (t Buy) AcquisitionDate() date.Date {
	if !t.AcquiredOn.IsZero() {
		return t.AcquiredOn
	}
	return t.Date
}

func (t Buy) Equal(o Transaction) bool {
	v, ok := o.(Buy)
	return ok && t.base == v.base && t.Quantity.Equal(v.Quantity) &&
		t.Price.Equal(v.Price) && t.Fees.Equal(v.Fees) &&
		t.SourceAction == v.SourceAction && t.AcquiredOn == v.AcquiredOn
}

func (t Buy) Validate(l *Ledger) error {
	if err := t.tradeCmd.validate(l); err != nil {
		return err
	}
	if !t.Quantity.IsPositive() {
		return fmt.Errorf("buy quantity must be positive, got %s", t.Quantity)
	}
	return nil
}

// Sell records the disposal of a quantity of an asset at a unit price.
// Lot allocation lives in TransactionLink rows, not on the sell itself.
type Sell struct {
	tradeCmd
}

func (t Sell) What() Kind { return KindSell }

func (t Sell) Equal(o Transaction) bool {
	v, ok := o.(Sell)
	return ok && t.base == v.base && t.Quantity.Equal(v.Quantity) &&
		t.Price.Equal(v.Price) && t.Fees.Equal(v.Fees)
}

func (t Sell) Validate(l *Ledger) error {
	if err := t.tradeCmd.validate(l); err != nil {
		return err
	}
	if !t.Quantity.IsPositive() {
		return fmt.Errorf("sell quantity must be positive, got %s", t.Quantity)
	}
	return nil
}

// RSUVest records equity compensation vesting: units received at zero or
// nominal cost with a recorded fair market value on the vest date.
type RSUVest struct {
	tradeCmd
	FMV Money `json:"fmv"` // per unit, on the vest date
}

func (t RSUVest) What() Kind { return KindRSUVest }

func (t RSUVest) Equal(o Transaction) bool {
	v, ok := o.(RSUVest)
	return ok && t.base == v.base && t.Quantity.Equal(v.Quantity) &&
		t.Price.Equal(v.Price) && t.Fees.Equal(v.Fees) && t.FMV.Equal(v.FMV)
}

func (t RSUVest) Validate(l *Ledger) error {
	if err := t.tradeCmd.validate(l); err != nil {
		return err
	}
	if !t.Quantity.IsPositive() {
		return fmt.Errorf("vest quantity must be positive, got %s", t.Quantity)
	}
	if t.FMV.IsNegative() {
		return fmt.Errorf("vest FMV must be non-negative, got %s", t.FMV.Amount())
	}
	return nil
}

// ESPPPurchase records an employee stock purchase, typically at a discount
// to the recorded fair market value.
type ESPPPurchase struct {
	tradeCmd
	FMV Money `json:"fmv"` // per unit, on the purchase date
}

func (t ESPPPurchase) What() Kind { return KindESPPPurchase }

func (t ESPPPurchase) Equal(o Transaction) bool {
	v, ok := o.(ESPPPurchase)
	return ok && t.base == v.base && t.Quantity.Equal(v.Quantity) &&
		t.Price.Equal(v.Price) && t.Fees.Equal(v.Fees) && t.FMV.Equal(v.FMV)
}

func (t ESPPPurchase) Validate(l *Ledger) error {
	if err := t.tradeCmd.validate(l); err != nil {
		return err
	}
	if !t.Quantity.IsPositive() {
		return fmt.Errorf("purchase quantity must be positive, got %s", t.Quantity)
	}
	if t.FMV.IsNegative() {
		return fmt.Errorf("purchase FMV must be non-negative, got %s", t.FMV.Amount())
	}
	return nil
}

// --- Income ---

// Dividend records a dividend payout, optionally reinvested.
type Dividend struct {
	base
	Amount        Money `json:"dividend"` // total payout
	Reinvested    bool  `json:"reinvested,omitempty"`
	ReinvestPrice Money `json:"reinvest_price"` // per unit, required when reinvested
}

func (t Dividend) What() Kind { return KindDividend }

func (t Dividend) Equal(o Transaction) bool {
	v, ok := o.(Dividend)
	return ok && t.base == v.base && t.Amount.Equal(v.Amount) &&
		t.Reinvested == v.Reinvested && t.ReinvestPrice.Equal(v.ReinvestPrice)
}

func (t Dividend) Validate(l *Ledger) error {
	if err := t.base.validate(l); err != nil {
		return err
	}
	if !t.Amount.IsPositive() {
		return fmt.Errorf("dividend amount must be positive, got %s", t.Amount.Amount())
	}
	if t.Reinvested && !t.ReinvestPrice.IsPositive() {
		return fmt.Errorf("dividend on %s: %w", t.Date, ErrMissingReinvestmentValuation)
	}
	return nil
}

// Coupon records a bond coupon payment.
type Coupon struct {
	base
	Amount Money `json:"coupon"`
}

func (t Coupon) What() Kind { return KindCoupon }

func (t Coupon) Equal(o Transaction) bool {
	v, ok := o.(Coupon)
	return ok && t.base == v.base && t.Amount.Equal(v.Amount)
}

func (t Coupon) Validate(l *Ledger) error {
	if err := t.base.validate(l); err != nil {
		return err
	}
	if !t.Amount.IsPositive() {
		return fmt.Errorf("coupon amount must be positive, got %s", t.Amount.Amount())
	}
	return nil
}

// --- Corporate actions ---

// Split records a stock split. It synthesizes nothing: replay applies
// quantity × ratio and price ÷ ratio to earlier transactions at read time,
// keeping total consideration invariant.
type Split struct {
	ratioCmd
}

func (t Split) What() Kind { return KindSplit }

func (t Split) Equal(o Transaction) bool {
	v, ok := o.(Split)
	return ok && t.ratioCmd == v.ratioCmd
}

func (t Split) Validate(l *Ledger) error { return t.ratioCmd.validate(l) }

// Bonus records a bonus issue of Numerator new units per Denominator held.
// The audit transaction persists even when the entitlement is zero.
type Bonus struct {
	ratioCmd
}

func (t Bonus) What() Kind { return KindBonus }

func (t Bonus) Equal(o Transaction) bool {
	v, ok := o.(Bonus)
	return ok && t.ratioCmd == v.ratioCmd
}

func (t Bonus) Validate(l *Ledger) error { return t.ratioCmd.validate(l) }

// Merger records the absorption of this asset into TargetAsset at the given
// ratio. Replay emits cost-preserving buys on the target that reuse the
// original acquisition dates.
type Merger struct {
	ratioCmd
	TargetAsset string `json:"target_asset"`
}

func (t Merger) What() Kind { return KindMerger }

func (t Merger) Equal(o Transaction) bool {
	v, ok := o.(Merger)
	return ok && t.ratioCmd == v.ratioCmd && t.TargetAsset == v.TargetAsset
}

func (t Merger) Validate(l *Ledger) error {
	if err := t.ratioCmd.validate(l); err != nil {
		return err
	}
	if l.Asset(t.TargetAsset) == nil {
		return fmt.Errorf("merger target %q: %w", t.TargetAsset, ErrAssetNotFound)
	}
	return nil
}

// Demerger records the spin-off of ChildAsset, moving AllocationPct percent
// of the parent's cost basis to child lots at the given ratio.
type Demerger struct {
	ratioCmd
	ChildAsset    string          `json:"child_asset"`
	AllocationPct decimal.Decimal `json:"allocation_pct"`

	// AllocatedCost is filled by the replay engine on the audit record: the
	// total cost carved out of the parent by this demerger.
	AllocatedCost Money `json:"allocated_cost"`
}

func (t Demerger) What() Kind { return KindDemerger }

func (t Demerger) Equal(o Transaction) bool {
	v, ok := o.(Demerger)
	return ok && t.base == v.base && t.Numerator == v.Numerator &&
		t.Denominator == v.Denominator && t.ChildAsset == v.ChildAsset &&
		t.AllocationPct.Equal(v.AllocationPct) && t.AllocatedCost.Equal(v.AllocatedCost)
}

func (t Demerger) Validate(l *Ledger) error {
	if err := t.ratioCmd.validate(l); err != nil {
		return err
	}
	if l.Asset(t.ChildAsset) == nil {
		return fmt.Errorf("demerger child %q: %w", t.ChildAsset, ErrAssetNotFound)
	}
	if t.AllocationPct.IsNegative() || t.AllocationPct.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("%w: allocation %s%% outside [0,100]", ErrInvalidRatio, t.AllocationPct)
	}
	return nil
}

// Rename records a change of asset identity. Replay emits 1:1 buys on the
// new identity preserving quantity, price and acquisition date; not a
// taxable event.
type Rename struct {
	base
	TargetAsset string `json:"target_asset"`
}

func (t Rename) What() Kind { return KindRename }

func (t Rename) Equal(o Transaction) bool {
	v, ok := o.(Rename)
	return ok && t.base == v.base && t.TargetAsset == v.TargetAsset
}

func (t Rename) Validate(l *Ledger) error {
	if err := t.base.validate(l); err != nil {
		return err
	}
	if l.Asset(t.TargetAsset) == nil {
		return fmt.Errorf("rename target %q: %w", t.TargetAsset, ErrAssetNotFound)
	}
	return nil
}

// --- Savings scheme ---

// Contribution records a deposit into a contribution-based savings scheme.
type Contribution struct {
	base
	Amount Money `json:"contribution"`
}

func (t Contribution) What() Kind { return KindContribution }

func (t Contribution) Equal(o Transaction) bool {
	v, ok := o.(Contribution)
	return ok && t.base == v.base && t.Amount.Equal(v.Amount)
}

func (t Contribution) Validate(l *Ledger) error {
	if err := t.base.validate(l); err != nil {
		return err
	}
	if !t.Amount.IsPositive() {
		return fmt.Errorf("contribution amount must be positive, got %s", t.Amount.Amount())
	}
	return nil
}

// InterestCredit records interest credited to a savings scheme for a closed
// financial year.
type InterestCredit struct {
	base
	Amount Money              `json:"interest"`
	Year   date.FinancialYear `json:"year"`

	// Generated distinguishes engine-created credits, which the correction
	// path may delete and regenerate, from user-entered ones.
	Generated bool `json:"generated,omitempty"`
}

func (t InterestCredit) What() Kind { return KindInterestCredit }

func (t InterestCredit) Equal(o Transaction) bool {
	v, ok := o.(InterestCredit)
	return ok && t.base == v.base && t.Amount.Equal(v.Amount) &&
		t.Year == v.Year && t.Generated == v.Generated
}

func (t InterestCredit) Validate(l *Ledger) error {
	if err := t.base.validate(l); err != nil {
		return err
	}
	if t.Amount.IsNegative() {
		return fmt.Errorf("interest amount must be non-negative, got %s", t.Amount.Amount())
	}
	return nil
}

// isAcquisition reports whether a transaction creates a lot, and if so
// returns its quantity and unit price.
func isAcquisition(tx Transaction) (q Quantity, price Money, ok bool) {
	switch v := tx.(type) {
	case Buy:
		return v.Quantity, v.Price, true
	case RSUVest:
		return v.Quantity, v.Price, true
	case ESPPPurchase:
		return v.Quantity, v.Price, true
	case Dividend:
		if v.Reinvested {
			return Q(v.Amount.Amount().Div(v.ReinvestPrice.Amount())), v.ReinvestPrice, true
		}
		return Quantity{}, Money{}, false
	default:
		return Quantity{}, Money{}, false
	}
}

// acquisitionDate returns the holding-period start for a lot-creating
// transaction: the preserved original date for synthetic buys, else the
// transaction date.
func acquisitionDate(tx Transaction) date.Date {
	if buy, ok := tx.(Buy); ok {
		return buy.AcquisitionDate()
	}
	return tx.When()
}

// acquisitionFMV returns the recorded fair market value for
// equity-compensation acquisitions, zero otherwise.
func acquisitionFMV(tx Transaction) Money {
	switch v := tx.(type) {
	case RSUVest:
		return v.FMV
	case ESPPPurchase:
		return v.FMV
	default:
		return Money{}
	}
}
