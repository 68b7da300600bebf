package lotbook

import "errors"

// Error kinds surfaced by the engines. Callers match them with errors.Is;
// wrapped messages carry the operation context.
var (
	// ErrInsufficientHoldings rejects a sale whose quantity exceeds the
	// computed available holdings on the sale date. Never partially applied.
	ErrInsufficientHoldings = errors.New("insufficient holdings")

	// ErrInvalidRatio rejects a corporate action with a non-positive ratio,
	// or a demerger allocation outside [0,100] (including a cumulative
	// allocation that would exceed 100% of the parent's cost).
	ErrInvalidRatio = errors.New("invalid ratio")

	// ErrNoHoldingsOnRecordDate rejects a merger, demerger or rename
	// attempted with zero eligible holdings on the record date. A bonus with
	// zero holdings is tolerated and recorded as audit only.
	ErrNoHoldingsOnRecordDate = errors.New("no holdings on record date")

	// ErrMissingReinvestmentValuation rejects a dividend marked reinvested
	// without a supplied reinvestment price.
	ErrMissingReinvestmentValuation = errors.New("missing reinvestment valuation")

	// ErrAssetNotFound reports a reference to an asset unknown to the ledger.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrPortfolioNotFound reports a reference to an unknown portfolio.
	ErrPortfolioNotFound = errors.New("portfolio not found")
)
