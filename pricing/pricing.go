// Package pricing defines the market-price collaborator consumed by the
// read-side aggregators, and two implementations: an HTTP client for an
// EODHD-style quote API and a static in-memory provider.
//
// Absence of a price is a valid response, not an error: callers fall back
// to book value when a ticker is missing from the result.
package pricing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/kmenon/lotbook/date"
)

// Quote is the latest price of one instrument.
type Quote struct {
	Price         decimal.Decimal
	PreviousClose decimal.Decimal
}

// Provider serves market prices. Implementations must tolerate partial
// results: any requested ticker may be absent from the returned map.
type Provider interface {
	// CurrentPrices returns the latest quote per ticker.
	CurrentPrices(ctx context.Context, tickers []string) (map[string]Quote, error)

	// HistoricalPrices returns dated closing prices per ticker over a range.
	HistoricalPrices(ctx context.Context, tickers []string, r date.Range) (map[string]map[date.Date]decimal.Decimal, error)
}
