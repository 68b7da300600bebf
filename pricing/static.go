package pricing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/kmenon/lotbook/date"
)

// Static is an in-memory Provider backed by fixed quotes. Useful for tests
// and for running without network access.
type Static struct {
	quotes  map[string]Quote
	history map[string]map[date.Date]decimal.Decimal
}

func NewStatic() *Static {
	return &Static{
		quotes:  make(map[string]Quote),
		history: make(map[string]map[date.Date]decimal.Decimal),
	}
}

// Set records the latest quote for a ticker.
func (s *Static) Set(ticker string, price, previousClose decimal.Decimal) *Static {
	s.quotes[ticker] = Quote{Price: price, PreviousClose: previousClose}
	return s
}

// SetOn records a historical closing price for a ticker.
func (s *Static) SetOn(ticker string, on date.Date, price decimal.Decimal) *Static {
	h, ok := s.history[ticker]
	if !ok {
		h = make(map[date.Date]decimal.Decimal)
		s.history[ticker] = h
	}
	h[on] = price
	return s
}

func (s *Static) CurrentPrices(_ context.Context, tickers []string) (map[string]Quote, error) {
	quotes := make(map[string]Quote, len(tickers))
	for _, ticker := range tickers {
		if q, ok := s.quotes[ticker]; ok {
			quotes[ticker] = q
		}
	}
	return quotes, nil
}

func (s *Static) HistoricalPrices(_ context.Context, tickers []string, r date.Range) (map[string]map[date.Date]decimal.Decimal, error) {
	histories := make(map[string]map[date.Date]decimal.Decimal, len(tickers))
	for _, ticker := range tickers {
		h, ok := s.history[ticker]
		if !ok {
			continue
		}
		prices := make(map[date.Date]decimal.Decimal)
		for on, p := range h {
			if r.Contains(on) {
				prices[on] = p
			}
		}
		histories[ticker] = prices
	}
	return histories, nil
}

var (
	_ Provider = (*Static)(nil)
	_ Provider = (*Client)(nil)
)
