// Package rates serves the published annual interest rates of
// contribution-based savings schemes, keyed by scheme and financial year.
//
// The table ships with the published PPF rates embedded; deployments carry
// additional schemes or overrides in a TOML file of the same shape:
//
//	[ppf]
//	2023 = 7.1
//	2024 = 7.1
package rates

import (
	_ "embed"
	"errors"
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"

	"github.com/kmenon/lotbook/date"
)

// ErrNoRate means no rate is published for the requested scheme and year.
var ErrNoRate = errors.New("no published rate")

// Provider serves annual scheme rates as fractions (7.1% is 0.071).
type Provider interface {
	RateForYear(scheme string, fy date.FinancialYear) (decimal.Decimal, error)
}

// Table is a Provider backed by a parsed TOML rate table.
type Table struct {
	// scheme -> starting calendar year -> rate fraction
	schemes map[string]map[int]decimal.Decimal
}

//go:embed ppf.toml
var published []byte

// Published returns the embedded table of published rates.
func Published() *Table {
	t, err := Parse(published)
	if err != nil {
		panic(fmt.Sprintf("embedded rate table: %v", err))
	}
	return t
}

// Parse reads a TOML rate table. Values are percentages, as published.
func Parse(b []byte) (*Table, error) {
	var raw map[string]map[string]float64
	if err := toml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("invalid rate table: %w", err)
	}
	t := &Table{schemes: make(map[string]map[int]decimal.Decimal, len(raw))}
	for scheme, years := range raw {
		m := make(map[int]decimal.Decimal, len(years))
		for year, pct := range years {
			var y int
			if _, err := fmt.Sscanf(year, "%d", &y); err != nil {
				return nil, fmt.Errorf("invalid rate table: scheme %q: year %q", scheme, year)
			}
			m[y] = decimal.NewFromFloat(pct).Div(decimal.NewFromInt(100))
		}
		t.schemes[scheme] = m
	}
	return t, nil
}

// Load reads a TOML rate table from a reader.
func Load(r io.Reader) (*Table, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// RateForYear returns the annual rate fraction for a scheme and year.
func (t *Table) RateForYear(scheme string, fy date.FinancialYear) (decimal.Decimal, error) {
	years, ok := t.schemes[scheme]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("scheme %q: %w", scheme, ErrNoRate)
	}
	rate, ok := years[int(fy)]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("scheme %q %s: %w", scheme, fy, ErrNoRate)
	}
	return rate, nil
}

var _ Provider = (*Table)(nil)
