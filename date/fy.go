package date

import (
	"fmt"
	"time"
)

// FinancialYear identifies an April-to-March financial year by its starting
// calendar year: FinancialYear(2023) runs 2023-04-01 through 2024-03-31.
type FinancialYear int

// FinancialYearOf returns the financial year a date falls in.
func FinancialYearOf(on Date) FinancialYear {
	if on.Month() < time.April {
		return FinancialYear(on.Year() - 1)
	}
	return FinancialYear(on.Year())
}

// Start returns the first day of the financial year.
func (fy FinancialYear) Start() Date { return New(int(fy), time.April, 1) }

// End returns the last day of the financial year.
func (fy FinancialYear) End() Date { return New(int(fy)+1, time.March, 31) }

// Range returns the inclusive date range covered by the financial year.
func (fy FinancialYear) Range() Range { return Range{From: fy.Start(), To: fy.End()} }

// Contains reports whether a date falls within the financial year.
func (fy FinancialYear) Contains(on Date) bool { return fy.Range().Contains(on) }

// Next returns the following financial year.
func (fy FinancialYear) Next() FinancialYear { return fy + 1 }

// String formats the financial year in the conventional "FY2023-24" form.
func (fy FinancialYear) String() string {
	return fmt.Sprintf("FY%d-%02d", int(fy), (int(fy)+1)%100)
}

// FilingWindows returns the five sub-year date ranges of the financial year
// mandated by the periodic return form, in chronological order:
// Apr 1–Jun 15, Jun 16–Sep 15, Sep 16–Dec 15, Dec 16–Mar 15, Mar 16–Mar 31.
func (fy FinancialYear) FilingWindows() [5]Range {
	y := int(fy)
	return [5]Range{
		{From: New(y, time.April, 1), To: New(y, time.June, 15)},
		{From: New(y, time.June, 16), To: New(y, time.September, 15)},
		{From: New(y, time.September, 16), To: New(y, time.December, 15)},
		{From: New(y, time.December, 16), To: New(y+1, time.March, 15)},
		{From: New(y+1, time.March, 16), To: New(y+1, time.March, 31)},
	}
}

// FilingWindowOf returns the index (0..4) of the filing window containing the
// date, or -1 if the date is outside the financial year.
func (fy FinancialYear) FilingWindowOf(on Date) int {
	for i, w := range fy.FilingWindows() {
		if w.Contains(on) {
			return i
		}
	}
	return -1
}
