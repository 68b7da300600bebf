package date

import "fmt"

// Range represents an inclusive range of dates.
type Range struct{ From, To Date }

// NewRange returns a range between two dates, boundaries included.
func NewRange(from, to Date) Range { return Range{From: from, To: to} }

// Contains reports whether the date is included in the range (boundaries included).
func (r Range) Contains(on Date) bool { return !on.Before(r.From) && !on.After(r.To) }

// String returns a compact identifier for the range.
func (r Range) String() string { return fmt.Sprintf("%s_%s", r.From, r.To) }
