package trend

import "time"

// Window is one trailing comparison period.
type Window struct {
	Label  string
	Months int
}

// Windows are the three comparison periods, shortest first.
var Windows = []Window{
	{Label: "6M", Months: 6},
	{Label: "1Y", Months: 12},
	{Label: "1.5Y", Months: 18},
}

// AddMonths shifts t by a number of calendar months, clamping the day to the
// last day of the target month: 2023-08-31 minus 6 months is 2023-02-28.
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

// Bounds returns the exclusive lower bounds of the current and previous
// periods ending at end. Current is (curStart, end] and previous is
// (prevStart, curStart]. Both are measured from end.
func (w Window) Bounds(end time.Time) (curStart, prevStart time.Time) {
	return AddMonths(end, -w.Months), AddMonths(end, -2*w.Months)
}

// bucket tells where a date falls relative to a window.
type bucket int

const (
	outside bucket = iota
	current
	previous
)

func (w Window) bucketOf(d, end time.Time) bucket {
	curStart, prevStart := w.Bounds(end)
	switch {
	case d.After(curStart) && !d.After(end):
		return current
	case d.After(prevStart) && !d.After(curStart):
		return previous
	default:
		return outside
	}
}
