package daterange

import "time"

// Range is an inclusive span of days. Start is expected not to be after End;
// callers that build ranges from booking data rely on upstream validation.
type Range struct {
	Start Day `json:"start"`
	End   Day `json:"end"`
}

func NewRange(start, end Day) Range {
	return Range{Start: start, End: end}
}

// Point is the single-day range [d, d].
func Point(d Day) Range {
	return Range{Start: d, End: d}
}

// RangeOf converts a pair of instants to the days they fall on in loc.
func RangeOf(start, end time.Time, loc *time.Location) Range {
	return Range{Start: DayIn(start, loc), End: DayIn(end, loc)}
}

// Within reports whether point falls inside r, boundaries included.
func Within(point Day, r Range) bool {
	return !point.Before(r.Start) && !point.After(r.End)
}

// Overlaps reports whether a and b share at least one day.
func Overlaps(a, b Range) bool {
	return !a.Start.After(b.End) && !a.End.Before(b.Start)
}

// Days lists every day of r in order. An inverted range yields nothing.
func (r Range) Days() []Day {
	if r.Start.After(r.End) {
		return nil
	}
	days := make([]Day, 0, r.Start.DaysUntil(r.End)+1)
	for d := r.Start; !d.After(r.End); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

func (r Range) String() string {
	return r.Start.String() + ".." + r.End.String()
}
