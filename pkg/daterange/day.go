// Package daterange holds the calendar-day arithmetic shared by the
// availability evaluator and the calendar annotator. Everything here works at
// day granularity: the time of day is dropped as soon as a value enters the
// package.
package daterange

import (
	"fmt"
	"time"
)

const DayLayout = "2006-01-02"

// Day is a calendar date with no time-of-day component. The zero value is
// not a valid date; use IsZero to test for it.
type Day struct {
	year  int
	month time.Month
	day   int
}

// NewDay normalizes overflowing values the same way time.Date does.
func NewDay(year int, month time.Month, day int) Day {
	return DayOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DayOf returns the calendar date of t in t's own location.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day{year: y, month: m, day: d}
}

// DayIn returns the calendar date of t as seen from loc.
func DayIn(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	return DayOf(t.In(loc))
}

func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return Day{}, fmt.Errorf("invalid day %q: %w", s, err)
	}
	return DayOf(t), nil
}

func MustParseDay(s string) Day {
	d, err := ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Day) Year() int { return d.year }
func (d Day) Month() time.Month { return d.month }
func (d Day) Day() int { return d.day }
func (d Day) IsZero() bool { return d.year == 0 && d.month == 0 && d.day == 0 }
func (d Day) Weekday() time.Weekday { return d.midnight(time.UTC).Weekday() }

func (d Day) midnight(loc *time.Location) time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, loc)
}

// StartOf returns midnight of d in loc.
func (d Day) StartOf(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return d.midnight(loc)
}

// EndOf returns the last representable instant of d in loc (23:59:59.999).
func (d Day) EndOf(loc *time.Location) time.Time {
	return d.AddDays(1).StartOf(loc).Add(-time.Millisecond)
}

func (d Day) AddDays(n int) Day {
	return DayOf(d.midnight(time.UTC).AddDate(0, 0, n))
}

func (d Day) Compare(other Day) int {
	switch {
	case d.year != other.year:
		return cmpInt(d.year, other.year)
	case d.month != other.month:
		return cmpInt(int(d.month), int(other.month))
	default:
		return cmpInt(d.day, other.day)
	}
}

func (d Day) Before(other Day) bool { return d.Compare(other) < 0 }
func (d Day) After(other Day) bool { return d.Compare(other) > 0 }
func (d Day) Equal(other Day) bool { return d == other }

// DaysUntil returns the signed number of days from d to other.
func (d Day) DaysUntil(other Day) int {
	return int(other.midnight(time.UTC).Sub(d.midnight(time.UTC)).Hours() / 24)
}

func (d Day) String() string {
	if d.IsZero() {
		return ""
	}
	return d.midnight(time.UTC).Format(DayLayout)
}

func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Day) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Day{}
		return nil
	}
	parsed, err := ParseDay(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
