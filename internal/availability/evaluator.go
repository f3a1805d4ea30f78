// Package availability decides which calendar days the booking picker must
// refuse because no bookable item is left free for them.
package availability

import (
	"slices"
	"time"

	"opacbookings/pkg/daterange"
	"opacbookings/pkg/model"
)

type Reason string

const (
	ReasonNone             Reason = ""
	ReasonBeforeStart      Reason = "before_start"
	ReasonFullyBooked      Reason = "fully_booked"
	ReasonNoItemFree       Reason = "no_item_free"
	ReasonPinnedItemBooked Reason = "pinned_item_booked"
)

// Query carries the picker state a decision depends on. SelectedStart is set
// only while a range is open (start picked, end not yet picked).
type Query struct {
	SelectedStart *daterange.Day
	PinnedItem    *int
}

// Decision explains why a day is or is not selectable.
type Decision struct {
	Day                 daterange.Day `json:"day"`
	Disabled            bool          `json:"disabled"`
	Reason              Reason        `json:"reason,omitempty"`
	Booked              int           `json:"booked"`
	Available           int           `json:"available"`
	UnavailableBookings []int         `json:"unavailable_bookings,omitempty"`
	BiblioLevelBookings []int         `json:"biblio_level_bookings,omitempty"`
}

type span struct {
	booking model.Booking
	days    daterange.Range
}

// Evaluator answers availability questions over one immutable snapshot of a
// biblio's bookings and bookable items.
type Evaluator struct {
	spans     []span
	itemCount int
}

func NewEvaluator(bookings []model.Booking, items []model.BookableItem, loc *time.Location) *Evaluator {
	spans := make([]span, 0, len(bookings))
	for _, b := range bookings {
		if !b.IsActive() {
			continue
		}
		spans = append(spans, span{booking: b, days: daterange.RangeOf(b.StartDate, b.EndDate, loc)})
	}
	return &Evaluator{spans: spans, itemCount: len(items)}
}

func (e *Evaluator) ItemCount() int {
	return e.itemCount
}

// IsDayDisabled is Evaluate without a pinned item, reduced to its verdict.
func (e *Evaluator) IsDayDisabled(candidate daterange.Day, selectedStart *daterange.Day) bool {
	return e.Evaluate(candidate, Query{SelectedStart: selectedStart}).Disabled
}

// Evaluate applies the rules in order: a day before the open range start is
// refused; with no start, a day whose covering bookings reach the item count
// is refused; otherwise every booking touching the day (or the prospective
// range from the start to the day) removes one item from the pool and the day
// is refused once the pool is empty.
func (e *Evaluator) Evaluate(candidate daterange.Day, q Query) Decision {
	decision := Decision{Day: candidate}

	if q.SelectedStart != nil && candidate.Before(*q.SelectedStart) {
		decision.Disabled = true
		decision.Reason = ReasonBeforeStart
		return decision
	}

	if q.SelectedStart == nil {
		for _, s := range e.spans {
			if !daterange.Overlaps(daterange.Point(candidate), s.days) {
				continue
			}
			if q.PinnedItem != nil && s.booking.ItemID != nil && *s.booking.ItemID == *q.PinnedItem {
				continue
			}
			decision.Booked++
		}
		if e.itemCount > 0 && decision.Booked >= e.itemCount {
			decision.Disabled = true
			decision.Reason = ReasonFullyBooked
			decision.Available = 0
			return decision
		}
	}

	var prospective daterange.Range
	if q.SelectedStart != nil {
		prospective = daterange.NewRange(*q.SelectedStart, candidate)
	}

	pinnedBooked := false
	for _, s := range e.spans {
		clash := daterange.Within(candidate, s.days)
		if q.SelectedStart != nil {
			clash = clash ||
				daterange.Within(*q.SelectedStart, s.days) ||
				daterange.Overlaps(prospective, s.days)
		}
		if !clash {
			continue
		}
		if s.booking.IsBiblioLevel() {
			decision.BiblioLevelBookings = appendUnique(decision.BiblioLevelBookings, s.booking.BookingID)
			continue
		}
		decision.UnavailableBookings = appendUnique(decision.UnavailableBookings, s.booking.BookingID)
		if q.PinnedItem != nil && *s.booking.ItemID == *q.PinnedItem {
			pinnedBooked = true
		}
	}

	decision.Available = e.itemCount - len(decision.UnavailableBookings) - len(decision.BiblioLevelBookings)
	switch {
	case decision.Available <= 0:
		decision.Disabled = true
		decision.Reason = ReasonNoItemFree
	case pinnedBooked:
		decision.Disabled = true
		decision.Reason = ReasonPinnedItemBooked
	}
	return decision
}

// DisabledDays evaluates every day in days and returns the refused ones.
func (e *Evaluator) DisabledDays(days []daterange.Day, q Query) map[daterange.Day]Decision {
	disabled := make(map[daterange.Day]Decision)
	for _, d := range days {
		if decision := e.Evaluate(d, q); decision.Disabled {
			disabled[d] = decision
		}
	}
	return disabled
}

func appendUnique(ids []int, id int) []int {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}
