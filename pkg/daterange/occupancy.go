package daterange

import (
	"slices"
	"time"
)

// Span is anything that holds an item over a period of time. ok is false
// for spans that are not tied to a specific item.
type Span interface {
	OccupiedItem() (itemID int, ok bool)
	Period() (start, end time.Time)
}

// Occupancy maps a day to the item IDs booked on it. Item IDs are distinct
// and kept in ascending order.
type Occupancy map[Day][]int

// BuildDayOccupancy walks every span day by day, inclusive of both ends, and
// records the occupied item under each day. Spans without an item
// (biblio-level bookings) are not recorded.
func BuildDayOccupancy[S Span](spans []S, loc *time.Location) Occupancy {
	occupancy := make(Occupancy)
	for _, s := range spans {
		itemID, ok := s.OccupiedItem()
		if !ok {
			continue
		}
		start, end := s.Period()
		for _, day := range RangeOf(start, end, loc).Days() {
			occupancy.add(day, itemID)
		}
	}
	return occupancy
}

func (o Occupancy) add(day Day, itemID int) {
	items := o[day]
	i, found := slices.BinarySearch(items, itemID)
	if found {
		return
	}
	o[day] = slices.Insert(items, i, itemID)
}

// Items returns a copy of the item IDs occupying day.
func (o Occupancy) Items(day Day) []int {
	return slices.Clone(o[day])
}

func (o Occupancy) Has(day Day) bool {
	return len(o[day]) > 0
}
