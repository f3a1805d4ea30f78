package model

import (
	"time"

	"opacbookings/pkg/daterange"
)

// OpenSessionRequest starts a booking modal for one patron and biblio.
type OpenSessionRequest struct {
	BiblioID         int    `json:"biblio_id" validate:"required,min=1"`
	PatronID         int    `json:"patron_id" validate:"required,min=1"`
	PatronCategoryID string `json:"patron_category_id,omitempty" validate:"max=10"`
}

// SelectedRange is the picker selection. End is only set after Start.
type SelectedRange struct {
	Start *daterange.Day `json:"start,omitempty"`
	End   *daterange.Day `json:"end,omitempty"`
}

// IsOpen reports a started range still waiting for its end day.
func (r SelectedRange) IsOpen() bool {
	return r.Start != nil && r.End == nil
}

func (r SelectedRange) IsComplete() bool {
	return r.Start != nil && r.End != nil
}

// PickerState records the one-time picker setup.
type PickerState struct {
	Configured   bool      `json:"configured"`
	ConfiguredAt time.Time `json:"configured_at"`
}

// BookingSession is the server-side state of one open booking modal. Items
// and Bookings are a snapshot taken at open and never change afterwards.
type BookingSession struct {
	ID               string            `json:"id"`
	BiblioID         int               `json:"biblio_id"`
	PatronID         int               `json:"patron_id"`
	PatronCategoryID string            `json:"patron_category_id,omitempty"`
	Ready            bool              `json:"ready"`
	Closed           bool              `json:"closed"`
	Items            []BookableItem    `json:"items"`
	Bookings         []Booking         `json:"bookings"`
	Libraries        []Library         `json:"libraries"`
	Window           PreparationWindow `json:"window"`
	Picker           PickerState       `json:"picker"`
	Selection        SelectedRange     `json:"selection"`
	PickupLibraryID  string            `json:"pickup_library_id,omitempty"`
	ItemID           *int              `json:"item_id,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// Item returns the bookable item with the given ID from the snapshot.
func (s *BookingSession) Item(itemID int) (BookableItem, bool) {
	for _, it := range s.Items {
		if it.ItemID == itemID {
			return it, true
		}
	}
	return BookableItem{}, false
}

func (s *BookingSession) Library(libraryID string) (Library, bool) {
	for _, l := range s.Libraries {
		if l.LibraryID == libraryID {
			return l, true
		}
	}
	return Library{}, false
}

// ResetForm clears the selection and both dropdowns.
func (s *BookingSession) ResetForm() {
	s.Selection = SelectedRange{}
	s.PickupLibraryID = ""
	s.ItemID = nil
}

// PeriodFields are the hidden start/end inputs the form posts: start of the
// first day and end of the last day, in UTC.
type PeriodFields struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

func NewPeriodFields(r SelectedRange, loc *time.Location) (PeriodFields, bool) {
	if !r.IsComplete() {
		return PeriodFields{}, false
	}
	return PeriodFields{
		StartDate: r.Start.StartOf(loc).UTC(),
		EndDate:   r.End.EndOf(loc).UTC(),
	}, true
}
