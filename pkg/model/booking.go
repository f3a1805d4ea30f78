package model

import (
	"time"
)

const (
	BookingStatusNew       = "new"
	BookingStatusPending   = "pending"
	BookingStatusCancelled = "cancelled"
	BookingStatusCompleted = "completed"
)

// Booking is a reservation of a biblio for a period. A nil ItemID is a
// biblio-level booking that any bookable item may satisfy.
type Booking struct {
	BookingID       int        `json:"booking_id" bson:"booking_id"`
	BiblioID        int        `json:"biblio_id" bson:"biblio_id"`
	ItemID          *int       `json:"item_id" bson:"item_id"`
	PatronID        int        `json:"patron_id" bson:"patron_id"`
	PickupLibraryID string     `json:"pickup_library_id,omitempty" bson:"pickup_library_id,omitempty"`
	StartDate       time.Time  `json:"start_date" bson:"start_date"`
	EndDate         time.Time  `json:"end_date" bson:"end_date"`
	Status          string     `json:"status,omitempty" bson:"status,omitempty"`
	CreationDate    *time.Time `json:"creation_date,omitempty" bson:"creation_date,omitempty"`
}

// IsActive is false for cancelled bookings, which hold no item.
func (b Booking) IsActive() bool {
	return b.Status != BookingStatusCancelled
}

// ActiveBookings drops cancelled bookings, keeping order.
func ActiveBookings(bookings []Booking) []Booking {
	active := make([]Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.IsActive() {
			active = append(active, b)
		}
	}
	return active
}

func (b Booking) IsBiblioLevel() bool {
	return b.ItemID == nil
}

func (b Booking) OccupiedItem() (int, bool) {
	if b.ItemID == nil || !b.IsActive() {
		return 0, false
	}
	return *b.ItemID, true
}

func (b Booking) Period() (time.Time, time.Time) {
	return b.StartDate, b.EndDate
}

// BookingRequest is the serialized booking form posted to the catalog.
type BookingRequest struct {
	BiblioID        int       `json:"biblio_id" validate:"required,min=1"`
	PatronID        int       `json:"patron_id" validate:"required,min=1"`
	ItemID          *int      `json:"item_id,omitempty" validate:"omitempty,min=1"`
	PickupLibraryID string    `json:"pickup_library_id" validate:"required,max=10"`
	StartDate       time.Time `json:"start_date" validate:"required"`
	EndDate         time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
}

// EmbeddedBooking is a booking as returned with
// "x-koha-embed: patron,biblio,item,pickup_library".
type EmbeddedBooking struct {
	Booking       `bson:",inline"`
	Patron        *Patron       `json:"patron,omitempty" bson:"patron,omitempty"`
	Biblio        *Biblio       `json:"biblio,omitempty" bson:"biblio,omitempty"`
	Item          *BookableItem `json:"item,omitempty" bson:"item,omitempty"`
	PickupLibrary *Library      `json:"pickup_library,omitempty" bson:"pickup_library,omitempty"`
}

type Patron struct {
	PatronID   int    `json:"patron_id" bson:"patron_id"`
	CategoryID string `json:"category_id,omitempty" bson:"category_id,omitempty"`
	Firstname  string `json:"firstname,omitempty" bson:"firstname,omitempty"`
	Surname    string `json:"surname,omitempty" bson:"surname,omitempty"`
}

type Biblio struct {
	BiblioID int    `json:"biblio_id" bson:"biblio_id"`
	Title    string `json:"title" bson:"title"`
	Subtitle string `json:"subtitle,omitempty" bson:"subtitle,omitempty"`
	Author   string `json:"author,omitempty" bson:"author,omitempty"`
}
