// Package catalog names the backing store the booking modal and the patron
// bookings table read from and write to.
package catalog

import (
	"context"

	"opacbookings/pkg/client"
	"opacbookings/pkg/model"
)

type Catalog interface {
	BookableItems(ctx context.Context, biblioID int) ([]model.BookableItem, error)
	BiblioBookings(ctx context.Context, biblioID int) ([]model.Booking, error)
	Libraries(ctx context.Context) ([]model.Library, error)
	CirculationRules(ctx context.Context, q model.RulesQuery) (model.PreparationWindow, error)
	CreateBooking(ctx context.Context, req model.BookingRequest) (*model.Booking, error)
	PatronBookings(ctx context.Context, patronID int) ([]model.EmbeddedBooking, error)
}

var _ Catalog = (*client.KohaClient)(nil)
