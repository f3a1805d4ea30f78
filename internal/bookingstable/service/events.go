package service

import (
	"context"

	"opacbookings/pkg/kafka"
	"opacbookings/pkg/logger"
)

// NewBookingEventHandler invalidates the patron's cached table for every
// booking.created event, including those published by other instances.
func NewBookingEventHandler(table BookingsTableService, log *logger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		event, err := kafka.DecodeBookingCreated(msg)
		if err != nil {
			return err
		}
		table.Invalidate(event.PatronID)
		log.Debug("Patron bookings cache invalidated by event",
			"patron_id", event.PatronID,
			"booking_id", event.BookingID,
			"event_id", msg.GetEventID(),
		)
		return nil
	}
}
