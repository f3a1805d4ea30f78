package service

import (
	"context"

	"opacbookings/pkg/kafka"
	"opacbookings/pkg/logger"
	"opacbookings/pkg/model"
)

type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type eventPublisher struct {
	publisher Publisher
	source    string
	log       *logger.Logger
}

// NewEventPublisher announces created bookings on the bookings topic so
// other instances can refresh their patron tables.
func NewEventPublisher(publisher Publisher, source string, log *logger.Logger) BookingListener {
	return &eventPublisher{publisher: publisher, source: source, log: log}
}

func (p *eventPublisher) BookingCreated(ctx context.Context, booking *model.Booking) {
	msg, err := kafka.NewBookingCreatedMessage(booking, p.source)
	if err != nil {
		p.log.Error("Failed to build booking event", "booking_id", booking.BookingID, "error", err)
		return
	}
	if err := p.publisher.Publish(ctx, msg); err != nil {
		p.log.Error("Failed to publish booking event",
			"booking_id", booking.BookingID,
			"event_id", msg.GetEventID(),
			"error", err,
		)
		return
	}
	p.log.Debug("Booking event published", "booking_id", booking.BookingID, "event_id", msg.GetEventID())
}
