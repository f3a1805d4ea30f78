package repository

import (
	"context"
	"time"

	"opacbookings/pkg/model"
)

// UpdateFunc mutates a loaded session. Returning an error aborts the update
// and leaves the stored session untouched.
type UpdateFunc func(session *model.BookingSession) error

// SessionRepository stores sessions until their TTL runs out. Closed
// sessions are kept so clients can still read the reset form.
type SessionRepository interface {
	Create(ctx context.Context, session *model.BookingSession) error
	FindByID(ctx context.Context, id string) (*model.BookingSession, error)
	Update(ctx context.Context, id string, fn UpdateFunc) (*model.BookingSession, error)
	Ping(ctx context.Context) error
}

func touch(session *model.BookingSession) {
	session.UpdatedAt = time.Now().UTC()
}
