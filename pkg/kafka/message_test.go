package kafka

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opacbookings/pkg/logger"
	"opacbookings/pkg/model"
)

func TestNewBookingCreatedMessage(t *testing.T) {
	itemID := 3
	booking := &model.Booking{
		BookingID:       42,
		BiblioID:        7,
		ItemID:          &itemID,
		PatronID:        5,
		PickupLibraryID: "CPL",
		StartDate:       time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2024, 6, 12, 23, 59, 59, 0, time.UTC),
	}

	msg, err := NewBookingCreatedMessage(booking, "opacbookings")
	require.NoError(t, err)

	assert.Equal(t, "42", msg.Key)
	assert.Equal(t, EventBookingCreated, msg.GetEventType())
	assert.Equal(t, "opacbookings", msg.Headers[HeaderSource])
	assert.Equal(t, BookingSchemaVersion, msg.Headers[HeaderSchemaVersion])
	assert.NotEmpty(t, msg.GetEventID())
	assert.NotEmpty(t, msg.Headers[HeaderTimestamp])

	event, err := DecodeBookingCreated(msg)
	require.NoError(t, err)
	assert.Equal(t, 42, event.BookingID)
	assert.Equal(t, 5, event.PatronID)
	require.NotNil(t, event.ItemID)
	assert.Equal(t, 3, *event.ItemID)
	assert.True(t, event.StartDate.Equal(booking.StartDate))
}

func TestNewBookingCreatedMessage_Nil(t *testing.T) {
	_, err := NewBookingCreatedMessage(nil, "x")
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestDecodeBookingCreated_Rejects(t *testing.T) {
	wrongType, err := NewMessage().WithKey("1").WithEventType("booking.cancelled").WithValue(map[string]int{"patron_id": 1}).Build()
	require.NoError(t, err)
	_, err = DecodeBookingCreated(wrongType)
	assert.Equal(t, ErrorTypePermanent, ClassifyError(err))

	garbage := Message{Value: []byte("{"), Headers: map[string]string{HeaderEventType: EventBookingCreated}}
	_, err = DecodeBookingCreated(garbage)
	assert.Equal(t, ErrorTypePermanent, ClassifyError(err))
}

func TestBuild_ValueEncodingError(t *testing.T) {
	_, err := NewMessage().WithKey("1").WithValue(make(chan int)).Build()
	assert.Error(t, err)
}

func TestRetryCount(t *testing.T) {
	msg := Message{}
	assert.Equal(t, 0, msg.GetRetryCount())

	for range 12 {
		msg.IncrementRetryCount()
	}
	assert.Equal(t, 12, msg.GetRetryCount())
	assert.Equal(t, "12", msg.Headers[HeaderRetryCount])
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ErrorTypeUnknown},
		{"transient wrapper", NewTransientError("cache", errors.New("x")), ErrorTypeTransient},
		{"network", errors.New("dial tcp: Connection Refused"), ErrorTypeTransient},
		{"deadline", context.DeadlineExceeded, ErrorTypeTransient},
		{"unknown", errors.New("bad payload"), ErrorTypePermanent},
		{"broker retriable", fmt.Errorf("write: %w", kafka.LeaderNotAvailable), ErrorTypeTransient},
		{"broker fatal", kafka.MessageSizeTooLarge, ErrorTypePermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyError(tt.err))
		})
	}
}

func TestShouldRetry(t *testing.T) {
	transient := NewTransientError("x", nil)
	assert.True(t, ShouldRetry(transient, 0, 2))
	assert.False(t, ShouldRetry(transient, 2, 2))
	assert.False(t, ShouldRetry(NewPermanentError("x", nil), 0, 2))
	assert.False(t, ShouldRetry(nil, 0, 2))
}

func TestProcessMessage_RetriesTransientFailures(t *testing.T) {
	attempts := 0
	c := &Consumer{
		maxRetries: 2,
		log:        logger.NewNop(),
		handler: func(ctx context.Context, msg Message) error {
			attempts++
			if attempts < 3 {
				return NewTransientError("cache busy", nil)
			}
			return nil
		},
	}

	err := c.processMessage(context.Background(), Message{Headers: map[string]string{}})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestProcessMessage_GivesUp(t *testing.T) {
	attempts := 0
	var seen []string
	c := &Consumer{
		maxRetries: 1,
		log:        logger.NewNop(),
		handler: func(ctx context.Context, msg Message) error {
			attempts++
			return NewTransientError("still down", nil)
		},
	}
	c.Use(func(ctx context.Context, msg Message, next MessageHandler) error {
		seen = append(seen, msg.Headers[HeaderRetryCount])
		return next(ctx, msg)
	})

	err := c.processMessage(context.Background(), Message{Headers: map[string]string{}})
	require.Error(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, []string{"", "1"}, seen)
}

func TestProcessMessage_PermanentNotRetried(t *testing.T) {
	attempts := 0
	c := &Consumer{
		maxRetries: 5,
		log:        logger.NewNop(),
		handler: func(ctx context.Context, msg Message) error {
			attempts++
			return NewPermanentError("bad", ErrInvalidMessage)
		},
	}

	err := c.processMessage(context.Background(), Message{Headers: map[string]string{}})
	assert.ErrorIs(t, err, ErrInvalidMessage)
	assert.Equal(t, 1, attempts)
}

func TestDLQMessage_CopiesHeaders(t *testing.T) {
	orig := Message{Key: "1", Headers: map[string]string{HeaderEventID: "e1"}}
	dlq := dlqMessage(orig, "opac.bookings", errors.New("boom"))

	assert.Equal(t, "opac.bookings", dlq.Headers[HeaderOriginalTopic])
	assert.Equal(t, "boom", dlq.Headers["dlq-error"])
	assert.NotContains(t, orig.Headers, HeaderOriginalTopic)
}
