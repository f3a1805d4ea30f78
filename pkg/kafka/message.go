package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"opacbookings/pkg/model"
)

// Message represents a Kafka message with metadata
type Message struct {
	Key       string            // Partition key (the booking ID)
	Value     []byte            // Message payload (JSON-encoded)
	Headers   map[string]string // Message headers
	Topic     string            // Topic name (set by Kafka)
	Partition int               // Partition number (set by Kafka)
	Offset    int64             // Message offset (set by Kafka)
	Timestamp time.Time         // Message timestamp
}

const (
	HeaderEventID       = "event-id"
	HeaderEventType     = "event-type"
	HeaderCorrelationID = "correlation-id"
	HeaderSchemaVersion = "schema-version"
	HeaderSource        = "source"
	HeaderTimestamp     = "timestamp"
	HeaderRetryCount    = "retry-count"
	HeaderOriginalTopic = "original-topic"
)

const (
	EventBookingCreated = "booking.created"

	BookingSchemaVersion = "1"
)

// BookingCreatedEvent is the payload announcing a booking made through the
// booking modal.
type BookingCreatedEvent struct {
	BookingID       int       `json:"booking_id"`
	BiblioID        int       `json:"biblio_id"`
	ItemID          *int      `json:"item_id"`
	PatronID        int       `json:"patron_id"`
	PickupLibraryID string    `json:"pickup_library_id,omitempty"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
}

// MessageBuilder provides a fluent interface for building messages
type MessageBuilder struct {
	msg Message
	err error
}

func NewMessage() *MessageBuilder {
	return &MessageBuilder{
		msg: Message{
			Headers:   make(map[string]string),
			Timestamp: time.Now(),
		},
	}
}

// WithKey sets the message key (for partition routing)
func (mb *MessageBuilder) WithKey(key string) *MessageBuilder {
	mb.msg.Key = key
	return mb
}

// WithValue JSON-encodes value; an encoding error is returned by Build.
func (mb *MessageBuilder) WithValue(value any) *MessageBuilder {
	data, err := json.Marshal(value)
	if err != nil {
		mb.err = fmt.Errorf("encode message value: %w", err)
		return mb
	}
	mb.msg.Value = data
	return mb
}

func (mb *MessageBuilder) WithHeader(key, value string) *MessageBuilder {
	mb.msg.Headers[key] = value
	return mb
}

// WithEventID sets the event ID (generates UUID if not provided)
func (mb *MessageBuilder) WithEventID(eventID string) *MessageBuilder {
	if eventID == "" {
		eventID = uuid.New().String()
	}
	mb.msg.Headers[HeaderEventID] = eventID
	return mb
}

func (mb *MessageBuilder) WithEventType(eventType string) *MessageBuilder {
	mb.msg.Headers[HeaderEventType] = eventType
	return mb
}

func (mb *MessageBuilder) WithCorrelationID(correlationID string) *MessageBuilder {
	if correlationID != "" {
		mb.msg.Headers[HeaderCorrelationID] = correlationID
	}
	return mb
}

func (mb *MessageBuilder) WithSchemaVersion(version string) *MessageBuilder {
	mb.msg.Headers[HeaderSchemaVersion] = version
	return mb
}

func (mb *MessageBuilder) WithSource(source string) *MessageBuilder {
	mb.msg.Headers[HeaderSource] = source
	return mb
}

// Build returns the constructed message with event ID and timestamp headers
// filled in.
func (mb *MessageBuilder) Build() (Message, error) {
	if mb.err != nil {
		return Message{}, mb.err
	}
	if mb.msg.Headers[HeaderEventID] == "" {
		mb.msg.Headers[HeaderEventID] = uuid.New().String()
	}
	if mb.msg.Headers[HeaderTimestamp] == "" {
		mb.msg.Headers[HeaderTimestamp] = mb.msg.Timestamp.UTC().Format(time.RFC3339)
	}
	return mb.msg, nil
}

// NewBookingCreatedMessage builds the booking.created event, keyed by
// booking ID.
func NewBookingCreatedMessage(booking *model.Booking, source string) (Message, error) {
	if booking == nil {
		return Message{}, ErrInvalidMessage
	}
	return NewMessage().
		WithKey(strconv.Itoa(booking.BookingID)).
		WithEventType(EventBookingCreated).
		WithSchemaVersion(BookingSchemaVersion).
		WithSource(source).
		WithValue(BookingCreatedEvent{
			BookingID:       booking.BookingID,
			BiblioID:        booking.BiblioID,
			ItemID:          booking.ItemID,
			PatronID:        booking.PatronID,
			PickupLibraryID: booking.PickupLibraryID,
			StartDate:       booking.StartDate,
			EndDate:         booking.EndDate,
		}).
		Build()
}

// DecodeBookingCreated decodes a booking.created payload. Other event types
// are rejected as permanent failures.
func DecodeBookingCreated(msg Message) (BookingCreatedEvent, error) {
	var event BookingCreatedEvent
	if msg.GetEventType() != EventBookingCreated {
		return event, NewPermanentError("unexpected event type "+strconv.Quote(msg.GetEventType()), ErrInvalidMessage)
	}
	if err := msg.DecodeValue(&event); err != nil {
		return event, NewPermanentError("deserialization failed", err)
	}
	if event.PatronID <= 0 {
		return event, NewPermanentError("booking event without patron", ErrInvalidMessage)
	}
	return event, nil
}

// MessageHandler is the function signature for processing messages
// Return nil for successful processing, error for failure
type MessageHandler func(ctx context.Context, msg Message) error

func (m *Message) DecodeValue(v any) error {
	return json.Unmarshal(m.Value, v)
}

func (m *Message) GetHeader(key string) (string, bool) {
	value, exists := m.Headers[key]
	return value, exists
}

func (m *Message) GetEventID() string {
	return m.Headers[HeaderEventID]
}

func (m *Message) GetCorrelationID() string {
	return m.Headers[HeaderCorrelationID]
}

func (m *Message) GetEventType() string {
	return m.Headers[HeaderEventType]
}

// GetRetryCount returns the retry count header as an integer
func (m *Message) GetRetryCount() int {
	count, err := strconv.Atoi(m.Headers[HeaderRetryCount])
	if err != nil {
		return 0
	}
	return count
}

func (m *Message) IncrementRetryCount() {
	if m.Headers == nil {
		m.Headers = make(map[string]string)
	}
	m.Headers[HeaderRetryCount] = strconv.Itoa(m.GetRetryCount() + 1)
}

