package kafka

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/segmentio/kafka-go"
)

var (
	ErrProducerClosed = errors.New("kafka producer is closed")
	ErrConsumerClosed = errors.New("kafka consumer is closed")
	ErrInvalidMessage = errors.New("invalid message")
	ErrEmptyKey       = errors.New("message key cannot be empty")
	ErrEmptyValue     = errors.New("message value cannot be empty")
)

// ErrorType decides whether a failed booking event is retried.
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeTransient
	ErrorTypePermanent
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypePermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// KafkaError tags an error with its retry class.
type KafkaError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *KafkaError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *KafkaError) Unwrap() error { return e.Err }

func NewTransientError(message string, err error) *KafkaError {
	return &KafkaError{Type: ErrorTypeTransient, Message: message, Err: err}
}

func NewPermanentError(message string, err error) *KafkaError {
	return &KafkaError{Type: ErrorTypePermanent, Message: message, Err: err}
}

// Substrings of network failures that do not surface as net.Error.
var transientHints = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"network is unreachable",
	"i/o timeout",
}

// ClassifyError tags explicit KafkaErrors by their type, then broker codes
// and network errors by what they report. Anything else is permanent.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrorTypeUnknown
	}

	var tagged *KafkaError
	if errors.As(err, &tagged) {
		return tagged.Type
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeTransient
	}

	var brokerErr kafka.Error
	if errors.As(err, &brokerErr) {
		if brokerErr.Temporary() || brokerErr.Timeout() {
			return ErrorTypeTransient
		}
		return ErrorTypePermanent
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorTypeTransient
	}

	msg := strings.ToLower(err.Error())
	for _, hint := range transientHints {
		if strings.Contains(msg, hint) {
			return ErrorTypeTransient
		}
	}
	return ErrorTypePermanent
}

// ShouldRetry reports whether a handler failure gets another attempt.
func ShouldRetry(err error, attempts, maxRetries int) bool {
	return err != nil && attempts < maxRetries && ClassifyError(err) == ErrorTypeTransient
}
