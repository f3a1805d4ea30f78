package errors

import "errors"

var (
	ErrSessionNotFound = errors.New("booking session not found")

	ErrSessionClosed = errors.New("booking session is closed")

	ErrSessionNotReady = errors.New("booking session failed to load its data")

	ErrDayDisabled = errors.New("day is not available for booking")

	ErrBufferBlocked = errors.New("preparation period overlaps an unavailable day")

	ErrUnknownLibrary = errors.New("unknown pickup library")

	ErrUnknownItem = errors.New("item is not bookable for this biblio")

	ErrUnknownField = errors.New("unknown dropdown field")

	ErrConcurrentUpdate = errors.New("booking session was modified concurrently")
)
