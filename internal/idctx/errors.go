package idctx

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedAddress is returned when a portable address cannot be decoded.
	ErrMalformedAddress = errors.New("malformed address")

	// ErrTypeMismatch is returned when a context is updated with a value of
	// the wrong shape.
	ErrTypeMismatch = errors.New("context value type mismatch")

	// ErrInvalidCursorState is returned when the tandem-walk cursor protocol
	// is violated.
	ErrInvalidCursorState = errors.New("invalid cursor state")

	// ErrUnsupportedOperation is returned by variants that never take part in
	// alias propagation.
	ErrUnsupportedOperation = errors.New("unsupported operation")
)

// AddressError describes why an element could not be decoded.
type AddressError struct {
	Tag    string
	Reason string
	// Suggestion is the closest registered tag for unknown tags.
	Suggestion string
}

// Error implements error.
func (e *AddressError) Error() string {
	msg := fmt.Sprintf("%s: <%s>: %s", ErrMalformedAddress, e.Tag, e.Reason)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean <%s>?)", e.Suggestion)
	}

	return msg
}

// Unwrap makes AddressError match ErrMalformedAddress.
func (e *AddressError) Unwrap() error {
	return ErrMalformedAddress
}
