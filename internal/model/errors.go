package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an object is not known to a catalog.
	ErrNotFound = errors.New("object not found")

	// ErrMalformedObject is returned when an object's structure cannot be scanned.
	ErrMalformedObject = errors.New("malformed object")
)

// ObjectError describes a structural violation found in an object.
type ObjectError struct {
	Object DependencyID
	Path   string
	Reason string
}

// Error implements error.
func (e *ObjectError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s: %s", ErrMalformedObject, e.Object, e.Reason)
	}

	return fmt.Sprintf("%s: %s at %s: %s", ErrMalformedObject, e.Object, e.Path, e.Reason)
}

// Unwrap makes ObjectError match ErrMalformedObject.
func (e *ObjectError) Unwrap() error {
	return ErrMalformedObject
}
