package transform

import (
	"errors"
	"fmt"

	"content-mover/internal/model"
)

// ErrUnmappedID is returned when a literal id has no target and new ids
// may not be reserved.
var ErrUnmappedID = errors.New("unmapped id")

// UnmappedIDError names the id that could not be translated.
type UnmappedIDError struct {
	Type    model.ObjectType
	Source  string
	Parent  string
	Address string
}

// Error implements error.
func (e *UnmappedIDError) Error() string {
	s := fmt.Sprintf("%s: %s %s", ErrUnmappedID, e.Type, e.Source)
	if e.Parent != "" {
		s += " in " + e.Parent
	}

	if e.Address != "" {
		s += " at " + e.Address
	}

	return s
}

// Unwrap makes UnmappedIDError match ErrUnmappedID.
func (e *UnmappedIDError) Unwrap() error {
	return ErrUnmappedID
}
