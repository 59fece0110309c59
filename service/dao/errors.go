package dao

import "errors"

// Sentinel errors shared by every store; match them with errors.Is.
var (
	// ErrNotFound is returned when no record exists under the key.
	ErrNotFound = errors.New("dao: not found")

	// ErrInvalidID is returned for a zero or otherwise unusable key.
	ErrInvalidID = errors.New("dao: invalid id")

	// ErrNilEntity is returned when saving a nil record.
	ErrNilEntity = errors.New("dao: nil entity")
)
