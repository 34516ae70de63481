package storage

import "errors"

// Sentinel errors for storage operations.
var (
	// ErrNotFound is returned when a consumer or token does not exist.
	// Any other error returned by a Finder is treated as an infrastructure
	// failure, not as a missing credential.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a consumer key or token value is already taken.
	ErrConflict = errors.New("record already exists")
)
