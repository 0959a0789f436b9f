package storage

import "errors"

// Sentinel errors for storage operations.
var (
	// ErrNotFound is returned when no account matches the lookup. It is a
	// valid outcome for credential lookups, not an infrastructure failure.
	ErrNotFound = errors.New("account not found")

	// ErrConflict is returned when an account with the given username
	// already exists.
	ErrConflict = errors.New("account already exists")

	// ErrUnknownDatabase is returned when a connection is requested for a
	// database name the provider was not configured with.
	ErrUnknownDatabase = errors.New("unknown database")
)
