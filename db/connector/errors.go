package connector

import "errors"

// Typed errors returned by the connection registry. Callers should match
// them with errors.Is rather than comparing messages.
var (
	// ErrNotFound is returned when no live connection is registered under an id.
	ErrNotFound = errors.New("connection not found")

	// ErrForbidden is returned when a connection exists but belongs to
	// another owner.
	ErrForbidden = errors.New("connection belongs to another owner")
)
