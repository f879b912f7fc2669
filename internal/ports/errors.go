package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// ErrNotFound signals a referenced position, slot or checkpoint does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrAlreadyClosed signals an attempt to close a position a second time.
	// This is a logic error and must be surfaced, never silently ignored.
	ErrAlreadyClosed = errors.New("position already closed")
	// ErrConfiguration signals invalid or missing configuration, including
	// capital updates against a slot that was never initialized.
	ErrConfiguration = errors.New("invalid or missing configuration")
	// ErrUpstreamUnavailable signals a price provider or store IO failure.
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")

	// Database specific errors.
	ErrQueryFailed  = errors.New("database query failed")
	ErrUpdateFailed = errors.New("database update failed")
)
