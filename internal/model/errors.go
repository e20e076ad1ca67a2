package model

import "errors"

// Sentinel error kinds. Callers classify failures with errors.Is; messages
// carry the detail.
var (
	// ErrValidation marks malformed input to a store or import operation.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks an unknown item id.
	ErrNotFound = errors.New("memory item not found")

	// ErrTierConflict marks a tier move that lost a race: the item was no
	// longer in the expected source tier.
	ErrTierConflict = errors.New("tier conflict")

	// ErrTimeout marks an operation that exceeded the caller's deadline.
	ErrTimeout = errors.New("operation timed out")

	// ErrPersistence marks a durable read or write failure.
	ErrPersistence = errors.New("persistence failure")
)
