package store

import "errors"

var (
	// ErrUniquenessViolation is returned when an insert would create a
	// second row for the same (assignment_group_sys_id, member_sys_id) pair.
	ErrUniquenessViolation = errors.New("duplicate group/member pair")

	// ErrInvalidWeight is returned for a non-positive weight_modifier.
	ErrInvalidWeight = errors.New("weight modifier must be positive")

	// ErrNotFound is returned when a referenced member row does not exist.
	ErrNotFound = errors.New("member not found")

	// ErrWriteFailure wraps any failed write on the underlying store.
	// Writes fail loudly, never silently.
	ErrWriteFailure = errors.New("store write failed")
)
