package errors

import "errors"

var (
	ErrNotFound = errors.New("reservation not found")

	ErrInvalidID = errors.New("invalid reservation ID format")

	// ErrNotPending is returned when a conditional update finds the
	// reservation already moved out of pending.
	ErrNotPending = errors.New("reservation is no longer pending")

	// ErrDuplicateLive is the unique index on live reservations firing.
	ErrDuplicateLive = errors.New("live reservation already exists for this slot")

	ErrLockHeld = errors.New("reservation lock is held")
)
