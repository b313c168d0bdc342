package repository

import "errors"

var (
	// ErrRecordNotFound is returned by writes that matched no row.
	ErrRecordNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when a user with the same email exists.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrDuplicateSlot is returned when an insert hits the active-slot unique index.
	ErrDuplicateSlot = errors.New("slot already taken")
	// ErrTransientConflict marks a serialization failure or deadlock. The
	// whole operation may be retried.
	ErrTransientConflict = errors.New("transient storage conflict")
)
