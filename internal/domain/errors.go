package domain

import "errors"

// Failure taxonomy shared by the services and the HTTP layer. Services wrap
// these with context via fmt.Errorf("...: %w", ...); handlers translate them
// to status codes with errors.Is and never inspect message strings.
var (
	// ErrValidation marks malformed input that survived schema binding
	// (e.g. a template frequency above 7).
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a reference to an entity that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState marks an illegal lifecycle transition, such as
	// completing a scheduled item twice.
	ErrInvalidState = errors.New("invalid state transition")

	// ErrPermission marks a caller acting on an entity they do not own.
	ErrPermission = errors.New("permission denied")

	// ErrConflict marks a lost concurrent-update race; the caller may retry
	// after re-reading.
	ErrConflict = errors.New("conflicting concurrent update")
)
