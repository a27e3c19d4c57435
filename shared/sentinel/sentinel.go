// Package sentinel holds the shared error classes of both services.
// Repositories and services return these (optionally wrapped) so handlers can
// translate them into HTTP statuses exactly once with errors.Is.
package sentinel

import "errors"

var (
	// ErrInvalidInput marks malformed or out-of-range request data that never
	// reaches the store.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks a lookup by id that missed.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a secondary-key collision (duplicate client email).
	ErrConflict = errors.New("conflict")
	// ErrReferenceInvalid marks a failed cross-service client check. The
	// underlying cause may equally be a missing client or an unreachable
	// client-service; callers cannot tell the two apart.
	ErrReferenceInvalid = errors.New("referenced client invalid")
)
