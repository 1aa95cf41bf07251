package pipeline

import (
	"errors"
	"fmt"
)

// ValidationError rejects an upload before any storage side effect: no
// file, undetectable type, or a type outside image/* and video/*. The
// reason is safe to surface to the client.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// IsValidation reports whether err is a client-facing validation rejection.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// StorageError is a fatal filesystem failure during placement or cleanup.
// Any already-placed bytes are cleaned up best-effort before it surfaces.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// PersistenceError is a fatal, non-conflict database failure. Placed blobs
// are cleaned up best-effort before it surfaces.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
