package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a row does not exist. Callers match it
// with errors.Is; everything else coming out of the store is an *Error.
var ErrNotFound = errors.New("record not found")

// Error wraps a storage-engine failure with the operation that hit it.
// Write-path failures are never swallowed; they surface as this type.
type Error struct {
	Op    string
	Table string
	Err   error
}

func (e *Error) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("store: %s %s: %v", e.Op, e.Table, e.Err)
	}
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
