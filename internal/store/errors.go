package store

import (
	"errors"
	"fmt"
)

// Store errors surfaced to callers.
var (
	// ErrNotFound indicates the referenced network or voucher does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a duplicate voucher code or identifier.
	ErrConflict = errors.New("conflict")
	// ErrInvalid indicates a required field is missing.
	ErrInvalid = errors.New("invalid input")
)

// DataAccessError wraps a storage engine failure. It is not retried.
type DataAccessError struct {
	Op  string
	Err error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *DataAccessError) Unwrap() error { return e.Err }

func dataAccess(op string, err error) error {
	if err == nil {
		return nil
	}
	return &DataAccessError{Op: op, Err: err}
}
