package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no task matches the requested id.
	ErrNotFound = errors.New("task not found")

	// ErrUnsupported is returned by stores that cannot perform an operation
	// as a single statement.
	ErrUnsupported = errors.New("operation not supported by this store")
)

// ValidationError reports a missing or empty required field. It is raised
// before the store is touched.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// StoreError wraps a fault from the data-access layer with the operation
// that produced it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Fault wraps err as a StoreError unless it is nil or already a not-found
// or unsupported outcome.
func Fault(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnsupported) {
		return err
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
