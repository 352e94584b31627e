package domain

import (
	"errors"
	"fmt"
)

// ErrEmptyDataset means a load cycle produced no valid records.
var ErrEmptyDataset = errors.New("no valid location records")

// RetrievalError is returned once every retrieval strategy has failed.
type RetrievalError struct {
	Attempts int
	Err      error // last failure
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// CoordinateError describes a latitude or longitude that failed coercion.
type CoordinateError struct {
	Field Field
	Value string
	Err   error
}

func (e *CoordinateError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *CoordinateError) Unwrap() error {
	return e.Err
}
