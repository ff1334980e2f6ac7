package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("not found")
	ErrNotHydrated      = errors.New("store is not hydrated")
	ErrActiveFastExists = errors.New("active fast already exists")
)

// ValidationError reports a malformed or logically invalid edit. It matches
// ErrInvalidInput with errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// ParseError reports an import payload that is not valid JSON or has the
// wrong structure.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse import: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// PersistenceError reports a blob store read or write failure for one slot.
type PersistenceError struct {
	Slot string
	Op   string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s slot %q: %v", e.Op, e.Slot, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
