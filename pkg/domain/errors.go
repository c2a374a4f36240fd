package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a design document or index does not exist
	ErrNotFound = errors.New("not found")
	// ErrDatabaseNotFound is returned for operations on an unknown database
	ErrDatabaseNotFound = errors.New("database does not exist")
	// ErrDatabaseExists is returned when creating a database twice
	ErrDatabaseExists = errors.New("database already exists")
	// ErrConflict is returned when an index name is already bound to a different definition
	ErrConflict = errors.New("conflict")
	// ErrNotIndexDoc is returned when a design document holds no query indexes
	ErrNotIndexDoc = errors.New("not an index design document")
	// ErrStoreUnavailable wraps failures of the durable store; callers may retry
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ValidationKind names the rule a request violated
type ValidationKind string

const (
	InvalidFields        ValidationKind = "invalid_fields"
	UnsupportedDirection ValidationKind = "unsupported_direction"
	InvalidType          ValidationKind = "invalid_type"
	InvalidName          ValidationKind = "invalid_name"
	InvalidDDoc          ValidationKind = "invalid_ddoc"
	InvalidRequest       ValidationKind = "invalid_request"
)

// ValidationError reports malformed client input. It is always raised
// before any mutation.
type ValidationError struct {
	Kind    ValidationKind
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewValidationError builds a ValidationError with a formatted message
func NewValidationError(kind ValidationKind, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is, or wraps, a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// PaginationError reports out-of-range limit or skip values
type PaginationError struct {
	Param string
	Value string
}

func (e *PaginationError) Error() string {
	return fmt.Sprintf("invalid pagination parameter %s=%s", e.Param, e.Value)
}

// IsPaginationError reports whether err is, or wraps, a PaginationError
func IsPaginationError(err error) bool {
	var pe *PaginationError
	return errors.As(err, &pe)
}
