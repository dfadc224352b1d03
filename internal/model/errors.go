package model

import (
	"errors"
	"fmt"
)

// Error kinds shared by the analysis packages.
// The concrete error types below match these with errors.Is, so callers
// can branch on the kind without a type assertion.
var (
	// ErrValidation marks a caller-supplied parameter that is out of range,
	// such as a non-positive block size or string length.
	ErrValidation = errors.New("validation error")

	// ErrDecode marks input bytes that could not be parsed as the
	// expected container (for example an image that is not an image).
	ErrDecode = errors.New("decode error")
)

// ValidationError reports an invalid parameter passed to an analysis
// operation. It is returned before any input bytes are examined.
type ValidationError struct {
	// Field is the parameter name, e.g. "block_size".
	Field string

	// Value is the rejected value.
	Value any

	// Reason explains the constraint that was violated.
	Reason string
}

// NewValidationError creates a ValidationError.
func NewValidationError(field string, value any, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// DecodeError reports input that could not be parsed as the expected
// format. The underlying codec error is preserved for errors.As/Unwrap.
type DecodeError struct {
	// Format names what the input was expected to be ("image", "pdf").
	Format string

	// Err is the codec error.
	Err error
}

// NewDecodeError creates a DecodeError wrapping err.
func NewDecodeError(format string, err error) *DecodeError {
	return &DecodeError{Format: format, Err: err}
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("failed to decode %s", e.Format)
	}
	return fmt.Sprintf("failed to decode %s: %v", e.Format, e.Err)
}

// Unwrap returns the codec error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrDecode.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}
