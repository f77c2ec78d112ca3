// Package errors consolidates sentinel errors and helpers for the whole project.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// Metric errors
	ErrEmptyMetric = errors.New("no observations for metric")

	// Record-level data quality errors
	ErrMalformedTimestamp = errors.New("malformed timestamp")
	ErrEmptyKey           = errors.New("empty event key")

	// Storage errors - fatal, must block the report rewrite
	ErrStorageRead  = errors.New("storage read error")
	ErrStorageWrite = errors.New("storage write error")

	// Execution errors
	ErrPartitionFailure = errors.New("partition failure")
	ErrNoSource         = errors.New("no event source configured")

	// Validation errors
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMissingField  = errors.New("missing required field")
)

// Is is a convenience wrapper for errors.Is
var Is = errors.Is

// As is a convenience wrapper for errors.As
var As = errors.As

// IsFatal returns true if err must abort the run before any report rewrite.
func IsFatal(err error) bool {
	return errors.Is(err, ErrStorageRead) ||
		errors.Is(err, ErrStorageWrite) ||
		errors.Is(err, ErrInvalidConfig)
}

// IsRetriable returns true if the failed work can safely be re-executed.
// All partition-level combine functions are pure, so re-running them is safe.
func IsRetriable(err error) bool {
	return errors.Is(err, ErrPartitionFailure)
}

// IsRecordError returns true if err affects a single input record and is
// recovered by dropping that record.
func IsRecordError(err error) bool {
	return errors.Is(err, ErrMalformedTimestamp) ||
		errors.Is(err, ErrEmptyKey)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// NewValidation creates a validation error with context.
func NewValidation(field, reason string) error {
	return fmt.Errorf("invalid %s: %s: %w", field, reason, ErrInvalidConfig)
}

// NewMissingField creates a missing field error.
func NewMissingField(field string) error {
	return fmt.Errorf("%s: %w", field, ErrMissingField)
}

// NewInvalidValue creates an invalid value error.
func NewInvalidValue(field string, value interface{}, reason string) error {
	return fmt.Errorf("invalid %s '%v': %s: %w", field, value, reason, ErrInvalidConfig)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors struct {
	Errors []error
}

// NewValidationErrors creates a new ValidationErrors collector.
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{}
}

// Add adds an error to the collection.
func (v *ValidationErrors) Add(err error) {
	if err != nil {
		v.Errors = append(v.Errors, err)
	}
}

// AddField adds a field validation error.
func (v *ValidationErrors) AddField(field, reason string) {
	v.Errors = append(v.Errors, NewValidation(field, reason))
}

// AddMissing adds a missing field error.
func (v *ValidationErrors) AddMissing(field string) {
	v.Errors = append(v.Errors, NewMissingField(field))
}

// HasErrors returns true if there are any errors.
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// Error implements the error interface.
func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return ""
	}
	if len(v.Errors) == 1 {
		return v.Errors[0].Error()
	}

	msg := fmt.Sprintf("validation failed with %d errors:", len(v.Errors))
	for _, err := range v.Errors {
		msg += "\n  - " + err.Error()
	}
	return msg
}

// Err returns nil if no errors, otherwise returns the ValidationErrors.
func (v *ValidationErrors) Err() error {
	if len(v.Errors) == 0 {
		return nil
	}
	return v
}

// Unwrap returns the first error for errors.Is/As support.
func (v *ValidationErrors) Unwrap() error {
	if len(v.Errors) == 0 {
		return nil
	}
	return v.Errors[0]
}
