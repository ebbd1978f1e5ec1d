package model

import "fmt"

// ConfigError reports an inconsistent weight set or scenario parameter.
// Config errors abort the whole run: they invalidate every downstream
// computation.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("config: %s=%v: %s", e.Field, e.Value, e.Reason)
}

// NewConfigError builds a ConfigError for the given field and value.
func NewConfigError(field string, value any, reason string) *ConfigError {
	return &ConfigError{Field: field, Value: value, Reason: reason}
}

// ValidationError reports an out-of-range input value. Invalid site records
// are excluded from the batch and flagged; the batch itself continues.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s=%v: %s", e.Field, e.Value, e.Reason)
}

// NewValidationError builds a ValidationError for the given field and value.
func NewValidationError(field string, value any, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// ComputationError reports a numeric failure (e.g. IRR root finding).
// These are surfaced to the caller, never silently defaulted.
type ComputationError struct {
	Op     string
	Reason string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("computation: %s: %s", e.Op, e.Reason)
}

// NewComputationError builds a ComputationError for the given operation.
func NewComputationError(op, reason string) *ComputationError {
	return &ComputationError{Op: op, Reason: reason}
}
