// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrNotAPayload   = errors.New("no valid payload")
	ErrEmptyPayload  = fmt.Errorf("empty body: %w", ErrNotAPayload)
	ErrNotARecord    = fmt.Errorf("top-level value is not an object: %w", ErrNotAPayload)
	ErrConfigInvalid = errors.New("invalid configuration")
	ErrNotConfigured = errors.New("telegram credentials not configured")
)

// PayloadError is returned when no structured record could be recovered from a body.
type PayloadError struct {
	Reason  string
	Excerpt string
	Err     error
}

func (e *PayloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payload error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("payload error: %s", e.Reason)
}

// Unwrap returns ErrNotAPayload so callers can match any extraction failure.
func (e *PayloadError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrNotAPayload, e.Err}
	}
	return []error{ErrNotAPayload}
}

// NewPayloadError creates a new PayloadError.
func NewPayloadError(reason, excerpt string, err error) *PayloadError {
	return &PayloadError{
		Reason:  reason,
		Excerpt: excerpt,
		Err:     err,
	}
}

// DeliveryError represents a failed call to the Telegram Bot API.
type DeliveryError struct {
	StatusCode  int
	ErrorCode   int
	Description string
	Err         error
}

func (e *DeliveryError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("delivery error: %v", e.Err)
	case e.Description != "":
		return fmt.Sprintf("delivery error [%d]: sendMessage error (%d) description: %s", e.StatusCode, e.ErrorCode, e.Description)
	default:
		return fmt.Sprintf("delivery error [%d]: telegram API returned unexpected status", e.StatusCode)
	}
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// NewDeliveryError creates a new DeliveryError.
func NewDeliveryError(statusCode, errorCode int, description string, err error) *DeliveryError {
	return &DeliveryError{
		StatusCode:  statusCode,
		ErrorCode:   errorCode,
		Description: description,
		Err:         err,
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// Unwrap lets validation failures match ErrConfigInvalid.
func (e *ValidationError) Unwrap() error {
	return ErrConfigInvalid
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
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

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
