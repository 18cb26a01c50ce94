// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

// Package errors provides structured error types for the Octopus energy cache.
//
// This package defines custom error types that provide better error handling,
// inspection, and debugging capabilities compared to plain string errors.
//
// # Benefits of Structured Errors
//
//   - Type-safe error inspection with errors.As() and errors.Is()
//   - Context-rich error messages with operation and underlying error details
//   - Consistent error formatting across the application
//   - Better error wrapping and unwrapping support
//   - Enhanced logging with structured error fields
//
// # Example Usage
//
//	err := errors.NewStoreError("upsert", "TARIFF_RATES_CACHE", fmt.Errorf("database is locked"))
//	if errors.IsStoreError(err) {
//	    log.Printf("Store failed: %v", err)
//	}
//
//	var storeErr *errors.StoreError
//	if errors.As(err, &storeErr) {
//	    log.Printf("Failed operation: %s", storeErr.Op)
//	}
package errors

import (
	"errors"
	"fmt"
)

// StoreError represents an error during cache store operations.
//
// The cache is an optimization, never a correctness requirement: callers
// must treat a StoreError as a cache miss and fall back to the upstream
// data source.
type StoreError struct {
	Op    string // Operation being performed (e.g., "upsert", "query range")
	Table string // Cache table involved (if applicable)
	Err   error  // Underlying error
}

func (e *StoreError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("store %s (table=%s): %v", e.Op, e.Table, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store %s failed", e.Op)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new store error.
func NewStoreError(op string, table string, err error) *StoreError {
	return &StoreError{Op: op, Table: table, Err: err}
}

// IsStoreError checks if an error is a StoreError.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// APIError represents an error from the upstream Octopus Energy API.
type APIError struct {
	Op         string // Operation being performed (e.g., "fetch unit rates")
	StatusCode int    // HTTP status code, if a response was received
	Err        error  // Underlying error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("octopus api %s (status=%d): %v", e.Op, e.StatusCode, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("octopus api %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("octopus api %s failed", e.Op)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewAPIError creates a new API error.
func NewAPIError(op string, statusCode int, err error) *APIError {
	return &APIError{Op: op, StatusCode: statusCode, Err: err}
}

// IsAPIError checks if an error is an APIError.
func IsAPIError(err error) bool {
	var ae *APIError
	return errors.As(err, &ae)
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Field string // Configuration field that caused the error
	Value string // Invalid value (optional, may be redacted for sensitive fields)
	Err   error  // Underlying error or description
}

func (e *ConfigError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("config error in field %q (value=%q): %v", e.Field, e.Value, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("config error in field %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config error in field %q", e.Field)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new configuration error.
func NewConfigError(field string, value string, err error) *ConfigError {
	return &ConfigError{Field: field, Value: value, Err: err}
}

// IsConfigError checks if an error is a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// ValidationError represents a data validation error.
type ValidationError struct {
	Field   string // Field that failed validation
	Value   any    // Invalid value
	Reason  string // Why validation failed
	Details error  // Additional details (optional)
}

func (e *ValidationError) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("validation error: field %q with value %v: %s (%v)", e.Field, e.Value, e.Reason, e.Details)
	}
	return fmt.Sprintf("validation error: field %q with value %v: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Details
}

// NewValidationError creates a new validation error.
func NewValidationError(field string, value any, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// NewInvalidRecordError creates a validation error for a record that must not
// be written to the cache. It unwraps to ErrInvalidRecord so callers can use
// errors.Is to distinguish rejected writes from store failures.
func NewInvalidRecordError(field string, value any, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason, Details: ErrInvalidRecord}
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotificationError represents an error sending notifications.
type NotificationError struct {
	Type string // Notification type (e.g., "slack", "email")
	Err  error  // Underlying error
}

func (e *NotificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("notification %s: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("notification %s failed", e.Type)
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}

// NewNotificationError creates a new notification error.
func NewNotificationError(notifType string, err error) *NotificationError {
	return &NotificationError{Type: notifType, Err: err}
}

// IsNotificationError checks if an error is a NotificationError.
func IsNotificationError(err error) bool {
	var ne *NotificationError
	return errors.As(err, &ne)
}

// Sentinel errors for common conditions
var (
	// ErrStoreUnavailable indicates the cache store cannot be reached
	ErrStoreUnavailable = errors.New("cache store unavailable")

	// ErrDataUnavailable indicates neither the upstream API nor the cache
	// could provide the requested data
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrInvalidRecord indicates a record failed key or interval validation
	ErrInvalidRecord = errors.New("invalid record")

	// ErrCircuitBreakerOpen indicates the upstream circuit breaker is open
	ErrCircuitBreakerOpen = errors.New("circuit breaker open")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNoActiveAgreement indicates a meter point has no agreement covering
	// the requested time
	ErrNoActiveAgreement = errors.New("no active agreement")
)
