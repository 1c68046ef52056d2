package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeNotFound represents a referenced record that does not exist
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeConflict represents an operation blocked by existing relationships
	ErrorTypeConflict ErrorType = "conflict"
	// ErrorTypeInvalidOperation represents self-links and malformed input
	ErrorTypeInvalidOperation ErrorType = "invalid_operation"
	// ErrorTypeUnavailable represents an unreachable optional layer (cache, broadcast)
	ErrorTypeUnavailable ErrorType = "unavailable"
	// ErrorTypeStore represents user store failures
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// Kind returns the error category. Embedding types inherit it, which lets
// TypeOf find the category through wrapping.
func (e *BaseError) Kind() ErrorType {
	return e.Type
}

// Detail returns the message without the type prefix, suitable for API responses
func (e *BaseError) Detail() string {
	return e.Message
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// User Errors

// ErrUserNotFound is returned when one or more referenced users do not exist
type ErrUserNotFound struct {
	*BaseError
	UserIDs []string
}

// NewUserNotFound creates a not-found error for the given ids
func NewUserNotFound(userIDs ...string) *ErrUserNotFound {
	msg := "User not found"
	if len(userIDs) > 1 {
		msg = "One or both users not found."
	}
	return &ErrUserNotFound{
		BaseError: NewBaseError(ErrorTypeNotFound, msg, nil),
		UserIDs:   userIDs,
	}
}

// ErrUserHasFriends is returned when deleting a user that still has friends
type ErrUserHasFriends struct {
	*BaseError
	UserID      string
	FriendCount int
}

// NewUserHasFriends creates the deletion conflict error
func NewUserHasFriends(userID string, friendCount int) *ErrUserHasFriends {
	return &ErrUserHasFriends{
		BaseError: NewBaseError(ErrorTypeConflict,
			"User cannot be deleted while they have friends. Please unlink them first.", nil),
		UserID:      userID,
		FriendCount: friendCount,
	}
}

// ErrInvalidOperation is returned for self-links and malformed input
type ErrInvalidOperation struct {
	*BaseError
	Operation string
	Reason    string
}

// NewInvalidOperation creates an invalid operation error
func NewInvalidOperation(operation, reason string) *ErrInvalidOperation {
	return &ErrInvalidOperation{
		BaseError: NewBaseError(ErrorTypeInvalidOperation, reason, nil),
		Operation: operation,
		Reason:    reason,
	}
}

// Infrastructure Errors

// ErrUnavailable is returned when an optional layer cannot be reached.
// It is never surfaced to API callers.
type ErrUnavailable struct {
	*BaseError
	Component string
}

// NewUnavailable creates an unavailable error for a component
func NewUnavailable(component string, err error) *ErrUnavailable {
	return &ErrUnavailable{
		BaseError: NewBaseError(ErrorTypeUnavailable, fmt.Sprintf("%s unavailable", component), err),
		Component: component,
	}
}

// ErrStoreFailed is returned when a user store operation fails
type ErrStoreFailed struct {
	*BaseError
	Operation string
}

// NewStoreFailed wraps a store failure
func NewStoreFailed(operation string, err error) *ErrStoreFailed {
	return &ErrStoreFailed{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("store operation failed: %s", operation), err),
		Operation: operation,
	}
}

// Config Errors

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

// NewConfigMissingRequired creates a missing config error
func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// ErrConfigValidationFailed is returned when configuration validation fails
type ErrConfigValidationFailed struct {
	*BaseError
	Field  string
	Reason string
}

// NewConfigValidationFailed creates a config validation error
func NewConfigValidationFailed(field, reason string) *ErrConfigValidationFailed {
	return &ErrConfigValidationFailed{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("config validation failed: %s - %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// Helper functions

type kinded interface {
	Kind() ErrorType
}

// TypeOf returns the category of the first typed error in the chain, or "" if none
func TypeOf(err error) ErrorType {
	var k kinded
	if stderrors.As(err, &k) {
		return k.Kind()
	}
	return ""
}

// MessageOf returns the message of the first typed error in the chain, or
// err.Error() for untyped errors
func MessageOf(err error) string {
	var d interface{ Detail() string }
	if stderrors.As(err, &d) {
		return d.Detail()
	}
	return err.Error()
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	return err != nil && TypeOf(err) == errType
}

// IsNotFound reports whether err is a not-found error
func IsNotFound(err error) bool {
	return IsErrorType(err, ErrorTypeNotFound)
}

// IsConflict reports whether err is a conflict error
func IsConflict(err error) bool {
	return IsErrorType(err, ErrorTypeConflict)
}

// IsInvalidOperation reports whether err is an invalid operation error
func IsInvalidOperation(err error) bool {
	return IsErrorType(err, ErrorTypeInvalidOperation)
}
