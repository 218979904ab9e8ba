// Package errors defines the application error taxonomy shared by every
// layer. Handlers map error types to HTTP status codes; services and the
// engine only deal in types.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType defines the category of an error.
type ErrorType string

const (
	// ErrorTypeValidation covers malformed input: bad level, empty name,
	// self-loop edges. Never retried.
	ErrorTypeValidation ErrorType = "VALIDATION"
	// ErrorTypeNotFound covers missing nodes and sessions.
	ErrorTypeNotFound ErrorType = "NOT_FOUND"
	// ErrorTypeCycle covers edge creations that would close a cycle.
	ErrorTypeCycle ErrorType = "CYCLE"
	// ErrorTypeNoEligibleNode means no root node matched the requested
	// level; distinct from a generic not-found.
	ErrorTypeNoEligibleNode ErrorType = "NO_ELIGIBLE_NODE"
	// ErrorTypeInvalidState covers operations on completed or empty
	// sessions.
	ErrorTypeInvalidState ErrorType = "INVALID_STATE"
	// ErrorTypeConflict covers lost races on node status transitions.
	ErrorTypeConflict ErrorType = "CONFLICT"
	// ErrorTypeEvaluator means the oracle was unreachable or returned
	// garbage after all retries.
	ErrorTypeEvaluator ErrorType = "EVALUATOR"
	// ErrorTypeInternal is everything else.
	ErrorTypeInternal ErrorType = "INTERNAL"
)

// AppError is the custom error type for the application.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewValidation creates a validation error.
func NewValidation(message string) error {
	return &AppError{Type: ErrorTypeValidation, Message: message}
}

// NewNotFound creates a not found error.
func NewNotFound(message string) error {
	return &AppError{Type: ErrorTypeNotFound, Message: message}
}

// NewCycle creates a cycle error.
func NewCycle(message string) error {
	return &AppError{Type: ErrorTypeCycle, Message: message}
}

// NewNoEligibleNode creates a no-eligible-node error.
func NewNoEligibleNode(message string) error {
	return &AppError{Type: ErrorTypeNoEligibleNode, Message: message}
}

// NewInvalidState creates an invalid state error.
func NewInvalidState(message string) error {
	return &AppError{Type: ErrorTypeInvalidState, Message: message}
}

// NewConflict creates a conflict error.
func NewConflict(message string) error {
	return &AppError{Type: ErrorTypeConflict, Message: message}
}

// NewEvaluator creates an evaluator error wrapping the oracle failure.
func NewEvaluator(message string, err error) error {
	return &AppError{Type: ErrorTypeEvaluator, Message: message, Err: err}
}

// NewInternal creates an internal error.
func NewInternal(message string, err error) error {
	return &AppError{Type: ErrorTypeInternal, Message: message, Err: err}
}

// Wrap wraps an error with additional context, preserving its type.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{
			Type:    appErr.Type,
			Message: fmt.Sprintf("%s: %s", message, appErr.Message),
			Err:     appErr.Err,
		}
	}
	return &AppError{Type: ErrorTypeInternal, Message: message, Err: err}
}

// TypeOf returns the error type, or ErrorTypeInternal for foreign errors.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool { return TypeOf(err) == ErrorTypeValidation }

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool { return TypeOf(err) == ErrorTypeNotFound }

// IsCycle checks if an error is a cycle error.
func IsCycle(err error) bool { return TypeOf(err) == ErrorTypeCycle }

// IsNoEligibleNode checks if an error is a no-eligible-node error.
func IsNoEligibleNode(err error) bool { return TypeOf(err) == ErrorTypeNoEligibleNode }

// IsInvalidState checks if an error is an invalid state error.
func IsInvalidState(err error) bool { return TypeOf(err) == ErrorTypeInvalidState }

// IsConflict checks if an error is a conflict error.
func IsConflict(err error) bool { return TypeOf(err) == ErrorTypeConflict }

// IsEvaluator checks if an error is an evaluator error.
func IsEvaluator(err error) bool { return TypeOf(err) == ErrorTypeEvaluator }

// HTTPStatus maps an error type to the status code handlers should return.
func HTTPStatus(err error) int {
	switch TypeOf(err) {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeNotFound, ErrorTypeNoEligibleNode:
		return http.StatusNotFound
	case ErrorTypeCycle, ErrorTypeConflict, ErrorTypeInvalidState:
		return http.StatusConflict
	case ErrorTypeEvaluator:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
