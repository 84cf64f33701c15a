// Package services provides the account service and its error types.
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest  = errors.New("invalid request")
	ErrInvalidEmail    = errors.New("invalid email")
	ErrInvalidPhone    = errors.New("invalid phone")
	ErrInvalidRole     = errors.New("invalid role")
	ErrWeakPassword    = errors.New("password must be at least 8 characters")
	ErrReviewerProfile = errors.New("reviewer accounts require experience, band and skill")

	// Business Logic Conflicts (409 Conflict).
	ErrAccountExists = errors.New("account already exists")

	// Authentication Errors (401 Unauthorized).
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidEmail) ||
		errors.Is(err, ErrInvalidPhone) ||
		errors.Is(err, ErrInvalidRole) ||
		errors.Is(err, ErrWeakPassword) ||
		errors.Is(err, ErrReviewerProfile)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrAccountExists)
}

// IsUnauthorizedError checks if an error is a rejected credential that should return HTTP 401.
func IsUnauthorizedError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// fromValidator turns validator field errors into a single ErrInvalidRequest.
func fromValidator(op string, err error) error {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return NewValidationError(op, "invalid_request", err.Error(), ErrInvalidRequest)
	}

	fields := make([]string, 0, len(fieldErrors))
	for _, fieldError := range fieldErrors {
		fields = append(fields, fmt.Sprintf("%s (%s)", fieldError.Field(), fieldError.Tag()))
	}

	return NewValidationError(op, "invalid_request", "invalid fields: "+strings.Join(fields, ", "), ErrInvalidRequest)
}
