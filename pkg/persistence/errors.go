// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrCampaignNotFound indicates a campaign was not found by the given identifier.
	ErrCampaignNotFound = errors.New("campaign not found")

	// ErrCandidateNotFound indicates a candidate was not found in the given campaign.
	ErrCandidateNotFound = errors.New("candidate not found")

	// ErrUserNotFound indicates no account exists for the given email.
	ErrUserNotFound = errors.New("user not found")

	// ErrCampaignAlreadyExists indicates a campaign with the same identifier already exists.
	ErrCampaignAlreadyExists = errors.New("campaign already exists")

	// ErrCandidateAlreadyExists indicates a candidate with the same identifier already exists.
	ErrCandidateAlreadyExists = errors.New("candidate already exists")

	// ErrUserAlreadyExists indicates an account with the same email already exists.
	ErrUserAlreadyExists = errors.New("user already exists")
)

// EntityError wraps repository errors with the operation and entity involved.
type EntityError struct {
	Op     string // Operation being performed (e.g., "GetByID", "Update")
	Entity string // "campaign", "candidate" or "user"
	ID     string
	Err    error
}

func (e *EntityError) Error() string {
	return fmt.Sprintf("%s operation failed for %s %s: %v", e.Op, e.Entity, e.ID, e.Err)
}

func (e *EntityError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for entity errors.
func (e *EntityError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewCampaignError creates a campaign error with context.
func NewCampaignError(op, campaignID string, err error) *EntityError {
	return &EntityError{Op: op, Entity: "campaign", ID: campaignID, Err: err}
}

// NewCandidateError creates a candidate error with context.
func NewCandidateError(op, candidateID string, err error) *EntityError {
	return &EntityError{Op: op, Entity: "candidate", ID: candidateID, Err: err}
}

// NewUserError creates a user error with context.
func NewUserError(op, email string, err error) *EntityError {
	return &EntityError{Op: op, Entity: "user", ID: email, Err: err}
}

// IsCampaignNotFound checks if an error indicates a campaign was not found.
func IsCampaignNotFound(err error) bool {
	return errors.Is(err, ErrCampaignNotFound)
}

// IsCandidateNotFound checks if an error indicates a candidate was not found.
func IsCandidateNotFound(err error) bool {
	return errors.Is(err, ErrCandidateNotFound)
}

// IsUserNotFound checks if an error indicates an account was not found.
func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

// IsNotFound checks if an error indicates any entity was not found.
func IsNotFound(err error) bool {
	return IsCampaignNotFound(err) || IsCandidateNotFound(err) || IsUserNotFound(err)
}

// IsAlreadyExists checks if an error indicates a uniqueness conflict.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrCampaignAlreadyExists) ||
		errors.Is(err, ErrCandidateAlreadyExists) ||
		errors.Is(err, ErrUserAlreadyExists)
}
