package workflow

import (
	"errors"
	"fmt"

	"github.com/talentpivot/talentpivot/pkg/persistence"
)

// Rejection classes. Every error returned by the Engine for a refused operation wraps
// exactly one of them.
var (
	// ErrValidation marks malformed or missing input (HTTP 400).
	ErrValidation = errors.New("validation failed")

	// ErrAuthorization marks a caller whose role may not perform the operation (HTTP 403).
	ErrAuthorization = errors.New("not authorized")

	// ErrCampaignClosed marks a candidate mutation attempted on a Completed campaign (HTTP 409).
	ErrCampaignClosed = errors.New("campaign is closed")

	// ErrNotFound marks a campaign or candidate that does not exist (HTTP 404).
	ErrNotFound = errors.New("not found")
)

// Error codes returned in API responses.
const (
	CodeInvalidInput        = "invalid_input"
	CodeInvalidDates        = "invalid_dates"
	CodeInvalidEmail        = "invalid_email"
	CodeInvalidPhone        = "invalid_phone"
	CodeInvalidDocument     = "invalid_document"
	CodeMissingReviewer     = "missing_reviewer"
	CodeInvalidStage        = "invalid_stage"
	CodeInvalidStatus       = "invalid_status"
	CodeNotCompleted        = "campaign_not_completed"
	CodeForbidden           = "forbidden"
	CodeFinalCandidate      = "candidate_final"
	CodeCampaignClosed      = "campaign_closed"
	CodeCampaignNotFound    = "campaign_not_found"
	CodeCandidateNotFound   = "candidate_not_found"
	CodeArtifactUnavailable = "artifact_unavailable"
)

// Error wraps an engine rejection with the operation and an API error code.
type Error struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func validationError(op, code, message string) *Error {
	return &Error{Op: op, Code: code, Message: message, Err: ErrValidation}
}

func authorizationError(op, code, message string) *Error {
	return &Error{Op: op, Code: code, Message: message, Err: ErrAuthorization}
}

func campaignClosedError(op, campaignID string) *Error {
	return &Error{
		Op:      op,
		Code:    CodeCampaignClosed,
		Message: fmt.Sprintf("campaign %s is completed; reopen it first", campaignID),
		Err:     ErrCampaignClosed,
	}
}

// notFound translates persistence not-found errors; anything else is returned wrapped.
func notFound(op string, err error) error {
	switch {
	case persistence.IsCampaignNotFound(err):
		return &Error{Op: op, Code: CodeCampaignNotFound, Message: "campaign not found", Err: fmt.Errorf("%w: %w", ErrNotFound, err)}
	case persistence.IsCandidateNotFound(err):
		return &Error{Op: op, Code: CodeCandidateNotFound, Message: "candidate not found", Err: fmt.Errorf("%w: %w", ErrNotFound, err)}
	default:
		var engineErr *Error
		if errors.As(err, &engineErr) {
			return err
		}

		return fmt.Errorf("%s: %w", op, err)
	}
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsAuthorizationError checks if an error is a role rejection that should return HTTP 403.
func IsAuthorizationError(err error) bool {
	return errors.Is(err, ErrAuthorization)
}

// IsCampaignClosedError checks if an error is a closed-campaign rejection that should return HTTP 409.
func IsCampaignClosedError(err error) bool {
	return errors.Is(err, ErrCampaignClosed)
}

// IsNotFoundError checks if an error is a missing entity that should return HTTP 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Code returns the API error code carried by err, if any.
func Code(err error) string {
	var engineErr *Error
	if errors.As(err, &engineErr) {
		return engineErr.Code
	}

	return ""
}
