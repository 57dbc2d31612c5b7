package domain

import (
	"errors"
	"fmt"
)

// Recorder precondition failures
var (
	ErrPollNotActive     = errors.New("poll is not active")
	ErrNotEligible       = errors.New("respondent is not eligible for this poll")
	ErrDuplicateResponse = errors.New("respondent has already responded to this poll")

	// ErrStorageConflict is returned when the (poll, respondent) uniqueness
	// constraint fires after the pre-check passed. It wraps ErrDuplicateResponse.
	ErrStorageConflict = fmt.Errorf("storage conflict: %w", ErrDuplicateResponse)
)

// Answer validation failures
var (
	ErrMissingRequired    = errors.New("required answer is missing")
	ErrOutOfRange         = errors.New("rating is out of range")
	ErrInvalidOption      = errors.New("invalid option")
	ErrInvalidBinaryValue = errors.New("invalid binary value")
	ErrTooLong            = errors.New("answer is too long")
	ErrMalformedAnswers   = errors.New("malformed answers payload")
)

// Catalog failures
var (
	ErrPollNotFound            = errors.New("poll not found")
	ErrResponseNotFound        = errors.New("response not found")
	ErrForbidden               = errors.New("action not allowed for this role")
	ErrInvalidPoll             = errors.New("invalid poll definition")
	ErrInvalidStatusTransition = errors.New("invalid poll status transition")
	ErrInvalidReportRequest    = errors.New("invalid report request")
	ErrRateLimited             = errors.New("too many submissions")
)

// ValidationError describes the first answer that failed validation.
type ValidationError struct {
	Kind       error
	QuestionID string
	Detail     string
}

func (e *ValidationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("question %q: %s: %s", e.QuestionID, e.Kind, e.Detail)
	}
	return fmt.Sprintf("question %q: %s", e.QuestionID, e.Kind)
}

// Unwrap exposes the sentinel kind to errors.Is.
func (e *ValidationError) Unwrap() error {
	return e.Kind
}

// Code returns the machine-readable failure code used in API responses.
func (e *ValidationError) Code() string {
	switch e.Kind {
	case ErrMissingRequired:
		return "missing_required"
	case ErrOutOfRange:
		return "out_of_range"
	case ErrInvalidOption:
		return "invalid_option"
	case ErrInvalidBinaryValue:
		return "invalid_binary_value"
	case ErrTooLong:
		return "too_long"
	case ErrMalformedAnswers:
		return "malformed_answers"
	default:
		return "invalid_answer"
	}
}

// NewValidationError builds a ValidationError for the given question.
func NewValidationError(kind error, questionID, detail string) *ValidationError {
	return &ValidationError{Kind: kind, QuestionID: questionID, Detail: detail}
}

// InvalidPoll wraps ErrInvalidPoll with a reason.
func InvalidPoll(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidPoll, fmt.Sprintf(format, args...))
}

// InvalidReport wraps ErrInvalidReportRequest with a reason.
func InvalidReport(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidReportRequest, fmt.Sprintf(format, args...))
}
