package repository

import (
	"context"
	"time"

	"feedback-be/internal/domain"
	"github.com/google/uuid"
)

// PollRepository defines the interface for poll catalog operations
type PollRepository interface {
	// Create stores a new poll
	Create(ctx context.Context, poll *domain.Poll) error

	// GetByID retrieves a poll without its responses. Soft-deleted polls are
	// returned with DeletedAt set; a missing poll yields domain.ErrPollNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Poll, error)

	// List retrieves all polls that are not soft-deleted, newest first, without responses
	List(ctx context.Context) ([]*domain.Poll, error)

	// ListWithResponses retrieves non-deleted polls with their responses embedded
	ListWithResponses(ctx context.Context) ([]*domain.Poll, error)

	// UpdateStatus moves a poll from one status to another; it fails with
	// domain.ErrInvalidStatusTransition when the stored status is not from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.PollStatus, at time.Time) error

	// SoftDelete marks a poll as deleted
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
}

// ResponseRepository defines the interface for response storage
type ResponseRepository interface {
	// HasResponded reports whether the respondent already has a response on the poll
	HasResponded(ctx context.Context, pollID uuid.UUID, respondentID string) (bool, error)

	// Record appends the response, increments the poll's counters and applies
	// the optional points credit as one unit. A second response for the same
	// (poll, respondent) fails with domain.ErrStorageConflict and changes nothing.
	Record(ctx context.Context, resp *domain.Response, credit *domain.PointsCredit) (*domain.Gamification, error)

	// GetByRespondent retrieves a respondent's response on a poll
	GetByRespondent(ctx context.Context, pollID uuid.UUID, respondentID string) (*domain.Response, error)
}

// RespondentRepository defines the interface for respondent gamification state
type RespondentRepository interface {
	// GetGamification returns the respondent's nested gamification state, or nil if none
	GetGamification(ctx context.Context, respondentID string) (*domain.Gamification, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Polls       PollRepository
	Responses   ResponseRepository
	Respondents RespondentRepository
	Health      func(ctx context.Context) error
}
