package service

import (
	"context"

	"feedback-be/internal/domain"
)

// AuthService defines the interface for authentication operations
type AuthService interface {
	// ValidateToken validates a bearer token and returns the respondent profile it carries
	ValidateToken(ctx context.Context, token string) (*domain.RespondentProfile, error)
}

// Services aggregates the application services
type Services struct {
	Auth        AuthService
	Cache       *CacheService
	Polls       *PollService
	Responses   *ResponseService
	Reports     *ReportService
	Respondents *RespondentService
}
