package service

import (
	"context"
	"fmt"

	"feedback-be/internal/domain"
	"feedback-be/internal/repository"
)

// RespondentService builds the caller's own respondent view
type RespondentService struct {
	respondents repository.RespondentRepository
}

// NewRespondentService creates a new respondent service
func NewRespondentService(respondents repository.RespondentRepository) *RespondentService {
	return &RespondentService{respondents: respondents}
}

// Me returns the profile with its gamification state. Only gamified roles
// carry the student sub-structure; points and level are projected from it.
func (s *RespondentService) Me(ctx context.Context, profile domain.RespondentProfile) (*domain.RespondentView, error) {
	respondent := domain.Respondent{Profile: profile}
	if profile.Role.Gamified() {
		g, err := s.respondents.GetGamification(ctx, profile.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load gamification: %w", err)
		}
		student := &domain.StudentProfile{Gamification: domain.Gamification{Level: 1}}
		if g != nil {
			student.Gamification = *g
		}
		respondent.Student = student
	}
	view := respondent.View()
	return &view, nil
}
