package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"feedback-be/internal/domain"
	"feedback-be/internal/repository"
	"feedback-be/internal/scoring"
	"feedback-be/internal/validation"
	"feedback-be/internal/visibility"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ResponseService records poll responses and serves a respondent's own answers
type ResponseService struct {
	polls        repository.PollRepository
	responses    repository.ResponseRepository
	cache        *CacheService
	limiter      *SubmitRateLimiter
	gamification *GamificationPolicy
	logger       *zap.Logger
	now          func() time.Time
}

// NewResponseService creates the response recorder
func NewResponseService(
	repos *repository.Repositories,
	cache *CacheService,
	limiter *SubmitRateLimiter,
	gamification *GamificationPolicy,
	logger *zap.Logger,
) *ResponseService {
	return &ResponseService{
		polls:        repos.Polls,
		responses:    repos.Responses,
		cache:        cache,
		limiter:      limiter,
		gamification: gamification,
		logger:       logger,
		now:          time.Now,
	}
}

// Submit records a response. Preconditions are checked in order: the poll is
// active, the respondent is eligible, the respondent has not responded yet, and
// the answers validate. A lost race against a concurrent submission surfaces as
// domain.ErrStorageConflict, which is also a domain.ErrDuplicateResponse.
func (s *ResponseService) Submit(ctx context.Context, pollID uuid.UUID, profile domain.RespondentProfile, payload json.RawMessage) (*domain.SubmitResult, error) {
	log := s.logger.With(zap.String("poll_id", pollID.String()), zap.String("respondent_id", profile.ID))

	limit, err := s.limiter.Allow(ctx, profile.ID)
	if err != nil {
		// limiter outage must not block submissions
		log.Warn("Rate limiter unavailable", zap.Error(err))
	} else if !limit.IsAllowed {
		return nil, domain.ErrRateLimited
	}

	poll, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !poll.IsActiveAt(now) {
		return nil, domain.ErrPollNotActive
	}
	if !CanSee(poll, profile) {
		return nil, domain.ErrNotEligible
	}

	if s.cache.HasVoted(ctx, pollID.String(), profile.ID) {
		return nil, domain.ErrDuplicateResponse
	}
	responded, err := s.responses.HasResponded(ctx, pollID, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing response: %w", err)
	}
	if responded {
		s.cache.MarkVoted(ctx, pollID.String(), profile.ID)
		return nil, domain.ErrDuplicateResponse
	}

	raw, err := validation.DecodePayload(poll.Questions, payload)
	if err != nil {
		return nil, err
	}
	answers, err := validation.Validate(poll, raw)
	if err != nil {
		return nil, err
	}

	resp := &domain.Response{
		ID:           uuid.New(),
		PollID:       pollID,
		RespondentID: profile.ID,
		Answers:      answers,
		Snapshot:     profile.Snapshot(),
		SubmittedAt:  now.UTC(),
	}
	if poll.ScoreEligible() {
		resp.IKOP = scoring.Score(answers, poll.Questions)
	}

	credit := s.gamification.Credit(profile.Role, poll.Questions, answers)
	if credit != nil {
		resp.PointsEarned = credit.Points
	}

	gamification, err := s.responses.Record(ctx, resp, credit)
	if err != nil {
		if errors.Is(err, domain.ErrStorageConflict) {
			log.Info("Concurrent duplicate response rejected by storage")
			s.cache.MarkVoted(ctx, pollID.String(), profile.ID)
			return nil, err
		}
		return nil, fmt.Errorf("failed to record response: %w", err)
	}

	s.cache.MarkVoted(ctx, pollID.String(), profile.ID)
	s.cache.InvalidateReports()

	log.Info("Response recorded",
		zap.String("response_id", resp.ID.String()),
		zap.Int("points_earned", resp.PointsEarned))

	return &domain.SubmitResult{
		Response:     resp,
		PointsEarned: resp.PointsEarned,
		IKOP:         resp.IKOP,
		Zone:         scoring.ZoneOf(resp.IKOP),
		Gamification: gamification,
	}, nil
}

// GetMine returns the caller's own response on a poll
func (s *ResponseService) GetMine(ctx context.Context, pollID uuid.UUID, profile domain.RespondentProfile) (*domain.Response, error) {
	if _, err := s.polls.GetByID(ctx, pollID); err != nil {
		return nil, err
	}
	return s.responses.GetByRespondent(ctx, pollID, profile.ID)
}

// CanSee applies role exclusions and targeting. Admins see every poll.
func CanSee(poll *domain.Poll, profile domain.RespondentProfile) bool {
	if profile.Role == domain.RoleAdmin {
		return true
	}
	if poll.Type.HiddenFrom(profile.Role) {
		return false
	}
	return visibility.IsVisible(poll, profile)
}
