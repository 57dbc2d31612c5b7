package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"feedback-be/internal/aggregation"
	"feedback-be/internal/domain"
	"feedback-be/internal/repository"

	"go.uber.org/zap"
)

// ReportService serves aggregate reports, cached by request hash
type ReportService struct {
	polls  repository.PollRepository
	engine *aggregation.Engine
	cache  *CacheService
	logger *zap.Logger
}

// NewReportService creates a new report service
func NewReportService(polls repository.PollRepository, engine *aggregation.Engine, cache *CacheService, logger *zap.Logger) *ReportService {
	return &ReportService{polls: polls, engine: engine, cache: cache, logger: logger}
}

// Aggregate computes a report for teachers and admins. Teachers only ever see
// their own lessons.
func (s *ReportService) Aggregate(ctx context.Context, profile domain.RespondentProfile, req domain.ReportRequest) (*domain.Report, error) {
	switch profile.Role {
	case domain.RoleAdmin:
	case domain.RoleTeacher:
		req.Filter.TeacherID = profile.ID
	default:
		return nil, domain.ErrForbidden
	}

	req, err := aggregation.Normalize(req)
	if err != nil {
		return nil, err
	}

	hash, err := RequestHash(req)
	if err != nil {
		return nil, err
	}
	if report, ok := s.cache.GetReport(ctx, hash); ok {
		return report, nil
	}

	generation := s.cache.ReportGeneration(ctx)
	start := time.Now()
	polls, err := s.polls.ListWithResponses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load polls: %w", err)
	}
	report, err := s.engine.Compute(polls, req)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Report computed",
		zap.String("hash", hash),
		zap.Int("polls", report.Summary.EligiblePolls),
		zap.Int("responses", report.Summary.Responses),
		zap.Duration("duration", time.Since(start)))

	s.cache.CacheReportAsync(hash, generation, report)
	return report, nil
}

// RequestHash is the cache key of a normalized report request
func RequestHash(req domain.ReportRequest) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to hash report request: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
