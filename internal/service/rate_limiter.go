package service

import (
	"context"
	"fmt"
	"time"

	"feedback-be/pkg/redis"
	"go.uber.org/zap"
)

// RateLimitInfo describes the caller's position in the current window
type RateLimitInfo struct {
	IsAllowed    bool
	RequestCount int64
	Limit        int
	ResetAt      time.Time
}

// SubmitRateLimiter caps submissions per respondent in fixed hourly windows
type SubmitRateLimiter struct {
	redis  *redis.Client
	limit  int
	logger *zap.Logger
	now    func() time.Time
}

// NewSubmitRateLimiter creates a limiter; a nil client or non-positive limit disables it
func NewSubmitRateLimiter(redisClient *redis.Client, limit int, logger *zap.Logger) *SubmitRateLimiter {
	return &SubmitRateLimiter{redis: redisClient, limit: limit, logger: logger, now: time.Now}
}

// Allow counts one submission attempt for the respondent
func (l *SubmitRateLimiter) Allow(ctx context.Context, respondentID string) (*RateLimitInfo, error) {
	if l == nil || l.redis == nil || l.limit <= 0 {
		return &RateLimitInfo{IsAllowed: true}, nil
	}

	window := l.now().UTC().Truncate(redis.TTLSubmitLimit)
	key := l.redis.KeyBuilder.KeySubmitLimit(respondentID, window.Format("2006010215"))

	count, err := l.redis.IncrWithExpire(ctx, key, redis.TTLSubmitLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	info := &RateLimitInfo{
		IsAllowed:    count <= int64(l.limit),
		RequestCount: count,
		Limit:        l.limit,
		ResetAt:      window.Add(redis.TTLSubmitLimit),
	}
	if !info.IsAllowed {
		l.logger.Warn("Submit rate limit exceeded",
			zap.String("respondent_id", respondentID),
			zap.Int64("request_count", count))
	}
	return info, nil
}
