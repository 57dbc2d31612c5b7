package service

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"feedback-be/internal/domain"
	"feedback-be/pkg/redis"
	"go.uber.org/zap"
)

// CacheService wraps the Redis fast paths. Every method is a no-op when Redis
// is not configured, and cache failures never fail the caller.
type CacheService struct {
	redis     *redis.Client
	logger    *zap.Logger
	reportTTL time.Duration
	pending   sync.WaitGroup
}

// NewCacheService creates a new cache service; redisClient may be nil
func NewCacheService(redisClient *redis.Client, reportTTL time.Duration, logger *zap.Logger) *CacheService {
	if reportTTL <= 0 {
		reportTTL = redis.TTLReport
	}
	return &CacheService{
		redis:     redisClient,
		logger:    logger,
		reportTTL: reportTTL,
	}
}

// Enabled reports whether a Redis client is configured
func (c *CacheService) Enabled() bool {
	return c != nil && c.redis != nil
}

// HasVoted checks the poll's voters set. A false result is not authoritative.
func (c *CacheService) HasVoted(ctx context.Context, pollID, respondentID string) bool {
	if !c.Enabled() {
		return false
	}
	ok, err := c.redis.SIsMember(ctx, c.redis.KeyBuilder.KeyPollVoters(pollID), respondentID)
	if err != nil {
		c.logger.Warn("Voters cache error, falling back to database",
			zap.String("poll_id", pollID),
			zap.Error(err))
		return false
	}
	return ok
}

// MarkVoted adds the respondent to the poll's voters set
func (c *CacheService) MarkVoted(ctx context.Context, pollID, respondentID string) {
	if !c.Enabled() {
		return
	}
	key := c.redis.KeyBuilder.KeyPollVoters(pollID)
	if err := c.redis.SAdd(ctx, key, redis.TTLPollVoters, respondentID); err != nil {
		c.logger.Warn("Failed to cache voter",
			zap.String("poll_id", pollID),
			zap.String("respondent_id", respondentID),
			zap.Error(err))
	}
}

// GetReport returns a cached report for the request hash
func (c *CacheService) GetReport(ctx context.Context, hash string) (*domain.Report, bool) {
	if !c.Enabled() {
		return nil, false
	}
	cached, err := c.redis.Get(ctx, c.redis.KeyBuilder.KeyReport(hash))
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Report cache error, recomputing", zap.Error(err))
		}
		return nil, false
	}

	var report domain.Report
	if err := json.Unmarshal([]byte(cached), &report); err != nil {
		c.logger.Warn("Report cache corrupted, recomputing", zap.Error(err))
		return nil, false
	}
	c.logger.Debug("Report cache hit", zap.String("hash", hash))
	return &report, true
}

// ReportGeneration returns the current report cache generation, or -1 when
// it cannot be read. Callers read it before loading the data a report is
// computed from.
func (c *CacheService) ReportGeneration(ctx context.Context) int64 {
	if !c.Enabled() {
		return -1
	}
	raw, err := c.redis.Get(ctx, c.redis.KeyBuilder.KeyReportGeneration())
	if err == redis.Nil {
		return 0
	}
	if err != nil {
		c.logger.Warn("Failed to read report generation", zap.Error(err))
		return -1
	}
	gen, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.logger.Warn("Report generation corrupted", zap.String("value", raw))
		return -1
	}
	return gen
}

// CacheReportAsync stores a report without blocking the request. The write is
// dropped when an invalidation happened after generation was read; a write
// that races an invalidation is removed again once the bump is observed.
func (c *CacheService) CacheReportAsync(hash string, generation int64, report *domain.Report) {
	if !c.Enabled() || generation < 0 {
		return
	}
	data, err := json.Marshal(report)
	if err != nil {
		c.logger.Error("Failed to marshal report for caching", zap.Error(err))
		return
	}

	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if c.ReportGeneration(ctx) != generation {
			c.logger.Debug("Report generation moved, skipping cache write", zap.String("hash", hash))
			return
		}
		key := c.redis.KeyBuilder.KeyReport(hash)
		if err := c.redis.Set(ctx, key, string(data), c.reportTTL); err != nil {
			c.logger.Error("Failed to cache report", zap.String("hash", hash), zap.Error(err))
			return
		}
		if c.ReportGeneration(ctx) != generation {
			if err := c.redis.Delete(ctx, key); err != nil {
				c.logger.Error("Failed to drop stale report", zap.String("hash", hash), zap.Error(err))
			}
		}
	}()
}

// InvalidateReports drops every cached report in the background. Failures
// are logged only; the change that triggered it is already committed.
func (c *CacheService) InvalidateReports() {
	if !c.Enabled() {
		return
	}

	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if _, err := c.redis.IncrWithExpire(ctx, c.redis.KeyBuilder.KeyReportGeneration(), redis.TTLReportGen); err != nil {
			c.logger.Error("Failed to bump report generation", zap.Error(err))
		}
		deleted, err := c.redis.InvalidatePattern(ctx, c.redis.KeyBuilder.KeyReportAll())
		if err != nil {
			c.logger.Error("Failed to invalidate report caches", zap.Error(err))
			return
		}
		c.logger.Debug("Report caches invalidated", zap.Int("deleted", deleted))
	}()
}

// Wait blocks until background cache writes finish
func (c *CacheService) Wait() {
	if c != nil {
		c.pending.Wait()
	}
}

// HealthCheck performs a health check on the cache system
func (c *CacheService) HealthCheck(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	start := time.Now()
	err := c.redis.Health(ctx)
	duration := time.Since(start)

	if err != nil {
		c.logger.Error("Cache health check failed",
			zap.Duration("duration", duration),
			zap.Error(err))
		return err
	}

	c.logger.Debug("Cache health check passed", zap.Duration("duration", duration))
	return nil
}
