package service

import (
	"context"
	"testing"
	"time"

	"feedback-be/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCacheService_DisabledIsNoop(t *testing.T) {
	cache := NewCacheService(nil, 0, zap.NewNop())
	ctx := context.Background()

	assert.False(t, cache.Enabled())
	assert.False(t, cache.HasVoted(ctx, "p", "s"))
	cache.MarkVoted(ctx, "p", "s")
	assert.False(t, cache.HasVoted(ctx, "p", "s"))

	assert.Equal(t, int64(-1), cache.ReportGeneration(ctx))
	cache.CacheReportAsync("h", 0, &domain.Report{})
	cache.InvalidateReports()
	cache.Wait()

	_, ok := cache.GetReport(ctx, "h")
	assert.False(t, ok)
	assert.NoError(t, cache.HealthCheck(ctx))
}

func TestCacheService_Voters(t *testing.T) {
	mr, client := setupTestRedis(t)
	cache := NewCacheService(client, 0, zap.NewNop())
	ctx := context.Background()

	assert.False(t, cache.HasVoted(ctx, "poll-1", "s-1"))
	cache.MarkVoted(ctx, "poll-1", "s-1")
	assert.True(t, cache.HasVoted(ctx, "poll-1", "s-1"))
	assert.False(t, cache.HasVoted(ctx, "poll-2", "s-1"))

	key := client.KeyBuilder.KeyPollVoters("poll-1")
	assert.True(t, mr.TTL(key) > 0)
}

func TestCacheService_HasVotedOnOutage(t *testing.T) {
	mr, client := setupTestRedis(t)
	cache := NewCacheService(client, 0, zap.NewNop())
	cache.MarkVoted(context.Background(), "poll-1", "s-1")

	mr.Close()
	assert.False(t, cache.HasVoted(context.Background(), "poll-1", "s-1"))
}

func TestCacheService_Reports(t *testing.T) {
	mr, client := setupTestRedis(t)
	cache := NewCacheService(client, time.Minute, zap.NewNop())
	ctx := context.Background()

	mean := 72.5
	report := &domain.Report{
		Summary:     domain.ReportSummary{Responses: 4, Metric: domain.Stats{Count: 4, Mean: &mean}, Zone: "satisfactory"},
		Breakdown:   []domain.ReportBucket{{Key: "CS-21", Label: "CS-21", SampleSize: 4, Mean: 72.5, Ranked: true}},
		GeneratedAt: testNow,
	}
	gen := cache.ReportGeneration(ctx)
	assert.Equal(t, int64(0), gen)
	cache.CacheReportAsync("abc", gen, report)
	cache.CacheReportAsync("def", gen, report)
	cache.Wait()

	got, ok := cache.GetReport(ctx, "abc")
	require.True(t, ok)
	assert.Equal(t, 4, got.Summary.Responses)
	assert.Equal(t, 72.5, *got.Summary.Metric.Mean)
	assert.Equal(t, report.Breakdown, got.Breakdown)
	assert.Equal(t, time.Minute, mr.TTL(client.KeyBuilder.KeyReport("abc")))

	require.NoError(t, mr.Set(client.KeyBuilder.KeyReport("bad"), "{not json"))
	_, ok = cache.GetReport(ctx, "bad")
	assert.False(t, ok)

	cache.MarkVoted(ctx, "poll-1", "s-1")
	cache.InvalidateReports()
	cache.Wait()

	_, ok = cache.GetReport(ctx, "abc")
	assert.False(t, ok)
	_, ok = cache.GetReport(ctx, "def")
	assert.False(t, ok)
	assert.True(t, cache.HasVoted(ctx, "poll-1", "s-1"))
	assert.Equal(t, int64(1), cache.ReportGeneration(ctx))
}

func TestCacheService_ReportFromOldGenerationIsNotCached(t *testing.T) {
	mr, client := setupTestRedis(t)
	cache := NewCacheService(client, time.Minute, zap.NewNop())
	ctx := context.Background()

	// computed before a submission committed
	before := cache.ReportGeneration(ctx)
	cache.InvalidateReports()
	cache.Wait()

	cache.CacheReportAsync("abc", before, &domain.Report{Summary: domain.ReportSummary{Responses: 1}})
	cache.Wait()

	assert.False(t, mr.Exists(client.KeyBuilder.KeyReport("abc")))
	_, ok := cache.GetReport(ctx, "abc")
	assert.False(t, ok)

	current := cache.ReportGeneration(ctx)
	assert.Greater(t, current, before)
	cache.CacheReportAsync("abc", current, &domain.Report{Summary: domain.ReportSummary{Responses: 2}})
	cache.Wait()

	got, ok := cache.GetReport(ctx, "abc")
	require.True(t, ok)
	assert.Equal(t, 2, got.Summary.Responses)
}

func TestCacheService_HealthCheck(t *testing.T) {
	mr, client := setupTestRedis(t)
	cache := NewCacheService(client, 0, zap.NewNop())

	assert.NoError(t, cache.HealthCheck(context.Background()))
	mr.Close()
	assert.Error(t, cache.HealthCheck(context.Background()))
}
