package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"feedback-be/internal/domain"
	"feedback-be/internal/repository"
	"feedback-be/pkg/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client, err := redis.NewClient("redis://"+mr.Addr(), "test", zap.NewNop())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

type recorderFixture struct {
	store   *repository.MemoryStore
	cache   *CacheService
	service *ResponseService
}

func newRecorderFixture(t *testing.T, redisClient *redis.Client, limit int) *recorderFixture {
	t.Helper()
	store := repository.NewMemoryStore()
	cache := NewCacheService(redisClient, 0, zap.NewNop())
	t.Cleanup(cache.Wait)

	svc := NewResponseService(
		store.Repositories(),
		cache,
		NewSubmitRateLimiter(redisClient, limit, zap.NewNop()),
		DefaultGamificationPolicy(),
		zap.NewNop(),
	)
	svc.now = func() time.Time { return testNow }
	return &recorderFixture{store: store, cache: cache, service: svc}
}

func (f *recorderFixture) addPoll(t *testing.T, mutate func(*domain.Poll)) *domain.Poll {
	t.Helper()
	poll := &domain.Poll{
		ID:        uuid.New(),
		AuthorID:  "t-1",
		Title:     "Databases, lecture 4",
		Type:      domain.PollTypeLessonFeedback,
		Questions: LessonFeedbackTemplate(),
		Targeting: domain.Targeting{Groups: []string{"CS-21"}},
		StartsAt:  testNow.Add(-time.Hour),
		EndsAt:    testNow.Add(24 * time.Hour),
		Status:    domain.StatusActive,
		CreatedAt: testNow.Add(-time.Hour),
	}
	if mutate != nil {
		mutate(poll)
	}
	require.NoError(t, f.store.Create(context.Background(), poll))
	return poll
}

func student(id string) domain.RespondentProfile {
	return domain.RespondentProfile{
		ID:      id,
		Role:    domain.RoleStudent,
		Faculty: domain.Attribute{Key: "fit", Name: "Faculty of IT"},
		Program: domain.Attribute{Key: "cs", Name: "Computer Science"},
		Course:  2,
		Group:   domain.Attribute{Key: "CS-21", Name: "CS-21"},
	}
}

func ratings(values ...int) json.RawMessage {
	ids := []string{"clarity", "engagement", "pace", "usefulness", "organization"}
	m := make(map[string]interface{})
	for i, v := range values {
		m[ids[i]] = v
	}
	data, _ := json.Marshal(m)
	return data
}

func TestSubmit_Success(t *testing.T) {
	f := newRecorderFixture(t, nil, 0)
	poll := f.addPoll(t, nil)

	res, err := f.service.Submit(context.Background(), poll.ID, student("s-1"), ratings(5, 4, 3, 2, 3))
	require.NoError(t, err)

	require.NotNil(t, res.IKOP)
	assert.Equal(t, 65, *res.IKOP)
	assert.Equal(t, "satisfactory", res.Zone)
	assert.Equal(t, 10, res.PointsEarned)
	assert.Equal(t, &domain.Gamification{Points: 10, Level: 1}, res.Gamification)
	assert.Equal(t, "CS-21", res.Response.Snapshot.Group.Key)
	assert.Equal(t, "2", res.Response.Snapshot.Course.Key)

	polls, err := f.store.ListWithResponses(context.Background())
	require.NoError(t, err)
	require.Len(t, polls, 1)
	assert.Equal(t, 1, polls[0].TotalVotes)
	assert.NoError(t, polls[0].CheckCounters())
}

func TestSubmit_CommentBonus(t *testing.T) {
	f := newRecorderFixture(t, nil, 0)
	poll := f.addPoll(t, nil)

	payload := map[string]interface{}{
		"clarity": 5, "engagement": 5, "pace": 5, "usefulness": 5, "organization": 5,
		"comment": strings.Repeat("good ", 10),
	}
	data, _ := json.Marshal(payload)

	res, err := f.service.Submit(context.Background(), poll.ID, student("s-1"), data)
	require.NoError(t, err)
	assert.Equal(t, 15, res.PointsEarned)
	assert.Equal(t, 100, *res.IKOP)
}

func TestSubmit_NonGamifiedRoleEarnsNothing(t *testing.T) {
	f := newRecorderFixture(t, nil, 0)
	poll := f.addPoll(t, func(p *domain.Poll) {
		p.Type = domain.PollTypeGeneral
		p.Targeting = domain.Targeting{}
	})

	teacher := domain.RespondentProfile{ID: "t-9", Role: domain.RoleTeacher}
	res, err := f.service.Submit(context.Background(), poll.ID, teacher, ratings(3, 3, 3, 3, 3))
	require.NoError(t, err)
	assert.Zero(t, res.PointsEarned)
	assert.Nil(t, res.Gamification)
}

func TestSubmit_PreconditionOrder(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.Poll)
		profile domain.RespondentProfile
		payload json.RawMessage
		prior   bool
		wantErr error
	}{
		{
			name:    "draft poll",
			mutate:  func(p *domain.Poll) { p.Status = domain.StatusDraft },
			profile: student("s-1"),
			payload: json.RawMessage(`{}`),
			wantErr: domain.ErrPollNotActive,
		},
		{
			name:    "window closed beats eligibility",
			mutate:  func(p *domain.Poll) { p.EndsAt = testNow },
			profile: domain.RespondentProfile{ID: "s-x", Role: domain.RoleStudent},
			payload: json.RawMessage(`{}`),
			wantErr: domain.ErrPollNotActive,
		},
		{
			name:    "not yet open",
			mutate:  func(p *domain.Poll) { p.StartsAt = testNow.Add(time.Minute) },
			profile: student("s-1"),
			payload: ratings(5, 5, 5, 5, 5),
			wantErr: domain.ErrPollNotActive,
		},
		{
			name:    "other group",
			profile: domain.RespondentProfile{ID: "s-2", Role: domain.RoleStudent, Group: domain.Attribute{Key: "EE-11"}},
			payload: json.RawMessage(`{}`),
			wantErr: domain.ErrNotEligible,
		},
		{
			name:    "teacher excluded from lesson feedback",
			mutate:  func(p *domain.Poll) { p.Targeting = domain.Targeting{} },
			profile: domain.RespondentProfile{ID: "t-2", Role: domain.RoleTeacher},
			payload: ratings(5, 5, 5, 5, 5),
			wantErr: domain.ErrNotEligible,
		},
		{
			name:    "duplicate beats validation",
			profile: student("s-1"),
			payload: json.RawMessage(`{}`),
			prior:   true,
			wantErr: domain.ErrDuplicateResponse,
		},
		{
			name:    "validation",
			profile: student("s-1"),
			payload: ratings(5, 5, 9, 5, 5),
			wantErr: domain.ErrOutOfRange,
		},
		{
			name:    "missing required",
			profile: student("s-1"),
			payload: ratings(5, 5, 5),
			wantErr: domain.ErrMissingRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRecorderFixture(t, nil, 0)
			poll := f.addPoll(t, tt.mutate)
			if tt.prior {
				_, err := f.store.Record(context.Background(), &domain.Response{
					ID: uuid.New(), PollID: poll.ID, RespondentID: tt.profile.ID, SubmittedAt: testNow,
				}, nil)
				require.NoError(t, err)
			}

			_, err := f.service.Submit(context.Background(), poll.ID, tt.profile, tt.payload)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSubmit_UnknownPoll(t *testing.T) {
	f := newRecorderFixture(t, nil, 0)
	_, err := f.service.Submit(context.Background(), uuid.New(), student("s-1"), ratings(5))
	assert.ErrorIs(t, err, domain.ErrPollNotFound)
}

func TestSubmit_ValidationErrorCarriesQuestion(t *testing.T) {
	f := newRecorderFixture(t, nil, 0)
	poll := f.addPoll(t, nil)

	_, err := f.service.Submit(context.Background(), poll.ID, student("s-1"), ratings(1, 5, 5, 5, 5))
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "clarity_reason", verr.QuestionID)
	assert.Equal(t, "missing_required", verr.Code())

	has, err := f.store.HasResponded(context.Background(), poll.ID, "s-1")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestSubmit_SecondCallIsDuplicate(t *testing.T) {
	_, client := setupTestRedis(t)
	f := newRecorderFixture(t, client, 0)
	poll := f.addPoll(t, nil)
	ctx := context.Background()

	_, err := f.service.Submit(ctx, poll.ID, student("s-1"), ratings(4, 4, 4, 4, 4))
	require.NoError(t, err)
	assert.True(t, f.cache.HasVoted(ctx, poll.ID.String(), "s-1"))

	_, err = f.service.Submit(ctx, poll.ID, student("s-1"), ratings(4, 4, 4, 4, 4))
	assert.ErrorIs(t, err, domain.ErrDuplicateResponse)
}

func TestSubmit_StaleCacheFallsBackToStore(t *testing.T) {
	mr, client := setupTestRedis(t)
	f := newRecorderFixture(t, client, 0)
	poll := f.addPoll(t, nil)
	ctx := context.Background()

	_, err := f.service.Submit(ctx, poll.ID, student("s-1"), ratings(4, 4, 4, 4, 4))
	require.NoError(t, err)
	mr.FlushAll()

	_, err = f.service.Submit(ctx, poll.ID, student("s-1"), ratings(4, 4, 4, 4, 4))
	assert.ErrorIs(t, err, domain.ErrDuplicateResponse)
	assert.True(t, f.cache.HasVoted(ctx, poll.ID.String(), "s-1"))
}

func TestSubmit_ConcurrentDuplicatesExactlyOneWins(t *testing.T) {
	f := newRecorderFixture(t, nil, 0)
	poll := f.addPoll(t, nil)

	const attempts = 32
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		dupes     atomic.Int32
		start     = make(chan struct{})
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.service.Submit(context.Background(), poll.ID, student("s-1"), ratings(5, 5, 5, 5, 5))
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, domain.ErrDuplicateResponse):
				dupes.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(attempts-1), dupes.Load())

	polls, err := f.store.ListWithResponses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, polls[0].TotalVotes)
	assert.NoError(t, polls[0].CheckCounters())

	g, err := f.store.GetGamification(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, 10, g.Points)
}

func TestSubmit_ConcurrentRespondentsKeepCounters(t *testing.T) {
	f := newRecorderFixture(t, nil, 0)
	poll := f.addPoll(t, nil)

	const respondents = 20
	var wg sync.WaitGroup
	for i := 0; i < respondents; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.service.Submit(context.Background(), poll.ID, student(fmt.Sprintf("s-%d", i)), ratings(3, 3, 3, 3, 3))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	polls, err := f.store.ListWithResponses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, respondents, polls[0].TotalVotes)
	assert.NoError(t, polls[0].CheckCounters())
}

func TestSubmit_RateLimited(t *testing.T) {
	_, client := setupTestRedis(t)
	f := newRecorderFixture(t, client, 2)
	f.service.limiter.now = func() time.Time { return testNow }
	ctx := context.Background()

	first := f.addPoll(t, nil)
	second := f.addPoll(t, nil)
	third := f.addPoll(t, nil)

	_, err := f.service.Submit(ctx, first.ID, student("s-1"), ratings(4, 4, 4, 4, 4))
	require.NoError(t, err)
	_, err = f.service.Submit(ctx, second.ID, student("s-1"), ratings(4, 4, 4, 4, 4))
	require.NoError(t, err)
	_, err = f.service.Submit(ctx, third.ID, student("s-1"), ratings(4, 4, 4, 4, 4))
	assert.ErrorIs(t, err, domain.ErrRateLimited)

	_, err = f.service.Submit(ctx, third.ID, student("s-2"), ratings(4, 4, 4, 4, 4))
	assert.NoError(t, err)
}

func TestSubmit_LegacyPositionalPayload(t *testing.T) {
	f := newRecorderFixture(t, nil, 0)
	poll := f.addPoll(t, func(p *domain.Poll) {
		p.Type = domain.PollTypeGeneral
		p.Questions = []domain.Question{
			{ID: "q1", Type: domain.QuestionRating, Required: true, Weight: 1},
			{ID: "q2", Type: domain.QuestionBinary},
		}
	})

	res, err := f.service.Submit(context.Background(), poll.ID, student("s-1"), json.RawMessage(`[5, "да"]`))
	require.NoError(t, err)
	assert.Equal(t, 100, *res.IKOP)
	v, ok := res.Response.Answers.Get("q2")
	require.True(t, ok)
	assert.True(t, v.Bool)
}

func TestGetMine(t *testing.T) {
	f := newRecorderFixture(t, nil, 0)
	poll := f.addPoll(t, nil)
	ctx := context.Background()

	_, err := f.service.GetMine(ctx, poll.ID, student("s-1"))
	assert.ErrorIs(t, err, domain.ErrResponseNotFound)

	_, err = f.service.Submit(ctx, poll.ID, student("s-1"), ratings(5, 5, 5, 5, 5))
	require.NoError(t, err)

	resp, err := f.service.GetMine(ctx, poll.ID, student("s-1"))
	require.NoError(t, err)
	assert.Equal(t, "s-1", resp.RespondentID)
	assert.Equal(t, 100, *resp.IKOP)

	_, err = f.service.GetMine(ctx, uuid.New(), student("s-1"))
	assert.ErrorIs(t, err, domain.ErrPollNotFound)
}
