package service

import (
	"context"
	"testing"
	"time"

	"feedback-be/internal/domain"
	"feedback-be/internal/repository"
	"feedback-be/internal/validation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	adminProfile   = domain.RespondentProfile{ID: "a-1", Role: domain.RoleAdmin}
	teacherProfile = domain.RespondentProfile{ID: "t-1", Role: domain.RoleTeacher}
)

func newPollService(t *testing.T) (*PollService, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	cache := NewCacheService(nil, 0, zap.NewNop())
	svc := NewPollService(store, cache, 0, zap.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc, store
}

func generalPollRequest() CreatePollRequest {
	return CreatePollRequest{
		Title:     "Campus survey",
		Type:      domain.PollTypeGeneral,
		Questions: []domain.Question{{ID: "q1", Type: domain.QuestionBinary, Required: true}},
		StartsAt:  testNow.Add(-time.Hour),
		EndsAt:    testNow.Add(time.Hour),
		Status:    domain.StatusActive,
	}
}

func TestPollService_Create(t *testing.T) {
	svc, _ := newPollService(t)
	ctx := context.Background()

	poll, err := svc.Create(ctx, teacherProfile, generalPollRequest())
	require.NoError(t, err)
	assert.Equal(t, "t-1", poll.AuthorID)
	assert.Equal(t, domain.StatusActive, poll.Status)

	req := generalPollRequest()
	req.Status = ""
	poll, err = svc.Create(ctx, adminProfile, req)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, poll.Status)

	_, err = svc.Create(ctx, student("s-1"), generalPollRequest())
	assert.ErrorIs(t, err, domain.ErrForbidden)

	req = generalPollRequest()
	req.Status = domain.StatusCompleted
	_, err = svc.Create(ctx, adminProfile, req)
	assert.ErrorIs(t, err, domain.ErrInvalidPoll)

	req = generalPollRequest()
	req.Questions = append(req.Questions, domain.Question{ID: "q1", Type: domain.QuestionFreeText})
	_, err = svc.Create(ctx, adminProfile, req)
	assert.ErrorIs(t, err, domain.ErrInvalidPoll)
}

func TestPollService_CreateFromLesson(t *testing.T) {
	svc, _ := newPollService(t)
	ctx := context.Background()
	lessonDate := testNow.Add(-2 * time.Hour)

	poll, err := svc.CreateFromLesson(ctx, teacherProfile, CreateLessonPollRequest{
		Lesson: domain.LessonContext{Subject: "Databases", Date: lessonDate, Group: "CS-21"},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.PollTypeLessonFeedback, poll.Type)
	assert.Equal(t, domain.StatusActive, poll.Status)
	assert.Equal(t, []string{"CS-21"}, poll.Targeting.Groups)
	assert.Equal(t, "t-1", poll.Lesson.TeacherID)
	assert.Equal(t, lessonDate, poll.StartsAt)
	assert.Equal(t, lessonDate.Add(DefaultLessonPollWindow), poll.EndsAt)
	assert.True(t, poll.ScoreEligible())
	assert.True(t, poll.IsActiveAt(testNow))
	assert.Contains(t, poll.Title, "Databases")

	var weight float64
	for _, q := range poll.Questions {
		weight += q.Weight
	}
	assert.InDelta(t, 1.0, weight, 1e-9)

	_, err = svc.CreateFromLesson(ctx, teacherProfile, CreateLessonPollRequest{
		Lesson: domain.LessonContext{Subject: "Databases", Date: lessonDate, Group: "CS-21", TeacherID: "t-2"},
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.CreateFromLesson(ctx, teacherProfile, CreateLessonPollRequest{
		Lesson: domain.LessonContext{Subject: "Databases", Date: lessonDate},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPoll)
}

func TestLessonFeedbackTemplate_IsValid(t *testing.T) {
	questions := LessonFeedbackTemplate()
	require.NoError(t, domain.ValidateQuestions(questions))

	poll := &domain.Poll{Type: domain.PollTypeLessonFeedback, Questions: questions}
	_, err := validation.Validate(poll, map[string]interface{}{
		"clarity": 4, "engagement": 4, "pace": 4, "usefulness": 4, "organization": 4,
		validation.GradeAdjustmentQuestionID: validation.GradeAdjustmentLower,
	})
	assert.ErrorIs(t, err, domain.ErrMissingRequired)
}

func TestPollService_ListEligible(t *testing.T) {
	svc, store := newPollService(t)
	ctx := context.Background()

	add := func(title string, typ domain.PollType, status domain.PollStatus, targeting domain.Targeting) {
		require.NoError(t, store.Create(ctx, &domain.Poll{
			ID:        uuid.New(),
			AuthorID:  "t-1",
			Title:     title,
			Type:      typ,
			Status:    status,
			Targeting: targeting,
			StartsAt:  testNow,
			EndsAt:    testNow.Add(time.Hour),
			CreatedAt: testNow,
			Questions: []domain.Question{{ID: "q", Type: domain.QuestionBinary}},
		}))
	}
	add("public", domain.PollTypeGeneral, domain.StatusActive, domain.Targeting{})
	add("my group", domain.PollTypeLessonFeedback, domain.StatusActive, domain.Targeting{Groups: []string{"CS-21"}})
	add("other group", domain.PollTypeLessonFeedback, domain.StatusActive, domain.Targeting{Groups: []string{"EE-11"}})
	add("staff", domain.PollTypeTeacherSurvey, domain.StatusActive, domain.Targeting{})
	add("draft", domain.PollTypeGeneral, domain.StatusDraft, domain.Targeting{})
	add("closed", domain.PollTypeGeneral, domain.StatusCompleted, domain.Targeting{Courses: []int{2}})

	titles := func(polls []*domain.Poll) []string {
		out := make([]string, 0, len(polls))
		for _, p := range polls {
			out = append(out, p.Title)
		}
		return out
	}

	tests := []struct {
		name       string
		profile    domain.RespondentProfile
		roleFilter domain.Role
		want       []string
		wantErr    error
	}{
		{
			name:    "student",
			profile: student("s-1"),
			want:    []string{"public", "my group", "closed"},
		},
		{
			name:    "author sees own draft",
			profile: teacherProfile,
			want:    []string{"public", "staff", "draft"},
		},
		{
			name:    "other teacher",
			profile: domain.RespondentProfile{ID: "t-2", Role: domain.RoleTeacher},
			want:    []string{"public", "staff"},
		},
		{
			name:    "admin",
			profile: adminProfile,
			want:    []string{"public", "my group", "other group", "staff", "draft", "closed"},
		},
		{
			name:       "admin previews students",
			profile:    adminProfile,
			roleFilter: domain.RoleStudent,
			want:       []string{"public", "my group", "other group", "closed"},
		},
		{
			name:       "student asking for teacher view",
			profile:    student("s-1"),
			roleFilter: domain.RoleTeacher,
			wantErr:    domain.ErrForbidden,
		},
		{
			name:       "own role filter",
			profile:    student("s-1"),
			roleFilter: domain.RoleStudent,
			want:       []string{"public", "my group", "closed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			polls, err := svc.ListEligible(ctx, tt.profile, tt.roleFilter)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, titles(polls))
		})
	}
}

func TestPollService_Get(t *testing.T) {
	svc, _ := newPollService(t)
	ctx := context.Background()

	req := generalPollRequest()
	req.Targeting = domain.Targeting{Groups: []string{"EE-11"}}
	targeted, err := svc.Create(ctx, teacherProfile, req)
	require.NoError(t, err)

	req = generalPollRequest()
	req.Status = domain.StatusDraft
	draft, err := svc.Create(ctx, teacherProfile, req)
	require.NoError(t, err)

	_, err = svc.Get(ctx, targeted.ID, student("s-1"))
	assert.ErrorIs(t, err, domain.ErrNotEligible)

	_, err = svc.Get(ctx, draft.ID, student("s-1"))
	assert.ErrorIs(t, err, domain.ErrPollNotFound)

	got, err := svc.Get(ctx, draft.ID, teacherProfile)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, got.ID)

	_, err = svc.Get(ctx, targeted.ID, adminProfile)
	assert.NoError(t, err)

	_, err = svc.Get(ctx, uuid.New(), adminProfile)
	assert.ErrorIs(t, err, domain.ErrPollNotFound)
}

func TestPollService_UpdateStatus(t *testing.T) {
	svc, _ := newPollService(t)
	ctx := context.Background()

	req := generalPollRequest()
	req.Status = domain.StatusDraft
	poll, err := svc.Create(ctx, teacherProfile, req)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, poll.ID, domain.RespondentProfile{ID: "t-2", Role: domain.RoleTeacher}, domain.StatusActive)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	updated, err := svc.UpdateStatus(ctx, poll.ID, teacherProfile, domain.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, updated.Status)

	_, err = svc.UpdateStatus(ctx, poll.ID, adminProfile, domain.StatusDraft)
	assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)

	updated, err = svc.UpdateStatus(ctx, poll.ID, adminProfile, domain.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, updated.Status)

	_, err = svc.UpdateStatus(ctx, poll.ID, adminProfile, domain.StatusActive)
	assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)
}

func TestPollService_Delete(t *testing.T) {
	svc, store := newPollService(t)
	ctx := context.Background()

	poll, err := svc.Create(ctx, teacherProfile, generalPollRequest())
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, poll.ID, student("s-1")), domain.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, poll.ID, teacherProfile))

	_, err = svc.Get(ctx, poll.ID, adminProfile)
	assert.ErrorIs(t, err, domain.ErrPollNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, poll.ID, adminProfile), domain.ErrPollNotFound)

	polls, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, polls)
}
