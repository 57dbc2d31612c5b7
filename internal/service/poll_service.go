package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"feedback-be/internal/domain"
	"feedback-be/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultLessonPollWindow is how long a generated lesson poll stays open
const DefaultLessonPollWindow = 7 * 24 * time.Hour

// CreatePollRequest is an author's poll definition
type CreatePollRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Type        domain.PollType   `json:"type"`
	Questions   []domain.Question `json:"questions"`
	Targeting   domain.Targeting  `json:"targeting"`
	StartsAt    time.Time         `json:"starts_at"`
	EndsAt      time.Time         `json:"ends_at"`
	Status      domain.PollStatus `json:"status,omitempty"`
}

// CreateLessonPollRequest generates a lesson-feedback poll from a resolved lesson.
// Questions default to the lesson feedback template.
type CreateLessonPollRequest struct {
	Lesson    domain.LessonContext `json:"lesson"`
	Title     string               `json:"title,omitempty"`
	Questions []domain.Question    `json:"questions,omitempty"`
}

// PollService manages the poll catalog
type PollService struct {
	polls        repository.PollRepository
	cache        *CacheService
	logger       *zap.Logger
	lessonWindow time.Duration
	now          func() time.Time
}

// NewPollService creates a new poll service
func NewPollService(polls repository.PollRepository, cache *CacheService, lessonWindow time.Duration, logger *zap.Logger) *PollService {
	if lessonWindow <= 0 {
		lessonWindow = DefaultLessonPollWindow
	}
	return &PollService{
		polls:        polls,
		cache:        cache,
		logger:       logger,
		lessonWindow: lessonWindow,
		now:          time.Now,
	}
}

// ListEligible returns the polls the respondent may see. roleFilter narrows the
// role exclusions applied: admins may preview any role, other callers only their own.
func (s *PollService) ListEligible(ctx context.Context, profile domain.RespondentProfile, roleFilter domain.Role) ([]*domain.Poll, error) {
	if roleFilter != "" {
		if !roleFilter.Valid() {
			return nil, domain.ErrForbidden
		}
		if profile.Role != domain.RoleAdmin && roleFilter != profile.Role {
			return nil, domain.ErrForbidden
		}
	}

	polls, err := s.polls.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}

	out := make([]*domain.Poll, 0, len(polls))
	for _, poll := range polls {
		switch {
		case profile.Role == domain.RoleAdmin:
			if roleFilter != "" && roleFilter != domain.RoleAdmin &&
				(poll.Status == domain.StatusDraft || poll.Type.HiddenFrom(roleFilter)) {
				continue
			}
		case poll.Status == domain.StatusDraft:
			if poll.AuthorID != profile.ID {
				continue
			}
		case !CanSee(poll, profile):
			continue
		}
		out = append(out, poll)
	}
	return out, nil
}

// Get returns a single poll the caller may see
func (s *PollService) Get(ctx context.Context, id uuid.UUID, profile domain.RespondentProfile) (*domain.Poll, error) {
	poll, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if profile.Role == domain.RoleAdmin || poll.AuthorID == profile.ID {
		return poll, nil
	}
	if poll.Status == domain.StatusDraft {
		return nil, domain.ErrPollNotFound
	}
	if !CanSee(poll, profile) {
		return nil, domain.ErrNotEligible
	}
	return poll, nil
}

// Create stores a new poll authored by a teacher or admin
func (s *PollService) Create(ctx context.Context, profile domain.RespondentProfile, req CreatePollRequest) (*domain.Poll, error) {
	if !canAuthor(profile) {
		return nil, domain.ErrForbidden
	}

	status := req.Status
	if status == "" {
		status = domain.StatusDraft
	}
	if status != domain.StatusDraft && status != domain.StatusActive {
		return nil, domain.InvalidPoll("a new poll must be draft or active, got %q", status)
	}

	now := s.now().UTC()
	poll := &domain.Poll{
		ID:          uuid.New(),
		AuthorID:    profile.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Type:        req.Type,
		Questions:   req.Questions,
		Targeting:   req.Targeting,
		StartsAt:    req.StartsAt.UTC(),
		EndsAt:      req.EndsAt.UTC(),
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return s.store(ctx, poll)
}

// CreateFromLesson generates an active lesson-feedback poll targeted at the lesson's group
func (s *PollService) CreateFromLesson(ctx context.Context, profile domain.RespondentProfile, req CreateLessonPollRequest) (*domain.Poll, error) {
	if !canAuthor(profile) {
		return nil, domain.ErrForbidden
	}

	lesson := req.Lesson
	if profile.Role == domain.RoleTeacher {
		if lesson.TeacherID != "" && lesson.TeacherID != profile.ID {
			return nil, domain.ErrForbidden
		}
		lesson.TeacherID = profile.ID
	}
	if lesson.Subject == "" || lesson.Group == "" || lesson.Date.IsZero() {
		return nil, domain.InvalidPoll("lesson needs a subject, group and date")
	}
	lesson.Date = lesson.Date.UTC()

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = fmt.Sprintf("%s, %s: lesson feedback", lesson.Subject, lesson.Date.Format("2006-01-02"))
	}
	questions := req.Questions
	if len(questions) == 0 {
		questions = LessonFeedbackTemplate()
	}

	now := s.now().UTC()
	poll := &domain.Poll{
		ID:        uuid.New(),
		AuthorID:  profile.ID,
		Title:     title,
		Type:      domain.PollTypeLessonFeedback,
		Questions: questions,
		Targeting: domain.Targeting{Groups: []string{lesson.Group}},
		StartsAt:  lesson.Date,
		EndsAt:    lesson.Date.Add(s.lessonWindow),
		Status:    domain.StatusActive,
		Lesson:    &lesson,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return s.store(ctx, poll)
}

// UpdateStatus moves a poll forward in its lifecycle
func (s *PollService) UpdateStatus(ctx context.Context, id uuid.UUID, profile domain.RespondentProfile, to domain.PollStatus) (*domain.Poll, error) {
	poll, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(poll, profile) {
		return nil, domain.ErrForbidden
	}
	if !poll.Status.CanTransition(to) {
		return nil, fmt.Errorf("%w: %s to %s", domain.ErrInvalidStatusTransition, poll.Status, to)
	}

	now := s.now().UTC()
	if err := s.polls.UpdateStatus(ctx, id, poll.Status, to, now); err != nil {
		return nil, err
	}
	s.logger.Info("Poll status changed",
		zap.String("poll_id", id.String()),
		zap.String("from", string(poll.Status)),
		zap.String("to", string(to)))

	poll.Status = to
	poll.UpdatedAt = now
	s.cache.InvalidateReports()
	return poll, nil
}

// Delete soft-deletes a poll; its responses are kept
func (s *PollService) Delete(ctx context.Context, id uuid.UUID, profile domain.RespondentProfile) error {
	poll, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(poll, profile) {
		return domain.ErrForbidden
	}
	if err := s.polls.SoftDelete(ctx, id, s.now().UTC()); err != nil {
		return err
	}
	s.logger.Info("Poll deleted", zap.String("poll_id", id.String()), zap.String("by", profile.ID))
	s.cache.InvalidateReports()
	return nil
}

func (s *PollService) store(ctx context.Context, poll *domain.Poll) (*domain.Poll, error) {
	if err := poll.Validate(); err != nil {
		return nil, err
	}
	if err := s.polls.Create(ctx, poll); err != nil {
		return nil, fmt.Errorf("failed to create poll: %w", err)
	}
	s.logger.Info("Poll created",
		zap.String("poll_id", poll.ID.String()),
		zap.String("type", string(poll.Type)),
		zap.String("author_id", poll.AuthorID))
	return poll, nil
}

func (s *PollService) load(ctx context.Context, id uuid.UUID) (*domain.Poll, error) {
	poll, err := s.polls.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if poll.DeletedAt != nil {
		return nil, domain.ErrPollNotFound
	}
	return poll, nil
}

func canAuthor(profile domain.RespondentProfile) bool {
	return profile.Role == domain.RoleTeacher || profile.Role == domain.RoleAdmin
}

func canManage(poll *domain.Poll, profile domain.RespondentProfile) bool {
	return profile.Role == domain.RoleAdmin || (profile.Role == domain.RoleTeacher && poll.AuthorID == profile.ID)
}
