package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"feedback-be/internal/domain"
	"github.com/google/uuid"
)

type responseKey struct {
	pollID       uuid.UUID
	respondentID string
}

type responseSlot struct {
	poll  *domain.Poll
	index int
}

// MemoryStore keeps polls in an arena with their responses embedded and a
// unique secondary index on (poll, respondent). It backs the service when no
// database is configured and in tests.
type MemoryStore struct {
	mu           sync.RWMutex
	polls        map[uuid.UUID]*domain.Poll
	responses    map[responseKey]responseSlot
	gamification map[string]*domain.Gamification
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		polls:        make(map[uuid.UUID]*domain.Poll),
		responses:    make(map[responseKey]responseSlot),
		gamification: make(map[string]*domain.Gamification),
	}
}

// Repositories exposes the store through the repository interfaces
func (s *MemoryStore) Repositories() *Repositories {
	return &Repositories{
		Polls:       s,
		Responses:   s,
		Respondents: s,
		Health:      func(context.Context) error { return nil },
	}
}

// Create stores a new poll
func (s *MemoryStore) Create(_ context.Context, poll *domain.Poll) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.polls[poll.ID]; exists {
		return domain.InvalidPoll("poll %s already exists", poll.ID)
	}
	stored := clonePoll(poll, false)
	stored.TotalVotes = 0
	stored.VotedUsers = make(map[string]bool)
	stored.Responses = nil
	s.polls[poll.ID] = stored
	return nil
}

// GetByID retrieves a poll without its responses
func (s *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	poll, ok := s.polls[id]
	if !ok {
		return nil, domain.ErrPollNotFound
	}
	return clonePoll(poll, false), nil
}

// List retrieves non-deleted polls, newest first
func (s *MemoryStore) List(_ context.Context) ([]*domain.Poll, error) {
	return s.list(false), nil
}

// ListWithResponses retrieves non-deleted polls with responses embedded
func (s *MemoryStore) ListWithResponses(_ context.Context) ([]*domain.Poll, error) {
	return s.list(true), nil
}

func (s *MemoryStore) list(withResponses bool) []*domain.Poll {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Poll, 0, len(s.polls))
	for _, poll := range s.polls {
		if poll.DeletedAt != nil {
			continue
		}
		out = append(out, clonePoll(poll, withResponses))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// UpdateStatus moves a poll between statuses
func (s *MemoryStore) UpdateStatus(_ context.Context, id uuid.UUID, from, to domain.PollStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	poll, ok := s.polls[id]
	if !ok || poll.DeletedAt != nil {
		return domain.ErrPollNotFound
	}
	if poll.Status != from {
		return domain.ErrInvalidStatusTransition
	}
	poll.Status = to
	poll.UpdatedAt = at
	return nil
}

// SoftDelete marks a poll as deleted
func (s *MemoryStore) SoftDelete(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	poll, ok := s.polls[id]
	if !ok || poll.DeletedAt != nil {
		return domain.ErrPollNotFound
	}
	deletedAt := at
	poll.DeletedAt = &deletedAt
	poll.UpdatedAt = at
	return nil
}

// HasResponded checks the (poll, respondent) index
func (s *MemoryStore) HasResponded(_ context.Context, pollID uuid.UUID, respondentID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.responses[responseKey{pollID, respondentID}]
	return ok, nil
}

// Record appends the response and applies its side effects under one lock
func (s *MemoryStore) Record(_ context.Context, resp *domain.Response, credit *domain.PointsCredit) (*domain.Gamification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	poll, ok := s.polls[resp.PollID]
	if !ok || poll.DeletedAt != nil {
		return nil, domain.ErrPollNotFound
	}
	key := responseKey{resp.PollID, resp.RespondentID}
	if _, exists := s.responses[key]; exists {
		return nil, domain.ErrStorageConflict
	}

	poll.Responses = append(poll.Responses, *resp)
	s.responses[key] = responseSlot{poll: poll, index: len(poll.Responses) - 1}
	poll.TotalVotes++
	if poll.VotedUsers == nil {
		poll.VotedUsers = make(map[string]bool)
	}
	poll.VotedUsers[resp.RespondentID] = true

	if credit == nil || !credit.Role.Gamified() {
		return nil, nil
	}
	g, ok := s.gamification[resp.RespondentID]
	if !ok {
		g = &domain.Gamification{Level: 1}
		s.gamification[resp.RespondentID] = g
	}
	g.Points += credit.Points
	if credit.LevelFor != nil {
		if level := credit.LevelFor(g.Points); level > g.Level {
			g.Level = level
		}
	}
	result := *g
	return &result, nil
}

// GetByRespondent retrieves a respondent's response on a poll
func (s *MemoryStore) GetByRespondent(_ context.Context, pollID uuid.UUID, respondentID string) (*domain.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slot, ok := s.responses[responseKey{pollID, respondentID}]
	if !ok {
		return nil, domain.ErrResponseNotFound
	}
	resp := slot.poll.Responses[slot.index]
	return &resp, nil
}

// GetGamification returns the respondent's gamification state
func (s *MemoryStore) GetGamification(_ context.Context, respondentID string) (*domain.Gamification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.gamification[respondentID]
	if !ok {
		return nil, nil
	}
	result := *g
	return &result, nil
}

// clonePoll copies a poll so callers never share mutable state with the arena.
// Responses are immutable once stored, so the response values are copied shallowly.
func clonePoll(p *domain.Poll, withResponses bool) *domain.Poll {
	c := *p
	c.Questions = append([]domain.Question(nil), p.Questions...)
	c.VotedUsers = make(map[string]bool, len(p.VotedUsers))
	for id := range p.VotedUsers {
		c.VotedUsers[id] = true
	}
	if p.Lesson != nil {
		lesson := *p.Lesson
		c.Lesson = &lesson
	}
	if p.DeletedAt != nil {
		deletedAt := *p.DeletedAt
		c.DeletedAt = &deletedAt
	}
	c.Responses = nil
	if withResponses {
		c.Responses = append([]domain.Response(nil), p.Responses...)
	}
	return &c
}
