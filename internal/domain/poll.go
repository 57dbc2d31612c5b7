package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PollStatus is the lifecycle state of a poll
type PollStatus string

const (
	StatusDraft     PollStatus = "draft"
	StatusActive    PollStatus = "active"
	StatusCompleted PollStatus = "completed"
)

// PollType drives role exclusions and poll-specific validation rules
type PollType string

const (
	PollTypeLessonFeedback PollType = "lesson_feedback"
	PollTypeTeacherSurvey  PollType = "teacher_survey"
	PollTypeGeneral        PollType = "general"
)

// Valid reports whether t is a known poll type
func (t PollType) Valid() bool {
	return t == PollTypeLessonFeedback || t == PollTypeTeacherSurvey || t == PollTypeGeneral
}

// HiddenFrom reports whether polls of this type are excluded for the role
func (t PollType) HiddenFrom(role Role) bool {
	switch t {
	case PollTypeTeacherSurvey:
		return role == RoleStudent
	case PollTypeLessonFeedback:
		return role == RoleTeacher
	}
	return false
}

// Targeting restricts a poll's audience. An empty slice leaves that dimension
// unconstrained; all empty means the poll is public.
type Targeting struct {
	Groups    []string `json:"groups,omitempty"`
	Faculties []string `json:"faculties,omitempty"`
	Programs  []string `json:"programs,omitempty"`
	Courses   []int    `json:"courses,omitempty"`
}

// IsPublic reports whether no dimension is constrained
func (t Targeting) IsPublic() bool {
	return len(t.Groups) == 0 && len(t.Faculties) == 0 && len(t.Programs) == 0 && len(t.Courses) == 0
}

// LessonContext is the resolved timetable slot a lesson poll was generated from
type LessonContext struct {
	Subject     string    `json:"subject"`
	TeacherID   string    `json:"teacher_id"`
	TeacherName string    `json:"teacher_name"`
	Date        time.Time `json:"date"`
	Group       string    `json:"group"`
}

// Poll is a feedback poll with its embedded responses
type Poll struct {
	ID          uuid.UUID      `json:"id"`
	AuthorID    string         `json:"author_id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Type        PollType       `json:"type"`
	Questions   []Question     `json:"questions"`
	Targeting   Targeting      `json:"targeting"`
	StartsAt    time.Time      `json:"starts_at"`
	EndsAt      time.Time      `json:"ends_at"`
	Status      PollStatus     `json:"status"`
	Lesson      *LessonContext `json:"lesson,omitempty"`

	// Derived indexes maintained alongside Responses:
	// TotalVotes == len(Responses) and VotedUsers holds exactly their respondent ids.
	TotalVotes int             `json:"total_votes"`
	VotedUsers map[string]bool `json:"-"`
	Responses  []Response      `json:"-"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// IsActiveAt reports whether the poll accepts responses at t: status is active
// and t falls within [StartsAt, EndsAt).
func (p *Poll) IsActiveAt(t time.Time) bool {
	if p.DeletedAt != nil || p.Status != StatusActive {
		return false
	}
	return !t.Before(p.StartsAt) && t.Before(p.EndsAt)
}

// ScoreEligible reports whether any question (or follow-up) feeds the IKOP scorer
func (p *Poll) ScoreEligible() bool {
	for _, q := range Flatten(p.Questions) {
		if q.IsScored() {
			return true
		}
	}
	return false
}

// CheckCounters verifies the derived indexes against the embedded responses
func (p *Poll) CheckCounters() error {
	if p.TotalVotes != len(p.Responses) {
		return fmt.Errorf("poll %s: total_votes %d != %d responses", p.ID, p.TotalVotes, len(p.Responses))
	}
	if len(p.VotedUsers) != len(p.Responses) {
		return fmt.Errorf("poll %s: %d voted users != %d responses", p.ID, len(p.VotedUsers), len(p.Responses))
	}
	for _, r := range p.Responses {
		if !p.VotedUsers[r.RespondentID] {
			return fmt.Errorf("poll %s: respondent %s missing from voted users", p.ID, r.RespondentID)
		}
	}
	return nil
}

// Validate checks the poll definition before it is stored
func (p *Poll) Validate() error {
	if p.Title == "" {
		return InvalidPoll("title is required")
	}
	if !p.Type.Valid() {
		return InvalidPoll("unknown poll type %q", p.Type)
	}
	if !p.EndsAt.After(p.StartsAt) {
		return InvalidPoll("poll must end after it starts")
	}
	return ValidateQuestions(p.Questions)
}

// CanTransition reports whether the status change is allowed. Status only moves forward.
func (s PollStatus) CanTransition(to PollStatus) bool {
	switch s {
	case StatusDraft:
		return to == StatusActive || to == StatusCompleted
	case StatusActive:
		return to == StatusCompleted
	}
	return false
}
