package domain

import "strings"

// QuestionType enumerates the supported answer shapes
type QuestionType string

const (
	QuestionRating         QuestionType = "rating"
	QuestionSingleChoice   QuestionType = "single_choice"
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionBinary         QuestionType = "binary"
	QuestionFreeText       QuestionType = "free_text"
)

const (
	// DefaultRatingScale is used when a rating question does not set Scale
	DefaultRatingScale = 5

	// DefaultMaxTextLength is used when a free-text question does not set MaxLength
	DefaultMaxTextLength = 2000

	// OtherOptionPrefix marks a free "other" entry in a multiple-choice answer
	OtherOptionPrefix = "other:"
)

// Question is a single poll question definition
type Question struct {
	ID         string       `json:"id"`
	Text       string       `json:"text"`
	Type       QuestionType `json:"type"`
	Required   bool         `json:"required"`
	Scale      int          `json:"scale,omitempty"`
	Options    []string     `json:"options,omitempty"`
	AllowOther bool         `json:"allow_other,omitempty"`
	MaxLength  int          `json:"max_length,omitempty"`
	Weight     float64      `json:"weight,omitempty"`
	FollowUp   *FollowUp    `json:"follow_up,omitempty"`
}

// FollowUp is a nested question asked when the parent answer matches When.
// Matching compares the canonical string form of the parent's normalized
// answer (see AnswerValue.Canonical); for multiple choice any selected entry matches.
type FollowUp struct {
	When     []string `json:"when"`
	Question Question `json:"question"`
}

// RatingScale returns the effective scale size
func (q *Question) RatingScale() int {
	if q.Scale <= 0 {
		return DefaultRatingScale
	}
	return q.Scale
}

// TextLimit returns the effective maximum text length in characters
func (q *Question) TextLimit() int {
	if q.MaxLength <= 0 {
		return DefaultMaxTextLength
	}
	return q.MaxLength
}

// IsScored reports whether the question feeds the IKOP scorer
func (q *Question) IsScored() bool {
	return q.Type == QuestionRating && q.Weight > 0
}

// HasOption reports whether value is one of the declared options (exact match)
func (q *Question) HasOption(value string) bool {
	for _, opt := range q.Options {
		if opt == value {
			return true
		}
	}
	return false
}

// Triggers reports whether the follow-up fires for the given parent answer
func (f *FollowUp) Triggers(parent AnswerValue) bool {
	if f == nil {
		return false
	}
	if parent.Kind == AnswerStrings {
		for _, choice := range parent.Strings {
			if containsString(f.When, choice) {
				return true
			}
		}
		return false
	}
	return containsString(f.When, parent.Canonical())
}

// Flatten returns top-level questions followed by their follow-ups, in order
func Flatten(questions []Question) []Question {
	out := make([]Question, 0, len(questions))
	for _, q := range questions {
		out = append(out, q)
		if q.FollowUp != nil {
			out = append(out, q.FollowUp.Question)
		}
	}
	return out
}

// ValidateQuestions checks a poll's question set for structural problems
func ValidateQuestions(questions []Question) error {
	if len(questions) == 0 {
		return InvalidPoll("poll has no questions")
	}

	seen := make(map[string]bool)
	for _, q := range questions {
		if err := validateQuestion(q, seen); err != nil {
			return err
		}
		if q.FollowUp == nil {
			continue
		}
		if len(q.FollowUp.When) == 0 {
			return InvalidPoll("follow-up of %q has no trigger values", q.ID)
		}
		if q.FollowUp.Question.FollowUp != nil {
			return InvalidPoll("follow-up of %q is nested more than one level", q.ID)
		}
		if err := validateQuestion(q.FollowUp.Question, seen); err != nil {
			return err
		}
	}
	return nil
}

func validateQuestion(q Question, seen map[string]bool) error {
	id := strings.TrimSpace(q.ID)
	if id == "" {
		return InvalidPoll("question id is required")
	}
	if seen[id] {
		return InvalidPoll("duplicate question id %q", id)
	}
	seen[id] = true

	if q.Weight < 0 {
		return InvalidPoll("question %q has a negative weight", id)
	}

	switch q.Type {
	case QuestionRating:
		if q.Scale != 0 && q.Scale < 2 {
			return InvalidPoll("rating question %q needs a scale of at least 2", id)
		}
	case QuestionSingleChoice, QuestionMultipleChoice:
		if len(q.Options) == 0 && !q.AllowOther {
			return InvalidPoll("choice question %q has no options", id)
		}
	case QuestionBinary, QuestionFreeText:
	default:
		return InvalidPoll("question %q has unknown type %q", id, q.Type)
	}
	return nil
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
