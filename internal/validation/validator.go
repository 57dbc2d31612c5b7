// Package validation normalizes submitted answers against a poll's questions.
package validation

import (
	"feedback-be/internal/domain"
)

// Question ids of the grade-adjustment block in lesson feedback polls
const (
	GradeAdjustmentQuestionID = "grade_adjustment"
	GradeAdjustmentReasonID   = "grade_adjustment_reason"
	GradeAdjustmentLower      = "lower"
)

// Validate normalizes raw answers for the whole poll and returns them in
// question order, or the first failure encountered.
//
// Answers for unknown question ids and for follow-ups whose trigger did not
// fire are dropped.
func Validate(poll *domain.Poll, raw map[string]interface{}) (domain.Answers, error) {
	normalized := make(map[string]domain.AnswerValue, len(raw))

	for _, q := range poll.Questions {
		value, present, err := ValidateAnswer(q, raw[q.ID])
		if err != nil {
			return nil, err
		}
		if present {
			normalized[q.ID] = value
		}
	}

	for _, q := range poll.Questions {
		if err := checkRequired(q, normalized); err != nil {
			return nil, err
		}
	}

	for _, q := range poll.Questions {
		if q.FollowUp == nil {
			continue
		}
		parent, ok := normalized[q.ID]
		if !ok || !q.FollowUp.Triggers(parent) {
			continue
		}

		follow := q.FollowUp.Question
		value, present, err := ValidateAnswer(follow, raw[follow.ID])
		if err != nil {
			return nil, err
		}
		if present {
			normalized[follow.ID] = value
		}
		if err := checkRequired(follow, normalized); err != nil {
			return nil, err
		}
	}

	if rule, ok := pollTypeRules[poll.Type]; ok {
		if err := rule(poll, normalized); err != nil {
			return nil, err
		}
	}

	answers := make(domain.Answers, 0, len(normalized))
	for _, q := range domain.Flatten(poll.Questions) {
		if value, ok := normalized[q.ID]; ok {
			answers = append(answers, domain.Answer{QuestionID: q.ID, Value: value})
		}
	}
	return answers, nil
}

func checkRequired(q domain.Question, normalized map[string]domain.AnswerValue) error {
	if !q.Required {
		return nil
	}
	value, ok := normalized[q.ID]
	if !ok || (value.Kind == domain.AnswerStrings && len(value.Strings) == 0) {
		return domain.NewValidationError(domain.ErrMissingRequired, q.ID, "")
	}
	return nil
}

// pollTypeRules holds cross-field rules that only apply to one poll type.
var pollTypeRules = map[domain.PollType]func(*domain.Poll, map[string]domain.AnswerValue) error{
	domain.PollTypeLessonFeedback: requireLowerGradeReason,
}

// requireLowerGradeReason makes the justification mandatory when a student
// asks for the grade to be lowered, even though the reason question is optional.
func requireLowerGradeReason(poll *domain.Poll, normalized map[string]domain.AnswerValue) error {
	choice, ok := normalized[GradeAdjustmentQuestionID]
	if !ok || choice.Kind != domain.AnswerString || choice.String != GradeAdjustmentLower {
		return nil
	}
	if !hasQuestion(poll, GradeAdjustmentReasonID) {
		return nil
	}
	if _, ok := normalized[GradeAdjustmentReasonID]; !ok {
		return domain.NewValidationError(domain.ErrMissingRequired, GradeAdjustmentReasonID,
			"a reason is required when asking to lower the grade")
	}
	return nil
}

func hasQuestion(poll *domain.Poll, id string) bool {
	for _, q := range domain.Flatten(poll.Questions) {
		if q.ID == id {
			return true
		}
	}
	return false
}
