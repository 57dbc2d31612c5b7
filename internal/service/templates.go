package service

import (
	"feedback-be/internal/domain"
	"feedback-be/internal/validation"
)

// LessonFeedbackTemplate is the default question set for polls generated from
// a lesson. Its five weighted ratings feed the IKOP score.
func LessonFeedbackTemplate() []domain.Question {
	lowRating := func(id string) *domain.FollowUp {
		return &domain.FollowUp{
			When: []string{"1", "2"},
			Question: domain.Question{
				ID:        id + "_reason",
				Text:      "What went wrong?",
				Type:      domain.QuestionFreeText,
				Required:  true,
				MaxLength: 1000,
			},
		}
	}

	return []domain.Question{
		{ID: "clarity", Text: "How clear was the material?", Type: domain.QuestionRating, Required: true, Weight: 0.25, FollowUp: lowRating("clarity")},
		{ID: "engagement", Text: "How engaging was the lesson?", Type: domain.QuestionRating, Required: true, Weight: 0.25},
		{ID: "pace", Text: "How comfortable was the pace?", Type: domain.QuestionRating, Required: true, Weight: 0.20},
		{ID: "usefulness", Text: "How useful was the lesson for you?", Type: domain.QuestionRating, Required: true, Weight: 0.15},
		{ID: "organization", Text: "How well was the lesson organized?", Type: domain.QuestionRating, Required: true, Weight: 0.15, FollowUp: lowRating("organization")},
		{
			ID:         "formats",
			Text:       "Which formats helped you most?",
			Type:       domain.QuestionMultipleChoice,
			Options:    []string{"slides", "board", "live coding", "discussion", "practice"},
			AllowOther: true,
		},
		{ID: "comment", Text: "Anything else?", Type: domain.QuestionFreeText},
		{
			ID:      validation.GradeAdjustmentQuestionID,
			Text:    "Should the grading for this lesson change?",
			Type:    domain.QuestionSingleChoice,
			Options: []string{"keep", "raise", validation.GradeAdjustmentLower},
		},
		{ID: validation.GradeAdjustmentReasonID, Text: "Why?", Type: domain.QuestionFreeText},
	}
}
