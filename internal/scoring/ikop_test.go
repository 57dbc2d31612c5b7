package scoring

import (
	"testing"

	"feedback-be/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weightedQuestions() []domain.Question {
	weights := []float64{.25, .25, .20, .15, .15}
	questions := make([]domain.Question, len(weights))
	for i, w := range weights {
		questions[i] = domain.Question{
			ID:     string(rune('a' + i)),
			Type:   domain.QuestionRating,
			Weight: w,
		}
	}
	return questions
}

func ratings(questions []domain.Question, values ...float64) domain.Answers {
	answers := make(domain.Answers, 0, len(values))
	for i, v := range values {
		answers = append(answers, domain.Answer{QuestionID: questions[i].ID, Value: domain.NumberValue(v)})
	}
	return answers
}

func TestScore(t *testing.T) {
	questions := weightedQuestions()

	tests := []struct {
		name     string
		answers  domain.Answers
		expected *int
	}{
		{name: "all fives", answers: ratings(questions, 5, 5, 5, 5, 5), expected: intPtr(100)},
		{name: "all ones", answers: ratings(questions, 1, 1, 1, 1, 1), expected: intPtr(0)},
		{name: "descending ratings round half up", answers: ratings(questions, 5, 4, 3, 2, 1), expected: intPtr(58)},
		{name: "weights renormalized over answered questions", answers: ratings(questions, 5, 1), expected: intPtr(50)},
		{name: "nothing answered", answers: nil, expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Score(tt.answers, questions))
		})
	}
}

func TestScore_IgnoresUnscoredQuestions(t *testing.T) {
	questions := []domain.Question{
		{ID: "unweighted", Type: domain.QuestionRating},
		{ID: "text", Type: domain.QuestionFreeText, Weight: 1},
		{ID: "scored", Type: domain.QuestionRating, Scale: 10, Weight: 2},
	}
	answers := domain.Answers{
		{QuestionID: "unweighted", Value: domain.NumberValue(1)},
		{QuestionID: "text", Value: domain.StringValue("5")},
		{QuestionID: "scored", Value: domain.NumberValue(10)},
	}

	got := Score(answers, questions)
	require.NotNil(t, got)
	assert.Equal(t, 100, *got)

	assert.Nil(t, Score(answers[:2], questions))
}

func TestScore_FollowUpRatingsCount(t *testing.T) {
	questions := []domain.Question{{
		ID: "parent", Type: domain.QuestionBinary,
		FollowUp: &domain.FollowUp{
			When:     []string{"false"},
			Question: domain.Question{ID: "child", Type: domain.QuestionRating, Weight: 1},
		},
	}}
	answers := domain.Answers{
		{QuestionID: "parent", Value: domain.BoolValue(false)},
		{QuestionID: "child", Value: domain.NumberValue(3)},
	}

	got := Score(answers, questions)
	require.NotNil(t, got)
	assert.Equal(t, 50, *got)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 58, Round(57.5))
	assert.Equal(t, 58, Round(57.49999999999999))
	assert.Equal(t, 57, Round(57.4))
	assert.Equal(t, 0, Round(-3))
	assert.Equal(t, 100, Round(100.4))
}

func TestZone(t *testing.T) {
	tests := []struct {
		score    int
		expected string
	}{
		{0, ZoneCritical},
		{39, ZoneCritical},
		{40, ZoneAttention},
		{59, ZoneAttention},
		{60, ZoneSatisfactory},
		{79, ZoneSatisfactory},
		{80, ZoneExcellent},
		{100, ZoneExcellent},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Zone(tt.score), "score %d", tt.score)
	}
	assert.Empty(t, ZoneOf(nil))
}

func intPtr(v int) *int { return &v }
