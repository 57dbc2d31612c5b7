package service

import (
	"strings"
	"testing"

	"feedback-be/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGamificationPolicy_Level(t *testing.T) {
	p := DefaultGamificationPolicy()
	tests := []struct {
		total int
		want  int
	}{
		{0, 1}, {99, 1}, {100, 2}, {249, 2}, {250, 3}, {500, 4}, {999, 4}, {1000, 5}, {2000, 6}, {50000, 6},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Level(tt.total), "total %d", tt.total)
	}

	prev := 0
	for total := 0; total <= 2500; total += 5 {
		level := p.Level(total)
		assert.GreaterOrEqual(t, level, prev)
		prev = level
	}
}

func TestGamificationPolicy_Credit(t *testing.T) {
	p := DefaultGamificationPolicy()
	questions := LessonFeedbackTemplate()

	short := domain.Answers{{QuestionID: "comment", Value: domain.StringValue("ok")}}
	long := domain.Answers{{QuestionID: "comment", Value: domain.StringValue(strings.Repeat("ы", 50))}}
	reason := domain.Answers{{QuestionID: "clarity_reason", Value: domain.StringValue(strings.Repeat("x", 60))}}

	credit := p.Credit(domain.RoleStudent, questions, short)
	require.NotNil(t, credit)
	assert.Equal(t, 10, credit.Points)
	assert.Equal(t, 3, credit.LevelFor(300))

	assert.Equal(t, 15, p.Credit(domain.RoleStudent, questions, long).Points)
	assert.Equal(t, 15, p.Credit(domain.RoleStudent, questions, reason).Points)

	assert.Nil(t, p.Credit(domain.RoleTeacher, questions, long))
	assert.Nil(t, p.Credit(domain.RoleAdmin, questions, long))
}
