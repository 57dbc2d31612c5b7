package service

import (
	"unicode/utf8"

	"feedback-be/internal/domain"
)

// GamificationPolicy decides the points a response earns and the level a
// point total maps to.
type GamificationPolicy struct {
	BasePoints       int
	CommentBonus     int
	CommentMinLength int
	// LevelThresholds[i] is the minimum total for level i+1; must be ascending
	LevelThresholds []int
}

// DefaultGamificationPolicy returns the standard student reward scheme
func DefaultGamificationPolicy() *GamificationPolicy {
	return &GamificationPolicy{
		BasePoints:       10,
		CommentBonus:     5,
		CommentMinLength: 50,
		LevelThresholds:  []int{0, 100, 250, 500, 1000, 2000},
	}
}

// Points returns what a response earns: the base amount plus a bonus when the
// longest free-text answer reaches the minimum comment length.
func (p *GamificationPolicy) Points(questions []domain.Question, answers domain.Answers) int {
	points := p.BasePoints
	longest := 0
	for _, q := range domain.Flatten(questions) {
		if q.Type != domain.QuestionFreeText {
			continue
		}
		if v, ok := answers.Get(q.ID); ok && v.Kind == domain.AnswerString {
			if n := utf8.RuneCountInString(v.String); n > longest {
				longest = n
			}
		}
	}
	if p.CommentMinLength > 0 && longest >= p.CommentMinLength {
		points += p.CommentBonus
	}
	return points
}

// Level maps a cumulative point total to a level. It never decreases as the total grows.
func (p *GamificationPolicy) Level(total int) int {
	level := 1
	for i, threshold := range p.LevelThresholds {
		if total >= threshold {
			level = i + 1
		}
	}
	return level
}

// Credit builds the points credit for a response, or nil for non-gamified roles
func (p *GamificationPolicy) Credit(role domain.Role, questions []domain.Question, answers domain.Answers) *domain.PointsCredit {
	if p == nil || !role.Gamified() {
		return nil
	}
	return &domain.PointsCredit{
		Role:     role,
		Points:   p.Points(questions, answers),
		LevelFor: p.Level,
	}
}
