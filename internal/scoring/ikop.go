// Package scoring computes the IKOP quality index from weighted rating answers.
package scoring

import (
	"math"

	"feedback-be/internal/domain"
)

// Zone thresholds, inclusive lower bounds
const (
	AttentionFrom    = 40
	SatisfactoryFrom = 60
	ExcellentFrom    = 80
)

// Zone names
const (
	ZoneCritical     = "critical"
	ZoneAttention    = "attention"
	ZoneSatisfactory = "satisfactory"
	ZoneExcellent    = "excellent"
)

// Score returns the 0..100 weighted score of the answers, or nil when no
// weighted rating question was answered.
//
// Each answered rating r on scale s is normalized to (r-1)/(s-1); the result is
// the weight-averaged normalized value over answered questions only.
func Score(answers domain.Answers, questions []domain.Question) *int {
	var weighted, totalWeight float64

	for _, q := range domain.Flatten(questions) {
		if !q.IsScored() {
			continue
		}
		value, ok := answers.Get(q.ID)
		if !ok || value.Kind != domain.AnswerNumber {
			continue
		}
		scale := float64(q.RatingScale())
		if value.Number < 1 || value.Number > scale {
			continue
		}
		weighted += (value.Number - 1) / (scale - 1) * q.Weight
		totalWeight += q.Weight
	}

	if totalWeight == 0 {
		return nil
	}
	score := Round(100 * weighted / totalWeight)
	return &score
}

// Round rounds half away from zero after dropping float noise, so 57.49999999
// produced by summing weights still lands on 58 when the exact value is 57.5.
// The result is clamped to 0..100.
func Round(pct float64) int {
	pct = math.Round(pct*1e9) / 1e9
	n := int(math.Floor(pct + 0.5))
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

// Zone classifies a score for display
func Zone(score int) string {
	switch {
	case score >= ExcellentFrom:
		return ZoneExcellent
	case score >= SatisfactoryFrom:
		return ZoneSatisfactory
	case score >= AttentionFrom:
		return ZoneAttention
	default:
		return ZoneCritical
	}
}

// ZoneOf classifies a nullable score; nil has no zone.
func ZoneOf(score *int) string {
	if score == nil {
		return ""
	}
	return Zone(*score)
}
