package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Response is one respondent's append-only submission to a poll
type Response struct {
	ID           uuid.UUID `json:"id"`
	PollID       uuid.UUID `json:"poll_id"`
	RespondentID string    `json:"respondent_id"`
	Answers      Answers   `json:"answers"`
	Snapshot     Snapshot  `json:"snapshot"`
	IKOP         *int      `json:"ikop"`
	PointsEarned int       `json:"points_earned"`
	SubmittedAt  time.Time `json:"submitted_at"`

	// RawAnswers keeps legacy payloads that could not be decoded into Answers.
	RawAnswers json.RawMessage `json:"-"`
}

// SubmitResult is returned by a successful submission
type SubmitResult struct {
	Response     *Response     `json:"response"`
	PointsEarned int           `json:"points_earned"`
	IKOP         *int          `json:"ikop"`
	Zone         string        `json:"zone,omitempty"`
	Gamification *Gamification `json:"gamification,omitempty"`
}

// PointsCredit is the gamification side effect applied together with a response insert
type PointsCredit struct {
	Role   Role
	Points int
	// LevelFor maps a cumulative point total to a level
	LevelFor func(total int) int
}
