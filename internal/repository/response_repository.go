package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"feedback-be/internal/domain"
	"feedback-be/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const responseColumns = `r.id, r.poll_id, r.respondent_id, r.answers, r.raw_answers, r.snapshot,
	r.ikop, r.points_earned, r.submitted_at`

type ResponseRepositoryPostgres struct {
	db *database.PostgresDB
}

func NewResponseRepository(db *database.PostgresDB) *ResponseRepositoryPostgres {
	return &ResponseRepositoryPostgres{db: db}
}

// HasResponded checks for an existing response on the poll
func (r *ResponseRepositoryPostgres) HasResponded(ctx context.Context, pollID uuid.UUID, respondentID string) (bool, error) {
	query := `SELECT 1 FROM poll_responses WHERE poll_id = $1 AND respondent_id = $2 LIMIT 1`

	var exists int
	err := r.db.Pool.QueryRow(ctx, query, pollID, respondentID).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check existing response: %w", err)
	}
	return true, nil
}

// Record inserts the response, bumps total_votes and credits points in one
// transaction. Counters are incremented in SQL, never read-modify-written.
func (r *ResponseRepositoryPostgres) Record(ctx context.Context, resp *domain.Response, credit *domain.PointsCredit) (*domain.Gamification, error) {
	answers, err := json.Marshal(resp.Answers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answers: %w", err)
	}
	snapshot, err := json.Marshal(resp.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	var raw []byte
	if len(resp.RawAnswers) > 0 {
		raw = resp.RawAnswers
	}

	var result *domain.Gamification
	err = r.db.WithTx(ctx, func(tx pgx.Tx) error {
		insert := `
			INSERT INTO poll_responses (
				id, poll_id, respondent_id, answers, raw_answers, snapshot, ikop, points_earned, submitted_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`
		if _, err := tx.Exec(ctx, insert,
			resp.ID,
			resp.PollID,
			resp.RespondentID,
			answers,
			raw,
			snapshot,
			resp.IKOP,
			resp.PointsEarned,
			resp.SubmittedAt,
		); err != nil {
			if database.IsUniqueViolation(err) {
				return domain.ErrStorageConflict
			}
			return fmt.Errorf("failed to insert response: %w", err)
		}

		tag, err := tx.Exec(ctx,
			`UPDATE polls SET total_votes = total_votes + 1, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`,
			resp.PollID)
		if err != nil {
			return fmt.Errorf("failed to increment total_votes: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrPollNotFound
		}

		if credit == nil || !credit.Role.Gamified() {
			return nil
		}
		g, err := creditPoints(ctx, tx, resp.RespondentID, credit)
		if err != nil {
			return err
		}
		result = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func creditPoints(ctx context.Context, tx pgx.Tx, respondentID string, credit *domain.PointsCredit) (*domain.Gamification, error) {
	upsert := `
		INSERT INTO respondent_gamification (respondent_id, role, points, level)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (respondent_id) DO UPDATE
		SET points = respondent_gamification.points + EXCLUDED.points, updated_at = NOW()
		RETURNING points, level
	`
	var g domain.Gamification
	if err := tx.QueryRow(ctx, upsert, respondentID, credit.Role, credit.Points).Scan(&g.Points, &g.Level); err != nil {
		return nil, fmt.Errorf("failed to credit points: %w", err)
	}

	if credit.LevelFor == nil {
		return &g, nil
	}
	if level := credit.LevelFor(g.Points); level > g.Level {
		_, err := tx.Exec(ctx,
			`UPDATE respondent_gamification SET level = GREATEST(level, $2) WHERE respondent_id = $1`,
			respondentID, level)
		if err != nil {
			return nil, fmt.Errorf("failed to update level: %w", err)
		}
		g.Level = level
	}
	return &g, nil
}

// GetByRespondent retrieves a respondent's response on a poll
func (r *ResponseRepositoryPostgres) GetByRespondent(ctx context.Context, pollID uuid.UUID, respondentID string) (*domain.Response, error) {
	query := `SELECT ` + responseColumns + ` FROM poll_responses r WHERE r.poll_id = $1 AND r.respondent_id = $2`

	resp, err := scanResponse(r.db.Pool.QueryRow(ctx, query, pollID, respondentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrResponseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get response: %w", err)
	}
	return resp, nil
}

// GetGamification returns the respondent's gamification state
func (r *ResponseRepositoryPostgres) GetGamification(ctx context.Context, respondentID string) (*domain.Gamification, error) {
	query := `SELECT points, level FROM respondent_gamification WHERE respondent_id = $1`

	var g domain.Gamification
	err := r.db.Pool.QueryRow(ctx, query, respondentID).Scan(&g.Points, &g.Level)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get gamification: %w", err)
	}
	return &g, nil
}

// scanResponse decodes a response row. Answers that no longer decode into the
// canonical shape are kept only as raw JSON so reports can still skip them.
func scanResponse(row pgx.Row) (*domain.Response, error) {
	var (
		resp                   domain.Response
		answers, raw, snapshot []byte
	)
	err := row.Scan(
		&resp.ID,
		&resp.PollID,
		&resp.RespondentID,
		&answers,
		&raw,
		&snapshot,
		&resp.IKOP,
		&resp.PointsEarned,
		&resp.SubmittedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(snapshot, &resp.Snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if len(raw) > 0 {
		resp.RawAnswers = json.RawMessage(raw)
	}
	if err := json.Unmarshal(answers, &resp.Answers); err != nil {
		resp.Answers = nil
		resp.RawAnswers = json.RawMessage(answers)
	}
	return &resp, nil
}

// NewPostgresRepositories wires the Postgres implementations
func NewPostgresRepositories(db *database.PostgresDB) *Repositories {
	responses := NewResponseRepository(db)
	return &Repositories{
		Polls:       NewPollRepository(db),
		Responses:   responses,
		Respondents: responses,
		Health:      db.Health,
	}
}
