package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"feedback-be/internal/domain"
	"feedback-be/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const pollColumns = `id, author_id, title, description, poll_type, questions, targeting, lesson,
	starts_at, ends_at, status, total_votes, created_at, updated_at, deleted_at`

type PollRepositoryPostgres struct {
	db *database.PostgresDB
}

func NewPollRepository(db *database.PostgresDB) *PollRepositoryPostgres {
	return &PollRepositoryPostgres{db: db}
}

// Create stores a new poll
func (r *PollRepositoryPostgres) Create(ctx context.Context, poll *domain.Poll) error {
	questions, err := json.Marshal(poll.Questions)
	if err != nil {
		return fmt.Errorf("failed to encode questions: %w", err)
	}
	targeting, err := json.Marshal(poll.Targeting)
	if err != nil {
		return fmt.Errorf("failed to encode targeting: %w", err)
	}
	var lesson []byte
	if poll.Lesson != nil {
		if lesson, err = json.Marshal(poll.Lesson); err != nil {
			return fmt.Errorf("failed to encode lesson: %w", err)
		}
	}

	query := `
		INSERT INTO polls (
			id, author_id, title, description, poll_type, questions, targeting, lesson,
			starts_at, ends_at, status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = r.db.Pool.Exec(ctx, query,
		poll.ID,
		poll.AuthorID,
		poll.Title,
		poll.Description,
		poll.Type,
		questions,
		targeting,
		lesson,
		poll.StartsAt,
		poll.EndsAt,
		poll.Status,
		poll.CreatedAt,
		poll.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create poll: %w", err)
	}
	return nil
}

// GetByID retrieves a poll without its responses
func (r *PollRepositoryPostgres) GetByID(ctx context.Context, id uuid.UUID) (*domain.Poll, error) {
	query := `SELECT ` + pollColumns + ` FROM polls WHERE id = $1`

	poll, err := scanPoll(r.db.Pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPollNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}
	return poll, nil
}

// List retrieves non-deleted polls, newest first
func (r *PollRepositoryPostgres) List(ctx context.Context) ([]*domain.Poll, error) {
	query := `SELECT ` + pollColumns + ` FROM polls WHERE deleted_at IS NULL ORDER BY created_at DESC, id`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}
	defer rows.Close()

	var polls []*domain.Poll
	for rows.Next() {
		poll, err := scanPoll(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		polls = append(polls, poll)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}
	return polls, nil
}

// ListWithResponses retrieves non-deleted polls and embeds their responses
func (r *PollRepositoryPostgres) ListWithResponses(ctx context.Context) ([]*domain.Poll, error) {
	polls, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*domain.Poll, len(polls))
	for _, p := range polls {
		p.VotedUsers = make(map[string]bool)
		byID[p.ID] = p
	}

	query := `
		SELECT ` + responseColumns + `
		FROM poll_responses r
		JOIN polls p ON p.id = r.poll_id
		WHERE p.deleted_at IS NULL
		ORDER BY r.submitted_at, r.id
	`
	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		poll, ok := byID[resp.PollID]
		if !ok {
			continue
		}
		poll.Responses = append(poll.Responses, *resp)
		poll.VotedUsers[resp.RespondentID] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	return polls, nil
}

// UpdateStatus moves a poll between statuses with a compare-and-set on the current status
func (r *PollRepositoryPostgres) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.PollStatus, at time.Time) error {
	query := `UPDATE polls SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2 AND deleted_at IS NULL`

	tag, err := r.db.Pool.Exec(ctx, query, id, from, to, at)
	if err != nil {
		return fmt.Errorf("failed to update poll status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidStatusTransition
	}
	return nil
}

// SoftDelete marks a poll as deleted
func (r *PollRepositoryPostgres) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE polls SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Pool.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("failed to delete poll: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPollNotFound
	}
	return nil
}

func scanPoll(row pgx.Row) (*domain.Poll, error) {
	var (
		poll                      domain.Poll
		questions, targeting, les []byte
	)
	err := row.Scan(
		&poll.ID,
		&poll.AuthorID,
		&poll.Title,
		&poll.Description,
		&poll.Type,
		&questions,
		&targeting,
		&les,
		&poll.StartsAt,
		&poll.EndsAt,
		&poll.Status,
		&poll.TotalVotes,
		&poll.CreatedAt,
		&poll.UpdatedAt,
		&poll.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(questions, &poll.Questions); err != nil {
		return nil, fmt.Errorf("failed to decode questions: %w", err)
	}
	if err := json.Unmarshal(targeting, &poll.Targeting); err != nil {
		return nil, fmt.Errorf("failed to decode targeting: %w", err)
	}
	if len(les) > 0 {
		poll.Lesson = &domain.LessonContext{}
		if err := json.Unmarshal(les, poll.Lesson); err != nil {
			return nil, fmt.Errorf("failed to decode lesson: %w", err)
		}
	}
	return &poll, nil
}
