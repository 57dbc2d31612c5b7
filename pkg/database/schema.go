package database

// SchemaUp creates the feedback tables. Statements are idempotent.
var SchemaUp = []string{
	`CREATE TABLE IF NOT EXISTS polls (
		id UUID PRIMARY KEY,
		author_id VARCHAR(255) NOT NULL,
		title VARCHAR(500) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		poll_type VARCHAR(32) NOT NULL,
		questions JSONB NOT NULL,
		targeting JSONB NOT NULL DEFAULT '{}',
		lesson JSONB,
		starts_at TIMESTAMPTZ NOT NULL,
		ends_at TIMESTAMPTZ NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'draft',
		total_votes INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		deleted_at TIMESTAMPTZ,
		CHECK (ends_at > starts_at)
	)`,

	`CREATE TABLE IF NOT EXISTS poll_responses (
		id UUID PRIMARY KEY,
		poll_id UUID NOT NULL REFERENCES polls(id) ON DELETE RESTRICT,
		respondent_id VARCHAR(255) NOT NULL,
		answers JSONB NOT NULL DEFAULT '[]',
		raw_answers JSONB,
		snapshot JSONB NOT NULL,
		ikop SMALLINT CHECK (ikop BETWEEN 0 AND 100),
		points_earned INTEGER NOT NULL DEFAULT 0,
		submitted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT poll_responses_poll_respondent_key UNIQUE (poll_id, respondent_id)
	)`,

	`CREATE TABLE IF NOT EXISTS respondent_gamification (
		respondent_id VARCHAR(255) PRIMARY KEY,
		role VARCHAR(16) NOT NULL,
		points INTEGER NOT NULL DEFAULT 0,
		level INTEGER NOT NULL DEFAULT 1,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_polls_status ON polls(status) WHERE deleted_at IS NULL`,
	`CREATE INDEX IF NOT EXISTS idx_poll_responses_poll ON poll_responses(poll_id)`,
	`CREATE INDEX IF NOT EXISTS idx_poll_responses_respondent ON poll_responses(respondent_id)`,
}

// SchemaDown drops the feedback tables
var SchemaDown = []string{
	`DROP TABLE IF EXISTS poll_responses CASCADE`,
	`DROP TABLE IF EXISTS respondent_gamification CASCADE`,
	`DROP TABLE IF EXISTS polls CASCADE`,
}
