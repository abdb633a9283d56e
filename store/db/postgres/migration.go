package postgres

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/ronniejay22/Knot-APP-sub003/internal/version"
)

// Schema is applied idempotently on startup. Embedding columns use pgvector;
// the ivfflat index supports incremental inserts.
const schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS vault (
	id SERIAL PRIMARY KEY,
	uid TEXT NOT NULL UNIQUE,
	user_id INTEGER NOT NULL UNIQUE,
	partner_name TEXT NOT NULL,
	relationship_start TEXT NOT NULL DEFAULT '',
	cohabiting BOOLEAN NOT NULL DEFAULT FALSE,
	location TEXT NOT NULL DEFAULT '',
	created_ts BIGINT NOT NULL,
	updated_ts BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS interest (
	id SERIAL PRIMARY KEY,
	vault_id INTEGER NOT NULL REFERENCES vault(id) ON DELETE CASCADE,
	category TEXT NOT NULL,
	polarity TEXT NOT NULL,
	created_ts BIGINT NOT NULL,
	UNIQUE (vault_id, category)
);

CREATE TABLE IF NOT EXISTS vibe_tag (
	id SERIAL PRIMARY KEY,
	vault_id INTEGER NOT NULL REFERENCES vault(id) ON DELETE CASCADE,
	tag TEXT NOT NULL,
	created_ts BIGINT NOT NULL,
	UNIQUE (vault_id, tag)
);

CREATE TABLE IF NOT EXISTS love_language (
	id SERIAL PRIMARY KEY,
	vault_id INTEGER NOT NULL REFERENCES vault(id) ON DELETE CASCADE,
	language TEXT NOT NULL,
	rank TEXT NOT NULL,
	created_ts BIGINT NOT NULL,
	UNIQUE (vault_id, rank)
);

CREATE TABLE IF NOT EXISTS budget (
	id SERIAL PRIMARY KEY,
	vault_id INTEGER NOT NULL REFERENCES vault(id) ON DELETE CASCADE,
	occasion_type TEXT NOT NULL,
	min_cents BIGINT NOT NULL,
	max_cents BIGINT NOT NULL,
	created_ts BIGINT NOT NULL,
	updated_ts BIGINT NOT NULL,
	UNIQUE (vault_id, occasion_type),
	CHECK (min_cents >= 0 AND max_cents >= min_cents)
);

CREATE TABLE IF NOT EXISTS milestone (
	id SERIAL PRIMARY KEY,
	uid TEXT NOT NULL UNIQUE,
	vault_id INTEGER NOT NULL REFERENCES vault(id) ON DELETE CASCADE,
	type TEXT NOT NULL,
	name TEXT NOT NULL,
	date TEXT NOT NULL,
	recurrence TEXT NOT NULL,
	budget_tier TEXT NOT NULL,
	created_ts BIGINT NOT NULL,
	updated_ts BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS hint (
	id SERIAL PRIMARY KEY,
	uid TEXT NOT NULL UNIQUE,
	vault_id INTEGER NOT NULL REFERENCES vault(id) ON DELETE CASCADE,
	text TEXT NOT NULL,
	embedding vector(1536),
	is_used BOOLEAN NOT NULL DEFAULT FALSE,
	created_ts BIGINT NOT NULL,
	updated_ts BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_hint_embedding ON hint
	USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);

CREATE TABLE IF NOT EXISTS recommendation (
	id SERIAL PRIMARY KEY,
	uid TEXT NOT NULL UNIQUE,
	vault_id INTEGER NOT NULL REFERENCES vault(id) ON DELETE CASCADE,
	milestone_id INTEGER REFERENCES milestone(id) ON DELETE SET NULL,
	kind TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	interests TEXT[] NOT NULL DEFAULT '{}',
	vibes TEXT[] NOT NULL DEFAULT '{}',
	love_languages TEXT[] NOT NULL DEFAULT '{}',
	interest_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	vibe_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	love_language_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	composite_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	hint_ids INTEGER[] NOT NULL DEFAULT '{}',
	embedding vector(1536),
	created_ts BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS feedback (
	id BIGSERIAL PRIMARY KEY,
	user_id INTEGER NOT NULL,
	recommendation_id INTEGER NOT NULL REFERENCES recommendation(id) ON DELETE CASCADE,
	action TEXT NOT NULL,
	rating INTEGER,
	created_ts BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_feedback_user_created ON feedback (user_id, created_ts);

CREATE TABLE IF NOT EXISTS preference_weights (
	user_id INTEGER PRIMARY KEY,
	interests JSONB NOT NULL DEFAULT '{}',
	vibes JSONB NOT NULL DEFAULT '{}',
	kinds JSONB NOT NULL DEFAULT '{}',
	love_languages JSONB NOT NULL DEFAULT '{}',
	feedback_count INTEGER NOT NULL DEFAULT 0,
	last_analyzed_ts BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS notification (
	id SERIAL PRIMARY KEY,
	uid TEXT NOT NULL UNIQUE,
	user_id INTEGER NOT NULL,
	milestone_id INTEGER NOT NULL,
	lead_days INTEGER NOT NULL,
	occurrence_date TEXT NOT NULL,
	scheduled_ts BIGINT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	sent_ts BIGINT,
	viewed_ts BIGINT,
	created_ts BIGINT NOT NULL,
	updated_ts BIGINT NOT NULL,
	UNIQUE (milestone_id, lead_days, occurrence_date)
);

CREATE INDEX IF NOT EXISTS idx_notification_due ON notification (status, scheduled_ts);

CREATE TABLE IF NOT EXISTS notification_settings (
	user_id INTEGER PRIMARY KEY,
	device_token TEXT NOT NULL DEFAULT '',
	platform TEXT NOT NULL DEFAULT '',
	timezone TEXT NOT NULL DEFAULT 'UTC',
	quiet_start INTEGER NOT NULL DEFAULT 0,
	quiet_end INTEGER NOT NULL DEFAULT 0,
	enabled BOOLEAN NOT NULL DEFAULT TRUE,
	created_ts BIGINT NOT NULL,
	updated_ts BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_version (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	version TEXT NOT NULL
);
`

// Migrate applies the schema and stamps the binary version.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to apply schema")
	}
	return d.stampSchemaVersion(ctx)
}

// stampSchemaVersion refuses to run against a database written by a newer
// release, then records the current version.
func (d *DB) stampSchemaVersion(ctx context.Context) error {
	current := version.GetCurrentVersion(d.profile.Mode)

	var stored string
	err := d.db.QueryRowContext(ctx, "SELECT version FROM schema_version WHERE id = 1").Scan(&stored)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return errors.Wrap(err, "failed to read schema version")
	}
	if err == nil && !version.IsVersionGreaterOrEqualThan(current, stored) {
		return errors.Errorf("database schema version %s is newer than binary version %s", stored, current)
	}

	if _, err := d.db.ExecContext(ctx, `
		INSERT INTO schema_version (id, version) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET version = EXCLUDED.version
	`, current); err != nil {
		return errors.Wrap(err, "failed to record schema version")
	}
	return nil
}
