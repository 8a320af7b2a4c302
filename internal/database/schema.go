package database

import "context"

// schema is applied idempotently at connect time. One table: the durable
// record of completed recognition runs. Session state itself is in-memory and
// never persisted.
const schema = `
CREATE TABLE IF NOT EXISTS transcripts (
    id           BIGSERIAL PRIMARY KEY,
    asset_id     TEXT NOT NULL,
    asset_name   TEXT NOT NULL,
    mode         TEXT NOT NULL,
    language     TEXT NOT NULL DEFAULT '',
    text         TEXT NOT NULL,
    segments     JSONB,
    segment_count INTEGER NOT NULL DEFAULT 0,
    provider     TEXT NOT NULL DEFAULT '',
    model        TEXT NOT NULL DEFAULT '',
    media_duration_sec DOUBLE PRECISION,
    run_ms       INTEGER NOT NULL DEFAULT 0,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_transcripts_asset ON transcripts (asset_id);
CREATE INDEX IF NOT EXISTS idx_transcripts_created ON transcripts (created_at DESC);
`

func (db *DB) applySchema(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, schema)
	return err
}
