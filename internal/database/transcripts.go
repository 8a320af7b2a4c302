package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// TranscriptRecord is the durable form of a completed recognition run.
type TranscriptRecord struct {
	ID               int64           `json:"id"`
	AssetID          string          `json:"asset_id"`
	AssetName        string          `json:"asset_name"`
	Mode             string          `json:"mode"`
	Language         string          `json:"language,omitempty"`
	Text             string          `json:"text"`
	Segments         json.RawMessage `json:"segments,omitempty"`
	SegmentCount     int             `json:"segment_count"`
	Provider         string          `json:"provider,omitempty"`
	Model            string          `json:"model,omitempty"`
	MediaDurationSec *float64        `json:"media_duration_sec,omitempty"`
	RunMs            int             `json:"run_ms"`
	CreatedAt        time.Time       `json:"created_at"`
}

// InsertTranscript stores a completed run and returns its row ID.
func (db *DB) InsertTranscript(ctx context.Context, rec *TranscriptRecord) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO transcripts (
			asset_id, asset_name, mode, language, text,
			segments, segment_count, provider, model,
			media_duration_sec, run_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`,
		rec.AssetID, rec.AssetName, rec.Mode, rec.Language, rec.Text,
		rec.Segments, rec.SegmentCount, rec.Provider, rec.Model,
		rec.MediaDurationSec, rec.RunMs,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert transcript: %w", err)
	}
	return id, nil
}

// GetTranscriptByAsset returns the most recent run for an asset.
func (db *DB) GetTranscriptByAsset(ctx context.Context, assetID string) (*TranscriptRecord, error) {
	row := db.Pool.QueryRow(ctx, `
		SELECT id, asset_id, asset_name, mode, language, text,
		       segments, segment_count, provider, model,
		       media_duration_sec, run_ms, created_at
		FROM transcripts
		WHERE asset_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, assetID)

	rec, err := scanTranscript(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// SearchTranscripts finds persisted runs whose text contains the query,
// case-insensitively, newest first. The query is a literal substring: ILIKE
// wildcards in user input are escaped.
func (db *DB) SearchTranscripts(ctx context.Context, query string, limit, offset int) ([]*TranscriptRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + escapeLike(query) + "%"

	rows, err := db.Pool.Query(ctx, `
		SELECT id, asset_id, asset_name, mode, language, text,
		       segments, segment_count, provider, model,
		       media_duration_sec, run_ms, created_at
		FROM transcripts
		WHERE text ILIKE $1 ESCAPE '\'
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, pattern, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("search transcripts: %w", err)
	}
	defer rows.Close()

	var out []*TranscriptRecord
	for rows.Next() {
		rec, err := scanTranscript(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanTranscript(row pgx.Row) (*TranscriptRecord, error) {
	rec := &TranscriptRecord{}
	err := row.Scan(
		&rec.ID, &rec.AssetID, &rec.AssetName, &rec.Mode, &rec.Language, &rec.Text,
		&rec.Segments, &rec.SegmentCount, &rec.Provider, &rec.Model,
		&rec.MediaDurationSec, &rec.RunMs, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// escapeLike escapes ILIKE metacharacters so user queries stay literal.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
