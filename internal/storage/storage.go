package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// MediaStore abstracts media file storage backends.
type MediaStore interface {
	// Save stores media data. key format: {asset_id}/{filename}
	Save(ctx context.Context, key string, data []byte, contentType string) error

	// LocalPath returns the local filesystem path if the file exists on
	// disk, "" otherwise. The recognizer needs a real path.
	LocalPath(key string) string

	// Open returns a reader for the media file.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists checks whether the media file exists in any backend.
	Exists(ctx context.Context, key string) bool

	// Delete removes the media file.
	Delete(ctx context.Context, key string) error

	// Type returns "local", "s3", or "tiered".
	Type() string
}

// New creates a MediaStore from config: local-only, or local primary with an
// S3 archive when a bucket is configured. Fails fast if S3 is configured but
// unreachable.
func New(cfg S3Config, mediaDir string, log zerolog.Logger) (MediaStore, error) {
	local := NewLocalStore(mediaDir)
	if !cfg.Enabled() {
		return local, nil
	}

	s3store, err := NewS3Store(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("S3 init failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s3store.HeadBucket(ctx); err != nil {
		return nil, fmt.Errorf("S3 startup check failed (bucket=%q endpoint=%q): %w",
			cfg.Bucket, cfg.Endpoint, err)
	}
	log.Info().Str("bucket", cfg.Bucket).Str("endpoint", cfg.Endpoint).Msg("S3 archive verified")

	return NewTieredStore(local, s3store, log), nil
}

// TieredStore writes locally first and archives to S3 in the background;
// reads prefer the local copy.
type TieredStore struct {
	local   *LocalStore
	archive *S3Store
	log     zerolog.Logger
}

// NewTieredStore creates a local-primary, S3-archive store.
func NewTieredStore(local *LocalStore, archive *S3Store, log zerolog.Logger) *TieredStore {
	return &TieredStore{
		local:   local,
		archive: archive,
		log:     log.With().Str("component", "tiered-store").Logger(),
	}
}

func (t *TieredStore) Save(ctx context.Context, key string, data []byte, contentType string) error {
	if err := t.local.Save(ctx, key, data, contentType); err != nil {
		return err
	}
	// Archive copy is best-effort: losing it costs durability, not function.
	go func() {
		actx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := t.archive.Save(actx, key, data, contentType); err != nil {
			t.log.Warn().Err(err).Str("key", key).Msg("S3 archive upload failed")
		}
	}()
	return nil
}

func (t *TieredStore) LocalPath(key string) string {
	return t.local.LocalPath(key)
}

func (t *TieredStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if t.local.Exists(ctx, key) {
		return t.local.Open(ctx, key)
	}
	return t.archive.Open(ctx, key)
}

func (t *TieredStore) Exists(ctx context.Context, key string) bool {
	return t.local.Exists(ctx, key) || t.archive.Exists(ctx, key)
}

func (t *TieredStore) Delete(ctx context.Context, key string) error {
	if err := t.local.Delete(ctx, key); err != nil {
		return err
	}
	if err := t.archive.Delete(ctx, key); err != nil {
		t.log.Warn().Err(err).Str("key", key).Msg("S3 archive delete failed")
	}
	return nil
}

func (t *TieredStore) Type() string { return "tiered" }
