package transcribe

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/mhollis/scribesync/internal/database"
	"github.com/mhollis/scribesync/internal/metrics"
	"github.com/mhollis/scribesync/internal/session"
	"github.com/mhollis/scribesync/internal/transcript"
)

// TranscriptionError is the single failure condition the rest of the system
// sees for any recognizer problem: model unreachable, unsupported codec,
// timeout. The session keeps its prior state; the user can retry.
type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string { return "transcription failed: " + e.Err.Error() }
func (e *TranscriptionError) Unwrap() error { return e.Err }

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	Provider        Provider
	DB              *database.DB // optional; nil skips persistence
	Timeout         time.Duration
	TranslateTarget string // language code that needs no translation pass
	Temperature     float64
	Log             zerolog.Logger
}

// Runner drives one recognition run for a session: it claims the session's
// single in-flight slot, calls the provider under a deadline, and installs
// the transcript (plus translation in Translate mode) atomically.
type Runner struct {
	opts RunnerOptions
}

// NewRunner creates a runner. TranslateTarget defaults to "en", the only
// target Whisper's translate task supports.
func NewRunner(opts RunnerOptions) *Runner {
	if opts.TranslateTarget == "" {
		opts.TranslateTarget = "en"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	return &Runner{opts: opts}
}

// Process transcribes the session's current asset stored at mediaPath.
// Returns session.ErrProcessingInFlight when a run is already outstanding and
// *TranscriptionError for recognizer failures; in both cases session state is
// untouched.
func (r *Runner) Process(ctx context.Context, sess *session.Session, mediaPath string) error {
	if err := sess.BeginProcessing(); err != nil {
		return err
	}
	defer sess.EndProcessing()

	asset := sess.Asset()
	if asset == nil {
		return session.ErrNoActiveAsset
	}
	mode := sess.Mode()

	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	started := time.Now()
	log := r.opts.Log.With().
		Str("session_id", sess.ID).
		Str("asset_id", asset.ID).
		Str("mode", string(mode)).
		Logger()

	res, err := r.opts.Provider.Run(ctx, mediaPath, Opts{
		Task:        TaskTranscribe,
		Temperature: r.opts.Temperature,
	})
	if err != nil {
		log.Warn().Err(err).Msg("recognizer call failed")
		metrics.TranscriptionsTotal.WithLabelValues(string(mode), "error").Inc()
		return &TranscriptionError{Err: err}
	}

	tr, err := buildTranscript(res)
	if err != nil {
		metrics.TranscriptionsTotal.WithLabelValues(string(mode), "error").Inc()
		return &TranscriptionError{Err: err}
	}

	var tl *transcript.Translation
	if mode == session.ModeTranslate && res.Language != r.opts.TranslateTarget {
		tl, err = r.translate(ctx, mediaPath, res.Language)
		if err != nil {
			log.Warn().Err(err).Msg("translation call failed")
			metrics.TranscriptionsTotal.WithLabelValues(string(mode), "error").Inc()
			return &TranscriptionError{Err: err}
		}
	}

	if err := sess.SetResult(asset.ID, tr, tl); err != nil {
		log.Warn().Err(err).Msg("result discarded")
		return err
	}

	runMs := int(time.Since(started).Milliseconds())
	metrics.TranscriptionsTotal.WithLabelValues(string(mode), "ok").Inc()
	metrics.TranscriptionDuration.WithLabelValues(string(mode)).Observe(time.Since(started).Seconds())
	log.Info().
		Int("segments", len(tr.Segments)).
		Str("language", tr.Language).
		Bool("translated", tl != nil).
		Int("run_ms", runMs).
		Msg("recognition complete")

	r.persist(ctx, asset, mode, tr, res, runMs, log)
	return nil
}

// translate runs the recognizer's translate task against the same media.
func (r *Runner) translate(ctx context.Context, mediaPath, sourceLang string) (*transcript.Translation, error) {
	res, err := r.opts.Provider.Run(ctx, mediaPath, Opts{
		Task:        TaskTranslate,
		Temperature: r.opts.Temperature,
	})
	if err != nil {
		return nil, err
	}
	if len(res.Segments) == 0 {
		return transcript.FlatTranslation(res.Text), nil
	}
	tr, err := buildTranscript(res)
	if err != nil {
		return nil, err
	}
	tr.Language = sourceLang
	return transcript.StructuredTranslation(tr), nil
}

// buildTranscript converts a provider result into the immutable store form.
// A provider returning flat text only yields a single segment spanning the
// whole media.
func buildTranscript(res *Result) (*transcript.Transcript, error) {
	if len(res.Segments) == 0 {
		return transcript.New([]transcript.RawSegment{
			{Start: 0, End: res.Duration, Text: res.Text},
		}, res.Language)
	}
	raw := make([]transcript.RawSegment, len(res.Segments))
	for i, s := range res.Segments {
		raw[i] = transcript.RawSegment{Start: s.Start, End: s.End, Text: s.Text}
	}
	return transcript.New(raw, res.Language)
}

// persist records the run in Postgres, best-effort: the session already has
// its result, so a storage hiccup only costs the durable copy.
func (r *Runner) persist(ctx context.Context, asset *session.Asset, mode session.Mode, tr *transcript.Transcript, res *Result, runMs int, log zerolog.Logger) {
	if r.opts.DB == nil {
		return
	}
	segJSON, err := json.Marshal(tr.Segments)
	if err != nil {
		log.Warn().Err(err).Msg("marshal segments for persistence")
		return
	}
	dur := res.Duration
	rec := &database.TranscriptRecord{
		AssetID:          asset.ID,
		AssetName:        asset.Name,
		Mode:             string(mode),
		Language:         tr.Language,
		Text:             tr.Flatten(),
		Segments:         segJSON,
		SegmentCount:     len(tr.Segments),
		Provider:         r.opts.Provider.Name(),
		Model:            r.opts.Provider.Model(),
		MediaDurationSec: &dur,
		RunMs:            runMs,
	}
	if _, err := r.opts.DB.InsertTranscript(ctx, rec); err != nil {
		log.Warn().Err(err).Msg("persist transcript")
	}
}
