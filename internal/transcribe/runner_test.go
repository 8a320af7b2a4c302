package transcribe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mhollis/scribesync/internal/session"
)

// fakeProvider returns canned results per task, or an error.
type fakeProvider struct {
	transcribe *Result
	translate  *Result
	err        error
	calls      []string
}

func (f *fakeProvider) Run(ctx context.Context, mediaPath string, opts Opts) (*Result, error) {
	f.calls = append(f.calls, opts.Task)
	if f.err != nil {
		return nil, f.err
	}
	if opts.Task == TaskTranslate {
		return f.translate, nil
	}
	return f.transcribe, nil
}

func (f *fakeProvider) Name() string  { return "fake" }
func (f *fakeProvider) Model() string { return "test" }

func newSessionWithAsset(mode session.Mode) *session.Session {
	s := session.New("s1", mode, time.Hour)
	s.SetAsset(&session.Asset{ID: "asset-1", Name: "clip.mp3", Key: "asset-1/clip.mp3", MediaType: "mp3"})
	return s
}

func newRunner(p Provider) *Runner {
	return NewRunner(RunnerOptions{
		Provider: p,
		Timeout:  time.Second,
		Log:      zerolog.Nop(),
	})
}

func TestRunnerProcess(t *testing.T) {
	t.Run("transcribe_mode_installs_transcript", func(t *testing.T) {
		p := &fakeProvider{transcribe: &Result{
			Language: "en",
			Segments: []SegmentResult{{Start: 0, End: 1, Text: "hi"}, {Start: 1, End: 2, Text: "there"}},
		}}
		sess := newSessionWithAsset(session.ModeTranscribe)

		if err := newRunner(p).Process(context.Background(), sess, "/tmp/clip.mp3"); err != nil {
			t.Fatalf("Process: %v", err)
		}
		tr, err := sess.Transcript()
		if err != nil {
			t.Fatalf("Transcript: %v", err)
		}
		if len(tr.Segments) != 2 || tr.Language != "en" {
			t.Errorf("got %d segments, lang %q", len(tr.Segments), tr.Language)
		}
		if _, err := sess.Translation(); !errors.Is(err, session.ErrNotProcessed) {
			t.Errorf("translation should be absent in transcribe mode: %v", err)
		}
		if len(p.calls) != 1 {
			t.Errorf("provider called %d times, want 1", len(p.calls))
		}
	})

	t.Run("translate_mode_runs_translate_task_for_foreign_language", func(t *testing.T) {
		p := &fakeProvider{
			transcribe: &Result{Language: "de", Segments: []SegmentResult{{Start: 0, End: 1, Text: "hallo"}}},
			translate:  &Result{Language: "en", Segments: []SegmentResult{{Start: 0, End: 1, Text: "hello"}}},
		}
		sess := newSessionWithAsset(session.ModeTranslate)

		if err := newRunner(p).Process(context.Background(), sess, "/tmp/clip.mp3"); err != nil {
			t.Fatalf("Process: %v", err)
		}
		tl, err := sess.Translation()
		if err != nil {
			t.Fatalf("Translation: %v", err)
		}
		if !tl.IsStructured() || tl.Flatten() != "hello" {
			t.Errorf("translation = %q structured=%v", tl.Flatten(), tl.IsStructured())
		}
		if len(p.calls) != 2 || p.calls[1] != TaskTranslate {
			t.Errorf("calls = %v", p.calls)
		}
	})

	t.Run("translate_mode_skips_translation_for_target_language", func(t *testing.T) {
		p := &fakeProvider{transcribe: &Result{Language: "en", Segments: []SegmentResult{{Start: 0, End: 1, Text: "hi"}}}}
		sess := newSessionWithAsset(session.ModeTranslate)

		if err := newRunner(p).Process(context.Background(), sess, "/tmp/clip.mp3"); err != nil {
			t.Fatalf("Process: %v", err)
		}
		if _, err := sess.Translation(); !errors.Is(err, session.ErrNotProcessed) {
			t.Errorf("translation should be absent for English source: %v", err)
		}
		if len(p.calls) != 1 {
			t.Errorf("provider called %d times, want 1", len(p.calls))
		}
	})

	t.Run("flat_translation_fallback", func(t *testing.T) {
		p := &fakeProvider{
			transcribe: &Result{Language: "fr", Segments: []SegmentResult{{Start: 0, End: 1, Text: "salut"}}},
			translate:  &Result{Language: "en", Text: "hi there", Duration: 1},
		}
		sess := newSessionWithAsset(session.ModeTranslate)

		if err := newRunner(p).Process(context.Background(), sess, "/tmp/clip.mp3"); err != nil {
			t.Fatalf("Process: %v", err)
		}
		tl, _ := sess.Translation()
		if tl.IsStructured() {
			t.Error("expected flat translation variant")
		}
		if tl.Flatten() != "hi there" {
			t.Errorf("Flatten = %q", tl.Flatten())
		}
	})

	t.Run("failure_leaves_session_untouched", func(t *testing.T) {
		p := &fakeProvider{err: errors.New("model unavailable")}
		sess := newSessionWithAsset(session.ModeTranscribe)

		err := newRunner(p).Process(context.Background(), sess, "/tmp/clip.mp3")
		var te *TranscriptionError
		if !errors.As(err, &te) {
			t.Fatalf("err = %v, want TranscriptionError", err)
		}
		if _, err := sess.Transcript(); !errors.Is(err, session.ErrNotProcessed) {
			t.Errorf("session half-populated after failure: %v", err)
		}
		if sess.Processing() {
			t.Error("in-flight slot not released after failure")
		}
	})

	t.Run("rejects_concurrent_run", func(t *testing.T) {
		sess := newSessionWithAsset(session.ModeTranscribe)
		if err := sess.BeginProcessing(); err != nil {
			t.Fatal(err)
		}
		p := &fakeProvider{transcribe: &Result{Language: "en", Text: "x", Duration: 1}}
		err := newRunner(p).Process(context.Background(), sess, "/tmp/clip.mp3")
		if !errors.Is(err, session.ErrProcessingInFlight) {
			t.Fatalf("err = %v, want ErrProcessingInFlight", err)
		}
		if len(p.calls) != 0 {
			t.Error("provider must not be called while a run is outstanding")
		}
	})

	t.Run("flat_result_becomes_single_segment", func(t *testing.T) {
		p := &fakeProvider{transcribe: &Result{Language: "en", Text: "just text", Duration: 3.5}}
		sess := newSessionWithAsset(session.ModeTranscribe)

		if err := newRunner(p).Process(context.Background(), sess, "/tmp/clip.mp3"); err != nil {
			t.Fatalf("Process: %v", err)
		}
		tr, _ := sess.Transcript()
		if len(tr.Segments) != 1 {
			t.Fatalf("segments = %d, want 1", len(tr.Segments))
		}
		if tr.Segments[0].End != 3.5 {
			t.Errorf("End = %g, want media duration", tr.Segments[0].End)
		}
	})
}

func TestWorkerPoolQueue(t *testing.T) {
	newPool := func(workers, queue int) *WorkerPool {
		return NewWorkerPool(WorkerPoolOptions{
			Provider:  &fakeProvider{transcribe: &Result{Text: "x", Duration: 1}},
			Workers:   workers,
			QueueSize: queue,
			Log:       zerolog.Nop(),
		})
	}

	t.Run("enqueue_buffers_before_start", func(t *testing.T) {
		wp := newPool(1, 4)
		if !wp.Enqueue(Job{AssetID: "a", MediaPath: "/tmp/a.mp3"}) {
			t.Error("Enqueue should succeed with queue space")
		}
		if wp.Stats().Pending != 1 {
			t.Errorf("Pending = %d, want 1", wp.Stats().Pending)
		}
	})

	t.Run("enqueue_full_queue", func(t *testing.T) {
		wp := newPool(0, 1) // no workers draining
		wp.Enqueue(Job{AssetID: "a"})
		if wp.Enqueue(Job{AssetID: "b"}) {
			t.Error("Enqueue should fail when queue is full")
		}
	})

	t.Run("enqueue_after_stop", func(t *testing.T) {
		wp := newPool(1, 4)
		wp.Start()
		wp.Stop()
		if wp.Enqueue(Job{AssetID: "a"}) {
			t.Error("Enqueue should fail after Stop")
		}
	})
}
