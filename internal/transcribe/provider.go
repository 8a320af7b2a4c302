package transcribe

import "context"

// Task selects the recognizer's output language behavior.
const (
	TaskTranscribe = "transcribe"
	TaskTranslate  = "translate"
)

// Provider is the interface for speech-to-text backends. The model service is
// a black box: scribesync only ever sees this boundary.
type Provider interface {
	Run(ctx context.Context, mediaPath string, opts Opts) (*Result, error)
	Name() string  // "whisper"
	Model() string // model identifier for DB/logs
}

// Opts are per-request options for a recognition run.
type Opts struct {
	Task        string // TaskTranscribe or TaskTranslate
	Language    string // hint; empty lets the model detect
	Temperature float64
}

// Result is the common recognition result from any provider.
type Result struct {
	Text     string
	Language string // detected source language
	Duration float64
	Segments []SegmentResult // nil if the provider returns flat text only
}

// SegmentResult is one timed utterance from the provider.
type SegmentResult struct {
	Start float64
	End   float64
	Text  string
}
