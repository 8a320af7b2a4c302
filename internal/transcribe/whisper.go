package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// WhisperClient calls an OpenAI-compatible audio endpoint. The same server
// handles transcription (/v1/audio/transcriptions) and translation
// (/v1/audio/translations); translation always targets English, matching the
// Whisper task model.
type WhisperClient struct {
	baseURL string
	model   string
	client  *http.Client
}

// whisperResponse is the verbose_json response shape.
type whisperResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// NewWhisperClient creates a Whisper HTTP client. timeout bounds the whole
// request; callers usually also pass a deadline context.
func NewWhisperClient(baseURL, model string, timeout time.Duration) *WhisperClient {
	return &WhisperClient{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

func (wc *WhisperClient) Name() string  { return "whisper" }
func (wc *WhisperClient) Model() string { return wc.model }

// Run sends the media file to the Whisper API and returns the parsed result.
// Multipart form upload with response_format=verbose_json for segment
// timestamps; only non-default fields are sent, so any OpenAI-compatible
// server (speaches, faster-whisper-server, OpenAI itself) works.
func (wc *WhisperClient) Run(ctx context.Context, mediaPath string, opts Opts) (*Result, error) {
	f, err := os.Open(mediaPath)
	if err != nil {
		return nil, fmt.Errorf("open media file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filepath.Base(mediaPath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("copy media data: %w", err)
	}

	if wc.model != "" {
		w.WriteField("model", wc.model)
	}
	if opts.Language != "" {
		w.WriteField("language", opts.Language)
	}
	w.WriteField("temperature", fmt.Sprintf("%.2f", opts.Temperature))
	w.WriteField("response_format", "verbose_json")
	w.WriteField("timestamp_granularities[]", "segment")
	w.Close()

	endpoint := wc.baseURL + "/v1/audio/transcriptions"
	if opts.Task == TaskTranslate {
		endpoint = wc.baseURL + "/v1/audio/translations"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := wc.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whisper request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whisper API error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed whisperResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	result := &Result{
		Text:     parsed.Text,
		Language: parsed.Language,
		Duration: parsed.Duration,
	}
	for _, s := range parsed.Segments {
		result.Segments = append(result.Segments, SegmentResult{Start: s.Start, End: s.End, Text: s.Text})
	}
	return result, nil
}
