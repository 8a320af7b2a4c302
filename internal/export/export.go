// Package export hands edited transcript text to format renderers. The core
// only flattens and configures; pagination, font resolution, and binary
// encodings belong to the rendering collaborator behind the Renderer seam.
package export

import (
	"errors"
	"fmt"
)

// DisplayConfig is the presentation hint passed through to renderers. Fonts
// are never validated here: a renderer may silently substitute a fallback.
type DisplayConfig struct {
	FontFamily           string  `json:"font_family"`
	FontSizePt           float64 `json:"font_size_pt"`
	LineHeightMultiplier float64 `json:"line_height_multiplier"`
}

// DefaultDisplay mirrors the live panel's rendering defaults.
func DefaultDisplay() DisplayConfig {
	return DisplayConfig{
		FontFamily:           "Source Sans Pro",
		FontSizePt:           12,
		LineHeightMultiplier: 1.5,
	}
}

// Request is one export invocation: the flattened edit-buffer content plus
// the display configuration.
type Request struct {
	Text    string
	Display DisplayConfig
}

// Output is a rendered document.
type Output struct {
	ContentType string
	Filename    string
	Data        []byte
}

// Renderer produces one output format from an export request.
type Renderer interface {
	Format() string
	Render(req Request) (*Output, error)
}

// ErrUnknownFormat rejects formats no registered renderer produces.
var ErrUnknownFormat = errors.New("unknown export format")

// Registry maps format names to renderers.
type Registry struct {
	renderers map[string]Renderer
}

// NewRegistry creates a registry with the built-in plain-text renderer.
// Binary formats (PDF) register from outside the core.
func NewRegistry() *Registry {
	r := &Registry{renderers: make(map[string]Renderer)}
	r.Register(TextRenderer{})
	return r
}

// Register adds a renderer, replacing any previous one for the same format.
func (r *Registry) Register(rend Renderer) {
	r.renderers[rend.Format()] = rend
}

// Formats lists the registered format names.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.renderers))
	for f := range r.renderers {
		out = append(out, f)
	}
	return out
}

// Render dispatches to the renderer for format.
func (r *Registry) Render(format string, req Request) (*Output, error) {
	rend, ok := r.renderers[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if req.Display == (DisplayConfig{}) {
		req.Display = DefaultDisplay()
	}
	return rend.Render(req)
}

// TextRenderer writes the buffer as UTF-8 plain text. Display configuration
// is accepted and ignored: plain text carries no typography.
type TextRenderer struct{}

func (TextRenderer) Format() string { return "txt" }

func (TextRenderer) Render(req Request) (*Output, error) {
	data := []byte(req.Text)
	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	return &Output{
		ContentType: "text/plain; charset=utf-8",
		Filename:    "transcript.txt",
		Data:        data,
	}, nil
}
