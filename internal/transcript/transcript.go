package transcript

import (
	"fmt"
	"strings"
)

// Segment is one timed utterance unit of a transcript.
type Segment struct {
	Index int     `json:"index"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// DisplayText returns the segment text trimmed for rendering. Whitespace-only
// segments are structurally valid but render empty.
func (s Segment) DisplayText() string {
	return strings.TrimSpace(s.Text)
}

// Transcript is an ordered, immutable sequence of segments as returned by the
// speech-recognition service. Edits never happen in place; they go to a
// derived session buffer.
type Transcript struct {
	Segments []Segment `json:"segments"`
	Language string    `json:"language,omitempty"`
}

// RawSegment is the ingestion shape from the transcription service. Translated
// segments may carry their text in either the text or the translation field.
type RawSegment struct {
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Text        string  `json:"text"`
	Translation string  `json:"translation,omitempty"`
}

// MalformedSegmentError reports a segment that fails input validation. No
// partial transcript is constructed when any segment is malformed.
type MalformedSegmentError struct {
	Index  int
	Reason string
}

func (e *MalformedSegmentError) Error() string {
	return fmt.Sprintf("malformed segment %d: %s", e.Index, e.Reason)
}

// New validates raw segments and constructs a transcript. Indexes are assigned
// in arrival order; segment order is preserved exactly as the recognizer
// returned it (non-decreasing start, overlaps permitted).
func New(raw []RawSegment, language string) (*Transcript, error) {
	segs := make([]Segment, 0, len(raw))
	for i, r := range raw {
		if r.Start < 0 {
			return nil, &MalformedSegmentError{Index: i, Reason: fmt.Sprintf("negative start %g", r.Start)}
		}
		if r.Start > r.End {
			return nil, &MalformedSegmentError{Index: i, Reason: fmt.Sprintf("start %g after end %g", r.Start, r.End)}
		}
		text := r.Text
		if text == "" {
			text = r.Translation
		}
		segs = append(segs, Segment{Index: i, Start: r.Start, End: r.End, Text: text})
	}
	return &Transcript{Segments: segs, Language: language}, nil
}

// Flatten joins every segment's trimmed text with a newline, in index order.
// Empty segments contribute an empty line, so the line count always equals the
// segment count.
func (t *Transcript) Flatten() string {
	lines := make([]string, len(t.Segments))
	for i, s := range t.Segments {
		lines[i] = s.DisplayText()
	}
	return strings.Join(lines, "\n")
}
