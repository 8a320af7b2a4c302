package transcript

import "strings"

// Translation is the translated-language output. The recognizer returns either
// timed segments or a flat text blob; the variant is fixed at construction so
// downstream code never shape-sniffs.
type Translation struct {
	structured *Transcript
	flat       string
}

// StructuredTranslation wraps a segment-shaped translation result.
func StructuredTranslation(t *Transcript) *Translation {
	return &Translation{structured: t}
}

// FlatTranslation wraps a plain-text translation result.
func FlatTranslation(text string) *Translation {
	return &Translation{flat: text}
}

// IsStructured reports whether the translation carries timed segments.
func (t *Translation) IsStructured() bool {
	return t.structured != nil
}

// Segments returns the timed segments, or nil for a flat translation.
func (t *Translation) Segments() []Segment {
	if t.structured == nil {
		return nil
	}
	return t.structured.Segments
}

// Language returns the detected source language, if known.
func (t *Translation) Language() string {
	if t.structured == nil {
		return ""
	}
	return t.structured.Language
}

// Flatten returns the translation as newline-joined text regardless of
// variant, mirroring Transcript.Flatten for the structured case.
func (t *Translation) Flatten() string {
	if t.structured != nil {
		return t.structured.Flatten()
	}
	return strings.TrimRight(t.flat, "\n")
}
