package transcript

import (
	"unicode"
	"unicode/utf8"
)

// Span is a half-open byte range [Start, End) into the searched text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Matches returns every non-overlapping case-insensitive occurrence of query
// in text, left to right. The query is treated as a literal substring, never a
// pattern, so user input cannot produce a malformed matcher. An empty query
// yields nil: no highlighting, original render.
func Matches(text, query string) []Span {
	if query == "" {
		return nil
	}
	qr := []rune(query)
	var spans []Span
	i := 0
	for i < len(text) {
		if end, ok := matchAt(text, i, qr); ok {
			spans = append(spans, Span{Start: i, End: end})
			i = end
			continue
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	return spans
}

// FirstMatch returns only the first case-insensitive occurrence of query in
// text. Used by the editable panels, which mark a single span in the preview.
func FirstMatch(text, query string) (Span, bool) {
	if query == "" {
		return Span{}, false
	}
	qr := []rune(query)
	i := 0
	for i < len(text) {
		if end, ok := matchAt(text, i, qr); ok {
			return Span{Start: i, End: end}, true
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	return Span{}, false
}

// SegmentMatches computes match spans per segment over each segment's trimmed
// display text. Segments without a match get a nil span list and render
// unchanged. Returns nil for an empty query.
func SegmentMatches(segs []Segment, query string) [][]Span {
	if query == "" {
		return nil
	}
	out := make([][]Span, len(segs))
	for i, s := range segs {
		out[i] = Matches(s.DisplayText(), query)
	}
	return out
}

// matchAt reports whether the runes of q match text starting at byte offset
// start, comparing case-insensitively rune by rune. Returns the end offset of
// the match in text.
func matchAt(text string, start int, q []rune) (int, bool) {
	i := start
	for _, want := range q {
		r, size := utf8.DecodeRuneInString(text[i:])
		if size == 0 {
			return 0, false
		}
		if unicode.ToLower(r) != unicode.ToLower(want) {
			return 0, false
		}
		i += size
	}
	return i, true
}
