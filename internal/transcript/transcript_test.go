package transcript

import (
	"errors"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("assigns_indexes_in_order", func(t *testing.T) {
		tr, err := New([]RawSegment{
			{Start: 0, End: 2, Text: "first"},
			{Start: 2, End: 4, Text: "second"},
		}, "en")
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		for i, s := range tr.Segments {
			if s.Index != i {
				t.Errorf("segment %d has Index %d", i, s.Index)
			}
		}
		if tr.Language != "en" {
			t.Errorf("Language = %q, want en", tr.Language)
		}
	})

	t.Run("rejects_start_after_end", func(t *testing.T) {
		_, err := New([]RawSegment{
			{Start: 0, End: 1, Text: "ok"},
			{Start: 3, End: 2, Text: "bad"},
		}, "en")
		var mse *MalformedSegmentError
		if !errors.As(err, &mse) {
			t.Fatalf("err = %v, want MalformedSegmentError", err)
		}
		if mse.Index != 1 {
			t.Errorf("Index = %d, want 1", mse.Index)
		}
	})

	t.Run("rejects_negative_start", func(t *testing.T) {
		_, err := New([]RawSegment{{Start: -0.5, End: 1, Text: "x"}}, "en")
		var mse *MalformedSegmentError
		if !errors.As(err, &mse) {
			t.Fatalf("err = %v, want MalformedSegmentError", err)
		}
	})

	t.Run("translation_field_fallback", func(t *testing.T) {
		tr, err := New([]RawSegment{{Start: 0, End: 1, Translation: "hallo"}}, "de")
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if tr.Segments[0].Text != "hallo" {
			t.Errorf("Text = %q, want hallo", tr.Segments[0].Text)
		}
	})

	t.Run("equal_start_and_end_allowed", func(t *testing.T) {
		if _, err := New([]RawSegment{{Start: 1.5, End: 1.5, Text: "point"}}, ""); err != nil {
			t.Fatalf("New: %v", err)
		}
	})
}

func TestFlatten(t *testing.T) {
	t.Run("line_count_equals_segment_count", func(t *testing.T) {
		tr, _ := New([]RawSegment{
			{Start: 0, End: 1, Text: " hello "},
			{Start: 1, End: 2, Text: "   "},
			{Start: 2, End: 3, Text: "world"},
		}, "en")
		got := tr.Flatten()
		lines := strings.Split(got, "\n")
		if len(lines) != len(tr.Segments) {
			t.Fatalf("flatten produced %d lines for %d segments", len(lines), len(tr.Segments))
		}
		if lines[0] != "hello" || lines[1] != "" || lines[2] != "world" {
			t.Errorf("lines = %q", lines)
		}
	})

	t.Run("empty_transcript", func(t *testing.T) {
		tr, _ := New(nil, "en")
		if tr.Flatten() != "" {
			t.Errorf("Flatten = %q, want empty", tr.Flatten())
		}
	})
}

func TestTranslationVariants(t *testing.T) {
	t.Run("structured", func(t *testing.T) {
		tr, _ := New([]RawSegment{
			{Start: 0, End: 1, Text: "one"},
			{Start: 1, End: 2, Text: "two"},
		}, "es")
		tl := StructuredTranslation(tr)
		if !tl.IsStructured() {
			t.Error("IsStructured = false")
		}
		if len(tl.Segments()) != 2 {
			t.Errorf("Segments len = %d", len(tl.Segments()))
		}
		if tl.Flatten() != "one\ntwo" {
			t.Errorf("Flatten = %q", tl.Flatten())
		}
		if tl.Language() != "es" {
			t.Errorf("Language = %q, want es", tl.Language())
		}
	})

	t.Run("flat", func(t *testing.T) {
		tl := FlatTranslation("plain text\n")
		if tl.IsStructured() {
			t.Error("IsStructured = true")
		}
		if tl.Segments() != nil {
			t.Error("Segments should be nil for flat translation")
		}
		if tl.Flatten() != "plain text" {
			t.Errorf("Flatten = %q", tl.Flatten())
		}
	})
}
