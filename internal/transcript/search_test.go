package transcript

import (
	"reflect"
	"testing"
)

func TestMatches(t *testing.T) {
	t.Run("all_occurrences_case_insensitive", func(t *testing.T) {
		spans := Matches("The cat and the CAT", "cat")
		want := []Span{{4, 7}, {16, 19}}
		if !reflect.DeepEqual(spans, want) {
			t.Errorf("spans = %v, want %v", spans, want)
		}
	})

	t.Run("non_overlapping", func(t *testing.T) {
		spans := Matches("aaaa", "aa")
		want := []Span{{0, 2}, {2, 4}}
		if !reflect.DeepEqual(spans, want) {
			t.Errorf("spans = %v, want %v", spans, want)
		}
	})

	t.Run("empty_query_no_highlight", func(t *testing.T) {
		if spans := Matches("anything", ""); spans != nil {
			t.Errorf("spans = %v, want nil", spans)
		}
	})

	t.Run("regex_metacharacters_are_literal", func(t *testing.T) {
		spans := Matches("price (usd)", "(usd)")
		want := []Span{{6, 11}}
		if !reflect.DeepEqual(spans, want) {
			t.Errorf("spans = %v, want %v", spans, want)
		}
		if Matches("aaa", ".*") != nil {
			t.Error(".* should not match as a pattern")
		}
	})

	t.Run("multibyte_text", func(t *testing.T) {
		text := "über Über"
		spans := Matches(text, "über")
		if len(spans) != 2 {
			t.Fatalf("got %d spans, want 2", len(spans))
		}
		if text[spans[1].Start:spans[1].End] != "Über" {
			t.Errorf("second span = %q", text[spans[1].Start:spans[1].End])
		}
	})
}

func TestFirstMatch(t *testing.T) {
	t.Run("only_first_occurrence", func(t *testing.T) {
		span, ok := FirstMatch("Hello hello", "hello")
		if !ok {
			t.Fatal("expected a match")
		}
		if span.Start != 0 || span.End != 5 {
			t.Errorf("span = %v, want [0,5)", span)
		}
	})

	t.Run("no_match", func(t *testing.T) {
		if _, ok := FirstMatch("abc", "zzz"); ok {
			t.Error("unexpected match")
		}
	})

	t.Run("empty_query", func(t *testing.T) {
		if _, ok := FirstMatch("abc", ""); ok {
			t.Error("empty query should not match")
		}
	})
}

func TestSegmentMatches(t *testing.T) {
	segs := []Segment{
		{Index: 0, Start: 0, End: 1, Text: " the quick fox "},
		{Index: 1, Start: 1, End: 2, Text: "lazy dog"},
	}

	t.Run("per_segment_spans_over_trimmed_text", func(t *testing.T) {
		spans := SegmentMatches(segs, "the")
		if len(spans) != 2 {
			t.Fatalf("got %d span lists, want 2", len(spans))
		}
		// Offsets are relative to the trimmed display text.
		if !reflect.DeepEqual(spans[0], []Span{{0, 3}}) {
			t.Errorf("segment 0 spans = %v", spans[0])
		}
		if spans[1] != nil {
			t.Errorf("segment 1 spans = %v, want nil (renders unchanged)", spans[1])
		}
	})

	t.Run("empty_query_is_idempotent", func(t *testing.T) {
		before := make([]string, len(segs))
		for i, s := range segs {
			before[i] = s.Text
		}
		if SegmentMatches(segs, "") != nil {
			t.Error("empty query should yield nil")
		}
		for i, s := range segs {
			if s.Text != before[i] {
				t.Errorf("segment %d text mutated", i)
			}
		}
	})
}
