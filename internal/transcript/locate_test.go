package transcript

import "testing"

func overlappingSegments() []Segment {
	return []Segment{
		{Index: 0, Start: 0, End: 2, Text: "a"},
		{Index: 1, Start: 1, End: 3, Text: "b"},
		{Index: 2, Start: 4, End: 5, Text: "c"},
	}
}

func TestLocate(t *testing.T) {
	segs := overlappingSegments()

	tests := []struct {
		name   string
		t      float64
		want   int
		active bool
	}{
		{"start_of_first", 0, 0, true},
		{"overlap_prefers_lowest_index", 1.5, 0, true},
		{"exclusive_to_second", 2.5, 1, true},
		{"gap_between_segments", 3.5, 0, false},
		{"inclusive_end", 2.0, 0, true},
		{"inclusive_start_of_last", 4.0, 2, true},
		{"before_first", -1, 0, false},
		{"past_last", 9.9, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, ok := Locate(segs, tt.t)
			if ok != tt.active {
				t.Fatalf("Locate(%g) active = %v, want %v", tt.t, ok, tt.active)
			}
			if ok && idx != tt.want {
				t.Errorf("Locate(%g) = %d, want %d", tt.t, idx, tt.want)
			}
		})
	}

	t.Run("empty_segment_list", func(t *testing.T) {
		if _, ok := Locate(nil, 1); ok {
			t.Error("Locate on empty list should report no active segment")
		}
	})

	t.Run("zero_width_segment", func(t *testing.T) {
		segs := []Segment{{Index: 0, Start: 2, End: 2, Text: "x"}}
		if idx, ok := Locate(segs, 2); !ok || idx != 0 {
			t.Errorf("Locate(2) = %d,%v, want 0,true", idx, ok)
		}
	})
}
