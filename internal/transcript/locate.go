package transcript

// Locate returns the index of the first segment whose inclusive [Start, End]
// interval contains t. When segments overlap, the lowest index wins; callers
// depend on that tie-break being stable for reproducible highlighting.
// Returns false when t falls before the first segment or in a gap, which must
// clear any previous highlight.
//
// Linear scan: transcripts run to hundreds of segments and this is called per
// playback event, which is well within budget.
func Locate(segs []Segment, t float64) (int, bool) {
	for i, s := range segs {
		if t >= s.Start && t <= s.End {
			return i, true
		}
	}
	return 0, false
}
