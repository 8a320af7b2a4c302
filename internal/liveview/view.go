// Package liveview holds the reactive state of one live transcript panel: it
// consumes playback events, maps time to the active segment, and renders
// search highlighting, without ever mutating the transcript itself.
package liveview

import (
	"github.com/mhollis/scribesync/internal/playback"
	"github.com/mhollis/scribesync/internal/transcript"
)

// NoActiveSegment is the active index when playback sits before the first
// segment or in a gap. Views clear any previous highlight on seeing it.
const NoActiveSegment = -1

// RenderedSegment is one segment prepared for display: trimmed text plus any
// search-match spans into that text.
type RenderedSegment struct {
	Index int               `json:"index"`
	Start float64           `json:"start"`
	End   float64           `json:"end"`
	Text  string            `json:"text"`
	Spans []transcript.Span `json:"spans,omitempty"`
}

// Update reports a change of active segment to the display surface.
type Update struct {
	ActiveIndex int     `json:"active_index"`
	CurrentTime float64 `json:"current_time"`
}

// View tracks the active segment and search query for one subscriber of the
// playback bridge. It is not safe for concurrent use; each consumer goroutine
// owns its view.
type View struct {
	segments []transcript.Segment
	query    string
	active   int
}

// New creates a view over the given segments with no active highlight.
func New(segments []transcript.Segment) *View {
	return &View{segments: segments, active: NoActiveSegment}
}

// SetQuery updates the search query. Sync state is untouched: searching never
// disturbs the active-segment highlight.
func (v *View) SetQuery(q string) {
	v.query = q
}

// ActiveIndex returns the current active segment, or NoActiveSegment.
func (v *View) ActiveIndex() int {
	return v.active
}

// Apply consumes one playback event in delivery order and reports whether the
// active segment changed. Events are idempotent per timestamp, so repeats for
// the same position produce no update.
func (v *View) Apply(e playback.Event) (Update, bool) {
	if e.Type != playback.EventTime {
		return Update{}, false
	}
	idx, ok := transcript.Locate(v.segments, e.CurrentTime)
	if !ok {
		idx = NoActiveSegment
	}
	if idx == v.active {
		return Update{}, false
	}
	v.active = idx
	return Update{ActiveIndex: idx, CurrentTime: e.CurrentTime}, true
}

// Snapshot renders every segment with the current query's match spans, for
// the initial paint of a panel. Segments without a match carry no spans and
// render byte-identical to the unhighlighted text.
func (v *View) Snapshot() []RenderedSegment {
	spans := transcript.SegmentMatches(v.segments, v.query)
	out := make([]RenderedSegment, len(v.segments))
	for i, s := range v.segments {
		rs := RenderedSegment{
			Index: s.Index,
			Start: s.Start,
			End:   s.End,
			Text:  s.DisplayText(),
		}
		if spans != nil {
			rs.Spans = spans[i]
		}
		out[i] = rs
	}
	return out
}
