package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/mhollis/scribesync/internal/liveview"
	"github.com/mhollis/scribesync/internal/metrics"
	"github.com/mhollis/scribesync/internal/session"
	"github.com/mhollis/scribesync/internal/transcript"
)

// EventsHandler streams the synchronized live view over SSE: one snapshot of
// the rendered segments up front, then an update whenever the active segment
// changes with the playback clock.
type EventsHandler struct {
	reg *session.Registry
}

func NewEventsHandler(reg *session.Registry) *EventsHandler {
	return &EventsHandler{reg: reg}
}

// Stream handles GET /sessions/{id}/events/stream?doc=&q=. doc selects the
// transcript (default) or a structured translation; q pre-applies a highlight
// query to the snapshot.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	s, ok := getSession(w, r, h.reg)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	segs, err := h.documentSegments(s, r.URL.Query().Get("doc"))
	if err != nil {
		writeSessionError(w, err)
		return
	}

	view := liveview.New(segs)
	if q, ok := QueryString(r, "q"); ok {
		view.SetQuery(q)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	log := hlog.FromRequest(r)
	log.Info().Str("session_id", s.ID).Msg("live view client connected")

	writeEvent(w, "snapshot", view.Snapshot())
	flusher.Flush()

	ch, cancel := s.Bridge().Subscribe()
	defer cancel()

	// Catch the view up to the current clock before streaming.
	if last, ok := s.Bridge().Last(); ok {
		if u, changed := view.Apply(last); changed {
			writeEvent(w, "sync", u)
			flusher.Flush()
		}
	}

	keepalive := time.NewTicker(15 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Info().Str("session_id", s.ID).Msg("live view client disconnected")
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if u, changed := view.Apply(ev); changed {
				writeEvent(w, "sync", u)
				flusher.Flush()
				metrics.SSEEventsPublishedTotal.Inc()
			}
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

// documentSegments resolves which segment sequence the view follows.
func (h *EventsHandler) documentSegments(s *session.Session, doc string) ([]transcript.Segment, error) {
	switch doc {
	case "", "transcript":
		tr, err := s.Transcript()
		if err != nil {
			return nil, err
		}
		return tr.Segments, nil
	case "translation":
		tl, err := s.Translation()
		if err != nil {
			return nil, err
		}
		if !tl.IsStructured() {
			return nil, session.ErrNotProcessed
		}
		return tl.Segments(), nil
	}
	return nil, session.ErrNotProcessed
}

func writeEvent(w http.ResponseWriter, event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}

func (h *EventsHandler) Routes(r chi.Router) {
	r.Get("/sessions/{sessionID}/events/stream", h.Stream)
}
