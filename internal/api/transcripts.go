package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mhollis/scribesync/internal/database"
	"github.com/mhollis/scribesync/internal/session"
	"github.com/mhollis/scribesync/internal/transcript"
)

// TranscriptsHandler serves session transcripts and translations plus the
// durable transcript archive.
type TranscriptsHandler struct {
	reg *session.Registry
	db  *database.DB
}

func NewTranscriptsHandler(reg *session.Registry, db *database.DB) *TranscriptsHandler {
	return &TranscriptsHandler{reg: reg, db: db}
}

// TranscriptResponse is the wire shape of a segmented document.
type TranscriptResponse struct {
	Language string               `json:"language,omitempty"`
	Segments []transcript.Segment `json:"segments"`
}

func (h *TranscriptsHandler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	s, ok := getSession(w, r, h.reg)
	if !ok {
		return
	}

	tr, err := s.Transcript()
	if err != nil {
		writeSessionError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, TranscriptResponse{Language: tr.Language, Segments: tr.Segments})
}

// TranslationResponse carries either a segmented or a flat translation.
type TranslationResponse struct {
	Structured bool                 `json:"structured"`
	Language   string               `json:"language,omitempty"`
	Segments   []transcript.Segment `json:"segments,omitempty"`
	Text       string               `json:"text,omitempty"`
}

func (h *TranscriptsHandler) GetTranslation(w http.ResponseWriter, r *http.Request) {
	s, ok := getSession(w, r, h.reg)
	if !ok {
		return
	}

	tl, err := s.Translation()
	if err != nil {
		writeSessionError(w, err)
		return
	}

	resp := TranslationResponse{Structured: tl.IsStructured(), Language: tl.Language()}
	if tl.IsStructured() {
		resp.Segments = tl.Segments()
	} else {
		resp.Text = tl.Flatten()
	}
	WriteJSON(w, http.StatusOK, resp)
}

// SegmentMatch pairs a segment index with the byte spans that matched.
type SegmentMatch struct {
	Index int               `json:"index"`
	Spans []transcript.Span `json:"spans"`
}

// SearchResponse lists every occurrence of the query. Structured documents
// report matches per segment; a flat translation reports spans over the
// whole text.
type SearchResponse struct {
	Query     string            `json:"query"`
	Total     int               `json:"total"`
	Segments  []SegmentMatch    `json:"segments,omitempty"`
	FlatSpans []transcript.Span `json:"flat_spans,omitempty"`
}

// SearchTranscript handles GET /sessions/{id}/transcript/search?q=. The query
// is a literal, matched case-insensitively; every occurrence is reported.
func (h *TranscriptsHandler) SearchTranscript(w http.ResponseWriter, r *http.Request) {
	s, ok := getSession(w, r, h.reg)
	if !ok {
		return
	}

	q, ok := QueryString(r, "q")
	if !ok {
		WriteError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}

	tr, err := s.Transcript()
	if err != nil {
		writeSessionError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, segmentSearch(q, tr.Segments))
}

// SearchTranslation is the translation counterpart of SearchTranscript.
func (h *TranscriptsHandler) SearchTranslation(w http.ResponseWriter, r *http.Request) {
	s, ok := getSession(w, r, h.reg)
	if !ok {
		return
	}

	q, ok := QueryString(r, "q")
	if !ok {
		WriteError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}

	tl, err := s.Translation()
	if err != nil {
		writeSessionError(w, err)
		return
	}

	if tl.IsStructured() {
		WriteJSON(w, http.StatusOK, segmentSearch(q, tl.Segments()))
		return
	}

	spans := transcript.Matches(tl.Flatten(), q)
	WriteJSON(w, http.StatusOK, SearchResponse{Query: q, Total: len(spans), FlatSpans: spans})
}

func segmentSearch(q string, segs []transcript.Segment) SearchResponse {
	resp := SearchResponse{Query: q}
	for i, spans := range transcript.SegmentMatches(segs, q) {
		if len(spans) == 0 {
			continue
		}
		resp.Segments = append(resp.Segments, SegmentMatch{Index: i, Spans: spans})
		resp.Total += len(spans)
	}
	return resp
}

// ListArchive handles GET /transcripts?q=. It searches the durable archive of
// completed runs, newest first.
func (h *TranscriptsHandler) ListArchive(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		WriteError(w, http.StatusServiceUnavailable, "archive not available")
		return
	}

	p, err := ParsePagination(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	q, _ := QueryString(r, "q")

	recs, err := h.db.SearchTranscripts(r.Context(), q, p.Limit, p.Offset)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "archive search failed")
		return
	}
	if recs == nil {
		recs = []*database.TranscriptRecord{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"transcripts": recs,
		"limit":       p.Limit,
		"offset":      p.Offset,
	})
}

// GetArchived handles GET /transcripts/{assetID}.
func (h *TranscriptsHandler) GetArchived(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		WriteError(w, http.StatusServiceUnavailable, "archive not available")
		return
	}

	assetID := chi.URLParam(r, "assetID")
	rec, err := h.db.GetTranscriptByAsset(r.Context(), assetID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "transcript not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, "archive lookup failed")
		return
	}
	WriteJSON(w, http.StatusOK, rec)
}

func (h *TranscriptsHandler) Routes(r chi.Router) {
	r.Get("/sessions/{sessionID}/transcript", h.GetTranscript)
	r.Get("/sessions/{sessionID}/transcript/search", h.SearchTranscript)
	r.Get("/sessions/{sessionID}/translation", h.GetTranslation)
	r.Get("/sessions/{sessionID}/translation/search", h.SearchTranslation)
	r.Get("/transcripts", h.ListArchive)
	r.Get("/transcripts/{assetID}", h.GetArchived)
}
