package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mhollis/scribesync/internal/session"
	"github.com/mhollis/scribesync/internal/transcript"
)

// BuffersHandler serves the editable text panels. A buffer is seeded from the
// flattened transcript or translation on first access, then edits live only
// in the buffer until the asset changes.
type BuffersHandler struct {
	reg *session.Registry
}

func NewBuffersHandler(reg *session.Registry) *BuffersHandler {
	return &BuffersHandler{reg: reg}
}

func (h *BuffersHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := getSession(w, r, h.reg)
	if !ok {
		return
	}

	buf, err := s.Buffer(chi.URLParam(r, "bufferName"))
	if err != nil {
		writeSessionError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, buf)
}

func (h *BuffersHandler) Update(w http.ResponseWriter, r *http.Request) {
	s, ok := getSession(w, r, h.reg)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	buf, err := s.UpdateBuffer(chi.URLParam(r, "bufferName"), req.Content)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, buf)
}

// BufferSearchResponse reports only the first occurrence; the editor scrolls
// to it rather than decorating the whole panel.
type BufferSearchResponse struct {
	Query string           `json:"query"`
	Found bool             `json:"found"`
	Span  *transcript.Span `json:"span,omitempty"`
}

// Search handles GET /sessions/{id}/buffers/{name}/search?q=. Matching is the
// same case-insensitive literal scan as segment search, but stops at the
// first hit.
func (h *BuffersHandler) Search(w http.ResponseWriter, r *http.Request) {
	s, ok := getSession(w, r, h.reg)
	if !ok {
		return
	}

	q, ok := QueryString(r, "q")
	if !ok {
		WriteError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}

	buf, err := s.Buffer(chi.URLParam(r, "bufferName"))
	if err != nil {
		writeSessionError(w, err)
		return
	}

	resp := BufferSearchResponse{Query: q}
	if span, found := transcript.FirstMatch(buf.Content, q); found {
		resp.Found = true
		resp.Span = &span
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (h *BuffersHandler) Routes(r chi.Router) {
	r.Get("/sessions/{sessionID}/buffers/{bufferName}", h.Get)
	r.Put("/sessions/{sessionID}/buffers/{bufferName}", h.Update)
	r.Get("/sessions/{sessionID}/buffers/{bufferName}/search", h.Search)
}
