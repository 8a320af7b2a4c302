package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mhollis/scribesync/internal/export"
	"github.com/mhollis/scribesync/internal/session"
)

// ExportHandler renders an edit buffer into a downloadable document.
type ExportHandler struct {
	reg     *session.Registry
	exports *export.Registry
}

func NewExportHandler(reg *session.Registry, exports *export.Registry) *ExportHandler {
	return &ExportHandler{reg: reg, exports: exports}
}

// Export handles POST /sessions/{id}/export. The buffer content is rendered
// as-is: whatever edits the user made are what ships.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	s, ok := getSession(w, r, h.reg)
	if !ok {
		return
	}

	var req struct {
		Buffer  string               `json:"buffer"`
		Format  string               `json:"format"`
		Display export.DisplayConfig `json:"display"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Buffer == "" {
		req.Buffer = session.BufferTranscript
	}
	if req.Format == "" {
		req.Format = "txt"
	}

	buf, err := s.Buffer(req.Buffer)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	out, err := h.exports.Render(req.Format, export.Request{
		Text:    buf.Content,
		Display: req.Display,
	})
	if err != nil {
		if errors.Is(err, export.ErrUnknownFormat) {
			WriteErrorDetail(w, http.StatusBadRequest, "unknown export format", req.Format)
			return
		}
		WriteError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Filename))
	w.WriteHeader(http.StatusOK)
	w.Write(out.Data)
}

// Formats handles GET /export/formats.
func (h *ExportHandler) Formats(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{"formats": h.exports.Formats()})
}

func (h *ExportHandler) Routes(r chi.Router) {
	r.Post("/sessions/{sessionID}/export", h.Export)
	r.Get("/export/formats", h.Formats)
}
