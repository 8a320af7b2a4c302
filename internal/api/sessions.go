package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mhollis/scribesync/internal/session"
)

// SessionsHandler manages editor session lifecycle.
type SessionsHandler struct {
	reg *session.Registry
}

func NewSessionsHandler(reg *session.Registry) *SessionsHandler {
	return &SessionsHandler{reg: reg}
}

// SessionResponse is the wire shape of a session.
type SessionResponse struct {
	ID         string         `json:"id"`
	Mode       session.Mode   `json:"mode"`
	Asset      *session.Asset `json:"asset"`
	Processing bool           `json:"processing"`
	CreatedAt  time.Time      `json:"created_at"`
}

func sessionResponse(s *session.Session) SessionResponse {
	return SessionResponse{
		ID:         s.ID,
		Mode:       s.Mode(),
		Asset:      s.Asset(),
		Processing: s.Processing(),
		CreatedAt:  s.CreatedAt(),
	}
}

func (h *SessionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"mode"`
	}
	if r.ContentLength > 0 {
		if err := DecodeJSON(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	mode, err := session.ParseMode(req.Mode)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	s := h.reg.Create(mode)
	WriteJSON(w, http.StatusCreated, sessionResponse(s))
}

func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := getSession(w, r, h.reg)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, sessionResponse(s))
}

func (h *SessionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	h.reg.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

// SetMode switches the processing mode. A mode change discards the loaded
// asset and everything derived from it.
func (h *SessionsHandler) SetMode(w http.ResponseWriter, r *http.Request) {
	s, ok := getSession(w, r, h.reg)
	if !ok {
		return
	}

	var req struct {
		Mode string `json:"mode"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	mode, err := session.ParseMode(req.Mode)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	changed := s.SetMode(mode)
	WriteJSON(w, http.StatusOK, struct {
		SessionResponse
		Changed bool `json:"changed"`
	}{sessionResponse(s), changed})
}

func (h *SessionsHandler) Routes(r chi.Router) {
	r.Post("/sessions", h.Create)
	r.Get("/sessions/{sessionID}", h.Get)
	r.Delete("/sessions/{sessionID}", h.Delete)
	r.Put("/sessions/{sessionID}/mode", h.SetMode)
}

// getSession resolves the sessionID path parameter, writing a 404 when the
// session does not exist. It also bumps the idle clock.
func getSession(w http.ResponseWriter, r *http.Request, reg *session.Registry) (*session.Session, bool) {
	id := chi.URLParam(r, "sessionID")
	s, ok := reg.Get(id)
	if !ok {
		WriteError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	s.Touch()
	return s, true
}

// writeSessionError maps session package sentinels onto HTTP statuses.
func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNoActiveAsset):
		WriteError(w, http.StatusConflict, "no media loaded")
	case errors.Is(err, session.ErrNotProcessed):
		WriteError(w, http.StatusConflict, "not processed yet")
	case errors.Is(err, session.ErrProcessingInFlight):
		WriteError(w, http.StatusConflict, "transcription already in flight")
	case errors.Is(err, session.ErrUnknownBuffer):
		WriteError(w, http.StatusNotFound, "unknown buffer")
	case errors.Is(err, session.ErrStaleBuffer), errors.Is(err, session.ErrAssetReplaced):
		WriteError(w, http.StatusConflict, err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
