package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/mhollis/scribesync/internal/session"
	"github.com/mhollis/scribesync/internal/storage"
	"github.com/mhollis/scribesync/internal/transcribe"
)

// ProcessHandler triggers transcription runs for a session's loaded asset.
type ProcessHandler struct {
	reg    *session.Registry
	runner *transcribe.Runner
	store  storage.MediaStore
	log    zerolog.Logger
}

func NewProcessHandler(reg *session.Registry, runner *transcribe.Runner, store storage.MediaStore, log zerolog.Logger) *ProcessHandler {
	return &ProcessHandler{
		reg:    reg,
		runner: runner,
		store:  store,
		log:    log.With().Str("handler", "process").Logger(),
	}
}

// Process handles POST /sessions/{sessionID}/process. The run is synchronous:
// the client holds the request open until the transcript is installed. At most
// one run per session may be in flight.
func (h *ProcessHandler) Process(w http.ResponseWriter, r *http.Request) {
	s, ok := getSession(w, r, h.reg)
	if !ok {
		return
	}

	asset := s.Asset()
	if asset == nil {
		WriteError(w, http.StatusConflict, "no media loaded")
		return
	}

	mediaPath := h.store.LocalPath(asset.Key)
	if mediaPath == "" {
		WriteError(w, http.StatusConflict, "media not available on local disk")
		return
	}

	if err := h.runner.Process(r.Context(), s, mediaPath); err != nil {
		var terr *transcribe.TranscriptionError
		switch {
		case errors.Is(err, session.ErrProcessingInFlight):
			WriteError(w, http.StatusConflict, "transcription already in flight")
		case errors.Is(err, session.ErrAssetReplaced):
			WriteError(w, http.StatusConflict, "media replaced during transcription, result discarded")
		case errors.As(err, &terr):
			h.log.Error().Err(err).Str("session_id", s.ID).Msg("transcription failed")
			WriteErrorDetail(w, http.StatusBadGateway, "transcription failed", terr.Err.Error())
		default:
			h.log.Error().Err(err).Str("session_id", s.ID).Msg("transcription failed")
			WriteError(w, http.StatusInternalServerError, "transcription failed")
		}
		return
	}

	WriteJSON(w, http.StatusOK, sessionResponse(s))
}

func (h *ProcessHandler) Routes(r chi.Router) {
	r.Post("/sessions/{sessionID}/process", h.Process)
}
