package api

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mhollis/scribesync/internal/session"
	"github.com/mhollis/scribesync/internal/storage"
)

// maxUploadBytes caps media uploads at 2 GiB.
const maxUploadBytes = 2 << 30

// MediaHandler manages the media asset attached to a session.
type MediaHandler struct {
	reg   *session.Registry
	store storage.MediaStore
	log   zerolog.Logger
}

func NewMediaHandler(reg *session.Registry, store storage.MediaStore, log zerolog.Logger) *MediaHandler {
	return &MediaHandler{
		reg:   reg,
		store: store,
		log:   log.With().Str("handler", "media").Logger(),
	}
}

// Upload handles POST /sessions/{sessionID}/media. Loading a new file
// replaces the current asset and discards all derived state.
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	s, ok := getSession(w, r, h.reg)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("media")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "missing media file field")
		return
	}
	defer file.Close()

	mediaType := storage.MediaType(header.Filename)
	if !storage.Allowed(mediaType) {
		WriteErrorDetail(w, http.StatusUnsupportedMediaType,
			"unsupported media type", fmt.Sprintf("type %q is not accepted", mediaType))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "failed to read media file")
		return
	}
	if len(data) == 0 {
		WriteError(w, http.StatusBadRequest, "empty media file")
		return
	}

	asset := &session.Asset{
		ID:         uuid.NewString(),
		Name:       storage.SanitizeFilename(header.Filename),
		MediaType:  mediaType,
		UploadedAt: time.Now(),
	}
	asset.Key = asset.ID + "_" + asset.Name

	if err := h.store.Save(r.Context(), asset.Key, data, storage.ContentType(mediaType)); err != nil {
		h.log.Error().Err(err).Str("key", asset.Key).Msg("media save failed")
		WriteError(w, http.StatusInternalServerError, "failed to store media")
		return
	}

	// Replacing the asset wipes transcript, translation, buffers, and the
	// playback clock in one shot.
	s.SetAsset(asset)

	h.log.Info().
		Str("session_id", s.ID).
		Str("asset_id", asset.ID).
		Str("name", asset.Name).
		Int("size", len(data)).
		Msg("media uploaded")

	WriteJSON(w, http.StatusCreated, sessionResponse(s))
}

// Serve streams the current asset's media with the MIME type the browser
// player expects.
func (h *MediaHandler) Serve(w http.ResponseWriter, r *http.Request) {
	s, ok := getSession(w, r, h.reg)
	if !ok {
		return
	}

	asset := s.Asset()
	if asset == nil {
		WriteError(w, http.StatusNotFound, "no media loaded")
		return
	}

	// Local files go through ServeFile for range request support.
	if path := h.store.LocalPath(asset.Key); path != "" {
		w.Header().Set("Content-Type", storage.ContentType(asset.MediaType))
		http.ServeFile(w, r, path)
		return
	}

	rc, err := h.store.Open(r.Context(), asset.Key)
	if err != nil {
		WriteError(w, http.StatusNotFound, "media not available")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", storage.ContentType(asset.MediaType))
	io.Copy(w, rc)
}

// Clear removes the current asset and every piece of derived state.
func (h *MediaHandler) Clear(w http.ResponseWriter, r *http.Request) {
	s, ok := getSession(w, r, h.reg)
	if !ok {
		return
	}

	if asset := s.Asset(); asset != nil {
		if err := h.store.Delete(r.Context(), asset.Key); err != nil {
			h.log.Warn().Err(err).Str("key", asset.Key).Msg("media delete failed")
		}
	}
	s.ClearAsset()

	WriteJSON(w, http.StatusOK, sessionResponse(s))
}

func (h *MediaHandler) Routes(r chi.Router) {
	r.Post("/sessions/{sessionID}/media", h.Upload)
	r.Get("/sessions/{sessionID}/media", h.Serve)
	r.Delete("/sessions/{sessionID}/media", h.Clear)
}
