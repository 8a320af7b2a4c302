package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/mhollis/scribesync/internal/metrics"
	"github.com/mhollis/scribesync/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Auth happens via bearer token, not origin.
		return true
	},
}

// PlaybackHandler bridges the browser's media element and the per-session
// clock. A "player" socket reports playback events in; a "view" socket
// receives the coalesced clock stream out.
type PlaybackHandler struct {
	reg *session.Registry
	log zerolog.Logger
}

func NewPlaybackHandler(reg *session.Registry, log zerolog.Logger) *PlaybackHandler {
	return &PlaybackHandler{
		reg: reg,
		log: log.With().Str("handler", "playback").Logger(),
	}
}

// wsEvent is the wire shape of one playback report, matching what a media
// element emits: play, pause, seeking, seeked, and periodic time updates.
type wsEvent struct {
	Type        string  `json:"type"`
	CurrentTime float64 `json:"currentTime"`
}

// Socket handles GET /sessions/{id}/playback/ws?role=player|view.
func (h *PlaybackHandler) Socket(w http.ResponseWriter, r *http.Request) {
	s, ok := getSession(w, r, h.reg)
	if !ok {
		return
	}

	role := r.URL.Query().Get("role")
	if role == "" {
		role = "view"
	}
	if role != "player" && role != "view" {
		WriteError(w, http.StatusBadRequest, "role must be player or view")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	log := h.log.With().Str("session_id", s.ID).Str("role", role).Logger()
	log.Info().Msg("playback socket connected")

	if role == "player" {
		h.readPlayer(conn, s, log)
	} else {
		h.writeView(conn, r, s, log)
	}
	log.Info().Msg("playback socket closed")
}

// readPlayer consumes media element events and drives the session player.
func (h *PlaybackHandler) readPlayer(conn *websocket.Conn, s *session.Session, log zerolog.Logger) {
	player := s.Player()
	for {
		var ev wsEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("playback socket read error")
			}
			return
		}

		metrics.PlaybackEventsTotal.WithLabelValues("ws").Inc()
		s.Touch()

		switch ev.Type {
		case "play":
			player.Sync(ev.CurrentTime)
			player.Play()
		case "pause":
			player.Pause()
		case "seeking":
			player.BeginSeek()
		case "seeked":
			player.EndSeek(ev.CurrentTime)
		case "time", "timeupdate":
			player.Sync(ev.CurrentTime)
		default:
			log.Debug().Str("type", ev.Type).Msg("unknown playback event type")
		}
	}
}

// writeView forwards the clock stream to the socket. The subscription mailbox
// coalesces, so a slow socket only ever sees the freshest position.
func (h *PlaybackHandler) writeView(conn *websocket.Conn, r *http.Request, s *session.Session, log zerolog.Logger) {
	ch, cancel := s.Bridge().Subscribe()
	defer cancel()

	// Send the last known position immediately so late joiners sync up.
	if last, ok := s.Bridge().Last(); ok {
		if err := conn.WriteJSON(last); err != nil {
			return
		}
	}

	// Reader goroutine: drains control frames and unblocks on close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-done:
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}

// StateResponse reports the current clock.
type StateResponse struct {
	State    string  `json:"state"`
	Position float64 `json:"position"`
}

func (h *PlaybackHandler) GetState(w http.ResponseWriter, r *http.Request) {
	s, ok := getSession(w, r, h.reg)
	if !ok {
		return
	}
	p := s.Player()
	WriteJSON(w, http.StatusOK, StateResponse{State: p.State().String(), Position: p.Position()})
}

// Control handles the REST fallback for clients without WebSocket support.
func (h *PlaybackHandler) Control(w http.ResponseWriter, r *http.Request) {
	s, ok := getSession(w, r, h.reg)
	if !ok {
		return
	}

	action := chi.URLParam(r, "action")
	player := s.Player()

	switch action {
	case "play":
		if t, ok := QueryFloat(r, "time"); ok {
			player.Sync(t)
		}
		player.Play()
	case "pause":
		player.Pause()
	case "seek":
		t, ok := QueryFloat(r, "time")
		if !ok {
			WriteError(w, http.StatusBadRequest, "missing query parameter time")
			return
		}
		player.BeginSeek()
		player.EndSeek(t)
	case "sync":
		t, ok := QueryFloat(r, "time")
		if !ok {
			WriteError(w, http.StatusBadRequest, "missing query parameter time")
			return
		}
		player.Sync(t)
	default:
		WriteError(w, http.StatusNotFound, "unknown playback action")
		return
	}

	metrics.PlaybackEventsTotal.WithLabelValues("rest").Inc()
	WriteJSON(w, http.StatusOK, StateResponse{State: player.State().String(), Position: player.Position()})
}

func (h *PlaybackHandler) Routes(r chi.Router) {
	r.Get("/sessions/{sessionID}/playback", h.GetState)
	r.Get("/sessions/{sessionID}/playback/ws", h.Socket)
	r.Post("/sessions/{sessionID}/playback/{action}", h.Control)
}
