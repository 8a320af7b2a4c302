package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/mhollis/scribesync/internal/config"
	"github.com/mhollis/scribesync/internal/database"
	"github.com/mhollis/scribesync/internal/export"
	"github.com/mhollis/scribesync/internal/ingest"
	"github.com/mhollis/scribesync/internal/metrics"
	"github.com/mhollis/scribesync/internal/mqttclient"
	"github.com/mhollis/scribesync/internal/session"
	"github.com/mhollis/scribesync/internal/storage"
	"github.com/mhollis/scribesync/internal/transcribe"
)

// Deps collects everything the HTTP surface needs. MQTT, watcher, and pool
// are optional.
type Deps struct {
	DB      *database.DB
	Store   storage.MediaStore
	Reg     *session.Registry
	Runner  *transcribe.Runner
	Exports *export.Registry
	MQTT    *mqttclient.Client
	Watcher *ingest.Watcher
	Pool    *transcribe.WorkerPool
	Version string
}

type Server struct {
	http *http.Server
	log  zerolog.Logger
}

func NewServer(cfg *config.Config, deps Deps, log zerolog.Logger) *Server {
	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestID)
	r.Use(Recoverer)
	r.Use(CORS)
	r.Use(Logger(log))

	// Health and metrics — no auth
	health := NewHealthHandler(deps.DB, deps.MQTT, deps.Watcher, deps.Pool, deps.Reg, deps.Version, time.Now())
	r.Get("/api/v1/health", health.ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())

	// Authenticated API
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuth(cfg.AuthToken))
		r.Use(metrics.InstrumentHandler)

		NewSessionsHandler(deps.Reg).Routes(r)
		NewMediaHandler(deps.Reg, deps.Store, log).Routes(r)
		NewProcessHandler(deps.Reg, deps.Runner, deps.Store, log).Routes(r)
		NewTranscriptsHandler(deps.Reg, deps.DB).Routes(r)
		NewBuffersHandler(deps.Reg).Routes(r)
		NewExportHandler(deps.Reg, deps.Exports).Routes(r)
		NewPlaybackHandler(deps.Reg, log).Routes(r)
		NewEventsHandler(deps.Reg).Routes(r)
	})

	return &Server{
		http: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		log: log,
	}
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.http.Shutdown(ctx)
}
