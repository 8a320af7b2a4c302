package api

import (
	"net/http"
	"time"

	"github.com/mhollis/scribesync/internal/database"
	"github.com/mhollis/scribesync/internal/ingest"
	"github.com/mhollis/scribesync/internal/mqttclient"
	"github.com/mhollis/scribesync/internal/session"
	"github.com/mhollis/scribesync/internal/transcribe"
)

type HealthResponse struct {
	Status         string                 `json:"status"`
	Version        string                 `json:"version"`
	UptimeSeconds  int64                  `json:"uptime_seconds"`
	ActiveSessions int                    `json:"active_sessions"`
	Checks         map[string]string      `json:"checks"`
	Watcher        *ingest.Status         `json:"watcher,omitempty"`
	BatchQueue     *transcribe.QueueStats `json:"batch_queue,omitempty"`
}

type HealthHandler struct {
	db        *database.DB
	mqtt      *mqttclient.Client
	watcher   *ingest.Watcher
	pool      *transcribe.WorkerPool
	reg       *session.Registry
	version   string
	startTime time.Time
}

func NewHealthHandler(db *database.DB, mqtt *mqttclient.Client, watcher *ingest.Watcher, pool *transcribe.WorkerPool, reg *session.Registry, version string, startTime time.Time) *HealthHandler {
	return &HealthHandler{
		db:        db,
		mqtt:      mqtt,
		watcher:   watcher,
		pool:      pool,
		reg:       reg,
		version:   version,
		startTime: startTime,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status := "healthy"
	httpStatus := http.StatusOK

	if err := h.db.HealthCheck(r.Context()); err != nil {
		checks["database"] = "error"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	if h.mqtt != nil {
		if h.mqtt.IsConnected() {
			checks["mqtt"] = "ok"
		} else {
			checks["mqtt"] = "disconnected"
			if status == "healthy" {
				status = "degraded"
			}
		}
	} else {
		checks["mqtt"] = "not_configured"
	}

	resp := HealthResponse{
		Status:         status,
		Version:        h.version,
		UptimeSeconds:  int64(time.Since(h.startTime).Seconds()),
		ActiveSessions: h.reg.Count(),
		Checks:         checks,
	}

	if h.watcher != nil {
		ws := h.watcher.CurrentStatus()
		checks["file_watcher"] = ws.Status
		resp.Watcher = &ws
	}
	if h.pool != nil {
		qs := h.pool.Stats()
		resp.BatchQueue = &qs
	}

	WriteJSON(w, httpStatus, resp)
}
