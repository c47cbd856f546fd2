package api

import (
	"net/http"
	"time"

	"github.com/meetscribe/ms-engine/internal/database"
	"github.com/meetscribe/ms-engine/internal/storage"
)

type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Checks        map[string]string `json:"checks"`
}

type HealthHandler struct {
	db        *database.DB
	store     storage.ObjectStore
	provider  string
	version   string
	startTime time.Time
}

func NewHealthHandler(db *database.DB, store storage.ObjectStore, provider, version string, startTime time.Time) *HealthHandler {
	return &HealthHandler{
		db:        db,
		store:     store,
		provider:  provider,
		version:   version,
		startTime: startTime,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status := "healthy"
	httpStatus := http.StatusOK

	if h.db != nil {
		if err := h.db.HealthCheck(r.Context()); err != nil {
			checks["database"] = "error"
			status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "not_configured"
	}

	if h.store != nil {
		checks["storage"] = h.store.Type()
	} else {
		checks["storage"] = "not_configured"
	}

	if h.provider != "" {
		checks["transcription"] = h.provider
	} else {
		checks["transcription"] = "not_configured"
	}

	WriteJSON(w, httpStatus, HealthResponse{
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Checks:        checks,
	})
}
