package server

import (
	"net/http"
	"time"
)

// HealthStatus represents operational status for the /health endpoint.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Uptime    string                 `json:"uptime"`
	Library   string                 `json:"library"`
	Catalog   string                 `json:"catalog"`
	Session   string                 `json:"session"`
	Clients   int                    `json:"websocketClients"`
	Tracks    int                    `json:"playlistTracks"`
	Albums    int                    `json:"albums"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// handleHealthCheck returns basic liveness + dependency checks.
func (ms *MusicServer) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	status := ms.controller.Status()

	health := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Uptime:    time.Since(ms.startedAt).Round(time.Second).String(),
		Library:   "ok",
		Catalog:   ms.config.Catalog.Source,
		Session:   status.State.String(),
		Clients:   ms.hub.ClientCount(),
		Tracks:    len(status.Playlist.Tracks),
		Albums:    len(status.Albums),
		Details:   make(map[string]interface{}),
	}

	// Only a local library makes the server unhealthy; a remote catalog
	// degrades to empty listings on its own
	if err := ms.libraryAvailable(); err != nil {
		health.Library = "error"
		health.Details["library_error"] = err.Error()
		if ms.config.Catalog.Source == "fs" {
			health.Status = "unhealthy"
		}
	}

	code := http.StatusOK
	if health.Status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	ms.respondJSON(w, code, health)
}
