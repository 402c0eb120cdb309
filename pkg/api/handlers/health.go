package handlers

import (
	"net/http"
	"time"

	"github.com/engramhq/engram/pkg/agent"
	"github.com/engramhq/engram/pkg/api/response"
	"github.com/engramhq/engram/pkg/version"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	manager   *agent.Manager
	startedAt time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(manager *agent.Manager) *HealthHandler {
	return &HealthHandler{
		manager:   manager,
		startedAt: time.Now(),
	}
}

// Health handles the /health endpoint (liveness probe).
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

// Ready handles the /ready endpoint (readiness probe).
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.manager == nil {
		response.JSON(w, http.StatusServiceUnavailable, map[string]bool{
			"ready": false,
		})
		return
	}
	response.JSON(w, http.StatusOK, map[string]bool{
		"ready": true,
	})
}

// Status handles the /status endpoint (detailed status).
func (h *HealthHandler) Status(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{
		"version":        version.Version,
		"commit":         version.GitCommit,
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
		"sessions":       h.manager.Len(),
	})
}
