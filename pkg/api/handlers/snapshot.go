package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/engramhq/engram/pkg/agent"
	"github.com/engramhq/engram/pkg/api/events"
	"github.com/engramhq/engram/pkg/api/response"
	"github.com/engramhq/engram/pkg/snapshot"
)

// SnapshotHandler handles snapshot persistence endpoints.
type SnapshotHandler struct {
	manager     *agent.Manager
	broadcaster *events.Broadcaster
	logger      handlerLogger
}

// NewSnapshotHandler creates a new snapshot handler.
func NewSnapshotHandler(manager *agent.Manager, broadcaster *events.Broadcaster, log handlerLogger) *SnapshotHandler {
	return &SnapshotHandler{
		manager:     manager,
		broadcaster: broadcaster,
		logger:      log,
	}
}

// SaveSession handles POST /api/v1/sessions/{sessionID}/snapshot
func (h *SnapshotHandler) SaveSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.manager.Save(ctx, sessionID); err != nil {
		switch {
		case errors.Is(err, agent.ErrSessionNotFound):
			response.Error(w, http.StatusNotFound, response.ErrCodeNotFound, "Session not found", getRequestID(ctx))
		default:
			h.logger.Error("Failed to save snapshot", "session_id", sessionID, "error", err)
			response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to save snapshot", getRequestID(ctx))
		}
		return
	}

	savedAt := time.Now().UTC()
	if h.broadcaster != nil {
		h.broadcaster.BroadcastSnapshotSaved(sessionID, savedAt)
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"saved_at":   savedAt,
	})
}

// LoadSession handles POST /api/v1/snapshots/{sessionID}/load
func (h *SnapshotHandler) LoadSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "sessionID")

	sess, err := h.manager.Load(ctx, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, snapshot.ErrNotFound):
			response.Error(w, http.StatusNotFound, response.ErrCodeNotFound, "Snapshot not found", getRequestID(ctx))
		case errors.Is(err, agent.ErrSessionLimit):
			response.Error(w, http.StatusConflict, response.ErrCodeConflict, err.Error(), getRequestID(ctx))
		default:
			h.logger.Error("Failed to load snapshot", "session_id", sessionID, "error", err)
			response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to load snapshot", getRequestID(ctx))
		}
		return
	}

	if h.broadcaster != nil {
		h.broadcaster.BroadcastSessionCreated(sess.ID(), sess.CreatedAt())
	}

	response.JSON(w, http.StatusOK, sess.Status())
}

// ListSnapshots handles GET /api/v1/snapshots
func (h *SnapshotHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ids, err := h.manager.SavedSessions(ctx)
	if err != nil {
		h.logger.Error("Failed to list snapshots", "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to list snapshots", getRequestID(ctx))
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"snapshots": ids,
		"total":     len(ids),
	})
}

// SaveAll handles POST /api/v1/snapshots/save-all
func (h *SnapshotHandler) SaveAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.manager.SaveAll(ctx); err != nil {
		h.logger.Error("Failed to save all sessions", "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to save all sessions", getRequestID(ctx))
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"saved": h.manager.Len(),
	})
}
