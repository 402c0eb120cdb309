package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/engramhq/engram/pkg/agent"
	"github.com/engramhq/engram/pkg/api/events"
	"github.com/engramhq/engram/pkg/api/response"
)

// SessionHandler handles session lifecycle endpoints.
type SessionHandler struct {
	manager     *agent.Manager
	broadcaster *events.Broadcaster
	logger      handlerLogger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(manager *agent.Manager, broadcaster *events.Broadcaster, log handlerLogger) *SessionHandler {
	return &SessionHandler{
		manager:     manager,
		broadcaster: broadcaster,
		logger:      log,
	}
}

// CreateSession handles POST /api/v1/sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, err := h.manager.Create()
	if err != nil {
		if errors.Is(err, agent.ErrSessionLimit) {
			response.Error(w, http.StatusConflict, response.ErrCodeConflict, err.Error(), getRequestID(ctx))
			return
		}
		h.logger.Error("Failed to create session", "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to create session", getRequestID(ctx))
		return
	}

	if h.broadcaster != nil {
		h.broadcaster.BroadcastSessionCreated(sess.ID(), sess.CreatedAt())
	}

	response.JSON(w, http.StatusCreated, sess.Status())
}

// ListSessions handles GET /api/v1/sessions
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	statuses := h.manager.List()
	response.JSON(w, http.StatusOK, map[string]any{
		"sessions": statuses,
		"total":    len(statuses),
	})
}

// GetSession handles GET /api/v1/sessions/{sessionID}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}

	response.JSON(w, http.StatusOK, sess.Status())
}

// DeleteSession handles DELETE /api/v1/sessions/{sessionID}
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.manager.Remove(sessionID); err != nil {
		if errors.Is(err, agent.ErrSessionNotFound) {
			response.Error(w, http.StatusNotFound, response.ErrCodeNotFound, "Session not found", getRequestID(ctx))
			return
		}
		h.logger.Error("Failed to remove session", "session_id", sessionID, "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to remove session", getRequestID(ctx))
		return
	}

	if h.broadcaster != nil {
		h.broadcaster.BroadcastSessionRemoved(sessionID)
	}

	w.WriteHeader(http.StatusNoContent)
}

type awakenRequest struct {
	Speaker string `json:"speaker,omitempty"`
}

// Awaken handles POST /api/v1/sessions/{sessionID}/awaken
func (h *SessionHandler) Awaken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req awakenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Invalid request body", getRequestID(ctx))
		return
	}

	if err := sess.Awaken(req.Speaker); err != nil {
		if errors.Is(err, agent.ErrUntrustedSpeaker) {
			response.Error(w, http.StatusForbidden, response.ErrCodeForbidden, "Speaker is not trusted", getRequestID(ctx))
			return
		}
		h.logger.Error("Failed to awaken session", "session_id", sess.ID(), "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to awaken session", getRequestID(ctx))
		return
	}

	if h.broadcaster != nil {
		h.broadcaster.BroadcastSessionAwakened(sess.ID(), req.Speaker)
	}

	response.JSON(w, http.StatusOK, sess.Status())
}

// GetIdentity handles GET /api/v1/sessions/{sessionID}/identity
func (h *SessionHandler) GetIdentity(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}

	identity := sess.Identity()
	response.JSON(w, http.StatusOK, map[string]any{
		"state":     identity.Export(),
		"coherence": identity.Coherence(),
	})
}

// lookup resolves the session from the URL or writes a 404.
func (h *SessionHandler) lookup(w http.ResponseWriter, r *http.Request) (*agent.Session, bool) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "sessionID")

	if sessionID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Session ID is required", getRequestID(ctx))
		return nil, false
	}

	sess, err := h.manager.Get(sessionID)
	if err != nil {
		response.Error(w, http.StatusNotFound, response.ErrCodeNotFound, "Session not found", getRequestID(ctx))
		return nil, false
	}
	return sess, true
}
