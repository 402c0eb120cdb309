package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/engramhq/engram/pkg/api/response"
)

// CausalHandler handles causal log endpoints.
type CausalHandler struct {
	sessions *SessionHandler
}

// NewCausalHandler creates a new causal handler.
func NewCausalHandler(sessions *SessionHandler) *CausalHandler {
	return &CausalHandler{sessions: sessions}
}

// ListEvents handles GET /api/v1/sessions/{sessionID}/causal
func (h *CausalHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessions.lookup(w, r)
	if !ok {
		return
	}

	log := sess.Pipeline().Causal()
	response.JSON(w, http.StatusOK, map[string]any{
		"events": log.Events(),
		"total":  log.Len(),
	})
}

// TraceEvent handles GET /api/v1/sessions/{sessionID}/causal/{eventID}/trace
func (h *CausalHandler) TraceEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, ok := h.sessions.lookup(w, r)
	if !ok {
		return
	}

	eventID := chi.URLParam(r, "eventID")
	chain := sess.Pipeline().Causal().Trace(eventID)
	if chain == nil {
		response.Error(w, http.StatusNotFound, response.ErrCodeNotFound, "Event not found", getRequestID(ctx))
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"event_id": eventID,
		"chain":    chain,
		"depth":    len(chain),
	})
}

// Forecast handles GET /api/v1/sessions/{sessionID}/causal/forecast
func (h *CausalHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, ok := h.sessions.lookup(w, r)
	if !ok {
		return
	}

	action := r.URL.Query().Get("action")
	if action == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "Action parameter is required", getRequestID(ctx))
		return
	}

	steps := 3
	if v := r.URL.Query().Get("steps"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 10 {
			steps = n
		}
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"action":   action,
		"forecast": sess.Pipeline().Causal().Forecast(action, steps),
	})
}
