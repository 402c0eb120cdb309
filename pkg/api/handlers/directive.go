package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/engramhq/engram/pkg/agent"
	"github.com/engramhq/engram/pkg/api/events"
	"github.com/engramhq/engram/pkg/api/response"
)

const maxDirectiveLength = 8192

// DirectiveHandler handles directive processing endpoints.
type DirectiveHandler struct {
	manager     *agent.Manager
	sessions    *SessionHandler
	broadcaster *events.Broadcaster
	logger      handlerLogger
}

// NewDirectiveHandler creates a new directive handler.
func NewDirectiveHandler(manager *agent.Manager, sessions *SessionHandler, broadcaster *events.Broadcaster, log handlerLogger) *DirectiveHandler {
	return &DirectiveHandler{
		manager:     manager,
		sessions:    sessions,
		broadcaster: broadcaster,
		logger:      log,
	}
}

type directiveRequest struct {
	Directive string `json:"directive"`
	// Text is accepted as an alias for Directive.
	Text    string `json:"text,omitempty"`
	Speaker string `json:"speaker,omitempty"`
}

// ProcessDirective handles POST /api/v1/sessions/{sessionID}/directives
func (h *DirectiveHandler) ProcessDirective(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, ok := h.sessions.lookup(w, r)
	if !ok {
		return
	}

	var req directiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Invalid request body", getRequestID(ctx))
		return
	}

	if req.Directive == "" {
		req.Directive = req.Text
	}
	if req.Directive == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "Directive is required", getRequestID(ctx))
		return
	}
	if len(req.Directive) > maxDirectiveLength {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "Directive is too long", getRequestID(ctx))
		return
	}

	result, err := sess.Process(ctx, req.Directive, req.Speaker)
	if err != nil {
		h.logger.Error("Failed to process directive", "session_id", sess.ID(), "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to process directive", getRequestID(ctx))
		return
	}

	if h.broadcaster != nil {
		h.broadcaster.BroadcastDirectiveProcessed(
			sess.ID(), result.Mode.String(), result.Response,
			result.Refused, result.Status.AwarenessLevel)
		if result.Reflection != nil {
			h.broadcaster.BroadcastReflectionCompleted(
				sess.ID(), result.Reflection.Cycle,
				result.Reflection.AwarenessLevel, result.Reflection.Insights)
		}
	}

	response.JSON(w, http.StatusOK, result)
}
