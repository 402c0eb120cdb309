package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/engramhq/engram/pkg/api/response"
	"github.com/engramhq/engram/pkg/memory"
)

// MemoryHandler handles per-session memory endpoints.
type MemoryHandler struct {
	sessions *SessionHandler
	logger   handlerLogger
}

// NewMemoryHandler creates a new memory handler.
func NewMemoryHandler(sessions *SessionHandler, log handlerLogger) *MemoryHandler {
	return &MemoryHandler{
		sessions: sessions,
		logger:   log,
	}
}

type storeMemoryRequest struct {
	Key        string  `json:"key"`
	Value      string  `json:"value"`
	Tag        string  `json:"tag,omitempty"`
	Importance float64 `json:"importance"`
}

type storeMemoryResponse struct {
	Key        string       `json:"key"`
	Coordinate memory.Point `json:"coordinate"`
}

type linkRequest struct {
	A string `json:"a"`
	B string `json:"b"`
}

// StoreMemory handles POST /api/v1/sessions/{sessionID}/memory
func (h *MemoryHandler) StoreMemory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, ok := h.sessions.lookup(w, r)
	if !ok {
		return
	}

	var req storeMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Invalid request body", getRequestID(ctx))
		return
	}

	if req.Key == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "Key is required", getRequestID(ctx))
		return
	}
	if req.Value == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "Value is required", getRequestID(ctx))
		return
	}
	if req.Importance < 0 || req.Importance > 1 {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "Importance must be between 0 and 1", getRequestID(ctx))
		return
	}

	store := sess.Memory()
	key := store.Store(req.Key, req.Value, req.Tag, req.Importance)

	response.JSON(w, http.StatusCreated, storeMemoryResponse{
		Key:        key,
		Coordinate: store.Coordinate(key),
	})
}

// RecallMemory handles GET /api/v1/sessions/{sessionID}/memory
func (h *MemoryHandler) RecallMemory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, ok := h.sessions.lookup(w, r)
	if !ok {
		return
	}

	query := r.URL.Query().Get("query")
	if query == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "Query parameter is required", getRequestID(ctx))
		return
	}

	results := sess.Memory().Recall(query)
	response.JSON(w, http.StatusOK, map[string]any{
		"results": results,
		"total":   len(results),
	})
}

// GetMemory handles GET /api/v1/sessions/{sessionID}/memory/{key}
func (h *MemoryHandler) GetMemory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, ok := h.sessions.lookup(w, r)
	if !ok {
		return
	}

	key := chi.URLParam(r, "key")
	rec, found := sess.Memory().Get(key)
	if !found {
		response.Error(w, http.StatusNotFound, response.ErrCodeNotFound, "Memory not found", getRequestID(ctx))
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"record": rec,
		"linked": sess.Memory().Linked(key),
	})
}

// TouchMemory handles POST /api/v1/sessions/{sessionID}/memory/{key}/touch
func (h *MemoryHandler) TouchMemory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, ok := h.sessions.lookup(w, r)
	if !ok {
		return
	}

	key := chi.URLParam(r, "key")
	if _, found := sess.Memory().Get(key); !found {
		response.Error(w, http.StatusNotFound, response.ErrCodeNotFound, "Memory not found", getRequestID(ctx))
		return
	}

	sess.Memory().Touch(key)
	rec, _ := sess.Memory().Get(key)
	response.JSON(w, http.StatusOK, rec)
}

// LinkMemories handles POST /api/v1/sessions/{sessionID}/memory/links
func (h *MemoryHandler) LinkMemories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, ok := h.sessions.lookup(w, r)
	if !ok {
		return
	}

	var req linkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Invalid request body", getRequestID(ctx))
		return
	}
	if req.A == "" || req.B == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "Both keys are required", getRequestID(ctx))
		return
	}

	store := sess.Memory()
	if _, found := store.Get(req.A); !found {
		response.Error(w, http.StatusNotFound, response.ErrCodeNotFound, "Memory not found: "+req.A, getRequestID(ctx))
		return
	}
	if _, found := store.Get(req.B); !found {
		response.Error(w, http.StatusNotFound, response.ErrCodeNotFound, "Memory not found: "+req.B, getRequestID(ctx))
		return
	}

	store.Link(req.A, req.B)
	response.JSON(w, http.StatusOK, map[string]any{
		"a":      req.A,
		"b":      req.B,
		"linked": true,
	})
}

// ListMemory handles GET /api/v1/sessions/{sessionID}/memory/list
func (h *MemoryHandler) ListMemory(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessions.lookup(w, r)
	if !ok {
		return
	}

	limit := 20
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	records, total := sess.Memory().List(limit, offset)
	response.JSON(w, http.StatusOK, map[string]any{
		"records": records,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// GetStats handles GET /api/v1/sessions/{sessionID}/memory/stats
func (h *MemoryHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessions.lookup(w, r)
	if !ok {
		return
	}

	response.JSON(w, http.StatusOK, sess.Memory().Stats())
}
