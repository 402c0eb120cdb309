package handlers

import (
	"net/http"

	"github.com/engramhq/engram/pkg/api/response"
	"github.com/engramhq/engram/pkg/mood"
)

// MoodHandler handles mood inspection endpoints.
type MoodHandler struct {
	sessions *SessionHandler
	classify mood.Classifier
}

// NewMoodHandler creates a new mood handler.
func NewMoodHandler(sessions *SessionHandler) *MoodHandler {
	return &MoodHandler{
		sessions: sessions,
		classify: mood.NewRuleClassifier(),
	}
}

// GetMood handles GET /api/v1/sessions/{sessionID}/mood
func (h *MoodHandler) GetMood(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessions.lookup(w, r)
	if !ok {
		return
	}

	state := sess.Mood()
	dominant, value := state.Dominant()
	values := state.Values()

	response.JSON(w, http.StatusOK, map[string]any{
		"emotions":       values,
		"dominant":       dominant,
		"dominant_value": value,
		"mode":           h.classify.Classify(values),
		"resonant_chord": state.ResonantChord(),
	})
}
