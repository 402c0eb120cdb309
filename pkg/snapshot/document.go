// Package snapshot persists the agent's full state as a single document
// and restores it field for field. Two backends are provided: flat JSON
// files and BadgerDB.
package snapshot

import (
	"time"

	"github.com/engramhq/engram/pkg/memory"
	"github.com/engramhq/engram/pkg/mood"
	"github.com/engramhq/engram/pkg/pipeline"
)

// DocumentVersion is bumped when the document layout changes.
const DocumentVersion = 1

// IdentityEvent is one entry in the identity's memory lattice.
type IdentityEvent struct {
	Event     string    `json:"event"`
	Weight    float64   `json:"weight"`
	Emotion   string    `json:"emotion"`
	Timestamp time.Time `json:"timestamp"`
}

// IdentityState is the portable form of the agent identity.
type IdentityState struct {
	Narrative string             `json:"narrative"`
	Traits    map[string]float64 `json:"traits,omitempty"`
	Goals     []string           `json:"goals,omitempty"`
	Events    []IdentityEvent    `json:"events,omitempty"`
}

// Document is the complete persisted state of one session.
type Document struct {
	// Version is the document layout version.
	Version int `json:"version"`

	// SessionID identifies the session the document belongs to.
	SessionID string `json:"session_id"`

	// SavedAt is when the document was written.
	SavedAt time.Time `json:"saved_at"`

	// Identity is the agent identity state.
	Identity IdentityState `json:"identity"`

	// Memory is the full memory store state.
	Memory memory.Snapshot `json:"memory"`

	// Mood is the emotional state.
	Mood mood.Snapshot `json:"mood"`

	// Learning is the learner state.
	Learning pipeline.LearningSnapshot `json:"learning"`

	// Awareness is the awareness core state.
	Awareness pipeline.AwarenessSnapshot `json:"awareness"`

	// Causal is the retained causal log.
	Causal []pipeline.CausalEvent `json:"causal,omitempty"`

	// Counters holds the pipeline sequence counters.
	Counters pipeline.CounterSnapshot `json:"counters"`
}
