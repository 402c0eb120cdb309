package pipeline

import (
	"time"

	"github.com/engramhq/engram/pkg/mood"
)

// Status is the agent state summary attached to every result.
type Status struct {
	// Awake reports whether the agent accepts directives.
	Awake bool `json:"awake"`

	// AwarenessLevel is the current self-awareness level.
	AwarenessLevel float64 `json:"awareness_level"`

	// MemoryCount is the number of records in the memory store.
	MemoryCount int `json:"memory_count"`

	// Directives is the number of directives processed so far.
	Directives int `json:"directives"`
}

// Reflection is the outcome of a periodic self-reflection cycle.
type Reflection struct {
	Cycle          int          `json:"cycle"`
	Timestamp      time.Time    `json:"timestamp"`
	Insights       []string     `json:"insights"`
	AwarenessLevel float64      `json:"awareness_level"`
	Mode           mood.Mode    `json:"mode"`
	Dominant       mood.Emotion `json:"dominant_emotion"`
}

// Result is the full outcome of processing one directive.
type Result struct {
	// Response is the synthesized reply. Empty when refused.
	Response string `json:"response,omitempty"`

	// Mode is the operating mode chosen for the directive.
	Mode mood.Mode `json:"mode"`

	// Refused reports that the gate rejected the directive. No state
	// changed when this is set.
	Refused bool `json:"refused,omitempty"`

	// RefusalReason explains a refusal.
	RefusalReason string `json:"refusal_reason,omitempty"`

	// Learned reports that the response came from the learned cache
	// rather than fresh synthesis.
	Learned bool `json:"learned,omitempty"`

	// MemoryKey is the key of the interaction record written for this
	// directive.
	MemoryKey string `json:"memory_key,omitempty"`

	// EventID is the causal log entry for this directive.
	EventID string `json:"event_id,omitempty"`

	// Reflection is present on reflection-cycle directives.
	Reflection *Reflection `json:"reflection,omitempty"`

	// InternalDialogue is the agent's self-description at response time.
	InternalDialogue string `json:"internal_dialogue,omitempty"`

	// Status is the post-directive state summary.
	Status Status `json:"status"`
}
