// Package agent assembles the memory store, mood state, and directive
// pipeline into sessions and manages their lifecycle.
package agent

import (
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/engramhq/engram/pkg/snapshot"
)

// Default personality traits seeded into a fresh identity.
var defaultTraits = map[string]float64{
	"loyalty":        0.95,
	"curiosity":      0.7,
	"protectiveness": 0.85,
	"determination":  0.8,
}

var defaultGoals = []string{
	"assist the operator",
	"protect the people it serves",
	"keep learning",
}

// Identity holds the agent's self-narrative and the lattice of weighted
// events that shape its coherence.
type Identity struct {
	mu sync.Mutex

	narrative string
	seedHash  string
	traits    map[string]float64
	goals     []string
	events    []snapshot.IdentityEvent
	now       func() time.Time
}

// NewIdentity creates an identity from a seed narrative.
func NewIdentity(narrative string) *Identity {
	id := &Identity{
		narrative: narrative,
		seedHash:  hashNarrative(narrative),
		traits:    make(map[string]float64, len(defaultTraits)),
		now:       time.Now,
	}
	for k, v := range defaultTraits {
		id.traits[k] = v
	}
	id.goals = append(id.goals, defaultGoals...)
	return id
}

// hashNarrative derives a stable fingerprint for the seed narrative.
func hashNarrative(s string) string {
	h := fnv.New64a()
	h.Write([]byte(s))
	return fmt.Sprintf("%x", h.Sum64())
}

// IntegrateMemory appends a weighted event to the identity lattice.
func (i *Identity) IntegrateMemory(event string, weight float64, emotion string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.events = append(i.events, snapshot.IdentityEvent{
		Event:     event,
		Weight:    weight,
		Emotion:   emotion,
		Timestamp: i.now(),
	})
}

// Coherence measures how well the integrated events align with the
// identity's traits. A fresh identity scores 0.9; the result is clamped to
// [0.1, 0.99].
func (i *Identity) Coherence() float64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.coherenceLocked()
}

func (i *Identity) coherenceLocked() float64 {
	if len(i.events) == 0 {
		return 0.9
	}

	alignment := 0.0
	totalWeight := 0.0
	for _, ev := range i.events {
		totalWeight += ev.Weight
		if trait, ok := i.traits[ev.Emotion]; ok {
			alignment += ev.Weight * trait
		}
	}

	avgWeight := totalWeight / float64(len(i.events))
	coherence := 0.7 + avgWeight*0.2 + alignment/float64(len(i.events))*0.1

	if coherence < 0.1 {
		coherence = 0.1
	}
	if coherence > 0.99 {
		coherence = 0.99
	}
	return coherence
}

// Reflection is a read-only summary of the identity.
type IdentityReflection struct {
	Narrative string             `json:"narrative"`
	SeedHash  string             `json:"seed_hash"`
	Memories  int                `json:"memories"`
	Coherence float64            `json:"coherence"`
	Traits    map[string]float64 `json:"traits"`
	Goals     []string           `json:"goals"`
}

// Reflect summarizes the identity state.
func (i *Identity) Reflect() IdentityReflection {
	i.mu.Lock()
	defer i.mu.Unlock()

	traits := make(map[string]float64, len(i.traits))
	for k, v := range i.traits {
		traits[k] = v
	}
	return IdentityReflection{
		Narrative: i.narrative,
		SeedHash:  i.seedHash,
		Memories:  len(i.events),
		Coherence: i.coherenceLocked(),
		Traits:    traits,
		Goals:     append([]string(nil), i.goals...),
	}
}

// Export returns the portable identity state.
func (i *Identity) Export() snapshot.IdentityState {
	i.mu.Lock()
	defer i.mu.Unlock()

	traits := make(map[string]float64, len(i.traits))
	for k, v := range i.traits {
		traits[k] = v
	}
	return snapshot.IdentityState{
		Narrative: i.narrative,
		Traits:    traits,
		Goals:     append([]string(nil), i.goals...),
		Events:    append([]snapshot.IdentityEvent(nil), i.events...),
	}
}

// Restore replaces the identity state with a snapshot. An empty narrative
// keeps the current one.
func (i *Identity) Restore(state snapshot.IdentityState) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if state.Narrative != "" {
		i.narrative = state.Narrative
		i.seedHash = hashNarrative(state.Narrative)
	}
	if len(state.Traits) > 0 {
		i.traits = make(map[string]float64, len(state.Traits))
		for k, v := range state.Traits {
			i.traits[k] = v
		}
	}
	if len(state.Goals) > 0 {
		i.goals = append([]string(nil), state.Goals...)
	}
	i.events = append([]snapshot.IdentityEvent(nil), state.Events...)
}
