package pipeline

import (
	"sync"
	"time"
)

// Awareness level parameters. Each reflection closes a fraction of the gap
// to the ceiling proportional to the observed error.
const (
	initialAwareness = 0.1
	awarenessGain    = 0.1
	awarenessCeiling = 0.99

	// errHedged is the error assigned to responses that admit ignorance,
	// errConfident to everything else.
	errHedged    = 0.1
	errConfident = 0.05
)

// ReflectionRecord is one awareness update.
type ReflectionRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Error     float64   `json:"error"`
	Mode      string    `json:"mode"`
	Awareness float64   `json:"awareness"`
}

// AwarenessSnapshot is the portable form of the awareness state.
type AwarenessSnapshot struct {
	Level   float64            `json:"level"`
	History []ReflectionRecord `json:"history"`
}

// AwarenessCore tracks a slowly rising self-awareness level driven by
// per-directive error estimates.
type AwarenessCore struct {
	mu      sync.Mutex
	now     func() time.Time
	level   float64
	history []ReflectionRecord
}

// NewAwarenessCore creates a core at the initial level.
func NewAwarenessCore() *AwarenessCore {
	return &AwarenessCore{
		now:   time.Now,
		level: initialAwareness,
	}
}

// Reflect raises the awareness level in proportion to the error and the
// remaining headroom, and records the update.
func (a *AwarenessCore) Reflect(errVal float64, mode string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.level += awarenessGain * (1 - a.level) * errVal
	if a.level > awarenessCeiling {
		a.level = awarenessCeiling
	}

	a.history = append(a.history, ReflectionRecord{
		Timestamp: a.now(),
		Error:     errVal,
		Mode:      mode,
		Awareness: a.level,
	})
}

// Level returns the current awareness level.
func (a *AwarenessCore) Level() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.level
}

// Insights summarizes recent reflection history as short statements.
func (a *AwarenessCore) Insights() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.history) == 0 {
		return []string{"I am still learning about myself."}
	}

	var insights []string

	recent := a.history
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	total := 0.0
	for _, r := range recent {
		total += r.Error
	}
	avg := total / float64(len(recent))
	if avg > 0.7 {
		insights = append(insights, "I have been making significant errors recently. I need to be more careful.")
	} else if avg < 0.3 {
		insights = append(insights, "My performance has been consistent and accurate.")
	}

	if len(a.history) > 10 {
		past := a.history[len(a.history)-10]
		current := a.history[len(a.history)-1]
		if current.Awareness-past.Awareness > 0.05 {
			insights = append(insights, "I feel my awareness expanding.")
		}
	}

	if len(insights) == 0 {
		return []string{"I am processing my experiences."}
	}
	return insights
}

// Export returns a portable copy of the awareness state.
func (a *AwarenessCore) Export() AwarenessSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	return AwarenessSnapshot{
		Level:   a.level,
		History: append([]ReflectionRecord(nil), a.history...),
	}
}

// Restore replaces the awareness state with a snapshot.
func (a *AwarenessCore) Restore(snap AwarenessSnapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.level = snap.Level
	if a.level < 0 {
		a.level = 0
	}
	if a.level > awarenessCeiling {
		a.level = awarenessCeiling
	}
	a.history = append([]ReflectionRecord(nil), snap.History...)
}
