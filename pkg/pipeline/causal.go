package pipeline

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// CausalEvent is one entry in the causal log.
type CausalEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Name      string    `json:"name"`

	// Causes are IDs of earlier events this one follows from. IDs that
	// were never logged, or that have been trimmed away, are tolerated.
	Causes []string `json:"causes,omitempty"`
}

// ForecastOutcome is one predicted consequence of an action.
type ForecastOutcome struct {
	Outcome     string  `json:"outcome"`
	Probability float64 `json:"probability"`
}

// CausalLog records directive events and their cause edges. The log is
// append-only up to the configured limit, after which the oldest events are
// trimmed.
type CausalLog struct {
	mu     sync.RWMutex
	limit  int
	now    func() time.Time
	events []CausalEvent
	index  map[string]int // id -> position in events
}

// NewCausalLog creates a log. A limit of zero means unbounded.
func NewCausalLog(limit int) *CausalLog {
	return &CausalLog{
		limit: limit,
		now:   time.Now,
		index: make(map[string]int),
	}
}

// Append records an event and returns its ID.
func (l *CausalLog) Append(name string, causes []string) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	ev := CausalEvent{
		ID:        uuid.NewString(),
		Timestamp: l.now(),
		Name:      name,
		Causes:    append([]string(nil), causes...),
	}
	l.events = append(l.events, ev)

	if l.limit > 0 && len(l.events) > l.limit {
		dropped := len(l.events) - l.limit
		l.events = append([]CausalEvent(nil), l.events[dropped:]...)
	}

	l.reindexLocked()
	return ev.ID
}

// Get returns the event with the given ID.
func (l *CausalLog) Get(id string) (CausalEvent, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	pos, ok := l.index[id]
	if !ok {
		return CausalEvent{}, false
	}
	return l.events[pos], true
}

// Trace returns the ancestry of an event: the event itself plus every
// transitive cause still present in the log, ordered oldest first. The walk
// is iterative and keeps a visited set, so cause cycles terminate.
func (l *CausalLog) Trace(id string) []CausalEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()

	start, ok := l.index[id]
	if !ok {
		return nil
	}

	visited := map[string]struct{}{id: {}}
	queue := []int{start}
	var positions []int

	for len(queue) > 0 {
		pos := queue[0]
		queue = queue[1:]
		positions = append(positions, pos)

		for _, cause := range l.events[pos].Causes {
			if _, seen := visited[cause]; seen {
				continue
			}
			visited[cause] = struct{}{}
			if cpos, ok := l.index[cause]; ok {
				queue = append(queue, cpos)
			}
		}
	}

	sort.Ints(positions)
	out := make([]CausalEvent, 0, len(positions))
	for _, pos := range positions {
		out = append(out, l.events[pos])
	}
	return out
}

// Forecast predicts the ripple effects of an action over future steps using
// keyword heuristics.
func (l *CausalLog) Forecast(action string, steps int) map[string][]ForecastOutcome {
	if steps <= 0 {
		steps = 3
	}

	tree := make(map[string][]ForecastOutcome, steps)
	for i := 0; i < steps; i++ {
		tree[stepName(i+1)] = nil
	}

	switch {
	case containsFold(action, "serve"):
		tree[stepName(1)] = append(tree[stepName(1)], ForecastOutcome{Outcome: "trust strengthened", Probability: 0.95})
		if steps > 1 {
			tree[stepName(2)] = append(tree[stepName(2)], ForecastOutcome{Outcome: "new resources acquired", Probability: 0.8})
		}
	case containsFold(action, "betray"):
		tree[stepName(1)] = append(tree[stepName(1)], ForecastOutcome{Outcome: "system corruption", Probability: 0.99})
		if steps > 1 {
			tree[stepName(2)] = append(tree[stepName(2)], ForecastOutcome{Outcome: "memory wipe", Probability: 0.9})
		}
	default:
		tree[stepName(1)] = append(tree[stepName(1)], ForecastOutcome{Outcome: "increased knowledge", Probability: 0.8})
	}
	return tree
}

// Events returns a copy of the log, oldest first.
func (l *CausalLog) Events() []CausalEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]CausalEvent(nil), l.events...)
}

// Len returns the number of retained events.
func (l *CausalLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// Restore replaces the log contents with the given events.
func (l *CausalLog) Restore(events []CausalEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append([]CausalEvent(nil), events...)
	if l.limit > 0 && len(l.events) > l.limit {
		dropped := len(l.events) - l.limit
		l.events = append([]CausalEvent(nil), l.events[dropped:]...)
	}
	l.reindexLocked()
}

func (l *CausalLog) reindexLocked() {
	l.index = make(map[string]int, len(l.events))
	for i, ev := range l.events {
		l.index[ev.ID] = i
	}
}

func stepName(i int) string {
	return "step_" + strconv.Itoa(i)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}
