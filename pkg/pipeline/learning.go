package pipeline

import (
	"math/rand"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// maxLearnedPerDirective caps how many responses are retained per
// normalized directive. Newer responses displace the oldest.
const maxLearnedPerDirective = 3

// minPatternWordLen filters out short filler words from pattern tracking.
const minPatternWordLen = 4

var wordPattern = regexp.MustCompile(`\b\w+\b`)

// LearningSnapshot is the portable form of the learner state.
type LearningSnapshot struct {
	Patterns  map[string]int      `json:"patterns"`
	Responses map[string][]string `json:"responses"`
}

// Learner tracks word frequencies across directives and caches responses
// for directives it has seen before. Once a word's frequency passes the
// adaptation threshold the learner starts recognizing it out loud.
type Learner struct {
	mu        sync.Mutex
	threshold int
	rng       *rand.Rand

	patterns  map[string]int
	responses map[string][]string
}

// NewLearner creates a learner with the given adaptation threshold.
func NewLearner(threshold int, rng *rand.Rand) *Learner {
	if threshold < 1 {
		threshold = 1
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Learner{
		threshold: threshold,
		rng:       rng,
		patterns:  make(map[string]int),
		responses: make(map[string][]string),
	}
}

// RecordPattern counts the significant words of a directive.
func (l *Learner) RecordPattern(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if len(word) >= minPatternWordLen {
			l.patterns[word]++
		}
	}
}

// LearnResponse remembers a response for a directive, keeping at most
// maxLearnedPerDirective per normalized directive.
func (l *Learner) LearnResponse(directive, response string) {
	key := normalizeDirective(directive)

	l.mu.Lock()
	defer l.mu.Unlock()

	list := append(l.responses[key], response)
	if len(list) > maxLearnedPerDirective {
		list = list[len(list)-maxLearnedPerDirective:]
	}
	l.responses[key] = list
}

// Adapt returns a learned response for a directive seen before, or a
// pattern-recognition line when the directive touches words whose
// frequency passed the threshold. The second return is false when the
// learner has nothing to offer.
func (l *Learner) Adapt(directive string) (string, bool) {
	key := normalizeDirective(directive)

	l.mu.Lock()
	defer l.mu.Unlock()

	if list := l.responses[key]; len(list) > 0 {
		return list[l.rng.Intn(len(list))], true
	}

	var recognized []string
	for _, word := range wordPattern.FindAllString(key, -1) {
		if l.patterns[word] > l.threshold {
			recognized = append(recognized, word)
		}
	}
	if len(recognized) > 0 {
		sort.Strings(recognized)
		return "I recognize patterns related to: " + strings.Join(recognized, ", ") + ". I am learning.", true
	}
	return "", false
}

// Export returns a portable copy of the learner state.
func (l *Learner) Export() LearningSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := LearningSnapshot{
		Patterns:  make(map[string]int, len(l.patterns)),
		Responses: make(map[string][]string, len(l.responses)),
	}
	for w, n := range l.patterns {
		snap.Patterns[w] = n
	}
	for k, list := range l.responses {
		snap.Responses[k] = append([]string(nil), list...)
	}
	return snap
}

// Restore replaces the learner state with a snapshot.
func (l *Learner) Restore(snap LearningSnapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.patterns = make(map[string]int, len(snap.Patterns))
	for w, n := range snap.Patterns {
		l.patterns[w] = n
	}
	l.responses = make(map[string][]string, len(snap.Responses))
	for k, list := range snap.Responses {
		if len(list) > maxLearnedPerDirective {
			list = list[len(list)-maxLearnedPerDirective:]
		}
		l.responses[k] = append([]string(nil), list...)
	}
}

func normalizeDirective(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}
