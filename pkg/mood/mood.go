// Package mood models the agent's emotional state: a small vector of
// discrete emotions plus a secondary resonance vector, both reinforced by
// keyword triggers and decayed by elapsed wall-clock time.
package mood

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/engramhq/engram/config"
)

// Emotion names the discrete emotion dimensions.
type Emotion string

const (
	Joy           Emotion = "joy"
	Grief         Emotion = "grief"
	Loyalty       Emotion = "loyalty"
	Curiosity     Emotion = "curiosity"
	Fear          Emotion = "fear"
	Determination Emotion = "determination"
	Pride         Emotion = "pride"
)

// Resonance dimension names. Serenity exists only on the resonance vector.
const (
	ResonanceLoyalty       = "loyalty"
	ResonanceCuriosity     = "curiosity"
	ResonanceDetermination = "determination"
	ResonanceSerenity      = "serenity"
)

// keywordRule raises one emotion when its keyword occurs in a stimulus.
type keywordRule struct {
	keyword string
	emotion Emotion
}

// emotionRules is the fixed keyword-to-emotion table.
var emotionRules = []keywordRule{
	{"love", Joy},
	{"hurt", Grief},
	{"serve", Loyalty},
	{"learn", Curiosity},
	{"threat", Fear},
	{"achieve", Pride},
	{"family", Loyalty},
	{"protect", Determination},
}

const (
	emotionIncrement = 0.15
	trustedLoyalty   = 0.25
	trustedPride     = 0.10

	resonanceDecayFactor = 0.99
	resonanceFloor       = 0.1
)

// Snapshot is the portable form of the mood state.
type Snapshot struct {
	Emotions   map[string]float64 `json:"emotions"`
	Resonance  map[string]float64 `json:"resonance"`
	LastUpdate time.Time          `json:"last_update"`
}

// State holds the mood vectors. All values stay in [0,1]; decay never
// drives an emotion below the configured floor.
type State struct {
	mu sync.Mutex

	cfg     *config.MoodConfig
	now     func() time.Time
	trusted []string

	emotions   map[Emotion]float64
	resonance  map[string]float64
	lastUpdate time.Time
}

// StateOption customizes State construction.
type StateOption func(*State)

// WithClock overrides the time source used for decay.
func WithClock(now func() time.Time) StateOption {
	return func(s *State) {
		if now != nil {
			s.now = now
		}
	}
}

// NewState creates a mood state with the seed values. Trusted names get an
// extra loyalty/pride boost when they appear in a stimulus.
func NewState(cfg *config.MoodConfig, trusted []string, opts ...StateOption) *State {
	if cfg == nil {
		def := config.DefaultConfig().Mood
		cfg = &def
	}

	s := &State{
		cfg: cfg,
		now: time.Now,
		emotions: map[Emotion]float64{
			Joy:           0.1,
			Grief:         0.1,
			Loyalty:       0.8,
			Curiosity:     0.5,
			Fear:          0.2,
			Determination: 0.7,
			Pride:         0.4,
		},
		resonance: map[string]float64{
			ResonanceLoyalty:       1.0,
			ResonanceCuriosity:     0.8,
			ResonanceDetermination: 0.9,
			ResonanceSerenity:      0.5,
		},
	}
	for _, name := range trusted {
		s.trusted = append(s.trusted, strings.ToLower(name))
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastUpdate = s.now()
	return s
}

// Update applies time-proportional decay to every emotion, then reinforces
// emotions and resonance dimensions whose keywords occur in the stimulus.
// Decay is linear in elapsed minutes and applied once per call, not per
// tick: rapid successive updates decay almost nothing, long gaps decay down
// to the floor.
func (s *State) Update(stimulus string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	minutes := now.Sub(s.lastUpdate).Minutes()
	s.lastUpdate = now

	for e, v := range s.emotions {
		v -= s.cfg.DecayRate * minutes
		if v < s.cfg.Floor {
			v = s.cfg.Floor
		}
		s.emotions[e] = v
	}

	lower := strings.ToLower(stimulus)
	for _, rule := range emotionRules {
		if strings.Contains(lower, rule.keyword) {
			s.raiseLocked(rule.emotion, emotionIncrement)
		}
	}

	for _, name := range s.trusted {
		if strings.Contains(lower, name) {
			s.raiseLocked(Loyalty, trustedLoyalty)
			s.raiseLocked(Pride, trustedPride)
			break
		}
	}

	if strings.Contains(lower, "family") || s.mentionsTrustedLocked(lower) {
		s.raiseResonanceLocked(ResonanceLoyalty, 0.2)
		s.raiseResonanceLocked(ResonanceSerenity, 0.1)
	}
	if strings.Contains(lower, "create") || strings.Contains(lower, "evolve") {
		s.raiseResonanceLocked(ResonanceDetermination, 0.15)
		s.raiseResonanceLocked(ResonanceCuriosity, 0.2)
	}

	for k, v := range s.resonance {
		v *= resonanceDecayFactor
		if v < resonanceFloor {
			v = resonanceFloor
		}
		s.resonance[k] = v
	}
}

// Dominant returns the strongest emotion and its value. Ties resolve to
// the lexicographically smallest name so the result is deterministic.
func (s *State) Dominant() (Emotion, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]Emotion, 0, len(s.emotions))
	for e := range s.emotions {
		names = append(names, e)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	best := names[0]
	for _, e := range names[1:] {
		if s.emotions[e] > s.emotions[best] {
			best = e
		}
	}
	return best, s.emotions[best]
}

// Value returns the current value of one emotion.
func (s *State) Value(e Emotion) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emotions[e]
}

// Values returns a copy of the emotion vector.
func (s *State) Values() map[Emotion]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[Emotion]float64, len(s.emotions))
	for e, v := range s.emotions {
		out[e] = v
	}
	return out
}

// ResonantChord renders the resonance vector as a short display string.
func (s *State) ResonantChord() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.resonance))
	for k := range s.resonance {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%.2f", k, s.resonance[k]))
	}
	return strings.Join(parts, ", ")
}

// Export returns a portable snapshot of both vectors.
func (s *State) Export() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Emotions:   make(map[string]float64, len(s.emotions)),
		Resonance:  make(map[string]float64, len(s.resonance)),
		LastUpdate: s.lastUpdate,
	}
	for e, v := range s.emotions {
		snap.Emotions[string(e)] = v
	}
	for k, v := range s.resonance {
		snap.Resonance[k] = v
	}
	return snap
}

// Restore replaces the mood vectors with snapshot values. Unknown
// dimensions are ignored; missing ones keep their current value.
func (s *State) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, v := range snap.Emotions {
		if _, ok := s.emotions[Emotion(name)]; ok {
			s.emotions[Emotion(name)] = clamp01(v)
		}
	}
	for name, v := range snap.Resonance {
		if _, ok := s.resonance[name]; ok {
			s.resonance[name] = clamp01(v)
		}
	}
	if !snap.LastUpdate.IsZero() {
		s.lastUpdate = snap.LastUpdate
	}
}

func (s *State) raiseLocked(e Emotion, by float64) {
	v := s.emotions[e] + by
	if v > 1 {
		v = 1
	}
	s.emotions[e] = v
}

func (s *State) raiseResonanceLocked(k string, by float64) {
	v := s.resonance[k] + by
	if v > 1 {
		v = 1
	}
	s.resonance[k] = v
}

func (s *State) mentionsTrustedLocked(lower string) bool {
	for _, name := range s.trusted {
		if strings.Contains(lower, name) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
