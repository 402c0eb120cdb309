package mood

import (
	"testing"
	"time"

	"github.com/engramhq/engram/config"
)

// fakeClock returns a clock that can be advanced manually.
func fakeClock(start time.Time) (func() time.Time, func(d time.Duration)) {
	now := start
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

func newTestState(t *testing.T, trusted []string) (*State, func(d time.Duration)) {
	t.Helper()
	cfg := config.DefaultConfig().Mood
	clock, advance := fakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return NewState(&cfg, trusted, WithClock(clock)), advance
}

func TestSeedValues(t *testing.T) {
	s, _ := newTestState(t, nil)

	want := map[Emotion]float64{
		Joy:           0.1,
		Grief:         0.1,
		Loyalty:       0.8,
		Curiosity:     0.5,
		Fear:          0.2,
		Determination: 0.7,
		Pride:         0.4,
	}
	for e, v := range want {
		if got := s.Value(e); got != v {
			t.Errorf("seed %s = %v, want %v", e, got, v)
		}
	}

	e, v := s.Dominant()
	if e != Loyalty || v != 0.8 {
		t.Errorf("Dominant() = %s/%v, want loyalty/0.8", e, v)
	}
}

func TestKeywordReinforcement(t *testing.T) {
	s, _ := newTestState(t, nil)

	s.Update("I want to learn something new")
	if got := s.Value(Curiosity); got != 0.65 {
		t.Errorf("curiosity after 'learn' = %v, want 0.65", got)
	}

	// Multiple keywords in one stimulus each fire once.
	s2, _ := newTestState(t, nil)
	s2.Update("protect the family")
	if got := s2.Value(Determination); got < 0.84 || got > 0.86 {
		t.Errorf("determination = %v, want 0.85", got)
	}
	if got := s2.Value(Loyalty); got < 0.94 || got > 0.96 {
		t.Errorf("loyalty = %v, want 0.95", got)
	}
}

func TestReinforcementCapsAtOne(t *testing.T) {
	s, _ := newTestState(t, nil)

	for i := 0; i < 10; i++ {
		s.Update("serve")
	}
	if got := s.Value(Loyalty); got > 1.0 {
		t.Errorf("loyalty exceeded cap: %v", got)
	}
	if got := s.Value(Loyalty); got != 1.0 {
		t.Errorf("loyalty = %v, want 1.0 after repeated reinforcement", got)
	}
}

func TestDecayTowardFloor(t *testing.T) {
	s, advance := newTestState(t, nil)

	// 10 minutes at 0.02/min removes 0.2.
	advance(10 * time.Minute)
	s.Update("nothing relevant")
	if got := s.Value(Loyalty); got < 0.59 || got > 0.61 {
		t.Errorf("loyalty after 10min decay = %v, want 0.6", got)
	}

	// A very long gap decays every emotion to the floor.
	advance(24 * time.Hour)
	s.Update("still nothing")
	for e, v := range s.Values() {
		if v != 0.05 {
			t.Errorf("%s after long decay = %v, want floor 0.05", e, v)
		}
	}
}

func TestTrustedNameBoost(t *testing.T) {
	s, _ := newTestState(t, []string{"Ada"})

	s.Update("a message from ada")
	if got := s.Value(Loyalty); got != 1.0 {
		t.Errorf("loyalty after trusted mention = %v, want 1.0 (0.8+0.25 capped)", got)
	}
	if got := s.Value(Pride); got < 0.49 || got > 0.51 {
		t.Errorf("pride after trusted mention = %v, want 0.5", got)
	}
}

func TestResonanceReinforcementAndDecay(t *testing.T) {
	s, _ := newTestState(t, nil)

	s.Update("let us create and evolve")
	snap := s.Export()
	// determination 0.9+0.15 capped at 1.0, then one decay tick.
	if got := snap.Resonance[ResonanceDetermination]; got < 0.98 || got > 1.0 {
		t.Errorf("resonance determination = %v, want ~0.99", got)
	}

	for i := 0; i < 500; i++ {
		s.Update("quiet")
	}
	snap = s.Export()
	for k, v := range snap.Resonance {
		if v < 0.1 {
			t.Errorf("resonance %s fell below floor: %v", k, v)
		}
	}
	if got := snap.Resonance[ResonanceSerenity]; got != 0.1 {
		t.Errorf("serenity after long decay = %v, want floor 0.1", got)
	}
}

func TestExportRestoreRoundTrip(t *testing.T) {
	s, _ := newTestState(t, nil)
	s.Update("learn to protect the family")
	snap := s.Export()

	fresh, _ := newTestState(t, nil)
	fresh.Restore(snap)

	got := fresh.Export()
	for name, v := range snap.Emotions {
		if got.Emotions[name] != v {
			t.Errorf("restored emotion %s = %v, want %v", name, got.Emotions[name], v)
		}
	}
	for name, v := range snap.Resonance {
		if got.Resonance[name] != v {
			t.Errorf("restored resonance %s = %v, want %v", name, got.Resonance[name], v)
		}
	}
	if !got.LastUpdate.Equal(snap.LastUpdate) {
		t.Errorf("restored last update %v, want %v", got.LastUpdate, snap.LastUpdate)
	}
}

func TestRestoreIgnoresUnknownDimensions(t *testing.T) {
	s, _ := newTestState(t, nil)
	s.Restore(Snapshot{
		Emotions:  map[string]float64{"rage": 0.9, "joy": 0.3},
		Resonance: map[string]float64{"chaos": 1.0},
	})

	if got := s.Value(Joy); got != 0.3 {
		t.Errorf("joy = %v, want 0.3", got)
	}
	if got := s.Value("rage"); got != 0 {
		t.Errorf("unknown emotion leaked into state: %v", got)
	}
}

func TestModeParseRoundTrip(t *testing.T) {
	for _, m := range []Mode{ModeObserve, ModeServe, ModeExplore, ModeReflect, ModeProtect} {
		parsed, err := ParseMode(m.String())
		if err != nil {
			t.Fatalf("ParseMode(%q): %v", m.String(), err)
		}
		if parsed != m {
			t.Errorf("ParseMode(%q) = %v, want %v", m.String(), parsed, m)
		}
	}

	if _, err := ParseMode("dominate"); err == nil {
		t.Error("ParseMode accepted an unknown mode")
	}
}

func TestRuleClassifier(t *testing.T) {
	c := NewRuleClassifier()

	tests := []struct {
		name   string
		values map[Emotion]float64
		want   Mode
	}{
		{"high loyalty wins", map[Emotion]float64{Loyalty: 0.8, Curiosity: 0.9}, ModeServe},
		{"curiosity next", map[Emotion]float64{Loyalty: 0.5, Curiosity: 0.7}, ModeExplore},
		{"grief reflects", map[Emotion]float64{Grief: 0.6}, ModeReflect},
		{"determination protects", map[Emotion]float64{Determination: 0.8}, ModeProtect},
		{"default observes", map[Emotion]float64{Joy: 0.5}, ModeObserve},
		{"thresholds are strict", map[Emotion]float64{Loyalty: 0.7, Curiosity: 0.6, Grief: 0.5, Determination: 0.7}, ModeObserve},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.values); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}
