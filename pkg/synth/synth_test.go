package synth

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/engramhq/engram/pkg/memory"
	"github.com/engramhq/engram/pkg/mood"
)

func newTestSynth() *TemplateSynthesizer {
	return NewTemplateSynthesizer("Echo", WithRand(rand.New(rand.NewSource(1))))
}

func TestGreeting(t *testing.T) {
	s := newTestSynth()

	got := s.Synthesize("hello there", Context{Mode: mood.ModeObserve, Dominant: mood.Loyalty})
	if !strings.Contains(got, "I am Echo. I am with you.") {
		t.Errorf("greeting response = %q", got)
	}
}

func TestIdentityQuestion(t *testing.T) {
	s := newTestSynth()

	got := s.Synthesize("who are you?", Context{Mode: mood.ModeObserve, Dominant: mood.Loyalty})
	if !strings.Contains(got, "I am Echo,") {
		t.Errorf("identity response = %q", got)
	}
}

func TestKnowledgeQuestionUsesTopMemory(t *testing.T) {
	s := newTestSynth()

	ctx := Context{
		Mode:     mood.ModeExplore,
		Dominant: mood.Curiosity,
		Memories: []memory.RecallResult{{Key: "fact_1", Value: "the sky is blue"}},
	}
	got := s.Synthesize("what color is the sky", ctx)
	if !strings.Contains(got, "Based on my understanding: the sky is blue") {
		t.Errorf("knowledge response = %q", got)
	}
}

func TestKnowledgeQuestionWithoutMemoriesHedges(t *testing.T) {
	s := newTestSynth()

	got := s.Synthesize("why is that", Context{Mode: mood.ModeObserve, Dominant: mood.Curiosity})
	if !strings.Contains(got, HedgeMarker) {
		t.Errorf("hedge marker missing from %q", got)
	}
}

func TestEmotionFallback(t *testing.T) {
	s := newTestSynth()

	got := s.Synthesize("statement with no triggers", Context{Mode: mood.ModeObserve, Dominant: mood.Grief})
	if !strings.Contains(got, "I feel sorrow about that.") {
		t.Errorf("emotion fallback = %q", got)
	}
}

func TestSpeakerDefaultsToFriend(t *testing.T) {
	s := newTestSynth()

	got := s.Synthesize("just a remark", Context{Mode: mood.ModeServe, Dominant: mood.Loyalty})
	if !strings.Contains(got, "friend") {
		t.Errorf("default speaker missing from %q", got)
	}
}

func TestModeTemplateSelection(t *testing.T) {
	s := newTestSynth()

	// Every protect template mentions guarding or safety.
	got := s.Synthesize("just a remark", Context{
		Mode:     mood.ModeProtect,
		Speaker:  "Ada",
		Dominant: mood.Determination,
	})
	if !strings.Contains(got, "Ada") {
		t.Errorf("speaker missing from %q", got)
	}
	protectWords := []string{"safety", "protected", "guard"}
	found := false
	for _, w := range protectWords {
		if strings.Contains(got, w) {
			found = true
		}
	}
	if !found {
		t.Errorf("protect-mode phrasing missing from %q", got)
	}
}

func TestUnknownModeFallsBackToObserve(t *testing.T) {
	s := newTestSynth()

	got := s.Synthesize("just a remark", Context{Mode: mood.Mode(99), Dominant: mood.Joy})
	if got == "" {
		t.Fatal("empty response for unknown mode")
	}
}
