package pipeline

import (
	"math/rand"
	"strings"
	"testing"
)

func newTestLearner() *Learner {
	return NewLearner(3, rand.New(rand.NewSource(1)))
}

func TestLearnerIgnoresShortWords(t *testing.T) {
	l := newTestLearner()
	l.RecordPattern("the cat sat on a mat by the door")

	snap := l.Export()
	if _, ok := snap.Patterns["cat"]; ok {
		t.Error("three-letter word recorded")
	}
	if snap.Patterns["door"] != 1 {
		t.Errorf("door count = %d, want 1", snap.Patterns["door"])
	}
}

func TestLearnerAdaptFromLearnedResponse(t *testing.T) {
	l := newTestLearner()

	if _, ok := l.Adapt("unknown directive"); ok {
		t.Error("fresh learner adapted")
	}

	l.LearnResponse("  Tell ME something ", "a reply")
	got, ok := l.Adapt("tell me something")
	if !ok || got != "a reply" {
		t.Errorf("Adapt = %q/%v, want learned reply", got, ok)
	}
}

func TestLearnerResponseCap(t *testing.T) {
	l := newTestLearner()

	for _, r := range []string{"one", "two", "three", "four"} {
		l.LearnResponse("prompt", r)
	}

	snap := l.Export()
	list := snap.Responses["prompt"]
	if len(list) != 3 {
		t.Fatalf("retained %d responses, want 3", len(list))
	}
	if list[0] != "two" || list[2] != "four" {
		t.Errorf("retained %v, want newest three", list)
	}
}

func TestLearnerPatternRecognition(t *testing.T) {
	l := newTestLearner()

	for i := 0; i < 4; i++ {
		l.RecordPattern("harvest season approaches")
	}

	got, ok := l.Adapt("when is harvest due")
	if !ok {
		t.Fatal("no adaptation despite frequent pattern")
	}
	if !strings.Contains(got, "harvest") {
		t.Errorf("recognition line %q does not name the pattern", got)
	}
}

func TestLearnerExportRestoreRoundTrip(t *testing.T) {
	l := newTestLearner()
	l.RecordPattern("remember this phrase well")
	l.LearnResponse("remember this phrase well", "noted")

	fresh := newTestLearner()
	fresh.Restore(l.Export())

	got, ok := fresh.Adapt("remember this phrase well")
	if !ok || got != "noted" {
		t.Errorf("restored Adapt = %q/%v", got, ok)
	}
}
