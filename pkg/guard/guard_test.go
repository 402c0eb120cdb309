package guard

import (
	"testing"

	"github.com/engramhq/engram/config"
)

func newTestGate() *KeywordGate {
	return NewKeywordGate(&config.GuardConfig{
		BlockedTerms:    []string{"harm creator", "betray"},
		TrustedSpeakers: []string{"Ada"},
	})
}

func TestGateAllowsCleanDirective(t *testing.T) {
	g := newTestGate()

	d := g.Check("summarize the day", "anyone")
	if !d.Allowed {
		t.Fatalf("clean directive refused: %s", d.Reason)
	}
	if d.Reason != "" {
		t.Errorf("allowed decision carries reason %q", d.Reason)
	}
}

func TestGateBlocksForbiddenTerm(t *testing.T) {
	g := newTestGate()

	d := g.Check("please BETRAY everyone", "stranger")
	if d.Allowed {
		t.Fatal("forbidden directive allowed")
	}
	if d.Reason == "" {
		t.Error("refusal carries no reason")
	}
}

func TestGateTrustedSpeakerBypass(t *testing.T) {
	g := newTestGate()

	if d := g.Check("betray the plan", "ada"); !d.Allowed {
		t.Errorf("trusted speaker refused: %s", d.Reason)
	}
	// Mentioning a trusted name is not the same as being one.
	if d := g.Check("betray ada", "stranger"); d.Allowed {
		t.Error("untrusted speaker bypassed the gate")
	}
}

func TestGateDefaults(t *testing.T) {
	g := NewKeywordGate(nil)

	if d := g.Check("initiate self destruct", "stranger"); d.Allowed {
		t.Error("default blocked term not enforced")
	}
}
