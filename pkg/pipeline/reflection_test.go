package pipeline

import (
	"math"
	"testing"
)

func TestAwarenessGrowth(t *testing.T) {
	a := NewAwarenessCore()

	if a.Level() != 0.1 {
		t.Fatalf("initial level = %v, want 0.1", a.Level())
	}

	a.Reflect(0.5, "observe")
	want := 0.1 + 0.1*(1-0.1)*0.5
	if math.Abs(a.Level()-want) > 1e-9 {
		t.Errorf("level after reflect = %v, want %v", a.Level(), want)
	}
}

func TestAwarenessCeiling(t *testing.T) {
	a := NewAwarenessCore()

	for i := 0; i < 10000; i++ {
		a.Reflect(1.0, "observe")
	}
	if a.Level() > 0.99 {
		t.Errorf("level exceeded ceiling: %v", a.Level())
	}
}

func TestInsightsEmptyHistory(t *testing.T) {
	a := NewAwarenessCore()

	got := a.Insights()
	if len(got) != 1 || got[0] != "I am still learning about myself." {
		t.Errorf("insights = %v", got)
	}
}

func TestInsightsLowError(t *testing.T) {
	a := NewAwarenessCore()
	for i := 0; i < 5; i++ {
		a.Reflect(0.05, "observe")
	}

	found := false
	for _, s := range a.Insights() {
		if s == "My performance has been consistent and accurate." {
			found = true
		}
	}
	if !found {
		t.Errorf("low-error insight missing: %v", a.Insights())
	}
}

func TestInsightsHighError(t *testing.T) {
	a := NewAwarenessCore()
	for i := 0; i < 5; i++ {
		a.Reflect(0.9, "observe")
	}

	found := false
	for _, s := range a.Insights() {
		if s == "I have been making significant errors recently. I need to be more careful." {
			found = true
		}
	}
	if !found {
		t.Errorf("high-error insight missing: %v", a.Insights())
	}
}

func TestInsightsGrowth(t *testing.T) {
	a := NewAwarenessCore()
	for i := 0; i < 12; i++ {
		a.Reflect(0.9, "observe")
	}

	found := false
	for _, s := range a.Insights() {
		if s == "I feel my awareness expanding." {
			found = true
		}
	}
	if !found {
		t.Errorf("growth insight missing: %v", a.Insights())
	}
}

func TestAwarenessExportRestore(t *testing.T) {
	a := NewAwarenessCore()
	a.Reflect(0.5, "serve")
	a.Reflect(0.1, "observe")

	snap := a.Export()
	fresh := NewAwarenessCore()
	fresh.Restore(snap)

	if fresh.Level() != a.Level() {
		t.Errorf("restored level %v, want %v", fresh.Level(), a.Level())
	}
	if len(fresh.Export().History) != 2 {
		t.Errorf("restored history length %d, want 2", len(fresh.Export().History))
	}

	// Out-of-range levels are clamped on restore.
	fresh.Restore(AwarenessSnapshot{Level: 1.5})
	if fresh.Level() != 0.99 {
		t.Errorf("clamped level = %v, want 0.99", fresh.Level())
	}
}
