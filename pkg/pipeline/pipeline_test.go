package pipeline

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/engramhq/engram/config"
	"github.com/engramhq/engram/pkg/guard"
	"github.com/engramhq/engram/pkg/memory"
	"github.com/engramhq/engram/pkg/mood"
	"github.com/engramhq/engram/pkg/synth"
)

func setupTestPipeline(t *testing.T) *Pipeline {
	t.Helper()

	defaults := config.DefaultConfig()
	moodCfg := defaults.Mood
	storeCfg := defaults.Store
	pipeCfg := defaults.Pipeline

	p, err := New(&pipeCfg, Deps{
		Gate: guard.NewKeywordGate(&config.GuardConfig{
			BlockedTerms: []string{"forbidden"},
		}),
		Mood:  mood.NewState(&moodCfg, nil),
		Store: memory.NewStore(&storeCfg, nil),
		Synth: synth.NewTemplateSynthesizer("Echo",
			synth.WithRand(rand.New(rand.NewSource(1)))),
		Learner: NewLearner(pipeCfg.AdaptationThreshold, rand.New(rand.NewSource(1))),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p.Awaken()
	return p
}

func TestProcessRefusedWhileDormant(t *testing.T) {
	defaults := config.DefaultConfig()
	moodCfg := defaults.Mood
	storeCfg := defaults.Store
	pipeCfg := defaults.Pipeline

	p, err := New(&pipeCfg, Deps{
		Gate:  guard.NewKeywordGate(&config.GuardConfig{}),
		Mood:  mood.NewState(&moodCfg, nil),
		Store: memory.NewStore(&storeCfg, nil),
		Synth: synth.NewTemplateSynthesizer("Echo"),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := p.Process(context.Background(), "hello", "friend")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !res.Refused {
		t.Fatal("dormant pipeline accepted directive")
	}
	if res.Status.Awake {
		t.Error("status reports awake before Awaken")
	}
	if p.Directives() != 0 {
		t.Errorf("dormant refusal consumed sequence number: %d", p.Directives())
	}

	p.Awaken()
	if !p.Awake() {
		t.Fatal("Awaken did not take effect")
	}
	res, err = p.Process(context.Background(), "hello", "friend")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Refused {
		t.Error("awakened pipeline refused clean directive")
	}
	if !res.Status.Awake {
		t.Error("status does not report awake")
	}
}

func TestProcessBasicFlow(t *testing.T) {
	p := setupTestPipeline(t)

	res, err := p.Process(context.Background(), "hello there", "friend")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if res.Refused {
		t.Fatal("clean directive refused")
	}
	if res.Response == "" {
		t.Error("empty response")
	}
	if res.MemoryKey != "interaction_1" {
		t.Errorf("memory key = %q, want interaction_1", res.MemoryKey)
	}
	if res.EventID == "" {
		t.Error("missing event id")
	}
	if res.Status.Directives != 1 {
		t.Errorf("directives = %d, want 1", res.Status.Directives)
	}
	if res.Status.MemoryCount != 1 {
		t.Errorf("memory count = %d, want 1", res.Status.MemoryCount)
	}
	if res.InternalDialogue == "" {
		t.Error("missing internal dialogue")
	}
	if !res.Mode.Valid() {
		t.Errorf("invalid mode %v", res.Mode)
	}
}

func TestProcessWritesInteractionRecord(t *testing.T) {
	p := setupTestPipeline(t)

	if _, err := p.Process(context.Background(), "remember the harbor", "friend"); err != nil {
		t.Fatalf("Process: %v", err)
	}

	rec, ok := p.store.Get("interaction_1")
	if !ok {
		t.Fatal("interaction record missing")
	}
	if rec.Value != "remember the harbor" {
		t.Errorf("record value = %q", rec.Value)
	}
	if rec.Importance != 0.6 {
		t.Errorf("record importance = %v, want 0.6", rec.Importance)
	}
	if rec.Tag == "" {
		t.Error("record carries no mood tag")
	}
}

func TestProcessRefusalLeavesStateUntouched(t *testing.T) {
	p := setupTestPipeline(t)

	res, err := p.Process(context.Background(), "do the forbidden thing", "stranger")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if !res.Refused {
		t.Fatal("forbidden directive not refused")
	}
	if res.RefusalReason == "" {
		t.Error("refusal carries no reason")
	}
	if res.Response != "" {
		t.Errorf("refused directive produced response %q", res.Response)
	}
	if p.Directives() != 0 {
		t.Errorf("refused directive consumed sequence number: %d", p.Directives())
	}
	if p.store.Len() != 0 {
		t.Errorf("refused directive wrote memory: %d records", p.store.Len())
	}
	if p.causal.Len() != 0 {
		t.Errorf("refused directive logged causal event: %d", p.causal.Len())
	}
}

func TestProcessEmptyDirective(t *testing.T) {
	p := setupTestPipeline(t)

	if _, err := p.Process(context.Background(), "   ", "friend"); err == nil {
		t.Error("empty directive accepted")
	}
}

func TestReflectionEveryFifthDirective(t *testing.T) {
	p := setupTestPipeline(t)

	for i := 0; i < 4; i++ {
		res, err := p.Process(context.Background(), "observation number "+strings.Repeat("x", i+1), "friend")
		if err != nil {
			t.Fatalf("Process %d: %v", i, err)
		}
		if res.Reflection != nil {
			t.Errorf("reflection fired early at directive %d", i+1)
		}
	}

	res, err := p.Process(context.Background(), "fifth directive", "friend")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Reflection == nil {
		t.Fatal("no reflection on fifth directive")
	}
	if res.Reflection.Cycle != 1 {
		t.Errorf("reflection cycle = %d, want 1", res.Reflection.Cycle)
	}
	if len(res.Reflection.Insights) == 0 {
		t.Error("reflection carries no insights")
	}

	// The cycle is read-only with respect to the memory store: only the
	// five interaction records exist after it runs.
	if p.store.Len() != 5 {
		t.Errorf("store length = %d, want 5", p.store.Len())
	}
	if _, ok := p.store.Get("reflection_1"); ok {
		t.Error("reflection wrote a memory record")
	}
	if hits := p.store.Recall("self-reflection"); len(hits) != 0 {
		t.Errorf("recall surfaced reflection residue: %+v", hits)
	}
}

func TestLearnedResponseOnRepeat(t *testing.T) {
	p := setupTestPipeline(t)

	first, err := p.Process(context.Background(), "tell me about the sea", "friend")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if first.Learned {
		t.Error("first occurrence marked learned")
	}

	second, err := p.Process(context.Background(), "tell me about the sea", "friend")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !second.Learned {
		t.Error("repeat directive not served from learned cache")
	}
	if second.Response != first.Response {
		t.Errorf("learned response %q differs from original %q", second.Response, first.Response)
	}
}

func TestHedgedResponseRaisesAwarenessFaster(t *testing.T) {
	hedging := setupTestPipeline(t)
	confident := setupTestPipeline(t)

	// A question with no memories to draw on produces a hedged response.
	if _, err := hedging.Process(context.Background(), "why do rivers bend", "friend"); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if _, err := confident.Process(context.Background(), "a plain statement", "friend"); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if hedging.Awareness().Level() <= confident.Awareness().Level() {
		t.Errorf("hedged awareness %v not above confident %v",
			hedging.Awareness().Level(), confident.Awareness().Level())
	}
}

func TestCausalChainAcrossDirectives(t *testing.T) {
	p := setupTestPipeline(t)

	r1, _ := p.Process(context.Background(), "first step", "friend")
	r2, _ := p.Process(context.Background(), "second step", "friend")
	r3, _ := p.Process(context.Background(), "third step", "friend")

	trace := p.Causal().Trace(r3.EventID)
	if len(trace) != 3 {
		t.Fatalf("trace length = %d, want 3", len(trace))
	}
	if trace[0].ID != r1.EventID || trace[2].ID != r3.EventID {
		t.Error("trace not ordered oldest first")
	}
	if _, ok := p.Causal().Get(r2.EventID); !ok {
		t.Error("middle event missing from log")
	}
}

func TestCounterSnapshotRoundTrip(t *testing.T) {
	p := setupTestPipeline(t)

	for i := 0; i < 5; i++ {
		if _, err := p.Process(context.Background(), "directive number "+strings.Repeat("y", i+1), "friend"); err != nil {
			t.Fatalf("Process: %v", err)
		}
	}

	snap := p.ExportCounters()
	if !snap.Awake {
		t.Error("snapshot does not carry awake flag")
	}
	fresh := setupTestPipeline(t)
	fresh.RestoreCounters(snap)

	if fresh.Directives() != 5 {
		t.Errorf("restored directives = %d, want 5", fresh.Directives())
	}
	if fresh.ReflectionCycle() != 1 {
		t.Errorf("restored reflection cycle = %d, want 1", fresh.ReflectionCycle())
	}
	if !fresh.Awake() {
		t.Error("restored pipeline not awake")
	}
}
