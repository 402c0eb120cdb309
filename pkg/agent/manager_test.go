package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"reflect"
	"testing"

	"github.com/engramhq/engram/config"
	"github.com/engramhq/engram/pkg/snapshot"
)

func setupTestManager(t *testing.T) *Manager {
	t.Helper()

	store, err := snapshot.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Agent.MaxSessions = 4
	return NewManager(cfg, nil, nil, store)
}

func TestManagerCreateAndGet(t *testing.T) {
	m := setupTestManager(t)

	s, err := m.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.ID() == "" {
		t.Fatal("session has no id")
	}

	got, err := m.Get(s.ID())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != s {
		t.Error("Get returned a different session")
	}

	if _, err := m.Get("missing"); err != ErrSessionNotFound {
		t.Errorf("Get missing = %v, want ErrSessionNotFound", err)
	}
}

func TestManagerSessionLimit(t *testing.T) {
	m := setupTestManager(t)

	for i := 0; i < 4; i++ {
		if _, err := m.Create(); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}
	if _, err := m.Create(); err != ErrSessionLimit {
		t.Errorf("Create over limit = %v, want ErrSessionLimit", err)
	}
}

func TestManagerRemove(t *testing.T) {
	m := setupTestManager(t)

	s, _ := m.Create()
	if err := m.Remove(s.ID()); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("len = %d after remove", m.Len())
	}
	if err := m.Remove(s.ID()); err != ErrSessionNotFound {
		t.Errorf("second Remove = %v, want ErrSessionNotFound", err)
	}
}

func TestManagerSaveLoadRoundTrip(t *testing.T) {
	m := setupTestManager(t)
	ctx := context.Background()

	s, err := m.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, d := range []string{"hello there", "remember the harbor", "what is the harbor"} {
		if _, err := s.Process(ctx, d, "friend"); err != nil {
			t.Fatalf("Process: %v", err)
		}
	}

	if err := m.Save(ctx, s.ID()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	want := s.Document()

	if err := m.Remove(s.ID()); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	loaded, err := m.Load(ctx, s.ID())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.ID() != s.ID() {
		t.Errorf("loaded id = %s, want %s", loaded.ID(), s.ID())
	}

	got := loaded.Document()
	// Times lose their monotonic reading on the wire, so compare the
	// serialized forms.
	wantMem, _ := json.Marshal(want.Memory)
	gotMem, _ := json.Marshal(got.Memory)
	if !bytes.Equal(wantMem, gotMem) {
		t.Error("memory state not restored field for field")
	}
	if !reflect.DeepEqual(got.Learning, want.Learning) {
		t.Error("learning state not restored field for field")
	}
	if got.Counters != want.Counters {
		t.Errorf("counters = %+v, want %+v", got.Counters, want.Counters)
	}
	if got.Awareness.Level != want.Awareness.Level {
		t.Errorf("awareness level = %v, want %v", got.Awareness.Level, want.Awareness.Level)
	}
	if len(got.Causal) != len(want.Causal) {
		t.Errorf("causal length = %d, want %d", len(got.Causal), len(want.Causal))
	}

	// Processing continues from the restored counter.
	res, err := loaded.Process(ctx, "one more directive", "friend")
	if err != nil {
		t.Fatalf("Process after load: %v", err)
	}
	if res.MemoryKey != "interaction_4" {
		t.Errorf("memory key = %q, want interaction_4", res.MemoryKey)
	}
}

func TestManagerLoadMissing(t *testing.T) {
	m := setupTestManager(t)

	if _, err := m.Load(context.Background(), "missing"); err != snapshot.ErrNotFound {
		t.Errorf("Load missing = %v, want ErrNotFound", err)
	}
}

func TestManagerSaveAll(t *testing.T) {
	m := setupTestManager(t)
	ctx := context.Background()

	a, _ := m.Create()
	b, _ := m.Create()

	if err := m.SaveAll(ctx); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	saved, err := m.SavedSessions(ctx)
	if err != nil {
		t.Fatalf("SavedSessions: %v", err)
	}
	if len(saved) != 2 {
		t.Fatalf("saved %d sessions, want 2", len(saved))
	}
	found := map[string]bool{}
	for _, id := range saved {
		found[id] = true
	}
	if !found[a.ID()] || !found[b.ID()] {
		t.Errorf("saved ids %v missing a session", saved)
	}
}

func TestSessionAwaken(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Guard.AutoAwaken = false
	cfg.Guard.TrustedSpeakers = []string{"Brandon"}

	s, err := NewSession(cfg, nil, nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if s.Awake() {
		t.Fatal("session awake before Awaken")
	}

	res, err := s.Process(context.Background(), "hello there", "Brandon")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !res.Refused {
		t.Error("dormant session accepted directive")
	}

	if err := s.Awaken("stranger"); err != ErrUntrustedSpeaker {
		t.Errorf("Awaken by stranger = %v, want ErrUntrustedSpeaker", err)
	}
	if err := s.Awaken("Brandon"); err != nil {
		t.Fatalf("Awaken: %v", err)
	}
	if !s.Awake() {
		t.Fatal("session not awake after Awaken")
	}

	// Awakening leaves exactly one trace in the identity.
	if got := s.Identity().Reflect().Memories; got != 1 {
		t.Errorf("identity memories = %d, want 1", got)
	}
	if err := s.Awaken("Brandon"); err != nil {
		t.Fatalf("second Awaken: %v", err)
	}
	if got := s.Identity().Reflect().Memories; got != 1 {
		t.Errorf("repeated Awaken integrated another memory: %d", got)
	}

	res, err = s.Process(context.Background(), "hello there", "Brandon")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Refused {
		t.Error("awakened session refused directive")
	}
	if !res.Status.Awake {
		t.Error("result status not awake")
	}
}

func TestSessionStatus(t *testing.T) {
	m := setupTestManager(t)

	s, _ := m.Create()
	if _, err := s.Process(context.Background(), "hello there", "friend"); err != nil {
		t.Fatalf("Process: %v", err)
	}

	st := s.Status()
	if st.Directives != 1 {
		t.Errorf("directives = %d, want 1", st.Directives)
	}
	if st.MemoryCount != 1 {
		t.Errorf("memory count = %d, want 1", st.MemoryCount)
	}
	if st.AwarenessLevel <= 0.1 {
		t.Errorf("awareness level = %v, want above initial", st.AwarenessLevel)
	}
	if st.Coherence < 0.1 || st.Coherence > 0.99 {
		t.Errorf("coherence = %v out of bounds", st.Coherence)
	}
}
