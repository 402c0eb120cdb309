package snapshot

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/engramhq/engram/pkg/memory"
	"github.com/engramhq/engram/pkg/mood"
	"github.com/engramhq/engram/pkg/pipeline"
)

func testDocument(sessionID string) *Document {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &Document{
		Version:   DocumentVersion,
		SessionID: sessionID,
		SavedAt:   at,
		Identity: IdentityState{
			Narrative: "I am Echo.",
			Traits:    map[string]float64{"loyalty": 0.95, "curiosity": 0.7},
			Goals:     []string{"assist", "learn"},
			Events: []IdentityEvent{
				{Event: "first awakening", Weight: 0.95, Emotion: "joy", Timestamp: at},
			},
		},
		Memory: memory.Snapshot{
			Records: []memory.RecordSnapshot{
				{Key: "interaction_1", Value: "hello", Tag: "loyalty", Importance: 0.6, CreatedAt: at, AccessCount: 2},
				{Key: "fact_1", Value: "the sky is blue", Tag: "neutral", Importance: 0.5, CreatedAt: at},
			},
			Links: map[string][]string{
				"interaction_1": {"fact_1"},
				"fact_1":        {"interaction_1"},
			},
		},
		Mood: mood.Snapshot{
			Emotions:   map[string]float64{"joy": 0.4, "loyalty": 0.9},
			Resonance:  map[string]float64{"serenity": 0.5},
			LastUpdate: at,
		},
		Learning: pipeline.LearningSnapshot{
			Patterns:  map[string]int{"hello": 2},
			Responses: map[string][]string{"hello": {"hi there"}},
		},
		Awareness: pipeline.AwarenessSnapshot{
			Level: 0.23,
			History: []pipeline.ReflectionRecord{
				{Timestamp: at, Error: 0.05, Mode: "serve", Awareness: 0.23},
			},
		},
		Causal: []pipeline.CausalEvent{
			{ID: "ev1", Timestamp: at, Name: "hello"},
			{ID: "ev2", Timestamp: at, Name: "again", Causes: []string{"ev1"}},
		},
		Counters: pipeline.CounterSnapshot{
			Awake:           true,
			Directives:      2,
			ReflectionCycle: 0,
			LastEventID:     "ev2",
		},
	}
}

func backends(t *testing.T) map[string]Store {
	t.Helper()

	fileStore, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	badgerStore, err := NewBadgerStore(&BadgerConfig{
		Path:       filepath.Join(t.TempDir(), "badger"),
		SyncWrites: false,
	})
	if err != nil {
		t.Fatalf("NewBadgerStore: %v", err)
	}
	t.Cleanup(func() { badgerStore.Close() })

	return map[string]Store{
		"file":   fileStore,
		"badger": badgerStore,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			want := testDocument("session-1")

			if err := store.Save(ctx, "session-1", want); err != nil {
				t.Fatalf("Save: %v", err)
			}

			got, err := store.Load(ctx, "session-1")
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.Load(context.Background(), "nope"); err != ErrNotFound {
				t.Errorf("Load missing = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestSaveOverwrites(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			first := testDocument("s")
			if err := store.Save(ctx, "s", first); err != nil {
				t.Fatalf("Save: %v", err)
			}

			second := testDocument("s")
			second.Counters.Directives = 99
			if err := store.Save(ctx, "s", second); err != nil {
				t.Fatalf("Save: %v", err)
			}

			got, err := store.Load(ctx, "s")
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got.Counters.Directives != 99 {
				t.Errorf("directives = %d, want 99", got.Counters.Directives)
			}
		})
	}
}

func TestListAndDelete(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			for _, id := range []string{"alpha", "beta"} {
				if err := store.Save(ctx, id, testDocument(id)); err != nil {
					t.Fatalf("Save %s: %v", id, err)
				}
			}

			ids, err := store.List(ctx)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(ids) != 2 {
				t.Fatalf("List = %v, want two ids", ids)
			}

			if err := store.Delete(ctx, "alpha"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := store.Load(ctx, "alpha"); err != ErrNotFound {
				t.Errorf("Load deleted = %v, want ErrNotFound", err)
			}

			// Deleting again is a no-op.
			if err := store.Delete(ctx, "alpha"); err != nil {
				t.Errorf("second Delete: %v", err)
			}
		})
	}
}

func TestInvalidSessionID(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, id := range []string{"", "../escape", "a/b"} {
				if err := store.Save(ctx, id, testDocument(id)); err == nil {
					t.Errorf("Save accepted invalid id %q", id)
				}
			}
		})
	}
}
