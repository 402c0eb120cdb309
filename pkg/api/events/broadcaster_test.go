package events

import (
	"sync"
	"testing"
	"time"
)

func TestBroadcaster_SubscribeBroadcastUnsubscribe(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe(1)

	b.Broadcast(Event{
		Type: "directive.processed",
		Payload: map[string]any{
			"session_id": "sess-1",
		},
	})

	select {
	case event := <-ch:
		if event.Type != "directive.processed" {
			t.Fatalf("type = %q, want directive.processed", event.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for broadcast event")
	}

	b.Unsubscribe(ch)
}

func TestBroadcaster_Helpers(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe(4)

	b.BroadcastSessionCreated("sess-1", time.Now().UTC())
	b.BroadcastDirectiveProcessed("sess-1", "serve", "I am with you.", false, 0.12)
	b.BroadcastReflectionCompleted("sess-1", 1, 0.15, []string{"I observe my own processes."})
	b.BroadcastSnapshotSaved("sess-1", time.Now().UTC())

	var received int
	for received < 4 {
		select {
		case <-ch:
			received++
		case <-time.After(time.Second):
			t.Fatalf("expected 4 helper events, got %d", received)
		}
	}
}

func TestBroadcaster_ConcurrentUnsubscribe(t *testing.T) {
	b := NewBroadcaster()

	// Subscribers tearing down mid-broadcast must never see a send on a
	// closed channel.
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		ch := b.Subscribe(1)
		wg.Add(1)
		go func(ch chan Event) {
			defer wg.Done()
			b.Unsubscribe(ch)
		}(ch)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			b.BroadcastSessionRemoved("sess-1")
		}
	}()

	wg.Wait()
	b.Close()
}

func TestBroadcaster_DropOnOverflow(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe(1)

	b.BroadcastSessionRemoved("sess-1")
	b.BroadcastSessionRemoved("sess-2")

	if got := len(ch); got != 1 {
		t.Fatalf("buffered events = %d, want 1", got)
	}
	b.Close()
}
