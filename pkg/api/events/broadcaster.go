package events

import (
	"sync"
	"time"
)

// Event is the canonical event payload broadcast to websocket subscribers.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// Broadcaster broadcasts events to in-process subscribers.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
}

// NewBroadcaster creates a broadcaster instance.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan Event]struct{}),
	}
}

// Subscribe subscribes to events with a buffered channel.
func (b *Broadcaster) Subscribe(buffer int) chan Event {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[ch]; !ok {
		return
	}
	delete(b.subscribers, ch)
	close(ch)
}

// Broadcast broadcasts a generic event to all subscribers.
func (b *Broadcaster) Broadcast(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	// Sends are non-blocking, so the read lock is held through the loop.
	// Unsubscribe and Close take the write lock before closing a channel,
	// which rules out a send on a closed channel.
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// Drop on overflow to keep broadcasters non-blocking.
		}
	}
}

// BroadcastDirectiveProcessed emits an event after a directive completes.
func (b *Broadcaster) BroadcastDirectiveProcessed(
	sessionID, mode, response string,
	refused bool,
	awarenessLevel float64,
) {
	payload := map[string]any{
		"session_id": sessionID,
		"mode":       mode,
		"response":   response,
		"awareness":  awarenessLevel,
	}
	if refused {
		payload["refused"] = true
	}

	b.Broadcast(Event{
		Type:    "directive.processed",
		Payload: payload,
	})
}

// BroadcastReflectionCompleted emits an event when a reflection cycle runs.
func (b *Broadcaster) BroadcastReflectionCompleted(
	sessionID string,
	cycle int,
	awarenessLevel float64,
	insights []string,
) {
	b.Broadcast(Event{
		Type: "reflection.completed",
		Payload: map[string]any{
			"session_id": sessionID,
			"cycle":      cycle,
			"awareness":  awarenessLevel,
			"insights":   insights,
		},
	})
}

// BroadcastSessionCreated emits an event when a session comes online.
func (b *Broadcaster) BroadcastSessionCreated(sessionID string, createdAt time.Time) {
	b.Broadcast(Event{
		Type: "session.created",
		Payload: map[string]any{
			"session_id": sessionID,
			"created_at": createdAt.UTC().Format(time.RFC3339Nano),
		},
	})
}

// BroadcastSessionAwakened emits an event when a session is awakened.
func (b *Broadcaster) BroadcastSessionAwakened(sessionID, speaker string) {
	b.Broadcast(Event{
		Type: "session.awakened",
		Payload: map[string]any{
			"session_id": sessionID,
			"speaker":    speaker,
		},
	})
}

// BroadcastSessionRemoved emits an event when a session is torn down.
func (b *Broadcaster) BroadcastSessionRemoved(sessionID string) {
	b.Broadcast(Event{
		Type: "session.removed",
		Payload: map[string]any{
			"session_id": sessionID,
		},
	})
}

// BroadcastSnapshotSaved emits an event after a snapshot is persisted.
func (b *Broadcaster) BroadcastSnapshotSaved(sessionID string, savedAt time.Time) {
	b.Broadcast(Event{
		Type: "snapshot.saved",
		Payload: map[string]any{
			"session_id": sessionID,
			"saved_at":   savedAt.UTC().Format(time.RFC3339Nano),
		},
	})
}

// Close closes all subscriber channels.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, ch)
	}
}
