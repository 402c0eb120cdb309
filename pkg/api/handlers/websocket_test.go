package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/engramhq/engram/pkg/api/events"
)

type testLogger struct{}

func (testLogger) Debug(msg string, args ...any) {}
func (testLogger) Info(msg string, args ...any)  {}
func (testLogger) Warn(msg string, args ...any)  {}
func (testLogger) Error(msg string, args ...any) {}

func dialWS(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketHandler_ReceivesBroadcast(t *testing.T) {
	broadcaster := events.NewBroadcaster()
	defer broadcaster.Close()

	handler := NewWebSocketHandler(testLogger{}, broadcaster, nil, WebSocketConfig{
		AllowedOrigins: []string{"*"},
	})
	defer handler.Close()

	server := httptest.NewServer(handler)
	defer server.Close()

	conn := dialWS(t, server)

	// Give the registration a moment before broadcasting.
	deadline := time.Now().Add(time.Second)
	for handler.manager.Count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	broadcaster.BroadcastDirectiveProcessed("sess-1", "serve", "I am with you.", false, 0.12)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var event events.Event
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if event.Type != "directive.processed" {
		t.Errorf("event type = %q, want directive.processed", event.Type)
	}
}

func TestWebSocketHandler_SessionFilter(t *testing.T) {
	broadcaster := events.NewBroadcaster()
	defer broadcaster.Close()

	handler := NewWebSocketHandler(testLogger{}, broadcaster, nil, WebSocketConfig{
		AllowedOrigins: []string{"*"},
	})
	defer handler.Close()

	server := httptest.NewServer(handler)
	defer server.Close()

	conn := dialWS(t, server)

	deadline := time.Now().Add(time.Second)
	for handler.manager.Count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	// Subscribe to one session, then emit for another.
	sub, _ := json.Marshal(map[string]string{"type": "subscribe", "session_id": "sess-a"})
	if err := conn.WriteMessage(websocket.TextMessage, sub); err != nil {
		t.Fatalf("write: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	broadcaster.BroadcastSessionRemoved("sess-b")
	broadcaster.BroadcastSessionRemoved("sess-a")

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var event events.Event
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := sessionIDFromPayload(event.Payload); got != "sess-a" {
		t.Errorf("received event for session %q, want sess-a", got)
	}
}

func TestWebSocketHandler_RejectsPlainHTTP(t *testing.T) {
	handler := NewWebSocketHandler(testLogger{}, nil, nil, WebSocketConfig{})
	defer handler.Close()

	req := httptest.NewRequest(http.MethodGet, "/ws/events", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestConnectionManager_Limit(t *testing.T) {
	m := NewConnectionManager(1, nil)

	first := newWSClient(nil, 1)
	if err := m.Register(first); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := m.Register(newWSClient(nil, 1)); err == nil {
		t.Fatal("second register should exceed the limit")
	}
	if m.Count() != 1 {
		t.Errorf("count = %d, want 1", m.Count())
	}

	m.Unregister(first)
	if m.Count() != 0 {
		t.Errorf("count after unregister = %d, want 0", m.Count())
	}
}

func TestIsWebSocketOriginAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws/events", nil)
	req.Host = "localhost:8080"

	if !isWebSocketOriginAllowed(req, nil) {
		t.Error("missing origin should be allowed")
	}

	req.Header.Set("Origin", "https://example.com")
	if !isWebSocketOriginAllowed(req, []string{"*"}) {
		t.Error("wildcard should allow any origin")
	}
	if isWebSocketOriginAllowed(req, []string{"https://other.example"}) {
		t.Error("non-matching origin should be rejected")
	}

	req.Header.Set("Origin", "http://localhost:8080")
	if !isWebSocketOriginAllowed(req, nil) {
		t.Error("same-host origin should be allowed")
	}
}
