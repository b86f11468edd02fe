package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"agrichat/internal/models"
	"agrichat/internal/services"
)

type stubSessions struct {
	known map[string]bool
}

func (s *stubSessions) GetSession(ctx context.Context, id string) (*models.ChatSession, error) {
	if !s.known[id] {
		return nil, &services.NotFoundError{Message: "Chat session not found"}
	}
	return &models.ChatSession{ID: id}, nil
}

func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/chat/{session_id}/ws", hub.HandleWebSocket)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func waitForSubscribers(t *testing.T, hub *Hub, sessionID string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers(sessionID) != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d subscribers, got %d", n, hub.Subscribers(sessionID))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHub_PublishReachesSubscriber(t *testing.T) {
	hub := NewHub(nil, &stubSessions{known: map[string]bool{"s1": true}})
	defer hub.Close()
	srv := newTestServer(t, hub)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/s1/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer ws.Close()
	waitForSubscribers(t, hub, "s1", 1)

	msg := models.WSMessage{Type: models.WSMessageAppended, Payload: &models.ChatMessage{SessionID: "s1", Role: models.RoleAssistant, Content: "ok"}}
	if err := hub.Publish(context.Background(), "s1", msg); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var got struct {
		Type    string             `json:"type"`
		Payload models.ChatMessage `json:"payload"`
	}
	json.Unmarshal(data, &got)
	if got.Type != models.WSMessageAppended || got.Payload.Content != "ok" {
		t.Fatalf("unexpected update: %s", data)
	}
}

func TestHub_UnknownSession(t *testing.T) {
	hub := NewHub(nil, &stubSessions{})
	srv := newTestServer(t, hub)

	resp, err := http.Get(srv.URL + "/chat/missing/ws")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub := NewHub(nil, &stubSessions{known: map[string]bool{"s1": true}})
	srv := newTestServer(t, hub)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/s1/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	waitForSubscribers(t, hub, "s1", 1)

	ws.Close()
	waitForSubscribers(t, hub, "s1", 0)
}

func TestHub_PublishDoesNotBlockOnStalledSubscriber(t *testing.T) {
	hub := NewHub(nil, &stubSessions{known: map[string]bool{"s1": true}})
	defer hub.Close()
	srv := newTestServer(t, hub)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/s1/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer ws.Close()
	waitForSubscribers(t, hub, "s1", 1)

	// The client never reads, so the socket buffers fill up.
	big := models.WSMessage{Type: models.WSMessageAppended, Payload: &models.ChatMessage{SessionID: "s1", Role: models.RoleAssistant, Content: strings.Repeat("x", 1<<20)}}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 64; i++ {
			hub.Publish(context.Background(), "s1", big)
		}
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("publish blocked on a subscriber that does not read")
	}

	waitForSubscribers(t, hub, "s1", 0)
}
