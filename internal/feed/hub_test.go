package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decoyline/scam-honeypot/internal/conversation"
	"github.com/decoyline/scam-honeypot/pkg/logging"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()

	hub := NewHub(logging.Default())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) conversation.Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	var event conversation.Event
	require.NoError(t, json.Unmarshal(payload, &event))
	return event
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.Stats()["connectedClients"] == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d connected clients, got %v", want, hub.Stats()["connectedClients"])
}

func TestHub_BroadcastsToConnectedClients(t *testing.T) {
	hub, url := startHub(t)

	conn := dial(t, url)
	waitForClients(t, hub, 1)

	hub.Publish(conversation.Event{
		Type:           conversation.EventTurnProcessed,
		ConversationID: "conv-1",
		Phase:          "pressure",
		RiskScore:      62,
		RiskLevel:      "medium",
		At:             time.Now().UTC(),
	})

	event := readEvent(t, conn)
	assert.Equal(t, conversation.EventTurnProcessed, event.Type)
	assert.Equal(t, "conv-1", event.ConversationID)
	assert.Equal(t, 62, event.RiskScore)
}

func TestHub_SubscriptionFiltersEvents(t *testing.T) {
	hub, url := startHub(t)

	conn := dial(t, url)
	waitForClients(t, hub, 1)

	require.NoError(t, conn.WriteJSON(Subscription{BlockedOnly: true}))
	// Let the hub apply the subscription before broadcasting.
	time.Sleep(50 * time.Millisecond)

	hub.Publish(conversation.Event{
		Type:           conversation.EventTurnProcessed,
		ConversationID: "conv-engaged",
	})
	hub.Publish(conversation.Event{
		Type:           conversation.EventConversationBlocked,
		ConversationID: "conv-blocked",
		Blocked:        true,
		Rule:           "max_turns",
	})

	event := readEvent(t, conn)
	assert.Equal(t, "conv-blocked", event.ConversationID)
	assert.True(t, event.Blocked)
}

func TestHub_PublishWithoutClientsDoesNotBlock(t *testing.T) {
	hub := NewHub(logging.Default())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	for i := 0; i < 500; i++ {
		hub.Publish(conversation.Event{Type: conversation.EventTurnProcessed})
	}
}

func TestHub_AttachDetachAfterShutdownDoesNotBlock(t *testing.T) {
	hub := NewHub(logging.Default())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	cancel()
	<-hub.done

	// Run no longer drains register/unregister; both must bail out on done
	// instead of hanging the connection goroutines.
	finished := make(chan struct{})
	go func() {
		c := &client{hub: hub, send: make(chan []byte, 1)}
		assert.False(t, hub.attach(c))
		hub.detach(c)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("attach/detach blocked after hub shutdown")
	}
}

func TestHub_RejectsUpgradeAfterShutdown(t *testing.T) {
	hub := NewHub(logging.Default())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case <-hub.done:
		default:
			time.Sleep(10 * time.Millisecond)
			continue
		}
		break
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/admin/feed", nil)
	hub.HandleWebSocket(rec, req)
	assert.Equal(t, 503, rec.Code)
}
