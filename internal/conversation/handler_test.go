package conversation

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/decoyline/scam-honeypot/internal/blacklist"
	"github.com/decoyline/scam-honeypot/pkg/logging"
)

func newTestHandler(t *testing.T) (*Handler, *stubReplyGenerator) {
	t.Helper()
	gen := &stubReplyGenerator{}
	svc := NewService(NewMemoryStore(), blacklist.NewMemoryStore(), gen, nil, nil, nil, logging.Default())
	return NewHandler(svc, logging.Default()), gen
}

func TestHandler_Message_ProcessesTurn(t *testing.T) {
	handler, _ := newTestHandler(t)

	body, _ := json.Marshal(MessageRequest{
		ConversationID: "conv-123",
		Message:        "Pay ₹500 now to scammer@paytm or your account will be blocked",
	})

	req := httptest.NewRequest(http.MethodPost, "/honeypot/message", bytes.NewReader(body))
	req.Header.Set("User-Agent", "scambot/1.0")
	req.RemoteAddr = "203.0.113.9:41234"
	w := httptest.NewRecorder()

	handler.Message(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, w.Code)
	}

	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if !resp.IsScam {
		t.Fatal("expected scam detection")
	}
	if resp.ConversationID != "conv-123" {
		t.Fatalf("expected conversation id conv-123, got %s", resp.ConversationID)
	}
	if resp.HoneypotReply == "" {
		t.Fatal("expected a honeypot reply")
	}
}

func TestHandler_Message_GeneratesConversationID(t *testing.T) {
	handler, _ := newTestHandler(t)

	body := []byte(`{"message":"hello there"}`)
	req := httptest.NewRequest(http.MethodPost, "/honeypot/message", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Message(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, w.Code)
	}

	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ConversationID == "" {
		t.Fatal("expected a generated conversation id")
	}
}

func TestHandler_Message_RejectsEmptyMessage(t *testing.T) {
	handler, gen := newTestHandler(t)

	body := []byte(`{"conversation_id":"conv-1","message":"  "}`)
	req := httptest.NewRequest(http.MethodPost, "/honeypot/message", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Message(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected %d, got %d", http.StatusBadRequest, w.Code)
	}
	if gen.callCount() != 0 {
		t.Fatalf("expected no generator calls, got %d", gen.callCount())
	}
}

func TestHandler_Message_InvalidJSON(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/honeypot/message", strings.NewReader("{not json"))
	w := httptest.NewRecorder()

	handler.Message(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected %d, got %d", http.StatusBadRequest, w.Code)
	}
}
