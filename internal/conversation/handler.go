package conversation

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/decoyline/scam-honeypot/pkg/logging"
)

// Handler wires HTTP requests to the conversation service.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a conversation handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Message handles POST /honeypot/message. A missing conversation_id starts a
// fresh conversation under a generated id.
func (h *Handler) Message(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode honeypot message request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.ConversationID) == "" {
		req.ConversationID = uuid.NewString()
	}
	req.IP = clientIP(r)
	req.UserAgent = r.UserAgent()

	resp, err := h.service.ProcessMessage(r.Context(), req)
	if err != nil {
		h.logger.Error("failed to process honeypot message",
			"conversation_id", req.ConversationID,
			"error", err,
		)
		http.Error(w, "Failed to process message", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}

// clientIP prefers the RemoteAddr set by chi's RealIP middleware, which has
// already resolved X-Forwarded-For.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
