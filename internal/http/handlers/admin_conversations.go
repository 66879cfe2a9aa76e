package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/decoyline/scam-honeypot/internal/conversation"
	"github.com/decoyline/scam-honeypot/internal/transcript"
	"github.com/decoyline/scam-honeypot/pkg/logging"
)

// AdminConversationsHandler exposes live conversation state for inspection.
// Reads go straight to the engine's state store, so the view reflects
// whatever the last processed turn persisted.
type AdminConversationsHandler struct {
	store  conversation.Store
	logger *logging.Logger
}

// NewAdminConversationsHandler creates an admin conversations handler.
func NewAdminConversationsHandler(store conversation.Store, logger *logging.Logger) *AdminConversationsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminConversationsHandler{store: store, logger: logger}
}

// ConversationDetailResponse is the admin view of one conversation.
type ConversationDetailResponse struct {
	ConversationID string               `json:"conversation_id"`
	Phase          string               `json:"phase"`
	Blocked        bool                 `json:"blocked"`
	BlockedReason  string               `json:"blocked_reason,omitempty"`
	BlockedRule    string               `json:"blocked_rule,omitempty"`
	TurnCount      int                  `json:"turn_count"`
	ScammerTurns   int                  `json:"scammer_turns"`
	Messages       []transcript.Message `json:"messages"`
}

// GetConversation returns the persisted state of one conversation.
// GET /admin/conversations/{conversationID}
func (h *AdminConversationsHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	if conversationID == "" {
		http.Error(w, "missing conversationID", http.StatusBadRequest)
		return
	}

	state, err := h.store.Load(r.Context(), conversationID)
	if err != nil {
		h.logger.Error("failed to load conversation", "error", err, "conversation_id", conversationID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if state == nil {
		http.Error(w, "conversation not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, ConversationDetailResponse{
		ConversationID: conversationID,
		Phase:          state.Phase.String(),
		Blocked:        state.Blocked,
		BlockedReason:  state.BlockedReason,
		BlockedRule:    state.BlockedRule,
		TurnCount:      len(state.Messages),
		ScammerTurns:   transcript.ScammerTurns(state.Messages),
		Messages:       state.Messages,
	})
}
