package emailintel

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/decoyline/scam-honeypot/pkg/logging"
)

// Handler wires HTTP requests to the email analyzer.
type Handler struct {
	analyzer *Analyzer
	logger   *logging.Logger
}

// NewHandler creates an email analysis handler.
func NewHandler(analyzer *Analyzer, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{analyzer: analyzer, logger: logger}
}

// Analyze handles POST /honeypot/email.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode email analysis request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.FromEmail) == "" || strings.TrimSpace(req.MessageText) == "" {
		http.Error(w, "from_email and message_text are required", http.StatusBadRequest)
		return
	}

	resp := h.analyzer.Analyze(req)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
