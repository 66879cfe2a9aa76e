package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/decoyline/scam-honeypot/internal/intelstore"
	"github.com/decoyline/scam-honeypot/pkg/logging"
)

// ReportStore is the subset of the intelligence store the admin API reads.
type ReportStore interface {
	ListRecent(ctx context.Context, limit int) ([]intelstore.ReportSummary, error)
	TopIndicators(ctx context.Context, kind string, limit int) ([]intelstore.IndicatorCount, error)
}

// AdminReportsHandler serves blocked-report history and indicator rollups
// to the admin dashboard.
type AdminReportsHandler struct {
	store  ReportStore
	logger *logging.Logger
}

// NewAdminReportsHandler creates an admin reports handler.
func NewAdminReportsHandler(store ReportStore, logger *logging.Logger) *AdminReportsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminReportsHandler{store: store, logger: logger}
}

// ReportsListResponse is the payload for the blocked-reports listing.
type ReportsListResponse struct {
	Reports []intelstore.ReportSummary `json:"reports"`
	Count   int                        `json:"count"`
}

// ListReports returns the most recently blocked conversations.
// GET /admin/reports?limit=50
func (h *AdminReportsHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	reports, err := h.store.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list blocked reports", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if reports == nil {
		reports = []intelstore.ReportSummary{}
	}

	writeJSON(w, http.StatusOK, ReportsListResponse{Reports: reports, Count: len(reports)})
}

// IndicatorsResponse is the payload for the indicator rollup.
type IndicatorsResponse struct {
	Kind       string                      `json:"kind"`
	Indicators []intelstore.IndicatorCount `json:"indicators"`
}

var validIndicatorKinds = map[string]struct{}{
	"upi_id":        {},
	"bank_account":  {},
	"phishing_link": {},
}

// TopIndicators returns the most frequently flagged indicators of one kind.
// GET /admin/indicators/{kind}?limit=20
func (h *AdminReportsHandler) TopIndicators(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if _, ok := validIndicatorKinds[kind]; !ok {
		http.Error(w, "unknown indicator kind", http.StatusBadRequest)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	indicators, err := h.store.TopIndicators(r.Context(), kind, limit)
	if err != nil {
		h.logger.Error("failed to query top indicators", "error", err, "kind", kind)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if indicators == nil {
		indicators = []intelstore.IndicatorCount{}
	}

	writeJSON(w, http.StatusOK, IndicatorsResponse{Kind: kind, Indicators: indicators})
}
