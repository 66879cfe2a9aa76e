package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/decoyline/scam-honeypot/internal/intelstore"
	"github.com/decoyline/scam-honeypot/pkg/logging"
)

type stubReportStore struct {
	reports    []intelstore.ReportSummary
	indicators []intelstore.IndicatorCount
	err        error

	gotKind  string
	gotLimit int
}

func (s *stubReportStore) ListRecent(_ context.Context, limit int) ([]intelstore.ReportSummary, error) {
	s.gotLimit = limit
	return s.reports, s.err
}

func (s *stubReportStore) TopIndicators(_ context.Context, kind string, limit int) ([]intelstore.IndicatorCount, error) {
	s.gotKind = kind
	s.gotLimit = limit
	return s.indicators, s.err
}

func TestListReports(t *testing.T) {
	store := &stubReportStore{
		reports: []intelstore.ReportSummary{
			{ReportID: "r1", ConversationID: "conv-1", Rule: "max_turns", RiskScore: 85, RiskLevel: "high", BlockedAt: time.Now()},
		},
	}
	h := NewAdminReportsHandler(store, logging.Default())

	req := httptest.NewRequest(http.MethodGet, "/admin/reports?limit=10", nil)
	rec := httptest.NewRecorder()
	h.ListReports(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if store.gotLimit != 10 {
		t.Fatalf("expected limit 10, got %d", store.gotLimit)
	}

	var resp ReportsListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 1 || len(resp.Reports) != 1 {
		t.Fatalf("expected one report, got %+v", resp)
	}
	if resp.Reports[0].Rule != "max_turns" {
		t.Fatalf("expected rule max_turns, got %q", resp.Reports[0].Rule)
	}
}

func TestListReportsEmpty(t *testing.T) {
	h := NewAdminReportsHandler(&stubReportStore{}, logging.Default())

	req := httptest.NewRequest(http.MethodGet, "/admin/reports", nil)
	rec := httptest.NewRecorder()
	h.ListReports(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var resp ReportsListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Reports == nil {
		t.Fatalf("expected empty array, got null")
	}
}

func TestListReportsStoreFailure(t *testing.T) {
	h := NewAdminReportsHandler(&stubReportStore{err: errors.New("db down")}, logging.Default())

	req := httptest.NewRequest(http.MethodGet, "/admin/reports", nil)
	rec := httptest.NewRecorder()
	h.ListReports(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
	}
}

func indicatorRequest(kind string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/admin/indicators/"+kind, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("kind", kind)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestTopIndicators(t *testing.T) {
	store := &stubReportStore{
		indicators: []intelstore.IndicatorCount{
			{Kind: "upi_id", Value: "scammer@paytm", Reports: 4},
		},
	}
	h := NewAdminReportsHandler(store, logging.Default())

	rec := httptest.NewRecorder()
	h.TopIndicators(rec, indicatorRequest("upi_id"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if store.gotKind != "upi_id" {
		t.Fatalf("expected kind upi_id, got %q", store.gotKind)
	}

	var resp IndicatorsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Indicators) != 1 || resp.Indicators[0].Reports != 4 {
		t.Fatalf("unexpected indicators: %+v", resp.Indicators)
	}
}

func TestTopIndicatorsRejectsUnknownKind(t *testing.T) {
	h := NewAdminReportsHandler(&stubReportStore{}, logging.Default())

	rec := httptest.NewRecorder()
	h.TopIndicators(rec, indicatorRequest("email"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}
