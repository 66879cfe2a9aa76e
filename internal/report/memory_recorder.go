package report

import (
	"context"
	"sync"
	"time"

	"github.com/decoyline/scam-honeypot/internal/conversation"
)

// MemoryRecorder tracks report processing state in process memory. It exists
// for tests and for running the report pipeline in-process without DynamoDB.
type MemoryRecorder struct {
	mu      sync.Mutex
	records map[string]*Record
}

// NewMemoryRecorder creates an empty in-memory recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{records: make(map[string]*Record)}
}

// Claim implements Recorder.
func (r *MemoryRecorder) Claim(_ context.Context, reportID string, report *conversation.BlockedReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[reportID]; ok {
		return ErrAlreadyClaimed
	}
	r.records[reportID] = &Record{
		ReportID:       reportID,
		ConversationID: report.ConversationID,
		Status:         StatusPending,
		CreatedAt:      time.Now().UTC().Format(time.RFC3339Nano),
	}
	return nil
}

// MarkCompleted implements Recorder.
func (r *MemoryRecorder) MarkCompleted(_ context.Context, reportID, archiveKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[reportID]
	if !ok {
		return ErrReportNotFound
	}
	rec.Status = StatusCompleted
	rec.ArchiveKey = archiveKey
	return nil
}

// MarkFailed implements Recorder.
func (r *MemoryRecorder) MarkFailed(_ context.Context, reportID, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[reportID]
	if !ok {
		return ErrReportNotFound
	}
	rec.Status = StatusFailed
	rec.ErrorMessage = errMsg
	return nil
}

// Get returns the tracked record for a report, or nil.
func (r *MemoryRecorder) Get(reportID string) *Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records[reportID]
}
