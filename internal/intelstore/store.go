package intelstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/decoyline/scam-honeypot/internal/conversation"
)

// Store persists blocked-conversation reports and their extracted indicators
// to PostgreSQL for long-term analyst queries. Redis holds live state with a
// TTL; this is the durable record.
type Store struct {
	db *sql.DB
}

// NewStore creates an intelligence archive over the given database handle.
func NewStore(db *sql.DB) *Store {
	if db == nil {
		return nil
	}
	return &Store{db: db}
}

// ReportSummary is one archived report row without its indicators.
type ReportSummary struct {
	ReportID       string    `json:"report_id"`
	ConversationID string    `json:"conversation_id"`
	Reason         string    `json:"reason"`
	Rule           string    `json:"rule,omitempty"`
	Phase          string    `json:"phase"`
	Confidence     float64   `json:"confidence"`
	RiskScore      int       `json:"risk_score"`
	RiskLevel      string    `json:"risk_level"`
	BlockedAt      time.Time `json:"blocked_at"`
}

// IndicatorCount is one flagged indicator with the number of distinct reports
// it appeared in.
type IndicatorCount struct {
	Kind    string `json:"kind"`
	Value   string `json:"value"`
	Reports int    `json:"reports"`
}

// SaveBlockedReport archives one report and its indicators. Replays of the
// same report ID are no-ops, so the report worker can call this on redelivery
// without duplicating rows.
func (s *Store) SaveBlockedReport(ctx context.Context, reportID string, report conversation.BlockedReport) error {
	if s == nil || s.db == nil {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("intelstore: failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO blocked_reports (
			report_id, conversation_id, reason, rule, phase,
			confidence, risk_score, risk_level, ip, user_agent, blocked_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (report_id) DO NOTHING
	`, reportID, report.ConversationID, report.Reason, report.Rule, report.Phase,
		report.Confidence, report.Risk.Score, report.Risk.Level,
		report.IP, report.UserAgent, report.BlockedAt, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("intelstore: failed to insert report: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("intelstore: failed to read insert result: %w", err)
	}
	if rowsAffected == 0 {
		// Already archived by an earlier delivery.
		return tx.Commit()
	}

	indicatorSets := []struct {
		kind   string
		values []string
	}{
		{"upi_id", report.Intelligence.UPIIDs},
		{"bank_account", report.Intelligence.BankAccounts},
		{"phishing_link", report.Intelligence.PhishingLinks},
	}
	for _, set := range indicatorSets {
		for _, value := range set.values {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO flagged_indicators (id, report_id, kind, value, created_at)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (report_id, kind, value) DO NOTHING
			`, uuid.New(), reportID, set.kind, value, time.Now().UTC()); err != nil {
				return fmt.Errorf("intelstore: failed to insert indicator: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("intelstore: failed to commit: %w", err)
	}
	return nil
}

// ListRecent returns the newest archived reports, most recent first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]ReportSummary, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT report_id, conversation_id, reason, rule, phase,
		       confidence, risk_score, risk_level, blocked_at
		FROM blocked_reports
		ORDER BY blocked_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("intelstore: failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []ReportSummary
	for rows.Next() {
		var r ReportSummary
		if err := rows.Scan(
			&r.ReportID, &r.ConversationID, &r.Reason, &r.Rule, &r.Phase,
			&r.Confidence, &r.RiskScore, &r.RiskLevel, &r.BlockedAt,
		); err != nil {
			return nil, fmt.Errorf("intelstore: failed to scan report: %w", err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("intelstore: failed to iterate reports: %w", err)
	}
	return reports, nil
}

// TopIndicators returns the most-seen indicators of one kind across all
// archived reports.
func (s *Store) TopIndicators(ctx context.Context, kind string, limit int) ([]IndicatorCount, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, value, COUNT(DISTINCT report_id) AS reports
		FROM flagged_indicators
		WHERE kind = $1
		GROUP BY kind, value
		ORDER BY reports DESC, value ASC
		LIMIT $2
	`, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("intelstore: failed to query indicators: %w", err)
	}
	defer rows.Close()

	var counts []IndicatorCount
	for rows.Next() {
		var c IndicatorCount
		if err := rows.Scan(&c.Kind, &c.Value, &c.Reports); err != nil {
			return nil, fmt.Errorf("intelstore: failed to scan indicator: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("intelstore: failed to iterate indicators: %w", err)
	}
	return counts, nil
}
