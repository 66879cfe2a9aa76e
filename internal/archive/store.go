package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/decoyline/scam-honeypot/internal/conversation"
	"github.com/decoyline/scam-honeypot/internal/transcript"
	"github.com/decoyline/scam-honeypot/pkg/logging"
)

// S3API is the subset of the S3 client used by Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store archives blocked-conversation records to S3. Redis drops state after
// its TTL; objects written here are the permanent transcript record.
type Store struct {
	bucket   string
	s3Client S3API
	logger   *logging.Logger
}

// NewStore creates an archive Store. If bucket is empty, all operations are no-ops.
func NewStore(s3Client S3API, bucket string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{bucket: bucket, s3Client: s3Client, logger: logger}
}

// Enabled returns true if archival is configured (bucket is set).
func (s *Store) Enabled() bool {
	return s != nil && s.bucket != "" && s.s3Client != nil
}

// Record is the archived JSON document for one blocked conversation.
type Record struct {
	ConversationID string               `json:"conversation_id"`
	Reason         string               `json:"reason"`
	Rule           string               `json:"rule,omitempty"`
	Phase          string               `json:"phase"`
	Confidence     float64              `json:"confidence"`
	RiskScore      int                  `json:"risk_score"`
	RiskLevel      string               `json:"risk_level"`
	UPIIDs         []string             `json:"upi_ids,omitempty"`
	BankAccounts   []string             `json:"bank_accounts,omitempty"`
	PhishingLinks  []string             `json:"phishing_links,omitempty"`
	IP             string               `json:"ip,omitempty"`
	UserAgent      string               `json:"user_agent,omitempty"`
	Transcript     []transcript.Message `json:"transcript"`
	BlockedAt      time.Time            `json:"blocked_at"`
	ArchivedAt     time.Time            `json:"archived_at"`
}

// ManifestEntry is one JSONL line in the monthly manifest.
type ManifestEntry struct {
	ConversationID string `json:"conversation_id"`
	S3Key          string `json:"s3_key"`
	Reason         string `json:"reason"`
	Rule           string `json:"rule,omitempty"`
	RiskScore      int    `json:"risk_score"`
	RiskLevel      string `json:"risk_level"`
	TurnCount      int    `json:"turn_count"`
	ArchivedAt     string `json:"archived_at"`
}

// ArchiveBlocked writes the report as JSON to S3 and appends to the monthly
// manifest. Returns the object key.
func (s *Store) ArchiveBlocked(ctx context.Context, report conversation.BlockedReport) (string, error) {
	if !s.Enabled() {
		return "", nil
	}

	now := time.Now().UTC()
	record := Record{
		ConversationID: report.ConversationID,
		Reason:         report.Reason,
		Rule:           report.Rule,
		Phase:          report.Phase,
		Confidence:     report.Confidence,
		RiskScore:      report.Risk.Score,
		RiskLevel:      report.Risk.Level,
		UPIIDs:         report.Intelligence.UPIIDs,
		BankAccounts:   report.Intelligence.BankAccounts,
		PhishingLinks:  report.Intelligence.PhishingLinks,
		IP:             report.IP,
		UserAgent:      report.UserAgent,
		Transcript:     report.Transcript,
		BlockedAt:      report.BlockedAt,
		ArchivedAt:     now,
	}

	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("archive: marshal record: %w", err)
	}

	s3Key := fmt.Sprintf("blocked/v1/by-date/%d/%02d/%02d/%s.json",
		now.Year(), now.Month(), now.Day(), report.ConversationID)

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s3Key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("archive: s3 put %s: %w", s3Key, err)
	}

	s.logger.Info("archived blocked conversation to S3",
		"conversation_id", report.ConversationID,
		"s3_key", s3Key,
		"turn_count", len(report.Transcript),
		"rule", report.Rule,
	)

	entry := ManifestEntry{
		ConversationID: report.ConversationID,
		S3Key:          s3Key,
		Reason:         report.Reason,
		Rule:           report.Rule,
		RiskScore:      report.Risk.Score,
		RiskLevel:      report.Risk.Level,
		TurnCount:      len(report.Transcript),
		ArchivedAt:     now.Format(time.RFC3339),
	}

	if err := s.AppendManifest(ctx, entry); err != nil {
		// The record itself is already archived.
		s.logger.Warn("failed to append manifest", "error", err, "conversation_id", report.ConversationID)
	}

	return s3Key, nil
}

// AppendManifest appends a JSONL line to the monthly manifest file.
// Uses read-modify-write since S3 doesn't support append.
func (s *Store) AppendManifest(ctx context.Context, entry ManifestEntry) error {
	if !s.Enabled() {
		return nil
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("archive: marshal manifest entry: %w", err)
	}

	now := time.Now().UTC()
	manifestKey := fmt.Sprintf("blocked/v1/manifests/%d-%02d.jsonl", now.Year(), now.Month())

	var existing []byte
	getResp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(manifestKey),
	})
	if err != nil {
		if !isNotFoundErr(err) {
			s.logger.Debug("manifest read failed, starting fresh", "key", manifestKey, "error", err)
		}
	} else {
		existing, _ = io.ReadAll(getResp.Body)
		getResp.Body.Close()
	}

	var buf bytes.Buffer
	if len(existing) > 0 {
		buf.Write(existing)
		if existing[len(existing)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}
	buf.Write(line)
	buf.WriteByte('\n')

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(manifestKey),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("archive: s3 put manifest: %w", err)
	}

	return nil
}

// isNotFoundErr checks if the error is an S3 NoSuchKey error.
func isNotFoundErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "NoSuchKey") || strings.Contains(msg, "404") || strings.Contains(msg, "not found")
}
