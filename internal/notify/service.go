package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/decoyline/scam-honeypot/internal/conversation"
	"github.com/decoyline/scam-honeypot/pkg/logging"
)

// Service emails analysts when the engine cuts off a conversation. One email
// goes to every configured recipient; failures are aggregated rather than
// aborting the fan-out.
type Service struct {
	email      EmailSender
	recipients []string
	logger     *logging.Logger
}

// NewService creates an analyst alert service.
func NewService(email EmailSender, recipients []string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		email:      email,
		recipients: recipients,
		logger:     logger,
	}
}

// NotifyBlocked sends the blocked-conversation alert.
func (s *Service) NotifyBlocked(ctx context.Context, report conversation.BlockedReport) error {
	if s.email == nil || len(s.recipients) == 0 {
		s.logger.Debug("notify: no email sender or recipients configured, skipping alert")
		return nil
	}

	subject := fmt.Sprintf("🚨 Conversation blocked - %s", blockedCause(report))
	body := blockedBody(report)
	html := blockedHTML(report)

	var errs []error
	for _, recipient := range s.recipients {
		msg := EmailMessage{
			To:      recipient,
			Subject: subject,
			Body:    body,
			HTML:    html,
		}
		if err := s.email.Send(ctx, msg); err != nil {
			s.logger.Error("notify: failed to send blocked alert", "error", err, "to", recipient)
			errs = append(errs, err)
		} else {
			s.logger.Info("notify: blocked alert sent", "to", recipient, "conversation_id", report.ConversationID)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d notification(s) failed", len(errs))
	}
	return nil
}

func blockedCause(report conversation.BlockedReport) string {
	if report.Rule != "" {
		return report.Rule
	}
	return report.Reason
}

func blockedBody(report conversation.BlockedReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Conversation %s was blocked.\n\n", report.ConversationID)
	fmt.Fprintf(&b, "Reason: %s\n", report.Reason)
	if report.Rule != "" {
		fmt.Fprintf(&b, "Rule: %s\n", report.Rule)
	}
	if report.FlaggedMatch != nil {
		fmt.Fprintf(&b, "Flagged indicator: %s %s\n", report.FlaggedMatch.Kind, report.FlaggedMatch.Value)
	}
	fmt.Fprintf(&b, "Phase: %s\n", report.Phase)
	fmt.Fprintf(&b, "Confidence: %.2f\n", report.Confidence)
	fmt.Fprintf(&b, "Risk: %d (%s)\n", report.Risk.Score, report.Risk.Level)
	if report.IP != "" {
		fmt.Fprintf(&b, "IP: %s\n", report.IP)
	}
	fmt.Fprintf(&b, "Blocked at: %s\n", report.BlockedAt.Format("January 2, 2006 at 3:04 PM"))

	if len(report.Intelligence.UPIIDs) > 0 {
		fmt.Fprintf(&b, "\nUPI handles: %s\n", strings.Join(report.Intelligence.UPIIDs, ", "))
	}
	if len(report.Intelligence.BankAccounts) > 0 {
		fmt.Fprintf(&b, "Bank accounts: %s\n", strings.Join(report.Intelligence.BankAccounts, ", "))
	}
	if len(report.Intelligence.PhishingLinks) > 0 {
		fmt.Fprintf(&b, "Phishing links: %s\n", strings.Join(report.Intelligence.PhishingLinks, ", "))
	}

	fmt.Fprintf(&b, "\nTranscript (%d turns) is available in the archive.\n", len(report.Transcript))
	b.WriteString("\n— Scam Honeypot")
	return b.String()
}

func blockedHTML(report conversation.BlockedReport) string {
	row := func(label, value string) string {
		if value == "" {
			return ""
		}
		return fmt.Sprintf(`<tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>%s:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>`, label, value)
	}

	flagged := ""
	if report.FlaggedMatch != nil {
		flagged = fmt.Sprintf("%s %s", report.FlaggedMatch.Kind, report.FlaggedMatch.Value)
	}

	return fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px;">
<h2 style="color: #ef4444;">🚨 Conversation Blocked</h2>
<p>Conversation <strong>%s</strong> was cut off.</p>
<table style="border-collapse: collapse; margin: 20px 0;">
  %s%s%s%s%s%s%s%s%s
</table>
<p style="color: #6b7280; font-size: 12px; margin-top: 20px;">— Scam Honeypot</p>
</div>`,
		report.ConversationID,
		row("Reason", report.Reason),
		row("Rule", report.Rule),
		row("Flagged indicator", flagged),
		row("Phase", report.Phase),
		row("Confidence", fmt.Sprintf("%.2f", report.Confidence)),
		row("Risk", fmt.Sprintf("%d (%s)", report.Risk.Score, report.Risk.Level)),
		row("UPI handles", strings.Join(report.Intelligence.UPIIDs, ", ")),
		row("Bank accounts", strings.Join(report.Intelligence.BankAccounts, ", ")),
		row("Phishing links", strings.Join(report.Intelligence.PhishingLinks, ", ")))
}
