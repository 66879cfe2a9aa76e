package report

import (
	"context"
	"fmt"

	"github.com/decoyline/scam-honeypot/internal/conversation"
	"github.com/decoyline/scam-honeypot/internal/observability/metrics"
	"github.com/decoyline/scam-honeypot/pkg/logging"
)

// Publisher pushes blocked-conversation reports onto the queue for the
// report worker. It satisfies the engine's Reporter port.
type Publisher struct {
	queue   queueClient
	metrics *metrics.EngineMetrics
	logger  *logging.Logger
}

var _ conversation.Reporter = (*Publisher)(nil)

// NewPublisher creates a report publisher over the given queue.
func NewPublisher(queue queueClient, engineMetrics *metrics.EngineMetrics, logger *logging.Logger) *Publisher {
	if queue == nil {
		panic("report: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{
		queue:   queue,
		metrics: engineMetrics,
		logger:  logger,
	}
}

// ReportBlocked implements conversation.Reporter.
func (p *Publisher) ReportBlocked(ctx context.Context, report conversation.BlockedReport) error {
	env, body, err := encodeEnvelope(envelope{Report: report})
	if err != nil {
		p.metrics.ObserveReportPublished("encode_failed")
		return err
	}

	if err := p.queue.Send(ctx, body); err != nil {
		p.metrics.ObserveReportPublished("send_failed")
		return fmt.Errorf("report: failed to enqueue blocked report: %w", err)
	}

	p.metrics.ObserveReportPublished("published")
	p.logger.Info("blocked-conversation report enqueued",
		"report_id", env.ID,
		"conversation_id", report.ConversationID,
		"reason", report.Reason,
	)
	return nil
}
