package report

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/decoyline/scam-honeypot/internal/conversation"
	"github.com/decoyline/scam-honeypot/pkg/logging"
)

const (
	defaultWorkerCount  = 2
	defaultWaitSeconds  = 2
	defaultBatchSize    = 5
	maxWaitSeconds      = 20
	maxReceiveBatchSize = 10
)

// Recorder tracks report processing state for idempotency. *Store satisfies
// it; tests use a stub.
type Recorder interface {
	Claim(ctx context.Context, reportID string, report *conversation.BlockedReport) error
	MarkCompleted(ctx context.Context, reportID, archiveKey string) error
	MarkFailed(ctx context.Context, reportID, errMsg string) error
}

// TranscriptArchiver writes the full blocked-conversation record to long-term
// storage and returns its location.
type TranscriptArchiver interface {
	ArchiveBlocked(ctx context.Context, report conversation.BlockedReport) (string, error)
}

// IntelligenceArchiver persists the extracted indicators for analyst queries.
type IntelligenceArchiver interface {
	SaveBlockedReport(ctx context.Context, reportID string, report conversation.BlockedReport) error
}

// Alerter notifies analysts about a blocked conversation.
type Alerter interface {
	NotifyBlocked(ctx context.Context, report conversation.BlockedReport) error
}

// Worker consumes blocked-conversation reports from the queue and fans them
// out to the archive, the intelligence store and the alerter.
type Worker struct {
	queue   queueClient
	records Recorder
	archive TranscriptArchiver
	intel   IntelligenceArchiver
	alerts  Alerter
	logger  *logging.Logger

	cfg workerConfig
	wg  sync.WaitGroup
}

type workerConfig struct {
	workers          int
	receiveWaitSecs  int
	receiveBatchSize int
}

// WorkerOption customizes worker behavior.
type WorkerOption func(*workerConfig)

// WithWorkerCount sets the number of concurrent consumer goroutines.
func WithWorkerCount(count int) WorkerOption {
	return func(cfg *workerConfig) {
		if count > 0 {
			cfg.workers = count
		}
	}
}

// WithReceiveWaitSeconds sets the SQS long-poll wait duration.
func WithReceiveWaitSeconds(seconds int) WorkerOption {
	return func(cfg *workerConfig) {
		if seconds < 0 {
			return
		}
		if seconds > maxWaitSeconds {
			seconds = maxWaitSeconds
		}
		cfg.receiveWaitSecs = seconds
	}
}

// WithReceiveBatchSize sets how many messages to fetch per poll.
func WithReceiveBatchSize(size int) WorkerOption {
	return func(cfg *workerConfig) {
		if size <= 0 {
			return
		}
		if size > maxReceiveBatchSize {
			size = maxReceiveBatchSize
		}
		cfg.receiveBatchSize = size
	}
}

// NewWorker constructs a queue consumer. archive, intel and alerts may be nil;
// whatever is wired runs, whatever is not is skipped.
func NewWorker(queue queueClient, records Recorder, archive TranscriptArchiver, intel IntelligenceArchiver, alerts Alerter, logger *logging.Logger, opts ...WorkerOption) *Worker {
	if queue == nil {
		panic("report: queue cannot be nil")
	}
	if records == nil {
		panic("report: recorder cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	cfg := workerConfig{
		workers:          defaultWorkerCount,
		receiveWaitSecs:  defaultWaitSeconds,
		receiveBatchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Worker{
		queue:   queue,
		records: records,
		archive: archive,
		intel:   intel,
		alerts:  alerts,
		logger:  logger,
		cfg:     cfg,
	}
}

// Start launches worker goroutines until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.cfg.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i+1)
	}
}

// Wait blocks until all worker goroutines exit.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()
	w.logger.Debug("report worker started", "worker_id", workerID)

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("report worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := w.queue.Receive(ctx, w.cfg.receiveBatchSize, w.cfg.receiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Error("failed to receive report messages", "error", err, "worker_id", workerID)
			time.Sleep(backoff)
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			w.handleMessage(ctx, msg)
		}
	}
}

func (w *Worker) handleMessage(ctx context.Context, msg queueMessage) {
	var env envelope
	if err := json.Unmarshal([]byte(msg.Body), &env); err != nil {
		w.logger.Error("failed to decode report envelope", "error", err)
		w.deleteMessage(msg.ReceiptHandle)
		return
	}

	if err := w.records.Claim(ctx, env.ID, &env.Report); err != nil {
		if errors.Is(err, ErrAlreadyClaimed) {
			w.logger.Info("skipping duplicate report delivery", "report_id", env.ID)
			w.deleteMessage(msg.ReceiptHandle)
			return
		}
		// Leave the message for redelivery.
		w.logger.Error("failed to claim report", "error", err, "report_id", env.ID)
		return
	}

	archiveKey, err := w.process(ctx, env)
	if err != nil {
		w.logger.Error("failed to process report",
			"error", err,
			"report_id", env.ID,
			"conversation_id", env.Report.ConversationID,
		)
		if storeErr := w.records.MarkFailed(ctx, env.ID, err.Error()); storeErr != nil {
			w.logger.Error("failed to update report status", "error", storeErr, "report_id", env.ID)
		}
		w.deleteMessage(msg.ReceiptHandle)
		return
	}

	if err := w.records.MarkCompleted(ctx, env.ID, archiveKey); err != nil {
		w.logger.Error("failed to mark report completed", "error", err, "report_id", env.ID)
	}
	w.deleteMessage(msg.ReceiptHandle)

	w.logger.Info("report processed",
		"report_id", env.ID,
		"conversation_id", env.Report.ConversationID,
		"archive_key", archiveKey,
	)
}

// process fans the report out. Archival failures abort and leave the record
// marked failed for replay; a failed alert is logged and swallowed since the
// durable record already exists.
func (w *Worker) process(ctx context.Context, env envelope) (string, error) {
	archiveKey := ""
	if w.archive != nil {
		key, err := w.archive.ArchiveBlocked(ctx, env.Report)
		if err != nil {
			return "", err
		}
		archiveKey = key
	}

	if w.intel != nil {
		if err := w.intel.SaveBlockedReport(ctx, env.ID, env.Report); err != nil {
			return "", err
		}
	}

	if w.alerts != nil {
		if err := w.alerts.NotifyBlocked(ctx, env.Report); err != nil {
			w.logger.Error("failed to send blocked alert", "error", err, "report_id", env.ID)
		}
	}

	return archiveKey, nil
}

func (w *Worker) deleteMessage(receiptHandle string) {
	deleteCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.queue.Delete(deleteCtx, receiptHandle); err != nil {
		w.logger.Error("failed to delete report message", "error", err)
	}
}
