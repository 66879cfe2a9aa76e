package report

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decoyline/scam-honeypot/internal/conversation"
	"github.com/decoyline/scam-honeypot/pkg/logging"
)

type stubRecorder struct {
	mu        sync.Mutex
	claimed   map[string]bool
	completed map[string]string
	failed    map[string]string
}

func newStubRecorder() *stubRecorder {
	return &stubRecorder{
		claimed:   make(map[string]bool),
		completed: make(map[string]string),
		failed:    make(map[string]string),
	}
}

func (r *stubRecorder) Claim(_ context.Context, reportID string, _ *conversation.BlockedReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.claimed[reportID] {
		return ErrAlreadyClaimed
	}
	r.claimed[reportID] = true
	return nil
}

func (r *stubRecorder) MarkCompleted(_ context.Context, reportID, archiveKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed[reportID] = archiveKey
	return nil
}

func (r *stubRecorder) MarkFailed(_ context.Context, reportID, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed[reportID] = errMsg
	return nil
}

type stubArchiver struct {
	mu    sync.Mutex
	calls int
	key   string
	err   error
}

func (a *stubArchiver) ArchiveBlocked(_ context.Context, _ conversation.BlockedReport) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	return a.key, a.err
}

type stubIntelArchiver struct {
	mu    sync.Mutex
	saved []string
}

func (a *stubIntelArchiver) SaveBlockedReport(_ context.Context, reportID string, _ conversation.BlockedReport) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.saved = append(a.saved, reportID)
	return nil
}

type stubAlerter struct {
	mu       sync.Mutex
	notified []conversation.BlockedReport
	done     chan struct{}
}

func (a *stubAlerter) NotifyBlocked(_ context.Context, report conversation.BlockedReport) error {
	a.mu.Lock()
	a.notified = append(a.notified, report)
	a.mu.Unlock()
	if a.done != nil {
		select {
		case a.done <- struct{}{}:
		default:
		}
	}
	return nil
}

func sampleBlockedReport() conversation.BlockedReport {
	return conversation.BlockedReport{
		ConversationID: "conv-42",
		Reason:         conversation.BlockedReasonPattern,
		Rule:           conversation.BlockRuleMaxTurns,
		Phase:          "exit",
		BlockedAt:      time.Now().UTC(),
	}
}

func receiveOne(t *testing.T, q queueClient) queueMessage {
	t.Helper()
	msgs, err := q.Receive(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	return msgs[0]
}

func TestPublisher_RoundTrip(t *testing.T) {
	queue := NewMemoryQueue(4)
	pub := NewPublisher(queue, nil, logging.Default())

	require.NoError(t, pub.ReportBlocked(context.Background(), sampleBlockedReport()))

	msg := receiveOne(t, queue)
	assert.Contains(t, msg.Body, `"conv-42"`)
	assert.Contains(t, msg.Body, conversation.BlockRuleMaxTurns)
}

func TestWorker_ProcessesReport(t *testing.T) {
	queue := NewMemoryQueue(4)
	records := newStubRecorder()
	archiver := &stubArchiver{key: "blocked/conv-42.json"}
	intel := &stubIntelArchiver{}
	alerts := &stubAlerter{}
	worker := NewWorker(queue, records, archiver, intel, alerts, logging.Default())

	pub := NewPublisher(queue, nil, logging.Default())
	require.NoError(t, pub.ReportBlocked(context.Background(), sampleBlockedReport()))

	worker.handleMessage(context.Background(), receiveOne(t, queue))

	assert.Equal(t, 1, archiver.calls)
	require.Len(t, intel.saved, 1)
	require.Len(t, alerts.notified, 1)
	assert.Equal(t, "conv-42", alerts.notified[0].ConversationID)

	require.Len(t, records.completed, 1)
	assert.Equal(t, "blocked/conv-42.json", records.completed[intel.saved[0]])
}

func TestWorker_DuplicateDeliverySkipped(t *testing.T) {
	queue := NewMemoryQueue(4)
	records := newStubRecorder()
	archiver := &stubArchiver{key: "blocked/conv-42.json"}
	worker := NewWorker(queue, records, archiver, nil, nil, logging.Default())

	pub := NewPublisher(queue, nil, logging.Default())
	require.NoError(t, pub.ReportBlocked(context.Background(), sampleBlockedReport()))
	msg := receiveOne(t, queue)

	worker.handleMessage(context.Background(), msg)
	worker.handleMessage(context.Background(), msg)

	assert.Equal(t, 1, archiver.calls, "duplicate delivery must not re-archive")
}

func TestWorker_ArchiveFailureMarksFailed(t *testing.T) {
	queue := NewMemoryQueue(4)
	records := newStubRecorder()
	archiver := &stubArchiver{err: errors.New("s3 unavailable")}
	alerts := &stubAlerter{}
	worker := NewWorker(queue, records, archiver, nil, alerts, logging.Default())

	pub := NewPublisher(queue, nil, logging.Default())
	require.NoError(t, pub.ReportBlocked(context.Background(), sampleBlockedReport()))

	worker.handleMessage(context.Background(), receiveOne(t, queue))

	require.Len(t, records.failed, 1)
	assert.Empty(t, records.completed)
	assert.Empty(t, alerts.notified, "alert must not fire when archival failed")
}

func TestWorker_MalformedMessageDropped(t *testing.T) {
	queue := NewMemoryQueue(4)
	records := newStubRecorder()
	worker := NewWorker(queue, records, nil, nil, nil, logging.Default())

	require.NoError(t, queue.Send(context.Background(), "{not json"))
	worker.handleMessage(context.Background(), receiveOne(t, queue))

	assert.Empty(t, records.claimed)
	assert.Empty(t, records.failed)
}

func TestWorker_EndToEnd(t *testing.T) {
	queue := NewMemoryQueue(4)
	records := newStubRecorder()
	alerts := &stubAlerter{done: make(chan struct{}, 1)}
	worker := NewWorker(queue, records, nil, nil, alerts, logging.Default(),
		WithWorkerCount(1),
		WithReceiveWaitSeconds(1),
		WithReceiveBatchSize(1),
	)

	ctx, cancel := context.WithCancel(context.Background())
	worker.Start(ctx)

	pub := NewPublisher(queue, nil, logging.Default())
	require.NoError(t, pub.ReportBlocked(context.Background(), sampleBlockedReport()))

	select {
	case <-alerts.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the worker to process the report")
	}

	cancel()
	worker.Wait()
}
