package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/decoyline/scam-honeypot/internal/blacklist"
	"github.com/decoyline/scam-honeypot/internal/detection"
	"github.com/decoyline/scam-honeypot/internal/fingerprint"
	"github.com/decoyline/scam-honeypot/internal/lifecycle"
	"github.com/decoyline/scam-honeypot/internal/observability/metrics"
	"github.com/decoyline/scam-honeypot/internal/risk"
	"github.com/decoyline/scam-honeypot/internal/transcript"
	"github.com/decoyline/scam-honeypot/pkg/logging"
)

// Scam-type labels attached to confirmed-scam conversations.
const (
	ScamTypeUPIFraud  = "upi_fraud"
	ScamTypePhishing  = "phishing"
	ScamTypeBankFraud = "bank_fraud"
	ScamTypeUnknown   = "unknown"
)

// MessageRequest is one inbound scammer message plus transport metadata.
type MessageRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
	IP             string `json:"-"`
	UserAgent      string `json:"-"`
}

// Response is the structured result returned to the transport layer after a
// turn is fully processed.
type Response struct {
	ConversationID        string                  `json:"conversation_id"`
	IsScam                bool                    `json:"is_scam"`
	ScamType              string                  `json:"scam_type,omitempty"`
	ExtractedIntelligence *detection.Intelligence `json:"extracted_intelligence,omitempty"`
	Confidence            float64                 `json:"confidence"`
	HoneypotReply         string                  `json:"honeypot_reply"`
	Risk                  *risk.Assessment        `json:"risk,omitempty"`
	Phase                 string                  `json:"phase"`
	Blocked               bool                    `json:"blocked"`
	BlockedReason         string                  `json:"blocked_reason,omitempty"`
	BlockedMessage        string                  `json:"blocked_message,omitempty"`
	FlaggedMatch          bool                    `json:"flagged_match"`
}

// BlockedReport is handed to the reporter when a conversation is cut off.
type BlockedReport struct {
	ConversationID string                 `json:"conversation_id"`
	Reason         string                 `json:"reason"`
	Rule           string                 `json:"rule,omitempty"`
	Phase          string                 `json:"phase"`
	Confidence     float64                `json:"confidence"`
	Risk           risk.Assessment        `json:"risk"`
	Intelligence   detection.Intelligence `json:"intelligence"`
	Transcript     []transcript.Message   `json:"transcript"`
	IP             string                 `json:"ip,omitempty"`
	UserAgent      string                 `json:"user_agent,omitempty"`
	BlockedAt      time.Time              `json:"blocked_at"`
	FlaggedMatch   *blacklist.Match       `json:"flagged_match,omitempty"`
}

// Reporter forwards blocked conversations to the reporting pipeline.
// Publishing is best effort: a reporting failure never fails the turn.
type Reporter interface {
	ReportBlocked(ctx context.Context, report BlockedReport) error
}

// EventSink receives engine events for live monitoring.
type EventSink interface {
	Publish(event Event)
}

// Event is a lightweight notification about one processed turn.
type Event struct {
	Type           string    `json:"type"`
	ConversationID string    `json:"conversation_id"`
	Phase          string    `json:"phase"`
	RiskScore      int       `json:"risk_score"`
	RiskLevel      string    `json:"risk_level"`
	Blocked        bool      `json:"blocked"`
	Rule           string    `json:"rule,omitempty"`
	At             time.Time `json:"at"`
}

// Event types published to the sink.
const (
	EventTurnProcessed       = "turn_processed"
	EventConversationBlocked = "conversation_blocked"
)

// Service is the conversation decision engine. For every inbound message it
// runs detection and extraction over the accumulated scammer text, consults
// the flagged-intelligence blacklist, advances the lifecycle phase, applies
// the blocking policy and, when engagement continues, asks the reply
// generator for the honeypot's next message.
type Service struct {
	store    Store
	flagged  blacklist.Store
	detector *detection.Detector
	replies  ReplyGenerator
	reporter Reporter
	events   EventSink
	metrics  *metrics.EngineMetrics
	locks    *keyedMutex
	logger   *logging.Logger
	tracer   trace.Tracer
}

// NewService wires the decision engine. store, flagged and replies are
// required; reporter, events and engineMetrics may be nil.
func NewService(store Store, flagged blacklist.Store, replies ReplyGenerator, reporter Reporter, events EventSink, engineMetrics *metrics.EngineMetrics, logger *logging.Logger) *Service {
	if store == nil {
		panic("conversation: store cannot be nil")
	}
	if flagged == nil {
		panic("conversation: flagged intelligence store cannot be nil")
	}
	if replies == nil {
		panic("conversation: reply generator cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:    store,
		flagged:  flagged,
		detector: detection.NewDetector(),
		replies:  replies,
		reporter: reporter,
		events:   events,
		metrics:  engineMetrics,
		locks:    newKeyedMutex(64),
		logger:   logger,
		tracer:   otel.Tracer("honeypot.internal.conversation"),
	}
}

// ProcessMessage handles one inbound scammer message end to end. The
// load-mutate-save sequence is serialized per conversation; concurrent turns
// for different conversations proceed in parallel.
func (s *Service) ProcessMessage(ctx context.Context, req MessageRequest) (*Response, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.process_message")
	defer span.End()
	started := time.Now()

	unlock := s.locks.Lock(req.ConversationID)
	defer unlock()

	state, err := s.store.Load(ctx, req.ConversationID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: load state: %w", err)
	}
	if state == nil {
		state = NewState()
	}

	state.Append(transcript.RoleScammer, req.Message)

	scammerText := transcript.ScammerText(state.Messages)
	det := s.detector.Detect(scammerText)
	intel := detection.Extract(scammerText)

	span.SetAttributes(
		attribute.Bool("honeypot.is_scam", det.IsScam),
		attribute.Float64("honeypot.confidence", det.Confidence),
		attribute.String("honeypot.phase", state.Phase.String()),
	)

	// A conversation already cut off stays cut off: record the turn but
	// never re-engage.
	if state.Blocked {
		if err := s.store.Save(ctx, req.ConversationID, state); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("conversation: save state: %w", err)
		}
		return s.blockedResponse(req, state, det, intel, state.BlockedReason == BlockedReasonFlagged), nil
	}

	// Blacklist check runs on every turn, scam-confirmed or not. A hit
	// short-circuits everything else, including phase advancement.
	match, err := s.flagged.Check(ctx, intel)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: blacklist check: %w", err)
	}
	if match != nil {
		state.Block(BlockedReasonFlagged, "")
		if err := s.store.Save(ctx, req.ConversationID, state); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("conversation: save state: %w", err)
		}
		s.logger.Warn("conversation blocked by flagged intelligence",
			"conversation_id", req.ConversationID,
			"kind", match.Kind,
		)
		s.afterBlock(ctx, req, state, det, intel, BlockedReasonFlagged, "", match, started)
		return s.blockedResponse(req, state, det, intel, true), nil
	}

	scamType := ""
	newPhase := state.Phase
	if det.IsScam {
		scamType = classifyScamType(scammerText, intel)
		newPhase = lifecycle.Next(state.Phase, req.Message)
		state.Phase = newPhase
	}

	if decision := ShouldBlock(state.Messages, newPhase, det.Confidence); decision.Block {
		state.Block(BlockedReasonPattern, decision.Rule)
		if err := s.store.Save(ctx, req.ConversationID, state); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("conversation: save state: %w", err)
		}
		s.logger.Warn("conversation blocked by policy",
			"conversation_id", req.ConversationID,
			"rule", decision.Rule,
			"confidence", det.Confidence,
		)
		s.afterBlock(ctx, req, state, det, intel, BlockedReasonPattern, decision.Rule, nil, started)

		resp := s.blockedResponse(req, state, det, intel, false)
		resp.ScamType = scamType
		resp.BlockedMessage = decision.Message
		return resp, nil
	}

	reply, err := s.replies.Generate(ctx, state.Messages, scamType, newPhase)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: generate reply: %w", err)
	}
	state.Append(transcript.RoleHoneypot, reply)

	fp := fingerprint.Build(state.Messages, req.IP, req.UserAgent)
	assessment := risk.Score(det, fp, newPhase, intel)

	// Only detector-confirmed scam turns feed the blacklist; checking on
	// every turn but contributing on scam turns keeps coincidental digit
	// runs from poisoning it.
	if det.IsScam && !intel.IsEmpty() {
		if err := s.flagged.Add(ctx, intel); err != nil {
			s.logger.Error("failed to add flagged intelligence",
				"conversation_id", req.ConversationID,
				"error", err,
			)
		}
	}

	if err := s.store.Save(ctx, req.ConversationID, state); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: save state: %w", err)
	}

	s.metrics.ObserveTurn("engaged", time.Since(started).Seconds())
	if det.IsScam {
		s.metrics.ObserveScamDetected(scamType)
	}
	s.metrics.ObserveRiskScore(assessment.Score)
	s.publishEvent(Event{
		Type:           EventTurnProcessed,
		ConversationID: req.ConversationID,
		Phase:          newPhase.String(),
		RiskScore:      assessment.Score,
		RiskLevel:      assessment.Level,
		At:             time.Now().UTC(),
	})

	return &Response{
		ConversationID:        req.ConversationID,
		IsScam:                det.IsScam,
		ScamType:              scamType,
		ExtractedIntelligence: &intel,
		Confidence:            det.Confidence,
		HoneypotReply:         reply,
		Risk:                  &assessment,
		Phase:                 newPhase.String(),
	}, nil
}

// blockedResponse assembles the outward result for a turn that ends blocked.
// The reply generator is never consulted on this path.
func (s *Service) blockedResponse(req MessageRequest, state *State, det detection.Result, intel detection.Intelligence, flagged bool) *Response {
	fp := fingerprint.Build(state.Messages, req.IP, req.UserAgent)
	assessment := risk.Score(det, fp, state.Phase, intel)

	scamType := ""
	if det.IsScam {
		scamType = classifyScamType(transcript.ScammerText(state.Messages), intel)
	}

	return &Response{
		ConversationID:        req.ConversationID,
		IsScam:                det.IsScam,
		ScamType:              scamType,
		ExtractedIntelligence: &intel,
		Confidence:            det.Confidence,
		Risk:                  &assessment,
		Phase:                 state.Phase.String(),
		Blocked:               true,
		BlockedReason:         state.BlockedReason,
		BlockedMessage:        BlockedMessage(state.BlockedRule),
		FlaggedMatch:          flagged,
	}
}

// afterBlock emits metrics, events and the analyst report for a freshly
// blocked conversation. All of it is best effort.
func (s *Service) afterBlock(ctx context.Context, req MessageRequest, state *State, det detection.Result, intel detection.Intelligence, reason, rule string, match *blacklist.Match, started time.Time) {
	fp := fingerprint.Build(state.Messages, req.IP, req.UserAgent)
	assessment := risk.Score(det, fp, state.Phase, intel)

	s.metrics.ObserveTurn("blocked", time.Since(started).Seconds())
	s.metrics.ObserveBlock(blockLabel(reason, rule))
	s.metrics.ObserveRiskScore(assessment.Score)
	s.publishEvent(Event{
		Type:           EventConversationBlocked,
		ConversationID: req.ConversationID,
		Phase:          state.Phase.String(),
		RiskScore:      assessment.Score,
		RiskLevel:      assessment.Level,
		Blocked:        true,
		Rule:           rule,
		At:             time.Now().UTC(),
	})

	if s.reporter == nil {
		return
	}
	report := BlockedReport{
		ConversationID: req.ConversationID,
		Reason:         reason,
		Rule:           rule,
		Phase:          state.Phase.String(),
		Confidence:     det.Confidence,
		Risk:           assessment,
		Intelligence:   intel,
		Transcript:     state.Messages,
		IP:             req.IP,
		UserAgent:      req.UserAgent,
		BlockedAt:      time.Now().UTC(),
		FlaggedMatch:   match,
	}
	if err := s.reporter.ReportBlocked(ctx, report); err != nil {
		s.logger.Error("failed to publish blocked-conversation report",
			"conversation_id", req.ConversationID,
			"error", err,
		)
	}
}

func (s *Service) publishEvent(event Event) {
	if s.events == nil {
		return
	}
	s.events.Publish(event)
}

func blockLabel(reason, rule string) string {
	if rule != "" {
		return rule
	}
	return reason
}

// classifyScamType labels a confirmed scam by its dominant indicator.
func classifyScamType(scammerText string, intel detection.Intelligence) string {
	lowered := strings.ToLower(scammerText)
	switch {
	case len(intel.UPIIDs) > 0 || strings.Contains(lowered, "upi"):
		return ScamTypeUPIFraud
	case len(intel.PhishingLinks) > 0:
		return ScamTypePhishing
	case len(intel.BankAccounts) > 0 || strings.Contains(lowered, "bank"):
		return ScamTypeBankFraud
	default:
		return ScamTypeUnknown
	}
}
