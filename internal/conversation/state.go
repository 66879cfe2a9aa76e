package conversation

import (
	"github.com/decoyline/scam-honeypot/internal/lifecycle"
	"github.com/decoyline/scam-honeypot/internal/transcript"
)

// Reasons recorded on a blocked conversation. The specific policy rule that
// fired is kept separately in BlockedRule.
const (
	BlockedReasonFlagged = "flagged_intelligence"
	BlockedReasonPattern = "pattern_detected"
)

// State is the persisted per-conversation record. Messages are append-only
// and the phase only ever moves forward. Once Blocked is set the conversation
// is terminal for engagement: inbound turns are still recorded but the reply
// generator is never invoked again.
type State struct {
	Phase         lifecycle.ScamPhase  `json:"phase"`
	Messages      []transcript.Message `json:"messages"`
	Blocked       bool                 `json:"blocked,omitempty"`
	BlockedReason string               `json:"blocked_reason,omitempty"`
	BlockedRule   string               `json:"blocked_rule,omitempty"`
}

// NewState returns the state for a conversation that has never been seen.
func NewState() *State {
	return &State{
		Phase:    lifecycle.PhaseInitial,
		Messages: []transcript.Message{},
	}
}

// Append records one turn at the end of the transcript.
func (s *State) Append(role, content string) {
	s.Messages = append(s.Messages, transcript.Message{Role: role, Content: content})
}

// Block marks the conversation terminal with the given reason and rule.
func (s *State) Block(reason, rule string) {
	s.Blocked = true
	s.BlockedReason = reason
	s.BlockedRule = rule
}
