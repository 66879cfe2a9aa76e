package conversation

import (
	"strings"

	"github.com/decoyline/scam-honeypot/internal/lifecycle"
	"github.com/decoyline/scam-honeypot/internal/transcript"
)

// Block rule codes. Each maps to one fixed outward message.
const (
	BlockRulePaymentRepeated   = "payment_repeated"
	BlockRuleEscalationThreats = "escalation_threats"
	BlockRuleMaxTurns          = "max_turns"
	BlockRulePaymentUrgency    = "payment_urgency"
)

// blockedMessages are the canned strings sent instead of a honeypot reply
// once a conversation is cut off. Content, not logic.
var blockedMessages = map[string]string{
	BlockRulePaymentRepeated:   "Your account has been flagged for suspicious activity. This conversation has been recorded and reported to authorities.",
	BlockRuleEscalationThreats: "This number has been reported for fraud. Your account access is now restricted. Do not contact this number again.",
	BlockRuleMaxTurns:          "Your device has been flagged. Contact your bank immediately for verification.",
	BlockRulePaymentUrgency:    "This is a spam number. Your account is now protected. Police have been notified.",
	"default":                  "Your account has been temporarily locked due to suspicious activity. Please contact your bank.",
}

// BlockedMessage returns the outward message for a rule code.
func BlockedMessage(rule string) string {
	if msg, ok := blockedMessages[rule]; ok {
		return msg
	}
	return blockedMessages["default"]
}

// BlockDecision is the outcome of evaluating the blocking policy.
type BlockDecision struct {
	Block   bool
	Rule    string
	Message string
}

var (
	blockPaymentWords = []string{"upi", "paytm", "googlepay", "phonepay", "transfer", "send money", "pay"}
	blockThreatWords  = []string{"immediate", "urgent", "now", "right now", "police", "freeze", "block"}
)

// blockRule pairs a predicate with the rule code it fires. Rules are
// evaluated in declaration order and the first hit wins, so the tie-break
// order is explicit rather than buried in nested conditionals.
type blockRule struct {
	code  string
	match func(f blockFacts) bool
}

type blockFacts struct {
	scammerTurns    int
	paymentMentions int
	threatMentions  int
	paymentUrgency  bool
	phase           lifecycle.ScamPhase
	confidence      float64
}

var blockRules = []blockRule{
	{BlockRulePaymentRepeated, func(f blockFacts) bool {
		return f.paymentMentions >= 2 && f.confidence >= 0.95
	}},
	{BlockRuleEscalationThreats, func(f blockFacts) bool {
		return f.phase == lifecycle.PhaseExit && f.threatMentions >= 2 && f.confidence >= 0.90
	}},
	{BlockRuleMaxTurns, func(f blockFacts) bool {
		return f.scammerTurns >= 10
	}},
	{BlockRulePaymentUrgency, func(f blockFacts) bool {
		return f.paymentUrgency && (f.phase == lifecycle.PhaseEscalation || f.phase == lifecycle.PhaseExit)
	}},
}

// ShouldBlock decides whether the honeypot stops engaging. It runs after the
// blacklist check has already passed; a flagged indicator short-circuits long
// before this policy is consulted.
func ShouldBlock(history []transcript.Message, phase lifecycle.ScamPhase, confidence float64) BlockDecision {
	if len(history) == 0 {
		return BlockDecision{}
	}

	facts := gatherBlockFacts(history, phase, confidence)
	for _, rule := range blockRules {
		if rule.match(facts) {
			return BlockDecision{Block: true, Rule: rule.code, Message: BlockedMessage(rule.code)}
		}
	}
	return BlockDecision{}
}

func gatherBlockFacts(history []transcript.Message, phase lifecycle.ScamPhase, confidence float64) blockFacts {
	facts := blockFacts{phase: phase, confidence: confidence}

	for _, msg := range history {
		if msg.Role != transcript.RoleScammer {
			continue
		}
		facts.scammerTurns++
		content := strings.ToLower(msg.Content)

		if containsAny(content, blockPaymentWords) {
			facts.paymentMentions++
		}
		if containsAny(content, blockThreatWords) {
			facts.threatMentions++
		}
		// Payment plus urgency inside one single turn.
		if (strings.Contains(content, "pay") || strings.Contains(content, "upi")) &&
			(strings.Contains(content, "urgent") || strings.Contains(content, "now")) {
			facts.paymentUrgency = true
		}
	}
	return facts
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
