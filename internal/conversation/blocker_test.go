package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/decoyline/scam-honeypot/internal/lifecycle"
	"github.com/decoyline/scam-honeypot/internal/transcript"
)

func scammerTurnsOf(contents ...string) []transcript.Message {
	msgs := make([]transcript.Message, 0, len(contents))
	for _, c := range contents {
		msgs = append(msgs, transcript.Message{Role: transcript.RoleScammer, Content: c})
	}
	return msgs
}

func TestShouldBlock_EmptyHistory(t *testing.T) {
	decision := ShouldBlock(nil, lifecycle.PhaseInitial, 1.0)
	assert.False(t, decision.Block)
}

func TestShouldBlock_PaymentRepeated(t *testing.T) {
	history := scammerTurnsOf("pay me", "send it via upi")
	decision := ShouldBlock(history, lifecycle.PhasePayment, 0.95)

	assert.True(t, decision.Block)
	assert.Equal(t, BlockRulePaymentRepeated, decision.Rule)
	assert.Equal(t, BlockedMessage(BlockRulePaymentRepeated), decision.Message)
}

func TestShouldBlock_PaymentRepeatedNeedsConfidence(t *testing.T) {
	history := scammerTurnsOf("pay me", "send it via upi")
	decision := ShouldBlock(history, lifecycle.PhasePayment, 0.9)
	assert.False(t, decision.Block)
}

func TestShouldBlock_EscalationThreats(t *testing.T) {
	history := scammerTurnsOf("police will come", "we will freeze everything")
	decision := ShouldBlock(history, lifecycle.PhaseExit, 0.92)

	assert.True(t, decision.Block)
	assert.Equal(t, BlockRuleEscalationThreats, decision.Rule)
}

func TestShouldBlock_EscalationThreatsOnlyInExit(t *testing.T) {
	history := scammerTurnsOf("police will come", "we will freeze everything")
	decision := ShouldBlock(history, lifecycle.PhaseEscalation, 0.92)
	assert.False(t, decision.Block)
}

func TestShouldBlock_MaxTurns(t *testing.T) {
	turns := make([]string, 10)
	for i := range turns {
		turns[i] = "hello"
	}
	decision := ShouldBlock(scammerTurnsOf(turns...), lifecycle.PhaseInitial, 0)

	assert.True(t, decision.Block)
	assert.Equal(t, BlockRuleMaxTurns, decision.Rule)
}

func TestShouldBlock_HoneypotTurnsDoNotCount(t *testing.T) {
	history := scammerTurnsOf("hello")
	for i := 0; i < 12; i++ {
		history = append(history, transcript.Message{Role: transcript.RoleHoneypot, Content: "ok"})
	}
	decision := ShouldBlock(history, lifecycle.PhaseInitial, 0)
	assert.False(t, decision.Block)
}

func TestShouldBlock_PaymentUrgency(t *testing.T) {
	history := scammerTurnsOf("hello", "pay now or else")
	decision := ShouldBlock(history, lifecycle.PhaseEscalation, 0.4)

	assert.True(t, decision.Block)
	assert.Equal(t, BlockRulePaymentUrgency, decision.Rule)
}

func TestShouldBlock_PaymentUrgencyRequiresLatePhase(t *testing.T) {
	history := scammerTurnsOf("pay now or else")
	decision := ShouldBlock(history, lifecycle.PhasePayment, 0.4)
	assert.False(t, decision.Block)
}

func TestShouldBlock_UrgencyAcrossSeparateTurnsDoesNotFire(t *testing.T) {
	history := scammerTurnsOf("please send it", "do it quickly")
	decision := ShouldBlock(history, lifecycle.PhaseEscalation, 0.4)
	assert.False(t, decision.Block)
}

func TestShouldBlock_RuleOrder(t *testing.T) {
	// History satisfying both payment_repeated and max_turns reports the
	// higher-priority rule.
	turns := make([]string, 10)
	for i := range turns {
		turns[i] = "pay me"
	}
	decision := ShouldBlock(scammerTurnsOf(turns...), lifecycle.PhasePayment, 1.0)

	assert.True(t, decision.Block)
	assert.Equal(t, BlockRulePaymentRepeated, decision.Rule)
}

func TestBlockedMessage_UnknownRuleFallsBack(t *testing.T) {
	assert.Equal(t, blockedMessages["default"], BlockedMessage("no_such_rule"))
	assert.Equal(t, blockedMessages["default"], BlockedMessage(""))
}
