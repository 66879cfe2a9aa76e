package conversation

import (
	"context"
	"strings"

	"github.com/decoyline/scam-honeypot/internal/lifecycle"
	"github.com/decoyline/scam-honeypot/internal/transcript"
)

// ReplyGenerator produces the honeypot's next message. The engine hands it
// the transcript so far, a scam-type label and the phase just entered, and
// consumes a single string back.
type ReplyGenerator interface {
	Generate(ctx context.Context, history []transcript.Message, scamType string, phase lifecycle.ScamPhase) (string, error)
}

// RuleReplyGenerator picks a canned, believably confused reply keyed off the
// lifecycle phase and the scammer's latest message. It needs no network and
// never fails, which also makes it the terminal fallback behind the LLM.
type RuleReplyGenerator struct{}

// NewRuleReplyGenerator creates the rule-based generator.
func NewRuleReplyGenerator() *RuleReplyGenerator {
	return &RuleReplyGenerator{}
}

// Generate implements ReplyGenerator.
func (g *RuleReplyGenerator) Generate(_ context.Context, history []transcript.Message, scamType string, phase lifecycle.ScamPhase) (string, error) {
	scammerTurns := transcript.ScammerTurns(history)
	lastMessage := strings.ToLower(transcript.LastScammerMessage(history))

	switch phase {
	case lifecycle.PhaseInitial:
		return "Sorry, I didn't really understand that. What exactly do I need to do?", nil

	case lifecycle.PhaseEscalation:
		if strings.Contains(lastMessage, "upi") || strings.Contains(lastMessage, "pay") {
			return "I tried paying but it's not going through. Can you send the details again?", nil
		}
		if strings.Contains(lastMessage, "link") || strings.Contains(lastMessage, "http") {
			return "I'm not very comfortable clicking links. Is there another way to do this?", nil
		}
		return "It's a bit confusing on my side. Can you explain it once more?", nil

	case lifecycle.PhasePayment:
		if scamType == ScamTypeUPIFraud {
			return "UPI keeps failing for me. Is there a bank account I can transfer to instead?", nil
		}
		return "The payment option isn't working. What should I try next?", nil

	case lifecycle.PhaseExit:
		if scammerTurns < 3 {
			return "It's still not working. Can you send the official confirmation message?", nil
		}
		return "I don't want to make a mistake. Can you give me all the details clearly?", nil
	}

	return "I'm trying to do this correctly. Please guide me step by step.", nil
}
