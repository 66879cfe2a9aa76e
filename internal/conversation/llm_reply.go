package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/decoyline/scam-honeypot/internal/lifecycle"
	"github.com/decoyline/scam-honeypot/internal/transcript"
	"github.com/decoyline/scam-honeypot/pkg/logging"
)

// LLMReplyGenerator asks a chat model to play the honeypot persona. Any
// model failure degrades to the rule-based generator so a turn never dies
// because a provider is flaky.
type LLMReplyGenerator struct {
	client LLMClient
	model  string
	rules  *RuleReplyGenerator
	logger *logging.Logger
}

// NewLLMReplyGenerator wraps an LLM client with the rule-based fallback.
func NewLLMReplyGenerator(client LLMClient, model string, logger *logging.Logger) *LLMReplyGenerator {
	if client == nil {
		panic("conversation: llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &LLMReplyGenerator{
		client: client,
		model:  model,
		rules:  NewRuleReplyGenerator(),
		logger: logger,
	}
}

// Generate implements ReplyGenerator.
func (g *LLMReplyGenerator) Generate(ctx context.Context, history []transcript.Message, scamType string, phase lifecycle.ScamPhase) (string, error) {
	req := LLMRequest{
		Model:       g.model,
		System:      []string{personaPrompt(scamType, phase)},
		Messages:    toChatMessages(history),
		MaxTokens:   160,
		Temperature: 0.7,
	}

	resp, err := g.client.Complete(ctx, req)
	if err != nil || strings.TrimSpace(resp.Text) == "" {
		g.logger.Warn("llm reply failed, using rule-based reply",
			"error", err,
			"phase", phase.String(),
		)
		return g.rules.Generate(ctx, history, scamType, phase)
	}

	return resp.Text, nil
}

// personaPrompt instructs the model to stay in character as a slightly
// confused victim who never completes a payment and never reveals being
// automated.
func personaPrompt(scamType string, phase lifecycle.ScamPhase) string {
	return fmt.Sprintf(
		"You are an ordinary, slightly confused person replying to a suspected %s scammer over text. "+
			"The conversation is in the %s stage. Keep the scammer talking: ask small clarifying "+
			"questions, claim payments keep failing, and never actually pay, click a link, or share "+
			"real personal data. Reply with one or two short sentences. Never mention being automated.",
		scamTypeOrDefault(scamType), phase.String(),
	)
}

func scamTypeOrDefault(scamType string) string {
	if strings.TrimSpace(scamType) == "" {
		return "unknown"
	}
	return scamType
}

func toChatMessages(history []transcript.Message) []ChatMessage {
	msgs := make([]ChatMessage, 0, len(history))
	for _, m := range history {
		role := ChatRoleUser
		if m.Role == transcript.RoleHoneypot {
			role = ChatRoleAssistant
		}
		msgs = append(msgs, ChatMessage{Role: role, Content: m.Content})
	}
	return msgs
}
