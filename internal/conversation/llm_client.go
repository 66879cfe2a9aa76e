package conversation

import "context"

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is the provider-neutral message shape sent to an LLM. The
// scammer maps to the user role and the honeypot persona to the assistant.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LLMRequest is a completion request against a chat model.
type LLMRequest struct {
	Model       string
	System      []string
	Messages    []ChatMessage
	MaxTokens   int32
	Temperature float32
}

// LLMResponse is the text a model produced plus its stop reason.
type LLMResponse struct {
	Text       string
	StopReason string
}

// LLMClient abstracts the chat-completion provider so Gemini and Bedrock are
// interchangeable behind the reply generator.
type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}
