package bootstrap

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	appconfig "github.com/decoyline/scam-honeypot/internal/config"
	"github.com/decoyline/scam-honeypot/internal/conversation"
	"github.com/decoyline/scam-honeypot/pkg/logging"
)

// BuildReplyGenerator wires the honeypot reply generator from config. Provider
// selection falls back to canned rule-based replies whenever a model client
// cannot be built, so the engine always has a generator.
func BuildReplyGenerator(ctx context.Context, cfg *appconfig.Config, bedrockClient *bedrockruntime.Client, logger *logging.Logger) conversation.ReplyGenerator {
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	switch cfg.ReplyProvider {
	case "gemini":
		gemini, err := conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("gemini client unavailable; using rule-based replies", "error", err)
			return conversation.NewRuleReplyGenerator()
		}
		var client conversation.LLMClient = gemini
		if cfg.BedrockModelID != "" && bedrockClient != nil {
			client = conversation.NewFallbackLLMClient(gemini, conversation.NewBedrockLLMClient(bedrockClient), logger)
			logger.Info("reply generator using gemini with bedrock fallback",
				"gemini_model", cfg.GeminiModel,
				"bedrock_model", cfg.BedrockModelID,
			)
		} else {
			logger.Info("reply generator using gemini", "model", cfg.GeminiModel)
		}
		return conversation.NewLLMReplyGenerator(client, cfg.BedrockModelID, logger)

	case "bedrock":
		if cfg.BedrockModelID == "" || bedrockClient == nil {
			logger.Warn("bedrock not configured; using rule-based replies")
			return conversation.NewRuleReplyGenerator()
		}
		logger.Info("reply generator using bedrock", "model", cfg.BedrockModelID)
		return conversation.NewLLMReplyGenerator(conversation.NewBedrockLLMClient(bedrockClient), cfg.BedrockModelID, logger)

	default:
		logger.Info("reply generator using canned rules")
		return conversation.NewRuleReplyGenerator()
	}
}
