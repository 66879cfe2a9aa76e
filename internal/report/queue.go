package report

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/decoyline/scam-honeypot/internal/conversation"
)

type queueClient interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error
}

type queueMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
}

// envelope is the wire format for one queued blocked-conversation report.
type envelope struct {
	ID     string                     `json:"id"`
	Report conversation.BlockedReport `json:"report"`
}

func encodeEnvelope(env envelope) (envelope, string, error) {
	if env.ID == "" {
		env.ID = uuid.NewString()
	}

	body, err := json.Marshal(env)
	if err != nil {
		return envelope{}, "", fmt.Errorf("report: failed to encode envelope: %w", err)
	}
	return env, string(body), nil
}
