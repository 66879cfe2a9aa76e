package main

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"

	appconfig "github.com/decoyline/scam-honeypot/internal/config"
	"github.com/decoyline/scam-honeypot/internal/conversation"
	"github.com/decoyline/scam-honeypot/internal/notify"
	"github.com/decoyline/scam-honeypot/pkg/logging"
)

func TestBuildEmailSenderSendGridWithoutKeyFallsBackToStub(t *testing.T) {
	cfg := &appconfig.Config{EmailProvider: "sendgrid"}

	sender := buildEmailSender(aws.Config{}, cfg, logging.New("error"))
	if _, ok := sender.(*notify.StubEmailSender); !ok {
		t.Fatalf("expected stub sender, got %T", sender)
	}

	// The fallback must be usable by the alert service without panicking.
	svc := notify.NewService(sender, []string{"analyst@example.com"}, nil)
	if err := svc.NotifyBlocked(context.Background(), conversation.BlockedReport{ConversationID: "conv-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBuildEmailSenderSendGridConfigured(t *testing.T) {
	cfg := &appconfig.Config{
		EmailProvider:     "sendgrid",
		SendGridAPIKey:    "SG.test-key",
		SendGridFromEmail: "alerts@example.com",
	}

	sender := buildEmailSender(aws.Config{}, cfg, logging.New("error"))
	if _, ok := sender.(*notify.SendGridSender); !ok {
		t.Fatalf("expected sendgrid sender, got %T", sender)
	}
}

func TestBuildEmailSenderDefaultsToStub(t *testing.T) {
	cfg := &appconfig.Config{EmailProvider: "none"}

	sender := buildEmailSender(aws.Config{}, cfg, logging.New("error"))
	if _, ok := sender.(*notify.StubEmailSender); !ok {
		t.Fatalf("expected stub sender, got %T", sender)
	}
}
