package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/decoyline/scam-honeypot/cmd/mainconfig"
	"github.com/decoyline/scam-honeypot/internal/app/bootstrap"
	"github.com/decoyline/scam-honeypot/internal/archive"
	appconfig "github.com/decoyline/scam-honeypot/internal/config"
	"github.com/decoyline/scam-honeypot/internal/intelstore"
	"github.com/decoyline/scam-honeypot/internal/notify"
	"github.com/decoyline/scam-honeypot/internal/report"
	"github.com/decoyline/scam-honeypot/pkg/logging"
)

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	if strings.TrimSpace(cfg.ReportQueueURL) == "" {
		logger.Error("REPORT_QUEUE_URL is required")
		os.Exit(1)
	}

	awsConfig, err := mainconfig.LoadAWSConfig(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	queue := report.NewSQSQueue(sqs.NewFromConfig(awsConfig), cfg.ReportQueueURL)
	records := report.NewStore(dynamodb.NewFromConfig(awsConfig), cfg.ReportJobsTable, logger)

	var archiveStore report.TranscriptArchiver
	if cfg.ArchiveBucket != "" {
		archiveStore = archive.NewStore(s3.NewFromConfig(awsConfig), cfg.ArchiveBucket, logger)
		logger.Info("archiving blocked conversations to S3", "bucket", cfg.ArchiveBucket)
	}

	db, err := bootstrap.OpenDatabase(cfg)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	var intelArchiver report.IntelligenceArchiver
	if db != nil {
		defer func() { _ = db.Close() }()
		intelArchiver = intelstore.NewStore(db)
	}

	var alerter report.Alerter
	if len(cfg.AlertRecipients) > 0 {
		alerter = notify.NewService(buildEmailSender(awsConfig, cfg, logger), cfg.AlertRecipients, logger)
	}

	worker := report.NewWorker(
		queue,
		records,
		archiveStore,
		intelArchiver,
		alerter,
		logger,
		report.WithWorkerCount(cfg.WorkerCount),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker.Start(ctx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down report worker...")
	cancel()

	doneCtx, doneCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer doneCancel()

	waitCh := make(chan struct{})
	go func() {
		worker.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Info("report worker stopped")
	case <-doneCtx.Done():
		logger.Error("report worker shutdown timed out", "error", doneCtx.Err())
	}
}

func buildEmailSender(awsConfig aws.Config, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "ses":
		sender := notify.NewSESSender(sesv2.NewFromConfig(awsConfig), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger)
		if sender == nil {
			logger.Warn("SES selected but not configured, using stub email sender")
			return notify.NewStubEmailSender(logger)
		}
		return sender
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender == nil {
			logger.Warn("sendgrid selected but not configured, using stub email sender")
			return notify.NewStubEmailSender(logger)
		}
		return sender
	default:
		return notify.NewStubEmailSender(logger)
	}
}
