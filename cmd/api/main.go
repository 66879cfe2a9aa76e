package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/decoyline/scam-honeypot/cmd/mainconfig"
	"github.com/decoyline/scam-honeypot/internal/api/router"
	"github.com/decoyline/scam-honeypot/internal/app/bootstrap"
	appconfig "github.com/decoyline/scam-honeypot/internal/config"
	"github.com/decoyline/scam-honeypot/internal/conversation"
	"github.com/decoyline/scam-honeypot/internal/emailintel"
	"github.com/decoyline/scam-honeypot/internal/feed"
	"github.com/decoyline/scam-honeypot/internal/http/handlers"
	"github.com/decoyline/scam-honeypot/internal/intelstore"
	"github.com/decoyline/scam-honeypot/internal/observability/metrics"
	"github.com/decoyline/scam-honeypot/internal/report"
	"github.com/decoyline/scam-honeypot/pkg/logging"
)

func main() {
	// Load .env file if present, then configuration
	_ = godotenv.Load()
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting scam-honeypot API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	// Conversation state and flagged intelligence
	redisClient := bootstrap.BuildRedisClient(runCtx, cfg, logger, true)
	stateStore := bootstrap.BuildStateStore(redisClient, logger)
	flagged := bootstrap.BuildBlacklistStore(redisClient, logger)

	db, err := bootstrap.OpenDatabase(cfg)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer func() { _ = db.Close() }()
	}
	intelStore := intelstore.NewStore(db)

	engineMetrics := metrics.NewEngineMetrics(prometheus.DefaultRegisterer)

	// AWS clients are only needed for Bedrock replies or the SQS report queue.
	var bedrockClient *bedrockruntime.Client
	var sqsClient *sqs.Client
	if cfg.BedrockModelID != "" || cfg.ReportQueueURL != "" {
		awsCfg, err := mainconfig.LoadAWSConfig(runCtx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		bedrockClient = bedrockruntime.NewFromConfig(awsCfg)
		sqsClient = sqs.NewFromConfig(awsCfg)
	}

	replies := bootstrap.BuildReplyGenerator(runCtx, cfg, bedrockClient, logger)

	// Report pipeline: SQS publisher with a separate worker binary in
	// production, or an in-process queue and worker for development.
	var reporter conversation.Reporter
	if cfg.UseMemoryQueue {
		queue := report.NewMemoryQueue(64)
		reporter = report.NewPublisher(queue, engineMetrics, logger)
		worker := report.NewWorker(queue, report.NewMemoryRecorder(), nil, intelStore, nil, logger,
			report.WithWorkerCount(1),
		)
		worker.Start(runCtx)
		logger.Info("using in-process report pipeline")
	} else if cfg.ReportQueueURL != "" {
		queue := report.NewSQSQueue(sqsClient, cfg.ReportQueueURL)
		reporter = report.NewPublisher(queue, engineMetrics, logger)
		logger.Info("publishing blocked reports to SQS", "queue", cfg.ReportQueueURL)
	} else {
		logger.Warn("no report queue configured; blocked conversations will not be reported")
	}

	// Live admin feed
	hub := feed.NewHub(logger)
	go hub.Run(runCtx)

	service := conversation.NewService(stateStore, flagged, replies, reporter, hub, engineMetrics, logger)

	// Setup router
	routerCfg := &router.Config{
		Logger:              logger,
		ConversationHandler: conversation.NewHandler(service, logger),
		EmailHandler:        emailintel.NewHandler(emailintel.NewAnalyzer(), logger),
		AdminReports:        handlers.NewAdminReportsHandler(intelStore, logger),
		AdminConversations:  handlers.NewAdminConversationsHandler(stateStore, logger),
		FeedHub:             hub,
		MetricsHandler:      promhttp.Handler(),
		APIKeys:             cfg.APIKeys,
		AdminAuthSecret:     cfg.AdminJWTSecret,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerSecond:  cfg.RateLimitPerSecond,
		RateLimitBurst:      cfg.RateLimitBurst,
	}
	r := router.New(routerCfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	cancelRun()

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}
