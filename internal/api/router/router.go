package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/decoyline/scam-honeypot/internal/conversation"
	"github.com/decoyline/scam-honeypot/internal/emailintel"
	"github.com/decoyline/scam-honeypot/internal/feed"
	"github.com/decoyline/scam-honeypot/internal/http/handlers"
	httpmiddleware "github.com/decoyline/scam-honeypot/internal/http/middleware"
	"github.com/decoyline/scam-honeypot/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	ConversationHandler *conversation.Handler
	EmailHandler        *emailintel.Handler
	AdminReports        *handlers.AdminReportsHandler
	AdminConversations  *handlers.AdminConversationsHandler
	FeedHub             *feed.Hub
	MetricsHandler      http.Handler
	APIKeys             []string
	AdminAuthSecret     string
	CORSAllowedOrigins  []string

	// Ingest rate limit. Zero disables limiting.
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Ingest endpoints: scammer traffic lands here.
	r.Route("/honeypot", func(ingest chi.Router) {
		ingest.Use(httpmiddleware.APIKey(cfg.APIKeys))
		if cfg.RateLimitPerSecond > 0 {
			ingest.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
		}
		if cfg.ConversationHandler != nil {
			ingest.Post("/message", cfg.ConversationHandler.Message)
		}
		if cfg.EmailHandler != nil {
			ingest.Post("/email", cfg.EmailHandler.Analyze)
		}
	})

	// Admin routes (protected by JWT)
	if cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			if cfg.AdminReports != nil {
				admin.Get("/reports", cfg.AdminReports.ListReports)
				admin.Get("/indicators/{kind}", cfg.AdminReports.TopIndicators)
			}
			if cfg.AdminConversations != nil {
				admin.Get("/conversations/{conversationID}", cfg.AdminConversations.GetConversation)
			}
			if cfg.FeedHub != nil {
				admin.Get("/feed", cfg.FeedHub.HandleWebSocket)
				admin.Get("/feed/stats", feedStats(cfg.FeedHub))
			}
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func feedStats(hub *feed.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(hub.Stats())
	}
}
