// Package bootstrap wires configuration into runtime dependencies shared by
// the API server and the report worker.
package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/decoyline/scam-honeypot/internal/blacklist"
	appconfig "github.com/decoyline/scam-honeypot/internal/config"
	"github.com/decoyline/scam-honeypot/internal/conversation"
	"github.com/decoyline/scam-honeypot/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildStateStore picks the conversation state store. Redis when available,
// process memory otherwise.
func BuildStateStore(redisClient *redis.Client, logger *logging.Logger) conversation.Store {
	if redisClient != nil {
		return conversation.NewRedisStore(redisClient)
	}
	if logger != nil {
		logger.Warn("redis not configured; conversation state will not survive restarts")
	}
	return conversation.NewMemoryStore()
}

// BuildBlacklistStore picks the flagged-intelligence store backing the
// cross-conversation blacklist.
func BuildBlacklistStore(redisClient *redis.Client, logger *logging.Logger) blacklist.Store {
	if redisClient != nil {
		return blacklist.NewRedisStore(redisClient)
	}
	if logger != nil {
		logger.Warn("redis not configured; flagged intelligence will not survive restarts")
	}
	return blacklist.NewMemoryStore()
}

// OpenDatabase opens the Postgres intelligence database, or returns nil when
// DATABASE_URL is unset.
func OpenDatabase(cfg *appconfig.Config) (*sql.DB, error) {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, nil
	}
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: open database: %w", err)
	}
	return db, nil
}
