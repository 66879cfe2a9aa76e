package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("REPLY_PROVIDER", "")
	t.Setenv("API_KEYS", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.ReplyProvider != "rules" {
		t.Fatalf("expected default reply provider, got %s", cfg.ReplyProvider)
	}
	if len(cfg.APIKeys) != 0 {
		t.Fatalf("expected no api keys by default, got %v", cfg.APIKeys)
	}
	if cfg.WorkerCount != 2 {
		t.Fatalf("expected default worker count, got %d", cfg.WorkerCount)
	}
	if cfg.RateLimitPerSecond != 5 {
		t.Fatalf("expected default rate limit, got %v", cfg.RateLimitPerSecond)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REPLY_PROVIDER", "Gemini")
	t.Setenv("API_KEYS", "key-a, key-b,")
	t.Setenv("ALERT_RECIPIENTS", "fraud-team@example.com")
	t.Setenv("RATE_LIMIT_PER_SECOND", "2.5")
	t.Setenv("USE_MEMORY_QUEUE", "true")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected db override, got %s", cfg.DatabaseURL)
	}
	if cfg.RedisAddr != "redis:6379" {
		t.Fatalf("expected redis override, got %s", cfg.RedisAddr)
	}
	if cfg.ReplyProvider != "gemini" {
		t.Fatalf("expected lowered reply provider, got %s", cfg.ReplyProvider)
	}
	if len(cfg.APIKeys) != 2 || cfg.APIKeys[0] != "key-a" || cfg.APIKeys[1] != "key-b" {
		t.Fatalf("expected two api keys, got %v", cfg.APIKeys)
	}
	if len(cfg.AlertRecipients) != 1 {
		t.Fatalf("expected one alert recipient, got %v", cfg.AlertRecipients)
	}
	if cfg.RateLimitPerSecond != 2.5 {
		t.Fatalf("expected rate limit override, got %v", cfg.RateLimitPerSecond)
	}
	if !cfg.UseMemoryQueue {
		t.Fatalf("expected memory queue enabled")
	}
}
