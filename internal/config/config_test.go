package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.AIProvider != "auto" {
		t.Errorf("expected default AI provider auto, got %s", cfg.AIProvider)
	}
	if cfg.AIExtractTimeout != 2500*time.Millisecond {
		t.Errorf("unexpected AI timeout: %s", cfg.AIExtractTimeout)
	}
	if cfg.DedupWindow != 5*time.Minute {
		t.Errorf("unexpected dedup window: %s", cfg.DedupWindow)
	}
	if cfg.PersistMaxAttempts != 3 {
		t.Errorf("unexpected persist attempts: %d", cfg.PersistMaxAttempts)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("AI_PROVIDER", "Bedrock")
	t.Setenv("AI_EXTRACT_TIMEOUT", "4s")
	t.Setenv("DEDUP_WINDOW", "90s")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, https://staging.example.com")

	cfg := Load()

	if cfg.Port != "9999" {
		t.Errorf("expected port 9999, got %s", cfg.Port)
	}
	if cfg.AIProvider != "bedrock" {
		t.Errorf("provider should be lowercased, got %s", cfg.AIProvider)
	}
	if cfg.AIExtractTimeout != 4*time.Second {
		t.Errorf("unexpected AI timeout: %s", cfg.AIExtractTimeout)
	}
	if cfg.DedupWindow != 90*time.Second {
		t.Errorf("unexpected dedup window: %s", cfg.DedupWindow)
	}
	if !cfg.RedisTLS {
		t.Error("expected RedisTLS true")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://staging.example.com" {
		t.Errorf("unexpected origins: %v", cfg.CORSAllowedOrigins)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("PERSIST_MAX_ATTEMPTS", "lots")
	t.Setenv("DEDUP_TTL", "soon")

	cfg := Load()

	if cfg.PersistMaxAttempts != 3 {
		t.Errorf("expected fallback attempts 3, got %d", cfg.PersistMaxAttempts)
	}
	if cfg.DedupTTL != 15*time.Minute {
		t.Errorf("expected fallback TTL, got %s", cfg.DedupTTL)
	}
}
