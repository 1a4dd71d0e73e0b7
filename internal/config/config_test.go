package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TX_MAX_ATTEMPTS", "not-a-number")
	t.Setenv("TX_TIMEOUT", "")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test,,http://b.test")

	cfg := Load()

	if cfg.TxMaxAttempts != 3 {
		t.Fatalf("expected default tx attempts 3, got %d", cfg.TxMaxAttempts)
	}
	if cfg.TxTimeout != 5*time.Second {
		t.Fatalf("expected default tx timeout 5s, got %s", cfg.TxTimeout)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins: %v", cfg.AllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GRAPH_BACKEND", GraphBackendMemory)
	t.Setenv("RECOMMENDATION_FANOUT", "50")
	t.Setenv("MIGRATE_ON_START", "false")

	cfg := Load()

	if cfg.GraphBackend != GraphBackendMemory {
		t.Fatalf("expected memory backend, got %q", cfg.GraphBackend)
	}
	if cfg.RecommendationFanOut != 50 {
		t.Fatalf("expected fan-out 50, got %d", cfg.RecommendationFanOut)
	}
	if cfg.MigrateOnStart {
		t.Fatal("expected migrations disabled")
	}
}
