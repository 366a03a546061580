package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.HTTPPort != 8080 {
		t.Fatalf("unexpected port: %d", cfg.HTTPPort)
	}
	if cfg.RateLimitWindow != time.Minute || cfg.RateLimitMax != 30 {
		t.Fatalf("unexpected rate limit defaults: %v/%d", cfg.RateLimitWindow, cfg.RateLimitMax)
	}
	if cfg.MaxToolIterations != 3 {
		t.Fatalf("unexpected tool iteration cap: %d", cfg.MaxToolIterations)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOWED_MODELS", "m1, m2,")
	t.Setenv("MAX_SESSION_TURNS", "5")

	cfg := Load()
	if cfg.HTTPPort != 9090 {
		t.Fatalf("unexpected port: %d", cfg.HTTPPort)
	}
	if len(cfg.AllowedModels) != 2 || cfg.AllowedModels[0] != "m1" || cfg.AllowedModels[1] != "m2" {
		t.Fatalf("unexpected allowed models: %v", cfg.AllowedModels)
	}
	if cfg.MaxSessionTurns != 5 {
		t.Fatalf("unexpected max session turns: %d", cfg.MaxSessionTurns)
	}
}

func TestModelAllowed(t *testing.T) {
	cfg := &Config{AllowedModels: []string{"a", "b"}}
	if !cfg.ModelAllowed("a") || cfg.ModelAllowed("c") {
		t.Fatalf("allow-list check failed")
	}
}

func TestLoadInvalidInt(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	cfg := Load()
	if cfg.HTTPPort != 8080 {
		t.Fatalf("expected default port on bad value, got %d", cfg.HTTPPort)
	}
}
