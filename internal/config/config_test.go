package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "AI_PROVIDER", "ANTHROPIC_API_KEY", "ANTHROPIC_MODEL", "ANTHROPIC_BASE_URL",
		"ARK_API_KEY", "ARK_ACCESS_KEY", "ARK_SECRET_KEY", "ARK_MODEL", "AI_MAX_TOKENS",
		"AI_TIMEOUT", "AI_TEMPERATURE", "AI_TOP_P", "SESSION_ID_LENGTH", "METRICS_NAMESPACE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Fatalf("expected :8080, got %s", cfg.Server.Addr)
	}
	if cfg.AI.Provider != ProviderAnthropic {
		t.Fatalf("expected anthropic provider, got %s", cfg.AI.Provider)
	}
	if cfg.AI.Model != "claude-sonnet-4-20250514" {
		t.Fatalf("unexpected model %s", cfg.AI.Model)
	}
	if cfg.AI.MaxTokens != 1024 {
		t.Fatalf("expected 1024 max tokens, got %d", cfg.AI.MaxTokens)
	}
	if cfg.AI.Timeout != 60*time.Second {
		t.Fatalf("expected 60s timeout, got %s", cfg.AI.Timeout)
	}
	if cfg.AI.Enabled() {
		t.Fatal("expected AI disabled without credentials")
	}
	if cfg.Session.IDLength != 8 {
		t.Fatalf("expected id length 8, got %d", cfg.Session.IDLength)
	}
	if cfg.Metrics.Namespace != "persona_probe" {
		t.Fatalf("unexpected namespace %s", cfg.Metrics.Namespace)
	}
}

func TestLoadAnthropicEnabled(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("AI_TIMEOUT", "15")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if !cfg.AI.Enabled() {
		t.Fatal("expected AI enabled")
	}
	if cfg.AI.Timeout != 15*time.Second {
		t.Fatalf("expected 15s timeout, got %s", cfg.AI.Timeout)
	}
}

func TestLoadInfersArkProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("ARK_API_KEY", "ark-key")
	t.Setenv("ARK_MODEL", "doubao-pro")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.AI.Provider != ProviderArk {
		t.Fatalf("expected ark provider, got %s", cfg.AI.Provider)
	}
	if !cfg.AI.Enabled() {
		t.Fatal("expected ark enabled")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"PORT":           "80 80",
		"AI_PROVIDER":    "openai",
		"AI_MAX_TOKENS":  "0",
		"AI_TIMEOUT":     "soon",
		"AI_TEMPERATURE": "warm",
	}

	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", key, value)
			}
		})
	}
}

func TestSessionIDLengthClamped(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_ID_LENGTH", "4")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Session.IDLength != 8 {
		t.Fatalf("expected clamp to 8, got %d", cfg.Session.IDLength)
	}

	t.Setenv("SESSION_ID_LENGTH", "64")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Session.IDLength != 32 {
		t.Fatalf("expected clamp to 32, got %d", cfg.Session.IDLength)
	}
}

func TestServerAddrAcceptsHostPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "127.0.0.1:9090")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9090" {
		t.Fatalf("unexpected addr %s", cfg.Server.Addr)
	}
}
