package config

import (
	"testing"
	"time"
)

// clearEnv unsets every variable the loader reads so defaults apply.
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PORT", "READ_TIMEOUT", "READ_HEADER_TIMEOUT", "WRITE_TIMEOUT", "IDLE_TIMEOUT",
		"MAX_HEADER_BYTES", "GIN_MODE", "LOG_LEVEL", "LOG_PRETTY", "API_BASE_PATH",
		"GENAI_MODEL", "GENAI_REQUEST_TIMEOUT", "GENAI_MAX_RETRIES", "GENAI_BACKOFF_BASE",
		"VAULT_ADDR", "VAULT_TOKEN", "SECRET_NAME_GEMINI_KEY", "SECRET_NAME_STORAGE_DSN",
		"RATE_RPS", "RATE_BURST", "CORS_ALLOWED_ORIGINS", "ENABLE_HSTS", "HSTS_MAX_AGE",
		"IDEMPOTENCY_TTL", "OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT",
		"OTEL_EXPORTER_OTLP_INSECURE", "OTEL_SERVICE_NAME", "OTEL_TRACES_SAMPLER_ARG",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.APIBasePath != "/api" {
		t.Errorf("APIBasePath = %q, want /api", cfg.APIBasePath)
	}
	if cfg.GenAI.Model != "gemini-2.5-flash" {
		t.Errorf("GenAI.Model = %q", cfg.GenAI.Model)
	}
	if cfg.GenAI.RequestTimeout != 30*time.Second {
		t.Errorf("GenAI.RequestTimeout = %v, want 30s", cfg.GenAI.RequestTimeout)
	}
	if cfg.GenAI.MaxRetries != 2 {
		t.Errorf("GenAI.MaxRetries = %d, want 2", cfg.GenAI.MaxRetries)
	}
	if cfg.Secrets.GeminiKeyName != "UP2D8-GEMINI-API-Key" {
		t.Errorf("GeminiKeyName = %q", cfg.Secrets.GeminiKeyName)
	}
	if cfg.Secrets.StorageDSNName != "UP2D8-STORAGE-DSN" {
		t.Errorf("StorageDSNName = %q", cfg.Secrets.StorageDSNName)
	}
	if cfg.GinMode != "release" {
		t.Errorf("GinMode = %q, want release", cfg.GinMode)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GENAI_REQUEST_TIMEOUT", "5s")
	t.Setenv("GENAI_MAX_RETRIES", "4")
	t.Setenv("API_BASE_PATH", "api/v2/")
	t.Setenv("LOG_LEVEL", "WARNING")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GenAI.RequestTimeout != 5*time.Second {
		t.Errorf("RequestTimeout = %v, want 5s", cfg.GenAI.RequestTimeout)
	}
	if cfg.GenAI.MaxRetries != 4 {
		t.Errorf("MaxRetries = %d, want 4", cfg.GenAI.MaxRetries)
	}
	if cfg.APIBasePath != "/api/v2" {
		t.Errorf("APIBasePath = %q, want /api/v2", cfg.APIBasePath)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn (normalized)", cfg.LogLevel)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"negative retries", "GENAI_MAX_RETRIES", "-1"},
		{"zero rate burst", "RATE_BURST", "0"},
		{"sampler out of range", "OTEL_TRACES_SAMPLER_ARG", "1.5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tc.key, tc.value)
			}
		})
	}
}

func TestNormalizeBasePath(t *testing.T) {
	cases := map[string]string{
		"":        "/",
		"/":       "/",
		"api":     "/api",
		"/api/":   "/api",
		"/api/v1": "/api/v1",
	}
	for in, want := range cases {
		if got := normalizeBasePath(in); got != want {
			t.Errorf("normalizeBasePath(%q) = %q, want %q", in, got, want)
		}
	}
}
