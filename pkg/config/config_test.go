package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"tripcraft/pkg/utils"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	for key, val := range map[string]string{
		"APP_ENV":              "testing",
		"PORT":                 "",
		"JWT_SECRET":           "",
		"POSTGRES_URL":         "",
		"LLM_PROVIDER":         "",
		"OPENROUTER_API_KEY":   "sk-or-v1-abcdef",
		"OPENROUTER_BASE_URL":  "",
		"PRIMARY_MODEL":        "",
		"FALLBACK_MODEL":       "",
		"API_TIMEOUT":          "",
		"API_RETRIES":          "",
		"GEMINI_API_KEY":       "",
		"GEMINI_MODEL":         "",
		"REDIS_ADDR":           "",
		"REDIS_PASSWORD":       "",
		"REDIS_DB":             "",
		"FSM_TTL":              "",
		"RATE_LIMIT":           "",
		"CORS_ALLOWED_ORIGINS": "",
	} {
		t.Setenv(key, val)
	}
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" || cfg.Env != "testing" {
		t.Fatalf("unexpected config values: %+v", cfg)
	}
	if cfg.LLM.Provider != ProviderOpenRouter || cfg.LLM.BaseURL != "https://openrouter.ai/api/v1" {
		t.Fatalf("unexpected llm config: %+v", cfg.LLM)
	}
	if cfg.LLM.Timeout != 30*time.Second || cfg.LLM.Retries != 2 {
		t.Fatalf("unexpected timeout/retries: %+v", cfg.LLM)
	}
	if cfg.Redis.TTL != time.Hour || cfg.Redis.Addr != "" {
		t.Fatalf("unexpected redis config: %+v", cfg.Redis)
	}
	if cfg.RateLimit.Requests != 10 || cfg.RateLimit.Interval != time.Minute {
		t.Fatalf("unexpected rate limit: %+v", cfg.RateLimit)
	}
	if len(cfg.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", cfg.Warnings)
	}

	cc := cfg.LLM.ClientConfig()
	if cc.APIKey != "sk-or-v1-abcdef" || cc.PrimaryModel == "" || cc.FallbackModel == "" {
		t.Fatalf("unexpected client config: %+v", cc)
	}
}

func TestLoadWarnings(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("API_TIMEOUT", "200")
	t.Setenv("FSM_TTL", "400")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Warnings) != 2 {
		t.Fatalf("warnings=%v", cfg.Warnings)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad key prefix", map[string]string{"OPENROUTER_API_KEY": "pk-1234567890"}, "must start with 'sk-' or 'or-'"},
		{"missing key", map[string]string{"OPENROUTER_API_KEY": ""}, "OPENROUTER_API_KEY"},
		{"bad base url", map[string]string{"OPENROUTER_BASE_URL": "ftp://x"}, "OPENROUTER_BASE_URL"},
		{"timeout too small", map[string]string{"API_TIMEOUT": "2"}, "API_TIMEOUT"},
		{"timeout not a number", map[string]string{"API_TIMEOUT": "abc"}, "API_TIMEOUT must be an integer"},
		{"too many retries", map[string]string{"API_RETRIES": "11"}, "API_RETRIES"},
		{"redis db", map[string]string{"REDIS_DB": "16"}, "REDIS_DB"},
		{"ttl", map[string]string{"FSM_TTL": "100"}, "FSM_TTL"},
		{"env", map[string]string{"APP_ENV": "staging"}, "APP_ENV"},
		{"provider", map[string]string{"LLM_PROVIDER": "llama"}, "LLM_PROVIDER"},
		{"gemini without key", map[string]string{"LLM_PROVIDER": "gemini"}, "GEMINI_API_KEY"},
		{"rate limit", map[string]string{"RATE_LIMIT": "5/day"}, "RATE_LIMIT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errors.Is(err, utils.ErrConfiguration) {
				t.Fatalf("error kind: %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoadGeminiWithoutOpenRouterKey(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("LLM_PROVIDER", "Gemini")
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "AIza-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LLM.Provider != ProviderGemini || cfg.LLM.GeminiModel == "" {
		t.Fatalf("llm=%+v", cfg.LLM)
	}
}

func TestLoadCORSOrigins(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example, ,https://b.example ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != "https://a.example" || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("origins=%q", cfg.CORSOrigins)
	}
}

func TestParseRateLimit(t *testing.T) {
	cfg, err := parseRateLimit("5/sec")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Requests != 5 || cfg.Interval != time.Second {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	for _, bad := range []string{"bad-format", "0/min", "5/day"} {
		if _, err := parseRateLimit(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
