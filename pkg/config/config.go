package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"tripcraft/pkg/llm"
	"tripcraft/pkg/utils"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
)

type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

type LLMConfig struct {
	Provider      string
	APIKey        string
	BaseURL       string
	PrimaryModel  string
	FallbackModel string
	Timeout       time.Duration
	Retries       int

	GeminiAPIKey string
	GeminiModel  string
}

// ClientConfig converts the settings into what pkg/llm expects.
func (c LLMConfig) ClientConfig() llm.Config {
	return llm.Config{
		APIKey:        c.APIKey,
		BaseURL:       c.BaseURL,
		PrimaryModel:  c.PrimaryModel,
		FallbackModel: c.FallbackModel,
		Timeout:       c.Timeout,
		Retries:       c.Retries,
		Referer:       "https://github.com/tripcraft",
		Title:         "TripCraftBot",
	}
}

type RedisConfig struct {
	// Addr empty means sessions are kept in process memory.
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type Config struct {
	Env         string
	Port        string
	JWTSecret   string
	PostgresURL string
	RateLimit   RateLimitConfig
	CORSOrigins []string

	LLM   LLMConfig
	Redis RedisConfig

	// Warnings lists settings that are valid but probably unintended.
	Warnings []string
}

// Load reads .env (when present) and the environment, applies defaults and
// validates the result. Every validation error wraps utils.ErrConfiguration.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: reading .env: %v", utils.ErrConfiguration, err)
	}

	var errs []error
	intEnv := func(key string, def int) int {
		v, err := utils.GetEnvInt(key, def)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s must be an integer", key))
			return def
		}
		return v
	}

	cfg := &Config{
		Env:         strings.ToLower(utils.GetEnvWithDefault("APP_ENV", "production")),
		Port:        utils.GetEnvWithDefault("PORT", "8080"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		PostgresURL: os.Getenv("POSTGRES_URL"),
		LLM: LLMConfig{
			Provider:      strings.ToLower(utils.GetEnvWithDefault("LLM_PROVIDER", ProviderOpenRouter)),
			APIKey:        strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY")),
			BaseURL:       utils.GetEnvWithDefault("OPENROUTER_BASE_URL", llm.DefaultBaseURL),
			PrimaryModel:  utils.GetEnvWithDefault("PRIMARY_MODEL", llm.DefaultPrimaryModel),
			FallbackModel: utils.GetEnvWithDefault("FALLBACK_MODEL", llm.DefaultFallbackModel),
			GeminiAPIKey:  strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
			GeminiModel:   utils.GetEnvWithDefault("GEMINI_MODEL", llm.DefaultGeminiModel),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
	}

	timeout := intEnv("API_TIMEOUT", 30)
	cfg.LLM.Timeout = time.Duration(timeout) * time.Second
	cfg.LLM.Retries = intEnv("API_RETRIES", 2)
	cfg.Redis.DB = intEnv("REDIS_DB", 0)
	ttl := intEnv("FSM_TTL", 3600)
	cfg.Redis.TTL = time.Duration(ttl) * time.Second

	cfg.CORSOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))

	rl, err := parseRateLimit(utils.GetEnvWithDefault("RATE_LIMIT", "10/min"))
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid RATE_LIMIT value: %w", err))
	}
	cfg.RateLimit = rl

	errs = append(errs, cfg.validate(timeout, ttl)...)
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %v", utils.ErrConfiguration, errors.Join(errs...))
	}

	if timeout > 120 {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("API_TIMEOUT of %ds is unusually long", timeout))
	}
	if ttl < 600 {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("FSM_TTL of %ds may expire sessions mid-dialog", ttl))
	}
	return cfg, nil
}

func (c *Config) validate(timeoutSec, ttlSec int) []error {
	var errs []error

	switch c.Env {
	case "development", "testing", "production":
	default:
		errs = append(errs, fmt.Errorf("APP_ENV must be one of development, testing, production, got %q", c.Env))
	}

	switch c.LLM.Provider {
	case ProviderOpenRouter:
		if err := validateAPIKey(c.LLM.APIKey); err != nil {
			errs = append(errs, err)
		}
	case ProviderGemini:
		if c.LLM.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required when LLM_PROVIDER=gemini"))
		}
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER must be openrouter or gemini, got %q", c.LLM.Provider))
	}

	if !hasHTTPScheme(c.LLM.BaseURL) {
		errs = append(errs, errors.New("OPENROUTER_BASE_URL must start with http:// or https://"))
	}
	if timeoutSec < 5 || timeoutSec > 300 {
		errs = append(errs, fmt.Errorf("API_TIMEOUT must be between 5 and 300 seconds, got %d", timeoutSec))
	}
	if c.LLM.Retries < 0 || c.LLM.Retries > 10 {
		errs = append(errs, fmt.Errorf("API_RETRIES must be between 0 and 10, got %d", c.LLM.Retries))
	}
	if c.Redis.DB < 0 || c.Redis.DB > 15 {
		errs = append(errs, fmt.Errorf("REDIS_DB must be between 0 and 15, got %d", c.Redis.DB))
	}
	if ttlSec < 300 || ttlSec > 86400 {
		errs = append(errs, fmt.Errorf("FSM_TTL must be between 300 and 86400 seconds, got %d", ttlSec))
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("PORT must be numeric, got %q", c.Port))
	}
	return errs
}

func validateAPIKey(key string) error {
	if len(key) < 10 {
		return errors.New("OPENROUTER_API_KEY is missing or too short")
	}
	if !strings.HasPrefix(key, "sk-") && !strings.HasPrefix(key, "or-") {
		return errors.New("OPENROUTER_API_KEY must start with 'sk-' or 'or-'")
	}
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func hasHTTPScheme(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	var interval time.Duration
	switch unit := strings.ToLower(strings.TrimSpace(parts[1])); unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}
