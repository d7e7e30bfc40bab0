package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tripcraft/pkg/utils"
)

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one entry of the chat context sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type CompletionOptions struct {
	// Model overrides the configured primary model when set.
	Model       string
	MaxTokens   int
	Temperature float32
}

// Completer is the contract the recommendation service depends on.
type Completer interface {
	GenerateCompletion(ctx context.Context, messages []Message, opts CompletionOptions) (string, error)
	CheckHealth(ctx context.Context) bool
}

type Config struct {
	APIKey        string
	BaseURL       string
	PrimaryModel  string
	FallbackModel string
	// Timeout applies to each attempt, not to the whole call.
	Timeout time.Duration
	Retries int
	// Referer and Title are sent as OpenRouter attribution headers when set.
	Referer string
	Title   string
}

const (
	DefaultBaseURL       = "https://openrouter.ai/api/v1"
	DefaultPrimaryModel  = "perplexity/llama-3.1-sonar-large-128k-online"
	DefaultFallbackModel = "anthropic/claude-3-haiku"
	DefaultTimeout       = 30 * time.Second
	DefaultRetries       = 2
)

func (c Config) withDefaults() Config {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.PrimaryModel == "" {
		c.PrimaryModel = DefaultPrimaryModel
	}
	if c.FallbackModel == "" {
		c.FallbackModel = DefaultFallbackModel
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Retries < 0 {
		c.Retries = 0
	}
	return c
}

// ServiceError is the only error kind model clients return. It matches
// utils.ErrExternalService under errors.Is.
type ServiceError struct {
	// StatusCode is the upstream HTTP status, zero when no response was read.
	StatusCode int
	Msg        string
	Err        error
}

func (e *ServiceError) Error() string {
	if e == nil {
		return "external service error"
	}
	if e.Err != nil && e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg
}

func (e *ServiceError) Unwrap() error { return e.Err }

func (e *ServiceError) Is(target error) bool { return target == utils.ErrExternalService }

func newServiceError(status int, err error, format string, args ...any) *ServiceError {
	return &ServiceError{StatusCode: status, Msg: fmt.Sprintf(format, args...), Err: err}
}

// headerTransport adds static headers to every outgoing request.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
