package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"tripcraft/pkg/logger"
)

const (
	defaultTopP       = 0.9
	serverErrorPause  = time.Second
	healthCheckPrompt = "Привет! Это тестовое сообщение."
)

// OpenRouterClient talks to an OpenAI-compatible chat completions endpoint.
// Each call retries transient failures and, if the requested model stays
// unavailable, repeats the whole call once against the fallback model.
type OpenRouterClient struct {
	client *openai.Client
	cfg    Config
	log    *logger.Logger

	// sleep is swapped in tests to observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewOpenRouterClient(cfg Config, log *logger.Logger) *OpenRouterClient {
	return NewOpenRouterClientWithHTTPClient(cfg, log, nil)
}

// NewOpenRouterClientWithHTTPClient lets tests route traffic to a fake upstream.
func NewOpenRouterClientWithHTTPClient(cfg Config, log *logger.Logger, httpClient *http.Client) *OpenRouterClient {
	cfg = cfg.withDefaults()
	if log == nil {
		log = logger.NewNop()
	}

	var base http.RoundTripper
	if httpClient != nil {
		base = httpClient.Transport
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL
	oc.HTTPClient = &http.Client{
		Transport: &headerTransport{
			base: base,
			headers: map[string]string{
				"HTTP-Referer": cfg.Referer,
				"X-Title":      cfg.Title,
			},
		},
	}

	return &OpenRouterClient{
		client: openai.NewClientWithConfig(oc),
		cfg:    cfg,
		log:    log.With("service", "OpenRouterClient"),
		sleep:  sleepCtx,
	}
}

func (c *OpenRouterClient) GenerateCompletion(ctx context.Context, messages []Message, opts CompletionOptions) (string, error) {
	model := opts.Model
	if model == "" {
		model = c.cfg.PrimaryModel
	}

	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    toChatMessages(messages),
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		TopP:        defaultTopP,
	}

	content, err := c.request(ctx, req)
	if err == nil {
		return content, nil
	}
	if ctx.Err() != nil || model == c.cfg.FallbackModel {
		return "", err
	}

	c.log.Warn("primary model failed, trying fallback model",
		"model", model,
		"fallback_model", c.cfg.FallbackModel,
		"error", err.Error(),
	)

	req.Model = c.cfg.FallbackModel
	content, fallbackErr := c.request(ctx, req)
	if fallbackErr == nil {
		return content, nil
	}

	c.log.Error("fallback model failed too",
		"fallback_model", c.cfg.FallbackModel,
		"error", fallbackErr.Error(),
	)
	return "", newServiceError(0, errors.Join(err, fallbackErr),
		"both models unavailable: primary %s: %s; fallback %s: %s",
		model, err.Error(), c.cfg.FallbackModel, fallbackErr.Error())
}

// request performs up to Retries+1 attempts against a single model.
func (c *OpenRouterClient) request(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	attempts := c.cfg.Retries + 1
	lastStatus := 0

	for attempt := 0; attempt < attempts; attempt++ {
		hasNext := attempt < attempts-1

		c.log.Debug("sending chat completion",
			"model", req.Model,
			"attempt", attempt+1,
			"max_attempts", attempts,
		)

		resp, err := c.doAttempt(ctx, req)
		if err == nil {
			if len(resp.Choices) == 0 {
				return "", newServiceError(http.StatusOK, nil, "empty response from model API")
			}
			content := strings.TrimSpace(resp.Choices[0].Message.Content)
			if content == "" {
				return "", newServiceError(http.StatusOK, nil, "empty content in model API response")
			}
			c.log.Info("chat completion succeeded",
				"model", resp.Model,
				"total_tokens", resp.Usage.TotalTokens,
			)
			return content, nil
		}

		if ctx.Err() != nil {
			return "", newServiceError(0, ctx.Err(), "model request cancelled: %v", ctx.Err())
		}

		if status, message, ok := httpFailure(err); ok {
			lastStatus = status
			switch {
			case status == http.StatusTooManyRequests:
				// no backoff after the last attempt: the fallback model is
				// tried next and sleeping would only delay it
				if !hasNext {
					continue
				}
				wait := time.Duration(1<<attempt) * time.Second
				c.log.Warn("rate limited by model API, backing off",
					"model", req.Model,
					"wait", wait.String(),
				)
				if err := c.sleep(ctx, wait); err != nil {
					return "", newServiceError(0, err, "model request cancelled: %v", err)
				}
				continue
			case status >= http.StatusInternalServerError && hasNext:
				c.log.Warn("model API server error, retrying",
					"model", req.Model,
					"status", status,
					"attempt", attempt+1,
					"max_attempts", attempts,
				)
				if err := c.sleep(ctx, serverErrorPause); err != nil {
					return "", newServiceError(0, err, "model request cancelled: %v", err)
				}
				continue
			}
			return "", newServiceError(status, err, "model API error: %d - %s", status, message)
		}

		if isTimeout(err) {
			c.log.Warn("model API request timed out",
				"model", req.Model,
				"attempt", attempt+1,
				"max_attempts", attempts,
			)
			if hasNext {
				if err := c.sleep(ctx, serverErrorPause); err != nil {
					return "", newServiceError(0, err, "model request cancelled: %v", err)
				}
				continue
			}
			return "", newServiceError(0, err, "model API request timed out")
		}

		if isDecodeError(err) {
			return "", newServiceError(http.StatusOK, err, "invalid model API response: %v", err)
		}

		c.log.Warn("network error calling model API",
			"model", req.Model,
			"attempt", attempt+1,
			"max_attempts", attempts,
			"error", err.Error(),
		)
		if hasNext {
			if err := c.sleep(ctx, serverErrorPause); err != nil {
				return "", newServiceError(0, err, "model request cancelled: %v", err)
			}
			continue
		}
		return "", newServiceError(0, err, "network error: %v", err)
	}

	return "", newServiceError(lastStatus, nil, "all %d attempts to reach the model API exhausted", attempts)
}

func (c *OpenRouterClient) doAttempt(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	return c.client.CreateChatCompletion(attemptCtx, req)
}

// CheckHealth sends a tiny completion and reports whether it succeeded.
func (c *OpenRouterClient) CheckHealth(ctx context.Context) bool {
	_, err := c.GenerateCompletion(ctx, []Message{
		{Role: RoleUser, Content: healthCheckPrompt},
	}, CompletionOptions{MaxTokens: 10, Temperature: 0.7})
	if err != nil {
		c.log.Error("model API health check failed", "error", err.Error())
		return false
	}
	return true
}

func toChatMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

// httpFailure extracts the status and the most useful message from a
// non-2xx response: the API's error.message when present, else the raw body.
func httpFailure(err error) (int, string, bool) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		msg := apiErr.Message
		if msg == "" {
			msg = apiErr.HTTPStatus
		}
		return apiErr.HTTPStatusCode, msg, true
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		msg := strings.TrimSpace(string(reqErr.Body))
		if msg == "" && reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return reqErr.HTTPStatusCode, msg, true
	}
	return 0, "", false
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
