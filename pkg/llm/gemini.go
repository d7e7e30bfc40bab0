package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"tripcraft/pkg/logger"
)

const DefaultGeminiModel = "gemini-1.5-flash"

// GeminiClient is the alternative Completer used when LLM_PROVIDER=gemini.
// It makes a single attempt per call; the Gemini SDK retries transport errors itself.
type GeminiClient struct {
	client *genai.Client
	model  string
	log    *logger.Logger
}

func NewGeminiClient(ctx context.Context, apiKey, model string, log *logger.Logger) (*GeminiClient, error) {
	if model == "" {
		model = DefaultGeminiModel
	}
	if log == nil {
		log = logger.NewNop()
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{
		client: client,
		model:  model,
		log:    log.With("service", "GeminiClient"),
	}, nil
}

func (c *GeminiClient) GenerateCompletion(ctx context.Context, messages []Message, opts CompletionOptions) (string, error) {
	name := opts.Model
	if name == "" {
		name = c.model
	}

	m := c.client.GenerativeModel(name)
	m.SetTopP(defaultTopP)
	if opts.Temperature > 0 {
		m.SetTemperature(opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(opts.MaxTokens))
	}

	system, prompt := splitMessages(messages)
	if system != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	if prompt == "" {
		return "", newServiceError(0, nil, "gemini: empty prompt")
	}

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		c.log.Error("gemini request failed", "model", name, "error", err.Error())
		return "", newServiceError(0, err, "gemini: %v", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", newServiceError(0, nil, "empty response from model API")
	}

	var out strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			out.WriteString(string(t))
		}
	}
	content := strings.TrimSpace(out.String())
	if content == "" {
		return "", newServiceError(0, nil, "empty content in model API response")
	}
	return content, nil
}

func (c *GeminiClient) CheckHealth(ctx context.Context) bool {
	_, err := c.GenerateCompletion(ctx, []Message{
		{Role: RoleUser, Content: healthCheckPrompt},
	}, CompletionOptions{MaxTokens: 10, Temperature: 0.7})
	if err != nil {
		c.log.Error("gemini health check failed", "error", err.Error())
		return false
	}
	return true
}

func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// splitMessages folds the chat context into Gemini's shape: system messages
// become the system instruction, everything else the user prompt.
func splitMessages(messages []Message) (system, prompt string) {
	var sys, usr []string
	for _, m := range messages {
		text := strings.TrimSpace(m.Content)
		if text == "" {
			continue
		}
		if m.Role == RoleSystem {
			sys = append(sys, text)
		} else {
			usr = append(usr, text)
		}
	}
	return strings.Join(sys, "\n\n"), strings.Join(usr, "\n\n")
}
