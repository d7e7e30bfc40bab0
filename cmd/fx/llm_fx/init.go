package llm_fx

import (
	"context"

	"go.uber.org/fx"

	"tripcraft/internal/services"
	"tripcraft/pkg/config"
	"tripcraft/pkg/llm"
	"tripcraft/pkg/logger"
)

var Module = fx.Provide(
	provideCompleter,
	provideRecommendationService)

// provideCompleter picks the model backend from LLM_PROVIDER.
func provideCompleter(lc fx.Lifecycle, cfg *config.Config, log *logger.Logger) (llm.Completer, error) {
	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		log.Info("initializing gemini client", "model", cfg.LLM.GeminiModel)
		client, err := llm.NewGeminiClient(context.Background(), cfg.LLM.GeminiAPIKey, cfg.LLM.GeminiModel, log)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return client.Close()
			},
		})
		return client, nil
	default:
		log.Info("initializing openrouter client",
			"base_url", cfg.LLM.BaseURL,
			"primary_model", cfg.LLM.PrimaryModel,
			"fallback_model", cfg.LLM.FallbackModel,
		)
		return llm.NewOpenRouterClient(cfg.LLM.ClientConfig(), log), nil
	}
}

func provideRecommendationService(client llm.Completer, log *logger.Logger) services.RecommendationServiceInterface {
	return services.NewRecommendationService(client, services.NewPromptFormatter(log), log)
}
