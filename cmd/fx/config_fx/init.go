package config_fx

import (
	"context"

	"go.uber.org/fx"

	"tripcraft/pkg/config"
	"tripcraft/pkg/logger"
)

var Module = fx.Provide(provideConfig, provideLogger)

func provideConfig() (*config.Config, error) {
	return config.Load()
}

func provideLogger(lc fx.Lifecycle, cfg *config.Config) (*logger.Logger, error) {
	log, err := logger.New(cfg.Env)
	if err != nil {
		return nil, err
	}
	for _, w := range cfg.Warnings {
		log.Warn("configuration warning", "warning", w)
	}
	log.Info("configuration loaded",
		"env", cfg.Env,
		"llm_provider", cfg.LLM.Provider,
		"primary_model", cfg.LLM.PrimaryModel,
		"fallback_model", cfg.LLM.FallbackModel,
		"redis", cfg.Redis.Addr != "",
		"postgres", cfg.PostgresURL != "",
	)

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			log.Sync()
			return nil
		},
	})
	return log, nil
}
