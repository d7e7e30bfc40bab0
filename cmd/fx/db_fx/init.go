package db_fx

import (
	"context"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"tripcraft/internal/infra"
	"tripcraft/pkg/config"
	"tripcraft/pkg/logger"
)

var Module = fx.Provide(
	provideDB)

// provideDB yields a nil *gorm.DB when POSTGRES_URL is unset.
func provideDB(lc fx.Lifecycle, cfg *config.Config, log *logger.Logger) (*gorm.DB, error) {
	if cfg.PostgresURL == "" {
		log.Warn("POSTGRES_URL is not set, analytics events are only logged")
		return nil, nil
	}

	db, err := infra.InitPostgresql(cfg.PostgresURL, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			infra.ClosePostgresql(db, log)
			return nil
		},
	})
	return db, nil
}
