package session_fx

import (
	"context"
	"time"

	"go.uber.org/fx"

	"tripcraft/internal/infra"
	"tripcraft/internal/repositories"
	"tripcraft/pkg/config"
	"tripcraft/pkg/logger"
	mem "tripcraft/pkg/memcache"
)

const sweepInterval = time.Minute

var Module = fx.Provide(provideSessionRepository)

func provideSessionRepository(lc fx.Lifecycle, cfg *config.Config, log *logger.Logger) (repositories.SessionRepositoryInterface, error) {
	if cfg.Redis.Addr == "" {
		log.Warn("REDIS_ADDR is not set, sessions are kept in memory and lost on restart")
		store := mem.NewStore()
		startSweeper(lc, store, log)
		return repositories.NewMemorySessionRepository(store, cfg.Redis.TTL, log), nil
	}

	rdb, err := infra.InitRedis(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return rdb.Close()
		},
	})
	return repositories.NewRedisSessionRepository(rdb, cfg.Redis.TTL, log), nil
}

// startSweeper evicts expired in-memory sessions that nobody reads again.
func startSweeper(lc fx.Lifecycle, store mem.TTLStore, log *logger.Logger) {
	stop := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				ticker := time.NewTicker(sweepInterval)
				defer ticker.Stop()
				for {
					select {
					case <-ticker.C:
						if n := store.Sweep(); n > 0 {
							log.Debug("expired sessions swept", "count", n)
						}
					case <-stop:
						return
					}
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			close(stop)
			return nil
		},
	})
}
