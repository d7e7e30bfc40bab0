package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tripcraft/pkg/logger"
	"tripcraft/pkg/utils"
)

// InitRedis connects and pings once so a bad address fails at startup.
func InitRedis(ctx context.Context, addr, password string, db int, log *logger.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%w: connecting to redis at %s: %v", utils.ErrSessionStore, addr, err)
	}
	log.Info("redis connected", "addr", addr, "db", db)
	return rdb, nil
}
