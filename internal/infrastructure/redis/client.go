// Package redis provides the Redis client used by the shared session store
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/Marinerbyte/Ytmagic/config"
)

const pingTimeout = 5 * time.Second

// Module provides the Redis client for fx dependency injection
var Module = fx.Module("redis",
	fx.Provide(NewClientFx),
)

// NewClient creates a Redis client from config
func NewClient(cfg *config.RedisConfig) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewClientFx creates a Redis client when sessions are stored in Redis.
// It returns a nil client for the memory backend.
func NewClientFx(
	lc fx.Lifecycle,
	sessionCfg *config.SessionConfig,
	cfg *config.RedisConfig,
	logger zerolog.Logger,
) *goredis.Client {
	if sessionCfg.Backend != config.SessionBackendRedis {
		return nil
	}

	client := NewClient(cfg)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
			defer cancel()
			if err := client.Ping(pingCtx).Err(); err != nil {
				return fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
			}
			logger.Info().Str("addr", cfg.Addr).Int("db", cfg.DB).Msg("Redis connected")
			return nil
		},
		OnStop: func(_ context.Context) error {
			logger.Info().Msg("Closing Redis connection")
			return client.Close()
		},
	})

	return client
}
