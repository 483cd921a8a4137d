package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Marinerbyte/Ytmagic/internal/domain/media/deps"
	"github.com/Marinerbyte/Ytmagic/internal/domain/media/entities"
	mediaerrors "github.com/Marinerbyte/Ytmagic/internal/domain/media/errors"
)

const redisKeyPrefix = "ytmagic:"

// Redis is a SessionStore shared between bot instances
type Redis struct {
	client redis.Cmdable
	ttl    time.Duration
	logger zerolog.Logger
}

var (
	_ deps.SessionStore  = (*Redis)(nil)
	_ deps.HealthChecker = (*Redis)(nil)
)

// NewRedis creates a Redis-backed store; ttl <= 0 stores entries without expiry
func NewRedis(client redis.Cmdable, ttl time.Duration, logger zerolog.Logger) *Redis {
	return &Redis{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "redis_session_store").Logger(),
	}
}

// Put stores url under key, last write wins
func (r *Redis) Put(ctx context.Context, key entities.SessionKey, url string) error {
	ttl := r.ttl
	if ttl < 0 {
		ttl = 0
	}

	if err := r.client.Set(ctx, redisKeyPrefix+key.String(), url, ttl).Err(); err != nil {
		r.logger.Error().Err(err).Str("key", key.String()).Msg("failed to store session")
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Take atomically reads and removes the entry under key using GETDEL
func (r *Redis) Take(ctx context.Context, key entities.SessionKey) (string, error) {
	url, err := r.client.GetDel(ctx, redisKeyPrefix+key.String()).Result()
	if errors.Is(err, redis.Nil) {
		return "", mediaerrors.NewSessionExpired(key.String())
	}
	if err != nil {
		r.logger.Error().Err(err).Str("key", key.String()).Msg("failed to take session")
		return "", fmt.Errorf("take session: %w", err)
	}
	return url, nil
}

// Name implements deps.HealthChecker
func (r *Redis) Name() string {
	return "redis"
}

// HealthCheck pings the Redis server
func (r *Redis) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
