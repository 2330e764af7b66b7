package persistence

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/slugbotics/sluggo/internal/config"
)

// Redis wraps the go-redis client with the list operations the activity
// feed cache needs.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// Available reports whether the client is configured.
func (r *Redis) Available() bool {
	return r != nil && r.Client != nil
}

// PushCapped prepends payload to the list at key and trims the list to at
// most cap entries, atomically via a pipeline.
func (r *Redis) PushCapped(ctx context.Context, key string, payload []byte, cap int64) error {
	if !r.Available() {
		return errors.New("redis client not configured")
	}
	pipe := r.Client.Pipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, cap-1)
	_, err := pipe.Exec(ctx)
	return err
}

// ListRange returns up to n entries from the head of the list at key.
func (r *Redis) ListRange(ctx context.Context, key string, n int64) ([]string, error) {
	if !r.Available() {
		return nil, errors.New("redis client not configured")
	}
	return r.Client.LRange(ctx, key, 0, n-1).Result()
}
