// pkg/kvstore/redis.go
package kvstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"hublink/pkg/config"
)

type redisStore struct {
	cli *redis.Client
}

// MustRedis connects to REDIS_URL and returns a Store backed by it, or nil
// when no URL is configured (caller falls back to the in-memory store).
func MustRedis(cfg config.Config, log *zap.SugaredLogger) Store {
	if cfg.RedisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalw("redis parse", "err", err)
	}
	cli := redis.NewClient(opts)
	if err := cli.Ping(context.Background()).Err(); err != nil {
		log.Fatalw("redis ping", "err", err)
	}
	log.Infow("redis ready", "addr", opts.Addr)
	return &redisStore{cli: cli}
}

func (s *redisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.cli.Set(ctx, key, value, ttl).Err()
}

func (s *redisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.cli.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	return s.cli.Del(ctx, key).Err()
}
