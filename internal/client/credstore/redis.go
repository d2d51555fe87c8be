package credstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/vidyasetu/vidyasetu/internal/client/clienterr"
)

const defaultRedisPrefix = "vidyasetu:cred:"

type redisStore struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to redis and verifies the connection.
func NewRedis(cfg *RedisConfig) (Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis configuration missing")
	}
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &redisStore{client: client, prefix: prefix}, nil
}

func (s *redisStore) key(k string) string {
	return s.prefix + k
}

func (s *redisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, clienterr.Wrap(clienterr.KindStorage, "credstore.redis.get", "get credential", err)
	}
	return v, true, nil
}

// Set stores without expiry; the client has no knowledge of token lifetime.
func (s *redisStore) Set(ctx context.Context, key, value string) error {
	err := s.client.Set(ctx, s.key(key), value, 0).Err()
	return clienterr.Wrap(clienterr.KindStorage, "credstore.redis.set", "set credential", err)
}

// RemoveMany issues a single DEL, which redis applies atomically.
func (s *redisStore) RemoveMany(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}
	err := s.client.Del(ctx, full...).Err()
	return clienterr.Wrap(clienterr.KindStorage, "credstore.redis.remove", "delete credentials", err)
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
