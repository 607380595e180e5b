package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "uploadit"

type RedisStore struct {
	cl     *redis.Client
	prefix string
}

// NewRedisStore namespaces every key under "uploadit:<device>:".
func NewRedisStore(cl *redis.Client, device string) *RedisStore {
	p := keyPrefix + ":"
	if device != "" {
		p += device + ":"
	}
	return &RedisStore{cl: cl, prefix: p}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.cl.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.cl.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
