package cart

import (
	"context"
	"errors"
	"time"

	"github.com/plywoodshop/storefront/pkg/redis"
)

type redisStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(cartID string) string
}

// RedisStorage keeps each cart as a JSON string under ply:cart:<id>, sliding
// the TTL on every save.
type RedisStorage struct {
	client redisStore
	ttl    time.Duration
}

func NewRedisStorage(client redisStore, ttl time.Duration) (*RedisStorage, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	return &RedisStorage{client: client, ttl: ttl}, nil
}

func (s *RedisStorage) Load(ctx context.Context, slot string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.client.CartKey(slot))
	if err != nil {
		if redis.IsNil(err) {
			return nil, nil
		}
		return nil, err
	}
	return []byte(value), nil
}

func (s *RedisStorage) Save(ctx context.Context, slot string, payload []byte) error {
	return s.client.Set(ctx, s.client.CartKey(slot), string(payload), s.ttl)
}

func (s *RedisStorage) Delete(ctx context.Context, slot string) error {
	return s.client.Del(ctx, s.client.CartKey(slot))
}
