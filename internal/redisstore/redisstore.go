// internal/redisstore/redisstore.go
package redisstore

import (
    "context"
    "time"

    "github.com/redis/go-redis/v9"
)

// Store is the shared-store contract the services coordinate through.
// Every worker process talks to the same store, so Incr must be truly
// atomic under concurrent access.
type Store interface {
    Get(ctx context.Context, key string) (string, error) // ("", nil) on miss
    Set(ctx context.Context, key, value string, ttl time.Duration) error
    Del(ctx context.Context, key string) error
    Incr(ctx context.Context, key string) (int64, error)
    Expire(ctx context.Context, key string, ttl time.Duration) error
}

// RedisStore implements Store on a go-redis client.
type RedisStore struct {
    Client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
    return &RedisStore{Client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
    val, err := s.Client.Get(ctx, key).Result()
    if err == redis.Nil {
        return "", nil
    }
    if err != nil {
        return "", err
    }
    return val, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
    return s.Client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) Del(ctx context.Context, key string) error {
    return s.Client.Del(ctx, key).Err()
}

func (s *RedisStore) Incr(ctx context.Context, key string) (int64, error) {
    return s.Client.Incr(ctx, key).Result()
}

func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
    return s.Client.Expire(ctx, key, ttl).Err()
}

var _ Store = (*RedisStore)(nil)
