package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisConfig selects the redis instance.
type RedisConfig struct {
	Addr     string
	DB       int
	Password string
}

// RedisBackend stores items as plain redis strings. Expiry stays in the record
// so every backend shares one format.
type RedisBackend struct {
	rdb *redis.Client
}

func NewRedisBackend(cfg RedisConfig) *RedisBackend {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Password: cfg.Password,
	})
	return &RedisBackend{rdb: rdb}
}

// Ping checks that the server answers.
func (r *RedisBackend) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *RedisBackend) GetItem(ctx context.Context, key string) (string, bool, error) {
	v, err := r.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisBackend) SetItem(ctx context.Context, key, value string) error {
	return r.rdb.Set(ctx, key, value, 0).Err()
}

func (r *RedisBackend) RemoveItem(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, key).Err()
}

func (r *RedisBackend) Close() error {
	return r.rdb.Close()
}
