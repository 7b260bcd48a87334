package store

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"annotator-readmill/internal/domain"
	"annotator-readmill/internal/infra/supabase"
)

// Backend kinds accepted by NewBackend.
const (
	BackendMemory   = "memory"
	BackendBolt     = "bolt"
	BackendRedis    = "redis"
	BackendSupabase = "supabase"
)

// redisPingTimeout bounds the connectivity check of the redis backend.
const redisPingTimeout = 5 * time.Second

// Backend is a storage backend that holds resources until closed.
type Backend interface {
	domain.StorageBackend
	io.Closer
}

// NewBackend builds the backend selected by configuration.
func NewBackend(cfg domain.Config, logger domain.Logger) (Backend, error) {
	kind := strings.ToLower(cfg.GetStorageBackend())
	switch kind {
	case BackendMemory:
		return NewMemoryBackend(), nil
	case "", BackendBolt:
		return NewBoltBackend(cfg.GetStoragePath())
	case BackendRedis:
		backend := NewRedisBackend(RedisConfig{
			Addr:     cfg.GetRedisAddr(),
			DB:       cfg.GetRedisDB(),
			Password: cfg.GetRedisPassword(),
		})
		ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
		defer cancel()
		if err := backend.Ping(ctx); err != nil {
			_ = backend.Close()
			return nil, fmt.Errorf("ping redis at %s: %w", cfg.GetRedisAddr(), err)
		}
		logger.Info("Redis storage connected", "addr", cfg.GetRedisAddr(), "db", cfg.GetRedisDB())
		return backend, nil
	case BackendSupabase:
		client := supabase.NewSupabaseClient(cfg, logger)
		if err := client.Initialize(); err != nil {
			return nil, err
		}
		return NewSupabaseBackend(client, cfg.GetSupabaseKVTable()), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", kind)
	}
}
