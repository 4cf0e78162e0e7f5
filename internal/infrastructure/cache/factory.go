package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/society/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewRedisClient connects to Redis and pings it. It returns (nil, nil) when
// Redis is not configured.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Host == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 3,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// NewPermissionCache picks Redis when a client is available and falls back
// to the in-memory cache otherwise. The in-memory cache is not shared across
// instances, so invalidation only reaches the local process.
func NewPermissionCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) PermissionCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if client == nil {
		logger.Warn("Redis not configured, using in-memory permission cache")
		return NewInMemoryPermissionCache(ttl)
	}
	logger.Info("Using Redis permission cache", zap.Duration("ttl", ttl))
	return NewRedisPermissionCache(client, ttl, logger)
}
