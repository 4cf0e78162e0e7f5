// Package cache keeps resolved permission maps so that the hard gate does not
// hit the database on every request. Entries are dropped when the grants
// behind them change.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/society/backend/internal/domain/access"
	"go.uber.org/zap"
)

// PermissionCache stores one resolved map per user
type PermissionCache interface {
	// Get returns (nil, false, nil) on a miss
	Get(ctx context.Context, userID uuid.UUID) (*access.PermissionMap, bool, error)
	Set(ctx context.Context, userID uuid.UUID, m *access.PermissionMap) error
	Invalidate(ctx context.Context, userIDs ...uuid.UUID) error
}

const permissionKeyPrefix = "society:perm:"

func permissionKey(userID uuid.UUID) string {
	return permissionKeyPrefix + userID.String()
}

// RedisPermissionCache stores maps as their wire JSON
type RedisPermissionCache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisPermissionCache wraps an existing client; the caller owns it
func NewRedisPermissionCache(client redis.Cmdable, ttl time.Duration, logger *zap.Logger) *RedisPermissionCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPermissionCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisPermissionCache) Get(ctx context.Context, userID uuid.UUID) (*access.PermissionMap, bool, error) {
	data, err := c.client.Get(ctx, permissionKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get permission map: %w", err)
	}
	m, err := access.ParsePermissionMap(data)
	if err != nil {
		// a corrupt entry is a miss; the caller re-resolves and overwrites it
		c.logger.Warn("Dropping unreadable permission cache entry",
			zap.String("user_id", userID.String()), zap.Error(err))
		return nil, false, nil
	}
	return m, true, nil
}

func (c *RedisPermissionCache) Set(ctx context.Context, userID uuid.UUID, m *access.PermissionMap) error {
	if m == nil {
		return nil
	}
	data, err := m.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode permission map: %w", err)
	}
	if err := c.client.Set(ctx, permissionKey(userID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set permission map: %w", err)
	}
	return nil
}

func (c *RedisPermissionCache) Invalidate(ctx context.Context, userIDs ...uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = permissionKey(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate permission maps: %w", err)
	}
	return nil
}

type memoryEntry struct {
	m       *access.PermissionMap
	expires time.Time
}

// InMemoryPermissionCache is a process-local cache. Maps are immutable, so
// the stored pointer is handed out directly.
type InMemoryPermissionCache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewInMemoryPermissionCache creates an empty cache. A zero ttl never expires.
func NewInMemoryPermissionCache(ttl time.Duration) *InMemoryPermissionCache {
	return &InMemoryPermissionCache{
		entries: make(map[uuid.UUID]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *InMemoryPermissionCache) Get(_ context.Context, userID uuid.UUID) (*access.PermissionMap, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[userID]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && c.now().After(e.expires) {
		c.mu.Lock()
		delete(c.entries, userID)
		c.mu.Unlock()
		return nil, false, nil
	}
	return e.m, true, nil
}

func (c *InMemoryPermissionCache) Set(_ context.Context, userID uuid.UUID, m *access.PermissionMap) error {
	if m == nil {
		return nil
	}
	e := memoryEntry{m: m}
	if c.ttl > 0 {
		e.expires = c.now().Add(c.ttl)
	}
	c.mu.Lock()
	c.entries[userID] = e
	c.mu.Unlock()
	return nil
}

func (c *InMemoryPermissionCache) Invalidate(_ context.Context, userIDs ...uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range userIDs {
		delete(c.entries, id)
	}
	return nil
}

var (
	_ PermissionCache = (*RedisPermissionCache)(nil)
	_ PermissionCache = (*InMemoryPermissionCache)(nil)
)
