package auth

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryTokenBlacklist_Revoke(t *testing.T) {
	bl := NewInMemoryTokenBlacklist()
	ctx := context.Background()

	require.NoError(t, bl.Revoke(ctx, "jti-1", time.Hour))

	revoked, err := bl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = bl.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestInMemoryTokenBlacklist_RevokeExpires(t *testing.T) {
	bl := NewInMemoryTokenBlacklist()
	ctx := context.Background()
	now := time.Now()
	bl.nowFunc = func() time.Time { return now }

	require.NoError(t, bl.Revoke(ctx, "jti", time.Minute))
	bl.nowFunc = func() time.Time { return now.Add(2 * time.Minute) }

	revoked, err := bl.IsRevoked(ctx, "jti")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestInMemoryTokenBlacklist_RevokeUser(t *testing.T) {
	bl := NewInMemoryTokenBlacklist()
	ctx := context.Background()
	now := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)
	bl.nowFunc = func() time.Time { return now }

	revoked, err := bl.IsUserRevoked(ctx, "u1", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, bl.RevokeUser(ctx, "u1", time.Hour))

	revoked, err = bl.IsUserRevoked(ctx, "u1", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, revoked, "older token is revoked")

	revoked, err = bl.IsUserRevoked(ctx, "u1", now.Add(2*time.Second))
	require.NoError(t, err)
	assert.False(t, revoked, "token issued after revocation survives")

	revoked, err = bl.IsUserRevoked(ctx, "u2", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisTokenBlacklist_WrapsTransportErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 50 * time.Millisecond,
	})
	t.Cleanup(func() { _ = client.Close() })
	bl := NewRedisTokenBlacklist(client)
	ctx := context.Background()

	err := bl.Revoke(ctx, "jti", time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "revoke token")

	_, err = bl.IsUserRevoked(ctx, "u1", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "check user revocation")
}
