package access

import (
	"context"

	"github.com/society/backend/internal/domain/access"
)

type permissionsKey struct{}

// WithPermissions carries a resolved map on the request context
func WithPermissions(ctx context.Context, m *access.PermissionMap) context.Context {
	return context.WithValue(ctx, permissionsKey{}, m)
}

// PermissionsFrom returns the map carried on ctx, or nil
func PermissionsFrom(ctx context.Context) *access.PermissionMap {
	m, _ := ctx.Value(permissionsKey{}).(*access.PermissionMap)
	return m
}
