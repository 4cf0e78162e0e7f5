package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	accessapp "github.com/society/backend/internal/application/access"
	"github.com/society/backend/internal/domain/access"
	"github.com/society/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) ResolveForUser(ctx context.Context, userID uuid.UUID) (*access.PermissionMap, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*access.PermissionMap), args.Error(1)
}

// asUser stands in for the JWT middleware
func asUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(JWTUserIDKey, userID)
		c.Next()
	}
}

func guardedRouter(resolver PermissionResolver, userID string, gate gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), asUser(userID), ResolvePermissions(resolver, nil))
	router.GET("/bills/:apartment", gate, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRequireCapability(t *testing.T) {
	guard := accessapp.NewGuard(access.DefaultFallbackPolicy(), nil)
	userID := uuid.New()

	tests := []struct {
		name     string
		perms    *access.PermissionMap
		err      error
		status   int
		code     string
		redirect access.Target
		reason   access.Reason
	}{
		{
			name:   "granted",
			perms:  access.NewPermissionMap(map[access.Capability]access.Value{access.CapBilling: access.Flag(true)}),
			status: http.StatusOK,
		},
		{
			name:     "resident without billing",
			perms:    access.NewPermissionMap(map[access.Capability]access.Value{access.CapResident: access.Flag(true)}),
			status:   http.StatusForbidden,
			code:     dto.ErrCodeForbidden,
			redirect: access.TargetResidentDashboard,
			reason:   access.ReasonMissingCapability,
		},
		{
			name:     "staff without billing",
			perms:    access.NewPermissionMap(map[access.Capability]access.Value{access.CapStaff: access.Flag(true)}),
			status:   http.StatusForbidden,
			code:     dto.ErrCodeForbidden,
			redirect: access.TargetStaffDashboard,
			reason:   access.ReasonMissingCapability,
		},
		{
			name:     "unresolved map fails closed",
			err:      errors.New("redis down"),
			status:   http.StatusUnauthorized,
			code:     dto.ErrCodeUnauthorized,
			redirect: access.TargetUnauthorized,
			reason:   access.ReasonUnresolved,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := new(mockResolver)
			if tt.err != nil {
				resolver.On("ResolveForUser", mock.Anything, userID).Return(nil, tt.err)
			} else {
				resolver.On("ResolveForUser", mock.Anything, userID).Return(tt.perms, nil)
			}

			router := guardedRouter(resolver, userID.String(), RequireCapability(guard, access.CapBilling))
			rec := get(router, "/bills/A-101")

			assert.Equal(t, tt.status, rec.Code)
			if tt.status != http.StatusOK {
				info := decodeError(t, rec)
				assert.Equal(t, tt.code, info.Code)
				if assert.NotNil(t, info.Details) {
					assert.Equal(t, string(tt.redirect), info.Details.Redirect)
					assert.Equal(t, string(tt.reason), info.Details.Reason)
				}
			}
			resolver.AssertExpectations(t)
		})
	}
}

func TestResolvePermissions_NoIdentity(t *testing.T) {
	guard := accessapp.NewGuard(access.DefaultFallbackPolicy(), nil)
	resolver := new(mockResolver)

	router := guardedRouter(resolver, "", RequireCapability(guard, access.CapBilling))
	rec := get(router, "/bills/A-101")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resolver.AssertNotCalled(t, "ResolveForUser", mock.Anything, mock.Anything)
}

func TestRequireResourceParam(t *testing.T) {
	guard := accessapp.NewGuard(access.DefaultFallbackPolicy(), nil)
	userID := uuid.New()
	scoped := access.NewPermissionMap(map[access.Capability]access.Value{
		access.CapStaff:   access.Flag(true),
		access.CapBilling: access.Resources("A-101", "A-102"),
	})

	resolver := new(mockResolver)
	resolver.On("ResolveForUser", mock.Anything, userID).Return(scoped, nil)
	router := guardedRouter(resolver, userID.String(), RequireResourceParam(guard, access.CapBilling, "apartment"))

	assert.Equal(t, http.StatusOK, get(router, "/bills/A-102").Code)

	rec := get(router, "/bills/B-201")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	info := decodeError(t, rec)
	assert.Equal(t, string(access.TargetStaffDashboard), info.Details.Redirect)
	assert.Equal(t, string(access.ReasonResourceOutOfScope), info.Details.Reason)
}

func TestRequireResourceParam_UnscopedFlag(t *testing.T) {
	guard := accessapp.NewGuard(access.DefaultFallbackPolicy(), nil)
	userID := uuid.New()
	resolver := new(mockResolver)
	resolver.On("ResolveForUser", mock.Anything, userID).Return(
		access.NewPermissionMap(map[access.Capability]access.Value{access.CapBilling: access.Flag(true)}), nil)

	router := guardedRouter(resolver, userID.String(), RequireResourceParam(guard, access.CapBilling, "apartment"))
	assert.Equal(t, http.StatusOK, get(router, "/bills/anything").Code)
}
