package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	accessapp "github.com/society/backend/internal/application/access"
	"github.com/society/backend/internal/domain/access"
	"github.com/society/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// PermissionResolver builds the permission map of a user
type PermissionResolver interface {
	ResolveForUser(ctx context.Context, userID uuid.UUID) (*access.PermissionMap, error)
}

// ResolvePermissions attaches the caller's permission map to the request
// context. Place it after the JWT middleware. When the map cannot be
// resolved none is attached, and every guarded route downstream answers 401.
func ResolvePermissions(resolver PermissionResolver, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		userID, err := uuid.Parse(GetJWTUserID(c))
		if err != nil {
			c.Next()
			return
		}
		m, err := resolver.ResolveForUser(c.Request.Context(), userID)
		if err != nil {
			logger.Warn("Permission map unresolved",
				zap.String("user_id", userID.String()),
				zap.Error(err))
			c.Next()
			return
		}
		c.Request = c.Request.WithContext(accessapp.WithPermissions(c.Request.Context(), m))
		c.Next()
	}
}

// RequireCapability is the hard gate of a route: the handler runs only when
// the caller holds capability.
func RequireCapability(guard *accessapp.Guard, capability access.Capability) gin.HandlerFunc {
	return requirement(guard, func(*gin.Context) access.Requirement {
		return access.Require(capability)
	})
}

// RequireResourceParam gates a route on capability scoped to the resource
// named by the path parameter param.
func RequireResourceParam(guard *accessapp.Guard, capability access.Capability, param string) gin.HandlerFunc {
	return requirement(guard, func(c *gin.Context) access.Requirement {
		return access.Require(capability).On(c.Param(param))
	})
}

func requirement(guard *accessapp.Guard, build func(*gin.Context) access.Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := guard.CheckContext(c.Request.Context(), build(c))
		if !d.Allowed() {
			AbortWithDecision(c, d)
			return
		}
		c.Next()
	}
}

// AbortWithDecision writes the response of a denied decision
func AbortWithDecision(c *gin.Context, d access.Decision) {
	status, body := dto.NewDecisionResponse(d, c.GetString(RequestIDKey))
	c.AbortWithStatusJSON(status, body)
}
