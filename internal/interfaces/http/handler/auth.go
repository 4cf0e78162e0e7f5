package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/society/backend/internal/application/identity"
	"github.com/society/backend/internal/domain/access"
	"github.com/society/backend/internal/infrastructure/auth"
	"github.com/society/backend/internal/interfaces/http/dto"
	"github.com/society/backend/internal/interfaces/http/middleware"
)

// AuthUsecase is the part of identity.AuthService the handler calls
type AuthUsecase interface {
	Login(ctx context.Context, input identity.LoginInput) (*identity.LoginResult, error)
	RefreshToken(ctx context.Context, input identity.RefreshTokenInput) (*auth.TokenPair, error)
	Logout(ctx context.Context, input identity.LogoutInput) error
	Permissions(ctx context.Context, userID uuid.UUID) (*access.PermissionMap, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService AuthUsecase
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthUsecase) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func newTokenResponse(p *auth.TokenPair) dto.TokenResponse {
	return dto.TokenResponse{
		AccessToken:           p.AccessToken,
		RefreshToken:          p.RefreshToken,
		AccessTokenExpiresAt:  p.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: p.RefreshTokenExpiresAt,
		TokenType:             p.TokenType,
	}
}

// Login handles POST /auth/login
// Authenticate with username and password. The response carries the caller's permission map.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), identity.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.LoginResponse{
		Token: newTokenResponse(result.Tokens),
		User: dto.UserResponse{
			ID:          result.User.ID,
			CompanyID:   result.User.CompanyID,
			Username:    result.User.Username,
			DisplayName: result.User.DisplayName,
			RoleIDs:     result.User.RoleIDs,
		},
		Permissions: result.Permissions,
	})
}

// RefreshToken handles POST /auth/refresh
// Exchange a refresh token for a new pair. The used refresh token is revoked.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	pair, err := h.authService.RefreshToken(c.Request.Context(), identity.RefreshTokenInput{
		RefreshToken: req.RefreshToken,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, newTokenResponse(pair))
}

// Logout handles POST /auth/logout
// Revoke the presented access token
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.HandleError(c, errNoIdentity)
		return
	}
	userID, err := claims.UserUUID()
	if err != nil {
		h.HandleError(c, errNoIdentity)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), identity.LogoutInput{
		UserID:       userID,
		TokenJTI:     claims.ID,
		RemainingTTL: claims.RemainingTTL(),
	}); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, nil)
}

// Permissions handles GET /permissions
// Returns the caller's resolved permission map
func (h *AuthHandler) Permissions(c *gin.Context) {
	_, userID, err := caller(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	perms, err := h.authService.Permissions(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, perms)
}
