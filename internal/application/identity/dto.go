package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/access"
	"github.com/society/backend/internal/infrastructure/auth"
)

// LoginInput contains the input for user login
type LoginInput struct {
	Username string
	Password string
}

// LoginResult is a token pair plus the freshly resolved permission map
type LoginResult struct {
	Tokens      *auth.TokenPair
	User        UserInfo
	Permissions *access.PermissionMap
}

// UserInfo contains basic user information returned after login
type UserInfo struct {
	ID          uuid.UUID
	CompanyID   uuid.UUID
	Username    string
	DisplayName string
	RoleIDs     []uuid.UUID
}

// RefreshTokenInput contains the input for token refresh
type RefreshTokenInput struct {
	RefreshToken string
}

// LogoutInput identifies the access token to revoke
type LogoutInput struct {
	UserID       uuid.UUID
	TokenJTI     string
	RemainingTTL time.Duration
}
