package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/access"
	"github.com/society/backend/internal/domain/identity"
	"github.com/society/backend/internal/domain/shared"
	"github.com/society/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	MaxLoginAttempts int           // Maximum failed login attempts before lock
	LockDuration     time.Duration // How long to lock account after max attempts
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		MaxLoginAttempts: 5,
		LockDuration:     15 * time.Minute,
	}
}

// PermissionResolver builds the map of a user from their roles
type PermissionResolver interface {
	ResolveForUser(ctx context.Context, userID uuid.UUID) (*access.PermissionMap, error)
}

// PermissionInvalidator drops cached maps
type PermissionInvalidator interface {
	Invalidate(ctx context.Context, userIDs ...uuid.UUID) error
}

// AuthService handles authentication operations
type AuthService struct {
	userRepo    identity.UserRepository
	permissions PermissionResolver
	invalidator PermissionInvalidator
	jwtService  *auth.JWTService
	blacklist   auth.TokenBlacklist
	config      AuthServiceConfig
	logger      *zap.Logger
}

// NewAuthService creates a new authentication service. invalidator may be nil.
func NewAuthService(
	userRepo identity.UserRepository,
	permissions PermissionResolver,
	invalidator PermissionInvalidator,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		permissions: permissions,
		invalidator: invalidator,
		jwtService:  jwtService,
		blacklist:   blacklist,
		config:      config,
		logger:      logger,
	}
}

var errInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")

// Login authenticates a user, issues tokens and resolves the permission map
// the session starts with.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	s.logger.Info("Login attempt", zap.String("username", input.Username))

	user, err := s.userRepo.FindByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("User not found during login", zap.String("username", input.Username))
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !user.CanLogin() {
		if user.IsLocked() {
			s.logger.Warn("Login attempt for locked account", zap.String("username", input.Username))
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked. Please try again later")
		}
		s.logger.Warn("Login attempt for deactivated account", zap.String("username", input.Username))
		return nil, shared.NewDomainError("ACCOUNT_DEACTIVATED", "Account has been deactivated")
	}

	if !user.VerifyPassword(input.Password) {
		locked := user.RecordLoginFailure(s.config.MaxLoginAttempts, s.config.LockDuration)
		if err := s.userRepo.UpdateLoginState(ctx, user); err != nil {
			s.logger.Error("Failed to update user after login failure", zap.Error(err))
		}
		if locked {
			s.logger.Warn("Account locked after too many failed attempts",
				zap.String("username", input.Username),
				zap.Int("attempts", s.config.MaxLoginAttempts))
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Too many failed login attempts. Account has been locked")
		}
		s.logger.Warn("Invalid password attempt",
			zap.String("username", input.Username),
			zap.Int("failed_attempts", user.FailedAttempts))
		return nil, errInvalidCredentials
	}

	perms, err := s.permissions.ResolveForUser(ctx, user.ID)
	if err != nil {
		s.logger.Error("Failed to resolve permissions", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load user permissions")
	}

	pair, err := s.jwtService.GenerateTokenPair(auth.Subject{
		CompanyID: user.CompanyID,
		UserID:    user.ID,
		Username:  user.Username,
		RoleIDs:   user.RoleIDs,
	})
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}

	user.RecordLoginSuccess()
	if err := s.userRepo.UpdateLoginState(ctx, user); err != nil {
		// the session is valid even if bookkeeping failed
		s.logger.Error("Failed to update user after successful login", zap.Error(err))
	}

	s.logger.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("company_id", user.CompanyID.String()))

	return &LoginResult{
		Tokens: pair,
		User: UserInfo{
			ID:          user.ID,
			CompanyID:   user.CompanyID,
			Username:    user.Username,
			DisplayName: user.DisplayNameOrUsername(),
			RoleIDs:     user.RoleIDs,
		},
		Permissions: perms,
	}, nil
}

// RefreshToken exchanges a refresh token for a new pair. The used refresh
// token is revoked so it cannot be replayed.
func (s *AuthService) RefreshToken(ctx context.Context, input RefreshTokenInput) (*auth.TokenPair, error) {
	claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		s.logger.Warn("Refresh token validation failed", zap.Error(err))
		return nil, mapTokenError(err)
	}

	if revoked, err := s.isRevoked(ctx, claims); err != nil {
		return nil, err
	} else if revoked {
		return nil, shared.NewDomainError("TOKEN_REVOKED", "Refresh token has been revoked")
	}

	userID, err := claims.UserUUID()
	if err != nil {
		return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid user ID in token")
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		s.logger.Warn("User not found during token refresh", zap.String("user_id", userID.String()))
		return nil, shared.NewDomainError("USER_NOT_FOUND", "User not found")
	}
	if !user.CanLogin() {
		return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Account is no longer active")
	}

	pair, _, err := s.jwtService.RefreshTokenPair(input.RefreshToken)
	if err != nil {
		s.logger.Warn("Token refresh failed", zap.Error(err))
		return nil, mapTokenError(err)
	}
	if err := s.blacklist.Revoke(ctx, claims.ID, claims.RemainingTTL()); err != nil {
		s.logger.Error("Failed to revoke used refresh token", zap.Error(err))
	}

	s.logger.Info("Token refreshed", zap.String("user_id", userID.String()))
	return pair, nil
}

// Logout revokes the caller's access token for the rest of its lifetime
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	s.logger.Info("User logout", zap.String("user_id", input.UserID.String()))
	if input.TokenJTI == "" {
		return nil
	}
	if err := s.blacklist.Revoke(ctx, input.TokenJTI, input.RemainingTTL); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// InvalidateIdentity ends every session of a user and drops the cached map,
// so the next login resolves permissions from scratch.
func (s *AuthService) InvalidateIdentity(ctx context.Context, userID uuid.UUID) error {
	var errs []error
	if err := s.blacklist.RevokeUser(ctx, userID.String(), s.jwtService.RefreshTokenExpiration()); err != nil {
		errs = append(errs, fmt.Errorf("revoke sessions: %w", err))
	}
	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, userID); err != nil {
			errs = append(errs, fmt.Errorf("invalidate permissions: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	s.logger.Info("Identity invalidated", zap.String("user_id", userID.String()))
	return nil
}

// Permissions returns the current map of a user
func (s *AuthService) Permissions(ctx context.Context, userID uuid.UUID) (*access.PermissionMap, error) {
	return s.permissions.ResolveForUser(ctx, userID)
}

func (s *AuthService) isRevoked(ctx context.Context, claims *auth.Claims) (bool, error) {
	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return false, fmt.Errorf("check token: %w", err)
	}
	if revoked {
		return true, nil
	}
	revoked, err = s.blacklist.IsUserRevoked(ctx, claims.UserID, claims.IssuedAtTime())
	if err != nil {
		return false, fmt.Errorf("check user tokens: %w", err)
	}
	return revoked, nil
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return shared.NewDomainError("TOKEN_MAX_REFRESH", "Maximum token refresh count exceeded. Please log in again")
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidTokenType), errors.Is(err, auth.ErrInvalidClaims):
		return shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	default:
		return shared.NewDomainError("TOKEN_ERROR", "Failed to validate refresh token")
	}
}
