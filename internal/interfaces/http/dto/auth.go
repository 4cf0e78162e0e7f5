package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/access"
)

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Username string `json:"username" binding:"required,min=3,max=100"`
	Password string `json:"password" binding:"required,min=1,max=128"`
}

// RefreshTokenRequest is the body of POST /auth/refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenResponse carries an issued token pair
type TokenResponse struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// UserResponse describes the logged-in user
type UserResponse struct {
	ID          uuid.UUID   `json:"id"`
	CompanyID   uuid.UUID   `json:"company_id"`
	Username    string      `json:"username"`
	DisplayName string      `json:"display_name"`
	RoleIDs     []uuid.UUID `json:"role_ids"`
}

// LoginResponse is returned by a successful login
type LoginResponse struct {
	Token       TokenResponse         `json:"token"`
	User        UserResponse          `json:"user"`
	Permissions *access.PermissionMap `json:"permissions"`
}

// GrantRequest is one grant of a role
type GrantRequest struct {
	Capability string `json:"capability" binding:"required"`
	ResourceID string `json:"resource_id,omitempty" binding:"omitempty,max=64"`
}

// ReplaceGrantsRequest is the body of PUT /roles/:id/grants
type ReplaceGrantsRequest struct {
	Grants []GrantRequest `json:"grants" binding:"dive"`
}

// ToGrants converts the request. Unknown capability keys are kept so the
// role can reject them.
func (r ReplaceGrantsRequest) ToGrants() []access.Grant {
	out := make([]access.Grant, 0, len(r.Grants))
	for _, g := range r.Grants {
		out = append(out, access.Grant{Capability: access.Capability(g.Capability), ResourceID: g.ResourceID})
	}
	return out
}

// GrantResponse is one stored grant
type GrantResponse struct {
	Capability string `json:"capability"`
	ResourceID string `json:"resource_id,omitempty"`
}

// RoleResponse describes a role and its grants
type RoleResponse struct {
	ID     uuid.UUID       `json:"id"`
	Name   string          `json:"name"`
	Grants []GrantResponse `json:"grants"`
}

// NewRoleResponse converts a role
func NewRoleResponse(r *access.Role) RoleResponse {
	resp := RoleResponse{ID: r.ID, Name: r.Name, Grants: make([]GrantResponse, 0, len(r.Grants))}
	for _, g := range r.Grants {
		resp.Grants = append(resp.Grants, GrantResponse{Capability: g.Capability.String(), ResourceID: g.ResourceID})
	}
	return resp
}
