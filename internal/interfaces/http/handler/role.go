package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/access"
	"github.com/society/backend/internal/domain/shared"
	"github.com/society/backend/internal/interfaces/http/dto"
)

// GrantUsecase is the part of access.PermissionService the handler calls
type GrantUsecase interface {
	ReplaceGrants(ctx context.Context, companyID, roleID uuid.UUID, grants []access.Grant) (*access.Role, error)
}

// RoleHandler manages role grants
type RoleHandler struct {
	BaseHandler
	grants GrantUsecase
}

// NewRoleHandler creates a new role handler
func NewRoleHandler(grants GrantUsecase) *RoleHandler {
	return &RoleHandler{grants: grants}
}

// ReplaceGrants handles PUT /roles/{id}/grants
// Replaces every grant of the role. Members of the role must resolve their permissions again.
func (h *RoleHandler) ReplaceGrants(c *gin.Context) {
	companyID, _, err := caller(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	roleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.ValidationFailed(c, shared.NewValidationError(shared.FieldError{Field: "id", Message: "Invalid UUID format"}))
		return
	}
	var req dto.ReplaceGrantsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	role, err := h.grants.ReplaceGrants(c.Request.Context(), companyID, roleID, req.ToGrants())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewRoleResponse(role))
}
