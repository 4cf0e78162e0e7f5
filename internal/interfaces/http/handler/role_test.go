package handler

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/access"
	"github.com/society/backend/internal/domain/shared"
	"github.com/society/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRoleHandler_ReplaceGrants(t *testing.T) {
	roleID := uuid.New()
	grants := []access.Grant{
		{Capability: access.CapStaff},
		{Capability: access.CapBilling, ResourceID: "A-101"},
	}
	role := &access.Role{Name: "tower-a-accountant", Grants: grants}
	role.ID = roleID

	svc := new(mockGrants)
	svc.On("ReplaceGrants", mock.Anything, testCompanyID, roleID, grants).Return(role, nil)

	h := NewRoleHandler(svc)
	r := newRouter()
	r.PUT("/roles/:id/grants", h.ReplaceGrants)

	rec := do(r, http.MethodPut, "/roles/"+roleID.String()+"/grants", dto.ReplaceGrantsRequest{Grants: []dto.GrantRequest{
		{Capability: "isStaff"},
		{Capability: "hasBillingPermission", ResourceID: "A-101"},
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got dto.RoleResponse
	decodeData(t, rec, &got)
	assert.Equal(t, roleID, got.ID)
	assert.Len(t, got.Grants, 2)
	svc.AssertExpectations(t)
}

func TestRoleHandler_ReplaceGrants_Errors(t *testing.T) {
	svc := new(mockGrants)
	h := NewRoleHandler(svc)
	r := newRouter()
	r.PUT("/roles/:id/grants", h.ReplaceGrants)

	rec := do(r, http.MethodPut, "/roles/abc/grants", dto.ReplaceGrantsRequest{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(r, http.MethodPut, "/roles/"+uuid.NewString()+"/grants", dto.ReplaceGrantsRequest{Grants: []dto.GrantRequest{{}}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	svc.On("ReplaceGrants", mock.Anything, testCompanyID, mock.Anything, mock.Anything).Return(nil, shared.ErrNotFound)
	rec = do(r, http.MethodPut, "/roles/"+uuid.NewString()+"/grants", dto.ReplaceGrantsRequest{Grants: []dto.GrantRequest{{Capability: "isStaff"}}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
