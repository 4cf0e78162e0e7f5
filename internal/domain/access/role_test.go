package access

import (
	"testing"

	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRole(t *testing.T) {
	role, err := NewRole(uuid.New(), "  Treasurer ", "handles dues")
	require.NoError(t, err)
	assert.Equal(t, "Treasurer", role.Name)
	assert.Empty(t, role.Grants)

	_, err = NewRole(uuid.New(), " ", "")
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Fields[0].Field)
}

func TestRole_ReplaceGrants(t *testing.T) {
	role, err := NewRole(uuid.New(), "Manager", "")
	require.NoError(t, err)

	err = role.ReplaceGrants([]Grant{
		{Capability: CapBilling},
		{Capability: CapBilling},
		{Capability: CapListing, ResourceID: " L1 "},
	})
	require.NoError(t, err)
	assert.Equal(t, []Grant{{Capability: CapBilling}, {Capability: CapListing, ResourceID: "L1"}}, role.Grants)
	assert.Equal(t, 2, role.GetVersion())

	events := role.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeGrantsChanged, events[0].EventType())
	assert.Equal(t, role.CompanyID, events[0].CompanyID())
}

func TestRole_ReplaceGrantsRejectsUnknown(t *testing.T) {
	role, err := NewRole(uuid.New(), "Manager", "")
	require.NoError(t, err)
	require.NoError(t, role.ReplaceGrants([]Grant{{Capability: CapNotice}}))
	role.ClearDomainEvents()

	err = role.ReplaceGrants([]Grant{{Capability: CapBilling}, {Capability: "hasBilingPermission"}})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 1)
	assert.Equal(t, []Grant{{Capability: CapNotice}}, role.Grants, "failed replace must not change grants")
	assert.Empty(t, role.GetDomainEvents())
}

func TestBuildPermissionMap(t *testing.T) {
	m := BuildPermissionMap([]Grant{
		{Capability: CapListing, ResourceID: "L1"},
		{Capability: CapListing, ResourceID: "L2"},
		{Capability: CapListing, ResourceID: "L1"},
		{Capability: CapCamera, ResourceID: "gate"},
		{Capability: CapCamera},
		{Capability: CapStaff},
	})

	v, ok := m.Lookup(CapListing)
	require.True(t, ok)
	assert.Equal(t, []string{"L1", "L2"}, v.ResourceIDs())

	camera, _ := m.Lookup(CapCamera)
	assert.False(t, camera.Scoped(), "blanket grant overrides scoped grants")
	assert.True(t, m.Capability(CapStaff))
	assert.False(t, m.Capability(CapBilling))
}
