package access

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/access"
	"github.com/society/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRoleRepository is a mock implementation of access.RoleRepository
type MockRoleRepository struct {
	mock.Mock
}

func (m *MockRoleRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*access.Role, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*access.Role), args.Error(1)
}

func (m *MockRoleRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]access.Role, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]access.Role), args.Error(1)
}

func (m *MockRoleRepository) FindUserIDsByRole(ctx context.Context, roleID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, roleID)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockRoleRepository) Save(ctx context.Context, role *access.Role) error {
	args := m.Called(ctx, role)
	return args.Error(0)
}

type fakeMapCache struct {
	entries map[uuid.UUID]*access.PermissionMap
	getErr  error
	sets    int
}

func newFakeMapCache() *fakeMapCache {
	return &fakeMapCache{entries: map[uuid.UUID]*access.PermissionMap{}}
}

func (c *fakeMapCache) Get(_ context.Context, id uuid.UUID) (*access.PermissionMap, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	m, ok := c.entries[id]
	return m, ok, nil
}

func (c *fakeMapCache) Set(_ context.Context, id uuid.UUID, m *access.PermissionMap) error {
	c.sets++
	c.entries[id] = m
	return nil
}

type capturePublisher struct {
	events []shared.DomainEvent
}

func (p *capturePublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func TestPermissionService_ResolveForUser(t *testing.T) {
	userID := uuid.New()
	apt := uuid.NewString()
	roles := []access.Role{
		{Name: "staff", Grants: []access.Grant{{Capability: access.CapStaff}, {Capability: access.CapApartment, ResourceID: apt}}},
		{Name: "billing", Grants: []access.Grant{{Capability: access.CapBilling}}},
	}

	repo := new(MockRoleRepository)
	repo.On("FindByUser", mock.Anything, userID).Return(roles, nil).Once()
	cache := newFakeMapCache()
	svc := NewPermissionService(repo, cache, nil, nil)

	m, err := svc.ResolveForUser(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, m.Capability(access.CapStaff))
	assert.True(t, m.Capability(access.CapBilling))
	assert.True(t, m.AllowedResource(access.CapApartment, apt))
	assert.False(t, m.AllowedResource(access.CapApartment, uuid.NewString()))
	assert.Equal(t, 1, cache.sets)

	// second call is served from the cache
	again, err := svc.ResolveForUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Same(t, m, again)
	repo.AssertExpectations(t)
}

func TestPermissionService_ResolveForUser_CacheErrorFallsThrough(t *testing.T) {
	userID := uuid.New()
	repo := new(MockRoleRepository)
	repo.On("FindByUser", mock.Anything, userID).Return([]access.Role{}, nil)
	cache := newFakeMapCache()
	cache.getErr = errors.New("redis down")

	m, err := NewPermissionService(repo, cache, nil, nil).ResolveForUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
}

func TestPermissionService_ResolveForUser_RepoError(t *testing.T) {
	userID := uuid.New()
	repo := new(MockRoleRepository)
	repo.On("FindByUser", mock.Anything, userID).Return(nil, errors.New("db down"))

	_, err := NewPermissionService(repo, nil, nil, nil).ResolveForUser(context.Background(), userID)
	assert.ErrorContains(t, err, "db down")
}

func TestPermissionService_ReplaceGrants(t *testing.T) {
	companyID := uuid.New()
	role, err := access.NewRole(companyID, "Treasurer", "")
	require.NoError(t, err)

	repo := new(MockRoleRepository)
	repo.On("FindByID", mock.Anything, companyID, role.ID).Return(role, nil)
	repo.On("Save", mock.Anything, role).Return(nil)
	pub := &capturePublisher{}
	svc := NewPermissionService(repo, nil, pub, nil)

	got, err := svc.ReplaceGrants(context.Background(), companyID, role.ID, []access.Grant{
		{Capability: access.CapBilling},
		{Capability: access.CapBilling},
	})
	require.NoError(t, err)
	assert.Len(t, got.Grants, 1)
	require.Len(t, pub.events, 1)
	assert.Equal(t, access.EventTypeGrantsChanged, pub.events[0].EventType())
	assert.Empty(t, got.GetDomainEvents())
	repo.AssertExpectations(t)
}

func TestPermissionService_ReplaceGrants_UnknownCapability(t *testing.T) {
	companyID := uuid.New()
	role, err := access.NewRole(companyID, "Treasurer", "")
	require.NoError(t, err)

	repo := new(MockRoleRepository)
	repo.On("FindByID", mock.Anything, companyID, role.ID).Return(role, nil)
	pub := &capturePublisher{}

	_, err = NewPermissionService(repo, nil, pub, nil).ReplaceGrants(context.Background(), companyID, role.ID,
		[]access.Grant{{Capability: "canFly"}})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, pub.events)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestPermissionService_ReplaceGrants_NotFound(t *testing.T) {
	companyID, roleID := uuid.New(), uuid.New()
	repo := new(MockRoleRepository)
	repo.On("FindByID", mock.Anything, companyID, roleID).Return(nil, fmt.Errorf("wrapped: %w", shared.ErrNotFound))

	_, err := NewPermissionService(repo, nil, nil, nil).ReplaceGrants(context.Background(), companyID, roleID, nil)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
