package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/access"
	"github.com/society/backend/internal/domain/identity"
	"github.com/society/backend/internal/domain/shared"
	"github.com/society/backend/internal/infrastructure/auth"
	"github.com/society/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateLoginState(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

type stubResolver struct {
	m   *access.PermissionMap
	err error
}

func (r stubResolver) ResolveForUser(context.Context, uuid.UUID) (*access.PermissionMap, error) {
	return r.m, r.err
}

type countingInvalidator struct {
	ids []uuid.UUID
}

func (c *countingInvalidator) Invalidate(_ context.Context, ids ...uuid.UUID) error {
	c.ids = append(c.ids, ids...)
	return nil
}

type authFixture struct {
	svc       *AuthService
	repo      *MockUserRepository
	blacklist *auth.InMemoryTokenBlacklist
	inval     *countingInvalidator
	user      *identity.User
}

func newAuthFixture(t *testing.T, cfg AuthServiceConfig) *authFixture {
	t.Helper()
	user, err := identity.NewUser(uuid.New(), "alice", "correct-horse")
	require.NoError(t, err)
	user.RoleIDs = []uuid.UUID{uuid.New()}

	jwtSvc := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-that-is-long-enough",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "society-test",
		MaxRefreshCount:        5,
	})
	perms := access.NewPermissionMap(map[access.Capability]access.Value{access.CapBilling: access.Flag(true)})

	f := &authFixture{
		repo:      new(MockUserRepository),
		blacklist: auth.NewInMemoryTokenBlacklist(),
		inval:     &countingInvalidator{},
		user:      user,
	}
	f.svc = NewAuthService(f.repo, stubResolver{m: perms}, f.inval, jwtSvc, f.blacklist, cfg, zap.NewNop())
	return f
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	return de.Code
}

func TestAuthService_Login(t *testing.T) {
	f := newAuthFixture(t, DefaultAuthServiceConfig())
	f.user.FailedAttempts = 2
	f.repo.On("FindByUsername", mock.Anything, "alice").Return(f.user, nil)
	f.repo.On("UpdateLoginState", mock.Anything, f.user).Return(nil)

	res, err := f.svc.Login(context.Background(), LoginInput{Username: "alice", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Tokens.AccessToken)
	assert.NotEmpty(t, res.Tokens.RefreshToken)
	assert.Equal(t, f.user.ID, res.User.ID)
	assert.True(t, res.Permissions.Capability(access.CapBilling))
	assert.Equal(t, 0, f.user.FailedAttempts)
	assert.NotNil(t, f.user.LastLoginAt)
	f.repo.AssertExpectations(t)
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	f := newAuthFixture(t, DefaultAuthServiceConfig())
	f.repo.On("FindByUsername", mock.Anything, "bob").Return(nil, shared.ErrNotFound)

	_, err := f.svc.Login(context.Background(), LoginInput{Username: "bob", Password: "whatever1"})
	assert.Equal(t, "INVALID_CREDENTIALS", domainCode(t, err))
}

func TestAuthService_Login_RepositoryFailure(t *testing.T) {
	f := newAuthFixture(t, DefaultAuthServiceConfig())
	f.repo.On("FindByUsername", mock.Anything, "alice").Return(nil, errors.New("db down"))

	_, err := f.svc.Login(context.Background(), LoginInput{Username: "alice", Password: "x"})
	assert.ErrorContains(t, err, "db down")
}

func TestAuthService_Login_LocksAfterMaxAttempts(t *testing.T) {
	f := newAuthFixture(t, AuthServiceConfig{MaxLoginAttempts: 2, LockDuration: time.Minute})
	f.repo.On("FindByUsername", mock.Anything, "alice").Return(f.user, nil)
	f.repo.On("UpdateLoginState", mock.Anything, f.user).Return(nil)

	_, err := f.svc.Login(context.Background(), LoginInput{Username: "alice", Password: "wrong-pass"})
	assert.Equal(t, "INVALID_CREDENTIALS", domainCode(t, err))
	assert.Equal(t, 1, f.user.FailedAttempts)

	_, err = f.svc.Login(context.Background(), LoginInput{Username: "alice", Password: "wrong-pass"})
	assert.Equal(t, "ACCOUNT_LOCKED", domainCode(t, err))
	assert.True(t, f.user.IsLocked())

	_, err = f.svc.Login(context.Background(), LoginInput{Username: "alice", Password: "correct-horse"})
	assert.Equal(t, "ACCOUNT_LOCKED", domainCode(t, err))
}

func TestAuthService_Login_PermissionFailure(t *testing.T) {
	f := newAuthFixture(t, DefaultAuthServiceConfig())
	f.svc.permissions = stubResolver{err: errors.New("roles unavailable")}
	f.repo.On("FindByUsername", mock.Anything, "alice").Return(f.user, nil)

	_, err := f.svc.Login(context.Background(), LoginInput{Username: "alice", Password: "correct-horse"})
	assert.Equal(t, "INTERNAL_ERROR", domainCode(t, err))
}

func TestAuthService_RefreshToken_RotatesAndRejectsReplay(t *testing.T) {
	f := newAuthFixture(t, DefaultAuthServiceConfig())
	f.repo.On("FindByUsername", mock.Anything, "alice").Return(f.user, nil)
	f.repo.On("UpdateLoginState", mock.Anything, f.user).Return(nil)
	f.repo.On("FindByID", mock.Anything, f.user.ID).Return(f.user, nil)

	res, err := f.svc.Login(context.Background(), LoginInput{Username: "alice", Password: "correct-horse"})
	require.NoError(t, err)

	pair, err := f.svc.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: res.Tokens.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, res.Tokens.RefreshToken, pair.RefreshToken)

	_, err = f.svc.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: res.Tokens.RefreshToken})
	assert.Equal(t, "TOKEN_REVOKED", domainCode(t, err))
}

func TestAuthService_RefreshToken_Invalid(t *testing.T) {
	f := newAuthFixture(t, DefaultAuthServiceConfig())
	_, err := f.svc.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: "not-a-jwt"})
	assert.Equal(t, "TOKEN_INVALID", domainCode(t, err))
}

func TestAuthService_InvalidateIdentity(t *testing.T) {
	f := newAuthFixture(t, DefaultAuthServiceConfig())
	f.repo.On("FindByUsername", mock.Anything, "alice").Return(f.user, nil)
	f.repo.On("UpdateLoginState", mock.Anything, f.user).Return(nil)

	res, err := f.svc.Login(context.Background(), LoginInput{Username: "alice", Password: "correct-horse"})
	require.NoError(t, err)

	require.NoError(t, f.svc.InvalidateIdentity(context.Background(), f.user.ID))
	assert.Equal(t, []uuid.UUID{f.user.ID}, f.inval.ids)

	_, err = f.svc.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: res.Tokens.RefreshToken})
	assert.Equal(t, "TOKEN_REVOKED", domainCode(t, err))
}

func TestAuthService_Logout(t *testing.T) {
	f := newAuthFixture(t, DefaultAuthServiceConfig())
	jti := uuid.NewString()

	require.NoError(t, f.svc.Logout(context.Background(), LogoutInput{UserID: f.user.ID, TokenJTI: jti, RemainingTTL: time.Minute}))
	revoked, err := f.blacklist.IsRevoked(context.Background(), jti)
	require.NoError(t, err)
	assert.True(t, revoked)

	assert.NoError(t, f.svc.Logout(context.Background(), LogoutInput{UserID: f.user.ID}))
}
