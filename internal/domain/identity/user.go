package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// UserStatus represents the status of a user
type UserStatus string

const (
	UserStatusActive      UserStatus = "active"
	UserStatusLocked      UserStatus = "locked"
	UserStatusDeactivated UserStatus = "deactivated"
)

// bcryptCost is a var so tests can lower it
var bcryptCost = 12

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_\-.@]+$`)

// User is a console login: a resident, a staff member or a company admin.
// What the user may do is decided by the grants of RoleIDs, not by the user record.
type User struct {
	shared.CompanyAggregateRoot
	Username       string
	PasswordHash   string
	DisplayName    string
	Status         UserStatus
	RoleIDs        []uuid.UUID
	FailedAttempts int
	LockedUntil    *time.Time
	LastLoginAt    *time.Time
}

// NewUser creates an active user with a hashed password
func NewUser(companyID uuid.UUID, username, password string) (*User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	return &User{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		Username:             strings.ToLower(strings.TrimSpace(username)),
		PasswordHash:         string(hash),
		Status:               UserStatusActive,
	}, nil
}

// VerifyPassword verifies if the provided password matches
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// AssignRole adds a role if not already assigned
func (u *User) AssignRole(roleID uuid.UUID) error {
	if roleID == uuid.Nil {
		return shared.NewDomainError("INVALID_ROLE_ID", "Role ID cannot be empty")
	}
	for _, rid := range u.RoleIDs {
		if rid == roleID {
			return nil
		}
	}
	u.RoleIDs = append(u.RoleIDs, roleID)
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
	return nil
}

// IsLocked returns true while a lock is in force
func (u *User) IsLocked() bool {
	if u.Status != UserStatusLocked {
		return false
	}
	return u.LockedUntil == nil || time.Now().Before(*u.LockedUntil)
}

// CanLogin returns true if the user may authenticate
func (u *User) CanLogin() bool {
	return u.Status != UserStatusDeactivated && !u.IsLocked()
}

// RecordLoginSuccess clears failures and any expired lock
func (u *User) RecordLoginSuccess() {
	now := time.Now()
	u.LastLoginAt = &now
	u.FailedAttempts = 0
	if u.Status == UserStatusLocked {
		u.Status = UserStatusActive
		u.LockedUntil = nil
	}
	u.UpdatedAt = now
}

// RecordLoginFailure counts a failed attempt and locks the account when
// maxAttempts is reached. Returns true if the account was locked.
func (u *User) RecordLoginFailure(maxAttempts int, lockDuration time.Duration) bool {
	u.FailedAttempts++
	u.UpdatedAt = time.Now()
	if maxAttempts <= 0 || u.FailedAttempts < maxAttempts {
		return false
	}
	u.Status = UserStatusLocked
	if lockDuration > 0 {
		until := time.Now().Add(lockDuration)
		u.LockedUntil = &until
	}
	return true
}

// DisplayNameOrUsername returns display name if set, otherwise username
func (u *User) DisplayNameOrUsername() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

func validateUsername(username string) error {
	username = strings.TrimSpace(username)
	switch {
	case len(username) < 3:
		return shared.NewDomainError("INVALID_USERNAME", "Username must be at least 3 characters")
	case len(username) > 100:
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot exceed 100 characters")
	case !usernamePattern.MatchString(username):
		return shared.NewDomainError("INVALID_USERNAME", "Username can only contain letters, numbers, and . _ - @")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}
	return nil
}
