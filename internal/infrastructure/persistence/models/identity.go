package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/identity"
)

// UserModel is the persistence model for identity.User
type UserModel struct {
	CompanyAggregateModel
	Username       string              `gorm:"type:varchar(100);not null;uniqueIndex"`
	PasswordHash   string              `gorm:"type:varchar(255);not null"`
	DisplayName    string              `gorm:"type:varchar(200)"`
	Status         identity.UserStatus `gorm:"type:varchar(20);not null;default:'active'"`
	FailedAttempts int                 `gorm:"not null;default:0"`
	LockedUntil    *time.Time
	LastLoginAt    *time.Time
}

func (UserModel) TableName() string { return "users" }

// ToDomain converts the model. RoleIDs are loaded by the repository.
func (m *UserModel) ToDomain(roleIDs []uuid.UUID) *identity.User {
	return &identity.User{
		CompanyAggregateRoot: m.CompanyAggregateRoot(),
		Username:             m.Username,
		PasswordHash:         m.PasswordHash,
		DisplayName:          m.DisplayName,
		Status:               m.Status,
		RoleIDs:              roleIDs,
		FailedAttempts:       m.FailedAttempts,
		LockedUntil:          m.LockedUntil,
		LastLoginAt:          m.LastLoginAt,
	}
}

// UserModelFromDomain converts a domain user
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		Username:       u.Username,
		PasswordHash:   u.PasswordHash,
		DisplayName:    u.DisplayName,
		Status:         u.Status,
		FailedAttempts: u.FailedAttempts,
		LockedUntil:    u.LockedUntil,
		LastLoginAt:    u.LastLoginAt,
	}
	m.FromDomainCompanyAggregateRoot(u.CompanyAggregateRoot)
	return m
}

// UserRoleModel links users to roles
type UserRoleModel struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	RoleID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt time.Time `gorm:"not null"`
}

func (UserRoleModel) TableName() string { return "user_roles" }
