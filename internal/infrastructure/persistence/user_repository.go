package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/identity"
	"github.com/society/backend/internal/domain/shared"
	"github.com/society/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormUserRepository implements identity.UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// FindByID finds a user and loads its role IDs
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return r.withRoles(ctx, &model)
}

// FindByUsername finds a user by case-insensitive username
func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	var model models.UserModel
	err := r.db.WithContext(ctx).
		Where("LOWER(username) = ?", strings.ToLower(strings.TrimSpace(username))).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return r.withRoles(ctx, &model)
}

func (r *GormUserRepository) withRoles(ctx context.Context, model *models.UserModel) (*identity.User, error) {
	var roleIDs []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.UserRoleModel{}).
		Where("user_id = ?", model.ID).
		Order("created_at").
		Pluck("role_id", &roleIDs).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(roleIDs), nil
}

// Create inserts the user and its role links in one transaction
func (r *GormUserRepository) Create(ctx context.Context, user *identity.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.UserModelFromDomain(user)).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.ErrAlreadyExists
			}
			return err
		}
		if len(user.RoleIDs) == 0 {
			return nil
		}
		links := make([]models.UserRoleModel, 0, len(user.RoleIDs))
		now := time.Now()
		for _, roleID := range user.RoleIDs {
			links = append(links, models.UserRoleModel{
				UserID:    user.ID,
				RoleID:    roleID,
				CompanyID: user.CompanyID,
				CreatedAt: now,
			})
		}
		return tx.Create(&links).Error
	})
}

// UpdateLoginState persists the login bookkeeping columns only
func (r *GormUserRepository) UpdateLoginState(ctx context.Context, user *identity.User) error {
	result := r.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"status":          user.Status,
			"failed_attempts": user.FailedAttempts,
			"locked_until":    user.LockedUntil,
			"last_login_at":   user.LastLoginAt,
			"updated_at":      time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ identity.UserRepository = (*GormUserRepository)(nil)
