package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/access"
	"github.com/society/backend/internal/domain/shared"
	"github.com/society/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormRoleRepository implements access.RoleRepository
type GormRoleRepository struct {
	db *gorm.DB
}

// NewGormRoleRepository creates a new GormRoleRepository
func NewGormRoleRepository(db *gorm.DB) *GormRoleRepository {
	return &GormRoleRepository{db: db}
}

// FindByID finds a role of the company with its grants
func (r *GormRoleRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*access.Role, error) {
	var model models.RoleModel
	err := r.db.WithContext(ctx).
		Scopes(ForCompany(companyID)).
		Preload("Grants").
		First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByUser returns every role linked to the user, grants included
func (r *GormRoleRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]access.Role, error) {
	var rows []models.RoleModel
	err := r.db.WithContext(ctx).
		Preload("Grants").
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Order("roles.name").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	roles := make([]access.Role, 0, len(rows))
	for i := range rows {
		roles = append(roles, *rows[i].ToDomain())
	}
	return roles, nil
}

// FindUserIDsByRole lists the users holding a role
func (r *GormRoleRepository) FindUserIDsByRole(ctx context.Context, roleID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.UserRoleModel{}).
		Where("role_id = ?", roleID).
		Pluck("user_id", &ids).Error
	return ids, err
}

// Save upserts the role and replaces its grant rows
func (r *GormRoleRepository) Save(ctx context.Context, role *access.Role) error {
	model := models.RoleModelFromDomain(role)
	grants := model.Grants
	model.Grants = nil

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(model).Error; err != nil {
			return err
		}
		if err := tx.Where("role_id = ?", role.ID).Delete(&models.RoleGrantModel{}).Error; err != nil {
			return err
		}
		if len(grants) == 0 {
			return nil
		}
		return tx.Create(&grants).Error
	})
}

var _ access.RoleRepository = (*GormRoleRepository)(nil)
