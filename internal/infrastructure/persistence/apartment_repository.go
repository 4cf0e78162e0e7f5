package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/shared"
	"github.com/society/backend/internal/domain/society"
	"github.com/society/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormApartmentTypeRepository implements society.ApartmentTypeRepository
type GormApartmentTypeRepository struct {
	db *gorm.DB
}

// NewGormApartmentTypeRepository creates a new GormApartmentTypeRepository
func NewGormApartmentTypeRepository(db *gorm.DB) *GormApartmentTypeRepository {
	return &GormApartmentTypeRepository{db: db}
}

// FindAll lists the company's apartment types by name
func (r *GormApartmentTypeRepository) FindAll(ctx context.Context, companyID uuid.UUID) ([]society.ApartmentType, error) {
	var rows []models.ApartmentTypeModel
	if err := r.db.WithContext(ctx).Scopes(ForCompany(companyID)).Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]society.ApartmentType, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, nil
}

// ExistsByName checks for a type with the same case-insensitive name
func (r *GormApartmentTypeRepository) ExistsByName(ctx context.Context, companyID uuid.UUID, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ApartmentTypeModel{}).
		Scopes(ForCompany(companyID)).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		Count(&count).Error
	return count > 0, err
}

// Save upserts an apartment type
func (r *GormApartmentTypeRepository) Save(ctx context.Context, t *society.ApartmentType) error {
	err := r.db.WithContext(ctx).Save(models.ApartmentTypeModelFromDomain(t)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.ErrAlreadyExists
	}
	return err
}

// GormApartmentRepository implements society.ApartmentRepository
type GormApartmentRepository struct {
	db *gorm.DB
}

// NewGormApartmentRepository creates a new GormApartmentRepository
func NewGormApartmentRepository(db *gorm.DB) *GormApartmentRepository {
	return &GormApartmentRepository{db: db}
}

// FindByID finds an apartment of the company
func (r *GormApartmentRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*society.Apartment, error) {
	var model models.ApartmentModel
	if err := r.db.WithContext(ctx).Scopes(ForCompany(companyID)).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

func (r *GormApartmentRepository) filtered(ctx context.Context, companyID uuid.UUID, filter shared.Filter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.ApartmentModel{}).Scopes(ForCompany(companyID))
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(number) LIKE ? OR LOWER(tower) LIKE ?", like, like)
	}
	return q
}

// FindAllForCompany lists one page of apartments
func (r *GormApartmentRepository) FindAllForCompany(ctx context.Context, companyID uuid.UUID, filter shared.Filter) ([]society.Apartment, error) {
	orderBy := ValidateSortField(filter.OrderBy, ApartmentSortFields, "number")
	orderDir := ValidateSortOrder(filter.OrderDir)

	var rows []models.ApartmentModel
	err := r.filtered(ctx, companyID, filter).
		Order(orderBy + " " + orderDir).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]society.Apartment, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, nil
}

// CountForCompany counts apartments matching the filter
func (r *GormApartmentRepository) CountForCompany(ctx context.Context, companyID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	err := r.filtered(ctx, companyID, filter).Count(&count).Error
	return count, err
}

// Save upserts an apartment
func (r *GormApartmentRepository) Save(ctx context.Context, a *society.Apartment) error {
	return r.db.WithContext(ctx).Save(models.ApartmentModelFromDomain(a)).Error
}

var (
	_ society.ApartmentTypeRepository = (*GormApartmentTypeRepository)(nil)
	_ society.ApartmentRepository     = (*GormApartmentRepository)(nil)
)
