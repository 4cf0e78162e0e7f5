package persistence

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/maintenance"
	"github.com/society/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormScheduleRepository implements maintenance.ScheduleRepository
type GormScheduleRepository struct {
	db *gorm.DB
}

// NewGormScheduleRepository creates a new GormScheduleRepository
func NewGormScheduleRepository(db *gorm.DB) *GormScheduleRepository {
	return &GormScheduleRepository{db: db}
}

// FindByCompany loads every variant with its fixed rates
func (r *GormScheduleRepository) FindByCompany(ctx context.Context, companyID uuid.UUID) ([]*maintenance.CostSchedule, error) {
	var rows []models.CostScheduleModel
	err := r.db.WithContext(ctx).
		Scopes(ForCompany(companyID)).
		Preload("FixedRates").
		Order("updated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*maintenance.CostSchedule, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

// SaveAll writes the variants in one transaction. Inactive variants are
// written first so the one-active-per-company index never sees two.
func (r *GormScheduleRepository) SaveAll(ctx context.Context, schedules []*maintenance.CostSchedule) error {
	ordered := make([]*maintenance.CostSchedule, len(schedules))
	copy(ordered, schedules)
	sort.SliceStable(ordered, func(i, j int) bool { return !ordered[i].Active && ordered[j].Active })

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, s := range ordered {
			model := models.CostScheduleModelFromDomain(s)
			rates := model.FixedRates
			model.FixedRates = nil

			if err := tx.Save(model).Error; err != nil {
				return err
			}
			if err := tx.Where("schedule_id = ?", s.ID).Delete(&models.FixedRateModel{}).Error; err != nil {
				return err
			}
			if len(rates) > 0 {
				if err := tx.Create(&rates).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

var _ maintenance.ScheduleRepository = (*GormScheduleRepository)(nil)
