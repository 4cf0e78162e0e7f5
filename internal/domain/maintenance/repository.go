package maintenance

import (
	"context"

	"github.com/google/uuid"
)

// ScheduleRepository persists the schedule variants of a company
type ScheduleRepository interface {
	// FindByCompany returns every stored variant, active or not
	FindByCompany(ctx context.Context, companyID uuid.UUID) ([]*CostSchedule, error)
	// SaveAll persists the variants atomically
	SaveAll(ctx context.Context, schedules []*CostSchedule) error
}
