// Package maintenance serves the cost schedule of a company.
package maintenance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/maintenance"
	"github.com/society/backend/internal/domain/shared"
	"github.com/society/backend/internal/domain/shared/valueobject"
	"github.com/society/backend/internal/domain/society"
	"github.com/society/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ScheduleService lists, switches and updates schedule variants
type ScheduleService struct {
	schedules maintenance.ScheduleRepository
	types     society.ApartmentTypeRepository
	publisher shared.EventPublisher
	currency  valueobject.Currency
	logger    *zap.Logger
}

// NewScheduleService creates the service. publisher may be nil.
func NewScheduleService(
	schedules maintenance.ScheduleRepository,
	types society.ApartmentTypeRepository,
	publisher shared.EventPublisher,
	currency valueobject.Currency,
	logger *zap.Logger,
) *ScheduleService {
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	return &ScheduleService{
		schedules: schedules,
		types:     types,
		publisher: publisher,
		currency:  currency,
		logger:    logger,
	}
}

// Load returns every stored variant of the company as a set
func (s *ScheduleService) Load(ctx context.Context, companyID uuid.UUID) (*maintenance.ScheduleSet, error) {
	stored, err := s.schedules.FindByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("load schedules: %w", err)
	}
	return maintenance.NewScheduleSet(companyID, s.currency, stored), nil
}

// List returns the stored variants, active and inactive
func (s *ScheduleService) List(ctx context.Context, companyID uuid.UUID) ([]*maintenance.CostSchedule, error) {
	set, err := s.Load(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return set.Variants(), nil
}

// Active returns the active variant, or nil when none is configured
func (s *ScheduleService) Active(ctx context.Context, companyID uuid.UUID) (*maintenance.CostSchedule, error) {
	set, err := s.Load(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return set.Active(), nil
}

// SwitchMode activates the variant for ct without touching stored values
func (s *ScheduleService) SwitchMode(ctx context.Context, companyID uuid.UUID, ct maintenance.CostType) (*maintenance.CostSchedule, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ScheduleService", "SwitchMode",
		telemetry.WithAttribute(telemetry.SpanAttrCompanyID, companyID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrCostType, ct.String()))
	defer span.End()

	set, err := s.Load(ctx, companyID)
	if err != nil {
		return nil, err
	}
	active, err := set.SwitchMode(ct)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, set); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return active, nil
}

// Update validates the submitted values against the company's apartment
// types, stores them on the variant and activates it. Nothing is persisted
// when validation fails.
func (s *ScheduleService) Update(ctx context.Context, companyID uuid.UUID, update maintenance.ScheduleUpdate) (*maintenance.CostSchedule, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ScheduleService", "Update",
		telemetry.WithAttribute(telemetry.SpanAttrCompanyID, companyID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrCostType, update.CostType.String()))
	defer span.End()

	types, err := s.types.FindAll(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("load apartment types: %w", err)
	}
	known := make([]uuid.UUID, len(types))
	for i, t := range types {
		known[i] = t.ID
	}

	set, err := s.Load(ctx, companyID)
	if err != nil {
		return nil, err
	}
	active, err := set.Apply(update, known)
	if err != nil {
		s.logger.Debug("Schedule update rejected",
			zap.String("company_id", companyID.String()),
			zap.Error(err))
		return nil, err
	}
	if err := s.persist(ctx, set); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Cost schedule updated",
		zap.String("company_id", companyID.String()),
		zap.String("cost_type", active.CostType.String()))
	return active, nil
}

func (s *ScheduleService) persist(ctx context.Context, set *maintenance.ScheduleSet) error {
	variants := set.Variants()
	if err := s.schedules.SaveAll(ctx, variants); err != nil {
		return fmt.Errorf("save schedules: %w", err)
	}

	var events []shared.DomainEvent
	for _, v := range variants {
		events = append(events, v.GetDomainEvents()...)
		v.ClearDomainEvents()
	}
	if s.publisher != nil && len(events) > 0 {
		if err := s.publisher.Publish(ctx, events...); err != nil {
			s.logger.Error("Failed to publish schedule events", zap.Error(err))
		}
	}
	return nil
}
