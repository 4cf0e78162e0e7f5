package maintenance

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/maintenance"
	"github.com/society/backend/internal/domain/shared"
	"github.com/society/backend/internal/domain/shared/valueobject"
	"github.com/society/backend/internal/domain/society"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memoryScheduleRepo keeps saved variants per company
type memoryScheduleRepo struct {
	stored  map[uuid.UUID][]*maintenance.CostSchedule
	saveErr error
	saves   int
}

func newMemoryScheduleRepo() *memoryScheduleRepo {
	return &memoryScheduleRepo{stored: map[uuid.UUID][]*maintenance.CostSchedule{}}
}

func (r *memoryScheduleRepo) FindByCompany(_ context.Context, companyID uuid.UUID) ([]*maintenance.CostSchedule, error) {
	return r.stored[companyID], nil
}

func (r *memoryScheduleRepo) SaveAll(_ context.Context, schedules []*maintenance.CostSchedule) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	if len(schedules) > 0 {
		r.stored[schedules[0].CompanyID] = schedules
	}
	return nil
}

// MockApartmentTypeRepository is a mock implementation of society.ApartmentTypeRepository
type MockApartmentTypeRepository struct {
	mock.Mock
}

func (m *MockApartmentTypeRepository) FindAll(ctx context.Context, companyID uuid.UUID) ([]society.ApartmentType, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).([]society.ApartmentType), args.Error(1)
}

func (m *MockApartmentTypeRepository) ExistsByName(ctx context.Context, companyID uuid.UUID, name string) (bool, error) {
	args := m.Called(ctx, companyID, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockApartmentTypeRepository) Save(ctx context.Context, t *society.ApartmentType) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

type capturePublisher struct {
	events []shared.DomainEvent
}

func (p *capturePublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

type scheduleFixture struct {
	svc       *ScheduleService
	repo      *memoryScheduleRepo
	types     *MockApartmentTypeRepository
	publisher *capturePublisher
	companyID uuid.UUID
	typeA     uuid.UUID
	typeB     uuid.UUID
}

func newScheduleFixture() *scheduleFixture {
	f := &scheduleFixture{
		repo:      newMemoryScheduleRepo(),
		types:     new(MockApartmentTypeRepository),
		publisher: &capturePublisher{},
		companyID: uuid.New(),
	}
	a, _ := society.NewApartmentType(f.companyID, "2BHK")
	b, _ := society.NewApartmentType(f.companyID, "3BHK")
	f.typeA, f.typeB = a.ID, b.ID
	f.types.On("FindAll", mock.Anything, f.companyID).Return([]society.ApartmentType{*a, *b}, nil)
	f.svc = NewScheduleService(f.repo, f.types, f.publisher, valueobject.INR, zap.NewNop())
	return f
}

func TestScheduleService_UpdateFixedTable(t *testing.T) {
	f := newScheduleFixture()
	ctx := context.Background()

	active, err := f.svc.Update(ctx, f.companyID, maintenance.ScheduleUpdate{
		CostType: maintenance.FixedTable,
		Fixed: []maintenance.FixedEntry{
			{ApartmentTypeID: f.typeA, UnitValue: "100"},
			{ApartmentTypeID: f.typeB, UnitValue: "150"},
		},
	})
	require.NoError(t, err)
	assert.True(t, active.Active)
	assert.Len(t, active.FixedRates, 2)
	assert.Equal(t, 1, f.repo.saves)
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, maintenance.EventTypeScheduleActivated, f.publisher.events[0].EventType())

	got, err := f.svc.Active(ctx, f.companyID)
	require.NoError(t, err)
	cost, ok := got.BaseCost(f.typeB)
	assert.True(t, ok)
	assert.Equal(t, "150", cost.Amount().String())
}

func TestScheduleService_UpdateRejectsMissingType(t *testing.T) {
	f := newScheduleFixture()

	_, err := f.svc.Update(context.Background(), f.companyID, maintenance.ScheduleUpdate{
		CostType: maintenance.FixedTable,
		Fixed:    []maintenance.FixedEntry{{ApartmentTypeID: f.typeA, UnitValue: "100"}},
	})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "fixed_data."+f.typeB.String(), verr.Fields[0].Field)
	assert.Equal(t, 0, f.repo.saves)
	assert.Empty(t, f.publisher.events)
}

func TestScheduleService_SwitchModeKeepsInactiveValues(t *testing.T) {
	f := newScheduleFixture()
	ctx := context.Background()

	_, err := f.svc.Update(ctx, f.companyID, maintenance.ScheduleUpdate{
		CostType: maintenance.FixedTable,
		Fixed: []maintenance.FixedEntry{
			{ApartmentTypeID: f.typeA, UnitValue: "100"},
			{ApartmentTypeID: f.typeB, UnitValue: "150"},
		},
	})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, f.companyID, maintenance.ScheduleUpdate{
		CostType: maintenance.UnitRate,
		Unit:     maintenance.UnitEntry{UnitName: "sqft", UnitValue: "2.5"},
	})
	require.NoError(t, err)

	variants, err := f.svc.List(ctx, f.companyID)
	require.NoError(t, err)
	require.Len(t, variants, 2)
	assert.False(t, variants[0].Active)
	assert.Len(t, variants[0].FixedRates, 2, "fixed table values survive the switch")
	assert.True(t, variants[1].Active)

	active, err := f.svc.SwitchMode(ctx, f.companyID, maintenance.FixedTable)
	require.NoError(t, err)
	assert.Equal(t, maintenance.FixedTable, active.CostType)
	assert.Len(t, active.FixedRates, 2)
}

func TestScheduleService_SaveFailure(t *testing.T) {
	f := newScheduleFixture()
	f.repo.saveErr = errors.New("tx aborted")

	_, err := f.svc.SwitchMode(context.Background(), f.companyID, maintenance.UnitRate)
	assert.ErrorContains(t, err, "tx aborted")
	assert.Empty(t, f.publisher.events)
}

func TestScheduleService_ActiveNoneConfigured(t *testing.T) {
	f := newScheduleFixture()
	got, err := f.svc.Active(context.Background(), f.companyID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
