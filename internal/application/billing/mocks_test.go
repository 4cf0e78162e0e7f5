package billing

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/access"
	"github.com/society/backend/internal/domain/billing"
	"github.com/society/backend/internal/domain/maintenance"
	"github.com/society/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockBillRepository is a mock implementation of billing.BillRepository
type MockBillRepository struct {
	mock.Mock
}

func (m *MockBillRepository) SaveDefinition(ctx context.Context, def *billing.BillDefinition) error {
	args := m.Called(ctx, def)
	return args.Error(0)
}

func (m *MockBillRepository) SaveRecord(ctx context.Context, rec *billing.BillRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockBillRepository) FindRecord(ctx context.Context, companyID, id uuid.UUID) (*billing.BillRecord, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.BillRecord), args.Error(1)
}

func (m *MockBillRepository) FindRows(ctx context.Context, q billing.ReportQuery) ([]billing.BillRow, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.BillRow), args.Error(1)
}

func (m *MockBillRepository) FindGroupRows(ctx context.Context, companyID uuid.UUID, key billing.GroupKey) ([]billing.BillRow, error) {
	args := m.Called(ctx, companyID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.BillRow), args.Error(1)
}

// MockPaymentRepository is a mock implementation of billing.PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByBill(ctx context.Context, billRecordID uuid.UUID) ([]billing.PaymentRecord, error) {
	args := m.Called(ctx, billRecordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRepository) Append(ctx context.Context, rec billing.PaymentRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

type stubSchedule struct {
	schedule *maintenance.CostSchedule
	err      error
}

func (s stubSchedule) Active(context.Context, uuid.UUID) (*maintenance.CostSchedule, error) {
	return s.schedule, s.err
}

type stubResolver struct {
	m   *access.PermissionMap
	err error
}

func (s stubResolver) ResolveForUser(context.Context, uuid.UUID) (*access.PermissionMap, error) {
	return s.m, s.err
}

type groupCounter struct {
	mu    sync.Mutex
	total int
}

func (c *groupCounter) RecordBillGroups(_ context.Context, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total += n
}

type capturePublisher struct {
	events []shared.DomainEvent
}

func (p *capturePublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

type fakeRenderer struct {
	got []Statement
	err error
}

func (r *fakeRenderer) Render(_ context.Context, st Statement) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.got = append(r.got, st)
	return []byte("%PDF-1.4 " + st.View.ApartmentLabel), nil
}

type fakeStorage struct {
	objects map[string][]byte
}

func (s *fakeStorage) Upload(_ context.Context, key string, data []byte, _ string) error {
	if s.objects == nil {
		s.objects = map[string][]byte{}
	}
	s.objects[key] = data
	return nil
}

func (s *fakeStorage) DownloadURL(_ context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	return "memory://" + key, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC).Add(expiresIn), nil
}
