package billing

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	accessapp "github.com/society/backend/internal/application/access"
	"github.com/society/backend/internal/domain/access"
	"github.com/society/backend/internal/domain/billing"
	"github.com/society/backend/internal/domain/shared"
	"github.com/society/backend/internal/domain/shared/valueobject"
	"github.com/society/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ErrStatementsDisabled is returned when no renderer is configured
var ErrStatementsDisabled = shared.NewDomainError("SERVICE_UNAVAILABLE", "Bill statements are not enabled")

// StatementResult points at a stored statement
type StatementResult struct {
	Key       string
	URL       string
	ExpiresAt time.Time
	View      billing.AggregatedBillView
}

// StatementServiceConfig holds statement settings
type StatementServiceConfig struct {
	Currency  valueobject.Currency
	KeyPrefix string
	URLTTL    time.Duration
}

// StatementService renders the settlement of one bill group to PDF, stores
// it and hands back a download URL.
type StatementService struct {
	bills     billing.BillRepository
	schedules ActiveSchedule
	renderer  StatementRenderer
	storage   ObjectStorage
	guard     *accessapp.Guard
	config    StatementServiceConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewStatementService creates the service. A nil renderer disables it.
func NewStatementService(
	bills billing.BillRepository,
	schedules ActiveSchedule,
	renderer StatementRenderer,
	storage ObjectStorage,
	guard *accessapp.Guard,
	config StatementServiceConfig,
	logger *zap.Logger,
) *StatementService {
	if config.Currency == "" {
		config.Currency = valueobject.DefaultCurrency
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "statements"
	}
	return &StatementService{
		bills:     bills,
		schedules: schedules,
		renderer:  renderer,
		storage:   storage,
		guard:     guard,
		config:    config,
		logger:    logger,
		now:       time.Now,
	}
}

// Enabled reports whether statements can be generated
func (s *StatementService) Enabled() bool {
	return s.renderer != nil && s.storage != nil
}

// Key returns the storage key of a group's statement
func (s *StatementService) Key(companyID uuid.UUID, key billing.GroupKey) string {
	return path.Join(s.config.KeyPrefix, companyID.String(), key.BillDefinitionID.String(), key.ApartmentID.String()+".pdf")
}

// Generate renders the statement of the group the bill record belongs to
func (s *StatementService) Generate(ctx context.Context, companyID, billRecordID uuid.UUID) (*StatementResult, error) {
	if !s.Enabled() {
		return nil, ErrStatementsDisabled
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "StatementService", "Generate",
		telemetry.WithAttribute(telemetry.SpanAttrCompanyID, companyID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrBillID, billRecordID.String()))
	defer span.End()

	rec, err := s.bills.FindRecord(ctx, companyID, billRecordID)
	if err != nil {
		return nil, fmt.Errorf("bill %s: %w", billRecordID, err)
	}
	req := access.Require(access.CapBilling).On(rec.ApartmentID.String())
	if err := accessapp.Enforce(s.guard.CheckContext(ctx, req)); err != nil {
		return nil, err
	}

	key := billing.GroupKey{BillDefinitionID: rec.BillDefinitionID, ApartmentID: rec.ApartmentID}
	rows, err := s.bills.FindGroupRows(ctx, companyID, key)
	if err != nil {
		return nil, fmt.Errorf("fetch group rows: %w", err)
	}
	schedule, err := s.schedules.Active(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	views, err := billing.Aggregate(rows, schedule, s.config.Currency)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	view, ok := views[key]
	if !ok {
		return nil, fmt.Errorf("bill group %s/%s: %w", key.BillDefinitionID, key.ApartmentID, shared.ErrNotFound)
	}

	st := Statement{
		CompanyID:   companyID,
		View:        view,
		GeneratedAt: s.now(),
	}
	if schedule != nil {
		st.CostType = schedule.CostType
		st.UnitName = schedule.UnitName
	}
	seenCost := make(map[uuid.UUID]bool)
	seenPay := make(map[uuid.UUID]bool)
	for _, r := range rows {
		for _, c := range r.AdditionalCosts {
			if !seenCost[c.ID] {
				seenCost[c.ID] = true
				st.AdditionalCosts = append(st.AdditionalCosts, c)
			}
		}
		for _, p := range r.Payments {
			if !seenPay[p.ID] {
				seenPay[p.ID] = true
				st.Payments = append(st.Payments, p)
			}
		}
	}

	pdf, err := s.renderer.Render(ctx, st)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("render statement: %w", err)
	}
	objectKey := s.Key(companyID, key)
	if err := s.storage.Upload(ctx, objectKey, pdf, "application/pdf"); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("store statement: %w", err)
	}
	url, expires, err := s.storage.DownloadURL(ctx, objectKey, s.config.URLTTL)
	if err != nil {
		return nil, fmt.Errorf("sign statement url: %w", err)
	}

	s.logger.Info("Bill statement generated",
		zap.String("key", objectKey),
		zap.Int("bytes", len(pdf)),
		zap.String("status", string(view.Status)))
	return &StatementResult{Key: objectKey, URL: url, ExpiresAt: expires, View: view}, nil
}
