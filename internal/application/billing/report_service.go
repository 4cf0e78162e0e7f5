package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	accessapp "github.com/society/backend/internal/application/access"
	"github.com/society/backend/internal/domain/access"
	"github.com/society/backend/internal/domain/billing"
	"github.com/society/backend/internal/domain/maintenance"
	"github.com/society/backend/internal/domain/shared"
	"github.com/society/backend/internal/domain/shared/valueobject"
	"github.com/society/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ReportInput selects a report window. From and To are inclusive days.
type ReportInput struct {
	CompanyID uuid.UUID
	UserID    uuid.UUID
	From      time.Time
	To        time.Time
	Category  billing.Category
}

// Query returns the half-open repository query for the window
func (in ReportInput) Query() billing.ReportQuery {
	return billing.ReportQuery{
		CompanyID: in.CompanyID,
		Start:     truncateDay(in.From),
		End:       truncateDay(in.To).AddDate(0, 0, 1),
		Category:  in.Category,
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ReportResult is the aggregated report of a window
type ReportResult struct {
	Views    []billing.AggregatedBillView
	Summary  billing.Summary
	Schedule *maintenance.CostSchedule
	RowCount int
}

// ReportServiceConfig holds report policy
type ReportServiceConfig struct {
	Currency             valueobject.Currency
	RejectUnmatchedTypes bool
	MaxReportDays        int
}

// ReportService fetches bill rows and aggregates them. Permission resolution
// runs concurrently with the fetch; the guard decision waits only for the
// permission map and cancels the fetch on denial.
type ReportService struct {
	bills       billing.BillRepository
	schedules   ActiveSchedule
	permissions PermissionResolver
	guard       *accessapp.Guard
	metrics     BillGroupRecorder
	config      ReportServiceConfig
	logger      *zap.Logger
}

// NewReportService creates the service. metrics may be nil.
func NewReportService(
	bills billing.BillRepository,
	schedules ActiveSchedule,
	permissions PermissionResolver,
	guard *accessapp.Guard,
	metrics BillGroupRecorder,
	config ReportServiceConfig,
	logger *zap.Logger,
) *ReportService {
	if config.Currency == "" {
		config.Currency = valueobject.DefaultCurrency
	}
	return &ReportService{
		bills:       bills,
		schedules:   schedules,
		permissions: permissions,
		guard:       guard,
		metrics:     metrics,
		config:      config,
		logger:      logger,
	}
}

func (s *ReportService) validate(in ReportInput) error {
	verr := shared.NewValidationError()
	if in.From.IsZero() {
		verr.Add("start", "start date is required")
	}
	if in.To.IsZero() {
		verr.Add("end", "end date is required")
	}
	if !in.From.IsZero() && !in.To.IsZero() {
		if in.To.Before(in.From) {
			verr.Add("end", "end date must not be before start date")
		} else if s.config.MaxReportDays > 0 && truncateDay(in.To).Sub(truncateDay(in.From)) >= time.Duration(s.config.MaxReportDays)*24*time.Hour {
			verr.Add("end", fmt.Sprintf("report window cannot exceed %d days", s.config.MaxReportDays))
		}
	}
	return verr.OrNil()
}

type fetched struct {
	rows     []billing.BillRow
	schedule *maintenance.CostSchedule
}

// load resolves permissions and fetches rows (and, if withSchedule, the
// active schedule) concurrently. Rows outside the caller's apartment scope
// are dropped.
func (s *ReportService) load(ctx context.Context, in ReportInput, withSchedule bool) (*fetched, error) {
	if err := s.validate(in); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := &fetched{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.bills.FindRows(gctx, in.Query())
		if err != nil {
			return fmt.Errorf("fetch bill rows: %w", err)
		}
		out.rows = rows
		return nil
	})
	if withSchedule {
		g.Go(func() error {
			sched, err := s.schedules.Active(gctx, in.CompanyID)
			if err != nil {
				return fmt.Errorf("load schedule: %w", err)
			}
			out.schedule = sched
			return nil
		})
	}

	m := accessapp.PermissionsFrom(ctx)
	if m == nil {
		resolved, err := s.permissions.ResolveForUser(ctx, in.UserID)
		if err != nil {
			// fail closed: an unresolved map is denied
			s.logger.Warn("Permission resolution failed for report", zap.Error(err))
		}
		m = resolved
	}
	if err := accessapp.Enforce(s.guard.Check(ctx, m, access.Require(access.CapBilling))); err != nil {
		cancel()
		_ = g.Wait()
		return nil, err
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	out.rows = ScopeRows(m, out.rows)
	return out, nil
}

// ScopeRows keeps the rows the caller may see. A blanket billing grant sees
// every row; a list-valued one sees only the apartments it lists.
func ScopeRows(m *access.PermissionMap, rows []billing.BillRow) []billing.BillRow {
	v, ok := m.Lookup(access.CapBilling)
	if !ok || !v.Scoped() {
		return rows
	}
	visible := make([]billing.BillRow, 0, len(rows))
	for _, r := range rows {
		if m.AllowedResource(access.CapBilling, r.ApartmentID.String()) {
			visible = append(visible, r)
		}
	}
	return visible
}

// Rows returns the raw rows of the window
func (s *ReportService) Rows(ctx context.Context, in ReportInput) ([]billing.BillRow, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ReportService", "Rows",
		telemetry.WithAttribute(telemetry.SpanAttrCompanyID, in.CompanyID.String()))
	defer span.End()

	f, err := s.load(ctx, in, false)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrRows, len(f.rows))
	return f.rows, nil
}

// Summary aggregates the window under the active schedule
func (s *ReportService) Summary(ctx context.Context, in ReportInput) (*ReportResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ReportService", "Summary",
		telemetry.WithAttribute(telemetry.SpanAttrCompanyID, in.CompanyID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrReportStart, in.From.Format(time.DateOnly)),
		telemetry.WithAttribute(telemetry.SpanAttrReportEnd, in.To.Format(time.DateOnly)))
	defer span.End()

	f, err := s.load(ctx, in, true)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	views, err := billing.Aggregate(f.rows, f.schedule, s.config.Currency)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	sorted := billing.SortedViews(views)
	if err := s.checkUnmatched(in.CompanyID, sorted); err != nil {
		return nil, err
	}
	summary, err := billing.Summarize(sorted, s.config.Currency)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordBillGroups(ctx, len(sorted))
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrRows, len(f.rows),
		telemetry.SpanAttrGroups, len(sorted))

	return &ReportResult{
		Views:    sorted,
		Summary:  summary,
		Schedule: f.schedule,
		RowCount: len(f.rows),
	}, nil
}

func (s *ReportService) checkUnmatched(companyID uuid.UUID, views []billing.AggregatedBillView) error {
	verr := shared.NewValidationError()
	for _, v := range views {
		if !v.UnmatchedType {
			continue
		}
		if s.config.RejectUnmatchedTypes {
			verr.Add("schedule", "no fixed rate for the apartment type of "+v.ApartmentLabel)
			continue
		}
		s.logger.Warn("Fixed table has no rate for apartment type, base cost is zero",
			zap.String("company_id", companyID.String()),
			zap.String("apartment", v.ApartmentLabel),
			zap.String("bill", v.BillName))
	}
	return verr.OrNil()
}
