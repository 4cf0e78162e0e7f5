// Package console implements the operator CLI. It consumes the console API
// through the remote client and gates every screen and mutation with the
// same guard the server uses.
package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	accessapp "github.com/society/backend/internal/application/access"
	billingapp "github.com/society/backend/internal/application/billing"
	"github.com/society/backend/internal/domain/access"
	"github.com/society/backend/internal/domain/billing"
	"github.com/society/backend/internal/domain/maintenance"
	"github.com/society/backend/internal/domain/shared/valueobject"
	"github.com/society/backend/internal/infrastructure/remote"
	"github.com/society/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Client is the part of remote.Client a session uses
type Client interface {
	accessapp.Fetcher
	Login(ctx context.Context, username, password string) (*dto.LoginResponse, error)
	Schedules(ctx context.Context) ([]dto.ScheduleResponse, error)
	SaveSchedule(ctx context.Context, req dto.SaveScheduleRequest) (*dto.ScheduleResponse, error)
	ReportRows(ctx context.Context, start, end time.Time, category billing.Category) ([]dto.ReportRow, error)
}

var _ Client = (*remote.Client)(nil)

// Session is one signed-in identity with its permission store
type Session struct {
	client   Client
	store    *accessapp.PermissionStore
	guard    *accessapp.Guard
	currency valueobject.Currency
	logger   *zap.Logger
}

// NewSession creates a session. The permission store starts empty, so every
// check denies until the first resolution.
func NewSession(client Client, guard *accessapp.Guard, currency valueobject.Currency, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	return &Session{
		client:   client,
		store:    accessapp.NewPermissionStore(client, logger),
		guard:    guard,
		currency: currency,
		logger:   logger,
	}
}

// Store exposes the session's permission store
func (s *Session) Store() *accessapp.PermissionStore {
	return s.store
}

// Login signs in and installs the permission map returned with the tokens
func (s *Session) Login(ctx context.Context, username, password string) (*dto.LoginResponse, error) {
	resp, err := s.client.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if resp.Permissions != nil {
		s.store.Replace(resp.Permissions)
	}
	return resp, nil
}

// Permissions re-resolves and returns the caller's map
func (s *Session) Permissions(ctx context.Context) (*access.PermissionMap, error) {
	return s.store.Resolve(ctx)
}

// Check resolves the map and evaluates req against it. A failed resolution
// leaves no map, so the decision is DeniedUnauthorized; the resolution error
// is returned alongside it.
func (s *Session) Check(ctx context.Context, req access.Requirement) (access.Decision, error) {
	m, err := s.store.Resolve(ctx)
	return s.guard.Check(ctx, m, req), err
}

// Watch re-resolves every interval and reports each decision on req until
// ctx is done. The first decision is reported before the first tick.
func (s *Session) Watch(ctx context.Context, req access.Requirement, interval time.Duration, fn func(access.Decision)) error {
	if _, err := s.store.Resolve(ctx); err != nil {
		s.logger.Warn("Initial permission resolution failed", zap.Error(err))
	}
	stop := s.guard.Watch(ctx, s.store, req, fn)
	defer stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.store.Resolve(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("Permission resolution failed", zap.Error(err))
			}
		}
	}
}

// require is the hard gate in front of mutations
func (s *Session) require(ctx context.Context, c access.Capability) error {
	d, err := s.Check(ctx, access.Require(c))
	if err != nil {
		s.logger.Debug("Permission resolution failed before gate", zap.Error(err))
	}
	return accessapp.Enforce(d)
}

// Schedules returns both schedule variants
func (s *Session) Schedules(ctx context.Context) ([]dto.ScheduleResponse, error) {
	if err := s.require(ctx, access.CapBilling); err != nil {
		return nil, err
	}
	return s.client.Schedules(ctx)
}

// SaveFixedTable stores a fixed table and makes it active
func (s *Session) SaveFixedTable(ctx context.Context, rates []dto.FixedRateData) (*dto.ScheduleResponse, error) {
	return s.saveSchedule(ctx, maintenance.FixedTable, rates)
}

// SaveUnitRate stores a unit rate and makes it active
func (s *Session) SaveUnitRate(ctx context.Context, unitName, unitValue string) (*dto.ScheduleResponse, error) {
	return s.saveSchedule(ctx, maintenance.UnitRate, dto.UnitTypeData{UnitName: unitName, UnitValue: unitValue})
}

func (s *Session) saveSchedule(ctx context.Context, ct maintenance.CostType, data any) (*dto.ScheduleResponse, error) {
	if err := s.require(ctx, access.CapBilling); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode schedule: %w", err)
	}
	return s.client.SaveSchedule(ctx, dto.SaveScheduleRequest{CostType: string(ct), UnitData: raw})
}

// ReportQuery selects the bill rows of a report
type ReportQuery struct {
	From     time.Time
	To       time.Time
	Category billing.Category
}

// Report is the aggregated settlement of a window
type Report struct {
	Query    ReportQuery
	Views    []billing.AggregatedBillView
	Summary  billing.Summary
	Schedule *maintenance.CostSchedule
	RowCount int
}

// Report resolves permissions while the rows and schedules are fetched. The
// guard decision waits for the permission map only; a denial cancels the
// fetch and nothing is aggregated. A list-valued billing grant limits the
// report to the listed apartments.
func (s *Session) Report(ctx context.Context, q ReportQuery) (*Report, error) {
	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		rows      []dto.ReportRow
		schedules []dto.ScheduleResponse
	)
	g, gctx := errgroup.WithContext(fetchCtx)
	g.Go(func() error {
		var err error
		rows, err = s.client.ReportRows(gctx, q.From, q.To, q.Category)
		return err
	})
	g.Go(func() error {
		var err error
		schedules, err = s.client.Schedules(gctx)
		return err
	})

	m, resolveErr := s.store.Resolve(ctx)
	d := s.guard.Check(ctx, m, access.Require(access.CapBilling))
	if !d.Allowed() {
		cancel()
		_ = g.Wait()
		if resolveErr != nil {
			s.logger.Debug("Report denied after failed resolution", zap.Error(resolveErr))
		}
		return nil, &accessapp.DeniedError{Decision: d}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	schedule, err := activeSchedule(schedules)
	if err != nil {
		return nil, err
	}
	billRows := make([]billing.BillRow, 0, len(rows))
	for _, r := range rows {
		row, err := r.ToRow(s.currency)
		if err != nil {
			return nil, fmt.Errorf("row %s: %w", r.BillRecordID, err)
		}
		billRows = append(billRows, row)
	}
	billRows = billingapp.ScopeRows(m, billRows)

	grouped, err := billing.Aggregate(billRows, schedule, s.currency)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	views := billing.SortedViews(grouped)
	summary, err := billing.Summarize(views, s.currency)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	return &Report{Query: q, Views: views, Summary: summary, Schedule: schedule, RowCount: len(billRows)}, nil
}

// activeSchedule picks the active variant, nil when none is
func activeSchedule(list []dto.ScheduleResponse) (*maintenance.CostSchedule, error) {
	for _, sr := range list {
		if sr.Status != dto.ScheduleActive {
			continue
		}
		sched, err := sr.ToSchedule(uuid.Nil)
		if err != nil {
			return nil, fmt.Errorf("schedule %s: %w", sr.ID, err)
		}
		return sched, nil
	}
	return nil, nil
}

// Exit codes of the console
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitDenied  = 3
)

// ExitCode maps a command error to the process exit code
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var denied *accessapp.DeniedError
	if errors.As(err, &denied) {
		return ExitDenied
	}
	var rerr *remote.Error
	if errors.As(err, &rerr) && (rerr.Kind == remote.KindUnauthorized || rerr.Kind == remote.KindUnauthenticated) {
		return ExitDenied
	}
	return ExitFailure
}
