package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	accessapp "github.com/society/backend/internal/application/access"
	billingapp "github.com/society/backend/internal/application/billing"
	identityapp "github.com/society/backend/internal/application/identity"
	maintenanceapp "github.com/society/backend/internal/application/maintenance"
	societyapp "github.com/society/backend/internal/application/society"
	"github.com/society/backend/internal/domain/access"
	"github.com/society/backend/internal/domain/billing"
	"github.com/society/backend/internal/domain/identity"
	"github.com/society/backend/internal/domain/shared/valueobject"
	"github.com/society/backend/internal/infrastructure/auth"
	"github.com/society/backend/internal/infrastructure/cache"
	"github.com/society/backend/internal/infrastructure/config"
	"github.com/society/backend/internal/infrastructure/event"
	"github.com/society/backend/internal/infrastructure/persistence"
	"github.com/society/backend/internal/infrastructure/remote"
	"github.com/society/backend/internal/interfaces/console"
	"github.com/society/backend/internal/interfaces/http/dto"
	"github.com/society/backend/internal/interfaces/http/handler"
	"github.com/society/backend/internal/interfaces/http/middleware"
	"github.com/society/backend/internal/interfaces/http/router"
	"github.com/society/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testPassword = "correct-horse"

// consoleStack is the console API wired the way cmd/server wires it, minus
// telemetry, Redis and statements.
type consoleStack struct {
	engine *gin.Engine
	db     *gorm.DB
	bills  *persistence.GormBillRepository
	users  *persistence.GormUserRepository
	roles  *persistence.GormRoleRepository
}

func newConsoleStack(t *testing.T, tdb *TestDB) *consoleStack {
	t.Helper()
	log := zap.NewNop()
	db := tdb.DB

	userRepo := persistence.NewGormUserRepository(db)
	roleRepo := persistence.NewGormRoleRepository(db)
	typeRepo := persistence.NewGormApartmentTypeRepository(db)
	apartmentRepo := persistence.NewGormApartmentRepository(db)
	scheduleRepo := persistence.NewGormScheduleRepository(db)
	billRepo := persistence.NewGormBillRepository(db)
	paymentRepo := persistence.NewGormPaymentRepository(db)

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "integration-secret-at-least-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "integration",
		MaxRefreshCount:        3,
	})
	blacklist := auth.NewInMemoryTokenBlacklist()
	permissionCache := cache.NewPermissionCache(nil, time.Minute, log)
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewGrantsChangedHandler(roleRepo, permissionCache, blacklist, time.Hour, log))

	guard := accessapp.NewGuard(access.DefaultFallbackPolicy(), log)
	permissionService := accessapp.NewPermissionService(roleRepo, permissionCache, eventBus, log)
	authService := identityapp.NewAuthService(userRepo, permissionService, permissionCache, jwtService, blacklist,
		identityapp.AuthServiceConfig{MaxLoginAttempts: 5, LockDuration: time.Minute}, log)
	apartmentService := societyapp.NewApartmentService(typeRepo, apartmentRepo, log)
	scheduleService := maintenanceapp.NewScheduleService(scheduleRepo, typeRepo, eventBus, valueobject.INR, log)
	reportService := billingapp.NewReportService(billRepo, scheduleService, permissionService, guard, nil,
		billingapp.ReportServiceConfig{Currency: valueobject.INR, MaxReportDays: 366}, log)
	paymentService := billingapp.NewPaymentService(billRepo, paymentRepo, guard, eventBus, valueobject.INR, log)

	middleware.SetupValidator()
	engine := gin.New()
	engine.Use(middleware.RequestID())

	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.TokenBlacklist = blacklist

	r := router.NewRouter(engine)
	router.ConsoleAPI(r, router.Handlers{
		Auth:        handler.NewAuthHandler(authService),
		Apartments:  handler.NewApartmentHandler(apartmentService),
		Maintenance: handler.NewMaintenanceHandler(scheduleService),
		Reports:     handler.NewReportHandler(reportService),
		Bills:       handler.NewBillHandler(paymentService, nil, valueobject.INR),
		Roles:       handler.NewRoleHandler(permissionService),
		System:      handler.NewSystemHandler("integration", nil),
	}, router.APIConfig{
		JWT:         jwtConfig,
		Permissions: permissionService,
		Guard:       guard,
	})
	r.Setup()

	return &consoleStack{engine: engine, db: db, bills: billRepo, users: userRepo, roles: roleRepo}
}

// seedUser creates a user holding one role with grants
func (s *consoleStack) seedUser(t *testing.T, companyID uuid.UUID, username string, grants ...access.Grant) *identity.User {
	t.Helper()
	ctx := context.Background()

	role, err := access.NewRole(companyID, username+"-role", "")
	require.NoError(t, err)
	require.NoError(t, role.ReplaceGrants(grants))
	require.NoError(t, s.roles.Save(ctx, role))

	user, err := identity.NewUser(companyID, username, testPassword)
	require.NoError(t, err)
	require.NoError(t, user.AssignRole(role.ID))
	require.NoError(t, s.users.Create(ctx, user))
	return user
}

func (s *consoleStack) login(t *testing.T, username string) string {
	t.Helper()
	w := testutil.Request(t, s.engine, http.MethodPost, "/api/v1/auth/login", "",
		dto.LoginRequest{Username: username, Password: testPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return testutil.DecodeData[dto.LoginResponse](t, w).Token.AccessToken
}

func inr(s string) valueobject.Money { return valueobject.MustMoney(s, valueobject.INR) }

func TestConsoleFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewTestDB(t)
	stack := newConsoleStack(t, tdb)
	ctx := testutil.ContextWithTimeout(t, 2*time.Minute)
	companyID := testutil.TestCompanyID()

	stack.seedUser(t, companyID, "secretary",
		access.Grant{Capability: access.CapCompany},
		access.Grant{Capability: access.CapStaff},
		access.Grant{Capability: access.CapBilling})
	stack.seedUser(t, companyID, "resident", access.Grant{Capability: access.CapResident})

	token := stack.login(t, "secretary")

	// permissions
	w := testutil.Request(t, stack.engine, http.MethodGet, "/api/v1/permissions", token, nil)
	perms := testutil.DecodeData[map[string]any](t, w)
	assert.Equal(t, true, perms["hasBillingPermission"])
	assert.Equal(t, true, perms["isCompany"])

	// apartment type and apartment
	w = testutil.Request(t, stack.engine, http.MethodPost, "/api/v1/apartment-types", token,
		dto.CreateApartmentTypeRequest{Name: "2BHK"})
	typ := testutil.DecodeData[dto.ApartmentTypeResponse](t, w)

	w = testutil.Request(t, stack.engine, http.MethodPost, "/api/v1/apartments", token,
		dto.CreateApartmentRequest{Number: "101", Tower: "A", Floor: 1, ApartmentTypeID: typ.ID.String()})
	apt := testutil.DecodeData[dto.ApartmentResponse](t, w)
	assert.Equal(t, "A-101", apt.Label)

	// fixed table schedule
	w = testutil.Request(t, stack.engine, http.MethodPost, "/api/v1/maintenance-setting/1", token,
		map[string]any{"unit_data": []dto.FixedRateData{{ApartmentType: typ.ID, UnitValue: "1000"}}})
	saved := testutil.DecodeData[dto.ScheduleResponse](t, w)
	assert.Equal(t, dto.ScheduleActive, saved.Status)

	// bills are issued outside the console API
	april := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	def, err := billing.NewBillDefinition(companyID, "April maintenance", billing.CategoryMaintenance,
		april, april.AddDate(0, 1, -1), april.AddDate(0, 0, 10))
	require.NoError(t, err)
	_, err = def.AddCost("Lift repair", inr("250"))
	require.NoError(t, err)
	require.NoError(t, stack.bills.SaveDefinition(ctx, def))
	rec := billing.NewBillRecord(companyID, def.ID, apt.ID)
	require.NoError(t, stack.bills.SaveRecord(ctx, rec))

	paymentsPath := fmt.Sprintf("/api/v1/bills/%s/payments", rec.ID)
	summaryPath := "/api/v1/billing/summary/2026-04-01/2026-04-30/maintenance"

	w = testutil.Request(t, stack.engine, http.MethodPost, paymentsPath, token,
		dto.RecordPaymentRequest{Amount: "600", Method: "upi"})
	first := testutil.DecodeData[dto.RecordPaymentResponse](t, w)
	assert.Equal(t, "600.00", first.Sum)

	w = testutil.Request(t, stack.engine, http.MethodGet, summaryPath, token, nil)
	summary := testutil.DecodeData[dto.SummaryResponse](t, w)
	require.Len(t, summary.Views, 1)
	assert.Equal(t, "1250.00", summary.Views[0].TotalCost)
	assert.Equal(t, string(billing.StatusUnpaid), summary.Views[0].Status)
	assert.Equal(t, "650.00", summary.Outstanding)

	w = testutil.Request(t, stack.engine, http.MethodPost, paymentsPath, token,
		dto.RecordPaymentRequest{Amount: "650", Method: "cash"})
	second := testutil.DecodeData[dto.RecordPaymentResponse](t, w)
	assert.Equal(t, "1250.00", second.Sum)

	w = testutil.Request(t, stack.engine, http.MethodGet, summaryPath, token, nil)
	summary = testutil.DecodeData[dto.SummaryResponse](t, w)
	assert.Equal(t, 1, summary.Paid)
	assert.Equal(t, 0, summary.Unpaid)
	assert.Equal(t, "0.00", summary.Outstanding)

	w = testutil.Request(t, stack.engine, http.MethodGet, paymentsPath, token, nil)
	ledger := testutil.DecodeData[dto.LedgerResponse](t, w)
	assert.Len(t, ledger.Entries, 2)
	assert.Equal(t, "1250.00", ledger.Sum)

	// a resident is sent to their dashboard
	residentToken := stack.login(t, "resident")
	w = testutil.Request(t, stack.engine, http.MethodGet, summaryPath, residentToken, nil)
	info := testutil.AssertErrorResponse(t, w, http.StatusForbidden, dto.ErrCodeForbidden)
	require.NotNil(t, info.Details)
	assert.Equal(t, string(access.TargetResidentDashboard), info.Details.Redirect)

	w = testutil.Request(t, stack.engine, http.MethodPost, paymentsPath, residentToken,
		dto.RecordPaymentRequest{Amount: "1", Method: "upi"})
	testutil.AssertErrorResponse(t, w, http.StatusForbidden, dto.ErrCodeForbidden)
}

func TestConsoleSession_AgainstServer(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewTestDB(t)
	stack := newConsoleStack(t, tdb)
	ctx := testutil.ContextWithTimeout(t, 2*time.Minute)
	companyID := testutil.TestCompanyID()

	stack.seedUser(t, companyID, "treasurer",
		access.Grant{Capability: access.CapStaff},
		access.Grant{Capability: access.CapBilling})
	stack.seedUser(t, companyID, "guard", access.Grant{Capability: access.CapStaff})

	srv := httptest.NewServer(stack.engine)
	t.Cleanup(srv.Close)

	newSession := func() *console.Session {
		client := remote.NewClient(config.RemoteConfig{BaseURL: srv.URL + "/api/v1", Timeout: 10 * time.Second},
			remote.WithHTTPClient(srv.Client()))
		return console.NewSession(client, accessapp.NewGuard(access.DefaultFallbackPolicy(), nil), valueobject.INR, nil)
	}

	treasurer := newSession()
	_, err := treasurer.Login(ctx, "treasurer", testPassword)
	require.NoError(t, err)

	saved, err := treasurer.SaveUnitRate(ctx, "flat", "1500")
	require.NoError(t, err)
	assert.Equal(t, dto.ScheduleActive, saved.Status)

	list, err := treasurer.Schedules(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, list)

	rep, err := treasurer.Report(ctx, console.ReportQuery{
		From:     time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC),
		Category: billing.CategoryAll,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, rep.RowCount)
	require.NotNil(t, rep.Schedule)

	guardSession := newSession()
	_, err = guardSession.Login(ctx, "guard", testPassword)
	require.NoError(t, err)
	_, err = guardSession.SaveUnitRate(ctx, "flat", "1")
	assert.Equal(t, console.ExitDenied, console.ExitCode(err))

	d, err := guardSession.Check(ctx, access.Require(access.CapStaff))
	require.NoError(t, err)
	assert.True(t, d.Allowed())
}
