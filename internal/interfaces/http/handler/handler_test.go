package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appbilling "github.com/society/backend/internal/application/billing"
	"github.com/society/backend/internal/application/identity"
	appsociety "github.com/society/backend/internal/application/society"
	"github.com/society/backend/internal/domain/access"
	"github.com/society/backend/internal/domain/billing"
	"github.com/society/backend/internal/domain/maintenance"
	"github.com/society/backend/internal/domain/shared"
	"github.com/society/backend/internal/domain/society"
	"github.com/society/backend/internal/infrastructure/auth"
	"github.com/society/backend/internal/interfaces/http/dto"
	"github.com/society/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

var (
	testCompanyID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	testUserID    = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

// asCaller stands in for the JWT middleware
func asCaller(c *gin.Context) {
	c.Set(middleware.JWTCompanyIDKey, testCompanyID.String())
	c.Set(middleware.JWTUserIDKey, testUserID.String())
	c.Set(middleware.RequestIDKey, "req-1")
	c.Next()
}

func newRouter() *gin.Engine {
	r := gin.New()
	r.Use(asCaller)
	return r
}

func do(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	env := decode(t, rec)
	require.True(t, env.Success, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func fieldNames(info *dto.ErrorInfo) []string {
	if info == nil || info.Details == nil {
		return nil
	}
	out := make([]string, 0, len(info.Details.Fields))
	for _, f := range info.Details.Fields {
		out = append(out, f.Field)
	}
	return out
}

type mockAuth struct {
	mock.Mock
}

func (m *mockAuth) Login(ctx context.Context, input identity.LoginInput) (*identity.LoginResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.LoginResult), args.Error(1)
}

func (m *mockAuth) RefreshToken(ctx context.Context, input identity.RefreshTokenInput) (*auth.TokenPair, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.TokenPair), args.Error(1)
}

func (m *mockAuth) Logout(ctx context.Context, input identity.LogoutInput) error {
	return m.Called(ctx, input).Error(0)
}

func (m *mockAuth) Permissions(ctx context.Context, userID uuid.UUID) (*access.PermissionMap, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*access.PermissionMap), args.Error(1)
}

type mockApartments struct {
	mock.Mock
}

func (m *mockApartments) ListTypes(ctx context.Context, companyID uuid.UUID) ([]society.ApartmentType, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]society.ApartmentType), args.Error(1)
}

func (m *mockApartments) CreateType(ctx context.Context, companyID uuid.UUID, name string) (*society.ApartmentType, error) {
	args := m.Called(ctx, companyID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*society.ApartmentType), args.Error(1)
}

func (m *mockApartments) ListApartments(ctx context.Context, companyID uuid.UUID, filter shared.Filter) (*appsociety.ApartmentPage, error) {
	args := m.Called(ctx, companyID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appsociety.ApartmentPage), args.Error(1)
}

func (m *mockApartments) CreateApartment(ctx context.Context, companyID uuid.UUID, in appsociety.CreateApartmentInput) (*society.Apartment, error) {
	args := m.Called(ctx, companyID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*society.Apartment), args.Error(1)
}

type mockSchedules struct {
	mock.Mock
}

func (m *mockSchedules) List(ctx context.Context, companyID uuid.UUID) ([]*maintenance.CostSchedule, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*maintenance.CostSchedule), args.Error(1)
}

func (m *mockSchedules) SwitchMode(ctx context.Context, companyID uuid.UUID, ct maintenance.CostType) (*maintenance.CostSchedule, error) {
	args := m.Called(ctx, companyID, ct)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*maintenance.CostSchedule), args.Error(1)
}

func (m *mockSchedules) Update(ctx context.Context, companyID uuid.UUID, update maintenance.ScheduleUpdate) (*maintenance.CostSchedule, error) {
	args := m.Called(ctx, companyID, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*maintenance.CostSchedule), args.Error(1)
}

type mockReports struct {
	mock.Mock
}

func (m *mockReports) Rows(ctx context.Context, in appbilling.ReportInput) ([]billing.BillRow, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.BillRow), args.Error(1)
}

func (m *mockReports) Summary(ctx context.Context, in appbilling.ReportInput) (*appbilling.ReportResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appbilling.ReportResult), args.Error(1)
}

type mockPayments struct {
	mock.Mock
}

func (m *mockPayments) Record(ctx context.Context, companyID, billRecordID uuid.UUID, in billing.PaymentInput) (*appbilling.PaymentResult, error) {
	args := m.Called(ctx, companyID, billRecordID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appbilling.PaymentResult), args.Error(1)
}

func (m *mockPayments) Ledger(ctx context.Context, companyID, billRecordID uuid.UUID) (*billing.PaymentLedger, error) {
	args := m.Called(ctx, companyID, billRecordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.PaymentLedger), args.Error(1)
}

type mockStatements struct {
	mock.Mock
}

func (m *mockStatements) Generate(ctx context.Context, companyID, billRecordID uuid.UUID) (*appbilling.StatementResult, error) {
	args := m.Called(ctx, companyID, billRecordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appbilling.StatementResult), args.Error(1)
}

type mockGrants struct {
	mock.Mock
}

func (m *mockGrants) ReplaceGrants(ctx context.Context, companyID, roleID uuid.UUID, grants []access.Grant) (*access.Role, error) {
	args := m.Called(ctx, companyID, roleID, grants)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*access.Role), args.Error(1)
}
