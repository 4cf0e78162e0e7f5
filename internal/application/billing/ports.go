// Package billing runs the bill report, records payments and produces bill
// statements.
package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/access"
	"github.com/society/backend/internal/domain/billing"
	"github.com/society/backend/internal/domain/maintenance"
)

// PermissionResolver builds the map of a user
type PermissionResolver interface {
	ResolveForUser(ctx context.Context, userID uuid.UUID) (*access.PermissionMap, error)
}

// ActiveSchedule returns the active cost schedule of a company, nil if none
type ActiveSchedule interface {
	Active(ctx context.Context, companyID uuid.UUID) (*maintenance.CostSchedule, error)
}

// BillGroupRecorder counts aggregated groups
type BillGroupRecorder interface {
	RecordBillGroups(ctx context.Context, n int)
}

// ObjectStorage keeps rendered statements
type ObjectStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	// DownloadURL returns a time-limited URL for key and its expiry
	DownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
}

// Statement is everything printed on one bill statement
type Statement struct {
	CompanyID       uuid.UUID
	View            billing.AggregatedBillView
	CostType        maintenance.CostType
	UnitName        string
	AdditionalCosts []billing.AdditionalCostItem
	Payments        []billing.PaymentRecord
	GeneratedAt     time.Time
}

// StatementRenderer turns a statement into a PDF document
type StatementRenderer interface {
	Render(ctx context.Context, st Statement) ([]byte, error)
}
