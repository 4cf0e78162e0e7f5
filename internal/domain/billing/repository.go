package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ReportQuery selects bill rows whose definition period starts in [Start, End).
// Callers pass End as the day after the last reported day.
type ReportQuery struct {
	CompanyID uuid.UUID
	Start     time.Time
	End       time.Time
	Category  Category
}

// BillRepository persists bill definitions and records
type BillRepository interface {
	SaveDefinition(ctx context.Context, def *BillDefinition) error
	SaveRecord(ctx context.Context, rec *BillRecord) error
	FindRecord(ctx context.Context, companyID, id uuid.UUID) (*BillRecord, error)
	// FindRows returns the raw rows of the report window, payments included
	FindRows(ctx context.Context, q ReportQuery) ([]BillRow, error)
	// FindGroupRows returns the rows of one bill definition and apartment
	FindGroupRows(ctx context.Context, companyID uuid.UUID, key GroupKey) ([]BillRow, error)
}

// PaymentRepository stores payment entries. It has no update or delete path.
type PaymentRepository interface {
	FindByBill(ctx context.Context, billRecordID uuid.UUID) ([]PaymentRecord, error)
	Append(ctx context.Context, rec PaymentRecord) error
}
