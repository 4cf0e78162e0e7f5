package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	accessapp "github.com/society/backend/internal/application/access"
	"github.com/society/backend/internal/domain/access"
	"github.com/society/backend/internal/domain/billing"
	"github.com/society/backend/internal/domain/shared"
	"github.com/society/backend/internal/domain/shared/valueobject"
	"github.com/society/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// PaymentResult is an appended entry and the ledger total after it
type PaymentResult struct {
	Record billing.PaymentRecord
	Sum    valueobject.Money
}

// PaymentService appends payments and reversals to a bill's ledger
type PaymentService struct {
	bills     billing.BillRepository
	payments  billing.PaymentRepository
	guard     *accessapp.Guard
	publisher shared.EventPublisher
	currency  valueobject.Currency
	logger    *zap.Logger
}

// NewPaymentService creates the service. publisher may be nil.
func NewPaymentService(
	bills billing.BillRepository,
	payments billing.PaymentRepository,
	guard *accessapp.Guard,
	publisher shared.EventPublisher,
	currency valueobject.Currency,
	logger *zap.Logger,
) *PaymentService {
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	return &PaymentService{
		bills:     bills,
		payments:  payments,
		guard:     guard,
		publisher: publisher,
		currency:  currency,
		logger:    logger,
	}
}

// authorize loads the bill and checks billing rights on its apartment
func (s *PaymentService) authorize(ctx context.Context, companyID, billRecordID uuid.UUID) (*billing.BillRecord, error) {
	rec, err := s.bills.FindRecord(ctx, companyID, billRecordID)
	if err != nil {
		return nil, fmt.Errorf("bill %s: %w", billRecordID, err)
	}
	req := access.Require(access.CapBilling).On(rec.ApartmentID.String())
	if err := accessapp.Enforce(s.guard.CheckContext(ctx, req)); err != nil {
		return nil, err
	}
	return rec, nil
}

// Ledger returns the ledger of a bill record
func (s *PaymentService) Ledger(ctx context.Context, companyID, billRecordID uuid.UUID) (*billing.PaymentLedger, error) {
	if _, err := s.authorize(ctx, companyID, billRecordID); err != nil {
		return nil, err
	}
	return s.ledger(ctx, billRecordID)
}

func (s *PaymentService) ledger(ctx context.Context, billRecordID uuid.UUID) (*billing.PaymentLedger, error) {
	existing, err := s.payments.FindByBill(ctx, billRecordID)
	if err != nil {
		return nil, fmt.Errorf("load payments: %w", err)
	}
	return billing.NewPaymentLedger(billRecordID, s.currency, existing...)
}

// Record appends a payment, or a reversal when the amount is negative
func (s *PaymentService) Record(ctx context.Context, companyID, billRecordID uuid.UUID, in billing.PaymentInput) (*PaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "PaymentService", "Record",
		telemetry.WithAttribute(telemetry.SpanAttrCompanyID, companyID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrBillID, billRecordID.String()))
	defer span.End()

	if _, err := s.authorize(ctx, companyID, billRecordID); err != nil {
		return nil, err
	}
	if !in.Amount.IsZero() && in.Amount.Currency() != s.currency {
		return nil, shared.NewValidationError(shared.FieldError{Field: "amount", Message: "currency must be " + string(s.currency)})
	}

	ledger, err := s.ledger(ctx, billRecordID)
	if err != nil {
		return nil, err
	}
	entry, err := billing.NewPaymentRecord(companyID, billRecordID, in)
	if err != nil {
		return nil, err
	}
	if err := ledger.Append(entry); err != nil {
		return nil, err
	}
	if err := s.payments.Append(ctx, entry); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("append payment: %w", err)
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrPaymentID, entry.ID.String(),
		telemetry.SpanAttrAmount, entry.Amount.String())
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, billing.NewPaymentRecordedEvent(entry)); err != nil {
			s.logger.Error("Failed to publish payment event", zap.Error(err))
		}
	}

	s.logger.Info("Payment recorded",
		zap.String("bill_id", billRecordID.String()),
		zap.String("payment_id", entry.ID.String()),
		zap.String("amount", entry.Amount.String()),
		zap.Bool("reversal", entry.IsReversal()))
	return &PaymentResult{Record: entry, Sum: ledger.Sum()}, nil
}
