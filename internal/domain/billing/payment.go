package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/shared"
	"github.com/society/backend/internal/domain/shared/valueobject"
)

// EventTypePaymentRecorded is published after a payment entry is appended
const EventTypePaymentRecorded = "billing.payment_recorded"

// PaymentRecord is an immutable payment entry against a bill record.
// A negative amount is a reversal of earlier payments.
type PaymentRecord struct {
	ID           uuid.UUID
	CompanyID    uuid.UUID
	BillRecordID uuid.UUID
	Amount       valueobject.Money
	Method       string
	Reference    string
	Reason       string
	PaidAt       time.Time
	RecordedBy   *uuid.UUID
	CreatedAt    time.Time
}

// PaymentInput carries the fields of a new payment entry
type PaymentInput struct {
	Amount     valueobject.Money
	Method     string
	Reference  string
	Reason     string
	PaidAt     time.Time
	RecordedBy *uuid.UUID
}

// NewPaymentRecord validates the input and creates an entry for the bill
func NewPaymentRecord(companyID, billRecordID uuid.UUID, in PaymentInput) (PaymentRecord, error) {
	verr := shared.NewValidationError()
	if in.Amount.IsZero() {
		verr.Add("amount", "amount cannot be zero")
	}
	if in.Amount.IsNegative() && strings.TrimSpace(in.Reason) == "" {
		verr.Add("reason", "a reversal requires a reason")
	}
	if err := verr.OrNil(); err != nil {
		return PaymentRecord{}, err
	}

	now := time.Now()
	paidAt := in.PaidAt
	if paidAt.IsZero() {
		paidAt = now
	}
	return PaymentRecord{
		ID:           uuid.New(),
		CompanyID:    companyID,
		BillRecordID: billRecordID,
		Amount:       in.Amount,
		Method:       strings.TrimSpace(in.Method),
		Reference:    strings.TrimSpace(in.Reference),
		Reason:       strings.TrimSpace(in.Reason),
		PaidAt:       paidAt,
		RecordedBy:   in.RecordedBy,
		CreatedAt:    now,
	}, nil
}

// IsReversal reports whether the entry corrects earlier payments
func (p PaymentRecord) IsReversal() bool {
	return p.Amount.IsNegative()
}

// PaymentRecordedEvent is published for every appended entry
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	PaymentID uuid.UUID `json:"payment_id"`
	Amount    string    `json:"amount"`
	Reversal  bool      `json:"reversal"`
}

// NewPaymentRecordedEvent creates the event for an appended entry
func NewPaymentRecordedEvent(p PaymentRecord) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, p.BillRecordID, p.CompanyID),
		PaymentID:       p.ID,
		Amount:          p.Amount.Amount().String(),
		Reversal:        p.IsReversal(),
	}
}
