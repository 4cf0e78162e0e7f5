package billing

import (
	"slices"

	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/shared"
	"github.com/society/backend/internal/domain/shared/valueobject"
)

// PaymentLedger is the append-only list of payment entries of one bill record.
// Entries are never edited or removed; corrections are appended as reversals.
type PaymentLedger struct {
	billRecordID uuid.UUID
	currency     valueobject.Currency
	entries      []PaymentRecord
	total        valueobject.Money
}

// NewPaymentLedger rebuilds a ledger from stored entries
func NewPaymentLedger(billRecordID uuid.UUID, currency valueobject.Currency, existing ...PaymentRecord) (*PaymentLedger, error) {
	l := &PaymentLedger{
		billRecordID: billRecordID,
		currency:     currency,
		total:        valueobject.Zero(currency),
	}
	for _, e := range existing {
		if err := l.add(e); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Append adds an entry. A reversal may not take the ledger below zero.
func (l *PaymentLedger) Append(rec PaymentRecord) error {
	if rec.BillRecordID != l.billRecordID {
		return shared.NewDomainError("LEDGER_MISMATCH", "payment belongs to a different bill")
	}
	if rec.IsReversal() {
		after, err := l.total.Add(rec.Amount)
		if err != nil {
			return err
		}
		if after.IsNegative() {
			return shared.NewValidationError(shared.FieldError{Field: "amount", Message: "reversal exceeds recorded payments"})
		}
	}
	return l.add(rec)
}

func (l *PaymentLedger) add(rec PaymentRecord) error {
	total, err := l.total.Add(rec.Amount)
	if err != nil {
		return err
	}
	l.entries = append(l.entries, rec)
	l.total = total
	return nil
}

// Sum returns the net amount paid, reversals included
func (l *PaymentLedger) Sum() valueobject.Money {
	return l.total
}

// Entries returns a copy of the entries in append order
func (l *PaymentLedger) Entries() []PaymentRecord {
	return slices.Clone(l.entries)
}

// Len returns the number of entries
func (l *PaymentLedger) Len() int {
	return len(l.entries)
}
