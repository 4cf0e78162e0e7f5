package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/billing"
	"github.com/society/backend/internal/domain/shared"
	"github.com/society/backend/internal/domain/shared/valueobject"
)

// CostItemData is one additional cost of a bill
type CostItemData struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Amount string    `json:"amount"`
}

// PaymentData is one payment entry
type PaymentData struct {
	ID           uuid.UUID `json:"id"`
	BillRecordID uuid.UUID `json:"bill_record_id"`
	Amount       string    `json:"amount"`
	Method       string    `json:"method,omitempty"`
	Reference    string    `json:"reference,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	PaidAt       time.Time `json:"paid_at"`
	Reversal     bool      `json:"reversal"`
}

// NewPaymentData converts a payment entry
func NewPaymentData(p billing.PaymentRecord) PaymentData {
	return PaymentData{
		ID:           p.ID,
		BillRecordID: p.BillRecordID,
		Amount:       p.Amount.StringFixed(2),
		Method:       p.Method,
		Reference:    p.Reference,
		Reason:       p.Reason,
		PaidAt:       p.PaidAt,
		Reversal:     p.IsReversal(),
	}
}

// ReportRow is one raw row of GET /table/financial/report
type ReportRow struct {
	BillRecordID     uuid.UUID      `json:"bill_record_id"`
	BillDefinitionID uuid.UUID      `json:"bill_definition_id"`
	BillName         string         `json:"bill_name"`
	PeriodStart      time.Time      `json:"period_start"`
	ApartmentID      uuid.UUID      `json:"apartment_id"`
	ApartmentLabel   string         `json:"apartment_label"`
	ApartmentTypeID  uuid.UUID      `json:"apartment_type_id"`
	AdditionalCosts  []CostItemData `json:"additional_costs"`
	Payments         []PaymentData  `json:"payments"`
}

// NewReportRows converts bill rows
func NewReportRows(rows []billing.BillRow) []ReportRow {
	out := make([]ReportRow, 0, len(rows))
	for _, r := range rows {
		row := ReportRow{
			BillRecordID:     r.BillRecordID,
			BillDefinitionID: r.BillDefinitionID,
			BillName:         r.BillName,
			PeriodStart:      r.PeriodStart,
			ApartmentID:      r.ApartmentID,
			ApartmentLabel:   r.ApartmentLabel,
			ApartmentTypeID:  r.ApartmentTypeID,
			AdditionalCosts:  make([]CostItemData, 0, len(r.AdditionalCosts)),
			Payments:         make([]PaymentData, 0, len(r.Payments)),
		}
		for _, c := range r.AdditionalCosts {
			row.AdditionalCosts = append(row.AdditionalCosts, CostItemData{ID: c.ID, Name: c.Name, Amount: c.Amount.StringFixed(2)})
		}
		for _, p := range r.Payments {
			row.Payments = append(row.Payments, NewPaymentData(p))
		}
		out = append(out, row)
	}
	return out
}

// ToRow converts a served row back into a bill row
func (r ReportRow) ToRow(currency valueobject.Currency) (billing.BillRow, error) {
	row := billing.BillRow{
		BillRecordID:     r.BillRecordID,
		BillDefinitionID: r.BillDefinitionID,
		BillName:         r.BillName,
		PeriodStart:      r.PeriodStart,
		ApartmentID:      r.ApartmentID,
		ApartmentLabel:   r.ApartmentLabel,
		ApartmentTypeID:  r.ApartmentTypeID,
	}
	for _, c := range r.AdditionalCosts {
		m, err := valueobject.NewMoneyFromString(c.Amount, currency)
		if err != nil {
			return billing.BillRow{}, err
		}
		row.AdditionalCosts = append(row.AdditionalCosts, billing.AdditionalCostItem{ID: c.ID, Name: c.Name, Amount: m})
	}
	for _, p := range r.Payments {
		m, err := valueobject.NewMoneyFromString(p.Amount, currency)
		if err != nil {
			return billing.BillRow{}, err
		}
		row.Payments = append(row.Payments, billing.PaymentRecord{
			ID:           p.ID,
			BillRecordID: p.BillRecordID,
			Amount:       m,
			Method:       p.Method,
			Reference:    p.Reference,
			Reason:       p.Reason,
			PaidAt:       p.PaidAt,
		})
	}
	return row, nil
}

// BillViewResponse is one aggregated bill group
type BillViewResponse struct {
	BillDefinitionID uuid.UUID `json:"bill_definition_id"`
	ApartmentID      uuid.UUID `json:"apartment_id"`
	BillName         string    `json:"bill_name"`
	ApartmentLabel   string    `json:"apartment_label"`
	PeriodStart      time.Time `json:"period_start"`
	BaseCost         string    `json:"base_cost"`
	AdditionalCost   string    `json:"additional_cost"`
	TotalCost        string    `json:"total_cost"`
	PaidCost         string    `json:"paid_cost"`
	Outstanding      string    `json:"outstanding"`
	Status           string    `json:"status"`
	UnmatchedType    bool      `json:"unmatched_type,omitempty"`
	PaymentCount     int       `json:"payment_count"`
}

// NewBillViewResponse converts an aggregated view
func NewBillViewResponse(v billing.AggregatedBillView) BillViewResponse {
	return BillViewResponse{
		BillDefinitionID: v.Key.BillDefinitionID,
		ApartmentID:      v.Key.ApartmentID,
		BillName:         v.BillName,
		ApartmentLabel:   v.ApartmentLabel,
		PeriodStart:      v.PeriodStart,
		BaseCost:         v.BaseCost.StringFixed(2),
		AdditionalCost:   v.AdditionalCost.StringFixed(2),
		TotalCost:        v.TotalCost.StringFixed(2),
		PaidCost:         v.PaidCost.StringFixed(2),
		Outstanding:      v.Outstanding().StringFixed(2),
		Status:           string(v.Status),
		UnmatchedType:    v.UnmatchedType,
		PaymentCount:     v.PaymentCount,
	}
}

// SummaryResponse is the body of GET /billing/summary
type SummaryResponse struct {
	Views       []BillViewResponse `json:"views"`
	Groups      int                `json:"groups"`
	Paid        int                `json:"paid"`
	Unpaid      int                `json:"unpaid"`
	TotalCost   string             `json:"total_cost"`
	PaidCost    string             `json:"paid_cost"`
	Outstanding string             `json:"outstanding"`
	CostType    string             `json:"cost_type,omitempty"`
	RowCount    int                `json:"row_count"`
}

// NewSummaryResponse converts aggregated views and their summary
func NewSummaryResponse(views []billing.AggregatedBillView, s billing.Summary, costType string, rows int) SummaryResponse {
	resp := SummaryResponse{
		Views:       make([]BillViewResponse, 0, len(views)),
		Groups:      s.Groups,
		Paid:        s.Paid,
		Unpaid:      s.Unpaid,
		TotalCost:   s.TotalCost.StringFixed(2),
		PaidCost:    s.PaidCost.StringFixed(2),
		Outstanding: s.Outstanding.StringFixed(2),
		CostType:    costType,
		RowCount:    rows,
	}
	for _, v := range views {
		resp.Views = append(resp.Views, NewBillViewResponse(v))
	}
	return resp
}

// RecordPaymentRequest is the body of POST /bills/:id/payments.
// A negative amount records a reversal and requires a reason.
type RecordPaymentRequest struct {
	Amount    string     `json:"amount" binding:"required"`
	Method    string     `json:"method" binding:"omitempty,max=32"`
	Reference string     `json:"reference" binding:"omitempty,max=64"`
	Reason    string     `json:"reason" binding:"omitempty,max=255"`
	PaidAt    *time.Time `json:"paid_at"`
}

// ToInput converts the request
func (r RecordPaymentRequest) ToInput(currency valueobject.Currency, recordedBy uuid.UUID) (billing.PaymentInput, error) {
	amount, err := valueobject.NewMoneyFromString(r.Amount, currency)
	if err != nil {
		return billing.PaymentInput{}, shared.NewValidationError(shared.FieldError{Field: "amount", Message: "amount is not a number"})
	}
	in := billing.PaymentInput{
		Amount:    amount,
		Method:    r.Method,
		Reference: r.Reference,
		Reason:    r.Reason,
	}
	if r.PaidAt != nil {
		in.PaidAt = *r.PaidAt
	}
	if recordedBy != uuid.Nil {
		in.RecordedBy = &recordedBy
	}
	return in, nil
}

// RecordPaymentResponse is the appended entry and the new ledger sum
type RecordPaymentResponse struct {
	Payment PaymentData `json:"payment"`
	Sum     string      `json:"sum"`
}

// LedgerResponse lists a bill's payment entries
type LedgerResponse struct {
	BillRecordID uuid.UUID     `json:"bill_record_id"`
	Entries      []PaymentData `json:"entries"`
	Sum          string        `json:"sum"`
}

// NewLedgerResponse converts a ledger
func NewLedgerResponse(billRecordID uuid.UUID, l *billing.PaymentLedger) LedgerResponse {
	entries := l.Entries()
	resp := LedgerResponse{
		BillRecordID: billRecordID,
		Entries:      make([]PaymentData, 0, len(entries)),
		Sum:          l.Sum().StringFixed(2),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, NewPaymentData(e))
	}
	return resp
}

// StatementResponse points at a generated statement
type StatementResponse struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
	Status    string    `json:"status"`
}
