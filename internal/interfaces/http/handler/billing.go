package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appbilling "github.com/society/backend/internal/application/billing"
	"github.com/society/backend/internal/domain/billing"
	"github.com/society/backend/internal/domain/shared"
	"github.com/society/backend/internal/domain/shared/valueobject"
	"github.com/society/backend/internal/interfaces/http/dto"
)

// ReportUsecase is the part of billing.ReportService the handler calls
type ReportUsecase interface {
	Rows(ctx context.Context, in appbilling.ReportInput) ([]billing.BillRow, error)
	Summary(ctx context.Context, in appbilling.ReportInput) (*appbilling.ReportResult, error)
}

// ReportHandler serves the financial report and its aggregated summary
type ReportHandler struct {
	BaseHandler
	reports ReportUsecase
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports ReportUsecase) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// reportInput reads the :start/:end/:type path of both report routes.
// Dates are YYYY-MM-DD and both ends are inclusive.
func reportInput(c *gin.Context) (appbilling.ReportInput, error) {
	companyID, userID, err := caller(c)
	if err != nil {
		return appbilling.ReportInput{}, err
	}

	verr := shared.NewValidationError()
	from, err := time.Parse(time.DateOnly, c.Param("start"))
	if err != nil {
		verr.Add("start", "start must be a date in YYYY-MM-DD format")
	}
	to, err := time.Parse(time.DateOnly, c.Param("end"))
	if err != nil {
		verr.Add("end", "end must be a date in YYYY-MM-DD format")
	}
	category, err := billing.ParseCategory(c.Param("type"))
	if err != nil {
		verr.Add("type", "type must be maintenance, special or all")
	}
	if err := verr.OrNil(); err != nil {
		return appbilling.ReportInput{}, err
	}

	return appbilling.ReportInput{
		CompanyID: companyID,
		UserID:    userID,
		From:      from,
		To:        to,
		Category:  category,
	}, nil
}

// ReportRows handles GET /table/financial/report/{start}/{end}/{type}
// Raw bill rows of the window with their additional costs and payments
func (h *ReportHandler) ReportRows(c *gin.Context) {
	in, err := reportInput(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	rows, err := h.reports.Rows(c.Request.Context(), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewReportRows(rows))
}

// Summary handles GET /billing/summary/{start}/{end}/{type}
// One view per bill definition and apartment, priced under the active schedule
func (h *ReportHandler) Summary(c *gin.Context) {
	in, err := reportInput(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	result, err := h.reports.Summary(c.Request.Context(), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	costType := ""
	if result.Schedule != nil {
		costType = string(result.Schedule.CostType)
	}
	h.Success(c, dto.NewSummaryResponse(result.Views, result.Summary, costType, result.RowCount))
}

// PaymentUsecase is the part of billing.PaymentService the handler calls
type PaymentUsecase interface {
	Record(ctx context.Context, companyID, billRecordID uuid.UUID, in billing.PaymentInput) (*appbilling.PaymentResult, error)
	Ledger(ctx context.Context, companyID, billRecordID uuid.UUID) (*billing.PaymentLedger, error)
}

// StatementUsecase is the part of billing.StatementService the handler calls
type StatementUsecase interface {
	Generate(ctx context.Context, companyID, billRecordID uuid.UUID) (*appbilling.StatementResult, error)
}

// BillHandler serves the payment ledger and statements of one bill record
type BillHandler struct {
	BaseHandler
	payments   PaymentUsecase
	statements StatementUsecase
	currency   valueobject.Currency
}

// NewBillHandler creates a new bill handler. statements may be nil, in which
// case statement requests answer 503.
func NewBillHandler(payments PaymentUsecase, statements StatementUsecase, currency valueobject.Currency) *BillHandler {
	return &BillHandler{payments: payments, statements: statements, currency: currency}
}

func billRecordID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, shared.NewValidationError(shared.FieldError{Field: "id", Message: "Invalid UUID format"})
	}
	return id, nil
}

// RecordPayment handles POST /bills/{id}/payments
// Appends a payment to the bill's ledger. A negative amount records a reversal and needs a reason.
func (h *BillHandler) RecordPayment(c *gin.Context) {
	companyID, userID, err := caller(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	id, err := billRecordID(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	var req dto.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	in, err := req.ToInput(h.currency, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.payments.Record(c.Request.Context(), companyID, id, in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.RecordPaymentResponse{
		Payment: dto.NewPaymentData(result.Record),
		Sum:     result.Sum.StringFixed(2),
	})
}

// Ledger handles GET /bills/{id}/payments
func (h *BillHandler) Ledger(c *gin.Context) {
	companyID, _, err := caller(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	id, err := billRecordID(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	ledger, err := h.payments.Ledger(c.Request.Context(), companyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewLedgerResponse(id, ledger))
}

// Statement handles POST /bills/{id}/statement
// Renders the settlement of the bill's group to PDF and returns a download URL
func (h *BillHandler) Statement(c *gin.Context) {
	if h.statements == nil {
		h.HandleError(c, appbilling.ErrStatementsDisabled)
		return
	}
	companyID, _, err := caller(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	id, err := billRecordID(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	result, err := h.statements.Generate(c.Request.Context(), companyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.StatementResponse{
		Key:       result.Key,
		URL:       result.URL,
		ExpiresAt: result.ExpiresAt,
		Status:    string(result.View.Status),
	})
}
