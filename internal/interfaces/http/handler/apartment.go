package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appsociety "github.com/society/backend/internal/application/society"
	"github.com/society/backend/internal/domain/shared"
	"github.com/society/backend/internal/domain/society"
	"github.com/society/backend/internal/interfaces/http/dto"
)

// ApartmentUsecase is the part of society.ApartmentService the handler calls
type ApartmentUsecase interface {
	ListTypes(ctx context.Context, companyID uuid.UUID) ([]society.ApartmentType, error)
	CreateType(ctx context.Context, companyID uuid.UUID, name string) (*society.ApartmentType, error)
	ListApartments(ctx context.Context, companyID uuid.UUID, filter shared.Filter) (*appsociety.ApartmentPage, error)
	CreateApartment(ctx context.Context, companyID uuid.UUID, in appsociety.CreateApartmentInput) (*society.Apartment, error)
}

// ApartmentHandler serves apartment types and apartments
type ApartmentHandler struct {
	BaseHandler
	apartments ApartmentUsecase
}

// NewApartmentHandler creates a new apartment handler
func NewApartmentHandler(apartments ApartmentUsecase) *ApartmentHandler {
	return &ApartmentHandler{apartments: apartments}
}

// ListTypes handles GET /apartment-types
func (h *ApartmentHandler) ListTypes(c *gin.Context) {
	companyID, _, err := caller(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	types, err := h.apartments.ListTypes(c.Request.Context(), companyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]dto.ApartmentTypeResponse, 0, len(types))
	for i := range types {
		out = append(out, dto.NewApartmentTypeResponse(&types[i]))
	}
	h.Success(c, out)
}

// CreateType handles POST /apartment-types
// A name already used in the company is rejected with a field error on "name"
func (h *ApartmentHandler) CreateType(c *gin.Context) {
	companyID, _, err := caller(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	var req dto.CreateApartmentTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	t, err := h.apartments.CreateType(c.Request.Context(), companyID, req.Name)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.NewApartmentTypeResponse(t))
}

// ListApartments handles GET /apartments
func (h *ApartmentHandler) ListApartments(c *gin.Context) {
	companyID, _, err := caller(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.apartments.ListApartments(c.Request.Context(), companyID, shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]dto.ApartmentResponse, 0, len(page.Items))
	for i := range page.Items {
		out = append(out, dto.NewApartmentResponse(&page.Items[i]))
	}
	h.SuccessWithMeta(c, out, page.Total, req.Page, req.PageSize)
}

// CreateApartment handles POST /apartments
func (h *ApartmentHandler) CreateApartment(c *gin.Context) {
	companyID, _, err := caller(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	var req dto.CreateApartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	typeID, err := uuid.Parse(req.ApartmentTypeID)
	if err != nil {
		h.ValidationFailed(c, shared.NewValidationError(shared.FieldError{Field: "apartment_type_id", Message: "Invalid UUID format"}))
		return
	}

	a, err := h.apartments.CreateApartment(c.Request.Context(), companyID, appsociety.CreateApartmentInput{
		Number: req.Number,
		Tower:  req.Tower,
		Floor:  req.Floor,
		TypeID: typeID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.NewApartmentResponse(a))
}
