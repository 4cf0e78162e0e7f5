package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/maintenance"
	"github.com/society/backend/internal/interfaces/http/dto"
)

// ScheduleUsecase is the part of maintenance.ScheduleService the handler calls
type ScheduleUsecase interface {
	List(ctx context.Context, companyID uuid.UUID) ([]*maintenance.CostSchedule, error)
	SwitchMode(ctx context.Context, companyID uuid.UUID, ct maintenance.CostType) (*maintenance.CostSchedule, error)
	Update(ctx context.Context, companyID uuid.UUID, update maintenance.ScheduleUpdate) (*maintenance.CostSchedule, error)
}

// MaintenanceHandler serves the maintenance cost schedule settings
type MaintenanceHandler struct {
	BaseHandler
	schedules ScheduleUsecase
}

// NewMaintenanceHandler creates a new maintenance handler
func NewMaintenanceHandler(schedules ScheduleUsecase) *MaintenanceHandler {
	return &MaintenanceHandler{schedules: schedules}
}

// ListSchedules handles GET /maintenance-setting
// Returns both schedule variants. status is 1 for the active one and 0 otherwise.
func (h *MaintenanceHandler) ListSchedules(c *gin.Context) {
	companyID, _, err := caller(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	list, err := h.schedules.List(c.Request.Context(), companyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewScheduleResponses(list))
}

// SaveSchedule handles POST /maintenance-setting/{cost_type}
// Nothing is stored when any field fails.
func (h *MaintenanceHandler) SaveSchedule(c *gin.Context) {
	companyID, _, err := caller(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	var req dto.SaveScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	update, err := req.ToUpdate(c.Param("cost_type"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	saved, err := h.schedules.Update(c.Request.Context(), companyID, update)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewScheduleResponse(saved))
}

// ActivateSchedule handles PUT /maintenance-setting/{cost_type}/activate
// Activates the stored variant without changing its values
func (h *MaintenanceHandler) ActivateSchedule(c *gin.Context) {
	companyID, _, err := caller(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	ct, err := maintenance.ParseCostType(c.Param("cost_type"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	active, err := h.schedules.SwitchMode(c.Request.Context(), companyID, ct)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewScheduleResponse(active))
}
