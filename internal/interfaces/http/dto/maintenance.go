package dto

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/maintenance"
	"github.com/society/backend/internal/domain/shared"
	"github.com/society/backend/internal/domain/shared/valueobject"
)

// Schedule status codes on the wire
const (
	ScheduleInactive = 0
	ScheduleActive   = 1
)

// FixedRateData is one row of a fixed table
type FixedRateData struct {
	ApartmentType uuid.UUID `json:"apartment_type"`
	UnitValue     string    `json:"unit_value"`
}

// UnitTypeData is the unit rate of a unit-rate schedule
type UnitTypeData struct {
	UnitName  string `json:"unit_name"`
	UnitValue string `json:"unit_value"`
}

// ScheduleResponse is one schedule variant as served by GET /maintenance-setting
type ScheduleResponse struct {
	ID        uuid.UUID       `json:"id"`
	CostType  string          `json:"cost_type"`
	Status    int             `json:"status"`
	Currency  string          `json:"currency"`
	FixedData []FixedRateData `json:"fixed_data"`
	UnitType  *UnitTypeData   `json:"unit_type,omitempty"`
}

// NewScheduleResponse converts a schedule variant
func NewScheduleResponse(s *maintenance.CostSchedule) ScheduleResponse {
	resp := ScheduleResponse{
		ID:        s.ID,
		CostType:  string(s.CostType),
		Status:    ScheduleInactive,
		Currency:  string(s.Currency),
		FixedData: make([]FixedRateData, 0, len(s.FixedRates)),
	}
	if s.Active {
		resp.Status = ScheduleActive
	}
	for _, r := range s.FixedRates {
		resp.FixedData = append(resp.FixedData, FixedRateData{ApartmentType: r.ApartmentTypeID, UnitValue: r.UnitValue.StringFixed(2)})
	}
	if s.CostType == maintenance.UnitRate {
		resp.UnitType = &UnitTypeData{UnitName: s.UnitName, UnitValue: s.UnitValue.StringFixed(2)}
	}
	return resp
}

// NewScheduleResponses converts all variants
func NewScheduleResponses(list []*maintenance.CostSchedule) []ScheduleResponse {
	out := make([]ScheduleResponse, 0, len(list))
	for _, s := range list {
		out = append(out, NewScheduleResponse(s))
	}
	return out
}

// ToSchedule converts a served variant back into a schedule
func (r ScheduleResponse) ToSchedule(companyID uuid.UUID) (*maintenance.CostSchedule, error) {
	ct, err := maintenance.ParseCostType(r.CostType)
	if err != nil {
		return nil, err
	}
	currency := valueobject.Currency(r.Currency)
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	s := maintenance.NewCostSchedule(companyID, ct, currency)
	s.ID = r.ID
	s.Active = r.Status == ScheduleActive
	for _, f := range r.FixedData {
		m, err := valueobject.NewMoneyFromString(f.UnitValue, currency)
		if err != nil {
			return nil, err
		}
		s.FixedRates = append(s.FixedRates, maintenance.FixedRate{ApartmentTypeID: f.ApartmentType, UnitValue: m})
	}
	if r.UnitType != nil {
		s.UnitName = r.UnitType.UnitName
		if r.UnitType.UnitValue != "" {
			m, err := valueobject.NewMoneyFromString(r.UnitType.UnitValue, currency)
			if err != nil {
				return nil, err
			}
			s.UnitValue = m
		}
	}
	return s, nil
}

// SaveScheduleRequest is the body of POST /maintenance-setting/:cost_type.
// unit_data holds a []FixedRateData for cost type "1" and a UnitTypeData
// for cost type "2".
type SaveScheduleRequest struct {
	UnitData json.RawMessage `json:"unit_data" binding:"required"`
	CostType string          `json:"cost_type"`
}

// NewFixedScheduleRequest builds a fixed-table request body
func NewFixedScheduleRequest(rows []FixedRateData) SaveScheduleRequest {
	data, _ := json.Marshal(rows)
	return SaveScheduleRequest{UnitData: data, CostType: string(maintenance.FixedTable)}
}

// NewUnitScheduleRequest builds a unit-rate request body
func NewUnitScheduleRequest(unit UnitTypeData) SaveScheduleRequest {
	data, _ := json.Marshal(unit)
	return SaveScheduleRequest{UnitData: data, CostType: string(maintenance.UnitRate)}
}

// ToUpdate decodes the body for the cost type named in the path
func (r SaveScheduleRequest) ToUpdate(pathCostType string) (maintenance.ScheduleUpdate, error) {
	ct, err := maintenance.ParseCostType(pathCostType)
	if err != nil {
		return maintenance.ScheduleUpdate{}, err
	}
	if r.CostType != "" && r.CostType != pathCostType {
		return maintenance.ScheduleUpdate{}, shared.NewValidationError(shared.FieldError{
			Field: "cost_type", Message: "cost_type does not match the path",
		})
	}

	update := maintenance.ScheduleUpdate{CostType: ct}
	switch ct {
	case maintenance.FixedTable:
		var rows []FixedRateData
		if err := json.Unmarshal(r.UnitData, &rows); err != nil {
			return maintenance.ScheduleUpdate{}, shared.NewValidationError(shared.FieldError{
				Field: "unit_data", Message: "expected a list of apartment_type and unit_value",
			})
		}
		for _, row := range rows {
			update.Fixed = append(update.Fixed, maintenance.FixedEntry{ApartmentTypeID: row.ApartmentType, UnitValue: row.UnitValue})
		}
	case maintenance.UnitRate:
		var unit UnitTypeData
		if err := json.Unmarshal(r.UnitData, &unit); err != nil {
			return maintenance.ScheduleUpdate{}, shared.NewValidationError(shared.FieldError{
				Field: "unit_data", Message: "expected unit_name and unit_value",
			})
		}
		update.Unit = maintenance.UnitEntry{UnitName: unit.UnitName, UnitValue: unit.UnitValue}
	}
	return update, nil
}
