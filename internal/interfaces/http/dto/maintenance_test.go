package dto

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/maintenance"
	"github.com/society/backend/internal/domain/shared"
	"github.com/society/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveScheduleRequest_ToUpdate_Fixed(t *testing.T) {
	typeA, typeB := uuid.New(), uuid.New()
	body := `{"cost_type":"1","unit_data":[{"apartment_type":"` + typeA.String() + `","unit_value":"100"},{"apartment_type":"` + typeB.String() + `","unit_value":"150.50"}]}`

	var req SaveScheduleRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	update, err := req.ToUpdate("1")
	require.NoError(t, err)
	assert.Equal(t, maintenance.FixedTable, update.CostType)
	require.Len(t, update.Fixed, 2)
	assert.Equal(t, typeA, update.Fixed[0].ApartmentTypeID)
	assert.Equal(t, "150.50", update.Fixed[1].UnitValue)
}

func TestSaveScheduleRequest_ToUpdate_Unit(t *testing.T) {
	req := NewUnitScheduleRequest(UnitTypeData{UnitName: "sqft", UnitValue: "2.5"})

	update, err := req.ToUpdate("2")
	require.NoError(t, err)
	assert.Equal(t, maintenance.UnitRate, update.CostType)
	assert.Equal(t, "sqft", update.Unit.UnitName)
	assert.Equal(t, "2.5", update.Unit.UnitValue)
}

func TestSaveScheduleRequest_ToUpdate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		req   SaveScheduleRequest
		path  string
		field string
	}{
		{"unknown cost type", NewUnitScheduleRequest(UnitTypeData{}), "3", "cost_type"},
		{"path mismatch", NewUnitScheduleRequest(UnitTypeData{}), "1", "cost_type"},
		{"fixed shape for unit", SaveScheduleRequest{UnitData: json.RawMessage(`[]`)}, "2", "unit_data"},
		{"unit shape for fixed", SaveScheduleRequest{UnitData: json.RawMessage(`{"unit_name":"x"}`)}, "1", "unit_data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.ToUpdate(tt.path)
			var verr *shared.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Fields[0].Field)
		})
	}
}

func TestScheduleResponse_WireShape(t *testing.T) {
	companyID := uuid.New()
	typeID := uuid.New()
	s := maintenance.NewCostSchedule(companyID, maintenance.FixedTable, valueobject.INR)
	s.Active = true
	s.FixedRates = []maintenance.FixedRate{{ApartmentTypeID: typeID, UnitValue: valueobject.MustMoney("100", valueobject.INR)}}

	data, err := json.Marshal(NewScheduleResponse(s))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "1", raw["cost_type"])
	assert.Equal(t, float64(1), raw["status"])
	assert.NotContains(t, raw, "unit_type")
	fixed := raw["fixed_data"].([]any)[0].(map[string]any)
	assert.Equal(t, typeID.String(), fixed["apartment_type"])
	assert.Equal(t, "100.00", fixed["unit_value"])

	var back ScheduleResponse
	require.NoError(t, json.Unmarshal(data, &back))
	restored, err := back.ToSchedule(companyID)
	require.NoError(t, err)
	assert.True(t, restored.Active)
	cost, ok := restored.BaseCost(typeID)
	assert.True(t, ok)
	assert.True(t, cost.Equals(valueobject.MustMoney("100", valueobject.INR)))
}
