package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/access"
	"github.com/society/backend/internal/domain/billing"
	"github.com/society/backend/internal/domain/maintenance"
	"github.com/society/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleModel_BlanketGrantHasNullResource(t *testing.T) {
	role, err := access.NewRole(uuid.New(), "Treasurer", "")
	require.NoError(t, err)
	require.NoError(t, role.ReplaceGrants([]access.Grant{
		{Capability: access.CapBilling},
		{Capability: access.CapCamera, ResourceID: "gate-1"},
	}))

	m := RoleModelFromDomain(role)
	require.Len(t, m.Grants, 2)
	assert.Nil(t, m.Grants[0].ResourceID)
	require.NotNil(t, m.Grants[1].ResourceID)
	assert.Equal(t, "gate-1", *m.Grants[1].ResourceID)
	assert.Equal(t, role.ID, m.Grants[1].RoleID)

	back := m.ToDomain()
	assert.Equal(t, role.Grants, back.Grants)
	assert.Equal(t, role.CompanyID, back.CompanyID)
	assert.Equal(t, role.Version, back.Version)
}

func TestCostScheduleModel_KeepsRatesAndCurrency(t *testing.T) {
	typeID := uuid.New()
	s := maintenance.NewCostSchedule(uuid.New(), maintenance.FixedTable, valueobject.INR)
	s.Active = true
	s.FixedRates = []maintenance.FixedRate{{ApartmentTypeID: typeID, UnitValue: valueobject.MustMoney("1500", valueobject.INR)}}

	m := CostScheduleModelFromDomain(s)
	assert.Equal(t, "1", m.CostType)
	require.Len(t, m.FixedRates, 1)
	assert.Equal(t, s.ID, m.FixedRates[0].ScheduleID)

	back := m.ToDomain()
	cost, matched := back.BaseCost(typeID)
	assert.True(t, matched)
	assert.True(t, cost.Equals(valueobject.MustMoney("1500", valueobject.INR)))
	assert.True(t, back.Active)
}

func TestPaymentRecordModel_EmptyCurrencyDefaults(t *testing.T) {
	m := PaymentRecordModel{ID: uuid.New(), PaidAt: time.Now()}
	p := m.ToDomain()
	assert.Equal(t, valueobject.DefaultCurrency, p.Amount.Currency())
}

func TestBillDefinitionModel_RoundTripsCosts(t *testing.T) {
	start := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	def, err := billing.NewBillDefinition(uuid.New(), "April", billing.CategoryMaintenance, start, start.AddDate(0, 1, 0), start.AddDate(0, 0, 10))
	require.NoError(t, err)
	_, err = def.AddCost("Lift", valueobject.MustMoney("250", valueobject.INR))
	require.NoError(t, err)

	back := BillDefinitionModelFromDomain(def).ToDomain()
	require.Len(t, back.AdditionalCosts, 1)
	assert.Equal(t, "Lift", back.AdditionalCosts[0].Name)
	assert.True(t, back.AdditionalCosts[0].Amount.Equals(def.AdditionalCosts[0].Amount))
}
