package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/society/backend/internal/domain/maintenance"
)

// CostScheduleModel is one stored schedule variant. A partial unique index
// keeps at most one active row per company.
type CostScheduleModel struct {
	CompanyAggregateModel
	CostType   string           `gorm:"type:varchar(4);not null"`
	Active     bool             `gorm:"not null;default:false"`
	Currency   string           `gorm:"type:varchar(3);not null"`
	UnitName   string           `gorm:"type:varchar(64)"`
	UnitValue  decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	FixedRates []FixedRateModel `gorm:"foreignKey:ScheduleID"`
}

func (CostScheduleModel) TableName() string { return "cost_schedules" }

// FixedRateModel is one row of a fixed table
type FixedRateModel struct {
	ScheduleID      uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ApartmentTypeID uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UnitValue       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

func (FixedRateModel) TableName() string { return "cost_schedule_fixed_rates" }

func (m *CostScheduleModel) ToDomain() *maintenance.CostSchedule {
	cur := currencyOrDefault(m.Currency)
	s := &maintenance.CostSchedule{
		CompanyAggregateRoot: m.CompanyAggregateRoot(),
		CostType:             maintenance.CostType(m.CostType),
		Active:               m.Active,
		Currency:             cur,
		UnitName:             m.UnitName,
		UnitValue:            toMoney(m.UnitValue, cur),
		FixedRates:           make([]maintenance.FixedRate, 0, len(m.FixedRates)),
	}
	for _, r := range m.FixedRates {
		s.FixedRates = append(s.FixedRates, maintenance.FixedRate{
			ApartmentTypeID: r.ApartmentTypeID,
			UnitValue:       toMoney(r.UnitValue, cur),
		})
	}
	return s
}

// CostScheduleModelFromDomain converts a schedule variant, rates included
func CostScheduleModelFromDomain(s *maintenance.CostSchedule) *CostScheduleModel {
	m := &CostScheduleModel{
		CostType:  string(s.CostType),
		Active:    s.Active,
		Currency:  string(s.Currency),
		UnitName:  s.UnitName,
		UnitValue: s.UnitValue.Amount(),
	}
	m.FromDomainCompanyAggregateRoot(s.CompanyAggregateRoot)
	m.FixedRates = make([]FixedRateModel, 0, len(s.FixedRates))
	for _, r := range s.FixedRates {
		m.FixedRates = append(m.FixedRates, FixedRateModel{
			ScheduleID:      s.ID,
			ApartmentTypeID: r.ApartmentTypeID,
			UnitValue:       r.UnitValue.Amount(),
		})
	}
	return m
}
