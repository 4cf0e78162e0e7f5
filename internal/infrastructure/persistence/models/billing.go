package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/society/backend/internal/domain/billing"
)

// BillDefinitionModel is the persistence model for billing.BillDefinition
type BillDefinitionModel struct {
	CompanyAggregateModel
	Name            string                    `gorm:"type:varchar(200);not null"`
	Category        string                    `gorm:"type:varchar(20);not null"`
	PeriodStart     time.Time                 `gorm:"type:date;not null;index"`
	PeriodEnd       time.Time                 `gorm:"type:date;not null"`
	DueDate         time.Time                 `gorm:"type:date"`
	AdditionalCosts []AdditionalCostItemModel `gorm:"foreignKey:BillDefinitionID"`
}

func (BillDefinitionModel) TableName() string { return "bill_definitions" }

// AdditionalCostItemModel is one extra charge on a definition
type AdditionalCostItemModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key"`
	BillDefinitionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name             string          `gorm:"type:varchar(200);not null"`
	Amount           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency         string          `gorm:"type:varchar(3);not null"`
}

func (AdditionalCostItemModel) TableName() string { return "additional_cost_items" }

func (m AdditionalCostItemModel) ToDomain() billing.AdditionalCostItem {
	return billing.AdditionalCostItem{
		ID:     m.ID,
		Name:   m.Name,
		Amount: toMoney(m.Amount, currencyOrDefault(m.Currency)),
	}
}

func (m *BillDefinitionModel) ToDomain() *billing.BillDefinition {
	d := &billing.BillDefinition{
		CompanyAggregateRoot: m.CompanyAggregateRoot(),
		Name:                 m.Name,
		Category:             billing.Category(m.Category),
		PeriodStart:          m.PeriodStart,
		PeriodEnd:            m.PeriodEnd,
		DueDate:              m.DueDate,
		AdditionalCosts:      make([]billing.AdditionalCostItem, 0, len(m.AdditionalCosts)),
	}
	for _, c := range m.AdditionalCosts {
		d.AdditionalCosts = append(d.AdditionalCosts, c.ToDomain())
	}
	return d
}

// BillDefinitionModelFromDomain converts a definition, costs included
func BillDefinitionModelFromDomain(d *billing.BillDefinition) *BillDefinitionModel {
	m := &BillDefinitionModel{
		Name:        d.Name,
		Category:    string(d.Category),
		PeriodStart: d.PeriodStart,
		PeriodEnd:   d.PeriodEnd,
		DueDate:     d.DueDate,
	}
	m.FromDomainCompanyAggregateRoot(d.CompanyAggregateRoot)
	m.AdditionalCosts = make([]AdditionalCostItemModel, 0, len(d.AdditionalCosts))
	for _, c := range d.AdditionalCosts {
		m.AdditionalCosts = append(m.AdditionalCosts, AdditionalCostItemModel{
			ID:               c.ID,
			BillDefinitionID: d.ID,
			Name:             c.Name,
			Amount:           c.Amount.Amount(),
			Currency:         string(c.Amount.Currency()),
		})
	}
	return m
}

// BillRecordModel is the persistence model for billing.BillRecord
type BillRecordModel struct {
	CompanyAggregateModel
	BillDefinitionID uuid.UUID `gorm:"type:uuid;not null;index"`
	ApartmentID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Installment      int       `gorm:"not null;default:1"`
}

func (BillRecordModel) TableName() string { return "bill_records" }

func (m *BillRecordModel) ToDomain() *billing.BillRecord {
	return &billing.BillRecord{
		CompanyAggregateRoot: m.CompanyAggregateRoot(),
		BillDefinitionID:     m.BillDefinitionID,
		ApartmentID:          m.ApartmentID,
		Installment:          m.Installment,
	}
}

// BillRecordModelFromDomain converts a bill record
func BillRecordModelFromDomain(r *billing.BillRecord) *BillRecordModel {
	m := &BillRecordModel{
		BillDefinitionID: r.BillDefinitionID,
		ApartmentID:      r.ApartmentID,
		Installment:      r.Installment,
	}
	m.FromDomainCompanyAggregateRoot(r.CompanyAggregateRoot)
	return m
}

// PaymentRecordModel is an append-only payment entry
type PaymentRecordModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	CompanyID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	BillRecordID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency     string          `gorm:"type:varchar(3);not null"`
	Method       string          `gorm:"type:varchar(32)"`
	Reference    string          `gorm:"type:varchar(100)"`
	Reason       string          `gorm:"type:text"`
	PaidAt       time.Time       `gorm:"not null"`
	RecordedBy   *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt    time.Time       `gorm:"not null"`
}

func (PaymentRecordModel) TableName() string { return "payment_records" }

func (m PaymentRecordModel) ToDomain() billing.PaymentRecord {
	return billing.PaymentRecord{
		ID:           m.ID,
		CompanyID:    m.CompanyID,
		BillRecordID: m.BillRecordID,
		Amount:       toMoney(m.Amount, currencyOrDefault(m.Currency)),
		Method:       m.Method,
		Reference:    m.Reference,
		Reason:       m.Reason,
		PaidAt:       m.PaidAt,
		RecordedBy:   m.RecordedBy,
		CreatedAt:    m.CreatedAt,
	}
}

// PaymentRecordModelFromDomain converts a payment entry
func PaymentRecordModelFromDomain(p billing.PaymentRecord) *PaymentRecordModel {
	return &PaymentRecordModel{
		ID:           p.ID,
		CompanyID:    p.CompanyID,
		BillRecordID: p.BillRecordID,
		Amount:       p.Amount.Amount(),
		Currency:     string(p.Amount.Currency()),
		Method:       p.Method,
		Reference:    p.Reference,
		Reason:       p.Reason,
		PaidAt:       p.PaidAt,
		RecordedBy:   p.RecordedBy,
		CreatedAt:    p.CreatedAt,
	}
}
