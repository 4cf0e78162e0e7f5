package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/society/backend/internal/domain/shared"
	"github.com/society/backend/internal/domain/shared/valueobject"
)

// BaseModel provides common persistence fields for all models
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// CompanyAggregateModel provides the fields of a company-scoped aggregate root
type CompanyAggregateModel struct {
	BaseModel
	Version   int       `gorm:"not null;default:1"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// FromDomainCompanyAggregateRoot copies the aggregate header into the model
func (m *CompanyAggregateModel) FromDomainCompanyAggregateRoot(a shared.CompanyAggregateRoot) {
	m.ID = a.ID
	m.CreatedAt = a.CreatedAt
	m.UpdatedAt = a.UpdatedAt
	m.Version = a.Version
	m.CompanyID = a.CompanyID
}

// CompanyAggregateRoot rebuilds the domain aggregate header
func (m *CompanyAggregateModel) CompanyAggregateRoot() shared.CompanyAggregateRoot {
	return shared.CompanyAggregateRoot{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		CompanyID: m.CompanyID,
	}
}

func currencyOrDefault(code string) valueobject.Currency {
	if code == "" {
		return valueobject.DefaultCurrency
	}
	return valueobject.Currency(code)
}

// toMoney rebuilds a stored amount. The currency is never empty here, so
// NewMoney cannot fail.
func toMoney(amount decimal.Decimal, currency valueobject.Currency) valueobject.Money {
	m, _ := valueobject.NewMoney(amount, currency)
	return m
}
