package models

import (
	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/society"
)

// ApartmentTypeModel is the persistence model for society.ApartmentType
type ApartmentTypeModel struct {
	CompanyAggregateModel
	Name string `gorm:"type:varchar(64);not null"`
}

func (ApartmentTypeModel) TableName() string { return "apartment_types" }

func (m *ApartmentTypeModel) ToDomain() *society.ApartmentType {
	return &society.ApartmentType{CompanyAggregateRoot: m.CompanyAggregateRoot(), Name: m.Name}
}

// ApartmentTypeModelFromDomain converts a domain apartment type
func ApartmentTypeModelFromDomain(t *society.ApartmentType) *ApartmentTypeModel {
	m := &ApartmentTypeModel{Name: t.Name}
	m.FromDomainCompanyAggregateRoot(t.CompanyAggregateRoot)
	return m
}

// ApartmentModel is the persistence model for society.Apartment
type ApartmentModel struct {
	CompanyAggregateModel
	Number          string     `gorm:"type:varchar(32);not null"`
	Tower           string     `gorm:"type:varchar(32)"`
	Floor           int        `gorm:"not null;default:0"`
	ApartmentTypeID uuid.UUID  `gorm:"type:uuid;not null;index"`
	OwnerID         *uuid.UUID `gorm:"type:uuid"`
}

func (ApartmentModel) TableName() string { return "apartments" }

func (m *ApartmentModel) ToDomain() *society.Apartment {
	return &society.Apartment{
		CompanyAggregateRoot: m.CompanyAggregateRoot(),
		Number:               m.Number,
		Tower:                m.Tower,
		Floor:                m.Floor,
		TypeID:               m.ApartmentTypeID,
		OwnerID:              m.OwnerID,
	}
}

// ApartmentModelFromDomain converts a domain apartment
func ApartmentModelFromDomain(a *society.Apartment) *ApartmentModel {
	m := &ApartmentModel{
		Number:          a.Number,
		Tower:           a.Tower,
		Floor:           a.Floor,
		ApartmentTypeID: a.TypeID,
		OwnerID:         a.OwnerID,
	}
	m.FromDomainCompanyAggregateRoot(a.CompanyAggregateRoot)
	return m
}
