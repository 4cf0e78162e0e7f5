// Package society models the physical units of a society: apartment types and apartments.
package society

import (
	"strings"

	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/shared"
)

// ApartmentType classifies apartments for fixed-table billing (e.g. "2BHK")
type ApartmentType struct {
	shared.CompanyAggregateRoot
	Name string
}

// NewApartmentType creates an apartment type
func NewApartmentType(companyID uuid.UUID, name string) (*ApartmentType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError(shared.FieldError{Field: "name", Message: "name is required"})
	}
	if len(name) > 64 {
		return nil, shared.NewValidationError(shared.FieldError{Field: "name", Message: "name cannot exceed 64 characters"})
	}
	return &ApartmentType{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		Name:                 name,
	}, nil
}

// Apartment is one unit in a tower
type Apartment struct {
	shared.CompanyAggregateRoot
	Number  string
	Tower   string
	Floor   int
	TypeID  uuid.UUID
	OwnerID *uuid.UUID
}

// NewApartment creates an apartment of the given type
func NewApartment(companyID uuid.UUID, number, tower string, floor int, typeID uuid.UUID) (*Apartment, error) {
	verr := shared.NewValidationError()
	number = strings.TrimSpace(number)
	if number == "" {
		verr.Add("number", "number is required")
	}
	if typeID == uuid.Nil {
		verr.Add("apartment_type", "apartment type is required")
	}
	if floor < 0 {
		verr.Add("floor", "floor cannot be negative")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return &Apartment{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		Number:               number,
		Tower:                strings.TrimSpace(tower),
		Floor:                floor,
		TypeID:               typeID,
	}, nil
}

// Label returns a human readable unit label such as "B-1204"
func (a *Apartment) Label() string {
	if a.Tower == "" {
		return a.Number
	}
	return a.Tower + "-" + a.Number
}
