// Package maintenance holds the cost schedule that prices an apartment's
// maintenance charge, in fixed-table or unit-rate mode.
package maintenance

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/shared"
	"github.com/society/backend/internal/domain/shared/valueobject"
)

// CostType selects the schedule mode. The values are the wire codes.
type CostType string

const (
	FixedTable CostType = "1"
	UnitRate   CostType = "2"
)

// ParseCostType validates a wire cost type
func ParseCostType(s string) (CostType, error) {
	switch CostType(s) {
	case FixedTable, UnitRate:
		return CostType(s), nil
	default:
		return "", shared.NewValidationError(shared.FieldError{
			Field:   "cost_type",
			Message: fmt.Sprintf("cost_type must be %q (fixed table) or %q (unit rate)", FixedTable, UnitRate),
		})
	}
}

// String returns a readable mode name
func (c CostType) String() string {
	switch c {
	case FixedTable:
		return "fixed_table"
	case UnitRate:
		return "unit_rate"
	default:
		return "unknown"
	}
}

// FixedRate is the charge for one apartment type in fixed-table mode
type FixedRate struct {
	ApartmentTypeID uuid.UUID
	UnitValue       valueobject.Money
}

// CostSchedule is one stored schedule variant of a company. Only one variant
// per company is Active at a time; inactive variants keep their values.
type CostSchedule struct {
	shared.CompanyAggregateRoot
	CostType   CostType
	Active     bool
	Currency   valueobject.Currency
	FixedRates []FixedRate
	UnitName   string
	UnitValue  valueobject.Money
}

// NewCostSchedule creates an empty, inactive schedule variant
func NewCostSchedule(companyID uuid.UUID, costType CostType, currency valueobject.Currency) *CostSchedule {
	return &CostSchedule{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		CostType:             costType,
		Currency:             currency,
		UnitValue:            valueobject.Zero(currency),
	}
}

// BaseCost returns the base charge for an apartment of the given type.
// The second result is false when a fixed table has no entry for the type;
// the cost is then zero, which is a valid state rather than an error.
// A nil schedule (nothing configured yet) costs zero and reports no match.
func (s *CostSchedule) BaseCost(apartmentTypeID uuid.UUID) (valueobject.Money, bool) {
	if s == nil {
		return valueobject.Zero(valueobject.DefaultCurrency), false
	}
	switch s.CostType {
	case UnitRate:
		return s.UnitValue, true
	case FixedTable:
		for _, r := range s.FixedRates {
			if r.ApartmentTypeID == apartmentTypeID {
				return r.UnitValue, true
			}
		}
	}
	return valueobject.Zero(s.currency()), false
}

// RateFor returns the fixed rate for a type, if configured
func (s *CostSchedule) RateFor(apartmentTypeID uuid.UUID) (valueobject.Money, bool) {
	idx := slices.IndexFunc(s.FixedRates, func(r FixedRate) bool { return r.ApartmentTypeID == apartmentTypeID })
	if idx < 0 {
		return valueobject.Money{}, false
	}
	return s.FixedRates[idx].UnitValue, true
}

func (s *CostSchedule) currency() valueobject.Currency {
	if s.Currency == "" {
		return valueobject.DefaultCurrency
	}
	return s.Currency
}
