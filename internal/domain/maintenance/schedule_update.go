package maintenance

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/society/backend/internal/domain/shared"
	"github.com/society/backend/internal/domain/shared/valueobject"
)

// FixedEntry is one submitted row of a fixed table
type FixedEntry struct {
	ApartmentTypeID uuid.UUID
	UnitValue       string
}

// UnitEntry is the submitted unit rate
type UnitEntry struct {
	UnitName  string
	UnitValue string
}

// ScheduleUpdate is a submitted replacement for one schedule variant
type ScheduleUpdate struct {
	CostType CostType
	Fixed    []FixedEntry
	Unit     UnitEntry
}

// validatedUpdate carries parsed values of an update that passed validation
type validatedUpdate struct {
	fixed     []FixedRate
	unitName  string
	unitValue valueobject.Money
}

// validate checks the update against the company's known apartment types.
// In fixed-table mode every known type needs a non-empty, non-negative value
// and no type may appear twice. In unit-rate mode both name and value are required.
func (u ScheduleUpdate) validate(knownTypes []uuid.UUID, currency valueobject.Currency) (*validatedUpdate, error) {
	if _, err := ParseCostType(string(u.CostType)); err != nil {
		return nil, err
	}

	verr := shared.NewValidationError()
	out := &validatedUpdate{}

	switch u.CostType {
	case FixedTable:
		known := make(map[uuid.UUID]bool, len(knownTypes))
		for _, id := range knownTypes {
			known[id] = false
		}
		for _, e := range u.Fixed {
			field := "fixed_data." + e.ApartmentTypeID.String()
			seen, ok := known[e.ApartmentTypeID]
			if !ok {
				verr.Add(field, "unknown apartment type")
				continue
			}
			if seen {
				verr.Add(field, "duplicate apartment type")
				continue
			}
			known[e.ApartmentTypeID] = true
			amount, msg := parseAmount(e.UnitValue)
			if msg != "" {
				verr.Add(field, msg)
				continue
			}
			m, _ := valueobject.NewMoney(amount, currency)
			out.fixed = append(out.fixed, FixedRate{ApartmentTypeID: e.ApartmentTypeID, UnitValue: m})
		}
		for _, id := range knownTypes {
			if !known[id] {
				verr.Add("fixed_data."+id.String(), "unit value is required")
			}
		}

	case UnitRate:
		out.unitName = strings.TrimSpace(u.Unit.UnitName)
		if out.unitName == "" {
			verr.Add("unit_type.unit_name", "unit name is required")
		}
		amount, msg := parseAmount(u.Unit.UnitValue)
		if msg != "" {
			verr.Add("unit_type.unit_value", msg)
		} else {
			out.unitValue, _ = valueobject.NewMoney(amount, currency)
		}
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseAmount(raw string) (decimal.Decimal, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, "unit value is required"
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Sprintf("unit value %q is not a number", raw)
	}
	if d.IsNegative() {
		return decimal.Zero, "unit value cannot be negative"
	}
	return d, ""
}
