package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/shared"
	"github.com/society/backend/internal/domain/shared/valueobject"
)

// Category groups bill definitions in reports
type Category string

const (
	CategoryMaintenance Category = "maintenance"
	CategorySpecial     Category = "special"
	CategoryAll         Category = "all"
)

// ParseCategory validates a report category
func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryMaintenance, CategorySpecial, CategoryAll:
		return c, nil
	case "":
		return CategoryAll, nil
	default:
		return "", shared.NewValidationError(shared.FieldError{Field: "type", Message: "unknown bill type: " + s})
	}
}

// AdditionalCostItem is a named extra charge on a bill definition
type AdditionalCostItem struct {
	ID     uuid.UUID
	Name   string
	Amount valueobject.Money
}

// BillDefinition describes one billing cycle's charge for a company
type BillDefinition struct {
	shared.CompanyAggregateRoot
	Name            string
	Category        Category
	PeriodStart     time.Time
	PeriodEnd       time.Time
	DueDate         time.Time
	AdditionalCosts []AdditionalCostItem
}

// NewBillDefinition creates a bill definition for a period
func NewBillDefinition(companyID uuid.UUID, name string, category Category, start, end, due time.Time) (*BillDefinition, error) {
	verr := shared.NewValidationError()
	name = strings.TrimSpace(name)
	if name == "" {
		verr.Add("name", "name is required")
	}
	if category == CategoryAll || category == "" {
		verr.Add("category", "a concrete category is required")
	}
	if !end.After(start) {
		verr.Add("period_end", "period end must be after period start")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return &BillDefinition{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		Name:                 name,
		Category:             category,
		PeriodStart:          start,
		PeriodEnd:            end,
		DueDate:              due,
	}, nil
}

// AddCost attaches an additional cost item. Names must be unique per definition.
func (d *BillDefinition) AddCost(name string, amount valueobject.Money) (*AdditionalCostItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError(shared.FieldError{Field: "additional_costs.name", Message: "name is required"})
	}
	for _, c := range d.AdditionalCosts {
		if strings.EqualFold(c.Name, name) {
			return nil, shared.NewValidationError(shared.FieldError{Field: "additional_costs.name", Message: "duplicate cost name: " + name})
		}
	}
	if amount.IsNegative() {
		return nil, shared.NewValidationError(shared.FieldError{Field: "additional_costs.amount", Message: "amount cannot be negative"})
	}
	item := AdditionalCostItem{ID: uuid.New(), Name: name, Amount: amount}
	d.AdditionalCosts = append(d.AdditionalCosts, item)
	return &item, nil
}

// BillRecord is one charge of a bill definition against one apartment
type BillRecord struct {
	shared.CompanyAggregateRoot
	BillDefinitionID uuid.UUID
	ApartmentID      uuid.UUID
	Installment      int
}

// NewBillRecord creates a bill record
func NewBillRecord(companyID, definitionID, apartmentID uuid.UUID) *BillRecord {
	return &BillRecord{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		BillDefinitionID:     definitionID,
		ApartmentID:          apartmentID,
		Installment:          1,
	}
}
