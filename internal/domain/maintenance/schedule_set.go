package maintenance

import (
	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/shared"
	"github.com/society/backend/internal/domain/shared/valueobject"
)

// EventTypeScheduleActivated is published when a schedule variant becomes active
const EventTypeScheduleActivated = "maintenance.schedule_activated"

// ScheduleActivatedEvent records a mode switch or update
type ScheduleActivatedEvent struct {
	shared.BaseDomainEvent
	CostType CostType `json:"cost_type"`
}

// ScheduleSet is every stored schedule variant of one company
type ScheduleSet struct {
	CompanyID uuid.UUID
	Currency  valueobject.Currency
	variants  map[CostType]*CostSchedule
}

// NewScheduleSet wraps the stored variants of a company. If more than one
// variant is stored active, the most recently updated one stays active.
func NewScheduleSet(companyID uuid.UUID, currency valueobject.Currency, schedules []*CostSchedule) *ScheduleSet {
	set := &ScheduleSet{
		CompanyID: companyID,
		Currency:  currency,
		variants:  make(map[CostType]*CostSchedule, 2),
	}
	var active *CostSchedule
	for _, s := range schedules {
		set.variants[s.CostType] = s
		if s.Active && (active == nil || s.UpdatedAt.After(active.UpdatedAt)) {
			active = s
		}
	}
	for _, s := range set.variants {
		s.Active = s == active
	}
	return set
}

// Active returns the active variant, or nil if none has been configured
func (s *ScheduleSet) Active() *CostSchedule {
	for _, v := range s.variants {
		if v.Active {
			return v
		}
	}
	return nil
}

// Variant returns the stored variant for a mode, or nil
func (s *ScheduleSet) Variant(ct CostType) *CostSchedule {
	return s.variants[ct]
}

// Variants returns the stored variants, fixed table first
func (s *ScheduleSet) Variants() []*CostSchedule {
	out := make([]*CostSchedule, 0, len(s.variants))
	for _, ct := range []CostType{FixedTable, UnitRate} {
		if v, ok := s.variants[ct]; ok {
			out = append(out, v)
		}
	}
	return out
}

// SwitchMode deactivates the current variant and activates the one for ct,
// creating it empty if it was never stored. Stored values are never cleared.
func (s *ScheduleSet) SwitchMode(ct CostType) (*CostSchedule, error) {
	if _, err := ParseCostType(string(ct)); err != nil {
		return nil, err
	}
	target, ok := s.variants[ct]
	if !ok {
		target = NewCostSchedule(s.CompanyID, ct, s.Currency)
		s.variants[ct] = target
	}
	if target.Active {
		return target, nil
	}
	for _, v := range s.variants {
		if v.Active {
			v.Active = false
			v.IncrementVersion()
		}
	}
	target.Active = true
	target.IncrementVersion()
	target.AddDomainEvent(&ScheduleActivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeScheduleActivated, target.ID, s.CompanyID),
		CostType:        ct,
	})
	return target, nil
}

// Apply validates an update against the known apartment types, stores the
// values on the matching variant and makes it active. On validation failure
// nothing in the set changes.
func (s *ScheduleSet) Apply(update ScheduleUpdate, knownTypes []uuid.UUID) (*CostSchedule, error) {
	parsed, err := update.validate(knownTypes, s.Currency)
	if err != nil {
		return nil, err
	}

	target, err := s.SwitchMode(update.CostType)
	if err != nil {
		return nil, err
	}
	switch update.CostType {
	case FixedTable:
		target.FixedRates = parsed.fixed
	case UnitRate:
		target.UnitName = parsed.unitName
		target.UnitValue = parsed.unitValue
	}
	return target, nil
}
