package billing

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/maintenance"
	"github.com/society/backend/internal/domain/shared/valueobject"
)

// Status is the settlement state of a bill group
type Status string

const (
	StatusPaid   Status = "Paid"
	StatusUnpaid Status = "Unpaid"
)

// GroupKey identifies one apartment's charge under one bill definition
type GroupKey struct {
	BillDefinitionID uuid.UUID `json:"bill_definition_id"`
	ApartmentID      uuid.UUID `json:"apartment_id"`
}

// BillRow is one raw report row: a bill record with its apartment, the
// definition's additional costs and the payments recorded against it.
// Several rows may share a GroupKey when a charge is split into installments.
type BillRow struct {
	BillRecordID     uuid.UUID
	BillDefinitionID uuid.UUID
	BillName         string
	PeriodStart      time.Time
	ApartmentID      uuid.UUID
	ApartmentLabel   string
	ApartmentTypeID  uuid.UUID
	AdditionalCosts  []AdditionalCostItem
	Payments         []PaymentRecord
}

// Key returns the row's group key
func (r BillRow) Key() GroupKey {
	return GroupKey{BillDefinitionID: r.BillDefinitionID, ApartmentID: r.ApartmentID}
}

// AggregatedBillView is the derived settlement view of one group
type AggregatedBillView struct {
	Key            GroupKey
	BillName       string
	ApartmentLabel string
	PeriodStart    time.Time
	BaseCost       valueobject.Money
	AdditionalCost valueobject.Money
	TotalCost      valueobject.Money
	PaidCost       valueobject.Money
	Status         Status
	// UnmatchedType is set when a fixed-table schedule has no rate for the
	// apartment's type, so BaseCost is zero.
	UnmatchedType bool
	RowCount      int
	PaymentCount  int
}

// Outstanding returns TotalCost minus PaidCost, never below zero
func (v AggregatedBillView) Outstanding() valueobject.Money {
	diff, err := v.TotalCost.Subtract(v.PaidCost)
	if err != nil || diff.IsNegative() {
		return valueobject.Zero(v.TotalCost.Currency())
	}
	return diff
}

type groupAcc struct {
	first    BillRow
	rows     int
	costs    map[uuid.UUID]AdditionalCostItem
	costList []AdditionalCostItem
	payments []PaymentRecord
	seenPay  map[uuid.UUID]struct{}
}

// Aggregate derives the settlement view of every group in rows under the
// given active schedule (nil if none is configured). It is pure: the same
// input always yields the same output, and it is recomputed from the full
// row set every time.
//
// Additional costs are counted once per group (rows of a group repeat the
// same definition's items, matched by item id; items without an id are
// always counted). Payments are summed across all rows of the group, each
// payment id counted once.
func Aggregate(rows []BillRow, schedule *maintenance.CostSchedule, currency valueobject.Currency) (map[GroupKey]AggregatedBillView, error) {
	groups := make(map[GroupKey]*groupAcc)
	for _, row := range rows {
		key := row.Key()
		acc, ok := groups[key]
		if !ok {
			acc = &groupAcc{
				first:   row,
				costs:   make(map[uuid.UUID]AdditionalCostItem),
				seenPay: make(map[uuid.UUID]struct{}),
			}
			groups[key] = acc
		}
		acc.rows++
		for _, c := range row.AdditionalCosts {
			if c.ID != uuid.Nil {
				if _, dup := acc.costs[c.ID]; dup {
					continue
				}
				acc.costs[c.ID] = c
			}
			acc.costList = append(acc.costList, c)
		}
		for _, p := range row.Payments {
			if p.ID != uuid.Nil {
				if _, dup := acc.seenPay[p.ID]; dup {
					continue
				}
				acc.seenPay[p.ID] = struct{}{}
			}
			acc.payments = append(acc.payments, p)
		}
	}

	out := make(map[GroupKey]AggregatedBillView, len(groups))
	for key, acc := range groups {
		view, err := acc.view(key, schedule, currency)
		if err != nil {
			return nil, err
		}
		out[key] = view
	}
	return out, nil
}

func (acc *groupAcc) view(key GroupKey, schedule *maintenance.CostSchedule, currency valueobject.Currency) (AggregatedBillView, error) {
	base, matched := schedule.BaseCost(acc.first.ApartmentTypeID)
	if base.IsZero() {
		base = valueobject.Zero(currency)
	}

	additional := valueobject.Zero(currency)
	for _, c := range acc.costList {
		var err error
		if additional, err = additional.Add(c.Amount); err != nil {
			return AggregatedBillView{}, err
		}
	}

	total, err := base.Add(additional)
	if err != nil {
		return AggregatedBillView{}, err
	}

	paid := valueobject.Zero(currency)
	for _, p := range acc.payments {
		if paid, err = paid.Add(p.Amount); err != nil {
			return AggregatedBillView{}, err
		}
	}

	settled, err := paid.GreaterThanOrEqual(total)
	if err != nil {
		return AggregatedBillView{}, err
	}
	status := StatusUnpaid
	if settled {
		status = StatusPaid
	}

	return AggregatedBillView{
		Key:            key,
		BillName:       acc.first.BillName,
		ApartmentLabel: acc.first.ApartmentLabel,
		PeriodStart:    acc.first.PeriodStart,
		BaseCost:       base,
		AdditionalCost: additional,
		TotalCost:      total,
		PaidCost:       paid,
		Status:         status,
		UnmatchedType:  !matched && schedule != nil && schedule.CostType == maintenance.FixedTable,
		RowCount:       acc.rows,
		PaymentCount:   len(acc.payments),
	}, nil
}

// SortedViews returns the views ordered by period, bill name and apartment label
func SortedViews(views map[GroupKey]AggregatedBillView) []AggregatedBillView {
	out := make([]AggregatedBillView, 0, len(views))
	for _, v := range views {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.PeriodStart.Equal(b.PeriodStart) {
			return a.PeriodStart.Before(b.PeriodStart)
		}
		if a.BillName != b.BillName {
			return a.BillName < b.BillName
		}
		if a.ApartmentLabel != b.ApartmentLabel {
			return a.ApartmentLabel < b.ApartmentLabel
		}
		if a.Key.BillDefinitionID != b.Key.BillDefinitionID {
			return a.Key.BillDefinitionID.String() < b.Key.BillDefinitionID.String()
		}
		return a.Key.ApartmentID.String() < b.Key.ApartmentID.String()
	})
	return out
}

// Summary totals a set of views
type Summary struct {
	Groups      int
	Paid        int
	Unpaid      int
	TotalCost   valueobject.Money
	PaidCost    valueobject.Money
	Outstanding valueobject.Money
}

// Summarize totals the views in the given currency
func Summarize(views []AggregatedBillView, currency valueobject.Currency) (Summary, error) {
	s := Summary{
		TotalCost:   valueobject.Zero(currency),
		PaidCost:    valueobject.Zero(currency),
		Outstanding: valueobject.Zero(currency),
	}
	for _, v := range views {
		s.Groups++
		if v.Status == StatusPaid {
			s.Paid++
		} else {
			s.Unpaid++
		}
		var err error
		if s.TotalCost, err = s.TotalCost.Add(v.TotalCost); err != nil {
			return Summary{}, err
		}
		if s.PaidCost, err = s.PaidCost.Add(v.PaidCost); err != nil {
			return Summary{}, err
		}
		if s.Outstanding, err = s.Outstanding.Add(v.Outstanding()); err != nil {
			return Summary{}, err
		}
	}
	return s, nil
}
