// Package billing provides the domain model for maintenance bills and their settlement.
//
// Key Aggregates:
//   - BillDefinition: one billing cycle's charge, with its AdditionalCostItems
//   - BillRecord: the charge of a definition against one apartment
//
// Value Objects:
//   - PaymentRecord: immutable payment entry; negative amounts are reversals
//   - AggregatedBillView: derived settlement view per GroupKey
//
// PaymentLedger is append-only. Aggregate is pure and is always run on the
// full row set of a report window; its output is never stored.
package billing
