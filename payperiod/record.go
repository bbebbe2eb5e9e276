package payperiod

import (
	"encoding/json"

	"github.com/shopspring/decimal"
	"github.com/warp/budget-engine/budget"
)

// =============================================================================
// RECORD - Normalized ledger entry
// =============================================================================

// RecordKind tags which entity a ledger record came from.
type RecordKind string

const (
	KindActual    RecordKind = "Transaction"
	KindScheduled RecordKind = "ScheduledTransaction"
)

// Record is either an *ActualRecord or a *ScheduledRecord.
type Record interface {
	Kind() RecordKind

	// When returns the record's date; ok is false for per-period
	// scheduled records, which have no date inside the period.
	When() (d budget.Date, ok bool)

	// Total is the record's full amount across all budgets.
	Total() decimal.Decimal

	isRecord()
}

// ActualRecord is a normalized actual transaction.
type ActualRecord struct {
	ID              int64
	Date            budget.Date
	Description     string
	Amount          decimal.Decimal
	BudgetedAmount  *decimal.Decimal
	AccountID       int64
	AccountName     string
	Allocations     []budget.Allocation
	ScheduledID     *int64
	PlannedBudgetID *int64
	ReconcileID     *int64
}

func (r *ActualRecord) Kind() RecordKind { return KindActual }
func (r *ActualRecord) When() (budget.Date, bool) { return r.Date, true }
func (r *ActualRecord) Total() decimal.Decimal { return r.Amount }
func (*ActualRecord) isRecord() {}

// Primary is the allocation shown as the record's budget, and the one a
// budgeted amount is charged against.
func (r *ActualRecord) Primary() budget.Allocation {
	t := budget.Transaction{Allocations: r.Allocations, PlannedBudgetID: r.PlannedBudgetID}
	a, _ := t.PrimaryAllocation()
	return a
}

// ScheduledRecord is a normalized scheduled transaction.
// Date is only meaningful when Schedule is not per-period; use When.
type ScheduledRecord struct {
	ID          int64
	Schedule    budget.ScheduleType
	Date        budget.Date
	Description string
	Amount      decimal.Decimal
	AccountID   int64
	AccountName string
	BudgetID    int64
	BudgetName  string
}

func (r *ScheduledRecord) Kind() RecordKind { return KindScheduled }
func (r *ScheduledRecord) When() (budget.Date, bool) {
	if r.Schedule == budget.SchedulePerPeriod {
		return budget.Date{}, false
	}
	return r.Date, true
}
func (r *ScheduledRecord) Total() decimal.Decimal { return r.Amount }
func (*ScheduledRecord) isRecord() {}

// sortDate is the record's date, or MinDate for undated records.
func sortDate(r Record) budget.Date {
	if d, ok := r.When(); ok {
		return d
	}
	return budget.MinDate
}

// =============================================================================
// NORMALIZER
// =============================================================================

func normalizeActual(t budget.Transaction) *ActualRecord {
	return &ActualRecord{
		ID:              t.ID,
		Date:            t.Date,
		Description:     t.Description,
		Amount:          t.Amount(),
		BudgetedAmount:  t.BudgetedAmount,
		AccountID:       t.AccountID,
		AccountName:     t.AccountName,
		Allocations:     t.Allocations,
		ScheduledID:     t.ScheduledID,
		PlannedBudgetID: t.PlannedBudgetID,
		ReconcileID:     t.ReconcileID,
	}
}

// normalizeScheduled derives the record's date from the schedule type and
// the period bounds.
func normalizeScheduled(s budget.ScheduledTransaction, start, end budget.Date) *ScheduledRecord {
	r := &ScheduledRecord{
		ID:          s.ID,
		Schedule:    s.Type(),
		Description: s.Description,
		Amount:      s.Amount,
		AccountID:   s.AccountID,
		AccountName: s.AccountName,
		BudgetID:    s.BudgetID,
		BudgetName:  s.BudgetName,
	}
	switch r.Schedule {
	case budget.ScheduleDate:
		r.Date = *s.Date
	case budget.ScheduleMonthly:
		r.Date = budget.MonthlyDate(s.DayOfMonth, start, end)
	}
	return r
}

// =============================================================================
// JSON - Flat dict shape rendered by views
// =============================================================================

type recordJSON struct {
	Type           RecordKind           `json:"type"`
	ID             int64                `json:"id"`
	Date           *budget.Date         `json:"date"`
	SchedType      *budget.ScheduleType `json:"sched_type"`
	SchedTransID   *int64               `json:"sched_trans_id"`
	Description    string               `json:"description"`
	Amount         decimal.Decimal      `json:"amount"`
	BudgetedAmount *decimal.Decimal     `json:"budgeted_amount"`
	AccountID      int64                `json:"account_id"`
	AccountName    string               `json:"account_name"`
	BudgetID       int64                `json:"budget_id"`
	BudgetName     string               `json:"budget_name"`
	Budgets        []allocationJSON     `json:"budgets,omitempty"`
	ReconcileID    *int64               `json:"reconcile_id"`
}

type allocationJSON struct {
	BudgetID   int64           `json:"budget_id"`
	BudgetName string          `json:"budget_name"`
	Amount     decimal.Decimal `json:"amount"`
}

func (r *ActualRecord) MarshalJSON() ([]byte, error) {
	primary := r.Primary()
	date := r.Date
	out := recordJSON{
		Type:           KindActual,
		ID:             r.ID,
		Date:           &date,
		SchedTransID:   r.ScheduledID,
		Description:    r.Description,
		Amount:         r.Amount,
		BudgetedAmount: r.BudgetedAmount,
		AccountID:      r.AccountID,
		AccountName:    r.AccountName,
		BudgetID:       primary.BudgetID,
		BudgetName:     primary.BudgetName,
		ReconcileID:    r.ReconcileID,
	}
	for _, a := range r.Allocations {
		out.Budgets = append(out.Budgets, allocationJSON{BudgetID: a.BudgetID, BudgetName: a.BudgetName, Amount: a.Amount})
	}
	return json.Marshal(out)
}

func (r *ScheduledRecord) MarshalJSON() ([]byte, error) {
	sched := r.Schedule
	out := recordJSON{
		Type:        KindScheduled,
		ID:          r.ID,
		SchedType:   &sched,
		Description: r.Description,
		Amount:      r.Amount,
		AccountID:   r.AccountID,
		AccountName: r.AccountName,
		BudgetID:    r.BudgetID,
		BudgetName:  r.BudgetName,
	}
	if d, ok := r.When(); ok {
		out.Date = &d
	}
	return json.Marshal(out)
}
