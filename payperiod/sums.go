package payperiod

import (
	"github.com/shopspring/decimal"
	"github.com/warp/budget-engine/budget"
)

// =============================================================================
// BUDGET SUMS
// =============================================================================

// BudgetSums are one periodic budget's totals for one period.
//
//	BudgetAmount: the budget's starting balance (per-period ceiling)
//	Allocated:    planned amount (scheduled amounts, budgeted amounts)
//	Spent:        actual amount
//	TransTotal:   sum of every ledger entry against the budget
//	Remaining:    BudgetAmount - max(Allocated, TransTotal); absolute for income
type BudgetSums struct {
	BudgetAmount decimal.Decimal `json:"budget_amount"`
	Allocated    decimal.Decimal `json:"allocated"`
	Spent        decimal.Decimal `json:"spent"`
	TransTotal   decimal.Decimal `json:"trans_total"`
	Remaining    decimal.Decimal `json:"remaining"`
	IsIncome     bool            `json:"is_income"`
}

// sumBudgets folds the ledger into sums for every active periodic budget.
// Entries against standing or untracked budgets are skipped.
func sumBudgets(budgets []budget.Budget, ledger []Record) map[int64]*BudgetSums {
	res := make(map[int64]*BudgetSums)
	for _, b := range budgets {
		if !b.IsActive || !b.IsPeriodic {
			continue
		}
		res[b.ID] = &BudgetSums{
			BudgetAmount: b.StartingBalance,
			Allocated:    decimal.Zero,
			Spent:        decimal.Zero,
			TransTotal:   decimal.Zero,
			IsIncome:     b.IsIncome,
		}
	}

	for _, rec := range ledger {
		switch r := rec.(type) {
		case *ScheduledRecord:
			s, ok := res[r.BudgetID]
			if !ok {
				continue
			}
			s.Allocated = s.Allocated.Add(r.Amount)
			s.TransTotal = s.TransTotal.Add(r.Amount)
		case *ActualRecord:
			addActual(res, r)
		}
	}

	for _, s := range res {
		used := decimal.Max(s.Allocated, s.TransTotal)
		s.Remaining = s.BudgetAmount.Sub(used)
		if s.IsIncome {
			s.Remaining = s.Remaining.Abs()
		}
	}
	return res
}

// addActual charges each allocation of an actual transaction to its budget.
// A budgeted amount replaces the primary allocation's amount in Allocated;
// every other allocation is allocated at its actual amount.
func addActual(res map[int64]*BudgetSums, r *ActualRecord) {
	primary := r.Primary()
	for _, a := range r.Allocations {
		s, ok := res[a.BudgetID]
		if !ok {
			continue
		}
		s.TransTotal = s.TransTotal.Add(a.Amount)
		s.Spent = s.Spent.Add(a.Amount)
		if r.BudgetedAmount != nil && a.BudgetID == primary.BudgetID {
			s.Allocated = s.Allocated.Add(*r.BudgetedAmount)
		} else {
			s.Allocated = s.Allocated.Add(a.Amount)
		}
	}
}

// =============================================================================
// OVERALL SUMS
// =============================================================================

// OverallSums are the whole-period totals across periodic budgets.
type OverallSums struct {
	Income    decimal.Decimal `json:"income"`
	Allocated decimal.Decimal `json:"allocated"`
	Spent     decimal.Decimal `json:"spent"`
	Remaining decimal.Decimal `json:"remaining"`
}

// sumOverall folds budget sums into period totals. Once a period is over,
// or spending exceeds the plan, Remaining is measured against Spent instead
// of Allocated.
func sumOverall(sums map[int64]*BudgetSums, inPast bool) *OverallSums {
	o := &OverallSums{
		Income:    decimal.Zero,
		Allocated: decimal.Zero,
		Spent:     decimal.Zero,
	}
	for _, s := range sums {
		if s.IsIncome {
			o.Income = o.Income.Add(decimal.Max(s.TransTotal.Abs(), s.BudgetAmount.Abs()))
			continue
		}
		o.Allocated = o.Allocated.Add(decimal.Max(s.Allocated, s.BudgetAmount))
		o.Spent = o.Spent.Add(s.Spent)
	}
	if o.Spent.GreaterThan(o.Allocated) || inPast {
		o.Remaining = o.Income.Sub(o.Spent)
	} else {
		o.Remaining = o.Income.Sub(o.Allocated)
	}
	return o
}
