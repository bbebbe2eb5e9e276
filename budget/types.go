/*
Package budget provides the domain model for the biweekly budgeting engine.

PURPOSE:
  Accounts, budgets, actual transactions and scheduled transactions, plus the
  store contract the pay-period engine and the interest helper read from.
  Amounts are decimal.Decimal throughout; float64 never touches money.

KEY CONCEPTS IN THIS FILE (types.go):
  - Budget: periodic (resets every pay period) or standing (running balance)
  - Transaction: money that actually moved, split across one or more budgets
  - ScheduledTransaction: a template fired by date, day-of-month or N per period
  - Account: where money lives; credit accounts feed the payoff simulator

SEE ALSO:
  - date.go: Calendar day type
  - schedule.go: Monthly day-of-month arithmetic
  - store.go: Persistence interfaces
  - payperiod/: The engine that consumes these types
*/
package budget

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ACCOUNT
// =============================================================================

type AccountType string

const (
	AccountBank       AccountType = "bank"
	AccountCredit     AccountType = "credit"
	AccountInvestment AccountType = "investment"
	AccountCash       AccountType = "cash"
)

func (t AccountType) Valid() bool {
	switch t {
	case AccountBank, AccountCredit, AccountInvestment, AccountCash:
		return true
	}
	return false
}

// Account is a bank, credit, investment or cash account.
type Account struct {
	ID          int64
	Name        string
	Description string
	Type        AccountType
	IsActive    bool

	// Ledger balance as last reported by the bank, and the day it was reported.
	// Credit balances are negative when money is owed.
	Balance     decimal.Decimal
	BalanceDate Date

	// Credit accounts only.
	APR             decimal.Decimal
	InterestClass   string
	MinPaymentClass string
	CreditLimit     *decimal.Decimal
}

// =============================================================================
// BUDGET
// =============================================================================

// Budget is either periodic or standing.
//
// Periodic budgets reset every pay period; StartingBalance is the
// per-period allocation ceiling. Standing budgets carry CurrentBalance,
// which moves whenever allocations against them change.
type Budget struct {
	ID              int64
	Name            string
	Description     string
	IsPeriodic      bool
	StartingBalance decimal.Decimal
	CurrentBalance  decimal.Decimal
	IsActive        bool
	IsIncome        bool
	OmitFromGraphs  bool
}

// IsStanding reports whether the budget keeps a running balance.
func (b Budget) IsStanding() bool { return !b.IsPeriodic }

// =============================================================================
// TRANSACTION - Money that actually moved
// =============================================================================

// Allocation is the share of a transaction charged to one budget.
type Allocation struct {
	BudgetID   int64
	BudgetName string
	Amount     decimal.Decimal
}

type Transaction struct {
	ID          int64
	Date        Date
	Description string
	AccountID   int64
	AccountName string
	Allocations []Allocation

	// BudgetedAmount is the planned amount when the transaction was created
	// from a scheduled transaction.
	BudgetedAmount *decimal.Decimal

	// ScheduledID links back to the scheduled transaction this one fulfilled.
	ScheduledID *int64

	// PlannedBudgetID is the budget the scheduled transaction was planned against.
	PlannedBudgetID *int64

	ReconcileID *int64
	Notes       string
}

// Amount is the sum of all budget allocations.
func (t Transaction) Amount() decimal.Decimal {
	total := decimal.Zero
	for _, a := range t.Allocations {
		total = total.Add(a.Amount)
	}
	return total
}

// PrimaryAllocation is the allocation a budgeted amount is charged against:
// the planned budget's allocation if there is one, otherwise the first.
func (t Transaction) PrimaryAllocation() (Allocation, bool) {
	if len(t.Allocations) == 0 {
		return Allocation{}, false
	}
	if t.PlannedBudgetID != nil {
		for _, a := range t.Allocations {
			if a.BudgetID == *t.PlannedBudgetID {
				return a, true
			}
		}
	}
	return t.Allocations[0], true
}

// =============================================================================
// SCHEDULED TRANSACTION - Template for a future transaction
// =============================================================================

type ScheduleType string

const (
	ScheduleDate      ScheduleType = "date"
	ScheduleMonthly   ScheduleType = "monthly"
	SchedulePerPeriod ScheduleType = "per_period"
)

func (t ScheduleType) Valid() bool {
	switch t {
	case ScheduleDate, ScheduleMonthly, SchedulePerPeriod:
		return true
	}
	return false
}

// ScheduledTransaction fires on one Date, on DayOfMonth every month, or
// NumPerPeriod times in every pay period. Exactly one selector is set.
type ScheduledTransaction struct {
	ID           int64
	Description  string
	Amount       decimal.Decimal
	AccountID    int64
	AccountName  string
	BudgetID     int64
	BudgetName   string
	IsActive     bool
	Date         *Date
	DayOfMonth   int
	NumPerPeriod int
	Notes        string
}

// Type derives the schedule type from whichever selector is set.
func (s ScheduledTransaction) Type() ScheduleType {
	switch {
	case s.Date != nil:
		return ScheduleDate
	case s.DayOfMonth != 0:
		return ScheduleMonthly
	case s.NumPerPeriod != 0:
		return SchedulePerPeriod
	}
	return ""
}

// =============================================================================
// RECONCILE - Link between a transaction and a bank-reported one
// =============================================================================

type Reconcile struct {
	ID            int64
	TransactionID int64
	OFXAccountID  int64
	OFXFitID      string
	Note          string
	ReconciledAt  time.Time
}

// =============================================================================
// MONEY HELPERS
// =============================================================================

// MustParseDecimal panics on malformed input; use it for literals only.
func MustParseDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// DecimalPtr returns a pointer to a parsed decimal, for optional fields.
func DecimalPtr(s string) *decimal.Decimal {
	d := MustParseDecimal(s)
	return &d
}

func Int64Ptr(v int64) *int64 { return &v }
