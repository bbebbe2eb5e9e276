/*
store.go - Persistence interfaces for the budgeting engine

PURPOSE:
  Defines the interface between the domain logic and the database.
  The pay-period engine only reads; the API and the scenario loader write.
  Different implementations can use SQLite or in-memory storage.

KEY INTERFACES:
  PeriodQueries: The read queries one pay period needs
  Store:         Full read/write persistence
  TxStore:       Store with atomic multi-write support

STANDING BUDGET CONTRACT:
  CreateTransaction and SetAllocations adjust CurrentBalance of every
  standing budget they touch, in the same atomic write:
    current_balance -= newly allocated amount
    current_balance += removed allocation amount
  Periodic budgets are never touched; their sums are derived per period.

ORDERING GUARANTEES:
  - TransactionsBetween: date ASC, id ASC
  - ScheduledPerPeriod:  num_per_period ASC, amount ASC, id ASC
  - ScheduledByDate / ScheduledMonthly: id ASC

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - budget/store/memory.go: In-memory for testing

SEE ALSO:
  - payperiod/period.go: Main consumer of PeriodQueries
  - interest/helper.go: Consumer of ActiveCreditAccounts
*/
package budget

import "context"

// =============================================================================
// READ SIDE - What the pay-period engine queries
// =============================================================================

// PeriodQueries are the reads that load one pay period.
type PeriodQueries interface {
	// TransactionsBetween returns actual transactions dated in [start, end].
	TransactionsBetween(ctx context.Context, start, end Date) ([]Transaction, error)

	// ScheduledByDate returns active date-type scheduled transactions in [start, end].
	ScheduledByDate(ctx context.Context, start, end Date) ([]ScheduledTransaction, error)

	// ScheduledPerPeriod returns active per-period scheduled transactions.
	ScheduledPerPeriod(ctx context.Context) ([]ScheduledTransaction, error)

	// ScheduledMonthly returns active monthly scheduled transactions whose day
	// of month satisfies MonthlyDayInRange(day, startDay, endDay).
	ScheduledMonthly(ctx context.Context, startDay, endDay int) ([]ScheduledTransaction, error)

	// ActiveBudgets returns every active budget, periodic and standing.
	ActiveBudgets(ctx context.Context) ([]Budget, error)
}

// =============================================================================
// STORE - Full persistence
// =============================================================================

type Store interface {
	PeriodQueries

	CreateAccount(ctx context.Context, a Account) (Account, error)
	GetAccount(ctx context.Context, id int64) (Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	ActiveCreditAccounts(ctx context.Context) ([]Account, error)

	CreateBudget(ctx context.Context, b Budget) (Budget, error)
	GetBudget(ctx context.Context, id int64) (Budget, error)
	ListBudgets(ctx context.Context) ([]Budget, error)

	CreateScheduled(ctx context.Context, s ScheduledTransaction) (ScheduledTransaction, error)
	ListScheduled(ctx context.Context) ([]ScheduledTransaction, error)

	// CreateTransaction persists t and applies standing budget balance changes.
	CreateTransaction(ctx context.Context, t Transaction) (Transaction, error)
	GetTransaction(ctx context.Context, id int64) (Transaction, error)

	// SetAllocations replaces a transaction's budget allocations.
	SetAllocations(ctx context.Context, txnID int64, allocs []Allocation) (Transaction, error)

	// Reconcile links a transaction to a bank-reported transaction.
	Reconcile(ctx context.Context, r Reconcile) (Reconcile, error)

	// Reset clears all data (for demo scenarios).
	Reset(ctx context.Context) error
}

// =============================================================================
// TRANSACTIONAL STORE - For atomic operations across multiple writes
// =============================================================================

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, everything fn wrote is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}
