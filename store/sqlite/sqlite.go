/*
Package sqlite provides a SQLite-backed implementation of budget.TxStore.

PURPOSE:
  Persists accounts, budgets, scheduled and actual transactions, and serves
  the read queries the pay-period engine and the interest helper need.

INTERFACES IMPLEMENTED:
  budget.PeriodQueries: Pay-period engine reads
  budget.Store:         Full read/write persistence
  budget.TxStore:       Atomic multi-write via WithTx

KEY TABLES:
  accounts:               Bank, credit, investment and cash accounts
  budgets:                Periodic and standing budgets
  scheduled_transactions: Date, monthly and per-period templates
  transactions:           Actual transactions (header row)
  budget_transactions:    Allocations of a transaction to budgets
  txn_reconciles:         Links to bank-reported transactions

MONEY AND DATES:
  Amounts are stored as TEXT decimal strings and scanned straight into
  decimal.Decimal. Dates are TEXT "YYYY-MM-DD", so range filters compare
  lexically. Date columns are declared TEXT so the driver never converts
  them to time.Time.

STANDING BUDGETS:
  Every write that changes allocations updates current_balance of the
  standing budgets involved in the same SQL transaction.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety and a single database connection,
  which also keeps ":memory:" databases shared across queries. Rows are
  always drained and closed before the next query is issued.

USAGE:
  store, err := sqlite.New("./data/budget.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  cal := payperiod.NewCalendar(epoch, store)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - budget/store.go: Interface definitions
  - budget/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/budget-engine/budget"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type locker interface {
	Lock()
	Unlock()
	RLock()
	RUnlock()
}

// nopLocker is used by the view handed to WithTx, which already holds the lock.
type nopLocker struct{}

func (nopLocker) Lock()    {}
func (nopLocker) Unlock()  {}
func (nopLocker) RLock()   {}
func (nopLocker) RUnlock() {}

// Store implements budget.TxStore using SQLite.
type Store struct {
	db *sql.DB
	q  querier
	mu locker

	// tx is set on the view passed to WithTx callbacks.
	tx *sql.Tx
}

var _ budget.TxStore = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db, q: db, mu: &sync.RWMutex{}}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		acct_type TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		balance TEXT NOT NULL DEFAULT '0',
		balance_date TEXT,
		apr TEXT NOT NULL DEFAULT '0',
		interest_class TEXT,
		min_payment_class TEXT,
		credit_limit TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_accounts_type_active
		ON accounts(acct_type, is_active);

	CREATE TABLE IF NOT EXISTS budgets (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		is_periodic INTEGER NOT NULL DEFAULT 1,
		starting_balance TEXT NOT NULL DEFAULT '0',
		current_balance TEXT NOT NULL DEFAULT '0',
		is_active INTEGER NOT NULL DEFAULT 1,
		is_income INTEGER NOT NULL DEFAULT 0,
		omit_from_graphs INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	-- Exactly one of date, day_of_month, num_per_period is set
	CREATE TABLE IF NOT EXISTS scheduled_transactions (
		id INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		amount TEXT NOT NULL,
		account_id INTEGER NOT NULL REFERENCES accounts(id),
		budget_id INTEGER NOT NULL REFERENCES budgets(id),
		is_active INTEGER NOT NULL DEFAULT 1,
		date TEXT,
		day_of_month INTEGER CHECK (day_of_month BETWEEN 1 AND 28),
		num_per_period INTEGER CHECK (num_per_period > 0),
		notes TEXT,
		created_at TEXT NOT NULL,
		CHECK ((date IS NOT NULL) + (day_of_month IS NOT NULL) + (num_per_period IS NOT NULL) = 1)
	);

	CREATE INDEX IF NOT EXISTS idx_scheduled_date
		ON scheduled_transactions(date) WHERE date IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_scheduled_day_of_month
		ON scheduled_transactions(day_of_month) WHERE day_of_month IS NOT NULL;

	CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY,
		date TEXT NOT NULL,
		description TEXT,
		account_id INTEGER NOT NULL REFERENCES accounts(id),
		budgeted_amount TEXT,
		scheduled_trans_id INTEGER REFERENCES scheduled_transactions(id),
		planned_budget_id INTEGER REFERENCES budgets(id),
		notes TEXT,
		created_at TEXT NOT NULL
	);

	-- Hot path: one pay period's actual transactions
	CREATE INDEX IF NOT EXISTS idx_transactions_date
		ON transactions(date, id);

	CREATE TABLE IF NOT EXISTS budget_transactions (
		id INTEGER PRIMARY KEY,
		trans_id INTEGER NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
		budget_id INTEGER NOT NULL REFERENCES budgets(id),
		amount TEXT NOT NULL,
		UNIQUE(trans_id, budget_id)
	);

	CREATE TABLE IF NOT EXISTS txn_reconciles (
		id INTEGER PRIMARY KEY,
		txn_id INTEGER NOT NULL UNIQUE REFERENCES transactions(id),
		ofx_account_id INTEGER,
		ofx_fitid TEXT,
		note TEXT,
		reconciled_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// atomic runs fn in a SQL transaction, or in the caller's transaction when
// s is already a WithTx view.
func (s *Store) atomic(ctx context.Context, fn func(q querier) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(sqlTx); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// WithTx executes fn within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(budget.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.atomic(ctx, func(q querier) error {
		sqlTx, _ := q.(*sql.Tx)
		return fn(&Store{db: s.db, q: q, mu: nopLocker{}, tx: sqlTx})
	})
}

// =============================================================================
// PERIOD QUERIES (budget.PeriodQueries)
// =============================================================================

const transactionColumns = `
	t.id, t.date, t.description, t.account_id, a.name, t.budgeted_amount,
	t.scheduled_trans_id, t.planned_budget_id, r.id, t.notes`

const transactionJoins = `
	FROM transactions t
	JOIN accounts a ON a.id = t.account_id
	LEFT JOIN txn_reconciles r ON r.txn_id = t.id`

func (s *Store) TransactionsBetween(ctx context.Context, start, end budget.Date) ([]budget.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT` + transactionColumns + transactionJoins + `
		WHERE t.date >= ? AND t.date <= ?
		ORDER BY t.date ASC, t.id ASC`
	return s.queryTransactions(ctx, query, start.String(), end.String())
}

const scheduledColumns = `
	s.id, s.description, s.amount, s.account_id, a.name, s.budget_id, b.name,
	s.is_active, s.date, s.day_of_month, s.num_per_period, s.notes
	FROM scheduled_transactions s
	JOIN accounts a ON a.id = s.account_id
	JOIN budgets b ON b.id = s.budget_id`

func (s *Store) ScheduledByDate(ctx context.Context, start, end budget.Date) ([]budget.ScheduledTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT` + scheduledColumns + `
		WHERE s.is_active = 1 AND s.date IS NOT NULL AND s.date >= ? AND s.date <= ?
		ORDER BY s.id`
	return s.queryScheduled(ctx, query, start.String(), end.String())
}

func (s *Store) ScheduledPerPeriod(ctx context.Context) ([]budget.ScheduledTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT` + scheduledColumns + `
		WHERE s.is_active = 1 AND s.num_per_period IS NOT NULL
		ORDER BY s.num_per_period ASC, s.id ASC`
	result, err := s.queryScheduled(ctx, query)
	if err != nil {
		return nil, err
	}
	// amounts are TEXT; rank them as exact decimals, ties keep id order
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].NumPerPeriod != result[j].NumPerPeriod {
			return result[i].NumPerPeriod < result[j].NumPerPeriod
		}
		return result[i].Amount.LessThan(result[j].Amount)
	})
	return result, nil
}

// ScheduledMonthly mirrors budget.MonthlyDayInRange in SQL.
func (s *Store) ScheduledMonthly(ctx context.Context, startDay, endDay int) ([]budget.ScheduledTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dayFilter := `s.day_of_month <= ? OR s.day_of_month >= ?`
	args := []any{endDay, startDay}
	if startDay < endDay {
		dayFilter = `s.day_of_month >= ? AND s.day_of_month <= ?`
		args = []any{startDay, endDay}
	}
	query := `SELECT` + scheduledColumns + `
		WHERE s.is_active = 1 AND s.day_of_month IS NOT NULL AND (` + dayFilter + `)
		ORDER BY s.id`
	return s.queryScheduled(ctx, query, args...)
}

func (s *Store) ActiveBudgets(ctx context.Context) ([]budget.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryBudgets(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE is_active = 1 ORDER BY id`)
}

// =============================================================================
// ACCOUNTS
// =============================================================================

const accountColumns = `id, name, description, acct_type, is_active, balance, balance_date,
	apr, interest_class, min_payment_class, credit_limit`

func (s *Store) CreateAccount(ctx context.Context, a budget.Account) (budget.Account, error) {
	if err := a.Validate(); err != nil {
		return budget.Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var balanceDate sql.NullString
	if !a.BalanceDate.IsZero() {
		balanceDate = nullString(a.BalanceDate.String())
	}
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO accounts (name, description, acct_type, is_active, balance, balance_date,
			apr, interest_class, min_payment_class, credit_limit, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Name, nullString(a.Description), string(a.Type), a.IsActive, a.Balance, balanceDate,
		a.APR, nullString(a.InterestClass), nullString(a.MinPaymentClass),
		decimal.NullDecimal{Decimal: deref(a.CreditLimit), Valid: a.CreditLimit != nil},
		now(),
	)
	if err != nil {
		return budget.Account{}, fmt.Errorf("failed to insert account: %w", err)
	}
	a.ID, err = res.LastInsertId()
	return a, err
}

func (s *Store) GetAccount(ctx context.Context, id int64) (budget.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts, err := s.queryAccounts(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	if err != nil {
		return budget.Account{}, err
	}
	if len(accounts) == 0 {
		return budget.Account{}, &budget.NotFoundError{Kind: "account", ID: id}
	}
	return accounts[0], nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]budget.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryAccounts(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY id`)
}

func (s *Store) ActiveCreditAccounts(ctx context.Context) ([]budget.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryAccounts(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE is_active = 1 AND acct_type = ? ORDER BY id`,
		string(budget.AccountCredit))
}

func (s *Store) queryAccounts(ctx context.Context, query string, args ...any) ([]budget.Account, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []budget.Account
	for rows.Next() {
		var (
			a                                          budget.Account
			acctType                                   string
			description, balanceDate, interest, minPay sql.NullString
			creditLimit                                decimal.NullDecimal
		)
		if err := rows.Scan(&a.ID, &a.Name, &description, &acctType, &a.IsActive, &a.Balance,
			&balanceDate, &a.APR, &interest, &minPay, &creditLimit); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		a.Type = budget.AccountType(acctType)
		a.Description = description.String
		a.InterestClass = interest.String
		a.MinPaymentClass = minPay.String
		if balanceDate.Valid {
			if a.BalanceDate, err = budget.ParseDate(balanceDate.String); err != nil {
				return nil, fmt.Errorf("account %d balance_date: %w", a.ID, err)
			}
		}
		if creditLimit.Valid {
			a.CreditLimit = &creditLimit.Decimal
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// =============================================================================
// BUDGETS
// =============================================================================

const budgetColumns = `id, name, description, is_periodic, starting_balance, current_balance,
	is_active, is_income, omit_from_graphs`

func (s *Store) CreateBudget(ctx context.Context, b budget.Budget) (budget.Budget, error) {
	if err := b.Validate(); err != nil {
		return budget.Budget{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.q.ExecContext(ctx, `
		INSERT INTO budgets (name, description, is_periodic, starting_balance, current_balance,
			is_active, is_income, omit_from_graphs, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.Name, nullString(b.Description), b.IsPeriodic, b.StartingBalance, b.CurrentBalance,
		b.IsActive, b.IsIncome, b.OmitFromGraphs, now(),
	)
	if err != nil {
		return budget.Budget{}, fmt.Errorf("failed to insert budget: %w", err)
	}
	b.ID, err = res.LastInsertId()
	return b, err
}

func (s *Store) GetBudget(ctx context.Context, id int64) (budget.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getBudget(ctx, s.q, id)
}

func (s *Store) getBudget(ctx context.Context, q querier, id int64) (budget.Budget, error) {
	b, err := scanBudget(q.QueryRowContext(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return budget.Budget{}, &budget.NotFoundError{Kind: "budget", ID: id}
	}
	return b, err
}

func (s *Store) ListBudgets(ctx context.Context) ([]budget.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryBudgets(ctx, `SELECT `+budgetColumns+` FROM budgets ORDER BY id`)
}

func (s *Store) queryBudgets(ctx context.Context, query string, args ...any) ([]budget.Budget, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer rows.Close()

	var budgets []budget.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBudget(row scanner) (budget.Budget, error) {
	var (
		b           budget.Budget
		description sql.NullString
	)
	err := row.Scan(&b.ID, &b.Name, &description, &b.IsPeriodic, &b.StartingBalance,
		&b.CurrentBalance, &b.IsActive, &b.IsIncome, &b.OmitFromGraphs)
	if errors.Is(err, sql.ErrNoRows) {
		return b, err
	}
	if err != nil {
		return b, fmt.Errorf("failed to scan budget: %w", err)
	}
	b.Description = description.String
	return b, nil
}

// =============================================================================
// SCHEDULED TRANSACTIONS
// =============================================================================

func (s *Store) CreateScheduled(ctx context.Context, st budget.ScheduledTransaction) (budget.ScheduledTransaction, error) {
	if err := st.Validate(); err != nil {
		return budget.ScheduledTransaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.atomic(ctx, func(q querier) error {
		if err := s.requireAccount(ctx, q, st.AccountID); err != nil {
			return err
		}
		if _, err := s.getBudget(ctx, q, st.BudgetID); err != nil {
			return err
		}

		var date sql.NullString
		if st.Date != nil {
			date = nullString(st.Date.String())
		}
		res, err := q.ExecContext(ctx, `
			INSERT INTO scheduled_transactions (description, amount, account_id, budget_id, is_active,
				date, day_of_month, num_per_period, notes, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			st.Description, st.Amount, st.AccountID, st.BudgetID, st.IsActive,
			date, nullInt(st.DayOfMonth), nullInt(st.NumPerPeriod), nullString(st.Notes), now(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert scheduled transaction: %w", err)
		}
		st.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return budget.ScheduledTransaction{}, err
	}

	created, err := s.queryScheduled(ctx, `SELECT`+scheduledColumns+` WHERE s.id = ?`, st.ID)
	if err != nil {
		return budget.ScheduledTransaction{}, err
	}
	return created[0], nil
}

func (s *Store) ListScheduled(ctx context.Context) ([]budget.ScheduledTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryScheduled(ctx, `SELECT`+scheduledColumns+` ORDER BY s.id`)
}

func (s *Store) queryScheduled(ctx context.Context, query string, args ...any) ([]budget.ScheduledTransaction, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scheduled transactions: %w", err)
	}
	defer rows.Close()

	var result []budget.ScheduledTransaction
	for rows.Next() {
		var (
			st             budget.ScheduledTransaction
			date, notes    sql.NullString
			day, perPeriod sql.NullInt64
		)
		if err := rows.Scan(&st.ID, &st.Description, &st.Amount, &st.AccountID, &st.AccountName,
			&st.BudgetID, &st.BudgetName, &st.IsActive, &date, &day, &perPeriod, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan scheduled transaction: %w", err)
		}
		if date.Valid {
			d, err := budget.ParseDate(date.String)
			if err != nil {
				return nil, fmt.Errorf("scheduled transaction %d date: %w", st.ID, err)
			}
			st.Date = &d
		}
		st.DayOfMonth = int(day.Int64)
		st.NumPerPeriod = int(perPeriod.Int64)
		st.Notes = notes.String
		result = append(result, st)
	}
	return result, rows.Err()
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func (s *Store) CreateTransaction(ctx context.Context, t budget.Transaction) (budget.Transaction, error) {
	if err := t.Validate(); err != nil {
		return budget.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.atomic(ctx, func(q querier) error {
		if err := s.requireAccount(ctx, q, t.AccountID); err != nil {
			return err
		}
		if t.ScheduledID != nil {
			var id int64
			err := q.QueryRowContext(ctx, `SELECT id FROM scheduled_transactions WHERE id = ?`, *t.ScheduledID).Scan(&id)
			if errors.Is(err, sql.ErrNoRows) {
				return &budget.NotFoundError{Kind: "scheduled transaction", ID: *t.ScheduledID}
			}
			if err != nil {
				return err
			}
		}
		if err := s.checkAllocations(ctx, q, t.Allocations); err != nil {
			return err
		}

		res, err := q.ExecContext(ctx, `
			INSERT INTO transactions (date, description, account_id, budgeted_amount,
				scheduled_trans_id, planned_budget_id, notes, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			t.Date.String(), nullString(t.Description), t.AccountID,
			decimal.NullDecimal{Decimal: deref(t.BudgetedAmount), Valid: t.BudgetedAmount != nil},
			nullID(t.ScheduledID), nullID(t.PlannedBudgetID), nullString(t.Notes), now(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}
		if t.ID, err = res.LastInsertId(); err != nil {
			return err
		}
		if err := insertAllocations(ctx, q, t.ID, t.Allocations); err != nil {
			return err
		}
		return s.applyStanding(ctx, q, nil, t.Allocations)
	})
	if err != nil {
		return budget.Transaction{}, err
	}
	return s.getTransaction(ctx, t.ID)
}

func (s *Store) GetTransaction(ctx context.Context, id int64) (budget.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getTransaction(ctx, id)
}

func (s *Store) getTransaction(ctx context.Context, id int64) (budget.Transaction, error) {
	txns, err := s.queryTransactions(ctx, `SELECT`+transactionColumns+transactionJoins+` WHERE t.id = ?`, id)
	if err != nil {
		return budget.Transaction{}, err
	}
	if len(txns) == 0 {
		return budget.Transaction{}, &budget.NotFoundError{Kind: "transaction", ID: id}
	}
	return txns[0], nil
}

func (s *Store) SetAllocations(ctx context.Context, txnID int64, allocs []budget.Allocation) (budget.Transaction, error) {
	if err := budget.ValidateAllocations(allocs); err != nil {
		return budget.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.atomic(ctx, func(q querier) error {
		old, err := loadAllocations(ctx, q, []int64{txnID})
		if err != nil {
			return err
		}
		var exists int
		if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE id = ?`, txnID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return &budget.NotFoundError{Kind: "transaction", ID: txnID}
		}
		if err := s.checkAllocations(ctx, q, allocs); err != nil {
			return err
		}

		if _, err := q.ExecContext(ctx, `DELETE FROM budget_transactions WHERE trans_id = ?`, txnID); err != nil {
			return fmt.Errorf("failed to clear allocations: %w", err)
		}
		if err := insertAllocations(ctx, q, txnID, allocs); err != nil {
			return err
		}
		return s.applyStanding(ctx, q, old[txnID], allocs)
	})
	if err != nil {
		return budget.Transaction{}, err
	}
	return s.getTransaction(ctx, txnID)
}

func (s *Store) Reconcile(ctx context.Context, r budget.Reconcile) (budget.Reconcile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ReconciledAt.IsZero() {
		r.ReconciledAt = time.Now().UTC()
	}
	err := s.atomic(ctx, func(q querier) error {
		var exists int
		if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE id = ?`, r.TransactionID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return &budget.NotFoundError{Kind: "transaction", ID: r.TransactionID}
		}
		res, err := q.ExecContext(ctx, `
			INSERT INTO txn_reconciles (txn_id, ofx_account_id, ofx_fitid, note, reconciled_at)
			VALUES (?, ?, ?, ?, ?)`,
			r.TransactionID, nullID(nonZero(r.OFXAccountID)), nullString(r.OFXFitID), nullString(r.Note),
			r.ReconciledAt.UTC().Format(time.RFC3339),
		)
		if isUniqueConstraintError(err) {
			return &budget.ValidationError{Field: "transaction_id", Message: fmt.Sprintf("transaction %d is already reconciled", r.TransactionID)}
		}
		if err != nil {
			return fmt.Errorf("failed to insert reconcile: %w", err)
		}
		r.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return budget.Reconcile{}, err
	}
	return r, nil
}

// queryTransactions reads transaction headers, closes the cursor, then
// loads their allocations.
func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]budget.Transaction, error) {
	txns, err := s.scanTransactions(ctx, query, args...)
	if err != nil || len(txns) == 0 {
		return txns, err
	}

	ids := make([]int64, len(txns))
	for i, t := range txns {
		ids[i] = t.ID
	}
	allocs, err := loadAllocations(ctx, s.q, ids)
	if err != nil {
		return nil, err
	}
	for i := range txns {
		txns[i].Allocations = allocs[txns[i].ID]
	}
	return txns, nil
}

func (s *Store) scanTransactions(ctx context.Context, query string, args ...any) ([]budget.Transaction, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txns []budget.Transaction
	for rows.Next() {
		var (
			t                                   budget.Transaction
			date                                string
			description, notes                  sql.NullString
			budgeted                            decimal.NullDecimal
			scheduledID, plannedID, reconcileID sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &date, &description, &t.AccountID, &t.AccountName, &budgeted,
			&scheduledID, &plannedID, &reconcileID, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if t.Date, err = budget.ParseDate(date); err != nil {
			return nil, fmt.Errorf("transaction %d date: %w", t.ID, err)
		}
		t.Description = description.String
		t.Notes = notes.String
		if budgeted.Valid {
			t.BudgetedAmount = &budgeted.Decimal
		}
		t.ScheduledID = idPtr(scheduledID)
		t.PlannedBudgetID = idPtr(plannedID)
		t.ReconcileID = idPtr(reconcileID)
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// loadAllocations returns allocations keyed by transaction id, in insertion order.
func loadAllocations(ctx context.Context, q querier, txnIDs []int64) (map[int64][]budget.Allocation, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(txnIDs)), ",")
	args := make([]any, len(txnIDs))
	for i, id := range txnIDs {
		args[i] = id
	}

	rows, err := q.QueryContext(ctx, `
		SELECT bt.trans_id, bt.budget_id, b.name, bt.amount
		FROM budget_transactions bt
		JOIN budgets b ON b.id = bt.budget_id
		WHERE bt.trans_id IN (`+placeholders+`)
		ORDER BY bt.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocations: %w", err)
	}
	defer rows.Close()

	result := make(map[int64][]budget.Allocation, len(txnIDs))
	for rows.Next() {
		var (
			txnID int64
			a     budget.Allocation
		)
		if err := rows.Scan(&txnID, &a.BudgetID, &a.BudgetName, &a.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan allocation: %w", err)
		}
		result[txnID] = append(result[txnID], a)
	}
	return result, rows.Err()
}

func insertAllocations(ctx context.Context, q querier, txnID int64, allocs []budget.Allocation) error {
	for _, a := range allocs {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO budget_transactions (trans_id, budget_id, amount) VALUES (?, ?, ?)`,
			txnID, a.BudgetID, a.Amount,
		); err != nil {
			return fmt.Errorf("failed to insert allocation: %w", err)
		}
	}
	return nil
}

func (s *Store) requireAccount(ctx context.Context, q querier, id int64) error {
	var found int64
	err := q.QueryRowContext(ctx, `SELECT id FROM accounts WHERE id = ?`, id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return &budget.NotFoundError{Kind: "account", ID: id}
	}
	return err
}

// checkAllocations requires every allocated budget to exist and be active.
func (s *Store) checkAllocations(ctx context.Context, q querier, allocs []budget.Allocation) error {
	for _, a := range allocs {
		b, err := s.getBudget(ctx, q, a.BudgetID)
		if err != nil {
			return err
		}
		if !b.IsActive {
			return &budget.InactiveBudgetError{BudgetID: b.ID}
		}
	}
	return nil
}

// applyStanding moves standing budget balances from the old allocations to
// the new ones.
func (s *Store) applyStanding(ctx context.Context, q querier, old, updated []budget.Allocation) error {
	deltas := make(map[int64]decimal.Decimal)
	var order []int64
	add := func(id int64, amt decimal.Decimal) {
		if _, ok := deltas[id]; !ok {
			order = append(order, id)
		}
		deltas[id] = deltas[id].Add(amt)
	}
	for _, a := range old {
		add(a.BudgetID, a.Amount)
	}
	for _, a := range updated {
		add(a.BudgetID, a.Amount.Neg())
	}

	for _, id := range order {
		b, err := s.getBudget(ctx, q, id)
		if err != nil {
			return err
		}
		if !b.IsStanding() {
			continue
		}
		if _, err := q.ExecContext(ctx, `UPDATE budgets SET current_balance = ? WHERE id = ?`,
			b.CurrentBalance.Add(deltas[id]), id); err != nil {
			return fmt.Errorf("failed to update budget %d balance: %w", id, err)
		}
	}
	return nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for demo scenarios).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.atomic(ctx, func(q querier) error {
		tables := []string{"txn_reconciles", "budget_transactions", "transactions", "scheduled_transactions", "budgets", "accounts"}
		for _, table := range tables {
			if _, err := q.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return err
			}
		}
		return nil
	})
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt(v int) sql.NullInt64 {
	if v == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(v), Valid: true}
}

func nullID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func idPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

func nonZero(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}

func deref(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
