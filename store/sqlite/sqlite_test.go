package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/budget-engine/budget"
	"github.com/warp/budget-engine/payperiod"
	"github.com/warp/budget-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type fixture struct {
	t        *testing.T
	ctx      context.Context
	store    *sqlite.Store
	checking budget.Account
	food     budget.Budget
	savings  budget.Budget
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	f := &fixture{t: t, ctx: context.Background(), store: s}
	f.checking, err = s.CreateAccount(f.ctx, budget.Account{Name: "Checking", Type: budget.AccountBank, IsActive: true, Balance: dec("2500")})
	require.NoError(t, err)
	f.food, err = s.CreateBudget(f.ctx, budget.Budget{Name: "Food", IsPeriodic: true, IsActive: true, StartingBalance: dec("300")})
	require.NoError(t, err)
	f.savings, err = s.CreateBudget(f.ctx, budget.Budget{Name: "Savings", IsActive: true, CurrentBalance: dec("1000")})
	require.NoError(t, err)
	return f
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func date(s string) budget.Date { return budget.MustParseDate(s) }

func (f *fixture) txn(d string, allocs ...budget.Allocation) budget.Transaction {
	f.t.Helper()
	created, err := f.store.CreateTransaction(f.ctx, budget.Transaction{
		Date: date(d), Description: "txn " + d, AccountID: f.checking.ID, Allocations: allocs,
	})
	require.NoError(f.t, err)
	return created
}

func (f *fixture) scheduled(st budget.ScheduledTransaction) budget.ScheduledTransaction {
	f.t.Helper()
	if st.Description == "" {
		st.Description = "scheduled"
	}
	st.AccountID = f.checking.ID
	st.IsActive = true
	if st.BudgetID == 0 {
		st.BudgetID = f.food.ID
	}
	created, err := f.store.CreateScheduled(f.ctx, st)
	require.NoError(f.t, err)
	return created
}

func alloc(b budget.Budget, amount string) budget.Allocation {
	return budget.Allocation{BudgetID: b.ID, Amount: dec(amount)}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

// =============================================================================
// ACCOUNTS AND BUDGETS
// =============================================================================

func TestStore_AccountRoundTrip(t *testing.T) {
	f := newFixture(t)

	card, err := f.store.CreateAccount(f.ctx, budget.Account{
		Name: "AmEx", Type: budget.AccountCredit, IsActive: true,
		Balance: dec("-1234.56"), BalanceDate: date("2017-07-20"), APR: dec("0.1999"),
		InterestClass: "AdbCompoundedDaily", MinPaymentClass: "MinPaymentAmEx",
		CreditLimit: budget.DecimalPtr("5000"),
	})
	require.NoError(t, err)
	_, err = f.store.CreateAccount(f.ctx, budget.Account{Name: "Closed", Type: budget.AccountCredit})
	require.NoError(t, err)

	got, err := f.store.GetAccount(f.ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, budget.AccountCredit, got.Type)
	assertDecimal(t, "-1234.56", got.Balance, "balance")
	assertDecimal(t, "0.1999", got.APR, "apr")
	assert.Equal(t, "2017-07-20", got.BalanceDate.String())
	assert.Equal(t, "MinPaymentAmEx", got.MinPaymentClass)
	require.NotNil(t, got.CreditLimit)
	assertDecimal(t, "5000", *got.CreditLimit, "credit limit")

	bank, err := f.store.GetAccount(f.ctx, f.checking.ID)
	require.NoError(t, err)
	assert.Nil(t, bank.CreditLimit)
	assert.True(t, bank.BalanceDate.IsZero())

	credit, err := f.store.ActiveCreditAccounts(f.ctx)
	require.NoError(t, err)
	require.Len(t, credit, 1)
	assert.Equal(t, "AmEx", credit[0].Name)

	all, err := f.store.ListAccounts(f.ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStore_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.store.GetAccount(f.ctx, 999)
	assert.True(t, budget.IsNotFound(err))
	_, err = f.store.GetBudget(f.ctx, 999)
	assert.True(t, budget.IsNotFound(err))
	_, err = f.store.GetTransaction(f.ctx, 999)
	assert.True(t, budget.IsNotFound(err))

	_, err = f.store.CreateTransaction(f.ctx, budget.Transaction{
		Date: date("2017-07-22"), AccountID: 999, Allocations: []budget.Allocation{alloc(f.food, "1")},
	})
	var nf *budget.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "account", nf.Kind)
}

func TestStore_ActiveBudgets(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.CreateBudget(f.ctx, budget.Budget{Name: "Retired", IsPeriodic: true})
	require.NoError(t, err)

	active, err := f.store.ActiveBudgets(f.ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "Food", active[0].Name)
	assert.True(t, active[1].IsStanding())

	all, err := f.store.ListBudgets(f.ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

// =============================================================================
// TRANSACTIONS AND STANDING BALANCES
// =============================================================================

func TestStore_CreateTransaction_DebitsStandingBudget(t *testing.T) {
	// GIVEN: a standing budget with 1000
	f := newFixture(t)

	// WHEN: a split transaction charges it 200
	txn := f.txn("2017-07-22", alloc(f.savings, "200"), alloc(f.food, "50.25"))

	// THEN: allocations come back in order with names
	require.Len(t, txn.Allocations, 2)
	assert.Equal(t, "Savings", txn.Allocations[0].BudgetName)
	assertDecimal(t, "250.25", txn.Amount(), "amount")
	assert.Equal(t, "Checking", txn.AccountName)

	// AND: only the standing budget moved
	savings, err := f.store.GetBudget(f.ctx, f.savings.ID)
	require.NoError(t, err)
	assertDecimal(t, "800", savings.CurrentBalance, "savings")
	food, err := f.store.GetBudget(f.ctx, f.food.ID)
	require.NoError(t, err)
	assert.True(t, food.CurrentBalance.IsZero())
}

func TestStore_SetAllocations_MovesStandingBalance(t *testing.T) {
	f := newFixture(t)
	txn := f.txn("2017-07-22", alloc(f.savings, "200"))

	updated, err := f.store.SetAllocations(f.ctx, txn.ID, []budget.Allocation{alloc(f.food, "200")})
	require.NoError(t, err)
	require.Len(t, updated.Allocations, 1)
	assert.Equal(t, f.food.ID, updated.Allocations[0].BudgetID)

	savings, err := f.store.GetBudget(f.ctx, f.savings.ID)
	require.NoError(t, err)
	assertDecimal(t, "1000", savings.CurrentBalance, "savings restored")

	_, err = f.store.SetAllocations(f.ctx, 999, []budget.Allocation{alloc(f.food, "1")})
	assert.True(t, budget.IsNotFound(err))
}

func TestStore_InactiveBudgetRejected(t *testing.T) {
	f := newFixture(t)
	retired, err := f.store.CreateBudget(f.ctx, budget.Budget{Name: "Retired", IsPeriodic: true})
	require.NoError(t, err)

	_, err = f.store.CreateTransaction(f.ctx, budget.Transaction{
		Date: date("2017-07-22"), AccountID: f.checking.ID,
		Allocations: []budget.Allocation{alloc(f.savings, "10"), alloc(retired, "5")},
	})
	assert.ErrorIs(t, err, budget.ErrInactiveBudget)

	// nothing was written, including the standing debit
	savings, err := f.store.GetBudget(f.ctx, f.savings.ID)
	require.NoError(t, err)
	assertDecimal(t, "1000", savings.CurrentBalance, "savings")
}

func TestStore_TransactionsBetween(t *testing.T) {
	f := newFixture(t)
	sched := f.scheduled(budget.ScheduledTransaction{Amount: dec("80"), NumPerPeriod: 1})

	second := f.txn("2017-07-25", alloc(f.food, "2"))
	first := f.txn("2017-07-21", alloc(f.food, "1"))
	third := f.txn("2017-07-25", alloc(f.food, "3"))
	f.txn("2017-08-04", alloc(f.food, "4"))

	planned, err := f.store.CreateTransaction(f.ctx, budget.Transaction{
		Date: date("2017-08-03"), AccountID: f.checking.ID,
		Allocations:     []budget.Allocation{alloc(f.food, "75")},
		BudgetedAmount:  budget.DecimalPtr("80"),
		ScheduledID:     &sched.ID,
		PlannedBudgetID: &f.food.ID,
	})
	require.NoError(t, err)

	txns, err := f.store.TransactionsBetween(f.ctx, date("2017-07-21"), date("2017-08-03"))
	require.NoError(t, err)

	var ids []int64
	for _, txn := range txns {
		ids = append(ids, txn.ID)
	}
	assert.Equal(t, []int64{first.ID, second.ID, third.ID, planned.ID}, ids)

	last := txns[3]
	require.NotNil(t, last.BudgetedAmount)
	assertDecimal(t, "80", *last.BudgetedAmount, "budgeted")
	require.NotNil(t, last.ScheduledID)
	assert.Equal(t, sched.ID, *last.ScheduledID)
	assert.Nil(t, txns[0].BudgetedAmount)
	assert.Nil(t, txns[0].ReconcileID)
}

// =============================================================================
// SCHEDULED TRANSACTIONS
// =============================================================================

func TestStore_ScheduledQueries(t *testing.T) {
	f := newFixture(t)
	d, later := date("2017-07-28"), date("2017-09-01")

	byDate := f.scheduled(budget.ScheduledTransaction{Amount: dec("10"), Date: &d})
	f.scheduled(budget.ScheduledTransaction{Amount: dec("10"), Date: &later})
	day3 := f.scheduled(budget.ScheduledTransaction{Amount: dec("5"), DayOfMonth: 3})
	f.scheduled(budget.ScheduledTransaction{Amount: dec("5"), DayOfMonth: 15})
	day28 := f.scheduled(budget.ScheduledTransaction{Amount: dec("5"), DayOfMonth: 28})
	big := f.scheduled(budget.ScheduledTransaction{Amount: dec("30"), NumPerPeriod: 1})
	small := f.scheduled(budget.ScheduledTransaction{Amount: dec("9.5"), NumPerPeriod: 1})
	twice := f.scheduled(budget.ScheduledTransaction{Amount: dec("1"), NumPerPeriod: 2})

	_, err := f.store.CreateScheduled(f.ctx, budget.ScheduledTransaction{
		Description: "off", Amount: dec("1"), AccountID: f.checking.ID, BudgetID: f.food.ID, NumPerPeriod: 1,
	})
	require.NoError(t, err)

	t.Run("by date", func(t *testing.T) {
		got, err := f.store.ScheduledByDate(f.ctx, date("2017-07-21"), date("2017-08-03"))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, byDate.ID, got[0].ID)
		assert.Equal(t, budget.ScheduleDate, got[0].Type())
		assert.Equal(t, "Food", got[0].BudgetName)
	})

	t.Run("monthly wraps month end", func(t *testing.T) {
		got, err := f.store.ScheduledMonthly(f.ctx, 21, 3)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, day3.ID, got[0].ID)
		assert.Equal(t, day28.ID, got[1].ID)
	})

	t.Run("monthly within month", func(t *testing.T) {
		got, err := f.store.ScheduledMonthly(f.ctx, 4, 17)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, 15, got[0].DayOfMonth)
	})

	t.Run("per period ordering skips inactive", func(t *testing.T) {
		got, err := f.store.ScheduledPerPeriod(f.ctx)
		require.NoError(t, err)
		var ids []int64
		for _, s := range got {
			ids = append(ids, s.ID)
		}
		assert.Equal(t, []int64{small.ID, big.ID, twice.ID}, ids)
	})

	all, err := f.store.ListScheduled(f.ctx)
	require.NoError(t, err)
	assert.Len(t, all, 9)
}

func TestStore_CreateScheduled_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.store.CreateScheduled(f.ctx, budget.ScheduledTransaction{
		Description: "both", Amount: dec("1"), AccountID: f.checking.ID, BudgetID: f.food.ID,
		DayOfMonth: 5, NumPerPeriod: 1, IsActive: true,
	})
	assert.ErrorIs(t, err, budget.ErrInvalidInput)

	_, err = f.store.CreateScheduled(f.ctx, budget.ScheduledTransaction{
		Description: "ghost budget", Amount: dec("1"), AccountID: f.checking.ID, BudgetID: 999,
		NumPerPeriod: 1, IsActive: true,
	})
	assert.True(t, budget.IsNotFound(err))
}

// =============================================================================
// TRANSACTIONS, RECONCILE, RESET
// =============================================================================

func TestStore_WithTx_RollsBack(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("boom")

	err := f.store.WithTx(f.ctx, func(tx budget.Store) error {
		if _, err := tx.CreateTransaction(f.ctx, budget.Transaction{
			Date: date("2017-07-22"), AccountID: f.checking.ID,
			Allocations: []budget.Allocation{alloc(f.savings, "500")},
		}); err != nil {
			return err
		}
		// the write is visible inside the transaction
		savings, err := tx.GetBudget(f.ctx, f.savings.ID)
		if err != nil {
			return err
		}
		assertDecimal(t, "500", savings.CurrentBalance, "savings inside tx")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	txns, err := f.store.TransactionsBetween(f.ctx, budget.MinDate, date("2100-01-01"))
	require.NoError(t, err)
	assert.Empty(t, txns)

	savings, err := f.store.GetBudget(f.ctx, f.savings.ID)
	require.NoError(t, err)
	assertDecimal(t, "1000", savings.CurrentBalance, "savings after rollback")
}

func TestStore_WithTx_Commits(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.store.WithTx(f.ctx, func(tx budget.Store) error {
		visa, err := tx.CreateAccount(f.ctx, budget.Account{Name: "Visa", Type: budget.AccountCredit, IsActive: true})
		if err != nil {
			return err
		}
		_, err = tx.CreateScheduled(f.ctx, budget.ScheduledTransaction{
			Description: "card payment", Amount: dec("100"), AccountID: visa.ID, BudgetID: f.food.ID,
			DayOfMonth: 10, IsActive: true,
		})
		return err
	}))

	credit, err := f.store.ActiveCreditAccounts(f.ctx)
	require.NoError(t, err)
	require.Len(t, credit, 1)

	monthly, err := f.store.ScheduledMonthly(f.ctx, 4, 17)
	require.NoError(t, err)
	require.Len(t, monthly, 1)
	assert.Equal(t, "Visa", monthly[0].AccountName)
}

func TestStore_ReconcileAndReset(t *testing.T) {
	f := newFixture(t)
	txn := f.txn("2017-07-22", alloc(f.food, "9"))

	rec, err := f.store.Reconcile(f.ctx, budget.Reconcile{TransactionID: txn.ID, OFXAccountID: 7, OFXFitID: "FIT1"})
	require.NoError(t, err)
	assert.False(t, rec.ReconciledAt.IsZero())

	got, err := f.store.GetTransaction(f.ctx, txn.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReconcileID)
	assert.Equal(t, rec.ID, *got.ReconcileID)

	_, err = f.store.Reconcile(f.ctx, budget.Reconcile{TransactionID: txn.ID, OFXFitID: "FIT2"})
	assert.ErrorIs(t, err, budget.ErrInvalidInput)

	_, err = f.store.Reconcile(f.ctx, budget.Reconcile{TransactionID: 999})
	assert.True(t, budget.IsNotFound(err))

	require.NoError(t, f.store.Reset(f.ctx))
	accounts, err := f.store.ListAccounts(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

// =============================================================================
// PAY PERIOD ENGINE ON SQLITE
// =============================================================================

func TestStore_DrivesPayPeriod(t *testing.T) {
	// GIVEN: a 300 food budget with one scheduled and one actual entry
	f := newFixture(t)
	f.scheduled(budget.ScheduledTransaction{Amount: dec("40"), NumPerPeriod: 2})
	f.txn("2017-07-24", alloc(f.food, "12.34"))
	f.txn("2017-07-24", alloc(f.savings, "100"))

	now := func() time.Time { return time.Date(2017, time.July, 25, 12, 0, 0, 0, time.UTC) }
	cal := payperiod.NewCalendar(date("2017-07-21"), f.store, payperiod.WithClock(now))

	// WHEN: the current period is summed
	sums, err := cal.Current().BudgetSums(f.ctx)
	require.NoError(t, err)

	// THEN: only the periodic budget is tracked
	require.Len(t, sums, 1)
	food := sums[f.food.ID]
	require.NotNil(t, food)
	assertDecimal(t, "92.34", food.Allocated, "allocated")
	assertDecimal(t, "12.34", food.Spent, "spent")
	assertDecimal(t, "207.66", food.Remaining, "remaining")

	ledger, err := cal.Current().Transactions(f.ctx)
	require.NoError(t, err)
	assert.Len(t, ledger, 4)
}

func TestScheduledPerPeriod_ExactAmountOrder(t *testing.T) {
	// GIVEN: amounts equal as floats but not as decimals, larger one first
	f := newFixture(t)
	larger := f.scheduled(budget.ScheduledTransaction{Description: "larger", Amount: dec("0.10000000000000000002"), NumPerPeriod: 1})
	smaller := f.scheduled(budget.ScheduledTransaction{Description: "smaller", Amount: dec("0.10000000000000000001"), NumPerPeriod: 1})
	twice := f.scheduled(budget.ScheduledTransaction{Description: "twice", Amount: dec("0.01"), NumPerPeriod: 2})

	// WHEN
	got, err := f.store.ScheduledPerPeriod(f.ctx)
	require.NoError(t, err)

	// THEN: num_per_period, then exact amount
	require.Len(t, got, 3)
	assert.Equal(t, []int64{smaller.ID, larger.ID, twice.ID}, []int64{got[0].ID, got[1].ID, got[2].ID})
	assertDecimal(t, "0.10000000000000000001", got[0].Amount, "amount")
}
