package payperiod_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/budget-engine/budget"
	"github.com/warp/budget-engine/budget/store"
	"github.com/warp/budget-engine/payperiod"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var epoch = budget.NewDate(2017, time.July, 21)

// fixedClock pins "today" inside the period 2017-07-21 .. 2017-08-03.
func fixedClock() time.Time { return time.Date(2017, time.July, 25, 12, 0, 0, 0, time.UTC) }

type fixture struct {
	t       *testing.T
	ctx     context.Context
	store   *store.Memory
	cal     *payperiod.Calendar
	account budget.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := store.NewMemory()
	ctx := context.Background()
	acct, err := s.CreateAccount(ctx, budget.Account{Name: "Checking", Type: budget.AccountBank, IsActive: true})
	require.NoError(t, err)
	return &fixture{
		t:       t,
		ctx:     ctx,
		store:   s,
		cal:     payperiod.NewCalendar(epoch, s, payperiod.WithClock(fixedClock)),
		account: acct,
	}
}

func (f *fixture) budget(b budget.Budget) budget.Budget {
	f.t.Helper()
	b.IsActive = true
	created, err := f.store.CreateBudget(f.ctx, b)
	require.NoError(f.t, err)
	return created
}

func (f *fixture) periodic(name, starting string) budget.Budget {
	return f.budget(budget.Budget{Name: name, IsPeriodic: true, StartingBalance: dec(starting)})
}

func (f *fixture) income(name, starting string) budget.Budget {
	return f.budget(budget.Budget{Name: name, IsPeriodic: true, IsIncome: true, StartingBalance: dec(starting)})
}

func (f *fixture) standing(name, current string) budget.Budget {
	return f.budget(budget.Budget{Name: name, CurrentBalance: dec(current)})
}

func (f *fixture) txn(date string, b budget.Budget, amount string, mods ...func(*budget.Transaction)) budget.Transaction {
	f.t.Helper()
	t := budget.Transaction{
		Date:        budget.MustParseDate(date),
		Description: "txn " + date,
		AccountID:   f.account.ID,
		Allocations: []budget.Allocation{{BudgetID: b.ID, Amount: dec(amount)}},
	}
	for _, mod := range mods {
		mod(&t)
	}
	created, err := f.store.CreateTransaction(f.ctx, t)
	require.NoError(f.t, err)
	return created
}

func (f *fixture) scheduled(b budget.Budget, amount string, mod func(*budget.ScheduledTransaction)) budget.ScheduledTransaction {
	f.t.Helper()
	s := budget.ScheduledTransaction{
		Description: "sched",
		Amount:      dec(amount),
		AccountID:   f.account.ID,
		BudgetID:    b.ID,
		IsActive:    true,
	}
	mod(&s)
	created, err := f.store.CreateScheduled(f.ctx, s)
	require.NoError(f.t, err)
	return created
}

func onDate(date string) func(*budget.ScheduledTransaction) {
	return func(s *budget.ScheduledTransaction) {
		d := budget.MustParseDate(date)
		s.Date = &d
	}
}

func monthlyOn(day int) func(*budget.ScheduledTransaction) {
	return func(s *budget.ScheduledTransaction) { s.DayOfMonth = day }
}

func perPeriod(n int) func(*budget.ScheduledTransaction) {
	return func(s *budget.ScheduledTransaction) { s.NumPerPeriod = n }
}

func fulfilling(s budget.ScheduledTransaction, budgeted string) func(*budget.Transaction) {
	return func(t *budget.Transaction) {
		t.ScheduledID = &s.ID
		t.BudgetedAmount = budget.DecimalPtr(budgeted)
		t.PlannedBudgetID = &s.BudgetID
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "%s: want %s, got %s", field, want, got)
}
