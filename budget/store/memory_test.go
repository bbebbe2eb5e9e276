package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/budget-engine/budget"
	"github.com/warp/budget-engine/budget/store"
)

type seed struct {
	account  budget.Account
	food     budget.Budget
	savings  budget.Budget
	inactive budget.Budget
}

func newSeededMemory(t *testing.T) (*store.Memory, seed) {
	t.Helper()
	ctx := context.Background()
	m := store.NewMemory()

	acct, err := m.CreateAccount(ctx, budget.Account{Name: "Checking", Type: budget.AccountBank, IsActive: true})
	require.NoError(t, err)
	food, err := m.CreateBudget(ctx, budget.Budget{Name: "Food", IsPeriodic: true, IsActive: true, StartingBalance: decimal.NewFromInt(300)})
	require.NoError(t, err)
	savings, err := m.CreateBudget(ctx, budget.Budget{Name: "Savings", IsActive: true, CurrentBalance: decimal.NewFromInt(1000)})
	require.NoError(t, err)
	inactive, err := m.CreateBudget(ctx, budget.Budget{Name: "Old", IsPeriodic: true})
	require.NoError(t, err)

	return m, seed{account: acct, food: food, savings: savings, inactive: inactive}
}

func alloc(b budget.Budget, amount int64) budget.Allocation {
	return budget.Allocation{BudgetID: b.ID, Amount: decimal.NewFromInt(amount)}
}

func TestMemory_CreateTransaction_DebitsStandingBudget(t *testing.T) {
	// GIVEN: a standing budget with 1000 and a periodic budget
	ctx := context.Background()
	m, s := newSeededMemory(t)

	// WHEN: a split transaction touches both
	txn, err := m.CreateTransaction(ctx, budget.Transaction{
		Date:        budget.MustParseDate("2017-07-22"),
		AccountID:   s.account.ID,
		Allocations: []budget.Allocation{alloc(s.savings, 200), alloc(s.food, 50)},
	})
	require.NoError(t, err)
	assert.Equal(t, "Checking", txn.AccountName)
	assert.Equal(t, "Savings", txn.Allocations[0].BudgetName)

	// THEN: only the standing budget's current balance moves
	savings, err := m.GetBudget(ctx, s.savings.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(800).Equal(savings.CurrentBalance), savings.CurrentBalance.String())

	food, err := m.GetBudget(ctx, s.food.ID)
	require.NoError(t, err)
	assert.True(t, food.CurrentBalance.IsZero())
}

func TestMemory_SetAllocations_MovesStandingBalance(t *testing.T) {
	ctx := context.Background()
	m, s := newSeededMemory(t)
	txn, err := m.CreateTransaction(ctx, budget.Transaction{
		Date:        budget.MustParseDate("2017-07-22"),
		AccountID:   s.account.ID,
		Allocations: []budget.Allocation{alloc(s.savings, 200)},
	})
	require.NoError(t, err)

	updated, err := m.SetAllocations(ctx, txn.ID, []budget.Allocation{alloc(s.food, 200)})
	require.NoError(t, err)
	assert.Equal(t, s.food.ID, updated.Allocations[0].BudgetID)

	savings, err := m.GetBudget(ctx, s.savings.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1000).Equal(savings.CurrentBalance), savings.CurrentBalance.String())
}

func TestMemory_RejectsInactiveAndMissingBudgets(t *testing.T) {
	ctx := context.Background()
	m, s := newSeededMemory(t)
	base := budget.Transaction{Date: budget.MustParseDate("2017-07-22"), AccountID: s.account.ID}

	base.Allocations = []budget.Allocation{alloc(s.inactive, 5)}
	_, err := m.CreateTransaction(ctx, base)
	var inactive *budget.InactiveBudgetError
	assert.ErrorAs(t, err, &inactive)
	assert.Equal(t, s.inactive.ID, inactive.BudgetID)

	base.Allocations = []budget.Allocation{{BudgetID: 999, Amount: decimal.NewFromInt(5)}}
	_, err = m.CreateTransaction(ctx, base)
	assert.True(t, budget.IsNotFound(err))

	_, err = m.SetAllocations(ctx, 12345, []budget.Allocation{alloc(s.food, 1)})
	var nf *budget.NotFoundError
	assert.ErrorAs(t, err, &nf)
	assert.Equal(t, "transaction", nf.Kind)
}

func TestMemory_QueryOrdering(t *testing.T) {
	ctx := context.Background()
	m, s := newSeededMemory(t)
	for _, d := range []string{"2017-07-25", "2017-07-21", "2017-07-25", "2017-08-04"} {
		_, err := m.CreateTransaction(ctx, budget.Transaction{
			Date: budget.MustParseDate(d), AccountID: s.account.ID,
			Allocations: []budget.Allocation{alloc(s.food, 1)},
		})
		require.NoError(t, err)
	}
	for _, spec := range []struct {
		num    int
		amount int64
	}{{2, 5}, {1, 30}, {1, 10}} {
		_, err := m.CreateScheduled(ctx, budget.ScheduledTransaction{
			Description: "p", AccountID: s.account.ID, BudgetID: s.food.ID, IsActive: true,
			NumPerPeriod: spec.num, Amount: decimal.NewFromInt(spec.amount),
		})
		require.NoError(t, err)
	}

	txns, err := m.TransactionsBetween(ctx, budget.MustParseDate("2017-07-21"), budget.MustParseDate("2017-08-03"))
	require.NoError(t, err)
	require.Len(t, txns, 3)
	assert.Equal(t, "2017-07-21", txns[0].Date.String())
	assert.Less(t, txns[1].ID, txns[2].ID)

	per, err := m.ScheduledPerPeriod(ctx)
	require.NoError(t, err)
	require.Len(t, per, 3)
	assert.Equal(t, []string{"10", "30", "5"}, []string{per[0].Amount.String(), per[1].Amount.String(), per[2].Amount.String()})
}

func TestMemory_WithTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	m, s := newSeededMemory(t)
	boom := errors.New("boom")

	err := m.WithTx(ctx, func(tx budget.Store) error {
		if _, err := tx.CreateTransaction(ctx, budget.Transaction{
			Date: budget.MustParseDate("2017-07-22"), AccountID: s.account.ID,
			Allocations: []budget.Allocation{alloc(s.savings, 300)},
		}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	txns, err := m.TransactionsBetween(ctx, budget.MinDate, budget.MustParseDate("2100-01-01"))
	require.NoError(t, err)
	assert.Empty(t, txns)

	savings, err := m.GetBudget(ctx, s.savings.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1000).Equal(savings.CurrentBalance))
}

func TestMemory_WithTx_Commits(t *testing.T) {
	ctx := context.Background()
	m, _ := newSeededMemory(t)

	require.NoError(t, m.WithTx(ctx, func(tx budget.Store) error {
		_, err := tx.CreateAccount(ctx, budget.Account{Name: "Visa", Type: budget.AccountCredit, IsActive: true})
		return err
	}))

	credit, err := m.ActiveCreditAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, credit, 1)
	assert.Equal(t, "Visa", credit[0].Name)
}

func TestMemory_ReconcileAndReset(t *testing.T) {
	ctx := context.Background()
	m, s := newSeededMemory(t)
	txn, err := m.CreateTransaction(ctx, budget.Transaction{
		Date: budget.MustParseDate("2017-07-22"), AccountID: s.account.ID,
		Allocations: []budget.Allocation{alloc(s.food, 9)},
	})
	require.NoError(t, err)

	rec, err := m.Reconcile(ctx, budget.Reconcile{TransactionID: txn.ID, OFXFitID: "FIT1"})
	require.NoError(t, err)
	assert.False(t, rec.ReconciledAt.IsZero())

	got, err := m.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReconcileID)
	assert.Equal(t, rec.ID, *got.ReconcileID)

	_, err = m.Reconcile(ctx, budget.Reconcile{TransactionID: txn.ID, OFXFitID: "FIT2"})
	assert.ErrorIs(t, err, budget.ErrInvalidInput)

	require.NoError(t, m.Reset(ctx))
	accounts, err := m.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}
