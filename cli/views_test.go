package cli_test

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/budget-engine/budget"
	"github.com/warp/budget-engine/cli"
	"github.com/warp/budget-engine/interest"
	"github.com/warp/budget-engine/payperiod"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestFormatMoney(t *testing.T) {
	tests := map[string]string{
		"0":          "0.00",
		"12.3":       "12.30",
		"-1234.5":    "-1,234.50",
		"1000000":    "1,000,000.00",
		"999.999":    "1,000.00",
		"-0.004":     "0.00",
		"123456.789": "123,456.79",
	}
	for in, want := range tests {
		assert.Equal(t, want, cli.FormatMoney(dec(in)), in)
	}
}

func TestRenderTable(t *testing.T) {
	out := cli.RenderTable(cli.Table{
		Title:   "Budgets",
		Headers: []string{"Budget", "Remaining"},
		Rows:    [][]string{{"Food", "247.66"}, cli.Separator, {"Car", "-12.00"}},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 8)
	assert.Contains(t, lines[0], "Budgets")
	assert.Contains(t, lines[2], "Budget")
	assert.Contains(t, lines[4], "Food")
	assert.Contains(t, lines[4], "247.66")
	assert.Contains(t, lines[6], "Car")

	// every bordered line has the same display width
	for _, l := range lines[2:] {
		assert.Equal(t, len([]rune(lines[1])), len([]rune(l)), l)
	}

	assert.Empty(t, cli.RenderTable(cli.Table{}))
}

func TestPeriodsTable(t *testing.T) {
	zero := &payperiod.OverallSums{}
	summaries := []payperiod.PeriodSummary{
		{Start: budget.MustParseDate("2017-07-07"), End: budget.MustParseDate("2017-07-20"), IsInPast: true, Overall: zero},
		{Start: budget.MustParseDate("2017-07-21"), End: budget.MustParseDate("2017-08-03"), Overall: &payperiod.OverallSums{
			Income: dec("2200"), Allocated: dec("1500"), Spent: dec("82.17"), Remaining: dec("700"),
		}},
	}

	tbl := cli.PeriodsTable(summaries, budget.MustParseDate("2017-07-21"))
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "2017-07-07 .. 2017-07-20 (past)", tbl.Rows[0][0])
	assert.Equal(t, "2017-07-21 .. 2017-08-03 *", tbl.Rows[1][0])
	assert.Equal(t, []string{"2,200.00", "1,500.00", "82.17", "700.00"}, tbl.Rows[1][1:])
}

func TestLedgerTable(t *testing.T) {
	reconciled := int64(9)
	records := []payperiod.Record{
		&payperiod.ScheduledRecord{Schedule: budget.SchedulePerPeriod, Description: "Gas", AccountName: "Checking", BudgetName: "Car", Amount: dec("60")},
		&payperiod.ActualRecord{
			Date: budget.MustParseDate("2017-07-23"), Description: "Target", AccountName: "Checking", Amount: dec("120"),
			Allocations: []budget.Allocation{{BudgetName: "Food", Amount: dec("70.55")}, {BudgetName: "Savings", Amount: dec("49.45")}},
			ReconcileID: &reconciled,
		},
	}

	tbl := cli.LedgerTable(records)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"(per period)", "scheduled", "Gas", "Checking", "Car", "60.00"}, tbl.Rows[0])
	assert.Equal(t, []string{"2017-07-23", "actual ✓", "Target", "Checking", "Food, Savings", "120.00"}, tbl.Rows[1])
}

func TestBudgetSumsTable(t *testing.T) {
	budgets := []budget.Budget{{ID: 1, Name: "Paycheck"}, {ID: 2, Name: "Food"}, {ID: 3, Name: "Savings"}}
	sums := map[int64]*payperiod.BudgetSums{
		1: {BudgetAmount: dec("2200"), IsIncome: true},
		2: {BudgetAmount: dec("450"), Allocated: dec("300"), Spent: dec("82.17"), Remaining: dec("150")},
	}

	tbl := cli.BudgetSumsTable(budgets, sums, &payperiod.OverallSums{Income: dec("2200")})
	require.Len(t, tbl.Rows, 4)
	assert.Equal(t, "Food", tbl.Rows[0][0])
	assert.Equal(t, "Paycheck (income)", tbl.Rows[1][0])
	assert.Equal(t, cli.Separator, tbl.Rows[2])
	assert.Equal(t, "income 2,200.00", tbl.Rows[3][1])
}

func TestPayoffTables(t *testing.T) {
	accounts := []budget.Account{
		{ID: 1, Name: "AmEx", Balance: dec("-3500"), APR: dec("0.1999")},
		{ID: 2, Name: "Citi", Balance: dec("-780"), APR: dec("0.2249")},
	}
	mins := map[int64]decimal.Decimal{1: dec("105"), 2: dec("35")}

	tbl := cli.PayoffAccountsTable(accounts, mins)
	assert.Equal(t, []string{"AmEx", "-3,500.00", "19.99%", "105.00"}, tbl.Rows[0])
	assert.Equal(t, []string{"Total", "", "", "140.00"}, tbl.Rows[len(tbl.Rows)-1])

	methods := []interest.MethodResult{
		{Description: "Minimum Payment Only", Results: map[int64]interest.AccountPayoff{
			1: {PayoffMonths: 40, TotalPayments: dec("4700"), TotalInterest: dec("1200")},
			2: {PayoffMonths: 30, TotalPayments: dec("900"), TotalInterest: dec("120")},
		}},
		{Description: "Lowest to Highest Balance", Error: "max total payment of 1.00 is less than sum of minimum payments (140.00)"},
	}
	tbl = methodsTable(t, accounts, methods)
	require.Len(t, tbl.Rows, 6)
	assert.Equal(t, []string{"  AmEx", "40", "4,700.00", "1,200.00"}, tbl.Rows[1])
	assert.Equal(t, cli.Separator, tbl.Rows[3])
	assert.Equal(t, "error", tbl.Rows[4][1])
	assert.Contains(t, tbl.Rows[5][0], "less than sum of minimum payments")
}

func methodsTable(t *testing.T, accounts []budget.Account, methods []interest.MethodResult) cli.Table {
	t.Helper()
	tbl := cli.PayoffMethodsTable(accounts, methods)
	assert.NotEmpty(t, cli.RenderTable(tbl))
	return tbl
}
