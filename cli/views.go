package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/budget-engine/budget"
	"github.com/warp/budget-engine/interest"
	"github.com/warp/budget-engine/payperiod"
)

// FormatMoney formats d with two decimals and thousands separators:
// -1234.5 becomes "-1,234.50".
func FormatMoney(d decimal.Decimal) string {
	d = d.Round(2)
	whole, frac, _ := strings.Cut(d.Abs().StringFixed(2), ".")

	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// PeriodsTable lists each period's overall sums. The period starting on
// current is marked.
func PeriodsTable(summaries []payperiod.PeriodSummary, current budget.Date) Table {
	t := Table{
		Title:   "Pay Periods",
		Headers: []string{"Period", "Income", "Allocated", "Spent", "Remaining"},
	}
	for _, s := range summaries {
		label := fmt.Sprintf("%s .. %s", s.Start, s.End)
		switch {
		case s.Start.Equal(current):
			label += " *"
		case s.IsInPast:
			label += " (past)"
		}
		t.Rows = append(t.Rows, []string{
			label,
			FormatMoney(s.Overall.Income),
			FormatMoney(s.Overall.Allocated),
			FormatMoney(s.Overall.Spent),
			FormatMoney(s.Overall.Remaining),
		})
	}
	return t
}

// LedgerTable lists a period's merged ledger in order.
func LedgerTable(records []payperiod.Record) Table {
	t := Table{
		Title:   "Transactions",
		Headers: []string{"Date", "Kind", "Description", "Account", "Budget", "Amount"},
	}
	for _, r := range records {
		date := "(per period)"
		if d, ok := r.When(); ok {
			date = d.String()
		}
		switch rec := r.(type) {
		case *payperiod.ActualRecord:
			kind := "actual"
			if rec.ReconcileID != nil {
				kind = "actual ✓"
			}
			t.Rows = append(t.Rows, []string{date, kind, rec.Description, rec.AccountName, allocationNames(rec.Allocations), FormatMoney(rec.Amount)})
		case *payperiod.ScheduledRecord:
			t.Rows = append(t.Rows, []string{date, "scheduled", rec.Description, rec.AccountName, rec.BudgetName, FormatMoney(rec.Amount)})
		}
	}
	return t
}

func allocationNames(allocs []budget.Allocation) string {
	names := make([]string, len(allocs))
	for i, a := range allocs {
		names[i] = a.BudgetName
	}
	return strings.Join(names, ", ")
}

// BudgetSumsTable lists per-budget sums by budget name, followed by the
// period's overall sums.
func BudgetSumsTable(budgets []budget.Budget, sums map[int64]*payperiod.BudgetSums, overall *payperiod.OverallSums) Table {
	t := Table{
		Title:   "Budgets",
		Headers: []string{"Budget", "Amount", "Allocated", "Spent", "Remaining"},
	}

	named := make([]budget.Budget, 0, len(sums))
	for _, b := range budgets {
		if _, ok := sums[b.ID]; ok {
			named = append(named, b)
		}
	}
	sort.SliceStable(named, func(i, j int) bool { return named[i].Name < named[j].Name })

	for _, b := range named {
		s := sums[b.ID]
		name := b.Name
		if s.IsIncome {
			name += " (income)"
		}
		t.Rows = append(t.Rows, []string{
			name,
			FormatMoney(s.BudgetAmount),
			FormatMoney(s.Allocated),
			FormatMoney(s.Spent),
			FormatMoney(s.Remaining),
		})
	}
	if overall != nil {
		t.Rows = append(t.Rows, Separator, []string{
			"Overall",
			"income " + FormatMoney(overall.Income),
			FormatMoney(overall.Allocated),
			FormatMoney(overall.Spent),
			FormatMoney(overall.Remaining),
		})
	}
	return t
}

// PayoffAccountsTable lists the credit accounts being paid off.
func PayoffAccountsTable(accounts []budget.Account, mins map[int64]decimal.Decimal) Table {
	t := Table{
		Title:   "Credit Accounts",
		Headers: []string{"Account", "Balance", "APR", "Min Payment"},
	}
	sum := decimal.Zero
	for _, a := range accounts {
		t.Rows = append(t.Rows, []string{
			a.Name,
			FormatMoney(a.Balance),
			a.APR.Shift(2).StringFixed(2) + "%",
			FormatMoney(mins[a.ID]),
		})
		sum = sum.Add(mins[a.ID])
	}
	t.Rows = append(t.Rows, Separator, []string{"Total", "", "", FormatMoney(sum)})
	return t
}

// PayoffMethodsTable has one row per method and account. A method that
// failed gets a single row holding its error.
func PayoffMethodsTable(accounts []budget.Account, methods []interest.MethodResult) Table {
	t := Table{
		Title:   "Payoff Methods",
		Headers: []string{"Method / Account", "Months", "Total Paid", "Interest"},
	}
	for i, m := range methods {
		if i > 0 {
			t.Rows = append(t.Rows, Separator)
		}
		if m.Error != "" {
			t.Rows = append(t.Rows, []string{m.Description, "error", "", ""})
			t.Rows = append(t.Rows, []string{"  " + m.Error, "", "", ""})
			continue
		}
		t.Rows = append(t.Rows, []string{m.Description, "", "", ""})
		for _, a := range accounts {
			r, ok := m.Results[a.ID]
			if !ok {
				continue
			}
			t.Rows = append(t.Rows, []string{
				"  " + a.Name,
				strconv.Itoa(r.PayoffMonths),
				FormatMoney(r.TotalPayments),
				FormatMoney(r.TotalInterest),
			})
		}
	}
	return t
}
