/*
Package interest simulates credit card statements and payoff strategies.

PURPOSE:
  Given each active credit account's balance, APR, interest calculation and
  minimum payment formula, projects statement by statement how long each
  card takes to pay off under a payoff method, and what it costs.

KEY TYPES:
  Calculation:       How a card charges interest over one billing period
  MinPaymentFormula: How a card computes its minimum payment
  BillingPeriod:     One calendar-month statement period
  Statement:         One billing period's balance, interest and minimum
  PayoffMethod:      How a total monthly payment is split across cards

SEE ALSO:
  - payoff.go: CalculatePayoffs simulation loop
  - helper.go: Builds statements from stored accounts
*/
package interest

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/budget-engine/budget"
)

var daysPerYear = decimal.NewFromInt(365)

// Adjustment is an amount applied on a given day: a balance change inside a
// statement, a max payment increase, or a one-time extra payment.
type Adjustment struct {
	Date   budget.Date     `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// Adjustments sums amounts per day.
type Adjustments []Adjustment

// On returns the total adjustment on d.
func (a Adjustments) On(d budget.Date) decimal.Decimal {
	total := decimal.Zero
	for _, adj := range a {
		if adj.Date.Equal(d) {
			total = total.Add(adj.Amount)
		}
	}
	return total
}

// Result is the outcome of one billing period.
type Result struct {
	InterestPaid decimal.Decimal
	EndBalance   decimal.Decimal
}

// Calculation charges interest on a principal over [first, last].
type Calculation interface {
	APR() decimal.Decimal
	Calculate(principal decimal.Decimal, first, last budget.Date, txns Adjustments) Result
}

// =============================================================================
// AVERAGE DAILY BALANCE, COMPOUNDED DAILY
// =============================================================================

// AdbCompoundedDaily is the average daily balance method compounded daily,
// as American Express does it.
type AdbCompoundedDaily struct {
	apr decimal.Decimal
}

func NewAdbCompoundedDaily(apr decimal.Decimal) *AdbCompoundedDaily {
	return &AdbCompoundedDaily{apr: apr}
}

func (c *AdbCompoundedDaily) APR() decimal.Decimal { return c.apr }

func (c *AdbCompoundedDaily) Calculate(principal decimal.Decimal, first, last budget.Date, txns Adjustments) Result {
	dpr := c.apr.Div(daysPerYear)
	bal := principal
	balTotal := decimal.Zero
	numDays := 0

	for d := first; d.BeforeOrEqual(last); d = d.AddDays(1) {
		numDays++
		bal = bal.Add(txns.On(d))
		bal = bal.Add(bal.Mul(dpr))
		balTotal = balTotal.Add(bal)
	}
	if numDays == 0 {
		return Result{InterestPaid: decimal.Zero, EndBalance: principal}
	}

	days := decimal.NewFromInt(int64(numDays))
	adb := balTotal.Div(days)
	final := adb.Mul(c.apr).Mul(days).Div(daysPerYear)
	bal = bal.Add(final.Mul(dpr))
	return Result{InterestPaid: final, EndBalance: bal}
}

func (c *AdbCompoundedDaily) String() string {
	return fmt.Sprintf("AdbCompoundedDaily(%s)", c.apr)
}

// =============================================================================
// SIMPLE INTEREST
// =============================================================================

// SimpleInterest charges interest once, on the balance at the end of the period.
type SimpleInterest struct {
	apr decimal.Decimal
}

func NewSimpleInterest(apr decimal.Decimal) *SimpleInterest {
	return &SimpleInterest{apr: apr}
}

func (c *SimpleInterest) APR() decimal.Decimal { return c.apr }

func (c *SimpleInterest) Calculate(principal decimal.Decimal, first, last budget.Date, txns Adjustments) Result {
	bal := principal
	numDays := 0
	for d := first; d.BeforeOrEqual(last); d = d.AddDays(1) {
		numDays++
		bal = bal.Add(txns.On(d))
	}
	final := bal.Mul(c.apr).Mul(decimal.NewFromInt(int64(numDays))).Div(daysPerYear)
	return Result{InterestPaid: final, EndBalance: bal.Add(final)}
}

func (c *SimpleInterest) String() string {
	return fmt.Sprintf("SimpleInterest(%s)", c.apr)
}

func init() {
	RegisterCalculation(CalculationInfo{
		Name:        "AdbCompoundedDaily",
		Description: "Average Daily Balance Compounded Daily (AmEx)",
		New:         func(apr decimal.Decimal) Calculation { return NewAdbCompoundedDaily(apr) },
	})
	RegisterCalculation(CalculationInfo{
		Name:        "SimpleInterest",
		Description: "Interest charged once on the balance at end of period.",
		New:         func(apr decimal.Decimal) Calculation { return NewSimpleInterest(apr) },
	})
}
