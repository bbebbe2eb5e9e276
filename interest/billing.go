package interest

import (
	"fmt"

	"github.com/warp/budget-engine/budget"
)

// BillingPeriod is one statement period. Every period produced here runs
// from the first to the last day of a calendar month.
type BillingPeriod struct {
	start budget.Date
	end   budget.Date
}

// BillingPeriodFor returns the statement period a statement dated d closes.
// Before the 15th that is the previous month; otherwise it is d's month.
func BillingPeriodFor(d budget.Date) BillingPeriod {
	if d.Day() < 15 {
		end := budget.NewDate(d.Year(), d.Month(), 1).AddDays(-1)
		return BillingPeriod{start: budget.NewDate(end.Year(), end.Month(), 1), end: end}
	}
	return BillingPeriodStarting(budget.NewDate(d.Year(), d.Month(), 1))
}

// BillingPeriodStarting returns the period from start to the last day of
// start's month.
func BillingPeriodStarting(start budget.Date) BillingPeriod {
	return BillingPeriod{
		start: start,
		end:   budget.NewDate(start.Year(), start.Month(), start.DaysInMonth()),
	}
}

func (b BillingPeriod) Start() budget.Date { return b.start }
func (b BillingPeriod) End() budget.Date   { return b.end }

// PaymentDate is the middle of the period, rounded toward the start.
func (b BillingPeriod) PaymentDate() budget.Date {
	return b.start.AddDays(b.start.DaysUntil(b.end) / 2)
}

func (b BillingPeriod) Next() BillingPeriod {
	return BillingPeriodStarting(b.end.AddDays(1))
}

func (b BillingPeriod) Previous() BillingPeriod {
	e := b.start.AddDays(-1)
	return BillingPeriodStarting(budget.NewDate(e.Year(), e.Month(), 1))
}

func (b BillingPeriod) String() string {
	return fmt.Sprintf("BillingPeriod(%s - %s)", b.start, b.end)
}
