package budget

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks an account before it is written.
func (a Account) Validate() error {
	var errs []error
	if strings.TrimSpace(a.Name) == "" {
		errs = append(errs, &ValidationError{Field: "name", Message: "is required"})
	}
	if !a.Type.Valid() {
		errs = append(errs, &ValidationError{Field: "type", Message: fmt.Sprintf("unknown account type %q", a.Type)})
	}
	if a.APR.IsNegative() {
		errs = append(errs, &ValidationError{Field: "apr", Message: "must not be negative"})
	}
	return errors.Join(errs...)
}

// Validate checks a budget before it is written.
func (b Budget) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	return nil
}

// Validate checks a transaction before it is written.
func (t Transaction) Validate() error {
	var errs []error
	if t.Date.IsZero() {
		errs = append(errs, &ValidationError{Field: "date", Message: "is required"})
	}
	if t.AccountID == 0 {
		errs = append(errs, &ValidationError{Field: "account_id", Message: "is required"})
	}
	if err := ValidateAllocations(t.Allocations); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ValidateAllocations requires at least one allocation, each against a budget,
// and no budget listed twice.
func ValidateAllocations(allocs []Allocation) error {
	if len(allocs) == 0 {
		return &ValidationError{Field: "budgets", Message: "at least one budget allocation is required"}
	}
	seen := make(map[int64]bool, len(allocs))
	for _, a := range allocs {
		if a.BudgetID == 0 {
			return &ValidationError{Field: "budgets", Message: "allocation is missing a budget"}
		}
		if seen[a.BudgetID] {
			return &ValidationError{Field: "budgets", Message: fmt.Sprintf("budget %d allocated twice", a.BudgetID)}
		}
		seen[a.BudgetID] = true
	}
	return nil
}

// Validate checks a scheduled transaction before it is written.
// Exactly one of Date, DayOfMonth and NumPerPeriod must be set.
func (s ScheduledTransaction) Validate() error {
	var errs []error
	if strings.TrimSpace(s.Description) == "" {
		errs = append(errs, &ValidationError{Field: "description", Message: "is required"})
	}
	if s.AccountID == 0 {
		errs = append(errs, &ValidationError{Field: "account_id", Message: "is required"})
	}
	if s.BudgetID == 0 {
		errs = append(errs, &ValidationError{Field: "budget_id", Message: "is required"})
	}

	selectors := 0
	if s.Date != nil {
		selectors++
	}
	if s.DayOfMonth != 0 {
		selectors++
		if s.DayOfMonth < 1 || s.DayOfMonth > 28 {
			errs = append(errs, &ValidationError{Field: "day_of_month", Message: "must be between 1 and 28"})
		}
	}
	if s.NumPerPeriod != 0 {
		selectors++
		if s.NumPerPeriod < 0 {
			errs = append(errs, &ValidationError{Field: "num_per_period", Message: "must be greater than zero"})
		}
	}
	if selectors != 1 {
		errs = append(errs, &ValidationError{Field: "schedule", Message: "exactly one of date, day_of_month or num_per_period is required"})
	}
	return errors.Join(errs...)
}
