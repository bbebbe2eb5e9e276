/*
errors.go - Centralized error types for the budgeting engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Stores, the engine and the API wrap or inspect these errors.

ERROR CATEGORIES:
  1. Lookup errors - Referenced account/budget/transaction missing
  2. Validation errors - Bad input on write
  3. Simulation errors - Payoff simulator cannot proceed

USAGE:
  if budget.IsNotFound(err) {
      writeError(w, http.StatusNotFound, "Budget not found", err)
  }

SEE ALSO:
  - validate.go: Produces ValidationError
  - store/sqlite/sqlite.go: Produces NotFoundError
  - interest/payoff.go: Produces simulation errors
*/
package budget

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced record doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when a write fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInactiveBudget is returned when allocating to an inactive budget.
	ErrInactiveBudget = errors.New("budget is inactive")

	// ErrMinimumPaymentsExceedMax is returned when a payoff method's max total
	// payment cannot cover the sum of the minimum payments.
	ErrMinimumPaymentsExceedMax = errors.New("sum of minimum payments exceeds max total payment")

	// ErrPayoffDiverges is returned when balances are never paid off.
	ErrPayoffDiverges = errors.New("payoff does not converge")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError names the kind and id of the missing record.
type NotFoundError struct {
	Kind string // "account", "budget", "transaction", "scheduled transaction"
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// ValidationError describes one invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// InactiveBudgetError names the inactive budget.
type InactiveBudgetError struct {
	BudgetID int64
}

func (e *InactiveBudgetError) Error() string {
	return fmt.Sprintf("budget %d is inactive", e.BudgetID)
}

func (e *InactiveBudgetError) Unwrap() error {
	return ErrInactiveBudget
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInactiveBudget) ||
		errors.Is(err, ErrMinimumPaymentsExceedMax)
}
