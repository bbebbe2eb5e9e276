/*
registry.go - Name registries for interest calculations, minimum payment
formulas and payoff methods

PURPOSE:
  Accounts store the names of their interest calculation and minimum
  payment formula as plain strings. The registries turn those names back
  into implementations, and list what is available for the API and CLI.

HOW IT WORKS:
  1. Each implementation registers itself in init() with a description
  2. Statement construction looks names up with NewCalculation/NewMinPaymentFormula
  3. The helper walks PayoffMethods() in name order

USAGE:
  calc, err := interest.NewCalculation("AdbCompoundedDaily", apr)
  if err != nil {
      return err // *UnknownNameError, unwraps to budget.ErrInvalidInput
  }

SEE ALSO:
  - calculation.go: Interest calculations
  - minpayment.go: Minimum payment formulas
  - payoff.go: Payoff methods
*/
package interest

import (
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/warp/budget-engine/budget"
)

// =============================================================================
// GENERIC REGISTRY
// =============================================================================

type registry[T any] struct {
	mu    sync.RWMutex
	items map[string]T
}

func newRegistry[T any]() *registry[T] {
	return &registry[T]{items: make(map[string]T)}
}

func (r *registry[T]) register(name string, item T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[name] = item
}

func (r *registry[T]) lookup(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[name]
	return item, ok
}

// sorted returns every registered item ordered by name.
func (r *registry[T]) sorted() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	sort.Strings(names)
	result := make([]T, 0, len(names))
	for _, name := range names {
		result = append(result, r.items[name])
	}
	return result
}

// UnknownNameError is returned for a class name nothing registered.
type UnknownNameError struct {
	Kind string // "interest calculation", "minimum payment formula", "payoff method"
	Name string
}

func (e *UnknownNameError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.Name)
}

func (e *UnknownNameError) Unwrap() error {
	return budget.ErrInvalidInput
}

// =============================================================================
// INTEREST CALCULATIONS
// =============================================================================

// CalculationInfo describes a registered interest calculation.
type CalculationInfo struct {
	Name        string                                `json:"name"`
	Description string                                `json:"description"`
	New         func(apr decimal.Decimal) Calculation `json:"-"`
}

var calculations = newRegistry[CalculationInfo]()

func RegisterCalculation(info CalculationInfo) { calculations.register(info.Name, info) }

// Calculations lists registered interest calculations by name.
func Calculations() []CalculationInfo { return calculations.sorted() }

// NewCalculation builds the named interest calculation for apr.
func NewCalculation(name string, apr decimal.Decimal) (Calculation, error) {
	info, ok := calculations.lookup(name)
	if !ok {
		return nil, &UnknownNameError{Kind: "interest calculation", Name: name}
	}
	return info.New(apr), nil
}

// =============================================================================
// MINIMUM PAYMENT FORMULAS
// =============================================================================

type FormulaInfo struct {
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	New         func() MinPaymentFormula `json:"-"`
}

var formulas = newRegistry[FormulaInfo]()

func RegisterMinPaymentFormula(info FormulaInfo) { formulas.register(info.Name, info) }

func MinPaymentFormulas() []FormulaInfo { return formulas.sorted() }

func NewMinPaymentFormula(name string) (MinPaymentFormula, error) {
	info, ok := formulas.lookup(name)
	if !ok {
		return nil, &UnknownNameError{Kind: "minimum payment formula", Name: name}
	}
	return info.New(), nil
}

// =============================================================================
// PAYOFF METHODS
// =============================================================================

// MethodInfo describes a registered payoff method. Hidden methods
// (ShowInUI false) exist for tests and are skipped by the helper.
type MethodInfo struct {
	Name        string                           `json:"name"`
	Description string                           `json:"description"`
	ShowInUI    bool                             `json:"show_in_ui"`
	New         func(limits Limits) PayoffMethod `json:"-"`
}

var methods = newRegistry[MethodInfo]()

func RegisterPayoffMethod(info MethodInfo) { methods.register(info.Name, info) }

// PayoffMethods lists registered payoff methods by name.
func PayoffMethods() []MethodInfo { return methods.sorted() }

func NewPayoffMethod(name string, limits Limits) (PayoffMethod, error) {
	info, ok := methods.lookup(name)
	if !ok {
		return nil, &UnknownNameError{Kind: "payoff method", Name: name}
	}
	return info.New(limits), nil
}
