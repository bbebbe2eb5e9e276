/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Provides pre-built scenarios that populate the database with realistic
  data for demos. Dates are laid out around the pay period containing
  today, so the overview always has something to show.

AVAILABLE SCENARIOS:
  empty:        Nothing at all
  household:    Checking account, periodic and standing budgets, every
                schedule type, actuals in the previous and current period
  credit-cards: household plus three credit cards for the payoff simulator

HOW SCENARIOS WORK:
  1. Reset database (clear all data)
  2. Create accounts and budgets
  3. Create scheduled transactions
  4. Add actual transactions, some fulfilling scheduled ones
  All inside one WithTx, so a failed load leaves the old data in place.

USAGE VIA API:
  POST /api/scenarios/load
  {"scenario_id": "household"}

NOTE:
  Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - cmd/budgetctl: "scenario load" runs the same loaders
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/warp/budget-engine/budget"
	"github.com/warp/budget-engine/payperiod"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "empty",
		Name:        "Empty",
		Description: "No accounts, budgets or transactions",
	},
	{
		ID:          "household",
		Name:        "Household",
		Description: "Paycheck, rent and groceries across periodic and standing budgets",
	},
	{
		ID:          "credit-cards",
		Name:        "Credit Cards",
		Description: "Household plus three credit cards to compare payoff methods",
	},
}

// Scenarios returns the available demo scenarios.
func Scenarios() []ScenarioDTO {
	return append([]ScenarioDTO(nil), scenarios...)
}

// SeedScenario replaces all data with scenario id, laid out around the
// period containing cal's today.
func SeedScenario(ctx context.Context, s budget.TxStore, cal *payperiod.Calendar, id string) error {
	var load func(*seeder)
	switch id {
	case "empty":
		load = func(*seeder) {}
	case "household":
		load = func(sd *seeder) { sd.household() }
	case "credit-cards":
		load = func(sd *seeder) {
			sd.household()
			sd.creditCards()
		}
	default:
		return &budget.ValidationError{Field: "scenario_id", Message: fmt.Sprintf("unknown scenario %q", id)}
	}

	return s.WithTx(ctx, func(tx budget.Store) error {
		if err := tx.Reset(ctx); err != nil {
			return fmt.Errorf("resetting data: %w", err)
		}
		sd := &seeder{ctx: ctx, s: tx, today: cal.Today(), current: cal.Current()}
		load(sd)
		if sd.err != nil {
			return fmt.Errorf("loading scenario %s: %w", id, sd.err)
		}
		return nil
	})
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := SeedScenario(r.Context(), h.Store, h.Calendar, req.ScenarioID); err != nil {
		h.writeStoreError(w, "Failed to load scenario", err)
		return
	}

	h.mu.Lock()
	h.currentScenario = req.ScenarioID
	h.mu.Unlock()
	h.log.Infow("scenario loaded", "scenario", req.ScenarioID)

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		h.writeStoreError(w, "Failed to reset database", err)
		return
	}

	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// seeder creates records until the first error, which it keeps.
type seeder struct {
	ctx     context.Context
	s       budget.Store
	today   budget.Date
	current *payperiod.Period
	err     error

	checking budget.Account
	budgets  map[string]budget.Budget
}

func (sd *seeder) account(a budget.Account) budget.Account {
	if sd.err != nil {
		return a
	}
	created, err := sd.s.CreateAccount(sd.ctx, a)
	sd.err = err
	return created
}

func (sd *seeder) budget(b budget.Budget) budget.Budget {
	if sd.err != nil {
		return b
	}
	b.IsActive = true
	created, err := sd.s.CreateBudget(sd.ctx, b)
	sd.err = err
	if sd.budgets == nil {
		sd.budgets = make(map[string]budget.Budget)
	}
	sd.budgets[b.Name] = created
	return created
}

func (sd *seeder) scheduled(desc, amount, budgetName string, mod func(*budget.ScheduledTransaction)) budget.ScheduledTransaction {
	st := budget.ScheduledTransaction{
		Description: desc,
		Amount:      budget.MustParseDecimal(amount),
		AccountID:   sd.checking.ID,
		BudgetID:    sd.budgets[budgetName].ID,
		IsActive:    true,
	}
	mod(&st)
	if sd.err != nil {
		return st
	}
	created, err := sd.s.CreateScheduled(sd.ctx, st)
	sd.err = err
	return created
}

func (sd *seeder) txn(d budget.Date, desc string, allocs ...budget.Allocation) budget.Transaction {
	t := budget.Transaction{Date: d, Description: desc, AccountID: sd.checking.ID, Allocations: allocs}
	return sd.createTxn(t)
}

// fulfill records the actual transaction for a scheduled one.
func (sd *seeder) fulfill(d budget.Date, st budget.ScheduledTransaction, amount string) budget.Transaction {
	budgeted := st.Amount
	return sd.createTxn(budget.Transaction{
		Date:            d,
		Description:     st.Description,
		AccountID:       st.AccountID,
		Allocations:     []budget.Allocation{{BudgetID: st.BudgetID, Amount: budget.MustParseDecimal(amount)}},
		BudgetedAmount:  &budgeted,
		ScheduledID:     &st.ID,
		PlannedBudgetID: &st.BudgetID,
	})
}

func (sd *seeder) createTxn(t budget.Transaction) budget.Transaction {
	if sd.err != nil {
		return t
	}
	created, err := sd.s.CreateTransaction(sd.ctx, t)
	sd.err = err
	return created
}

func (sd *seeder) alloc(budgetName, amount string) budget.Allocation {
	return budget.Allocation{BudgetID: sd.budgets[budgetName].ID, Amount: budget.MustParseDecimal(amount)}
}

// day returns the current period's start plus n days, never after today.
func (sd *seeder) day(n int) budget.Date {
	d := sd.current.Start().AddDays(n)
	if d.After(sd.today) {
		return sd.today
	}
	return d
}

func perPeriod(n int) func(*budget.ScheduledTransaction) {
	return func(s *budget.ScheduledTransaction) { s.NumPerPeriod = n }
}

func monthlyOn(day int) func(*budget.ScheduledTransaction) {
	return func(s *budget.ScheduledTransaction) { s.DayOfMonth = day }
}

func onDate(d budget.Date) func(*budget.ScheduledTransaction) {
	return func(s *budget.ScheduledTransaction) { s.Date = &d }
}

func (sd *seeder) household() {
	sd.checking = sd.account(budget.Account{
		Name:        "Checking",
		Description: "Joint checking",
		Type:        budget.AccountBank,
		IsActive:    true,
		Balance:     budget.MustParseDecimal("3250.18"),
		BalanceDate: sd.today,
	})

	sd.budget(budget.Budget{Name: "Paycheck", IsPeriodic: true, IsIncome: true, StartingBalance: budget.MustParseDecimal("2200")})
	sd.budget(budget.Budget{Name: "Food", IsPeriodic: true, StartingBalance: budget.MustParseDecimal("450")})
	sd.budget(budget.Budget{Name: "Car", IsPeriodic: true, StartingBalance: budget.MustParseDecimal("120")})
	sd.budget(budget.Budget{Name: "Housing", IsPeriodic: true, StartingBalance: budget.MustParseDecimal("1400")})
	sd.budget(budget.Budget{Name: "Utilities", IsPeriodic: true, StartingBalance: budget.MustParseDecimal("240")})
	sd.budget(budget.Budget{Name: "Savings", Description: "Sinking fund", CurrentBalance: budget.MustParseDecimal("1500")})
	sd.budget(budget.Budget{Name: "Emergency", CurrentBalance: budget.MustParseDecimal("5000"), OmitFromGraphs: true})

	paycheck := sd.scheduled("Paycheck", "-2200", "Paycheck", perPeriod(1))
	sd.scheduled("Groceries", "150", "Food", perPeriod(2))
	sd.scheduled("Gas", "60", "Car", perPeriod(1))
	sd.scheduled("Rent", "1400", "Housing", monthlyOn(1))
	electric := sd.scheduled("Electric", "95", "Utilities", monthlyOn(18))
	sd.scheduled("Internet", "65", "Utilities", monthlyOn(25))
	sd.scheduled("Car registration", "180", "Car", onDate(sd.current.Next().Start().AddDays(3)))

	prev := sd.current.Previous().Start()
	sd.fulfill(prev, paycheck, "-2200")
	groceries := sd.txn(prev.AddDays(2), "Grocery Outlet", sd.alloc("Food", "143.90"))
	sd.txn(prev.AddDays(5), "Shell", sd.alloc("Car", "55.00"))
	sd.fulfill(prev.AddDays(9), electric, "94.12")

	sd.fulfill(sd.day(0), paycheck, "-2200")
	sd.txn(sd.day(1), "Safeway", sd.alloc("Food", "82.17"))
	sd.txn(sd.day(2), "Chevron", sd.alloc("Car", "41.20"))
	sd.txn(sd.day(2), "Target", sd.alloc("Food", "70.55"), sd.alloc("Savings", "49.45"))

	if sd.err == nil {
		_, sd.err = sd.s.Reconcile(sd.ctx, budget.Reconcile{
			TransactionID: groceries.ID,
			OFXFitID:      "DEMO-" + uuid.New().String(),
			Note:          "demo reconcile",
		})
	}
}

func (sd *seeder) creditCards() {
	cards := []struct {
		name, balance, apr, calc, formula, limit string
	}{
		{"AmEx", "-3500", "0.1999", "AdbCompoundedDaily", "MinPaymentAmEx", "10000"},
		{"Discover", "-1250.40", "0.1499", "SimpleInterest", "MinPaymentDiscover", "5000"},
		{"Citi", "-780", "0.2249", "AdbCompoundedDaily", "MinPaymentCiti", "3000"},
	}

	sd.budget(budget.Budget{Name: "Card Payments", IsPeriodic: true, StartingBalance: budget.MustParseDecimal("300")})
	for _, c := range cards {
		sd.account(budget.Account{
			Name:            c.name,
			Type:            budget.AccountCredit,
			IsActive:        true,
			Balance:         budget.MustParseDecimal(c.balance),
			BalanceDate:     sd.today,
			APR:             budget.MustParseDecimal(c.apr),
			InterestClass:   c.calc,
			MinPaymentClass: c.formula,
			CreditLimit:     budget.DecimalPtr(c.limit),
		})
		sd.scheduled(c.name+" payment", "100", "Card Payments", monthlyOn(20))
	}
}
