// Package store provides budget.Store implementations.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/warp/budget-engine/budget"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type rwLocker interface {
	Lock()
	Unlock()
	RLock()
	RUnlock()
}

// nopLocker is used by the view handed to WithTx, which already holds the lock.
type nopLocker struct{}

func (nopLocker) Lock()    {}
func (nopLocker) Unlock()  {}
func (nopLocker) RLock()   {}
func (nopLocker) RUnlock() {}

type Memory struct {
	mu rwLocker
	*state
}

type state struct {
	lastID       int64
	accounts     map[int64]budget.Account
	budgets      map[int64]budget.Budget
	scheduled    map[int64]budget.ScheduledTransaction
	transactions map[int64]budget.Transaction
	reconciles   map[int64]budget.Reconcile
}

func newState() *state {
	return &state{
		accounts:     make(map[int64]budget.Account),
		budgets:      make(map[int64]budget.Budget),
		scheduled:    make(map[int64]budget.ScheduledTransaction),
		transactions: make(map[int64]budget.Transaction),
		reconciles:   make(map[int64]budget.Reconcile),
	}
}

func NewMemory() *Memory {
	return &Memory{mu: &sync.RWMutex{}, state: newState()}
}

var _ budget.TxStore = (*Memory)(nil)

func (s *state) nextID() int64 {
	s.lastID++
	return s.lastID
}

// =============================================================================
// PERIOD QUERIES
// =============================================================================

func (m *Memory) TransactionsBetween(_ context.Context, start, end budget.Date) ([]budget.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []budget.Transaction
	for _, t := range m.transactions {
		if start.BeforeOrEqual(t.Date) && t.Date.BeforeOrEqual(end) {
			result = append(result, m.decorateTransaction(t))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if c := result[i].Date.Compare(result[j].Date); c != 0 {
			return c < 0
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *Memory) ScheduledByDate(_ context.Context, start, end budget.Date) ([]budget.ScheduledTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.filterScheduled(func(s budget.ScheduledTransaction) bool {
		return s.Type() == budget.ScheduleDate &&
			start.BeforeOrEqual(*s.Date) && s.Date.BeforeOrEqual(end)
	}), nil
}

func (m *Memory) ScheduledPerPeriod(_ context.Context) ([]budget.ScheduledTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := m.filterScheduled(func(s budget.ScheduledTransaction) bool {
		return s.Type() == budget.SchedulePerPeriod
	})
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].NumPerPeriod != result[j].NumPerPeriod {
			return result[i].NumPerPeriod < result[j].NumPerPeriod
		}
		return result[i].Amount.LessThan(result[j].Amount)
	})
	return result, nil
}

func (m *Memory) ScheduledMonthly(_ context.Context, startDay, endDay int) ([]budget.ScheduledTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.filterScheduled(func(s budget.ScheduledTransaction) bool {
		return s.Type() == budget.ScheduleMonthly &&
			budget.MonthlyDayInRange(s.DayOfMonth, startDay, endDay)
	}), nil
}

// filterScheduled returns active scheduled transactions matching keep, by id.
func (m *Memory) filterScheduled(keep func(budget.ScheduledTransaction) bool) []budget.ScheduledTransaction {
	var result []budget.ScheduledTransaction
	for _, s := range m.scheduled {
		if s.IsActive && keep(s) {
			result = append(result, m.decorateScheduled(s))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (m *Memory) ActiveBudgets(_ context.Context) ([]budget.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []budget.Budget
	for _, b := range m.budgets {
		if b.IsActive {
			result = append(result, b)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func (m *Memory) CreateAccount(_ context.Context, a budget.Account) (budget.Account, error) {
	if err := a.Validate(); err != nil {
		return budget.Account{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	a.ID = m.nextID()
	m.accounts[a.ID] = a
	return a, nil
}

func (m *Memory) GetAccount(_ context.Context, id int64) (budget.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.accounts[id]
	if !ok {
		return budget.Account{}, &budget.NotFoundError{Kind: "account", ID: id}
	}
	return a, nil
}

func (m *Memory) ListAccounts(_ context.Context) ([]budget.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedAccounts(func(budget.Account) bool { return true }), nil
}

func (m *Memory) ActiveCreditAccounts(_ context.Context) ([]budget.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedAccounts(func(a budget.Account) bool {
		return a.IsActive && a.Type == budget.AccountCredit
	}), nil
}

func (m *Memory) sortedAccounts(keep func(budget.Account) bool) []budget.Account {
	var result []budget.Account
	for _, a := range m.accounts {
		if keep(a) {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// =============================================================================
// BUDGETS
// =============================================================================

func (m *Memory) CreateBudget(_ context.Context, b budget.Budget) (budget.Budget, error) {
	if err := b.Validate(); err != nil {
		return budget.Budget{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	b.ID = m.nextID()
	m.budgets[b.ID] = b
	return b, nil
}

func (m *Memory) GetBudget(_ context.Context, id int64) (budget.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.budgets[id]
	if !ok {
		return budget.Budget{}, &budget.NotFoundError{Kind: "budget", ID: id}
	}
	return b, nil
}

func (m *Memory) ListBudgets(_ context.Context) ([]budget.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]budget.Budget, 0, len(m.budgets))
	for _, b := range m.budgets {
		result = append(result, b)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// =============================================================================
// SCHEDULED TRANSACTIONS
// =============================================================================

func (m *Memory) CreateScheduled(_ context.Context, s budget.ScheduledTransaction) (budget.ScheduledTransaction, error) {
	if err := s.Validate(); err != nil {
		return budget.ScheduledTransaction{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[s.AccountID]; !ok {
		return budget.ScheduledTransaction{}, &budget.NotFoundError{Kind: "account", ID: s.AccountID}
	}
	if _, ok := m.budgets[s.BudgetID]; !ok {
		return budget.ScheduledTransaction{}, &budget.NotFoundError{Kind: "budget", ID: s.BudgetID}
	}
	s.ID = m.nextID()
	m.scheduled[s.ID] = s
	return m.decorateScheduled(s), nil
}

func (m *Memory) ListScheduled(_ context.Context) ([]budget.ScheduledTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]budget.ScheduledTransaction, 0, len(m.scheduled))
	for _, s := range m.scheduled {
		result = append(result, m.decorateScheduled(s))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func (m *Memory) CreateTransaction(_ context.Context, t budget.Transaction) (budget.Transaction, error) {
	if err := t.Validate(); err != nil {
		return budget.Transaction{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[t.AccountID]; !ok {
		return budget.Transaction{}, &budget.NotFoundError{Kind: "account", ID: t.AccountID}
	}
	if t.ScheduledID != nil {
		if _, ok := m.scheduled[*t.ScheduledID]; !ok {
			return budget.Transaction{}, &budget.NotFoundError{Kind: "scheduled transaction", ID: *t.ScheduledID}
		}
	}
	if err := m.checkAllocations(t.Allocations); err != nil {
		return budget.Transaction{}, err
	}

	t.ID = m.nextID()
	t.Allocations = append([]budget.Allocation(nil), t.Allocations...)
	m.applyStanding(nil, t.Allocations)
	m.transactions[t.ID] = t
	return m.decorateTransaction(t), nil
}

func (m *Memory) GetTransaction(_ context.Context, id int64) (budget.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.transactions[id]
	if !ok {
		return budget.Transaction{}, &budget.NotFoundError{Kind: "transaction", ID: id}
	}
	return m.decorateTransaction(t), nil
}

func (m *Memory) SetAllocations(_ context.Context, txnID int64, allocs []budget.Allocation) (budget.Transaction, error) {
	if err := budget.ValidateAllocations(allocs); err != nil {
		return budget.Transaction{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.transactions[txnID]
	if !ok {
		return budget.Transaction{}, &budget.NotFoundError{Kind: "transaction", ID: txnID}
	}
	if err := m.checkAllocations(allocs); err != nil {
		return budget.Transaction{}, err
	}

	newAllocs := append([]budget.Allocation(nil), allocs...)
	m.applyStanding(t.Allocations, newAllocs)
	t.Allocations = newAllocs
	m.transactions[t.ID] = t
	return m.decorateTransaction(t), nil
}

func (m *Memory) Reconcile(_ context.Context, r budget.Reconcile) (budget.Reconcile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.transactions[r.TransactionID]
	if !ok {
		return budget.Reconcile{}, &budget.NotFoundError{Kind: "transaction", ID: r.TransactionID}
	}
	if t.ReconcileID != nil {
		return budget.Reconcile{}, &budget.ValidationError{Field: "transaction_id", Message: fmt.Sprintf("transaction %d is already reconciled", r.TransactionID)}
	}
	if r.ReconciledAt.IsZero() {
		r.ReconciledAt = time.Now().UTC()
	}
	r.ID = m.nextID()
	m.reconciles[r.ID] = r
	t.ReconcileID = &r.ID
	m.transactions[t.ID] = t
	return r, nil
}

// checkAllocations requires every allocated budget to exist and be active.
func (m *Memory) checkAllocations(allocs []budget.Allocation) error {
	for _, a := range allocs {
		b, ok := m.budgets[a.BudgetID]
		if !ok {
			return &budget.NotFoundError{Kind: "budget", ID: a.BudgetID}
		}
		if !b.IsActive {
			return &budget.InactiveBudgetError{BudgetID: b.ID}
		}
	}
	return nil
}

// applyStanding moves standing budget balances from the old allocations to the new ones.
func (m *Memory) applyStanding(old, updated []budget.Allocation) {
	for _, a := range old {
		if b, ok := m.budgets[a.BudgetID]; ok && b.IsStanding() {
			b.CurrentBalance = b.CurrentBalance.Add(a.Amount)
			m.budgets[b.ID] = b
		}
	}
	for _, a := range updated {
		if b, ok := m.budgets[a.BudgetID]; ok && b.IsStanding() {
			b.CurrentBalance = b.CurrentBalance.Sub(a.Amount)
			m.budgets[b.ID] = b
		}
	}
}

// decorate* fill in display names the way a SQL join would.
func (m *Memory) decorateTransaction(t budget.Transaction) budget.Transaction {
	t.AccountName = m.accounts[t.AccountID].Name
	allocs := make([]budget.Allocation, len(t.Allocations))
	for i, a := range t.Allocations {
		a.BudgetName = m.budgets[a.BudgetID].Name
		allocs[i] = a
	}
	t.Allocations = allocs
	return t
}

func (m *Memory) decorateScheduled(s budget.ScheduledTransaction) budget.ScheduledTransaction {
	s.AccountName = m.accounts[s.AccountID].Name
	s.BudgetName = m.budgets[s.BudgetID].Name
	return s
}

// =============================================================================
// UTILITIES
// =============================================================================

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	*m.state = *newState()
	return nil
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (m *Memory) WithTx(_ context.Context, fn func(budget.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()
	view := &Memory{mu: nopLocker{}, state: m.state}
	if err := fn(view); err != nil {
		*m.state = *snapshot
		return err
	}
	return nil
}

func (s *state) clone() *state {
	c := newState()
	c.lastID = s.lastID
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.budgets {
		c.budgets[k] = v
	}
	for k, v := range s.scheduled {
		c.scheduled[k] = v
	}
	for k, v := range s.transactions {
		c.transactions[k] = v
	}
	for k, v := range s.reconciles {
		c.reconciles[k] = v
	}
	return c
}
