/*
handlers.go - HTTP API handlers for the budgeting engine

PURPOSE:
  Exposes the pay-period engine, the store and the payoff simulator via a
  REST API. Handles HTTP request/response, JSON serialization, and
  delegates to domain logic.

ENDPOINTS:
  Pay periods:
    GET    /api/payperiods                  Overview around today
    GET    /api/payperiods/for?date=...     Redirect to the containing period
    GET    /api/payperiods/{date}           Ledger and sums of one period

  Accounts / Budgets:
    GET    /api/accounts                    List accounts
    POST   /api/accounts                    Create account
    GET    /api/accounts/{id}               Get account
    GET    /api/budgets                     List budgets
    POST   /api/budgets                     Create budget
    GET    /api/budgets/{id}                Get budget

  Transactions:
    GET    /api/scheduled                   List scheduled transactions
    POST   /api/scheduled                   Create scheduled transaction
    POST   /api/transactions                Record actual transaction
    GET    /api/transactions/{id}           Get transaction
    PUT    /api/transactions/{id}/budgets   Replace budget allocations
    POST   /api/transactions/{id}/reconcile Link to a bank transaction

  Payoffs:
    GET    /api/payoffs                     Simulate every payoff method
    POST   /api/payoffs                     Same, with payment increases

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access (budget.TxStore)
  - Calendar: Pay period factory anchored at the configured epoch
  - Validator: Request body validation

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, inactive budgets
  - 404: Resource not found
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/warp/budget-engine/budget"
	"github.com/warp/budget-engine/interest"
	"github.com/warp/budget-engine/payperiod"
	"go.uber.org/zap"
)

// followingPeriods is how many periods after the viewed one get overall sums.
const followingPeriods = 3

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    budget.TxStore
	Calendar *payperiod.Calendar

	log      *zap.SugaredLogger
	validate *validator.Validate

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler with the given store and calendar.
func NewHandler(store budget.TxStore, cal *payperiod.Calendar, log *zap.SugaredLogger) *Handler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Handler{
		Store:    store,
		Calendar: cal,
		log:      log,
		validate: newValidator(),
	}
}

// =============================================================================
// PAY PERIOD HANDLERS
// =============================================================================

// ListPayPeriods returns overall sums for the previous, current, next and
// following periods.
// GET /api/payperiods
func (h *Handler) ListPayPeriods(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.Calendar.Overview(r.Context())
	if err != nil {
		h.writeStoreError(w, "Failed to load pay periods", err)
		return
	}

	writeJSON(w, http.StatusOK, PayPeriodsResponse{
		Today:        h.Calendar.Today(),
		CurrentStart: h.Calendar.Current().Start(),
		Periods:      summaries,
	})
}

// PayPeriodFor redirects to the period containing ?date=.
// GET /api/payperiods/for?date=YYYY-MM-DD
func (h *Handler) PayPeriodFor(w http.ResponseWriter, r *http.Request) {
	d, err := budget.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return
	}
	p := h.Calendar.PeriodFor(d)
	http.Redirect(w, r, "/api/payperiods/"+p.Start().String(), http.StatusFound)
}

// GetPayPeriod returns the ledger and sums of the period containing {date}.
// GET /api/payperiods/{date}
func (h *Handler) GetPayPeriod(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	d, err := budget.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return
	}
	p := h.Calendar.PeriodFor(d)

	records, err := p.Transactions(ctx)
	if err != nil {
		h.writeStoreError(w, "Failed to load pay period", err)
		return
	}
	sums, err := p.BudgetSums(ctx)
	if err != nil {
		h.writeStoreError(w, "Failed to load pay period", err)
		return
	}
	overall, err := p.OverallSums(ctx)
	if err != nil {
		h.writeStoreError(w, "Failed to load pay period", err)
		return
	}
	following, err := payperiod.Summarize(ctx, payperiod.Range(p.Next(), followingPeriods))
	if err != nil {
		h.writeStoreError(w, "Failed to load following pay periods", err)
		return
	}
	budgets, err := h.Store.ListBudgets(ctx)
	if err != nil {
		h.writeStoreError(w, "Failed to list budgets", err)
		return
	}

	if records == nil {
		records = []payperiod.Record{}
	}
	writeJSON(w, http.StatusOK, PayPeriodDTO{
		StartDate:    p.Start(),
		EndDate:      p.End(),
		IsInPast:     p.IsInPast(),
		IsCurrent:    p.Equal(h.Calendar.Current()),
		PrevStart:    p.Previous().Start(),
		NextStart:    p.Next().Start(),
		Transactions: records,
		BudgetSums:   budgetSumsDTOs(budgets, sums),
		OverallSums:  overall,
		Following:    following,
	})
}

// budgetSumsDTOs orders sums by budget name.
func budgetSumsDTOs(budgets []budget.Budget, sums map[int64]*payperiod.BudgetSums) []BudgetSumsDTO {
	dtos := make([]BudgetSumsDTO, 0, len(sums))
	for _, b := range budgets {
		if s, ok := sums[b.ID]; ok {
			dtos = append(dtos, BudgetSumsDTO{BudgetID: b.ID, BudgetName: b.Name, BudgetSums: s})
		}
	}
	sort.SliceStable(dtos, func(i, j int) bool { return dtos[i].BudgetName < dtos[j].BudgetName })
	return dtos
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

// ListAccounts returns all accounts.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Store.ListAccounts(r.Context())
	if err != nil {
		h.writeStoreError(w, "Failed to list accounts", err)
		return
	}

	dtos := make([]AccountDTO, len(accounts))
	for i, a := range accounts {
		dtos[i] = toAccountDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetAccount returns a single account.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	a, err := h.Store.GetAccount(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, "Failed to get account", err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(a))
}

// CreateAccount creates a new account.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid account", err)
		return
	}
	if req.Type == string(budget.AccountCredit) {
		if err := checkInterestClasses(req.InterestClass, req.MinPaymentClass); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid account", err)
			return
		}
	}

	a, err := h.Store.CreateAccount(r.Context(), req.toAccount())
	if err != nil {
		h.writeStoreError(w, "Failed to create account", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountDTO(a))
}

// checkInterestClasses rejects names the payoff simulator could not load.
func checkInterestClasses(calc, formula string) error {
	if _, err := interest.NewCalculation(calc, decimal.Zero); err != nil {
		return err
	}
	_, err := interest.NewMinPaymentFormula(formula)
	return err
}

// =============================================================================
// BUDGET HANDLERS
// =============================================================================

// ListBudgets returns all budgets, active and inactive.
func (h *Handler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := h.Store.ListBudgets(r.Context())
	if err != nil {
		h.writeStoreError(w, "Failed to list budgets", err)
		return
	}

	dtos := make([]BudgetDTO, len(budgets))
	for i, b := range budgets {
		dtos[i] = toBudgetDTO(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetBudget returns a single budget.
func (h *Handler) GetBudget(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	b, err := h.Store.GetBudget(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, "Failed to get budget", err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetDTO(b))
}

// CreateBudget creates a new budget.
func (h *Handler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	var req CreateBudgetRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid budget", err)
		return
	}

	b, err := h.Store.CreateBudget(r.Context(), req.toBudget())
	if err != nil {
		h.writeStoreError(w, "Failed to create budget", err)
		return
	}
	writeJSON(w, http.StatusCreated, toBudgetDTO(b))
}

// =============================================================================
// SCHEDULED TRANSACTION HANDLERS
// =============================================================================

// ListScheduled returns every scheduled transaction.
func (h *Handler) ListScheduled(w http.ResponseWriter, r *http.Request) {
	scheduled, err := h.Store.ListScheduled(r.Context())
	if err != nil {
		h.writeStoreError(w, "Failed to list scheduled transactions", err)
		return
	}

	dtos := make([]ScheduledDTO, len(scheduled))
	for i, s := range scheduled {
		dtos[i] = toScheduledDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateScheduled creates a scheduled transaction.
func (h *Handler) CreateScheduled(w http.ResponseWriter, r *http.Request) {
	var req CreateScheduledRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid scheduled transaction", err)
		return
	}

	s, err := h.Store.CreateScheduled(r.Context(), req.toScheduled())
	if err != nil {
		h.writeStoreError(w, "Failed to create scheduled transaction", err)
		return
	}
	writeJSON(w, http.StatusCreated, toScheduledDTO(s))
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

// CreateTransaction records an actual transaction.
// POST /api/transactions
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid transaction", err)
		return
	}

	t, err := h.Store.CreateTransaction(r.Context(), req.toTransaction())
	if err != nil {
		h.writeStoreError(w, "Failed to create transaction", err)
		return
	}
	h.log.Infow("transaction created", "transaction_id", t.ID, "amount", t.Amount().String(), "budgets", len(t.Allocations))
	writeJSON(w, http.StatusCreated, toTransactionDTO(t))
}

// GetTransaction returns a single transaction.
// GET /api/transactions/{id}
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	t, err := h.Store.GetTransaction(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, "Failed to get transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(t))
}

// SetTransactionBudgets replaces a transaction's budget allocations.
// Standing budget balances move with them.
// PUT /api/transactions/{id}/budgets
func (h *Handler) SetTransactionBudgets(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req SetBudgetsRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid budgets", err)
		return
	}

	t, err := h.Store.SetAllocations(r.Context(), id, toAllocations(req.Budgets))
	if err != nil {
		h.writeStoreError(w, "Failed to update transaction budgets", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(t))
}

// ReconcileTransaction links a transaction to a bank-reported transaction.
// POST /api/transactions/{id}/reconcile
func (h *Handler) ReconcileTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req ReconcileRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid reconcile", err)
		return
	}

	rec, err := h.Store.Reconcile(r.Context(), budget.Reconcile{
		TransactionID: id,
		OFXAccountID:  req.OFXAccountID,
		OFXFitID:      req.OFXFitID,
		Note:          req.Note,
	})
	if err != nil {
		h.writeStoreError(w, "Failed to reconcile transaction", err)
		return
	}
	writeJSON(w, http.StatusCreated, ReconcileDTO{
		ID:            rec.ID,
		TransactionID: rec.TransactionID,
		OFXAccountID:  rec.OFXAccountID,
		OFXFitID:      rec.OFXFitID,
		Note:          rec.Note,
		ReconciledAt:  rec.ReconciledAt.UTC().Format(time.RFC3339),
	})
}

// =============================================================================
// PAYOFF HANDLERS
// =============================================================================

// GetPayoffs simulates every payoff method over the active credit accounts.
// GET /api/payoffs
func (h *Handler) GetPayoffs(w http.ResponseWriter, r *http.Request) {
	h.payoffs(w, r, PayoffsRequest{})
}

// PostPayoffs is GetPayoffs with max payment increases and one-time
// payments.
// POST /api/payoffs
func (h *Handler) PostPayoffs(w http.ResponseWriter, r *http.Request) {
	var req PayoffsRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payoff settings", err)
		return
	}
	h.payoffs(w, r, req)
}

func (h *Handler) payoffs(w http.ResponseWriter, r *http.Request, req PayoffsRequest) {
	helper, err := interest.NewHelper(r.Context(), h.Store,
		interest.WithIncreases(toAdjustments(req.Increases)),
		interest.WithOnetimes(toAdjustments(req.Onetimes)),
		interest.WithHelperLogger(h.log),
	)
	if err != nil {
		h.writeStoreError(w, "Failed to load credit accounts", err)
		return
	}

	mins := helper.MinPayments()
	resp := PayoffsResponse{MinPaymentSum: decimal.Zero, Accounts: []PayoffAccountDTO{}}
	for _, a := range helper.Accounts() {
		resp.Accounts = append(resp.Accounts, PayoffAccountDTO{
			ID:         a.ID,
			Name:       a.Name,
			Balance:    a.Balance,
			APR:        a.APR,
			MinPayment: mins[a.ID],
		})
		resp.MinPaymentSum = resp.MinPaymentSum.Add(mins[a.ID])
	}
	resp.Methods = helper.CalculatePayoffs()

	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// HELPERS
// =============================================================================

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid id", err)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeStoreError maps domain errors to a status: 404 for missing records,
// 400 for client errors, 500 for everything else.
func (h *Handler) writeStoreError(w http.ResponseWriter, message string, err error) {
	switch {
	case budget.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case budget.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.log.Errorw(message, "error", err)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
