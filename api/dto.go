/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the budget domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY:
  Amounts go out as decimal strings ("12.34") and come in as strings so
  the "decimal" validation can reject malformed input before parsing.

VALIDATION:
  Request types carry go-playground/validator tags. Custom tags
  (account_type, schedule_type, decimal) are registered in validation.go.

SEE ALSO:
  - handlers.go: Uses these types
  - validation.go: Validator setup
*/
package api

import (
	"github.com/shopspring/decimal"
	"github.com/warp/budget-engine/budget"
	"github.com/warp/budget-engine/interest"
	"github.com/warp/budget-engine/payperiod"
)

// =============================================================================
// ACCOUNTS
// =============================================================================

// AccountDTO represents an account in API responses.
type AccountDTO struct {
	ID              int64            `json:"id"`
	Name            string           `json:"name"`
	Description     string           `json:"description,omitempty"`
	Type            string           `json:"acct_type"`
	IsActive        bool             `json:"is_active"`
	Balance         decimal.Decimal  `json:"balance"`
	BalanceDate     string           `json:"balance_date,omitempty"`
	APR             decimal.Decimal  `json:"apr"`
	InterestClass   string           `json:"interest_class_name,omitempty"`
	MinPaymentClass string           `json:"min_payment_class_name,omitempty"`
	CreditLimit     *decimal.Decimal `json:"credit_limit,omitempty"`
}

// CreateAccountRequest is the request to create an account. Credit
// accounts must name their interest and minimum payment classes.
type CreateAccountRequest struct {
	Name            string `json:"name" validate:"required,max=50"`
	Description     string `json:"description" validate:"max=254"`
	Type            string `json:"acct_type" validate:"required,account_type"`
	IsActive        *bool  `json:"is_active"`
	Balance         string `json:"balance" validate:"omitempty,decimal"`
	BalanceDate     string `json:"balance_date" validate:"omitempty,datetime=2006-01-02"`
	APR             string `json:"apr" validate:"omitempty,decimal"`
	InterestClass   string `json:"interest_class_name" validate:"required_if=Type credit"`
	MinPaymentClass string `json:"min_payment_class_name" validate:"required_if=Type credit"`
	CreditLimit     string `json:"credit_limit" validate:"omitempty,decimal"`
}

func toAccountDTO(a budget.Account) AccountDTO {
	dto := AccountDTO{
		ID:              a.ID,
		Name:            a.Name,
		Description:     a.Description,
		Type:            string(a.Type),
		IsActive:        a.IsActive,
		Balance:         a.Balance,
		APR:             a.APR,
		InterestClass:   a.InterestClass,
		MinPaymentClass: a.MinPaymentClass,
		CreditLimit:     a.CreditLimit,
	}
	if !a.BalanceDate.IsZero() {
		dto.BalanceDate = a.BalanceDate.String()
	}
	return dto
}

func (req CreateAccountRequest) toAccount() budget.Account {
	a := budget.Account{
		Name:            req.Name,
		Description:     req.Description,
		Type:            budget.AccountType(req.Type),
		IsActive:        req.IsActive == nil || *req.IsActive,
		Balance:         parseDecimal(req.Balance),
		APR:             parseDecimal(req.APR),
		InterestClass:   req.InterestClass,
		MinPaymentClass: req.MinPaymentClass,
	}
	if req.BalanceDate != "" {
		a.BalanceDate = budget.MustParseDate(req.BalanceDate)
	}
	if req.CreditLimit != "" {
		limit := parseDecimal(req.CreditLimit)
		a.CreditLimit = &limit
	}
	return a
}

// =============================================================================
// BUDGETS
// =============================================================================

// BudgetDTO represents a budget in API responses.
type BudgetDTO struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	IsPeriodic      bool            `json:"is_periodic"`
	StartingBalance decimal.Decimal `json:"starting_balance"`
	CurrentBalance  decimal.Decimal `json:"current_balance"`
	IsActive        bool            `json:"is_active"`
	IsIncome        bool            `json:"is_income"`
	OmitFromGraphs  bool            `json:"omit_from_graphs"`
}

// CreateBudgetRequest is the request to create a budget.
type CreateBudgetRequest struct {
	Name            string `json:"name" validate:"required,max=50"`
	Description     string `json:"description" validate:"max=254"`
	IsPeriodic      bool   `json:"is_periodic"`
	StartingBalance string `json:"starting_balance" validate:"omitempty,decimal"`
	CurrentBalance  string `json:"current_balance" validate:"omitempty,decimal"`
	IsActive        *bool  `json:"is_active"`
	IsIncome        bool   `json:"is_income"`
	OmitFromGraphs  bool   `json:"omit_from_graphs"`
}

func toBudgetDTO(b budget.Budget) BudgetDTO {
	return BudgetDTO{
		ID:              b.ID,
		Name:            b.Name,
		Description:     b.Description,
		IsPeriodic:      b.IsPeriodic,
		StartingBalance: b.StartingBalance,
		CurrentBalance:  b.CurrentBalance,
		IsActive:        b.IsActive,
		IsIncome:        b.IsIncome,
		OmitFromGraphs:  b.OmitFromGraphs,
	}
}

func (req CreateBudgetRequest) toBudget() budget.Budget {
	return budget.Budget{
		Name:            req.Name,
		Description:     req.Description,
		IsPeriodic:      req.IsPeriodic,
		StartingBalance: parseDecimal(req.StartingBalance),
		CurrentBalance:  parseDecimal(req.CurrentBalance),
		IsActive:        req.IsActive == nil || *req.IsActive,
		IsIncome:        req.IsIncome,
		OmitFromGraphs:  req.OmitFromGraphs,
	}
}

// =============================================================================
// SCHEDULED TRANSACTIONS
// =============================================================================

// ScheduledDTO represents a scheduled transaction in API responses.
type ScheduledDTO struct {
	ID           int64           `json:"id"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	AccountID    int64           `json:"account_id"`
	AccountName  string          `json:"account_name"`
	BudgetID     int64           `json:"budget_id"`
	BudgetName   string          `json:"budget_name"`
	IsActive     bool            `json:"is_active"`
	ScheduleType string          `json:"schedule_type"`
	Date         *budget.Date    `json:"date,omitempty"`
	DayOfMonth   int             `json:"day_of_month,omitempty"`
	NumPerPeriod int             `json:"num_per_period,omitempty"`
	Notes        string          `json:"notes,omitempty"`
}

// CreateScheduledRequest is the request to create a scheduled transaction.
// ScheduleType picks which of Date, DayOfMonth and NumPerPeriod is used;
// the other two must be empty.
type CreateScheduledRequest struct {
	Description  string `json:"description" validate:"required,max=254"`
	Amount       string `json:"amount" validate:"required,decimal"`
	AccountID    int64  `json:"account_id" validate:"required,gt=0"`
	BudgetID     int64  `json:"budget_id" validate:"required,gt=0"`
	IsActive     *bool  `json:"is_active"`
	ScheduleType string `json:"schedule_type" validate:"required,schedule_type"`
	Date         string `json:"date" validate:"required_if=ScheduleType date,excluded_unless=ScheduleType date,omitempty,datetime=2006-01-02"`
	DayOfMonth   int    `json:"day_of_month" validate:"required_if=ScheduleType monthly,excluded_unless=ScheduleType monthly,omitempty,min=1,max=28"`
	NumPerPeriod int    `json:"num_per_period" validate:"required_if=ScheduleType per_period,excluded_unless=ScheduleType per_period,omitempty,min=1"`
	Notes        string `json:"notes"`
}

func toScheduledDTO(s budget.ScheduledTransaction) ScheduledDTO {
	return ScheduledDTO{
		ID:           s.ID,
		Description:  s.Description,
		Amount:       s.Amount,
		AccountID:    s.AccountID,
		AccountName:  s.AccountName,
		BudgetID:     s.BudgetID,
		BudgetName:   s.BudgetName,
		IsActive:     s.IsActive,
		ScheduleType: string(s.Type()),
		Date:         s.Date,
		DayOfMonth:   s.DayOfMonth,
		NumPerPeriod: s.NumPerPeriod,
		Notes:        s.Notes,
	}
}

func (req CreateScheduledRequest) toScheduled() budget.ScheduledTransaction {
	s := budget.ScheduledTransaction{
		Description:  req.Description,
		Amount:       parseDecimal(req.Amount),
		AccountID:    req.AccountID,
		BudgetID:     req.BudgetID,
		IsActive:     req.IsActive == nil || *req.IsActive,
		DayOfMonth:   req.DayOfMonth,
		NumPerPeriod: req.NumPerPeriod,
		Notes:        req.Notes,
	}
	if req.Date != "" {
		d := budget.MustParseDate(req.Date)
		s.Date = &d
	}
	return s
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// AllocationDTO is one budget's share of a transaction.
type AllocationDTO struct {
	BudgetID   int64           `json:"budget_id"`
	BudgetName string          `json:"budget_name"`
	Amount     decimal.Decimal `json:"amount"`
}

// TransactionDTO represents an actual transaction in API responses.
type TransactionDTO struct {
	ID               int64            `json:"id"`
	Date             budget.Date      `json:"date"`
	Description      string           `json:"description"`
	Amount           decimal.Decimal  `json:"amount"`
	AccountID        int64            `json:"account_id"`
	AccountName      string           `json:"account_name"`
	Budgets          []AllocationDTO  `json:"budgets"`
	BudgetedAmount   *decimal.Decimal `json:"budgeted_amount"`
	ScheduledTransID *int64           `json:"scheduled_trans_id"`
	PlannedBudgetID  *int64           `json:"planned_budget_id"`
	ReconcileID      *int64           `json:"reconcile_id"`
	Notes            string           `json:"notes,omitempty"`
}

// AllocationRequest is one budget's share in a write request.
type AllocationRequest struct {
	BudgetID int64  `json:"budget_id" validate:"required,gt=0"`
	Amount   string `json:"amount" validate:"required,decimal"`
}

// CreateTransactionRequest is the request to record an actual transaction.
type CreateTransactionRequest struct {
	Date             string              `json:"date" validate:"required,datetime=2006-01-02"`
	Description      string              `json:"description" validate:"max=254"`
	AccountID        int64               `json:"account_id" validate:"required,gt=0"`
	Budgets          []AllocationRequest `json:"budgets" validate:"required,min=1,dive"`
	BudgetedAmount   string              `json:"budgeted_amount" validate:"omitempty,decimal"`
	ScheduledTransID *int64              `json:"scheduled_trans_id" validate:"omitempty,gt=0"`
	PlannedBudgetID  *int64              `json:"planned_budget_id" validate:"omitempty,gt=0"`
	Notes            string              `json:"notes"`
}

// SetBudgetsRequest replaces a transaction's allocations.
type SetBudgetsRequest struct {
	Budgets []AllocationRequest `json:"budgets" validate:"required,min=1,dive"`
}

// ReconcileRequest links a transaction to a bank-reported one.
type ReconcileRequest struct {
	OFXAccountID int64  `json:"ofx_account_id" validate:"gte=0"`
	OFXFitID     string `json:"ofx_fitid" validate:"max=255"`
	Note         string `json:"note" validate:"max=254"`
}

// ReconcileDTO represents a reconcile in API responses.
type ReconcileDTO struct {
	ID            int64  `json:"id"`
	TransactionID int64  `json:"txn_id"`
	OFXAccountID  int64  `json:"ofx_account_id,omitempty"`
	OFXFitID      string `json:"ofx_fitid,omitempty"`
	Note          string `json:"note,omitempty"`
	ReconciledAt  string `json:"reconciled_at"`
}

func toTransactionDTO(t budget.Transaction) TransactionDTO {
	dto := TransactionDTO{
		ID:               t.ID,
		Date:             t.Date,
		Description:      t.Description,
		Amount:           t.Amount(),
		AccountID:        t.AccountID,
		AccountName:      t.AccountName,
		Budgets:          make([]AllocationDTO, len(t.Allocations)),
		BudgetedAmount:   t.BudgetedAmount,
		ScheduledTransID: t.ScheduledID,
		PlannedBudgetID:  t.PlannedBudgetID,
		ReconcileID:      t.ReconcileID,
		Notes:            t.Notes,
	}
	for i, a := range t.Allocations {
		dto.Budgets[i] = AllocationDTO{BudgetID: a.BudgetID, BudgetName: a.BudgetName, Amount: a.Amount}
	}
	return dto
}

func toAllocations(reqs []AllocationRequest) []budget.Allocation {
	allocs := make([]budget.Allocation, len(reqs))
	for i, a := range reqs {
		allocs[i] = budget.Allocation{BudgetID: a.BudgetID, Amount: parseDecimal(a.Amount)}
	}
	return allocs
}

func (req CreateTransactionRequest) toTransaction() budget.Transaction {
	t := budget.Transaction{
		Date:            budget.MustParseDate(req.Date),
		Description:     req.Description,
		AccountID:       req.AccountID,
		Allocations:     toAllocations(req.Budgets),
		ScheduledID:     req.ScheduledTransID,
		PlannedBudgetID: req.PlannedBudgetID,
		Notes:           req.Notes,
	}
	if req.BudgetedAmount != "" {
		amt := parseDecimal(req.BudgetedAmount)
		t.BudgetedAmount = &amt
	}
	return t
}

// =============================================================================
// PAY PERIODS
// =============================================================================

// PayPeriodsResponse is the pay period overview around today.
type PayPeriodsResponse struct {
	Today        budget.Date               `json:"today"`
	CurrentStart budget.Date               `json:"current_start_date"`
	Periods      []payperiod.PeriodSummary `json:"periods"`
}

// BudgetSumsDTO is one periodic budget's sums, with its name.
type BudgetSumsDTO struct {
	BudgetID   int64  `json:"budget_id"`
	BudgetName string `json:"budget_name"`
	*payperiod.BudgetSums
}

// PayPeriodDTO is everything the pay period view shows.
type PayPeriodDTO struct {
	StartDate    budget.Date               `json:"start_date"`
	EndDate      budget.Date               `json:"end_date"`
	IsInPast     bool                      `json:"is_in_past"`
	IsCurrent    bool                      `json:"is_current"`
	PrevStart    budget.Date               `json:"prev_start_date"`
	NextStart    budget.Date               `json:"next_start_date"`
	Transactions []payperiod.Record        `json:"transactions"`
	BudgetSums   []BudgetSumsDTO           `json:"budget_sums"`
	OverallSums  *payperiod.OverallSums    `json:"overall_sums"`
	Following    []payperiod.PeriodSummary `json:"following_periods"`
}

// =============================================================================
// PAYOFFS
// =============================================================================

// AdjustmentRequest is a dated max-payment change for the payoff simulator.
type AdjustmentRequest struct {
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
	Amount string `json:"amount" validate:"required,decimal"`
}

// PayoffsRequest customizes the payoff simulation.
type PayoffsRequest struct {
	Increases []AdjustmentRequest `json:"increases" validate:"dive"`
	Onetimes  []AdjustmentRequest `json:"onetimes" validate:"dive"`
}

// PayoffAccountDTO is one credit account in the payoff response.
type PayoffAccountDTO struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Balance    decimal.Decimal `json:"balance"`
	APR        decimal.Decimal `json:"apr"`
	MinPayment decimal.Decimal `json:"min_payment"`
}

// PayoffsResponse holds current minimums and every method's simulation.
type PayoffsResponse struct {
	Accounts      []PayoffAccountDTO      `json:"accounts"`
	MinPaymentSum decimal.Decimal         `json:"min_payment_sum"`
	Methods       []interest.MethodResult `json:"methods"`
}

func toAdjustments(reqs []AdjustmentRequest) interest.Adjustments {
	adj := make(interest.Adjustments, len(reqs))
	for i, a := range reqs {
		adj[i] = interest.Adjustment{Date: budget.MustParseDate(a.Date), Amount: parseDecimal(a.Amount)}
	}
	return adj
}

// =============================================================================
// SCENARIOS AND ERRORS
// =============================================================================

// ScenarioDTO describes a demo data set.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the request to load a demo scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// ErrorResponse is returned for all errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// parseDecimal parses a value that already passed the "decimal" validation.
// Empty means zero.
func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	return decimal.RequireFromString(s)
}
